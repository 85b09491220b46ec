package staking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screwyprof/glanger/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMinStakeDuration sets how long a token stays locked after staking
func WithMinStakeDuration(d time.Duration) Option {
	return func(s *Service) { s.minStakeDuration = d }
}

// WithMaxBatchSize caps the number of tokens in a batch operation
func WithMaxBatchSize(n int) Option {
	return func(s *Service) { s.maxBatchSize = n }
}

// WithDefaultRewardsPerHour sets the rate stored by Genesis
func WithDefaultRewardsPerHour(rate *uint256.Int) Option {
	return func(s *Service) { s.defaultRate = rate }
}

// WithCollection configures the NFT collection
func WithCollection(c Collection) Option {
	return func(s *Service) { s.collection = c }
}

// WithRewardToken configures the reward token
func WithRewardToken(t RewardToken) Option {
	return func(s *Service) { s.token = t }
}

// WithEvents delivers committed events to ch.
// The channel is owned by the caller, who closes it after the last operation returns.
// Delivery outlives the caller's context; an event nobody receives within the
// event timeout is dropped with a warning.
func WithEvents(ch chan<- Event) Option {
	return func(s *Service) { s.events = ch }
}

// WithEventTimeout bounds how long an operation waits to hand over a committed event
func WithEventTimeout(d time.Duration) Option {
	return func(s *Service) { s.eventTimeout = d }
}

// Collection describes the staked NFT collection
type Collection struct {
	MaxTotalSupply   uint64
	BaseTokenURI     string
	OpenBoxBeforeURI string
	OpenBoxTime      time.Time
}

// RewardToken describes the fungible reward token
type RewardToken struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply *uint256.Int
}

// Service is the staking ledger together with the collection and reward token it settles in
// ------------------------------------------------------------------------------------------
type Service struct {
	store            Store
	owner            common.Address
	vault            common.Address
	clock            Clock
	minStakeDuration time.Duration
	maxBatchSize     int
	defaultRate      *uint256.Int
	collection       Collection
	token            RewardToken
	events           chan<- Event
	eventTimeout     time.Duration
}

// NewService constructs a Service with required dependencies and options.
// owner administers the reward rate and receives the initial token supply;
// vault is the ledger's own address that custodies staked tokens and the reward pool.
func NewService(store Store, owner, vault common.Address, opts ...Option) *Service {
	s := &Service{
		store:            store,
		owner:            owner,
		vault:            vault,
		clock:            clock.SystemClock{},
		minStakeDuration: DefaultMinStakeDuration,
		maxBatchSize:     DefaultMaxBatchSize,
		defaultRate:      DefaultRewardsPerHour(),
		eventTimeout:     DefaultEventTimeout,
		collection: Collection{
			MaxTotalSupply: DefaultMaxTotalSupply,
		},
		token: RewardToken{
			Name:          DefaultTokenName,
			Symbol:        DefaultTokenSymbol,
			Decimals:      DefaultTokenDecimals,
			InitialSupply: new(uint256.Int),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Owner returns the administrator address
func (s *Service) Owner() common.Address {
	return s.owner
}

// Vault returns the ledger's custody address
func (s *Service) Vault() common.Address {
	return s.vault
}

// Genesis mints the initial reward supply to the owner and stores the default rate.
// It is idempotent: existing supply and rate are left untouched.
func (s *Service) Genesis(ctx context.Context) error {
	now := s.now()
	var minted *uint256.Int

	err := s.update(ctx, func(tx Tx) error {
		if _, ok, err := tx.RewardsPerHour(ctx); err != nil {
			return err
		} else if !ok {
			if err := tx.SetRewardsPerHour(ctx, s.defaultRate); err != nil {
				return err
			}
		}

		supply, err := tx.RewardSupply(ctx)
		if err != nil {
			return err
		}
		if !supply.IsZero() || s.token.InitialSupply == nil || s.token.InitialSupply.IsZero() {
			return nil
		}

		if err := tx.SetRewardBalance(ctx, s.owner, s.token.InitialSupply); err != nil {
			return err
		}
		minted = s.token.InitialSupply
		return tx.SetRewardSupply(ctx, s.token.InitialSupply)
	})
	if err != nil {
		return err
	}

	if minted != nil {
		s.emit(ctx, RewardsTransferred{From: common.Address{}, To: s.owner, Amount: minted, At: now})
	}
	return nil
}

// now reads the clock at the microsecond precision every store keeps
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

// update runs fn in a write transaction, keeping domain errors intact and tagging the rest
func (s *Service) update(ctx context.Context, fn func(Tx) error) error {
	if err := s.store.Update(ctx, fn); err != nil {
		return classify(err)
	}
	return nil
}

// view runs fn in a read transaction
func (s *Service) view(ctx context.Context, fn func(Tx) error) error {
	if err := s.store.View(ctx, fn); err != nil {
		return classify(err)
	}
	return nil
}

// rewardsPerHour returns the stored rate, falling back to the configured default
func (s *Service) rewardsPerHour(ctx context.Context, tx Tx) (*uint256.Int, error) {
	rate, ok, err := tx.RewardsPerHour(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int).Set(s.defaultRate), nil
	}
	return rate, nil
}

// emit hands a committed event to the subscriber.
// The state change is already durable, so a cancelled ctx does not stop delivery.
func (s *Service) emit(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}

	timer := time.NewTimer(s.eventTimeout)
	defer timer.Stop()

	select {
	case s.events <- ev:
	case <-timer.C:
		slog.WarnContext(context.WithoutCancel(ctx), "Dropped ledger event",
			slog.String("event", EventName(ev)),
			slog.Duration("timeout", s.eventTimeout),
		)
	}
}

func classify(err error) error {
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreFailed, err)
}

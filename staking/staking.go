package staking

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Sentinel errors for failure cases
var (
	// Batch validation
	ErrEmptyBatch     = errors.New("token batch is empty")
	ErrBatchTooLarge  = errors.New("token batch exceeds maximum size")
	ErrDuplicateToken = errors.New("token appears more than once in batch")

	// Ledger rules
	ErrNotTokenOwner          = errors.New("caller does not own token")
	ErrNotApproved            = errors.New("operator is not approved for caller's tokens")
	ErrNothingStaked          = errors.New("caller has no staked tokens")
	ErrNotStakedByCaller      = errors.New("token is not staked by caller")
	ErrStakeLocked            = errors.New("token is still within the minimum stake duration")
	ErrNoRewards              = errors.New("no rewards to claim")
	ErrInsufficientRewardPool = errors.New("reward pool cannot cover the claim")
	ErrNotOwner               = errors.New("caller is not the ledger owner")
	ErrInvalidRewardRate      = errors.New("invalid reward rate")
	ErrRewardOverflow         = errors.New("reward calculation overflows 256 bits")
	ErrVaultCaller            = errors.New("vault cannot act on its own behalf")
	ErrVaultIsOwner           = errors.New("vault and owner must be different addresses")

	// Collection rules
	ErrTokenNotFound     = errors.New("token does not exist")
	ErrInvalidQuantity   = errors.New("mint quantity must be positive")
	ErrMaxSupplyExceeded = errors.New("mint would exceed max total supply")
	ErrApproveToCaller   = errors.New("cannot approve caller as its own operator")
	ErrZeroAddress       = errors.New("zero address is not allowed")
	ErrInvalidAddress    = errors.New("invalid address")

	// Reward token rules
	ErrInsufficientBalance = errors.New("insufficient reward token balance")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Infrastructure
	ErrStoreFailed = errors.New("store operation failed")
)

// Default configuration values
const (
	DefaultMinStakeDuration = 24 * time.Hour
	DefaultMaxBatchSize     = 100
	DefaultMaxTotalSupply   = uint64(10000)
	DefaultTokenName        = "Rewards Token"
	DefaultTokenSymbol      = "RT"
	DefaultTokenDecimals    = uint8(18)
	DefaultEventTimeout     = 5 * time.Second
)

// DefaultRewardsPerHour returns the reward rate used until the owner sets one
func DefaultRewardsPerHour() *uint256.Int {
	return uint256.NewInt(100000)
}

// Store runs ledger transactions
// ------------------------------
type Store interface {
	// Update runs fn in a read-write transaction. Nothing is persisted when fn fails.
	Update(ctx context.Context, fn func(Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the state visible inside a single store transaction
type Tx interface {
	// RewardsPerHour returns the stored rate; ok is false when none was stored yet.
	RewardsPerHour(ctx context.Context) (rate *uint256.Int, ok bool, err error)
	SetRewardsPerHour(ctx context.Context, rate *uint256.Int) error

	// Staker returns the staker record, or an empty one for unknown addresses.
	Staker(ctx context.Context, addr common.Address) (Staker, error)
	SaveStaker(ctx context.Context, s Staker) error
	// ActiveStakers returns every staker with at least one staked token.
	ActiveStakers(ctx context.Context) ([]Staker, error)
	// FindStakers returns up to ItemsPerPage()+1 active stakers ordered by address.
	FindStakers(ctx context.Context, criteria StakersCriteria) ([]Staker, error)

	// TokenOwner returns ErrTokenNotFound for ids that were never minted.
	TokenOwner(ctx context.Context, tokenID uint64) (common.Address, error)
	SetTokenOwner(ctx context.Context, tokenID uint64, owner common.Address) error
	TotalMinted(ctx context.Context) (uint64, error)
	OperatorApproval(ctx context.Context, owner, operator common.Address) (bool, error)
	SetOperatorApproval(ctx context.Context, owner, operator common.Address, approved bool) error

	RewardBalance(ctx context.Context, addr common.Address) (*uint256.Int, error)
	SetRewardBalance(ctx context.Context, addr common.Address, balance *uint256.Int) error
	RewardSupply(ctx context.Context) (*uint256.Int, error)
	SetRewardSupply(ctx context.Context, supply *uint256.Int) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	Now() time.Time
}

// Event represents a committed ledger change
// ------------------------------------------
type Event any

type Staked struct {
	Staker   common.Address
	TokenIDs []uint64
	At       time.Time
}

type Withdrawn struct {
	Staker   common.Address
	TokenIDs []uint64
	At       time.Time
}

type RewardsClaimed struct {
	Staker common.Address
	Amount *uint256.Int
	At     time.Time
}

type RewardRateChanged struct {
	Previous *uint256.Int
	Current  *uint256.Int
	At       time.Time
}

type TokensMinted struct {
	To       common.Address
	TokenIDs []uint64
	At       time.Time
}

type RewardsTransferred struct {
	From   common.Address
	To     common.Address
	Amount *uint256.Int
	At     time.Time
}

var domainErrors = []error{
	ErrEmptyBatch, ErrBatchTooLarge, ErrDuplicateToken,
	ErrNotTokenOwner, ErrNotApproved, ErrNothingStaked, ErrNotStakedByCaller, ErrStakeLocked,
	ErrNoRewards, ErrInsufficientRewardPool, ErrNotOwner, ErrInvalidRewardRate, ErrRewardOverflow, ErrVaultCaller,
	ErrTokenNotFound, ErrInvalidQuantity, ErrMaxSupplyExceeded, ErrApproveToCaller, ErrZeroAddress, ErrInvalidAddress,
	ErrInsufficientBalance, ErrInvalidAmount,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

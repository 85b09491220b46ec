package staking

import (
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var secondsPerHour = uint256.NewInt(3600)

// StakedToken is a single stake record owned by the ledger while active
type StakedToken struct {
	ID       uint64
	StakedAt time.Time
}

// Staker is the persisted state of one holder address
type Staker struct {
	Address          common.Address
	Tokens           []StakedToken // in stake order
	UnclaimedRewards *uint256.Int
	LastUpdate       time.Time
}

// StakeInfo is the holder aggregate derived on demand
type StakeInfo struct {
	TokensStaked     uint64
	AvailableRewards *uint256.Int
	TokenIDs         []uint64
}

// NewStaker creates an empty staker record
func NewStaker(addr common.Address) Staker {
	return Staker{
		Address:          addr,
		UnclaimedRewards: new(uint256.Int),
	}
}

// Unclaimed returns the stored unclaimed rewards, treating nil as zero
func (s Staker) Unclaimed() *uint256.Int {
	if s.UnclaimedRewards == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(s.UnclaimedRewards)
}

// IsActive reports whether the staker has at least one staked token
func (s Staker) IsActive() bool {
	return len(s.Tokens) > 0
}

// TokenIDs returns the staked ids in stake order
func (s Staker) TokenIDs() []uint64 {
	ids := make([]uint64, len(s.Tokens))
	for i, t := range s.Tokens {
		ids[i] = t.ID
	}
	return ids
}

// PendingRewards computes rewards accrued since the last update:
// elapsed seconds × staked tokens × rewards per hour / 3600, rounded down.
func (s Staker) PendingRewards(now time.Time, rewardsPerHour *uint256.Int) (*uint256.Int, error) {
	if !s.IsActive() || !now.After(s.LastUpdate) || rewardsPerHour == nil {
		return new(uint256.Int), nil
	}

	elapsed := uint256.NewInt(uint64(now.Sub(s.LastUpdate) / time.Second))
	count := uint256.NewInt(uint64(len(s.Tokens)))

	rewards, overflow := new(uint256.Int).MulOverflow(elapsed, count)
	if overflow {
		return nil, ErrRewardOverflow
	}
	if _, overflow = rewards.MulOverflow(rewards, rewardsPerHour); overflow {
		return nil, ErrRewardOverflow
	}
	return rewards.Div(rewards, secondsPerHour), nil
}

// AvailableRewards is what a claim at now would pay out
func (s Staker) AvailableRewards(now time.Time, rewardsPerHour *uint256.Int) (*uint256.Int, error) {
	pending, err := s.PendingRewards(now, rewardsPerHour)
	if err != nil {
		return nil, err
	}
	total, overflow := new(uint256.Int).AddOverflow(s.Unclaimed(), pending)
	if overflow {
		return nil, ErrRewardOverflow
	}
	return total, nil
}

// Accrue folds pending rewards into the unclaimed balance and moves LastUpdate to now
func (s *Staker) Accrue(now time.Time, rewardsPerHour *uint256.Int) error {
	total, err := s.AvailableRewards(now, rewardsPerHour)
	if err != nil {
		return err
	}
	s.UnclaimedRewards = total
	s.LastUpdate = now
	return nil
}

// Info builds the holder aggregate as of now
func (s Staker) Info(now time.Time, rewardsPerHour *uint256.Int) (StakeInfo, error) {
	rewards, err := s.AvailableRewards(now, rewardsPerHour)
	if err != nil {
		return StakeInfo{}, err
	}
	return StakeInfo{
		TokensStaked:     uint64(len(s.Tokens)),
		AvailableRewards: rewards,
		TokenIDs:         s.TokenIDs(),
	}, nil
}

func (s Staker) indexOf(tokenID uint64) int {
	return slices.IndexFunc(s.Tokens, func(t StakedToken) bool { return t.ID == tokenID })
}

// unstake removes tokenID keeping the order of the remaining tokens.
// It enforces the minimum stake duration.
func (s *Staker) unstake(tokenID uint64, now time.Time, minStake time.Duration) error {
	i := s.indexOf(tokenID)
	if i < 0 {
		return fmt.Errorf("%w: token %d", ErrNotStakedByCaller, tokenID)
	}

	if staked := now.Sub(s.Tokens[i].StakedAt); staked < minStake {
		return fmt.Errorf("%w: token %d unlocks in %s", ErrStakeLocked, tokenID, (minStake - staked).Round(time.Second))
	}

	s.Tokens = slices.Delete(s.Tokens, i, i+1)
	return nil
}

package staking

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Stake locks a single token in the ledger
func (s *Service) Stake(ctx context.Context, caller common.Address, tokenID uint64) (StakeInfo, error) {
	return s.StakeBatch(ctx, caller, []uint64{tokenID})
}

// StakeBatch locks all tokens or none of them.
// The caller must own every token and have approved the vault as operator.
func (s *Service) StakeBatch(ctx context.Context, caller common.Address, tokenIDs []uint64) (StakeInfo, error) {
	if err := s.checkCaller(caller); err != nil {
		return StakeInfo{}, err
	}
	if err := s.checkBatch(tokenIDs); err != nil {
		return StakeInfo{}, err
	}

	now := s.now()
	var info StakeInfo

	err := s.update(ctx, func(tx Tx) error {
		rate, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		staker, err := tx.Staker(ctx, caller)
		if err != nil {
			return err
		}
		if err := staker.Accrue(now, rate); err != nil {
			return err
		}

		for _, id := range tokenIDs {
			if err := s.transferToken(ctx, tx, s.vault, caller, s.vault, id); err != nil {
				return err
			}
			staker.Tokens = append(staker.Tokens, StakedToken{ID: id, StakedAt: now})
		}

		if err := tx.SaveStaker(ctx, staker); err != nil {
			return err
		}

		info, err = staker.Info(now, rate)
		return err
	})
	if err != nil {
		return StakeInfo{}, err
	}

	s.emit(ctx, Staked{Staker: caller, TokenIDs: tokenIDs, At: now})
	return info, nil
}

// Withdraw returns a single staked token to the caller
func (s *Service) Withdraw(ctx context.Context, caller common.Address, tokenID uint64) (StakeInfo, error) {
	return s.WithdrawBatch(ctx, caller, []uint64{tokenID})
}

// WithdrawBatch returns all tokens or none of them.
// Each token must have been staked by the caller for at least the minimum stake duration.
func (s *Service) WithdrawBatch(ctx context.Context, caller common.Address, tokenIDs []uint64) (StakeInfo, error) {
	if err := s.checkCaller(caller); err != nil {
		return StakeInfo{}, err
	}
	if err := s.checkBatch(tokenIDs); err != nil {
		return StakeInfo{}, err
	}

	now := s.now()
	var info StakeInfo

	err := s.update(ctx, func(tx Tx) error {
		rate, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		staker, err := tx.Staker(ctx, caller)
		if err != nil {
			return err
		}
		if !staker.IsActive() {
			return ErrNothingStaked
		}
		if err := staker.Accrue(now, rate); err != nil {
			return err
		}

		for _, id := range tokenIDs {
			if err := staker.unstake(id, now, s.minStakeDuration); err != nil {
				return err
			}
			if err := s.transferToken(ctx, tx, s.vault, s.vault, caller, id); err != nil {
				return err
			}
		}

		if err := tx.SaveStaker(ctx, staker); err != nil {
			return err
		}

		info, err = staker.Info(now, rate)
		return err
	})
	if err != nil {
		return StakeInfo{}, err
	}

	s.emit(ctx, Withdrawn{Staker: caller, TokenIDs: tokenIDs, At: now})
	return info, nil
}

// ClaimRewards pays out everything the caller has accrued from the vault's reward pool
func (s *Service) ClaimRewards(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	if err := s.checkCaller(caller); err != nil {
		return nil, err
	}

	now := s.now()
	var claimed *uint256.Int

	err := s.update(ctx, func(tx Tx) error {
		rate, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		staker, err := tx.Staker(ctx, caller)
		if err != nil {
			return err
		}

		rewards, err := staker.AvailableRewards(now, rate)
		if err != nil {
			return err
		}
		if rewards.IsZero() {
			return ErrNoRewards
		}

		pool, err := tx.RewardBalance(ctx, s.vault)
		if err != nil {
			return err
		}
		if pool.Lt(rewards) {
			return fmt.Errorf("%w: pool holds %s, claim needs %s", ErrInsufficientRewardPool, pool.Dec(), rewards.Dec())
		}

		if err := s.moveRewards(ctx, tx, s.vault, caller, rewards); err != nil {
			return err
		}

		staker.UnclaimedRewards = new(uint256.Int)
		staker.LastUpdate = now
		if err := tx.SaveStaker(ctx, staker); err != nil {
			return err
		}

		claimed = rewards
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, RewardsClaimed{Staker: caller, Amount: claimed, At: now})
	return claimed, nil
}

// SetRewardsPerHour changes the reward rate. Only the owner may call it.
// Every active staker is settled at the old rate first so the change is never retroactive.
func (s *Service) SetRewardsPerHour(ctx context.Context, caller common.Address, rate *uint256.Int) error {
	if caller != s.owner {
		return ErrNotOwner
	}
	if rate == nil {
		return ErrInvalidRewardRate
	}

	now := s.now()
	var previous *uint256.Int

	err := s.update(ctx, func(tx Tx) error {
		old, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		stakers, err := tx.ActiveStakers(ctx)
		if err != nil {
			return err
		}
		for _, staker := range stakers {
			if err := staker.Accrue(now, old); err != nil {
				return fmt.Errorf("settle %s: %w", staker.Address.Hex(), err)
			}
			if err := tx.SaveStaker(ctx, staker); err != nil {
				return err
			}
		}

		previous = old
		return tx.SetRewardsPerHour(ctx, rate)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, RewardRateChanged{Previous: previous, Current: new(uint256.Int).Set(rate), At: now})
	return nil
}

// RewardsPerHour returns the current reward rate
func (s *Service) RewardsPerHour(ctx context.Context) (*uint256.Int, error) {
	var rate *uint256.Int
	err := s.view(ctx, func(tx Tx) error {
		var err error
		rate, err = s.rewardsPerHour(ctx, tx)
		return err
	})
	return rate, err
}

// UserStakeInfo returns (count, available rewards, staked ids) for addr.
// Unknown addresses yield an empty aggregate.
func (s *Service) UserStakeInfo(ctx context.Context, addr common.Address) (StakeInfo, error) {
	now := s.now()
	var info StakeInfo

	err := s.view(ctx, func(tx Tx) error {
		rate, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		staker, err := tx.Staker(ctx, addr)
		if err != nil {
			return err
		}

		info, err = staker.Info(now, rate)
		return err
	})
	return info, err
}

// Stakers lists active stakers ordered by address
func (s *Service) Stakers(ctx context.Context, criteria StakersCriteria) (*StakersPage, error) {
	now := s.now()
	page := &StakersPage{Number: criteria.Page, Size: criteria.Size}

	err := s.view(ctx, func(tx Tx) error {
		rate, err := s.rewardsPerHour(ctx, tx)
		if err != nil {
			return err
		}

		stakers, err := tx.FindStakers(ctx, criteria)
		if err != nil {
			return err
		}

		// Stores return one extra row to detect further pages
		if uint64(len(stakers)) > criteria.ItemsPerPage() {
			page.HasMore = true
			stakers = stakers[:criteria.ItemsPerPage()]
		}

		page.Stakers = make([]StakerSummary, 0, len(stakers))
		for _, staker := range stakers {
			info, err := staker.Info(now, rate)
			if err != nil {
				return err
			}
			page.Stakers = append(page.Stakers, StakerSummary{Address: staker.Address, Info: info})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *Service) checkBatch(tokenIDs []uint64) error {
	if len(tokenIDs) == 0 {
		return ErrEmptyBatch
	}
	if s.maxBatchSize > 0 && len(tokenIDs) > s.maxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(tokenIDs), s.maxBatchSize)
	}

	seen := make(map[uint64]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: token %d", ErrDuplicateToken, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// checkCaller keeps the vault from moving the tokens and rewards it holds in custody
func (s *Service) checkCaller(caller common.Address) error {
	if caller == s.vault {
		return ErrVaultCaller
	}
	return nil
}

package staking

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenMetadata returns the reward token's name, symbol and decimals
func (s *Service) TokenMetadata() RewardToken {
	return RewardToken{
		Name:     s.token.Name,
		Symbol:   s.token.Symbol,
		Decimals: s.token.Decimals,
	}
}

// Transfer moves reward tokens between accounts.
// Funding the reward pool is a transfer to the vault address.
func (s *Service) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}
	if err := s.checkCaller(from); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	now := s.now()
	err := s.update(ctx, func(tx Tx) error {
		return s.moveRewards(ctx, tx, from, to, amount)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, RewardsTransferred{From: from, To: to, Amount: new(uint256.Int).Set(amount), At: now})
	return nil
}

// BalanceOf returns the reward token balance of addr
func (s *Service) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := s.view(ctx, func(tx Tx) error {
		var err error
		balance, err = tx.RewardBalance(ctx, addr)
		return err
	})
	return balance, err
}

// TotalSupply returns the amount of reward tokens in existence
func (s *Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	var supply *uint256.Int
	err := s.view(ctx, func(tx Tx) error {
		var err error
		supply, err = tx.RewardSupply(ctx)
		return err
	})
	return supply, err
}

func (s *Service) moveRewards(ctx context.Context, tx Tx, from, to common.Address, amount *uint256.Int) error {
	fromBalance, err := tx.RewardBalance(ctx, from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}

	toBalance, err := tx.RewardBalance(ctx, to)
	if err != nil {
		return err
	}
	// Cannot overflow: the sum of balances never exceeds the total supply
	toBalance = new(uint256.Int).Add(toBalance, amount)

	if err := tx.SetRewardBalance(ctx, from, new(uint256.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return tx.SetRewardBalance(ctx, to, toBalance)
}

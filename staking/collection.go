package staking

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Mint creates quantity new tokens for to with sequential ids starting at the current supply
func (s *Service) Mint(ctx context.Context, to common.Address, quantity uint64) ([]uint64, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if to == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	now := s.now()
	var ids []uint64

	err := s.update(ctx, func(tx Tx) error {
		minted, err := tx.TotalMinted(ctx)
		if err != nil {
			return err
		}
		if quantity > s.collection.MaxTotalSupply || minted > s.collection.MaxTotalSupply-quantity {
			return fmt.Errorf("%w: %d minted, %d requested, max %d", ErrMaxSupplyExceeded, minted, quantity, s.collection.MaxTotalSupply)
		}

		ids = make([]uint64, 0, quantity)
		for id := minted; id < minted+quantity; id++ {
			if err := tx.SetTokenOwner(ctx, id, to); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, TokensMinted{To: to, TokenIDs: ids, At: now})
	return ids, nil
}

// SetApprovalForAll lets operator move every token owned by owner
func (s *Service) SetApprovalForAll(ctx context.Context, owner, operator common.Address, approved bool) error {
	if err := s.checkCaller(owner); err != nil {
		return err
	}
	if owner == operator {
		return ErrApproveToCaller
	}
	if operator == (common.Address{}) {
		return ErrZeroAddress
	}
	return s.update(ctx, func(tx Tx) error {
		return tx.SetOperatorApproval(ctx, owner, operator, approved)
	})
}

// IsApprovedForAll reports whether operator may move owner's tokens
func (s *Service) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	var approved bool
	err := s.view(ctx, func(tx Tx) error {
		var err error
		approved, err = tx.OperatorApproval(ctx, owner, operator)
		return err
	})
	return approved, err
}

// OwnerOf returns the current holder of tokenID; staked tokens are held by the vault
func (s *Service) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	var owner common.Address
	err := s.view(ctx, func(tx Tx) error {
		var err error
		owner, err = tx.TokenOwner(ctx, tokenID)
		return err
	})
	return owner, err
}

// TotalMinted returns the number of tokens minted so far
func (s *Service) TotalMinted(ctx context.Context) (uint64, error) {
	var minted uint64
	err := s.view(ctx, func(tx Tx) error {
		var err error
		minted, err = tx.TotalMinted(ctx)
		return err
	})
	return minted, err
}

// TokenURI returns the unrevealed URI before the box opens and baseURI+id afterwards
func (s *Service) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	if _, err := s.OwnerOf(ctx, tokenID); err != nil {
		return "", err
	}
	if s.now().Before(s.collection.OpenBoxTime) {
		return s.collection.OpenBoxBeforeURI, nil
	}
	return s.collection.BaseTokenURI + strconv.FormatUint(tokenID, 10), nil
}

// TransferFrom moves tokenID from from to to on behalf of caller
func (s *Service) TransferFrom(ctx context.Context, caller, from, to common.Address, tokenID uint64) error {
	if caller == s.vault || from == s.vault {
		return ErrVaultCaller
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	return s.update(ctx, func(tx Tx) error {
		return s.transferToken(ctx, tx, caller, from, to, tokenID)
	})
}

// transferToken moves a token inside tx after checking ownership and operator approval
func (s *Service) transferToken(ctx context.Context, tx Tx, operator, from, to common.Address, tokenID uint64) error {
	owner, err := tx.TokenOwner(ctx, tokenID)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: token %d", ErrNotTokenOwner, tokenID)
	}

	if operator != from {
		approved, err := tx.OperatorApproval(ctx, from, operator)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("%w: %s for %s", ErrNotApproved, operator.Hex(), from.Hex())
		}
	}

	return tx.SetTokenOwner(ctx, tokenID, to)
}

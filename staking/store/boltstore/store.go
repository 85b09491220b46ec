// Package boltstore keeps ledger state in an embedded bbolt file.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	bolt "go.etcd.io/bbolt"

	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrOpenFailed    = errors.New("failed to open bolt database")
	ErrCorruptRecord = errors.New("corrupt record")
)

// Bucket names
var (
	bucketSettings  = []byte("settings")
	bucketStakers   = []byte("stakers")
	bucketOwners    = []byte("nft_owners")
	bucketApprovals = []byte("nft_approvals")
	bucketBalances  = []byte("reward_balances")
)

// Keys inside the settings bucket
var (
	keyRewardsPerHour = []byte("rewards_per_hour")
	keyRewardSupply   = []byte("reward_supply")
	keyTotalMinted    = []byte("nft_total_minted")
)

var approvedMarker = []byte{1}

// Store implements staking.Store on top of bbolt.
// Writers are serialised by bbolt, readers run concurrently.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path.
// Returns the store and a closer function
func Open(path string) (*Store, func(), error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSettings, bucketStakers, bucketOwners, bucketApprovals, bucketBalances} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	store := &Store{db: db}
	closer := func() {
		_ = db.Close()
	}
	return store, closer, nil
}

// Update runs fn in a read-write bolt transaction
func (s *Store) Update(ctx context.Context, fn func(staking.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&tx{btx: btx})
	})
}

// View runs fn in a read-only bolt transaction
func (s *Store) View(ctx context.Context, fn func(staking.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&tx{btx: btx})
	})
}

type tx struct {
	btx *bolt.Tx
}

func (t *tx) RewardsPerHour(_ context.Context) (*uint256.Int, bool, error) {
	raw := t.btx.Bucket(bucketSettings).Get(keyRewardsPerHour)
	if raw == nil {
		return nil, false, nil
	}
	rate, err := parseAmount(raw)
	return rate, err == nil, err
}

func (t *tx) SetRewardsPerHour(_ context.Context, rate *uint256.Int) error {
	return t.btx.Bucket(bucketSettings).Put(keyRewardsPerHour, []byte(dbrow.Amount(rate)))
}

func (t *tx) Staker(_ context.Context, addr common.Address) (staking.Staker, error) {
	raw := t.btx.Bucket(bucketStakers).Get(addr.Bytes())
	if raw == nil {
		return staking.NewStaker(addr), nil
	}
	return decodeStaker(raw)
}

func (t *tx) SaveStaker(_ context.Context, s staking.Staker) error {
	raw, err := json.Marshal(dbrow.FromStaker(s))
	if err != nil {
		return err
	}
	return t.btx.Bucket(bucketStakers).Put(s.Address.Bytes(), raw)
}

func (t *tx) ActiveStakers(_ context.Context) ([]staking.Staker, error) {
	var stakers []staking.Staker
	err := t.forEachActiveStaker(func(s staking.Staker) bool {
		stakers = append(stakers, s)
		return true
	})
	return stakers, err
}

func (t *tx) FindStakers(_ context.Context, criteria staking.StakersCriteria) ([]staking.Staker, error) {
	skip := criteria.ItemsToSkip()
	limit := criteria.ItemsPerPage() + 1 // one extra to detect "has more"

	var stakers []staking.Staker
	err := t.forEachActiveStaker(func(s staking.Staker) bool {
		if skip > 0 {
			skip--
			return true
		}
		stakers = append(stakers, s)
		return uint64(len(stakers)) < limit
	})
	return stakers, err
}

// forEachActiveStaker walks stakers in address order until fn returns false
func (t *tx) forEachActiveStaker(fn func(staking.Staker) bool) error {
	c := t.btx.Bucket(bucketStakers).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		s, err := decodeStaker(v)
		if err != nil {
			return err
		}
		if !s.IsActive() {
			continue
		}
		if !fn(s) {
			return nil
		}
	}
	return nil
}

func (t *tx) TokenOwner(_ context.Context, tokenID uint64) (common.Address, error) {
	raw := t.btx.Bucket(bucketOwners).Get(tokenKey(tokenID))
	if raw == nil {
		return common.Address{}, fmt.Errorf("%w: %d", staking.ErrTokenNotFound, tokenID)
	}
	return common.BytesToAddress(raw), nil
}

func (t *tx) SetTokenOwner(_ context.Context, tokenID uint64, owner common.Address) error {
	owners := t.btx.Bucket(bucketOwners)
	key := tokenKey(tokenID)
	isNew := owners.Get(key) == nil

	if err := owners.Put(key, owner.Bytes()); err != nil {
		return err
	}
	if !isNew {
		return nil
	}

	minted, err := t.TotalMinted(context.Background())
	if err != nil {
		return err
	}
	return t.btx.Bucket(bucketSettings).Put(keyTotalMinted, binary.BigEndian.AppendUint64(nil, minted+1))
}

func (t *tx) TotalMinted(_ context.Context) (uint64, error) {
	raw := t.btx.Bucket(bucketSettings).Get(keyTotalMinted)
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("%w: total minted", ErrCorruptRecord)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (t *tx) OperatorApproval(_ context.Context, owner, operator common.Address) (bool, error) {
	return t.btx.Bucket(bucketApprovals).Get(approvalKey(owner, operator)) != nil, nil
}

func (t *tx) SetOperatorApproval(_ context.Context, owner, operator common.Address, approved bool) error {
	approvals := t.btx.Bucket(bucketApprovals)
	if approved {
		return approvals.Put(approvalKey(owner, operator), approvedMarker)
	}
	return approvals.Delete(approvalKey(owner, operator))
}

func (t *tx) RewardBalance(_ context.Context, addr common.Address) (*uint256.Int, error) {
	raw := t.btx.Bucket(bucketBalances).Get(addr.Bytes())
	if raw == nil {
		return new(uint256.Int), nil
	}
	return parseAmount(raw)
}

func (t *tx) SetRewardBalance(_ context.Context, addr common.Address, balance *uint256.Int) error {
	return t.btx.Bucket(bucketBalances).Put(addr.Bytes(), []byte(dbrow.Amount(balance)))
}

func (t *tx) RewardSupply(_ context.Context) (*uint256.Int, error) {
	raw := t.btx.Bucket(bucketSettings).Get(keyRewardSupply)
	if raw == nil {
		return new(uint256.Int), nil
	}
	return parseAmount(raw)
}

func (t *tx) SetRewardSupply(_ context.Context, supply *uint256.Int) error {
	return t.btx.Bucket(bucketSettings).Put(keyRewardSupply, []byte(dbrow.Amount(supply)))
}

func decodeStaker(raw []byte) (staking.Staker, error) {
	var row dbrow.Staker
	if err := json.Unmarshal(raw, &row); err != nil {
		return staking.Staker{}, fmt.Errorf("%w: staker: %w", ErrCorruptRecord, err)
	}
	s, err := row.ToStaker()
	if err != nil {
		return staking.Staker{}, fmt.Errorf("%w: staker %s: %w", ErrCorruptRecord, row.Address, err)
	}
	return s, nil
}

func parseAmount(raw []byte) (*uint256.Int, error) {
	v, err := dbrow.ParseAmount(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return v, nil
}

func tokenKey(tokenID uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, tokenID)
}

func approvalKey(owner, operator common.Address) []byte {
	return append(owner.Bytes(), operator.Bytes()...)
}

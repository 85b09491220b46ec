// Package pgxstore keeps ledger state in PostgreSQL.
package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/glanger/pkg/pgxdb"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrQueryFailed = errors.New("ledger query failed")
	ErrWriteFailed = errors.New("ledger write failed")
)

var (
	writeOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}
	readOptions  = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// Store implements staking.Store using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL ledger store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// Update runs fn in a serializable transaction, retrying on conflicts
func (s *Store) Update(ctx context.Context, fn func(staking.Tx) error) error {
	return pgxdb.InTx(ctx, s.pool, writeOptions, func(ptx pgx.Tx) error {
		return fn(&tx{ptx: ptx})
	})
}

// View runs fn in a read-only snapshot
func (s *Store) View(ctx context.Context, fn func(staking.Tx) error) error {
	return pgxdb.InTx(ctx, s.pool, readOptions, func(ptx pgx.Tx) error {
		return fn(&tx{ptx: ptx})
	})
}

type tx struct {
	ptx pgx.Tx
}

type tokenRow struct {
	Staker   string `db:"staker"`
	dbrow.StakedToken
}

func (t *tx) RewardsPerHour(ctx context.Context) (*uint256.Int, bool, error) {
	var raw string
	err := t.ptx.QueryRow(ctx, `SELECT rewards_per_hour::text FROM ledger_settings WHERE single_row`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	rate, err := dbrow.ParseAmount(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return rate, true, nil
}

func (t *tx) SetRewardsPerHour(ctx context.Context, rate *uint256.Int) error {
	return t.exec(ctx, `
		INSERT INTO ledger_settings (single_row, rewards_per_hour, updated_at)
		VALUES (TRUE, $1::numeric, CURRENT_TIMESTAMP)
		ON CONFLICT (single_row) DO UPDATE
		SET rewards_per_hour = EXCLUDED.rewards_per_hour, updated_at = EXCLUDED.updated_at`,
		dbrow.Amount(rate))
}

func (t *tx) Staker(ctx context.Context, addr common.Address) (staking.Staker, error) {
	query, args := baseStakersQuery+" WHERE address = $1", []any{dbrow.Address(addr)}

	stakers, err := t.loadStakers(ctx, query, args...)
	if err != nil {
		return staking.Staker{}, err
	}
	if len(stakers) == 0 {
		return staking.NewStaker(addr), nil
	}
	return stakers[0], nil
}

func (t *tx) SaveStaker(ctx context.Context, s staking.Staker) error {
	row := dbrow.FromStaker(s)

	err := t.exec(ctx, `
		INSERT INTO stakers (address, unclaimed_rewards, last_update)
		VALUES ($1, $2::numeric, $3)
		ON CONFLICT (address) DO UPDATE
		SET unclaimed_rewards = EXCLUDED.unclaimed_rewards, last_update = EXCLUDED.last_update`,
		row.Address, row.UnclaimedRewards, row.LastUpdate)
	if err != nil {
		return err
	}

	if err := t.exec(ctx, `DELETE FROM staked_tokens WHERE staker = $1`, row.Address); err != nil {
		return err
	}
	if len(row.Tokens) == 0 {
		return nil
	}

	_, err = t.ptx.CopyFrom(
		ctx,
		pgx.Identifier{"staked_tokens"},
		[]string{"token_id", "staker", "position", "staked_at"},
		pgx.CopyFromRows(dbrow.StakedTokensToRows(row)),
	)
	if err != nil {
		return fmt.Errorf("%w: copy staked tokens: %w", ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) ActiveStakers(ctx context.Context) ([]staking.Staker, error) {
	query, args := NewStakersQuery().Active().Build()
	return t.loadStakers(ctx, query, args...)
}

func (t *tx) FindStakers(ctx context.Context, criteria staking.StakersCriteria) ([]staking.Staker, error) {
	query, args := NewStakersQuery().ForCriteria(criteria).Build()
	return t.loadStakers(ctx, query, args...)
}

// loadStakers runs a stakers query and attaches each staker's tokens in stake order
func (t *tx) loadStakers(ctx context.Context, query string, args ...any) ([]staking.Staker, error) {
	rows, err := t.ptx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	stakerRows, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[dbrow.Staker])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if len(stakerRows) == 0 {
		return nil, nil
	}

	addresses := make([]string, len(stakerRows))
	index := make(map[string]int, len(stakerRows))
	for i, r := range stakerRows {
		addresses[i] = r.Address
		index[r.Address] = i
	}

	rows, err = t.ptx.Query(ctx, `
		SELECT staker, token_id, position, staked_at
		FROM staked_tokens
		WHERE staker = ANY($1)
		ORDER BY staker, position`, addresses)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowToStructByName[tokenRow])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	for _, tok := range tokens {
		i := index[tok.Staker]
		stakerRows[i].Tokens = append(stakerRows[i].Tokens, tok.StakedToken)
	}

	stakers := make([]staking.Staker, len(stakerRows))
	for i, r := range stakerRows {
		s, err := r.ToStaker()
		if err != nil {
			return nil, fmt.Errorf("%w: staker %s: %w", ErrQueryFailed, r.Address, err)
		}
		stakers[i] = s
	}
	return stakers, nil
}

func (t *tx) TokenOwner(ctx context.Context, tokenID uint64) (common.Address, error) {
	var owner string
	err := t.ptx.QueryRow(ctx, `SELECT owner FROM nft_tokens WHERE token_id = $1`, tokenID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.Address{}, fmt.Errorf("%w: %d", staking.ErrTokenNotFound, tokenID)
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return common.HexToAddress(owner), nil
}

func (t *tx) SetTokenOwner(ctx context.Context, tokenID uint64, owner common.Address) error {
	return t.exec(ctx, `
		INSERT INTO nft_tokens (token_id, owner) VALUES ($1, $2)
		ON CONFLICT (token_id) DO UPDATE SET owner = EXCLUDED.owner`,
		tokenID, dbrow.Address(owner))
}

func (t *tx) TotalMinted(ctx context.Context) (uint64, error) {
	var n int64
	if err := t.ptx.QueryRow(ctx, `SELECT count(*) FROM nft_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return uint64(n), nil
}

func (t *tx) OperatorApproval(ctx context.Context, owner, operator common.Address) (bool, error) {
	var approved bool
	err := t.ptx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM nft_operator_approvals WHERE owner = $1 AND operator = $2)`,
		dbrow.Address(owner), dbrow.Address(operator)).Scan(&approved)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return approved, nil
}

func (t *tx) SetOperatorApproval(ctx context.Context, owner, operator common.Address, approved bool) error {
	if approved {
		return t.exec(ctx, `
			INSERT INTO nft_operator_approvals (owner, operator) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			dbrow.Address(owner), dbrow.Address(operator))
	}
	return t.exec(ctx, `DELETE FROM nft_operator_approvals WHERE owner = $1 AND operator = $2`,
		dbrow.Address(owner), dbrow.Address(operator))
}

func (t *tx) RewardBalance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	return t.amount(ctx, `SELECT balance::text FROM reward_balances WHERE address = $1`, dbrow.Address(addr))
}

func (t *tx) SetRewardBalance(ctx context.Context, addr common.Address, balance *uint256.Int) error {
	return t.exec(ctx, `
		INSERT INTO reward_balances (address, balance) VALUES ($1, $2::numeric)
		ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance`,
		dbrow.Address(addr), dbrow.Amount(balance))
}

func (t *tx) RewardSupply(ctx context.Context) (*uint256.Int, error) {
	return t.amount(ctx, `SELECT total_supply::text FROM reward_supply WHERE single_row`)
}

func (t *tx) SetRewardSupply(ctx context.Context, supply *uint256.Int) error {
	return t.exec(ctx, `
		INSERT INTO reward_supply (single_row, total_supply) VALUES (TRUE, $1::numeric)
		ON CONFLICT (single_row) DO UPDATE SET total_supply = EXCLUDED.total_supply`,
		dbrow.Amount(supply))
}

// amount reads a single NUMERIC column, treating a missing row as zero
func (t *tx) amount(ctx context.Context, query string, args ...any) (*uint256.Int, error) {
	var raw string
	err := t.ptx.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	v, err := dbrow.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return v, nil
}

func (t *tx) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := t.ptx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

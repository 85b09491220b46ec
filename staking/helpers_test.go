package staking_test

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/pkg/clock"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/store/boltstore"
)

var (
	genesisTime   = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	initialSupply = uint256.MustFromDecimal("1000000000000000000000000000")
)

// ledger is a service wired to a throwaway bolt file and a manual clock
type ledger struct {
	svc   *staking.Service
	clock *clock.Manual
	owner common.Address
	vault common.Address
}

func newLedger(t *testing.T, opts ...staking.Option) *ledger {
	t.Helper()

	store, closer, err := boltstore.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(closer)

	l := &ledger{
		clock: clock.NewManual(genesisTime),
		owner: randomAddress(),
		vault: randomAddress(),
	}

	base := []staking.Option{
		staking.WithClock(l.clock),
		staking.WithRewardToken(staking.RewardToken{
			Name:          staking.DefaultTokenName,
			Symbol:        staking.DefaultTokenSymbol,
			Decimals:      staking.DefaultTokenDecimals,
			InitialSupply: initialSupply,
		}),
	}
	l.svc = staking.NewService(store, l.owner, l.vault, append(base, opts...)...)
	require.NoError(t, l.svc.Genesis(t.Context()))

	return l
}

// holder mints quantity tokens to a fresh address and approves the vault
func (l *ledger) holder(t *testing.T, quantity uint64) (common.Address, []uint64) {
	t.Helper()

	addr := randomAddress()
	ids, err := l.svc.Mint(t.Context(), addr, quantity)
	require.NoError(t, err)
	require.NoError(t, l.svc.SetApprovalForAll(t.Context(), addr, l.vault, true))

	return addr, ids
}

// fundPool moves reward tokens from the owner to the vault
func (l *ledger) fundPool(t *testing.T, amount uint64) {
	t.Helper()
	require.NoError(t, l.svc.Transfer(t.Context(), l.owner, l.vault, uint256.NewInt(amount)))
}

func (l *ledger) stake(t *testing.T, caller common.Address, ids ...uint64) staking.StakeInfo {
	t.Helper()
	info, err := l.svc.StakeBatch(t.Context(), caller, ids)
	require.NoError(t, err)
	return info
}

func (l *ledger) info(t *testing.T, addr common.Address) staking.StakeInfo {
	t.Helper()
	info, err := l.svc.UserStakeInfo(t.Context(), addr)
	require.NoError(t, err)
	return info
}

func (l *ledger) balance(t *testing.T, addr common.Address) *uint256.Int {
	t.Helper()
	balance, err := l.svc.BalanceOf(t.Context(), addr)
	require.NoError(t, err)
	return balance
}

func (l *ledger) ownerOf(t *testing.T, id uint64) common.Address {
	t.Helper()
	owner, err := l.svc.OwnerOf(t.Context(), id)
	require.NoError(t, err)
	return owner
}

func randomAddress() common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(gofakeit.Uint64() | 1))
}

func amount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Package dbrow holds the persisted shapes of ledger state shared by the store drivers.
package dbrow

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screwyprof/glanger/staking"
)

// StakedToken represents a staked_tokens record
type StakedToken struct {
	TokenID  uint64    `db:"token_id" json:"tokenId"`
	Position int       `db:"position" json:"-"`
	StakedAt time.Time `db:"staked_at" json:"stakedAt"`
}

// Staker represents a stakers record with its staked tokens
type Staker struct {
	Address          string        `db:"address" json:"address"`
	UnclaimedRewards string        `db:"unclaimed_rewards" json:"unclaimedRewards"`
	LastUpdate       time.Time     `db:"last_update" json:"lastUpdate"`
	Tokens           []StakedToken `db:"-" json:"tokens"`
}

// Address renders an address in the canonical lower case form used as a key
func Address(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// Amount renders an amount as a base 10 string, treating nil as zero
func Amount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// ParseAmount reads a base 10 amount written by Amount
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q: %w", s, err)
	}
	return v, nil
}

// FromStaker converts a domain staker to its row form
func FromStaker(s staking.Staker) Staker {
	row := Staker{
		Address:          Address(s.Address),
		UnclaimedRewards: Amount(s.UnclaimedRewards),
		LastUpdate:       s.LastUpdate.UTC(),
		Tokens:           make([]StakedToken, len(s.Tokens)),
	}
	for i, t := range s.Tokens {
		row.Tokens[i] = StakedToken{TokenID: t.ID, Position: i, StakedAt: t.StakedAt.UTC()}
	}
	return row
}

// ToStaker converts a row back to the domain staker
func (r Staker) ToStaker() (staking.Staker, error) {
	unclaimed, err := ParseAmount(r.UnclaimedRewards)
	if err != nil {
		return staking.Staker{}, err
	}

	s := staking.Staker{
		Address:          common.HexToAddress(r.Address),
		UnclaimedRewards: unclaimed,
		LastUpdate:       r.LastUpdate,
		Tokens:           make([]staking.StakedToken, len(r.Tokens)),
	}
	for i, t := range r.Tokens {
		s.Tokens[i] = staking.StakedToken{ID: t.TokenID, StakedAt: t.StakedAt}
	}
	return s, nil
}

// StakedTokensToRows converts staked tokens to [][]any for pgx.CopyFromRows
func StakedTokensToRows(s Staker) [][]any {
	rows := make([][]any, len(s.Tokens))
	for i, t := range s.Tokens {
		rows[i] = []any{t.TokenID, s.Address, t.Position, t.StakedAt}
	}
	return rows
}

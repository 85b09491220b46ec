package staking_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/glanger/staking"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	alice := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	at := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name    string
		event   staking.Event
		wantKey string
		want    staking.Message
	}{
		{
			name:    "it maps staked events",
			event:   staking.Staked{Staker: alice, TokenIDs: []uint64{1, 2}, At: at},
			wantKey: "staking.staked",
			want:    staking.Message{Event: "staked", Account: alice.Hex(), TokenIDs: []uint64{1, 2}, At: at.UTC()},
		},
		{
			name:    "it maps claims with a decimal amount",
			event:   staking.RewardsClaimed{Staker: alice, Amount: amount(12345), At: at},
			wantKey: "staking.rewards_claimed",
			want:    staking.Message{Event: "rewards_claimed", Account: alice.Hex(), Amount: "12345", At: at.UTC()},
		},
		{
			name:    "it maps rate changes",
			event:   staking.RewardRateChanged{Previous: amount(1), Current: amount(2), At: at},
			wantKey: "staking.reward_rate_changed",
			want:    staking.Message{Event: "reward_rate_changed", Amount: "2", Previous: "1", At: at.UTC()},
		},
		{
			name:    "it maps transfers",
			event:   staking.RewardsTransferred{From: common.Address{}, To: alice, Amount: amount(9), At: at},
			wantKey: "staking.rewards_transferred",
			want: staking.Message{
				Event: "rewards_transferred", Account: common.Address{}.Hex(), To: alice.Hex(), Amount: "9", At: at.UTC(),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			msg, ok := staking.NewMessage(tc.event)

			// Assert
			assert.True(t, ok)
			assert.Equal(t, tc.want, msg)
			assert.Equal(t, tc.wantKey, staking.RoutingKey(tc.event))
		})
	}

	t.Run("it ignores unknown events", func(t *testing.T) {
		t.Parallel()

		// Act
		_, ok := staking.NewMessage("not an event")

		// Assert
		assert.False(t, ok)
		assert.Empty(t, staking.EventName("not an event"))
	})
}

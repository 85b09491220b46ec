package staking

import (
	"time"
)

// RoutingKeyPrefix namespaces ledger events on the message bus
const RoutingKeyPrefix = "staking."

// Event names used for routing keys and metric labels
const (
	EventStaked             = "staked"
	EventWithdrawn          = "withdrawn"
	EventRewardsClaimed     = "rewards_claimed"
	EventRewardRateChanged  = "reward_rate_changed"
	EventTokensMinted       = "tokens_minted"
	EventRewardsTransferred = "rewards_transferred"
)

// Message is the wire form of a ledger event. Amounts are decimal strings.
type Message struct {
	Event    string    `json:"event"`
	Account  string    `json:"account,omitempty"`
	To       string    `json:"to,omitempty"`
	TokenIDs []uint64  `json:"tokenIds,omitempty"`
	Amount   string    `json:"amount,omitempty"`
	Previous string    `json:"previous,omitempty"`
	At       time.Time `json:"at"`
}

// EventName returns the stable name of ev, or "" for unknown events
func EventName(ev Event) string {
	switch ev.(type) {
	case Staked:
		return EventStaked
	case Withdrawn:
		return EventWithdrawn
	case RewardsClaimed:
		return EventRewardsClaimed
	case RewardRateChanged:
		return EventRewardRateChanged
	case TokensMinted:
		return EventTokensMinted
	case RewardsTransferred:
		return EventRewardsTransferred
	default:
		return ""
	}
}

// RoutingKey returns the bus routing key for ev
func RoutingKey(ev Event) string {
	return RoutingKeyPrefix + EventName(ev)
}

// NewMessage converts ev to its wire form; ok is false for unknown events
func NewMessage(ev Event) (msg Message, ok bool) {
	msg.Event = EventName(ev)

	switch e := ev.(type) {
	case Staked:
		msg.Account, msg.TokenIDs, msg.At = e.Staker.Hex(), e.TokenIDs, e.At
	case Withdrawn:
		msg.Account, msg.TokenIDs, msg.At = e.Staker.Hex(), e.TokenIDs, e.At
	case RewardsClaimed:
		msg.Account, msg.Amount, msg.At = e.Staker.Hex(), e.Amount.Dec(), e.At
	case RewardRateChanged:
		msg.Amount, msg.Previous, msg.At = e.Current.Dec(), e.Previous.Dec(), e.At
	case TokensMinted:
		msg.To, msg.TokenIDs, msg.At = e.To.Hex(), e.TokenIDs, e.At
	case RewardsTransferred:
		msg.Account, msg.To, msg.Amount, msg.At = e.From.Hex(), e.To.Hex(), e.Amount.Dec(), e.At
	default:
		return Message{}, false
	}

	msg.At = msg.At.UTC()
	return msg, true
}

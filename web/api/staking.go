package api

// TokenIDsRequest is the body of batch stake and withdraw requests
type TokenIDsRequest struct {
	TokenIDs []uint64 `json:"tokenIds"`
}

// StakeInfo is a holder's staking aggregate
type StakeInfo struct {
	Address          string   `json:"address"`
	TokensStaked     uint64   `json:"tokensStaked"`
	AvailableRewards string   `json:"availableRewards"`
	TokenIDs         []uint64 `json:"tokenIds"`
}

// StakersRequest represents the query parameters for GET /v1/stakers
type StakersRequest struct {
	Page    uint64 `query:"page"`     // Page number for pagination (default: 1)
	PerPage uint64 `query:"per_page"` // Number of items per page (default: 50, max: 100)
}

// StakersResponse represents the API response format for GET /v1/stakers
type StakersResponse struct {
	Data []StakeInfo `json:"data"`
}

// ClaimResponse reports a successful reward claim
type ClaimResponse struct {
	Address string `json:"address"`
	Claimed string `json:"claimed"`
}

// RewardRate is the body and response of the reward rate routes
type RewardRate struct {
	RewardsPerHour string `json:"rewardsPerHour"`
}

package api

// MintRequest is the body of POST /v1/nft/mint
type MintRequest struct {
	To       string `json:"to"`
	Quantity uint64 `json:"quantity"`
}

// MintResponse lists the freshly minted token ids
type MintResponse struct {
	To       string   `json:"to"`
	TokenIDs []uint64 `json:"tokenIds"`
}

// ApprovalRequest is the body of PUT /v1/nft/approvals
type ApprovalRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// Approval reports the operator approval state after a change
type Approval struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// Token describes a single collection token
type Token struct {
	TokenID  uint64 `json:"tokenId"`
	Owner    string `json:"owner"`
	TokenURI string `json:"tokenUri"`
}

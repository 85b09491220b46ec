package api

// TransferRequest is the body of POST /v1/coin/transfers
type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Transfer reports a completed reward token transfer
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Balance is a reward token balance with the token metadata needed to display it
type Balance struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

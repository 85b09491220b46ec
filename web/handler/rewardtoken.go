package handler

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/web/handler/bind"
)

// Reward token routes
const (
	TransferRoute   = http.MethodPost + " " + "/v1/coin/transfers"
	GetBalanceRoute = http.MethodGet + " " + "/v1/coin/balances/{address}"
)

// RewardToken is the fungible token behaviour served over HTTP
type RewardToken interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error)
	TokenMetadata() staking.RewardToken
}

type Coin struct {
	token RewardToken
}

func NewCoin(token RewardToken) *Coin {
	return &Coin{
		token: token,
	}
}

func (h *Coin) AddRoutes(m *http.ServeMux) {
	m.Handle(TransferRoute, httpkit.HandlerFunc(h.Transfer))
	m.Handle(GetBalanceRoute, httpkit.HandlerFunc(h.GetBalance))
}

func (h *Coin) Transfer(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	from, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	to, amount, err := bind.TransferRequest(r)
	if err != nil {
		return badRequest(err)
	}

	if err := h.token.Transfer(r.Context(), from, to, amount); err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.TransferResponse(from, to, amount))
}

func (h *Coin) GetBalance(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, err := bind.Address(r)
	if err != nil {
		return badRequest(err)
	}

	balance, err := h.token.BalanceOf(r.Context(), addr)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.BalanceResponse(addr, balance, h.token.TokenMetadata()))
}

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

// Staking routes
const (
	StakeRoute         = http.MethodPost + " " + "/v1/stakes/{tokenId}"
	StakeBatchRoute    = http.MethodPost + " " + "/v1/stakes"
	WithdrawRoute      = http.MethodDelete + " " + "/v1/stakes/{tokenId}"
	WithdrawBatchRoute = http.MethodPost + " " + "/v1/withdrawals"
	ClaimRewardsRoute  = http.MethodPost + " " + "/v1/rewards/claims"
	GetRewardRateRoute = http.MethodGet + " " + "/v1/rewards/rate"
	SetRewardRateRoute = http.MethodPut + " " + "/v1/rewards/rate"
	GetStakerRoute     = http.MethodGet + " " + "/v1/stakers/{address}"
	GetStakersRoute    = http.MethodGet + " " + "/v1/stakers"
)

// Ledger is the staking behaviour served over HTTP
type Ledger interface {
	Stake(ctx context.Context, caller common.Address, tokenID uint64) (staking.StakeInfo, error)
	StakeBatch(ctx context.Context, caller common.Address, tokenIDs []uint64) (staking.StakeInfo, error)
	Withdraw(ctx context.Context, caller common.Address, tokenID uint64) (staking.StakeInfo, error)
	WithdrawBatch(ctx context.Context, caller common.Address, tokenIDs []uint64) (staking.StakeInfo, error)
	ClaimRewards(ctx context.Context, caller common.Address) (*uint256.Int, error)
	SetRewardsPerHour(ctx context.Context, caller common.Address, rate *uint256.Int) error
	RewardsPerHour(ctx context.Context) (*uint256.Int, error)
	UserStakeInfo(ctx context.Context, addr common.Address) (staking.StakeInfo, error)
	Stakers(ctx context.Context, criteria staking.StakersCriteria) (*staking.StakersPage, error)
}

type Staking struct {
	ledger Ledger
}

func NewStaking(ledger Ledger) *Staking {
	return &Staking{
		ledger: ledger,
	}
}

func (h *Staking) AddRoutes(m *http.ServeMux) {
	m.Handle(StakeRoute, httpkit.HandlerFunc(h.Stake))
	m.Handle(StakeBatchRoute, httpkit.HandlerFunc(h.StakeBatch))
	m.Handle(WithdrawRoute, httpkit.HandlerFunc(h.Withdraw))
	m.Handle(WithdrawBatchRoute, httpkit.HandlerFunc(h.WithdrawBatch))
	m.Handle(ClaimRewardsRoute, httpkit.HandlerFunc(h.ClaimRewards))
	m.Handle(GetRewardRateRoute, httpkit.HandlerFunc(h.GetRewardRate))
	m.Handle(SetRewardRateRoute, httpkit.HandlerFunc(h.SetRewardRate))
	m.Handle(GetStakerRoute, httpkit.HandlerFunc(h.GetStaker))
	m.Handle(GetStakersRoute, httpkit.HandlerFunc(h.GetStakers))
}

func (h *Staking) Stake(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	id, err := bind.TokenID(r)
	if err != nil {
		return badRequest(err)
	}

	info, err := h.ledger.Stake(r.Context(), addr, id)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.StakeInfoResponse(addr, info))
}

func (h *Staking) StakeBatch(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	ids, err := bind.TokenIDsRequest(r)
	if err != nil {
		return badRequest(err)
	}

	info, err := h.ledger.StakeBatch(r.Context(), addr, ids)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.StakeInfoResponse(addr, info))
}

func (h *Staking) Withdraw(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	id, err := bind.TokenID(r)
	if err != nil {
		return badRequest(err)
	}

	info, err := h.ledger.Withdraw(r.Context(), addr, id)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.StakeInfoResponse(addr, info))
}

func (h *Staking) WithdrawBatch(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	ids, err := bind.TokenIDsRequest(r)
	if err != nil {
		return badRequest(err)
	}

	info, err := h.ledger.WithdrawBatch(r.Context(), addr, ids)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.StakeInfoResponse(addr, info))
}

func (h *Staking) ClaimRewards(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}

	claimed, err := h.ledger.ClaimRewards(r.Context(), addr)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.ClaimResponse(addr, claimed))
}

func (h *Staking) GetRewardRate(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	rate, err := h.ledger.RewardsPerHour(r.Context())
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.RewardRateResponse(rate))
}

func (h *Staking) SetRewardRate(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	rate, err := bind.RewardRateRequest(r)
	if err != nil {
		return badRequest(err)
	}

	if err := h.ledger.SetRewardsPerHour(r.Context(), addr, rate); err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.RewardRateResponse(rate))
}

func (h *Staking) GetStaker(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	addr, err := bind.Address(r)
	if err != nil {
		return badRequest(err)
	}

	info, err := h.ledger.UserStakeInfo(r.Context(), addr)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.StakeInfoResponse(addr, info))
}

func (h *Staking) GetStakers(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.StakersRequest(r)
	if err != nil {
		return badRequest(err)
	}

	criteria, err := staking.NewStakersCriteria(req.Page, req.PerPage)
	if err != nil {
		return badRequest(err)
	}

	page, err := h.ledger.Stakers(r.Context(), criteria)
	if err != nil {
		return fail(err)
	}

	if linkHeader := buildPaginationLinks(page, r.URL); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}

	return httpkit.JSON(bind.StakersResponse(page))
}

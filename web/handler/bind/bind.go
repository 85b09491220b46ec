package bind

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/web/api"
)

// CallerHeader carries the address the request acts for
const CallerHeader = "X-Account-Address"

// Sentinel errors for request binding
var (
	ErrMissingCaller  = errors.New("missing " + CallerHeader + " header")
	ErrInvalidCaller  = errors.New("invalid " + CallerHeader + " header")
	ErrInvalidTokenID = errors.New("invalid tokenId parameter")
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")

	// Specific page validation errors
	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	// Specific per_page validation errors
	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")
	ErrPerPageTooLarge    = fmt.Errorf("per_page must be between 1 and %d", staking.MaxPerPage)
)

// Caller reads the acting address from the request header
func Caller(r *http.Request) (common.Address, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return common.Address{}, ErrMissingCaller
	}
	addr, err := staking.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidCaller, err)
	}
	return addr, nil
}

// TokenID reads the {tokenId} path value
func TokenID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("tokenId"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: must be a non-negative integer", ErrInvalidTokenID)
	}
	return id, nil
}

// Address reads the {address} path value
func Address(r *http.Request) (common.Address, error) {
	return staking.ParseAddress(r.PathValue("address"))
}

// TokenIDsRequest decodes a batch body
func TokenIDsRequest(r *http.Request) ([]uint64, error) {
	var req api.TokenIDsRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	if len(req.TokenIDs) == 0 {
		return nil, staking.ErrEmptyBatch
	}
	return req.TokenIDs, nil
}

// RewardRateRequest decodes the new reward rate
func RewardRateRequest(r *http.Request) (*uint256.Int, error) {
	var req api.RewardRate
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	rate, err := staking.ParseAmount(req.RewardsPerHour)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", staking.ErrInvalidRewardRate, err)
	}
	return rate, nil
}

// MintRequest decodes the mint recipient and quantity
func MintRequest(r *http.Request) (common.Address, uint64, error) {
	var req api.MintRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return common.Address{}, 0, err
	}
	to, err := staking.ParseAddress(req.To)
	if err != nil {
		return common.Address{}, 0, err
	}
	return to, req.Quantity, nil
}

// ApprovalRequest decodes an operator approval change
func ApprovalRequest(r *http.Request) (common.Address, bool, error) {
	var req api.ApprovalRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return common.Address{}, false, err
	}
	operator, err := staking.ParseAddress(req.Operator)
	if err != nil {
		return common.Address{}, false, err
	}
	return operator, req.Approved, nil
}

// TransferRequest decodes a reward token transfer
func TransferRequest(r *http.Request) (common.Address, *uint256.Int, error) {
	var req api.TransferRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return common.Address{}, nil, err
	}
	to, err := staking.ParseAddress(req.To)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, err := staking.ParseAmount(req.Amount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return to, amount, nil
}

// StakersRequest binds pagination query parameters with defaults
func StakersRequest(r *http.Request) (api.StakersRequest, error) {
	req := api.StakersRequest{
		Page:    staking.DefaultPage,
		PerPage: staking.DefaultPerPage,
	}

	query := r.URL.Query()

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePageNumber(pageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

// parsePageNumber validates that the page parameter is a positive integer
func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}
	if page == 0 {
		return 0, ErrPageNotPositive
	}
	return page, nil
}

// parsePerPageLimit validates that the per_page parameter is within acceptable limits
func parsePerPageLimit(perPageParam string) (uint64, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}
	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}
	if perPage > staking.MaxPerPage {
		return 0, ErrPerPageTooLarge
	}
	return perPage, nil
}

// StakeInfoResponse binds a holder aggregate to its API form
func StakeInfoResponse(addr common.Address, info staking.StakeInfo) api.StakeInfo {
	ids := info.TokenIDs
	if ids == nil {
		ids = []uint64{}
	}
	return api.StakeInfo{
		Address:          addr.Hex(),
		TokensStaked:     info.TokensStaked,
		AvailableRewards: amount(info.AvailableRewards),
		TokenIDs:         ids,
	}
}

// StakersResponse binds a page of stakers to the API response format
func StakersResponse(page *staking.StakersPage) api.StakersResponse {
	data := make([]api.StakeInfo, len(page.Stakers))
	for i, s := range page.Stakers {
		data[i] = StakeInfoResponse(s.Address, s.Info)
	}
	return api.StakersResponse{Data: data}
}

// ClaimResponse binds a claimed amount
func ClaimResponse(addr common.Address, claimed *uint256.Int) api.ClaimResponse {
	return api.ClaimResponse{Address: addr.Hex(), Claimed: amount(claimed)}
}

// RewardRateResponse binds the reward rate
func RewardRateResponse(rate *uint256.Int) api.RewardRate {
	return api.RewardRate{RewardsPerHour: amount(rate)}
}

// MintResponse binds freshly minted ids
func MintResponse(to common.Address, ids []uint64) api.MintResponse {
	return api.MintResponse{To: to.Hex(), TokenIDs: ids}
}

// ApprovalResponse binds an operator approval
func ApprovalResponse(owner, operator common.Address, approved bool) api.Approval {
	return api.Approval{Owner: owner.Hex(), Operator: operator.Hex(), Approved: approved}
}

// TokenResponse binds a collection token
func TokenResponse(id uint64, owner common.Address, uri string) api.Token {
	return api.Token{TokenID: id, Owner: owner.Hex(), TokenURI: uri}
}

// TransferResponse binds a completed transfer
func TransferResponse(from, to common.Address, value *uint256.Int) api.Transfer {
	return api.Transfer{From: from.Hex(), To: to.Hex(), Amount: amount(value)}
}

// BalanceResponse binds a reward token balance
func BalanceResponse(addr common.Address, balance *uint256.Int, token staking.RewardToken) api.Balance {
	return api.Balance{
		Address:  addr.Hex(),
		Balance:  amount(balance),
		Symbol:   token.Symbol,
		Decimals: token.Decimals,
	}
}

func amount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

package handler

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/web/handler/bind"
)

// Collection routes
const (
	MintRoute        = http.MethodPost + " " + "/v1/nft/mint"
	SetApprovalRoute = http.MethodPut + " " + "/v1/nft/approvals"
	GetTokenRoute    = http.MethodGet + " " + "/v1/nft/tokens/{tokenId}"
)

// Collection is the NFT behaviour served over HTTP
type Collection interface {
	Mint(ctx context.Context, to common.Address, quantity uint64) ([]uint64, error)
	SetApprovalForAll(ctx context.Context, owner, operator common.Address, approved bool) error
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error)
	TokenURI(ctx context.Context, tokenID uint64) (string, error)
}

type NFT struct {
	collection Collection
}

func NewNFT(collection Collection) *NFT {
	return &NFT{
		collection: collection,
	}
}

func (h *NFT) AddRoutes(m *http.ServeMux) {
	m.Handle(MintRoute, httpkit.HandlerFunc(h.Mint))
	m.Handle(SetApprovalRoute, httpkit.HandlerFunc(h.SetApproval))
	m.Handle(GetTokenRoute, httpkit.HandlerFunc(h.GetToken))
}

func (h *NFT) Mint(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	if _, errResp := caller(r); errResp != nil {
		return errResp
	}
	to, quantity, err := bind.MintRequest(r)
	if err != nil {
		return badRequest(err)
	}

	ids, err := h.collection.Mint(r.Context(), to, quantity)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSONStatus(http.StatusCreated, bind.MintResponse(to, ids))
}

func (h *NFT) SetApproval(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	owner, errResp := caller(r)
	if errResp != nil {
		return errResp
	}
	operator, approved, err := bind.ApprovalRequest(r)
	if err != nil {
		return badRequest(err)
	}

	if err := h.collection.SetApprovalForAll(r.Context(), owner, operator, approved); err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.ApprovalResponse(owner, operator, approved))
}

func (h *NFT) GetToken(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	id, err := bind.TokenID(r)
	if err != nil {
		return badRequest(err)
	}

	owner, err := h.collection.OwnerOf(r.Context(), id)
	if err != nil {
		return fail(err)
	}
	uri, err := h.collection.TokenURI(r.Context(), id)
	if err != nil {
		return fail(err)
	}
	return httpkit.JSON(bind.TokenResponse(id, owner, uri))
}

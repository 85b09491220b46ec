package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/pkg/clock"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/store/boltstore"
	"github.com/screwyprof/glanger/web/api"
	"github.com/screwyprof/glanger/web/handler"
	"github.com/screwyprof/glanger/web/handler/bind"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	vault = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	nobody common.Address
)

// testAPI is an in-process server backed by a bolt ledger and a manual clock
type testAPI struct {
	server *httptest.Server
	svc    *staking.Service
	clock  *clock.Manual
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, closer, err := boltstore.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(closer)

	clk := clock.NewManual(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	svc := staking.NewService(store, owner, vault,
		staking.WithClock(clk),
		staking.WithCollection(staking.Collection{
			MaxTotalSupply:   100,
			BaseTokenURI:     "ipfs://glanger/",
			OpenBoxBeforeURI: "ipfs://glanger/box.json",
		}),
		staking.WithRewardToken(staking.RewardToken{
			Name:          staking.DefaultTokenName,
			Symbol:        staking.DefaultTokenSymbol,
			Decimals:      staking.DefaultTokenDecimals,
			InitialSupply: uint256.NewInt(1_000_000_000),
		}),
	)
	require.NoError(t, svc.Genesis(t.Context()))

	mux := http.NewServeMux()
	handler.NewStaking(svc).AddRoutes(mux)
	handler.NewNFT(svc).AddRoutes(mux)
	handler.NewCoin(svc).AddRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testAPI{server: server, svc: svc, clock: clk}
}

// do sends a request as caller; a zero caller sends no identity header
func (a *testAPI) do(t *testing.T, method, path string, caller common.Address, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if caller != (common.Address{}) {
		req.Header.Set(bind.CallerHeader, caller.Hex())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// holder mints quantity tokens for addr and approves the vault over HTTP
func (a *testAPI) holder(t *testing.T, addr common.Address, quantity int) []uint64 {
	t.Helper()

	resp := a.do(t, http.MethodPost, "/v1/nft/mint", addr, `{"to":"`+addr.Hex()+`","quantity":`+strconv.Itoa(quantity)+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	minted := decode[api.MintResponse](t, resp)

	resp = a.do(t, http.MethodPut, "/v1/nft/approvals", addr, `{"operator":"`+vault.Hex()+`","approved":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return minted.TokenIDs
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func assertAPIError(t *testing.T, resp *http.Response, code int) {
	t.Helper()

	assert.Equal(t, code, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	body := decode[map[string]any](t, resp)
	assert.Equal(t, float64(code), body["code"])
	assert.NotEmpty(t, body["message"])
}

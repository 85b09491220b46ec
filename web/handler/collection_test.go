package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/web/api"
)

func TestNFTHandlers(t *testing.T) {
	t.Parallel()

	t.Run("it mints sequential token ids", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)
		a.holder(t, alice, 2)

		// Act
		resp := a.do(t, http.MethodPost, "/v1/nft/mint", bob, `{"to":"`+bob.Hex()+`","quantity":3}`)

		// Assert
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, api.MintResponse{To: bob.Hex(), TokenIDs: []uint64{2, 3, 4}}, decode[api.MintResponse](t, resp))
	})

	t.Run("it rejects mints beyond the max supply", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)

		// Act
		resp := a.do(t, http.MethodPost, "/v1/nft/mint", alice, `{"to":"`+alice.Hex()+`","quantity":101}`)

		// Assert
		assertAPIError(t, resp, http.StatusConflict)
	})

	t.Run("it sets and revokes operator approval", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)

		// Act
		resp := a.do(t, http.MethodPut, "/v1/nft/approvals", alice, `{"operator":"`+vault.Hex()+`","approved":false}`)

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, api.Approval{Owner: alice.Hex(), Operator: vault.Hex(), Approved: false}, decode[api.Approval](t, resp))
	})

	t.Run("it describes a minted token", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)
		a.holder(t, alice, 1)

		// Act
		resp := a.do(t, http.MethodGet, "/v1/nft/tokens/0", nobody, "")

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, api.Token{TokenID: 0, Owner: alice.Hex(), TokenURI: "ipfs://glanger/0"}, decode[api.Token](t, resp))
	})

	t.Run("it reports staked tokens as held by the vault", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)
		a.holder(t, alice, 1)
		a.do(t, http.MethodPost, "/v1/stakes/0", alice, "")

		// Act
		resp := a.do(t, http.MethodGet, "/v1/nft/tokens/0", nobody, "")

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, vault.Hex(), decode[api.Token](t, resp).Owner)
	})

	t.Run("it returns not found for unknown tokens", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := newTestAPI(t)

		// Act
		resp := a.do(t, http.MethodGet, "/v1/nft/tokens/42", nobody, "")

		// Assert
		assertAPIError(t, resp, http.StatusNotFound)
	})
}

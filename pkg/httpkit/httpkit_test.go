package httpkit_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/pkg/httpkit"
)

type conflictError struct{ err error }

func (e conflictError) Error() string { return e.err.Error() }
func (e conflictError) HTTPCode() int { return http.StatusConflict }
func (e conflictError) Cause() error  { return e.err }

type tokensBody struct {
	TokenIDs []uint64 `json:"tokenIds"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("it decodes a well formed body", func(t *testing.T) {
		t.Parallel()

		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/v1/stakes", strings.NewReader(`{"tokenIds":[1,2]}`))

		// Act
		var body tokensBody
		err := httpkit.DecodeJSON(req, &body)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2}, body.TokenIDs)
	})

	t.Run("it rejects an empty body", func(t *testing.T) {
		t.Parallel()

		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/v1/stakes", strings.NewReader(""))

		// Act
		var body tokensBody
		err := httpkit.DecodeJSON(req, &body)

		// Assert
		assert.ErrorIs(t, err, httpkit.ErrEmptyBody)
	})

	t.Run("it rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/v1/stakes", strings.NewReader(`{"tokens":[1]}`))

		// Act
		var body tokensBody
		err := httpkit.DecodeJSON(req, &body)

		// Assert
		assert.ErrorIs(t, err, httpkit.ErrMalformedBody)
	})

	t.Run("it rejects trailing documents", func(t *testing.T) {
		t.Parallel()

		// Arrange
		req := httptest.NewRequest(http.MethodPost, "/v1/stakes", strings.NewReader(`{"tokenIds":[1]} {"tokenIds":[2]}`))

		// Act
		var body tokensBody
		err := httpkit.DecodeJSON(req, &body)

		// Assert
		assert.ErrorIs(t, err, httpkit.ErrMalformedBody)
	})
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	t.Run("it writes JSON with the requested status", func(t *testing.T) {
		t.Parallel()

		// Arrange
		h := httpkit.HandlerFunc(func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
			return httpkit.JSONStatus(http.StatusCreated, map[string]int{"count": 3})
		})
		rec := httptest.NewRecorder()

		// Act
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.JSONEq(t, `{"count":3}`, rec.Body.String())
	})

	t.Run("it records errors in the request context", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cause := errors.New("stake is locked")
		var tracked error
		h := httpkit.HandlerFunc(func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				httpkit.JsonError(conflictError{err: cause})(w, r)
				tracked = httpkit.Error(r.Context())
			}
		})
		rec := httptest.NewRecorder()

		// Act
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/stakes/1", nil))

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		require.Error(t, tracked)
		assert.ErrorIs(t, tracked.(httpkit.HTTPError).Cause(), cause)
	})
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/web/api"
	"github.com/screwyprof/glanger/web/handler/bind"
)

// caller resolves the acting address or the error response to send instead
func caller(r *http.Request) (common.Address, http.HandlerFunc) {
	addr, err := bind.Caller(r)
	switch {
	case errors.Is(err, bind.ErrMissingCaller):
		return common.Address{}, httpkit.JsonError(api.Unauthorized(err))
	case err != nil:
		return common.Address{}, httpkit.JsonError(api.BadRequest(err))
	}
	return addr, nil
}

// fail renders a domain or store error with the status it maps to
func fail(err error) http.HandlerFunc {
	return httpkit.JsonError(api.Wrap(err))
}

// badRequest renders a binding error
func badRequest(err error) http.HandlerFunc {
	return httpkit.JsonError(api.BadRequest(err))
}

// buildPaginationLinks creates GitHub-style Link header for pagination navigation
func buildPaginationLinks(page *staking.StakersPage, baseURL *url.URL) string {
	var links []string

	u := *baseURL
	query := u.Query()

	if page.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", page.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	// Only when the store reported more rows; "last" would need a count(*)
	if page.HasNext() {
		query.Set("page", fmt.Sprintf("%d", page.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	return strings.Join(links, ", ")
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/screwyprof/glanger/pkg/httpkit"
	"github.com/screwyprof/glanger/staking"
)

// Domain errors grouped by the status they map to
var (
	badRequestErrors = []error{
		staking.ErrEmptyBatch, staking.ErrBatchTooLarge, staking.ErrDuplicateToken,
		staking.ErrInvalidRewardRate, staking.ErrInvalidQuantity, staking.ErrApproveToCaller,
		staking.ErrZeroAddress, staking.ErrInvalidAddress, staking.ErrInvalidAmount,
		staking.ErrInvalidPerPage, staking.ErrInvalidPage, httpkit.ErrEmptyBody, httpkit.ErrMalformedBody,
	}
	forbiddenErrors = []error{
		staking.ErrNotOwner, staking.ErrNotTokenOwner, staking.ErrNotApproved, staking.ErrNotStakedByCaller,
		staking.ErrVaultCaller,
	}
	notFoundErrors = []error{
		staking.ErrTokenNotFound,
	}
	conflictErrors = []error{
		staking.ErrNothingStaked, staking.ErrStakeLocked, staking.ErrNoRewards,
		staking.ErrInsufficientRewardPool, staking.ErrInsufficientBalance,
		staking.ErrMaxSupplyExceeded, staking.ErrRewardOverflow,
	}
)

// Error represents a structured API error response
type Error struct {
	cause    error  // The original error (for logging/debugging)
	message  string // Safe user-facing message
	httpCode int    // HTTP status code (also used as API error code)
}

// HTTPCode returns the HTTP status code for this error
func (e *Error) HTTPCode() int {
	return e.httpCode
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements error checking for sentinel errors
func (e *Error) Is(target error) bool {
	return errors.Is(e.cause, target)
}

// Cause returns the original error for logging purposes
func (e *Error) Cause() error {
	return e.cause
}

// MarshalJSON implements json.Marshaler interface
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"code":    e.httpCode,
		"message": e.message,
	})
}

// Constructor functions for different error types

func BadRequest(cause error) *Error {
	return clientError(cause, http.StatusBadRequest)
}

func Unauthorized(cause error) *Error {
	return clientError(cause, http.StatusUnauthorized)
}

func Forbidden(cause error) *Error {
	return clientError(cause, http.StatusForbidden)
}

func NotFound(cause error) *Error {
	return clientError(cause, http.StatusNotFound)
}

func Conflict(cause error) *Error {
	return clientError(cause, http.StatusConflict)
}

func clientError(cause error, code int) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(), // 4xx errors are safe to expose
		httpCode: code,
	}
}

func InternalServerError(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  http.StatusText(http.StatusInternalServerError), // Never expose internal error details
		httpCode: http.StatusInternalServerError,
	}
}

// Wrap transforms any error into a safe API error, choosing the status from the domain error it wraps.
// If the error is already an API error, it returns it unchanged
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	// Don't double-wrap API errors
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case isAny(err, badRequestErrors):
		return BadRequest(err)
	case isAny(err, forbiddenErrors):
		return Forbidden(err)
	case isAny(err, notFoundErrors):
		return NotFound(err)
	case isAny(err, conflictErrors):
		return Conflict(err)
	default:
		return InternalServerError(err)
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package service

import (
	"errors"
	"fmt"

	"github.com/talentboard/authcore/internal/auth/store"
)

// Typed conditions the HTTP layer maps to status codes. These four are
// expected, recoverable-by-caller outcomes and are never wrapped in generic
// failures.
var (
	ErrMalformed    = errors.New("malformed_token")
	ErrExpired      = errors.New("expired_token")
	ErrRevoked      = errors.New("revoked_token")
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable marks adapter I/O failures as retryable. The
	// core never retries internally.
	ErrStoreUnavailable = errors.New("store_unavailable")

	// ErrTooManyAttempts reports the caller tripped the per-key limiter.
	ErrTooManyAttempts = errors.New("too_many_attempts")
)

// storeFailure folds adapter errors into the typed taxonomy: a missing row
// stays NotFound, anything else is a retryable store failure.
func storeFailure(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

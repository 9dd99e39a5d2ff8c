// Package auth implements the federated login flow: PKCE-protected
// authorization-code exchange with CSRF binding, the ephemeral verifier
// store that keeps the flow safe under concurrency, and the HTTP surface
// that ties provisioning and session issuance together.
package auth

import (
	"net/http"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
)

// ============================================================================
// Domain Types
// ============================================================================

// PendingAuthorization binds a one-time CSRF state to its PKCE verifier.
// It is created when a login begins and consumed exactly once by the
// callback; unconsumed entries are evicted after the store TTL.
type PendingAuthorization struct {
	State     string
	Verifier  string
	CreatedAt time.Time
}

// IdentityClaims is what the provider's userinfo endpoint returns. It is
// transient and never persisted.
type IdentityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// CodeAccessNotAllowed covers every authorization-flow failure: an
	// unknown or expired state, a failed code exchange and a failed
	// identity fetch all collapse into this single outcome.
	CodeAccessNotAllowed = ErrRegistry.Register("ACCESS_NOT_ALLOWED", errx.TypeAuthorization, http.StatusUnauthorized, "Access not allowed")

	// CodeStateUnavailable is an infrastructure failure of the verifier
	// store itself, not a rejected login.
	CodeStateUnavailable = ErrRegistry.Register("STATE_STORE_UNAVAILABLE", errx.TypeInternal, http.StatusInternalServerError, "Verifier store unavailable")
)

func ErrAccessNotAllowed() *errx.Error {
	return ErrRegistry.New(CodeAccessNotAllowed)
}

func ErrStateUnavailable(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStateUnavailable, cause)
}

// Package session mints and validates the stateless session credential.
// The token is an authenticated, encrypted blob carrying the identity
// claims; validity is determined entirely by decryption success plus the
// presence of the required claims. There is no revocation path: a token
// stays valid until its expiry claim passes.
package session

import (
	"net/http"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/kernel"
)

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid session token")
	CodeTokenExpired = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Session token expired")
)

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrTokenExpired() *errx.Error {
	return ErrRegistry.New(CodeTokenExpired)
}

// Claims is the structured payload sealed inside a session token.
// ClientIDs is a proper list; an id containing a delimiter character can
// never be confused with two ids.
type Claims struct {
	Email     kernel.Email `json:"email"`
	ClientIDs []string     `json:"client_ids"`
	IssuedAt  int64        `json:"iat"`
	ExpiresAt int64        `json:"exp"`
}

// Expired reports whether the expiry claim has passed at the given instant.
func (c Claims) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// AuthContext converts validated claims into a request identity.
func (c Claims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		Email:     c.Email,
		ClientIDs: c.ClientIDs,
	}
}

package auth

import (
	"context"

	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/kernel"
)

// StateStore holds pending authorizations between the login redirect and
// the provider callback. TakeOnce must be atomic with respect to concurrent
// Insert/TakeOnce/eviction: a given state yields a verifier to at most one
// caller, ever.
type StateStore interface {
	// Insert stores state → verifier. It fails when the state is already
	// present; the caller regenerates and retries.
	Insert(ctx context.Context, state, verifier string) error

	// TakeOnce atomically removes and returns the verifier for state.
	// ok is false when the state is unknown, already consumed or evicted.
	TakeOnce(ctx context.Context, state string) (verifier string, ok bool, err error)
}

// IdentityProvider abstracts the OAuth2 provider: building the redirect,
// exchanging the code, and fetching the identity behind the access token.
type IdentityProvider interface {
	// AuthCodeURL builds the provider authorization URL carrying the CSRF
	// state and the S256 challenge derived from verifier.
	AuthCodeURL(state, verifier string) string

	// Exchange trades code+verifier for an access token at the token
	// endpoint. Attempted once, bounded timeout, no retries.
	Exchange(ctx context.Context, code, verifier string) (accessToken string, err error)

	// FetchIdentity calls the userinfo endpoint with the access token.
	FetchIdentity(ctx context.Context, accessToken string) (*IdentityClaims, error)
}

// Provisioner resolves or creates the user for an authenticated email.
type Provisioner interface {
	GetOrCreate(ctx context.Context, email kernel.Email) (*user.AuthAppUser, error)
}

// TokenMinter mints the stateless session credential.
type TokenMinter interface {
	Mint(email kernel.Email, clientIDs []string) (string, error)
}

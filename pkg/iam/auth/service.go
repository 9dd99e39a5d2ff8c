package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/logx"
	"golang.org/x/oauth2"
)

// maxStateAttempts bounds regenerate-and-retry on a state collision.
const maxStateAttempts = 3

// AuthService orchestrates the login flow: it initiates the provider
// redirect and completes the callback. Every step of the callback is
// terminal on first failure; the user restarts the flow with a fresh
// state/verifier pair instead of any in-place retry.
type AuthService struct {
	provider IdentityProvider
	states   StateStore
	users    Provisioner
	tokens   TokenMinter
}

// NewAuthService wires the flow's collaborators together.
func NewAuthService(provider IdentityProvider, states StateStore, users Provisioner, tokens TokenMinter) *AuthService {
	return &AuthService{
		provider: provider,
		states:   states,
		users:    users,
		tokens:   tokens,
	}
}

// BeginLogin generates a PKCE verifier and CSRF state, records the pair in
// the verifier store and returns the provider authorization URL to redirect
// the browser to. A state collision regenerates the pair rather than
// overwriting the live entry.
func (s *AuthService) BeginLogin(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxStateAttempts; attempt++ {
		verifier := oauth2.GenerateVerifier()
		state, err := generateState()
		if err != nil {
			return "", ErrStateUnavailable(err)
		}

		if err := s.states.Insert(ctx, state, verifier); err != nil {
			if IsStateCollision(err) {
				continue
			}
			return "", err
		}
		return s.provider.AuthCodeURL(state, verifier), nil
	}
	return "", ErrRegistry.New(CodeStateUnavailable).WithDetail("reason", "state collisions exhausted retries")
}

// CompleteLogin handles the provider callback: consume the state, exchange
// the code, fetch the identity, provision the user, mint the session token.
// The minted token is identity-scoped (empty client_ids); callers needing a
// tenant-scoped token mint one explicitly.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state string) (string, kernel.Email, error) {
	verifier, ok, err := s.states.TakeOnce(ctx, state)
	if err != nil {
		return "", "", err
	}
	if !ok {
		logx.WithField("state", state).Warn("Callback with unknown or expired state")
		return "", "", ErrAccessNotAllowed()
	}

	accessToken, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		return "", "", err
	}

	claims, err := s.provider.FetchIdentity(ctx, accessToken)
	if err != nil {
		return "", "", err
	}
	if !claims.EmailVerified {
		logx.WithField("email", claims.Email).Warn("Provider reports unverified email")
	}

	email := kernel.NewEmail(claims.Email)
	authUser, err := s.users.GetOrCreate(ctx, email)
	if err != nil {
		return "", "", err
	}

	token, err := s.tokens.Mint(authUser.Email, []string{})
	if err != nil {
		return "", "", err
	}
	return token, authUser.Email, nil
}

// generateState returns an independent high-entropy CSRF token. It shares
// no material with the PKCE verifier.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

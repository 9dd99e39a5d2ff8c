package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chriswk/auth-app/pkg/config"
	"golang.org/x/oauth2"
)

// OAuthProvider implements IdentityProvider against a standard OAuth2
// provider (Google by default; the endpoints come from configuration so
// tests can point it anywhere).
type OAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewOAuthProvider builds the provider from the process configuration.
// The outbound client never follows redirects: a token endpoint answering
// with a redirect is treated as a failure, not silently chased.
func NewOAuthProvider(cfg config.ProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// AuthCodeURL builds the provider redirect carrying response_type=code,
// client id, redirect URI, scopes, the CSRF state and the S256 challenge.
func (p *OAuthProvider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code and PKCE verifier for an access
// token. One attempt, bounded by the client timeout; the recovery path for
// a failure is restarting the whole flow.
func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", ErrAccessNotAllowed().WithCause(err)
	}
	if token.AccessToken == "" {
		return "", ErrAccessNotAllowed().WithDetail("reason", "empty access token")
	}
	return token.AccessToken, nil
}

// FetchIdentity calls the userinfo endpoint with the access token.
func (p *OAuthProvider) FetchIdentity(ctx context.Context, accessToken string) (*IdentityClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, ErrAccessNotAllowed().WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ErrAccessNotAllowed().WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrAccessNotAllowed().WithDetail("userinfo_status", resp.StatusCode)
	}

	var claims IdentityClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, ErrAccessNotAllowed().WithCause(err)
	}
	if claims.Email == "" {
		return nil, ErrAccessNotAllowed().WithDetail("reason", "userinfo without email")
	}
	return &claims, nil
}

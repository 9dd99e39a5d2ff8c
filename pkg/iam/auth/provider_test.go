package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/chriswk/auth-app/pkg/config"
	"github.com/chriswk/auth-app/pkg/iam/auth"
)

func testProviderConfig(authURL, tokenURL, userInfoURL string) config.ProviderConfig {
	return config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/auth/callback",
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
		Scopes:       []string{"email"},
		Timeout:      2 * time.Second,
	}
}

func TestAuthCodeURL_CarriesStateAndChallenge(t *testing.T) {
	p := auth.NewOAuthProvider(testProviderConfig(
		"https://provider.example.com/authorize", "https://provider.example.com/token", ""))

	raw := p.AuthCodeURL("csrf-state", "the-verifier")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	q := u.Query()
	if q.Get("state") != "csrf-state" {
		t.Fatalf("state not carried: %q", q.Get("state"))
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected S256 challenge method, got %q", q.Get("code_challenge_method"))
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge") == "the-verifier" {
		t.Fatalf("challenge must be derived, not the raw verifier: %q", q.Get("code_challenge"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("expected response_type=code, got %q", q.Get("response_type"))
	}
}

func TestExchange_SendsVerifier(t *testing.T) {
	var seenVerifier string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		seenVerifier = r.FormValue("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"granted","token_type":"bearer"}`))
	}))
	defer ts.Close()

	p := auth.NewOAuthProvider(testProviderConfig(ts.URL+"/authorize", ts.URL+"/token", ""))

	token, err := p.Exchange(context.Background(), "the-code", "the-verifier")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "granted" {
		t.Fatalf("unexpected token: %q", token)
	}
	if seenVerifier != "the-verifier" {
		t.Fatalf("verifier not sent to token endpoint: %q", seenVerifier)
	}
}

func TestExchange_RejectionCollapsesToAccessNotAllowed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	p := auth.NewOAuthProvider(testProviderConfig(ts.URL+"/authorize", ts.URL+"/token", ""))

	_, err := p.Exchange(context.Background(), "bad-code", "the-verifier")
	if !errors.Is(err, auth.ErrAccessNotAllowed()) {
		t.Fatalf("expected access not allowed, got %v", err)
	}
}

func TestFetchIdentity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer granted" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"user@example.com","email_verified":true}`))
	}))
	defer ts.Close()

	p := auth.NewOAuthProvider(testProviderConfig("", "", ts.URL+"/userinfo"))

	claims, err := p.FetchIdentity(context.Background(), "granted")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if claims.Email != "user@example.com" || !claims.EmailVerified {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := p.FetchIdentity(context.Background(), "wrong"); !errors.Is(err, auth.ErrAccessNotAllowed()) {
		t.Fatalf("expected access not allowed for rejected token, got %v", err)
	}
}

func TestFetchIdentity_MissingEmailRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email_verified":true}`))
	}))
	defer ts.Close()

	p := auth.NewOAuthProvider(testProviderConfig("", "", ts.URL+"/userinfo"))

	if _, err := p.FetchIdentity(context.Background(), "granted"); !errors.Is(err, auth.ErrAccessNotAllowed()) {
		t.Fatalf("expected access not allowed, got %v", err)
	}
}

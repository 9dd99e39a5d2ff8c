package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/auth"
	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/kernel"
)

// --- fakes ---

type fakeProvider struct {
	exchangeErr   error
	identity      *auth.IdentityClaims
	identityErr   error
	seenVerifier  string
	exchangeCalls int
}

func (f *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code, verifier string) (string, error) {
	f.exchangeCalls++
	f.seenVerifier = verifier
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "access-token", nil
}

func (f *fakeProvider) FetchIdentity(_ context.Context, accessToken string) (*auth.IdentityClaims, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identity, nil
}

type fakeProvisioner struct {
	err  error
	seen kernel.Email
}

func (f *fakeProvisioner) GetOrCreate(_ context.Context, email kernel.Email) (*user.AuthAppUser, error) {
	f.seen = email
	if f.err != nil {
		return nil, f.err
	}
	return &user.AuthAppUser{Email: email}, nil
}

type fakeMinter struct{}

func (fakeMinter) Mint(email kernel.Email, clientIDs []string) (string, error) {
	return "token-for-" + email.String(), nil
}

func newFlowService(provider *fakeProvider, provisioner *fakeProvisioner) (*auth.AuthService, *auth.MemoryStateStore) {
	states := auth.NewMemoryStateStore(time.Minute)
	return auth.NewAuthService(provider, states, provisioner, fakeMinter{}), states
}

// --- tests ---

func TestBeginLogin_RecordsStateAndBuildsURL(t *testing.T) {
	provider := &fakeProvider{}
	svc, states := newFlowService(provider, &fakeProvisioner{})

	url, err := svc.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !strings.Contains(url, "state=") {
		t.Fatalf("authorization URL missing state: %q", url)
	}

	state := url[strings.Index(url, "state=")+len("state="):]
	verifier, ok, err := states.TakeOnce(context.Background(), state)
	if err != nil || !ok {
		t.Fatalf("state not recorded (ok=%v err=%v)", ok, err)
	}
	if verifier == "" {
		t.Fatal("recorded verifier is empty")
	}
}

func TestCompleteLogin_FullFlow(t *testing.T) {
	provider := &fakeProvider{
		identity: &auth.IdentityClaims{Email: "User@Example.com", EmailVerified: true},
	}
	provisioner := &fakeProvisioner{}
	svc, states := newFlowService(provider, provisioner)

	if err := states.Insert(context.Background(), "state-1", "verifier-1"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	token, email, err := svc.CompleteLogin(context.Background(), "code-1", "state-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if email != "user@example.com" {
		t.Fatalf("expected canonical email, got %q", email)
	}
	if token != "token-for-user@example.com" {
		t.Fatalf("unexpected token: %q", token)
	}
	if provider.seenVerifier != "verifier-1" {
		t.Fatalf("exchange used wrong verifier: %q", provider.seenVerifier)
	}
	if provisioner.seen != "user@example.com" {
		t.Fatalf("provisioner saw %q", provisioner.seen)
	}
}

func TestCompleteLogin_UnknownStateRejected(t *testing.T) {
	provider := &fakeProvider{
		identity: &auth.IdentityClaims{Email: "user@example.com", EmailVerified: true},
	}
	svc, _ := newFlowService(provider, &fakeProvisioner{})

	_, _, err := svc.CompleteLogin(context.Background(), "code-1", "never-issued")
	if !errors.Is(err, auth.ErrAccessNotAllowed()) {
		t.Fatalf("expected access not allowed, got %v", err)
	}
	if provider.exchangeCalls != 0 {
		t.Fatal("exchange must not run for an unknown state")
	}
}

func TestCompleteLogin_StateConsumedOnce(t *testing.T) {
	provider := &fakeProvider{
		identity: &auth.IdentityClaims{Email: "user@example.com", EmailVerified: true},
	}
	svc, states := newFlowService(provider, &fakeProvisioner{})

	if err := states.Insert(context.Background(), "state-1", "verifier-1"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := svc.CompleteLogin(context.Background(), "code-1", "state-1"); err != nil {
		t.Fatalf("first callback: %v", err)
	}

	// A replayed callback with the same state must be refused.
	_, _, err := svc.CompleteLogin(context.Background(), "code-1", "state-1")
	if !errors.Is(err, auth.ErrAccessNotAllowed()) {
		t.Fatalf("expected access not allowed on replay, got %v", err)
	}
}

func TestCompleteLogin_ExchangeFailureIsTerminal(t *testing.T) {
	provider := &fakeProvider{exchangeErr: auth.ErrAccessNotAllowed()}
	svc, states := newFlowService(provider, &fakeProvisioner{})

	if err := states.Insert(context.Background(), "state-1", "verifier-1"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := svc.CompleteLogin(context.Background(), "bad-code", "state-1"); err == nil {
		t.Fatal("expected exchange failure to surface")
	}

	// The state was consumed; the user restarts the flow.
	if _, ok, _ := states.TakeOnce(context.Background(), "state-1"); ok {
		t.Fatal("state must be consumed even when the exchange fails")
	}
}

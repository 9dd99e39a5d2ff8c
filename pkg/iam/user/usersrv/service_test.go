package usersrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/iam/user/usersrv"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/storagex"
)

// --- fakes ---

type fakeUserRepo struct {
	users       map[kernel.Email]*user.AuthAppUser
	createErr   error
	createCalls int

	// missFirstFind fakes the window where a concurrent login provisions
	// the user after our read but before our insert.
	missFirstFind bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[kernel.Email]*user.AuthAppUser)}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email kernel.Email) (*user.AuthAppUser, error) {
	if f.missFirstFind {
		f.missFirstFind = false
		return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
	}
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeUserRepo) Exists(_ context.Context, email kernel.Email) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u user.AuthAppUser, passwordHash string) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.Email]; ok {
		return storagex.ErrRegistry.New(storagex.CodeConflict)
	}
	if passwordHash == "" {
		return errors.New("missing password hash")
	}
	u.CreatedAt = time.Now()
	f.users[u.Email] = &u
	return nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]user.UserListItem, error) {
	out := make([]user.UserListItem, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, user.UserListItem{Email: u.Email, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

type fakeAccessRepo struct {
	grants   map[string]user.UserInstanceAccess
	grantErr error
}

func newFakeAccessRepo() *fakeAccessRepo {
	return &fakeAccessRepo{grants: make(map[string]user.UserInstanceAccess)}
}

func key(clientID kernel.ClientID, email kernel.Email) string {
	return clientID.String() + "/" + email.String()
}

func (f *fakeAccessRepo) Grant(_ context.Context, g user.InstanceAccessGrant) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	k := key(g.ClientID, g.Email)
	if _, ok := f.grants[k]; ok {
		return storagex.ErrRegistry.New(storagex.CodeConflict)
	}
	f.grants[k] = user.UserInstanceAccess{
		ClientID: g.ClientID,
		Email:    g.Email,
		Role:     g.Role,
	}
	return nil
}

func (f *fakeAccessRepo) FindByEmail(_ context.Context, email kernel.Email) ([]user.UserInstanceAccess, error) {
	var out []user.UserInstanceAccess
	for _, g := range f.grants {
		if g.Email == email {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeAccessRepo) Revoke(_ context.Context, clientID kernel.ClientID, email kernel.Email) error {
	delete(f.grants, key(clientID, email))
	return nil
}

type fakeInstanceRepo struct {
	byDomain map[string]*instance.Instance
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{byDomain: make(map[string]*instance.Instance)}
}

func (f *fakeInstanceRepo) Create(_ context.Context, inst instance.Instance) (*instance.Instance, error) {
	f.byDomain[inst.EmailDomain] = &inst
	return &inst, nil
}

func (f *fakeInstanceRepo) FindByClientID(_ context.Context, clientID kernel.ClientID) (*instance.Instance, error) {
	for _, inst := range f.byDomain {
		if inst.ClientID == clientID {
			return inst, nil
		}
	}
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeInstanceRepo) FindByDomain(_ context.Context, domain string) (*instance.Instance, error) {
	if inst, ok := f.byDomain[domain]; ok {
		return inst, nil
	}
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeInstanceRepo) List(_ context.Context) ([]instance.Instance, error) { return nil, nil }

func (f *fakeInstanceRepo) Status(_ context.Context, _ kernel.ClientID) (*instance.InstanceStatus, error) {
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeInstanceRepo) Assign(_ context.Context, _ kernel.ClientID, _, _ string) (*instance.InstanceStatus, error) {
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeInstanceRepo) ExtendTrial(_ context.Context, _ kernel.ClientID) (*instance.InstanceStatus, error) {
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeInstanceRepo) SetState(_ context.Context, _ kernel.ClientID, _ instance.State) error {
	return nil
}

// --- tests ---

func newTestService(users *fakeUserRepo, access *fakeAccessRepo, instances *fakeInstanceRepo) *usersrv.Service {
	return usersrv.NewService(users, access, instances, nil, "app.example.com")
}

func TestGetOrCreate_ExistingUser(t *testing.T) {
	users := newFakeUserRepo()
	email := kernel.NewEmail("known@example.com")
	users.users[email] = &user.AuthAppUser{Email: email}

	svc := newTestService(users, newFakeAccessRepo(), newFakeInstanceRepo())

	got, err := svc.GetOrCreate(context.Background(), email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != email {
		t.Fatalf("expected %q, got %q", email, got.Email)
	}
	if users.createCalls != 0 {
		t.Fatal("existing user must not trigger a create")
	}
}

func TestGetOrCreate_ProvisionsNewUser(t *testing.T) {
	users := newFakeUserRepo()
	access := newFakeAccessRepo()
	instances := newFakeInstanceRepo()
	instances.byDomain["example.com"] = &instance.Instance{
		ClientID:    kernel.NewClientID("tenant-1"),
		EmailDomain: "example.com",
		State:       instance.StateTrial,
	}

	svc := newTestService(users, access, instances)

	email := kernel.NewEmail("new@example.com")
	got, err := svc.GetOrCreate(context.Background(), email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != email {
		t.Fatalf("expected %q, got %q", email, got.Email)
	}

	grant, ok := access.grants["tenant-1/new@example.com"]
	if !ok {
		t.Fatal("expected an access grant for the owning instance")
	}
	if grant.Role != user.RoleWrite {
		t.Fatalf("expected WRITE role, got %q", grant.Role)
	}
}

func TestGetOrCreate_UnknownDomainRefused(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), newFakeAccessRepo(), newFakeInstanceRepo())

	_, err := svc.GetOrCreate(context.Background(), kernel.NewEmail("nobody@stranger.io"))
	if !errors.Is(err, user.ErrDomainNotAllowed()) {
		t.Fatalf("expected domain not allowed, got %v", err)
	}
}

func TestGetOrCreate_LostRaceIsAlreadyProvisioned(t *testing.T) {
	users := newFakeUserRepo()
	access := newFakeAccessRepo()
	instances := newFakeInstanceRepo()
	instances.byDomain["example.com"] = &instance.Instance{
		ClientID:    kernel.NewClientID("tenant-1"),
		EmailDomain: "example.com",
	}

	// The concurrent winner already inserted the user and grant; our read
	// missed, and both of our writes will hit unique constraints.
	email := kernel.NewEmail("racer@example.com")
	users.users[email] = &user.AuthAppUser{Email: email}
	users.missFirstFind = true
	users.createErr = storagex.ErrRegistry.New(storagex.CodeConflict)
	access.grants["tenant-1/racer@example.com"] = user.UserInstanceAccess{
		ClientID: kernel.NewClientID("tenant-1"),
		Email:    email,
		Role:     user.RoleWrite,
	}

	svc := newTestService(users, access, instances)

	got, err := svc.GetOrCreate(context.Background(), email)
	if err != nil {
		t.Fatalf("lost race must resolve to the existing user: %v", err)
	}
	if got.Email != email {
		t.Fatalf("expected %q, got %q", email, got.Email)
	}
}

func TestFindSignIn_BuildsRegionURLs(t *testing.T) {
	users := newFakeUserRepo()
	access := newFakeAccessRepo()
	email := kernel.NewEmail("multi@example.com")
	access.grants["eu-tenant/multi@example.com"] = user.UserInstanceAccess{
		ClientID: kernel.NewClientID("eu-tenant"),
		Email:    email,
		Role:     user.RoleWrite,
		Region:   "eu2",
	}

	svc := newTestService(users, access, newFakeInstanceRepo())

	got, err := svc.FindSignIn(context.Background(), email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one access, got %d", len(got))
	}
	if got[0].SignInURL != "https://eu.app.example.com/eu-tenant" {
		t.Fatalf("unexpected sign-in URL: %q", got[0].SignInURL)
	}
}

func TestCreateUser_GrantConflictTolerated(t *testing.T) {
	users := newFakeUserRepo()
	access := newFakeAccessRepo()
	svc := newTestService(users, access, newFakeInstanceRepo())

	email := kernel.NewEmail("admin-created@example.com")
	clientID := kernel.NewClientID("tenant-1")

	if err := svc.CreateUser(context.Background(), email, clientID, user.RoleAdmin, false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := svc.CreateUser(context.Background(), email, clientID, user.RoleAdmin, false); err != nil {
		t.Fatalf("repeat create must be idempotent: %v", err)
	}
}

// Package usersrv implements user provisioning and sign-in discovery.
package usersrv

import (
	"context"

	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/logx"
	"github.com/chriswk/auth-app/pkg/notify"
	"github.com/chriswk/auth-app/pkg/storagex"
)

// Service resolves and creates users. The provisioning race (two first
// logins for the same new email) is resolved by the uniqueness constraints
// on users(email) and user_access(client_id, email): a write losing the
// race falls through to a plain read. No lock is ever held across the
// provider round trips that precede provisioning.
type Service struct {
	users     user.UserRepository
	access    user.AccessRepository
	instances instance.InstanceRepository
	notifier  notify.Notifier
	baseURL   string
}

// NewService wires the provisioning service. notifier may be nil when
// access notifications are disabled.
func NewService(users user.UserRepository, access user.AccessRepository, instances instance.InstanceRepository, notifier notify.Notifier, baseURL string) *Service {
	return &Service{
		users:     users,
		access:    access,
		instances: instances,
		notifier:  notifier,
		baseURL:   baseURL,
	}
}

// GetOrCreate returns the user for the canonical email, auto-provisioning
// on first login when an instance owns the email's domain. A domain no
// instance owns refuses the login with DomainNotAllowed; a lost insert
// race is already-provisioned, never an error.
func (s *Service) GetOrCreate(ctx context.Context, email kernel.Email) (*user.AuthAppUser, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !storagex.IsNotFound(err) {
		return nil, err
	}

	domain := email.Domain()
	if domain == "" {
		return nil, user.ErrDomainNotAllowed().WithDetail("email", email.String())
	}

	inst, err := s.instances.FindByDomain(ctx, domain)
	if err != nil {
		if storagex.IsNotFound(err) {
			return nil, user.ErrDomainNotAllowed().WithDetail("domain", domain)
		}
		return nil, err
	}

	if err := s.createUser(ctx, email); err != nil {
		return nil, err
	}

	grant := user.InstanceAccessGrant{
		ClientID: inst.ClientID,
		Email:    email,
		Role:     user.RoleWrite,
	}
	if err := s.access.Grant(ctx, grant); err != nil && !storagex.IsConflict(err) {
		return nil, err
	}

	return s.users.FindByEmail(ctx, email)
}

// createUser inserts the account with a placeholder credential. A unique
// violation means a concurrent login provisioned it first.
func (s *Service) createUser(ctx context.Context, email kernel.Email) error {
	password, err := user.GeneratePassword()
	if err != nil {
		return err
	}
	hash, err := user.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.users.Create(ctx, user.AuthAppUser{Email: email}, hash)
	if err != nil && !storagex.IsConflict(err) {
		return err
	}
	return nil
}

// FindSignIn lists all instances the email can sign in to, with their
// region-specific sign-in links.
func (s *Service) FindSignIn(ctx context.Context, email kernel.Email) ([]user.AccessWithSignInURL, error) {
	grants, err := s.access.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]user.AccessWithSignInURL, len(grants))
	for i, g := range grants {
		out[i] = g.WithSignInURL(s.baseURL)
	}
	return out, nil
}

// CreateUser is the administrative create: placeholder credential, an
// explicit grant, and an optional access notification.
func (s *Service) CreateUser(ctx context.Context, email kernel.Email, clientID kernel.ClientID, role user.Role, notifyUser bool) error {
	if err := s.createUser(ctx, email); err != nil {
		return err
	}
	if !clientID.IsEmpty() {
		grant := user.InstanceAccessGrant{ClientID: clientID, Email: email, Role: role}
		if err := s.access.Grant(ctx, grant); err != nil && !storagex.IsConflict(err) {
			return err
		}
	}

	if notifyUser && s.notifier != nil {
		msg := notify.AccessGrantedMessage(email.String(), clientID.String())
		if err := s.notifier.SendEmail(ctx, msg); err != nil {
			// Notification failure never fails the provisioning itself.
			logx.WithError(err).WithField("email", email.String()).Warn("Access notification failed")
		}
	}
	return nil
}

// ListUsers returns the admin listing.
func (s *Service) ListUsers(ctx context.Context) ([]user.UserListItem, error) {
	return s.users.List(ctx)
}

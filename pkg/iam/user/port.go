package user

import (
	"context"

	"github.com/chriswk/auth-app/pkg/kernel"
)

// UserRepository is the contract for account persistence. Emails are
// canonical before they reach the repository.
type UserRepository interface {
	FindByEmail(ctx context.Context, email kernel.Email) (*AuthAppUser, error)
	Exists(ctx context.Context, email kernel.Email) (bool, error)
	Create(ctx context.Context, u AuthAppUser, passwordHash string) error
	List(ctx context.Context) ([]UserListItem, error)
}

// AccessRepository is the contract for grant persistence.
type AccessRepository interface {
	// Grant inserts a grant; a duplicate (client_id, email) surfaces as a
	// conflict the caller treats as already-provisioned.
	Grant(ctx context.Context, g InstanceAccessGrant) error

	// FindByEmail returns all grants for an email joined with the
	// instance region.
	FindByEmail(ctx context.Context, email kernel.Email) ([]UserInstanceAccess, error)

	// Revoke removes a grant.
	Revoke(ctx context.Context, clientID kernel.ClientID, email kernel.Email) error
}

// Package user holds the auth-app user domain: accounts keyed by
// canonical email, access grants linking emails to instances, and the
// domain-based provisioning rules.
package user

import (
	"net/http"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// Role is the flat access role on a grant.
type Role string

const (
	RoleWrite  Role = "WRITE"
	RoleWriter Role = "WRITER"
	RoleAdmin  Role = "ADMIN"
)

// AuthAppUser is an account record. Email is unique and case-normalized;
// the stored credential is a placeholder irrelevant to the federated login
// path.
type AuthAppUser struct {
	Email     kernel.Email `db:"email" json:"email"`
	Name      string       `db:"name" json:"name,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// InstanceAccessGrant links an email to an instance with a role, unique on
// (client_id, email).
type InstanceAccessGrant struct {
	ClientID kernel.ClientID `db:"client_id" json:"client_id"`
	Email    kernel.Email    `db:"email" json:"email"`
	Role     Role            `db:"role" json:"role"`
}

// UserListItem is the admin listing projection.
type UserListItem struct {
	Email     kernel.Email `db:"email" json:"email"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	// CodeDomainNotAllowed means no instance owns the email's domain;
	// auto-provisioning refuses the login.
	CodeDomainNotAllowed = ErrRegistry.Register("DOMAIN_NOT_ALLOWED", errx.TypeAuthorization, http.StatusForbidden, "Email domain not allowed")
	CodeUserNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeUserExists       = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeInvalidRequest   = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid user request")
	// CodeNoSignIn means the email has no instance access at all.
	CodeNoSignIn = ErrRegistry.Register("NO_SIGN_IN", errx.TypeAuthorization, http.StatusUnauthorized, "No sign-in available for this email")
)

// ParseRole parses a role, defaulting to WRITE when empty.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case "":
		return RoleWrite, nil
	case RoleWrite, RoleWriter, RoleAdmin:
		return Role(raw), nil
	default:
		return "", ErrRegistry.NewWithMessage(CodeInvalidRequest, "unknown role: "+raw)
	}
}

func ErrDomainNotAllowed() *errx.Error {
	return ErrRegistry.New(CodeDomainNotAllowed)
}

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserExists() *errx.Error {
	return ErrRegistry.New(CodeUserExists)
}

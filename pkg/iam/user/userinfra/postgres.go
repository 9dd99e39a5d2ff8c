// Package userinfra is the PostgreSQL implementation of the user and
// access repositories.
package userinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/user"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/storagex"
	"github.com/jmoiron/sqlx"
)

// PostgresUserRepository implements user.UserRepository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) user.UserRepository {
	return &PostgresUserRepository{db: db}
}

type userPersistence struct {
	Email        string         `db:"email"`
	Name         sql.NullString `db:"name"`
	PasswordHash string         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (p userPersistence) toDomain() user.AuthAppUser {
	return user.AuthAppUser{
		Email:     kernel.Email(p.Email),
		Name:      p.Name.String,
		CreatedAt: p.CreatedAt,
	}
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email kernel.Email) (*user.AuthAppUser, error) {
	var p userPersistence
	query := `SELECT email, name, password_hash, created_at FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &p, query, email.String()); err != nil {
		return nil, storagex.MapError(err)
	}
	u := p.toDomain()
	return &u, nil
}

func (r *PostgresUserRepository) Exists(ctx context.Context, email kernel.Email) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.GetContext(ctx, &exists, query, email.String()); err != nil {
		return false, storagex.MapError(err)
	}
	return exists, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.AuthAppUser, passwordHash string) error {
	query := `INSERT INTO users(email, name, password_hash) VALUES ($1, $2, $3)`
	name := sql.NullString{String: u.Name, Valid: u.Name != ""}
	if _, err := r.db.ExecContext(ctx, query, u.Email.String(), name, passwordHash); err != nil {
		return storagex.MapError(err)
	}
	return nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]user.UserListItem, error) {
	var items []user.UserListItem
	query := `SELECT email, created_at FROM users ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, storagex.MapError(err)
	}
	return items, nil
}

// PostgresAccessRepository implements user.AccessRepository.
type PostgresAccessRepository struct {
	db *sqlx.DB
}

func NewPostgresAccessRepository(db *sqlx.DB) user.AccessRepository {
	return &PostgresAccessRepository{db: db}
}

func (r *PostgresAccessRepository) Grant(ctx context.Context, g user.InstanceAccessGrant) error {
	query := `INSERT INTO user_access(client_id, email, role) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, g.ClientID.String(), g.Email.String(), string(g.Role)); err != nil {
		return storagex.MapError(err)
	}
	return nil
}

func (r *PostgresAccessRepository) FindByEmail(ctx context.Context, email kernel.Email) ([]user.UserInstanceAccess, error) {
	var grants []user.UserInstanceAccess
	query := `
		SELECT u.client_id, u.email, u.role, i.region
		FROM user_access u
		JOIN instances i ON u.client_id = i.client_id
		WHERE u.email = $1`
	if err := r.db.SelectContext(ctx, &grants, query, email.String()); err != nil {
		return nil, storagex.MapError(err)
	}
	return grants, nil
}

func (r *PostgresAccessRepository) Revoke(ctx context.Context, clientID kernel.ClientID, email kernel.Email) error {
	query := `DELETE FROM user_access WHERE client_id = $1 AND email = $2`
	result, err := r.db.ExecContext(ctx, query, clientID.String(), email.String())
	if err != nil {
		return storagex.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storagex.MapError(err)
	}
	if affected == 0 {
		return storagex.ErrRegistry.New(storagex.CodeNotFound)
	}
	return nil
}

// Package instanceinfra is the PostgreSQL implementation of the instance
// repository. Lifecycle transitions are guarded in the statement that
// performs them, so a non-eligible instance simply matches no row.
package instanceinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/storagex"
	"github.com/jmoiron/sqlx"
)

// PostgresInstanceRepository implements instance.InstanceRepository.
type PostgresInstanceRepository struct {
	db *sqlx.DB
}

func NewPostgresInstanceRepository(db *sqlx.DB) instance.InstanceRepository {
	return &PostgresInstanceRepository{db: db}
}

type instancePersistence struct {
	ClientID      string         `db:"client_id"`
	DisplayName   sql.NullString `db:"display_name"`
	EmailDomain   sql.NullString `db:"email_domain"`
	Plan          string         `db:"plan"`
	Region        string         `db:"region"`
	InstanceState string         `db:"instance_state"`
	Seats         int            `db:"seats"`
	BillingCenter string         `db:"billing_center"`
	TrialStart    *time.Time     `db:"trial_start"`
	TrialExpiry   *time.Time     `db:"trial_expiry"`
	TrialExtended int            `db:"trial_extended"`
	CreatedAt     time.Time      `db:"created_at"`
}

// toDomain parses the stored state strictly; an unrecognized value is a
// data-integrity fault, not a default.
func (p instancePersistence) toDomain() (instance.Instance, error) {
	state, err := instance.ParseState(p.InstanceState)
	if err != nil {
		return instance.Instance{}, err
	}
	return instance.Instance{
		ClientID:      kernel.ClientID(p.ClientID),
		DisplayName:   p.DisplayName.String,
		EmailDomain:   p.EmailDomain.String,
		Plan:          p.Plan,
		Region:        p.Region,
		State:         state,
		Seats:         p.Seats,
		BillingCenter: p.BillingCenter,
		TrialStart:    p.TrialStart,
		TrialExpiry:   p.TrialExpiry,
		TrialExtended: p.TrialExtended,
		CreatedAt:     p.CreatedAt,
	}, nil
}

const instanceColumns = `client_id, display_name, email_domain, plan, region, instance_state,
	seats, billing_center, trial_start, trial_expiry, trial_extended, created_at`

const statusColumns = `plan, trial_start, trial_expiry, trial_extended, billing_center, instance_state, region`

func (r *PostgresInstanceRepository) Create(ctx context.Context, inst instance.Instance) (*instance.Instance, error) {
	query := `
		INSERT INTO instances(client_id, display_name, email_domain, plan, region, instance_state, seats, billing_center, trial_extended)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + instanceColumns

	var p instancePersistence
	err := r.db.GetContext(ctx, &p, query,
		inst.ClientID.String(),
		sql.NullString{String: inst.DisplayName, Valid: inst.DisplayName != ""},
		sql.NullString{String: inst.EmailDomain, Valid: inst.EmailDomain != ""},
		inst.Plan,
		inst.Region,
		inst.State.String(),
		inst.Seats,
		inst.BillingCenter,
		inst.TrialExtended,
	)
	if err != nil {
		mapped := storagex.MapError(err)
		if mapped.Code == storagex.CodeConflict.Code {
			return nil, instance.ErrInstanceExists().WithDetail("client_id", inst.ClientID.String())
		}
		return nil, mapped
	}
	created, err := p.toDomain()
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PostgresInstanceRepository) FindByClientID(ctx context.Context, clientID kernel.ClientID) (*instance.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE client_id = $1`
	return r.getInstance(ctx, query, clientID.String())
}

func (r *PostgresInstanceRepository) FindByDomain(ctx context.Context, domain string) (*instance.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE email_domain = $1`
	return r.getInstance(ctx, query, domain)
}

func (r *PostgresInstanceRepository) getInstance(ctx context.Context, query string, arg any) (*instance.Instance, error) {
	var p instancePersistence
	if err := r.db.GetContext(ctx, &p, query, arg); err != nil {
		return nil, storagex.MapError(err)
	}
	inst, err := p.toDomain()
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *PostgresInstanceRepository) List(ctx context.Context) ([]instance.Instance, error) {
	var rows []instancePersistence
	query := `SELECT ` + instanceColumns + ` FROM instances ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, storagex.MapError(err)
	}
	out := make([]instance.Instance, len(rows))
	for i, p := range rows {
		inst, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = inst
	}
	return out, nil
}

func (r *PostgresInstanceRepository) Status(ctx context.Context, clientID kernel.ClientID) (*instance.InstanceStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM instances WHERE client_id = $1`
	return r.getStatus(ctx, query, clientID.String())
}

// Assign stamps the trial window in a single guarded statement; an
// instance not in Unassigned matches no row and surfaces as not found.
func (r *PostgresInstanceRepository) Assign(ctx context.Context, clientID kernel.ClientID, displayName, emailDomain string) (*instance.InstanceStatus, error) {
	query := `
		UPDATE instances SET
			instance_state = $2,
			trial_start = NOW(),
			trial_expiry = NOW() + $3 * INTERVAL '1 DAY',
			display_name = COALESCE(NULLIF($4, ''), display_name),
			email_domain = COALESCE(NULLIF($5, ''), email_domain)
		WHERE client_id = $1 AND instance_state = $6
		RETURNING ` + statusColumns

	var p statusPersistence
	err := r.db.GetContext(ctx, &p, query,
		clientID.String(),
		instance.StateTrial.String(),
		instance.TrialDays,
		displayName,
		emailDomain,
		instance.StateUnassigned.String(),
	)
	if err != nil {
		return nil, mapTransitionError(err, clientID)
	}
	return p.toDomain()
}

// ExtendTrial is guarded on instance_state = 'Trial' in the same statement
// that increments, so trial_expiry only ever grows.
func (r *PostgresInstanceRepository) ExtendTrial(ctx context.Context, clientID kernel.ClientID) (*instance.InstanceStatus, error) {
	query := `
		UPDATE instances SET
			trial_extended = trial_extended + 1,
			trial_expiry = trial_expiry + $2 * INTERVAL '1 DAY'
		WHERE client_id = $1 AND instance_state = $3
		RETURNING ` + statusColumns

	var p statusPersistence
	err := r.db.GetContext(ctx, &p, query,
		clientID.String(),
		instance.ExtensionDays,
		instance.StateTrial.String(),
	)
	if err != nil {
		return nil, mapTransitionError(err, clientID)
	}
	return p.toDomain()
}

func (r *PostgresInstanceRepository) SetState(ctx context.Context, clientID kernel.ClientID, state instance.State) error {
	query := `UPDATE instances SET instance_state = $2 WHERE client_id = $1`
	result, err := r.db.ExecContext(ctx, query, clientID.String(), state.String())
	if err != nil {
		return storagex.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storagex.MapError(err)
	}
	if affected == 0 {
		return instance.ErrInstanceNotFound().WithDetail("client_id", clientID.String())
	}
	return nil
}

func (r *PostgresInstanceRepository) getStatus(ctx context.Context, query string, arg any) (*instance.InstanceStatus, error) {
	var p statusPersistence
	if err := r.db.GetContext(ctx, &p, query, arg); err != nil {
		return nil, storagex.MapError(err)
	}
	return p.toDomain()
}

type statusPersistence struct {
	Plan          string     `db:"plan"`
	TrialStart    *time.Time `db:"trial_start"`
	TrialExpiry   *time.Time `db:"trial_expiry"`
	TrialExtended int        `db:"trial_extended"`
	BillingCenter string     `db:"billing_center"`
	InstanceState string     `db:"instance_state"`
	Region        string     `db:"region"`
}

func (p statusPersistence) toDomain() (*instance.InstanceStatus, error) {
	state, err := instance.ParseState(p.InstanceState)
	if err != nil {
		return nil, err
	}
	return &instance.InstanceStatus{
		Plan:          p.Plan,
		TrialStart:    p.TrialStart,
		TrialExpiry:   p.TrialExpiry,
		TrialExtended: p.TrialExtended,
		BillingCenter: p.BillingCenter,
		State:         state,
		Region:        p.Region,
	}, nil
}

func mapTransitionError(err error, clientID kernel.ClientID) error {
	mapped := storagex.MapError(err)
	if mapped.Code == storagex.CodeNotFound.Code {
		return instance.ErrInstanceNotFound().WithDetail("client_id", clientID.String())
	}
	return mapped
}

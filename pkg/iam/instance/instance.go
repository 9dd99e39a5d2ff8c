// Package instance holds the tenant domain: the instance record, its
// trial/subscription state machine and the transition rules. The state
// machine only stores and exposes state; nothing here runs a time-based
// expiry sweep.
package instance

import (
	"net/http"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/kernel"
)

// Trial durations, in days.
const (
	TrialDays     = 14
	ExtensionDays = 5
)

// ============================================================================
// State
// ============================================================================

// State is the closed instance lifecycle variant. It is persisted as text;
// ParseState is strict, so an unrecognized stored value is a
// data-integrity fault rather than a silent default.
type State string

const (
	StateUnassigned State = "Unassigned"
	StateTrial      State = "Trial"
	StateActive     State = "Active"
	StateExpired    State = "Expired"
	StateChurned    State = "Churned"
)

func (s State) String() string { return string(s) }

// ParseState parses a stored state value strictly.
func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateUnassigned, StateTrial, StateActive, StateExpired, StateChurned:
		return State(raw), nil
	default:
		return "", ErrRegistry.New(CodeInvalidState).WithDetail("value", raw)
	}
}

// ============================================================================
// Domain Types
// ============================================================================

// Instance is a tenant with its own billing and trial lifecycle.
type Instance struct {
	ClientID      kernel.ClientID `json:"client_id"`
	DisplayName   string          `json:"display_name,omitempty"`
	EmailDomain   string          `json:"email_domain,omitempty"`
	Plan          string          `json:"plan"`
	Region        string          `json:"region"`
	State         State           `json:"instance_state"`
	Seats         int             `json:"seats"`
	BillingCenter string          `json:"billing_center"`
	TrialStart    *time.Time      `json:"trial_start,omitempty"`
	TrialExpiry   *time.Time      `json:"trial_expiry,omitempty"`
	TrialExtended int             `json:"trial_extended"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InstanceStatus is the lifecycle projection returned by the status and
// transition operations.
type InstanceStatus struct {
	Plan          string     `db:"plan" json:"plan"`
	TrialStart    *time.Time `db:"trial_start" json:"trial_start"`
	TrialExpiry   *time.Time `db:"trial_expiry" json:"trial_expiry"`
	TrialExtended int        `db:"trial_extended" json:"trial_extended"`
	BillingCenter string     `db:"billing_center" json:"billing_center"`
	State         State      `db:"instance_state" json:"instance_state"`
	Region        string     `db:"region" json:"region"`
}

// ============================================================================
// Transitions
// ============================================================================

// Assign starts the trial. Legal only from Unassigned; it stamps
// trial_start, sets trial_expiry fourteen days out and records the display
// name and email domain.
func (i *Instance) Assign(now time.Time, displayName, emailDomain string) error {
	if i.State != StateUnassigned {
		return ErrRegistry.New(CodeNotAssignable).WithDetail("instance_state", i.State.String())
	}
	expiry := now.Add(TrialDays * 24 * time.Hour)
	i.State = StateTrial
	i.TrialStart = &now
	i.TrialExpiry = &expiry
	i.DisplayName = displayName
	i.EmailDomain = emailDomain
	return nil
}

// Extend adds five days to the trial. Legal only while the state is
// exactly Trial; trial_expiry only grows and trial_extended only climbs.
func (i *Instance) Extend() error {
	if i.State != StateTrial || i.TrialExpiry == nil {
		return ErrInstanceNotFound()
	}
	extended := i.TrialExpiry.Add(ExtensionDays * 24 * time.Hour)
	i.TrialExpiry = &extended
	i.TrialExtended++
	return nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("INSTANCE")

var (
	CodeInstanceNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Instance not found")
	CodeInstanceExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Instance already exists")
	CodeNotAssignable    = ErrRegistry.Register("NOT_ASSIGNABLE", errx.TypeConflict, http.StatusConflict, "Instance already assigned")
	CodeInvalidRequest   = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid instance request")
	// CodeInvalidState marks an unparseable stored lifecycle value.
	CodeInvalidState = ErrRegistry.Register("INVALID_STATE", errx.TypeInternal, http.StatusInternalServerError, "Unrecognized instance state")
)

func ErrInstanceNotFound() *errx.Error {
	return ErrRegistry.New(CodeInstanceNotFound)
}

func ErrInstanceExists() *errx.Error {
	return ErrRegistry.New(CodeInstanceExists)
}

package instance

import (
	"context"

	"github.com/chriswk/auth-app/pkg/kernel"
)

// InstanceRepository is the contract for instance persistence. All
// lifecycle transitions are guarded in storage (state checked in the same
// statement that mutates), so concurrent administrative calls cannot fork
// the state machine.
type InstanceRepository interface {
	Create(ctx context.Context, inst Instance) (*Instance, error)
	FindByClientID(ctx context.Context, clientID kernel.ClientID) (*Instance, error)

	// FindByDomain resolves the instance owning an email domain.
	FindByDomain(ctx context.Context, domain string) (*Instance, error)

	List(ctx context.Context) ([]Instance, error)
	Status(ctx context.Context, clientID kernel.ClientID) (*InstanceStatus, error)

	// Assign transitions Unassigned → Trial; a non-Unassigned instance is
	// reported not found, never silently re-assigned.
	Assign(ctx context.Context, clientID kernel.ClientID, displayName, emailDomain string) (*InstanceStatus, error)

	// ExtendTrial adds the extension to a Trial instance; a non-Trial
	// instance is reported not found, never a silent success.
	ExtendTrial(ctx context.Context, clientID kernel.ClientID) (*InstanceStatus, error)

	// SetState records a transition driven by the external billing
	// collaborator (Trial → Active|Expired, any → Churned).
	SetState(ctx context.Context, clientID kernel.ClientID, state State) error
}

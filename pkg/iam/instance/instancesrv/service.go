// Package instancesrv implements the instance lifecycle operations.
package instancesrv

import (
	"context"

	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/logx"
)

// Service drives the tenant lifecycle. The guarded transitions live in the
// repository; this layer owns defaults, validation and logging.
type Service struct {
	instances instance.InstanceRepository
}

func NewService(instances instance.InstanceRepository) *Service {
	return &Service{instances: instances}
}

// Create registers a new instance in the Unassigned state. Seats defaults
// to five when unset.
func (s *Service) Create(ctx context.Context, req instance.CreateRequest) (*instance.Instance, error) {
	clientID := kernel.NewClientID(req.ClientID)
	if clientID.IsEmpty() {
		return nil, instance.ErrRegistry.NewWithMessage(instance.CodeInvalidRequest, "client_id is required")
	}
	seats := req.Seats
	if seats <= 0 {
		seats = 5
	}
	plan := req.Plan
	if plan == "" {
		plan = "pro"
	}
	region := req.Region
	if region == "" {
		region = "eu"
	}

	created, err := s.instances.Create(ctx, instance.Instance{
		ClientID:      clientID,
		DisplayName:   req.DisplayName,
		EmailDomain:   req.EmailDomain,
		Plan:          plan,
		Region:        region,
		State:         instance.StateUnassigned,
		Seats:         seats,
		BillingCenter: req.BillingCenter,
	})
	if err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{
		"client_id": created.ClientID.String(),
		"region":    created.Region,
	}).Info("Instance created")
	return created, nil
}

// List returns every instance.
func (s *Service) List(ctx context.Context) ([]instance.Instance, error) {
	return s.instances.List(ctx)
}

// Status returns the lifecycle projection for one instance.
func (s *Service) Status(ctx context.Context, clientID kernel.ClientID) (*instance.InstanceStatus, error) {
	return s.instances.Status(ctx, clientID)
}

// Assign moves an Unassigned instance into its trial window.
func (s *Service) Assign(ctx context.Context, clientID kernel.ClientID, displayName, emailDomain string) (*instance.InstanceStatus, error) {
	status, err := s.instances.Assign(ctx, clientID, displayName, emailDomain)
	if err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{
		"client_id":    clientID.String(),
		"email_domain": emailDomain,
	}).Info("Instance assigned, trial started")
	return status, nil
}

// ExtendTrial grants the extension to an in-flight trial. Instances in any
// other state report not found.
func (s *Service) ExtendTrial(ctx context.Context, clientID kernel.ClientID) (*instance.InstanceStatus, error) {
	status, err := s.instances.ExtendTrial(ctx, clientID)
	if err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{
		"client_id":      clientID.String(),
		"trial_extended": status.TrialExtended,
	}).Info("Trial extended")
	return status, nil
}

// SetState records a billing-driven transition (Trial to Active or Expired,
// any state to Churned).
func (s *Service) SetState(ctx context.Context, clientID kernel.ClientID, raw string) error {
	state, err := instance.ParseState(raw)
	if err != nil {
		return instance.ErrRegistry.NewWithMessage(instance.CodeInvalidRequest, "unknown instance state: "+raw)
	}
	if err := s.instances.SetState(ctx, clientID, state); err != nil {
		return err
	}
	logx.WithFields(logx.Fields{
		"client_id":      clientID.String(),
		"instance_state": state.String(),
	}).Info("Instance state updated")
	return nil
}

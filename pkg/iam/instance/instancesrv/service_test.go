package instancesrv_test

import (
	"context"
	"testing"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/iam/instance/instancesrv"
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/chriswk/auth-app/pkg/storagex"
)

type fakeRepo struct {
	created   *instance.Instance
	setStates []instance.State
}

func (f *fakeRepo) Create(_ context.Context, inst instance.Instance) (*instance.Instance, error) {
	f.created = &inst
	return &inst, nil
}

func (f *fakeRepo) FindByClientID(_ context.Context, _ kernel.ClientID) (*instance.Instance, error) {
	return f.created, nil
}

func (f *fakeRepo) FindByDomain(_ context.Context, _ string) (*instance.Instance, error) {
	return nil, storagex.ErrRegistry.New(storagex.CodeNotFound)
}

func (f *fakeRepo) List(_ context.Context) ([]instance.Instance, error) { return nil, nil }

func (f *fakeRepo) Status(_ context.Context, _ kernel.ClientID) (*instance.InstanceStatus, error) {
	return &instance.InstanceStatus{State: instance.StateTrial}, nil
}

func (f *fakeRepo) Assign(_ context.Context, _ kernel.ClientID, _, _ string) (*instance.InstanceStatus, error) {
	return &instance.InstanceStatus{State: instance.StateTrial}, nil
}

func (f *fakeRepo) ExtendTrial(_ context.Context, _ kernel.ClientID) (*instance.InstanceStatus, error) {
	return &instance.InstanceStatus{State: instance.StateTrial, TrialExtended: 1}, nil
}

func (f *fakeRepo) SetState(_ context.Context, _ kernel.ClientID, state instance.State) error {
	f.setStates = append(f.setStates, state)
	return nil
}

func TestCreate_DefaultsSeatsAndState(t *testing.T) {
	repo := &fakeRepo{}
	svc := instancesrv.NewService(repo)

	created, err := svc.Create(context.Background(), instance.CreateRequest{
		ClientID: "tenant-1",
		Plan:     "pro",
		Region:   "eu2",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Seats != 5 {
		t.Fatalf("expected default 5 seats, got %d", created.Seats)
	}
	if created.State != instance.StateUnassigned {
		t.Fatalf("new instance must start Unassigned, got %s", created.State)
	}
}

func TestCreate_RequiresClientID(t *testing.T) {
	svc := instancesrv.NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), instance.CreateRequest{Plan: "pro"})
	coded, ok := errx.As(err)
	if !ok || coded.Code != instance.CodeInvalidRequest.Code {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestSetState_RejectsUnknownState(t *testing.T) {
	repo := &fakeRepo{}
	svc := instancesrv.NewService(repo)

	err := svc.SetState(context.Background(), kernel.NewClientID("tenant-1"), "Cancelled")
	coded, ok := errx.As(err)
	if !ok || coded.Code != instance.CodeInvalidRequest.Code {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if len(repo.setStates) != 0 {
		t.Fatal("an unparseable state must never reach the repository")
	}
}

func TestSetState_PassesParsedState(t *testing.T) {
	repo := &fakeRepo{}
	svc := instancesrv.NewService(repo)

	if err := svc.SetState(context.Background(), kernel.NewClientID("tenant-1"), "Churned"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if len(repo.setStates) != 1 || repo.setStates[0] != instance.StateChurned {
		t.Fatalf("unexpected states: %v", repo.setStates)
	}
}

package instance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/instance"
	"github.com/chriswk/auth-app/pkg/kernel"
)

func TestParseState(t *testing.T) {
	for _, raw := range []string{"Unassigned", "Trial", "Active", "Expired", "Churned"} {
		state, err := instance.ParseState(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if state.String() != raw {
			t.Fatalf("round trip mismatch: %q != %q", state, raw)
		}
	}
}

func TestParseState_RejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "trial", "TRIAL", "Cancelled", "Unknown"} {
		if _, err := instance.ParseState(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestAssign_StartsTrialWindow(t *testing.T) {
	inst := instance.Instance{
		ClientID: kernel.NewClientID("tenant-1"),
		State:    instance.StateUnassigned,
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := inst.Assign(now, "Acme", "acme.com"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if inst.State != instance.StateTrial {
		t.Fatalf("expected Trial, got %s", inst.State)
	}
	if inst.TrialStart == nil || !inst.TrialStart.Equal(now) {
		t.Fatalf("trial start not stamped: %v", inst.TrialStart)
	}
	want := now.Add(14 * 24 * time.Hour)
	if inst.TrialExpiry == nil || !inst.TrialExpiry.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, inst.TrialExpiry)
	}
	if inst.DisplayName != "Acme" || inst.EmailDomain != "acme.com" {
		t.Fatalf("assignment details not recorded: %+v", inst)
	}
}

func TestAssign_OnlyFromUnassigned(t *testing.T) {
	for _, state := range []instance.State{
		instance.StateTrial, instance.StateActive, instance.StateExpired, instance.StateChurned,
	} {
		inst := instance.Instance{State: state}
		if err := inst.Assign(time.Now(), "Acme", "acme.com"); err == nil {
			t.Fatalf("assign from %s must fail", state)
		}
	}
}

func TestExtend_AddsFiveDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry := start.Add(14 * 24 * time.Hour)
	inst := instance.Instance{
		State:       instance.StateTrial,
		TrialStart:  &start,
		TrialExpiry: &expiry,
	}

	if err := inst.Extend(); err != nil {
		t.Fatalf("extend: %v", err)
	}
	want := expiry.Add(5 * 24 * time.Hour)
	if !inst.TrialExpiry.Equal(want) {
		t.Fatalf("expected %v, got %v", want, inst.TrialExpiry)
	}
	if inst.TrialExtended != 1 {
		t.Fatalf("extension count not incremented: %d", inst.TrialExtended)
	}

	if err := inst.Extend(); err != nil {
		t.Fatalf("second extension: %v", err)
	}
	if inst.TrialExtended != 2 {
		t.Fatalf("expected 2 extensions, got %d", inst.TrialExtended)
	}
}

func TestExtend_OnlyInTrial(t *testing.T) {
	for _, state := range []instance.State{
		instance.StateUnassigned, instance.StateActive, instance.StateExpired, instance.StateChurned,
	} {
		inst := instance.Instance{State: state}
		err := inst.Extend()
		if !errors.Is(err, instance.ErrInstanceNotFound()) {
			t.Fatalf("extend in %s: expected not found, got %v", state, err)
		}
	}
}

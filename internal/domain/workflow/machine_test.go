package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

func TestState_IsDecided(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsDecided(); got != tt.expected {
				t.Errorf("State.IsDecided() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	if !StatePending.IsValid() {
		t.Error("PENDING should be valid")
	}
	if State("ARCHIVED").IsValid() {
		t.Error("ARCHIVED should be invalid")
	}
	if State("").IsValid() {
		t.Error("empty state should be invalid")
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		target  entity.SubmissionStatus
		want    Trigger
		wantErr bool
	}{
		{entity.SubmissionStatusApproved, TriggerApprove, false},
		{entity.SubmissionStatusRejected, TriggerReject, false},
		{entity.SubmissionStatusPending, TriggerReopen, false},
		{entity.SubmissionStatus("DONE"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			got, err := TriggerFor(tt.target)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Errorf("TriggerFor() error = %v, want ErrInvalidState", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TriggerFor() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TriggerFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_PanicsOnInvalidTarget(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StatePending).Permit(TriggerApprove, State("INVALID"))
}

func TestMachine_FireUnconfigured(t *testing.T) {
	machine := NewBuilder().Build(StatePending)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if machine.State() != StatePending {
		t.Errorf("State() = %v, want %v", machine.State(), StatePending)
	}
	if len(machine.PermittedTriggers()) != 0 {
		t.Error("unconfigured machine should have no permitted triggers")
	}
}

func TestMachine_GuardOrder(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool { return false }).
		PermitIf(TriggerApprove, StateRejected, func(ctx context.Context) bool { return true })

	machine := b.Build(StatePending)
	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateRejected {
		t.Errorf("State() = %v, want first passing guard target %v", machine.State(), StateRejected)
	}
}

func TestMachine_Independence(t *testing.T) {
	b := NewReviewBuilder(ReviewPolicy{AllowReReview: true})

	first := b.Build(StatePending)
	second := b.Build(StatePending)

	if err := first.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if second.State() != StatePending {
		t.Errorf("second machine state = %v, want %v", second.State(), StatePending)
	}
}

func TestReviewBuilder_PendingDecisions(t *testing.T) {
	for _, policy := range []ReviewPolicy{{AllowReReview: true}, {AllowReReview: false}} {
		b := NewReviewBuilder(policy)

		tests := []struct {
			trigger Trigger
			want    State
		}{
			{TriggerApprove, StateApproved},
			{TriggerReject, StateRejected},
			{TriggerReopen, StatePending},
		}

		for _, tt := range tests {
			machine := b.Build(StatePending)
			if err := machine.Fire(context.Background(), tt.trigger); err != nil {
				t.Errorf("policy %+v: Fire(%v) failed: %v", policy, tt.trigger, err)
				continue
			}
			if machine.State() != tt.want {
				t.Errorf("policy %+v: Fire(%v) state = %v, want %v", policy, tt.trigger, machine.State(), tt.want)
			}
		}
	}
}

func TestReviewBuilder_ReReview(t *testing.T) {
	t.Run("allowed overwrites decision", func(t *testing.T) {
		machine := NewReviewBuilder(ReviewPolicy{AllowReReview: true}).Build(StateApproved)

		if err := machine.Fire(context.Background(), TriggerReject); err != nil {
			t.Fatalf("Fire() failed: %v", err)
		}
		if machine.State() != StateRejected {
			t.Errorf("State() = %v, want %v", machine.State(), StateRejected)
		}
	})

	t.Run("refused keeps decision", func(t *testing.T) {
		machine := NewReviewBuilder(ReviewPolicy{AllowReReview: false}).Build(StateRejected)

		err := machine.Fire(context.Background(), TriggerApprove)
		if !errors.Is(err, ErrGuardFailed) {
			t.Fatalf("Fire() error = %v, want ErrGuardFailed", err)
		}
		if machine.State() != StateRejected {
			t.Errorf("State() = %v, want %v", machine.State(), StateRejected)
		}
		if !machine.CanFire(TriggerApprove) {
			t.Error("CanFire() ignores guards and should report the configured trigger")
		}
	})
}

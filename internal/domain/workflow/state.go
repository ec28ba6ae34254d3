package workflow

import (
	"fmt"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

// State is a submission review state
type State string

const (
	StatePending  State = State(entity.SubmissionStatusPending)
	StateApproved State = State(entity.SubmissionStatusApproved)
	StateRejected State = State(entity.SubmissionStatusRejected)
)

// IsValid returns true if the state is a review state
func (s State) IsValid() bool {
	return entity.SubmissionStatus(s).IsValid()
}

// IsDecided returns true for APPROVED and REJECTED
func (s State) IsDecided() bool {
	return entity.SubmissionStatus(s).IsDecided()
}

func (s State) String() string {
	return string(s)
}

// Trigger is a reviewer action that moves a submission between states
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerReopen  Trigger = "REOPEN"
)

func (t Trigger) String() string {
	return string(t)
}

// TriggerFor maps a requested target status to the trigger that reaches it
func TriggerFor(target entity.SubmissionStatus) (Trigger, error) {
	switch target {
	case entity.SubmissionStatusApproved:
		return TriggerApprove, nil
	case entity.SubmissionStatusRejected:
		return TriggerReject, nil
	case entity.SubmissionStatusPending:
		return TriggerReopen, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, target)
	}
}

package workflow

import "context"

// ReviewPolicy controls how strictly the review machine treats decided submissions
type ReviewPolicy struct {
	// AllowReReview lets a reviewer overwrite an APPROVED or REJECTED decision
	AllowReReview bool
}

// NewReviewBuilder configures the submission review transitions.
//
// A pending submission can always be approved, rejected, or re-saved as
// pending with a new note. Once decided, every transition is guarded by
// the re-review policy.
func NewReviewBuilder(policy ReviewPolicy) *Builder {
	allowed := func(_ context.Context) bool { return policy.AllowReReview }

	b := NewBuilder()

	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerReopen, StatePending)

	for _, decided := range []State{StateApproved, StateRejected} {
		b.Configure(decided).
			PermitIf(TriggerApprove, StateApproved, allowed).
			PermitIf(TriggerReject, StateRejected, allowed).
			PermitIf(TriggerReopen, StatePending, allowed)
	}

	return b
}

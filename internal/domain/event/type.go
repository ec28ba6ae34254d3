package event

// Type identifies the type of domain event
type Type string

const (
	TypeTaskCreated         Type = "task.created"
	TypeTaskUpdated         Type = "task.updated"
	TypeTaskAssigned        Type = "task.assigned"
	TypeCollectorRegistered Type = "collector.registered"
	TypeSubmissionReviewed  Type = "submission.reviewed"
	TypeUserRegistered      Type = "user.registered"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTaskCreated,
		TypeTaskUpdated,
		TypeTaskAssigned,
		TypeCollectorRegistered,
		TypeSubmissionReviewed,
		TypeUserRegistered:
		return true
	default:
		return false
	}
}

// Payload keys shared by publishers and handlers
const (
	KeyStatus         = "status"
	KeyPreviousStatus = "previous_status"
	KeyNote           = "note"
	KeyReReview       = "re_review"
	KeyTaskID         = "task_id"
	KeyCollectorID    = "collector_id"
	KeyCollectorIDs   = "collector_ids"
	KeyAdded          = "added"
	KeyTitle          = "title"
)

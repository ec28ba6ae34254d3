package entity

// MediaType is the kind of media a task collects
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeAudio MediaType = "AUDIO"
	MediaTypeText  MediaType = "TEXT"
	MediaTypeDoc   MediaType = "DOC"

	// MediaTypeUnknown is only ever rendered for a dangling task reference
	MediaTypeUnknown MediaType = "UNKNOWN"
)

// IsValid reports whether the media type can be stored on a task
func (m MediaType) IsValid() bool {
	switch m {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio, MediaTypeText, MediaTypeDoc:
		return true
	default:
		return false
	}
}

// SubmissionStatus is the review status of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

// IsValid reports whether the status is a known submission status
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// IsDecided returns true once a reviewer has approved or rejected
func (s SubmissionStatus) IsDecided() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// Role gates navigation and API access
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleCollector  Role = "COLLECTOR"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleCollector:
		return true
	default:
		return false
	}
}

// CanManage returns true for roles allowed to create tasks, register
// collectors and review submissions
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// Placeholder labels rendered for dangling references
const (
	UnknownTaskTitle       = "Unknown Task"
	UnknownTaskDescription = "This task could not be found."
	UnknownSubmissionTask  = "Unknown task"
	UnknownCollectorName   = "Unknown collector"
	SystemUserID           = "system"
)

package entity

import "time"

// Submission is one collector's uploaded artifact for a task.
// It is mutated only by review.
type Submission struct {
	ID           string           `json:"id"`
	TaskID       string           `json:"taskId"`
	CollectorID  string           `json:"collectorId"`
	UploadURL    string           `json:"uploadUrl"`
	Status       SubmissionStatus `json:"status"`
	ApproverNote *string          `json:"approverNote"`
	ReviewedByID *string          `json:"reviewedById"`
	ReviewedAt   *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// SubmissionTaskRef is the slice of a task embedded in a resolved submission
type SubmissionTaskRef struct {
	Title     string    `json:"title"`
	MediaType MediaType `json:"mediaType"`
}

// SubmissionCollectorRef is the slice of a collector embedded in a resolved submission
type SubmissionCollectorRef struct {
	Name string `json:"name"`
}

// ResolvedSubmission is a submission joined with its task and collector
type ResolvedSubmission struct {
	Submission
	Task      SubmissionTaskRef      `json:"task"`
	Collector SubmissionCollectorRef `json:"collector"`
}

// SubmissionFilter narrows submission listings; empty fields match everything
type SubmissionFilter struct {
	Status      SubmissionStatus
	TaskID      string
	CollectorID string
}

// ReviewDecision is the reviewer's verdict on a submission
type ReviewDecision struct {
	Status       SubmissionStatus `json:"status"`
	ApproverNote *string          `json:"approverNote"`
}

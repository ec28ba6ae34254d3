package entity

import "time"

// ReviewRecord is one entry of a submission's status history
type ReviewRecord struct {
	ID             int64            `json:"id"`
	SubmissionID   string           `json:"submissionId"`
	PreviousStatus SubmissionStatus `json:"previousStatus"`
	NewStatus      SubmissionStatus `json:"newStatus"`
	Note           *string          `json:"note"`
	ReviewerID     string           `json:"reviewerId"`
	ReReview       bool             `json:"reReview"`
	CreatedAt      time.Time        `json:"createdAt"`
}

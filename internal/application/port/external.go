package port

import (
	"context"
	"io"
	"time"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

// ReviewNotice describes a completed review for out-of-band notification
type ReviewNotice struct {
	SubmissionID   string
	TaskTitle      string
	CollectorName  string
	PreviousStatus entity.SubmissionStatus
	Status         entity.SubmissionStatus
	Note           *string
	ReviewerID     string
	ReReview       bool
}

// AssignmentNotice describes collectors newly linked to a task
type AssignmentNotice struct {
	TaskID    string
	TaskTitle string
	Added     int
	Assigned  []string
}

// Notifier delivers workflow notices to reviewers
type Notifier interface {
	NotifyReview(ctx context.Context, notice ReviewNotice) error
	NotifyAssignment(ctx context.Context, notice AssignmentNotice) error
}

// Claims is the identity carried by an access token
type Claims struct {
	UserID string
	Email  string
	Name   string
	Role   entity.Role
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer interface {
	Issue(user *entity.User) (token string, expiresAt time.Time, err error)
	Parse(token string) (*Claims, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SubmissionExporter renders resolved submissions as a downloadable report
type SubmissionExporter interface {
	ContentType() string
	FileExtension() string
	Write(ctx context.Context, w io.Writer, rows []*entity.ResolvedSubmission) error
}

package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

// ErrDuplicate is returned by repositories when a unique constraint is violated
var ErrDuplicate = errors.New("duplicate record")

// Single-row getters return (nil, nil) when the row does not exist.

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
}

// TaskRepository defines persistence operations for Task and its
// collector assignments
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Task, error)
	List(ctx context.Context) ([]*entity.Task, error)
	ListByCollector(ctx context.Context, collectorID string) ([]*entity.Task, error)

	// Assign links collectors to a task, ignoring pairs that already exist,
	// and returns how many links were new
	Assign(ctx context.Context, taskID string, collectorIDs []string) (int, error)
}

// CollectorRepository defines persistence operations for Collector
type CollectorRepository interface {
	Create(ctx context.Context, collector *entity.Collector) error
	GetByID(ctx context.Context, id string) (*entity.Collector, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Collector, error)
	List(ctx context.Context) ([]*entity.Collector, error)
	ListByTask(ctx context.Context, taskID string) ([]*entity.Collector, error)
}

// SubmissionRepository defines persistence operations for Submission
type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	GetByID(ctx context.Context, id string) (*entity.Submission, error)
	List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)

	// UpdateReview overwrites status, note and reviewer fields
	UpdateReview(ctx context.Context, id string, status entity.SubmissionStatus, note *string, reviewerID string, at time.Time) error
}

// ReviewRecordRepository defines persistence operations for ReviewRecord
type ReviewRecordRepository interface {
	Create(ctx context.Context, record *entity.ReviewRecord) error
	ListBySubmission(ctx context.Context, submissionID string) ([]*entity.ReviewRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

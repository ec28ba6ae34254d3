package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// SubmissionRepository implements port.SubmissionRepository
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) port.SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

const submissionSelect = `
	SELECT id, task_id, collector_id, upload_url, status, approver_note, reviewed_by_id,
		reviewed_at, created_at, updated_at
	FROM submissions`

func scanSubmission(s rowScanner) (*entity.Submission, error) {
	var sub entity.Submission
	var note, reviewer sql.NullString
	var reviewedAt sql.NullTime
	err := s.Scan(
		&sub.ID, &sub.TaskID, &sub.CollectorID, &sub.UploadURL, &sub.Status,
		&note, &reviewer, &reviewedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.ApproverNote = stringPtr(note)
	sub.ReviewedByID = stringPtr(reviewer)
	sub.ReviewedAt = timePtr(reviewedAt)
	return &sub, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	query := `
		INSERT INTO submissions (id, task_id, collector_id, upload_url, status, approver_note,
			reviewed_by_id, reviewed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var reviewedAt sql.NullTime
	if sub.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: *sub.ReviewedAt, Valid: true}
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		sub.ID, sub.TaskID, sub.CollectorID, sub.UploadURL, sub.Status,
		nullString(sub.ApproverNote), nullString(sub.ReviewedByID), reviewedAt,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("submission %s: %w", sub.ID, port.ErrDuplicate)
	}
	if err != nil {
		r.logger.Error("Failed to create submission", zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	sub, err := scanSubmission(getExecutor(ctx, r.db).QueryRowContext(ctx, submissionSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get submission by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// List returns submissions matching filter, newest first
func (r *SubmissionRepository) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.CollectorID != "" {
		where = append(where, "collector_id = ?")
		args = append(args, filter.CollectorID)
	}

	query := submissionSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []*entity.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SubmissionRepository) UpdateReview(ctx context.Context, id string, status entity.SubmissionStatus, note *string, reviewerID string, at time.Time) error {
	query := `
		UPDATE submissions
		SET status = ?, approver_note = ?, reviewed_by_id = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, nullString(note), reviewerID, at, at, id)
	if err != nil {
		r.logger.Error("Failed to update submission review", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("submission %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

var _ port.SubmissionRepository = (*SubmissionRepository)(nil)

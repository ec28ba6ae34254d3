package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// ReviewRecordRepository implements port.ReviewRecordRepository
type ReviewRecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReviewRecordRepository creates a new review history repository
func NewReviewRecordRepository(db *sql.DB, logger *zap.Logger) port.ReviewRecordRepository {
	return &ReviewRecordRepository{db: db, logger: logger}
}

func (r *ReviewRecordRepository) Create(ctx context.Context, record *entity.ReviewRecord) error {
	query := `
		INSERT INTO submission_reviews (submission_id, previous_status, new_status, note, reviewer_id, re_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.SubmissionID, record.PreviousStatus, record.NewStatus,
		nullString(record.Note), record.ReviewerID, record.ReReview, record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create review record", zap.String("submission_id", record.SubmissionID), zap.Error(err))
		return fmt.Errorf("failed to create review record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// ListBySubmission returns the history oldest first
func (r *ReviewRecordRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.ReviewRecord, error) {
	query := `
		SELECT id, submission_id, previous_status, new_status, note, reviewer_id, re_review, created_at
		FROM submission_reviews
		WHERE submission_id = ?
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list review records", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list review records: %w", err)
	}
	defer rows.Close()

	records := []*entity.ReviewRecord{}
	for rows.Next() {
		var rec entity.ReviewRecord
		var note sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SubmissionID, &rec.PreviousStatus, &rec.NewStatus,
			&note, &rec.ReviewerID, &rec.ReReview, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review record: %w", err)
		}
		rec.Note = stringPtr(note)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

var _ port.ReviewRecordRepository = (*ReviewRecordRepository)(nil)

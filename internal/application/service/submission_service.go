package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
	"github.com/garyjia/media-collect/internal/domain/workflow"
	"github.com/garyjia/media-collect/pkg/utils"
)

// NotePolicy controls whether a reviewer must explain a decision
type NotePolicy string

const (
	// NotePolicyOptional accepts any note; a blank note is stored as null
	NotePolicyOptional NotePolicy = "optional"

	// NotePolicyRequired demands a note of at least MinNoteLength characters
	NotePolicyRequired NotePolicy = "required"
)

// MinNoteLength applies under NotePolicyRequired
const MinNoteLength = 2

// IsValid reports whether the policy is known
func (p NotePolicy) IsValid() bool {
	return p == NotePolicyOptional || p == NotePolicyRequired
}

// ReviewConfig holds the review rules
type ReviewConfig struct {
	AllowReReview bool
	NotePolicy    NotePolicy
}

// IngestInput is a submission arriving from the upload pipeline
type IngestInput struct {
	TaskID      string
	CollectorID string
	UploadURL   string
}

// SubmissionService lists, reviews and exports submissions
type SubmissionService interface {
	ListSubmissions(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.ResolvedSubmission, error)
	GetSubmission(ctx context.Context, id string) (*entity.ResolvedSubmission, error)

	// Review records a decision. reviewerID is the authenticated user.
	Review(ctx context.Context, reviewerID, id string, decision entity.ReviewDecision) (*entity.ResolvedSubmission, error)

	ReviewHistory(ctx context.Context, id string) ([]*entity.ReviewRecord, error)
	IngestSubmission(ctx context.Context, in IngestInput) (*entity.Submission, error)

	// ExportSubmissions writes the filtered list as a report and returns
	// the number of rows written
	ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, w io.Writer) (int, error)
	ExportFormat() (contentType, extension string)
}

type submissionServiceImpl struct {
	submissions port.SubmissionRepository
	reviews     port.ReviewRecordRepository
	tasks       port.TaskRepository
	collectors  port.CollectorRepository
	txManager   port.TransactionManager
	exporter    port.SubmissionExporter
	loader      *query.Loader
	events      EventPublisher
	logger      Logger

	config  ReviewConfig
	machine *workflow.Builder
	resolve relationResolver
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissions port.SubmissionRepository,
	reviews port.ReviewRecordRepository,
	tasks port.TaskRepository,
	collectors port.CollectorRepository,
	txManager port.TransactionManager,
	exporter port.SubmissionExporter,
	loader *query.Loader,
	events EventPublisher,
	logger Logger,
	config ReviewConfig,
) SubmissionService {
	if !config.NotePolicy.IsValid() {
		config.NotePolicy = NotePolicyOptional
	}
	return &submissionServiceImpl{
		submissions: submissions,
		reviews:     reviews,
		tasks:       tasks,
		collectors:  collectors,
		txManager:   txManager,
		exporter:    exporter,
		loader:      loader,
		events:      events,
		logger:      logger,
		config:      config,
		machine:     workflow.NewReviewBuilder(workflow.ReviewPolicy{AllowReReview: config.AllowReReview}),
		resolve:     relationResolver{tasks: tasks, collectors: collectors},
	}
}

func validateFilter(filter entity.SubmissionFilter) error {
	if filter.Status != "" && !filter.Status.IsValid() {
		return invalid("status", "status must be one of PENDING, APPROVED, REJECTED")
	}
	return nil
}

func (s *submissionServiceImpl) ListSubmissions(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.ResolvedSubmission, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return query.Load(ctx, s.loader, query.SubmissionsKey(filter), func(ctx context.Context) ([]*entity.ResolvedSubmission, error) {
		return s.listResolved(ctx, filter)
	})
}

func (s *submissionServiceImpl) listResolved(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.ResolvedSubmission, error) {
	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return s.resolve.resolve(ctx, subs)
}

// GetSubmission returns ErrNotFound for a missing id
func (s *submissionServiceImpl) GetSubmission(ctx context.Context, id string) (*entity.ResolvedSubmission, error) {
	resolved, err := query.Load(ctx, s.loader, query.SubmissionKey(id), func(ctx context.Context) (*entity.ResolvedSubmission, error) {
		sub, err := s.submissions.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}
		if sub == nil {
			return nil, nil
		}
		return s.resolve.resolveOne(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return resolved, nil
}

// normalizeNote applies the note policy
func (s *submissionServiceImpl) normalizeNote(note *string) (*string, error) {
	trimmed := utils.TrimmedPtr(note)
	if s.config.NotePolicy == NotePolicyRequired && (trimmed == nil || len([]rune(*trimmed)) < MinNoteLength) {
		return nil, invalid("approverNote", fmt.Sprintf("a note of at least %d characters is required", MinNoteLength))
	}
	return trimmed, nil
}

// Review moves a submission to the requested status. Re-reviewing a decided
// submission is allowed unless the policy forbids it; either way it is
// recorded in the history with ReReview set.
func (s *submissionServiceImpl) Review(ctx context.Context, reviewerID, id string, decision entity.ReviewDecision) (*entity.ResolvedSubmission, error) {
	if !decision.Status.IsValid() {
		return nil, invalid("status", "status must be one of PENDING, APPROVED, REJECTED")
	}
	note, err := s.normalizeNote(decision.ApproverNote)
	if err != nil {
		return nil, err
	}
	trigger, err := workflow.TriggerFor(decision.Status)
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	var updated *entity.Submission
	var record *entity.ReviewRecord

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		sub, err := s.submissions.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get submission: %w", err)
		}
		if sub == nil {
			return fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}

		machine := s.machine.Build(workflow.State(sub.Status))
		if err := machine.Fire(ctx, trigger); err != nil {
			if errors.Is(err, workflow.ErrGuardFailed) || errors.Is(err, workflow.ErrInvalidTransition) {
				return fmt.Errorf("submission %s is %s: %w", id, sub.Status, ErrAlreadyReviewed)
			}
			return fmt.Errorf("failed to apply review: %w", err)
		}

		reReview := sub.Status.IsDecided()
		if reReview {
			s.logger.Warn("Re-reviewing a decided submission",
				"submission_id", id,
				"previous_status", sub.Status,
				"status", decision.Status,
				"reviewer_id", reviewerID,
			)
		}

		now := time.Now().UTC()
		if err := s.submissions.UpdateReview(ctx, id, decision.Status, note, reviewerID, now); err != nil {
			return err
		}

		record = &entity.ReviewRecord{
			SubmissionID:   id,
			PreviousStatus: sub.Status,
			NewStatus:      decision.Status,
			Note:           note,
			ReviewerID:     reviewerID,
			ReReview:       reReview,
			CreatedAt:      now,
		}
		if err := s.reviews.Create(ctx, record); err != nil {
			return err
		}

		reviewer := reviewerID
		sub.Status = decision.Status
		sub.ApproverNote = note
		sub.ReviewedByID = &reviewer
		sub.ReviewedAt = &now
		sub.UpdatedAt = now
		updated = sub
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyReviewed) {
			s.logger.Error("Failed to review submission", "submission_id", id, "error", err)
		}
		return nil, err
	}

	s.logger.Info("Submission reviewed",
		"submission_id", id,
		"previous_status", record.PreviousStatus,
		"status", record.NewStatus,
		"reviewer_id", reviewerID,
	)

	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeSubmissionReviewed, id, reviewerID, map[string]interface{}{
		event.KeyStatus:         string(record.NewStatus),
		event.KeyPreviousStatus: string(record.PreviousStatus),
		event.KeyNote:           note,
		event.KeyReReview:       record.ReReview,
		event.KeyTaskID:         updated.TaskID,
		event.KeyCollectorID:    updated.CollectorID,
	}))

	return s.resolve.resolveOne(ctx, updated)
}

func (s *submissionServiceImpl) ReviewHistory(ctx context.Context, id string) ([]*entity.ReviewRecord, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}

	records, err := s.reviews.ListBySubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list review history: %w", err)
	}
	return records, nil
}

// IngestSubmission stores a new PENDING submission. Both references must exist.
func (s *submissionServiceImpl) IngestSubmission(ctx context.Context, in IngestInput) (*entity.Submission, error) {
	now := time.Now().UTC()
	sub := &entity.Submission{
		ID:          uuid.NewString(),
		TaskID:      strings.TrimSpace(in.TaskID),
		CollectorID: strings.TrimSpace(in.CollectorID),
		UploadURL:   strings.TrimSpace(in.UploadURL),
		Status:      entity.SubmissionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var errs ValidationErrors
	if err := utils.ValidateUploadURL(sub.UploadURL); err != nil {
		errs.Add("uploadUrl", "upload url must be an absolute http or https url")
	}
	task, err := s.tasks.GetByID(ctx, sub.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		errs.Add("taskId", "unknown task")
	}
	collector, err := s.collectors.GetByID(ctx, sub.CollectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collector: %w", err)
	}
	if collector == nil {
		errs.Add("collectorId", "unknown collector")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		s.logger.Error("Failed to ingest submission", "task_id", sub.TaskID, "collector_id", sub.CollectorID, "error", err)
		return nil, fmt.Errorf("failed to ingest submission: %w", err)
	}

	s.loader.Invalidate(ctx, query.KeySubmissions, query.KeyTasks, query.KeyCollectors)
	s.logger.Info("Submission ingested", "submission_id", sub.ID, "task_id", sub.TaskID, "collector_id", sub.CollectorID)
	return sub, nil
}

func (s *submissionServiceImpl) ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, w io.Writer) (int, error) {
	if s.exporter == nil {
		return 0, errors.New("submission export is not configured")
	}
	if err := validateFilter(filter); err != nil {
		return 0, err
	}

	rows, err := s.listResolved(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := s.exporter.Write(ctx, w, rows); err != nil {
		s.logger.Error("Failed to export submissions", "rows", len(rows), "error", err)
		return 0, fmt.Errorf("failed to export submissions: %w", err)
	}

	s.logger.Info("Submissions exported", "rows", len(rows))
	return len(rows), nil
}

func (s *submissionServiceImpl) ExportFormat() (string, string) {
	if s.exporter == nil {
		return "", ""
	}
	return s.exporter.ContentType(), s.exporter.FileExtension()
}

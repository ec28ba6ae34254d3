package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
)

type submissionFixture struct {
	subs      *mockSubmissionRepo
	reviews   *mockReviewRepo
	tasks     *mockTaskRepo
	collector *mockCollectorRepo
	tx        *mockTxManager
	exporter  *mockExporter
	events    *mockPublisher
	logger    *mockLogger

	stored  map[string]*entity.Submission
	records []*entity.ReviewRecord
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		stored: map[string]*entity.Submission{
			"sub-1": {ID: "sub-1", TaskID: "task-1", CollectorID: "cl-001", UploadURL: "https://cdn.example.com/1.jpg", Status: entity.SubmissionStatusPending},
			"sub-2": {ID: "sub-2", TaskID: "task-404", CollectorID: "cl-404", UploadURL: "https://cdn.example.com/2.jpg", Status: entity.SubmissionStatusApproved},
		},
		tx:       &mockTxManager{},
		exporter: &mockExporter{},
		events:   &mockPublisher{},
		logger:   &mockLogger{},
	}

	f.subs = &mockSubmissionRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Submission, error) {
			if s, ok := f.stored[id]; ok {
				cp := *s
				return &cp, nil
			}
			return nil, nil
		},
		listFunc: func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
			var out []*entity.Submission
			for _, id := range []string{"sub-1", "sub-2"} {
				s := f.stored[id]
				if filter.Status != "" && s.Status != filter.Status {
					continue
				}
				out = append(out, s)
			}
			return out, nil
		},
		updateReviewFunc: func(ctx context.Context, id string, status entity.SubmissionStatus, note *string, reviewerID string, at time.Time) error {
			s := f.stored[id]
			s.Status = status
			s.ApproverNote = note
			s.ReviewedByID = &reviewerID
			s.ReviewedAt = &at
			return nil
		},
	}
	f.reviews = &mockReviewRepo{
		createFunc: func(ctx context.Context, record *entity.ReviewRecord) error {
			f.records = append(f.records, record)
			return nil
		},
	}
	f.tasks = &mockTaskRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) {
			if id == "task-1" {
				return &entity.Task{ID: "task-1", Title: "Street Sign Collection", MediaType: entity.MediaTypeImage}, nil
			}
			return nil, nil
		},
		getByIDsFunc: func(ctx context.Context, ids []string) (map[string]*entity.Task, error) {
			out := map[string]*entity.Task{}
			for _, id := range ids {
				if id == "task-1" {
					out[id] = &entity.Task{ID: "task-1", Title: "Street Sign Collection", MediaType: entity.MediaTypeImage}
				}
			}
			return out, nil
		},
	}
	f.collector = &mockCollectorRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Collector, error) {
			if id == "cl-001" {
				return &entity.Collector{ID: "cl-001", Name: "Abebe Kebede"}, nil
			}
			return nil, nil
		},
		getByIDsFunc: func(ctx context.Context, ids []string) (map[string]*entity.Collector, error) {
			out := map[string]*entity.Collector{}
			for _, id := range ids {
				if id == "cl-001" {
					out[id] = &entity.Collector{ID: "cl-001", Name: "Abebe Kebede"}
				}
			}
			return out, nil
		},
	}
	return f
}

func (f *submissionFixture) service(cfg ReviewConfig) SubmissionService {
	return NewSubmissionService(f.subs, f.reviews, f.tasks, f.collector, f.tx, f.exporter, nil, f.events, f.logger, cfg)
}

func TestSubmissionService_ListResolvesPlaceholders(t *testing.T) {
	f := newSubmissionFixture()
	svc := f.service(ReviewConfig{})

	got, err := svc.ListSubmissions(context.Background(), entity.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, entity.SubmissionTaskRef{Title: "Street Sign Collection", MediaType: entity.MediaTypeImage}, got[0].Task)
	assert.Equal(t, "Abebe Kebede", got[0].Collector.Name)

	assert.Equal(t, entity.SubmissionTaskRef{Title: entity.UnknownSubmissionTask, MediaType: entity.MediaTypeUnknown}, got[1].Task)
	assert.Equal(t, entity.UnknownCollectorName, got[1].Collector.Name)
}

func TestSubmissionService_ListRejectsUnknownStatus(t *testing.T) {
	svc := newSubmissionFixture().service(ReviewConfig{})

	_, err := svc.ListSubmissions(context.Background(), entity.SubmissionFilter{Status: "DONE"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldsOf(err), "status")
}

func TestSubmissionService_GetSubmission(t *testing.T) {
	svc := newSubmissionFixture().service(ReviewConfig{})

	got, err := svc.GetSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Street Sign Collection", got.Task.Title)

	_, err = svc.GetSubmission(context.Background(), "sub-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionService_Review(t *testing.T) {
	tests := []struct {
		name       string
		cfg        ReviewConfig
		id         string
		decision   entity.ReviewDecision
		wantErr    error
		wantStatus entity.SubmissionStatus
		wantNote   *string
		wantReRev  bool
	}{
		{
			name:       "approve pending without note",
			id:         "sub-1",
			decision:   entity.ReviewDecision{Status: entity.SubmissionStatusApproved},
			wantStatus: entity.SubmissionStatusApproved,
		},
		{
			name:       "reject pending with trimmed note",
			id:         "sub-1",
			decision:   entity.ReviewDecision{Status: entity.SubmissionStatusRejected, ApproverNote: strPtr("  Blurry image  ")},
			wantStatus: entity.SubmissionStatusRejected,
			wantNote:   strPtr("Blurry image"),
		},
		{
			name:       "blank note becomes null",
			id:         "sub-1",
			decision:   entity.ReviewDecision{Status: entity.SubmissionStatusApproved, ApproverNote: strPtr("   ")},
			wantStatus: entity.SubmissionStatusApproved,
		},
		{
			name:       "re-review allowed by default",
			cfg:        ReviewConfig{AllowReReview: true},
			id:         "sub-2",
			decision:   entity.ReviewDecision{Status: entity.SubmissionStatusRejected},
			wantStatus: entity.SubmissionStatusRejected,
			wantReRev:  true,
		},
		{
			name:     "re-review refused by policy",
			cfg:      ReviewConfig{AllowReReview: false},
			id:       "sub-2",
			decision: entity.ReviewDecision{Status: entity.SubmissionStatusRejected},
			wantErr:  ErrAlreadyReviewed,
		},
		{
			name:     "unknown status",
			id:       "sub-1",
			decision: entity.ReviewDecision{Status: "DONE"},
			wantErr:  ErrValidation,
		},
		{
			name:     "missing submission",
			id:       "sub-999",
			decision: entity.ReviewDecision{Status: entity.SubmissionStatusApproved},
			wantErr:  ErrNotFound,
		},
		{
			name:     "required note missing",
			cfg:      ReviewConfig{NotePolicy: NotePolicyRequired},
			id:       "sub-1",
			decision: entity.ReviewDecision{Status: entity.SubmissionStatusRejected, ApproverNote: strPtr(" x ")},
			wantErr:  ErrValidation,
		},
		{
			name:       "required note present",
			cfg:        ReviewConfig{NotePolicy: NotePolicyRequired},
			id:         "sub-1",
			decision:   entity.ReviewDecision{Status: entity.SubmissionStatusRejected, ApproverNote: strPtr("ok")},
			wantStatus: entity.SubmissionStatusRejected,
			wantNote:   strPtr("ok"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture()
			svc := f.service(tt.cfg)

			got, err := svc.Review(context.Background(), "user-1", tt.id, tt.decision)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.records, "no history on failure")
				assert.Empty(t, f.events.Types(), "no event on failure")
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantNote, got.ApproverNote)
			require.NotNil(t, got.ReviewedByID)
			assert.Equal(t, "user-1", *got.ReviewedByID)
			assert.NotNil(t, got.ReviewedAt)

			require.Len(t, f.records, 1)
			assert.Equal(t, tt.wantReRev, f.records[0].ReReview)
			assert.Equal(t, tt.wantStatus, f.records[0].NewStatus)

			assert.Equal(t, []event.Type{event.TypeSubmissionReviewed}, f.events.Types())
			evt := f.events.events[0]
			assert.Equal(t, string(tt.wantStatus), evt.GetPayloadString(event.KeyStatus))
			assert.Equal(t, tt.wantReRev, evt.GetPayloadBool(event.KeyReReview))

			assert.Equal(t, tt.wantReRev, f.logger.Warned("Re-reviewing a decided submission"))
		})
	}
}

func TestSubmissionService_ReviewKeepsRelations(t *testing.T) {
	f := newSubmissionFixture()
	svc := f.service(ReviewConfig{AllowReReview: true})

	got, err := svc.Review(context.Background(), "user-1", "sub-2", entity.ReviewDecision{Status: entity.SubmissionStatusPending})
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusPending, got.Status)
	assert.Equal(t, entity.UnknownSubmissionTask, got.Task.Title)
	assert.Equal(t, entity.UnknownCollectorName, got.Collector.Name)
}

func TestSubmissionService_ReviewRollsBackOnHistoryFailure(t *testing.T) {
	f := newSubmissionFixture()
	f.reviews.createFunc = func(ctx context.Context, record *entity.ReviewRecord) error {
		return errors.New("disk full")
	}
	svc := f.service(ReviewConfig{})

	_, err := svc.Review(context.Background(), "user-1", "sub-1", entity.ReviewDecision{Status: entity.SubmissionStatusApproved})
	require.Error(t, err)
	assert.Empty(t, f.events.Types())
}

func TestSubmissionService_ReviewSurvivesHandlerFailure(t *testing.T) {
	f := newSubmissionFixture()
	f.events.err = errors.New("cache down")
	svc := f.service(ReviewConfig{})

	got, err := svc.Review(context.Background(), "user-1", "sub-1", entity.ReviewDecision{Status: entity.SubmissionStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusApproved, got.Status)
	assert.True(t, f.logger.Warned("Event handlers failed"))
}

func TestSubmissionService_ReviewHistory(t *testing.T) {
	f := newSubmissionFixture()
	f.reviews.listFunc = func(ctx context.Context, submissionID string) ([]*entity.ReviewRecord, error) {
		return []*entity.ReviewRecord{{ID: 1, SubmissionID: submissionID}}, nil
	}
	svc := f.service(ReviewConfig{})

	records, err := svc.ReviewHistory(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = svc.ReviewHistory(context.Background(), "sub-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionService_Ingest(t *testing.T) {
	t.Run("stores a pending submission", func(t *testing.T) {
		f := newSubmissionFixture()
		var created *entity.Submission
		f.subs.createFunc = func(ctx context.Context, sub *entity.Submission) error {
			created = sub
			return nil
		}
		svc := f.service(ReviewConfig{})

		got, err := svc.IngestSubmission(context.Background(), IngestInput{
			TaskID: "task-1", CollectorID: "cl-001", UploadURL: " https://cdn.example.com/new.jpg ",
		})
		require.NoError(t, err)
		assert.Same(t, created, got)
		assert.Equal(t, entity.SubmissionStatusPending, got.Status)
		assert.Equal(t, "https://cdn.example.com/new.jpg", got.UploadURL)
		assert.NotEmpty(t, got.ID)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		svc := newSubmissionFixture().service(ReviewConfig{})

		_, err := svc.IngestSubmission(context.Background(), IngestInput{
			TaskID: "task-404", CollectorID: "cl-404", UploadURL: "ftp://files/x",
		})
		require.ErrorIs(t, err, ErrValidation)
		fields := FieldsOf(err)
		assert.Contains(t, fields, "taskId")
		assert.Contains(t, fields, "collectorId")
		assert.Contains(t, fields, "uploadUrl")
	})
}

func TestSubmissionService_Export(t *testing.T) {
	f := newSubmissionFixture()
	svc := f.service(ReviewConfig{})

	var buf bytes.Buffer
	n, err := svc.ExportSubmissions(context.Background(), entity.SubmissionFilter{Status: entity.SubmissionStatusApproved}, &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, "report", buf.String())
	require.Len(t, f.exporter.rows, 1)
	assert.Equal(t, "sub-2", f.exporter.rows[0].ID)

	ct, ext := svc.ExportFormat()
	assert.Equal(t, "text/csv", ct)
	assert.Equal(t, ".csv", ext)
}

func TestNotePolicy_IsValid(t *testing.T) {
	assert.True(t, NotePolicyOptional.IsValid())
	assert.True(t, NotePolicyRequired.IsValid())
	assert.False(t, NotePolicy("strict").IsValid())
}

package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

func TestXLSXExporter_Write(t *testing.T) {
	note := "Blurry"
	reviewer := "user-1"
	reviewedAt := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	rows := []*entity.ResolvedSubmission{
		{
			Submission: entity.Submission{
				ID: "sub-1", UploadURL: "https://cdn.example.com/1.jpg", Status: entity.SubmissionStatusRejected,
				ApproverNote: &note, ReviewedByID: &reviewer, ReviewedAt: &reviewedAt,
				CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			},
			Task:      entity.SubmissionTaskRef{Title: "Street Sign Collection", MediaType: entity.MediaTypeImage},
			Collector: entity.SubmissionCollectorRef{Name: "Abebe"},
		},
		{
			Submission: entity.Submission{ID: "sub-2", Status: entity.SubmissionStatusPending, CreatedAt: time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)},
			Task:       entity.SubmissionTaskRef{Title: entity.UnknownSubmissionTask, MediaType: entity.MediaTypeUnknown},
			Collector:  entity.SubmissionCollectorRef{Name: entity.UnknownCollectorName},
		},
	}

	exp := NewXLSXExporter("", nil, zap.NewNop())
	var buf bytes.Buffer
	require.NoError(t, exp.Write(context.Background(), &buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())

	got, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, []string{
		"sub-1", "Street Sign Collection", "IMAGE", "Abebe", "https://cdn.example.com/1.jpg",
		"REJECTED", "Blurry", "user-1", "2026-03-02 10:30", "2026-03-01 09:00",
	}, got[1])
	assert.Equal(t, "UNKNOWN", got[2][2])
	assert.Equal(t, entity.UnknownCollectorName, got[2][3])
}

func TestXLSXExporter_EmptyReport(t *testing.T) {
	exp := NewXLSXExporter("Report", time.UTC, zap.NewNop())
	var buf bytes.Buffer
	require.NoError(t, exp.Write(context.Background(), &buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, ".xlsx", exp.FileExtension())
}

func TestXLSXExporter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exp := NewXLSXExporter("", nil, zap.NewNop())
	err := exp.Write(ctx, &bytes.Buffer{}, []*entity.ResolvedSubmission{{}})
	assert.ErrorIs(t, err, context.Canceled)
}

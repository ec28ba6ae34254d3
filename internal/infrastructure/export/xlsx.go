package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// DefaultSheetName is used when no sheet name is configured
const DefaultSheetName = "Submissions"

const timeLayout = "2006-01-02 15:04"

var headers = []string{
	"Submission ID", "Task", "Media Type", "Collector", "Upload URL",
	"Status", "Approver Note", "Reviewed By", "Reviewed At", "Submitted At",
}

var columnWidths = map[string]float64{
	"A": 38, "B": 32, "C": 12, "D": 24, "E": 48,
	"F": 12, "G": 40, "H": 38, "I": 18, "J": 18,
}

// XLSXExporter writes submission reports as Excel workbooks
type XLSXExporter struct {
	sheetName string
	location  *time.Location
	logger    *zap.Logger
}

// NewXLSXExporter creates an exporter. Timestamps are rendered in loc
// (UTC when nil).
func NewXLSXExporter(sheetName string, loc *time.Location, logger *zap.Logger) *XLSXExporter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if loc == nil {
		loc = time.UTC
	}
	return &XLSXExporter{
		sheetName: sheetName,
		location:  loc,
		logger:    logger,
	}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// Write renders rows into a single-sheet workbook
func (e *XLSXExporter) Write(ctx context.Context, w io.Writer, rows []*entity.ResolvedSubmission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), e.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(e.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(e.sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := e.row(r)
		if err := f.SetSheetRow(e.sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	for col, width := range columnWidths {
		e.setWidth(f, col, width)
	}
	if err := f.SetPanes(e.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		e.logger.Warn("Failed to freeze header row", zap.Error(err))
	}
	if len(rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
		if err := f.AutoFilter(e.sheetName, ref, nil); err != nil {
			e.logger.Warn("Failed to add auto filter", zap.String("range", ref), zap.Error(err))
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *XLSXExporter) row(r *entity.ResolvedSubmission) []interface{} {
	return []interface{}{
		r.ID,
		r.Task.Title,
		string(r.Task.MediaType),
		r.Collector.Name,
		r.UploadURL,
		string(r.Status),
		deref(r.ApproverNote),
		deref(r.ReviewedByID),
		e.formatTime(r.ReviewedAt),
		r.CreatedAt.In(e.location).Format(timeLayout),
	}
}

func (e *XLSXExporter) formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(e.location).Format(timeLayout)
}

// setWidth sets a column width in the Excel file
func (e *XLSXExporter) setWidth(f *excelize.File, col string, width float64) {
	if err := f.SetColWidth(e.sheetName, col, col, width); err != nil {
		e.logger.Warn("Failed to set column width",
			zap.String("column", col),
			zap.Error(err))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ port.SubmissionExporter = (*XLSXExporter)(nil)

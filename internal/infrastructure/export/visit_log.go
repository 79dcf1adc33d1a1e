package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

const (
	sheetName  = "Visits"
	timeLayout = "2006-01-02 15:04"
)

var visitLogHeaders = []string{
	"Name", "Company", "Host", "Purpose", "Status",
	"Check-in", "Check-out", "Approved by", "Rejection reason",
}

// VisitLogExporter writes visit records as an xlsx workbook
type VisitLogExporter struct {
	location *time.Location
	logger   *zap.Logger
}

// NewVisitLogExporter creates an exporter rendering times in loc (UTC when nil)
func NewVisitLogExporter(loc *time.Location, logger *zap.Logger) port.VisitExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &VisitLogExporter{location: loc, logger: logger}
}

// ContentType returns the xlsx MIME type
func (e *VisitLogExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns ".xlsx"
func (e *VisitLogExporter) FileExtension() string {
	return ".xlsx"
}

// Export writes one header row and one row per visit
func (e *VisitLogExporter) Export(ctx context.Context, w io.Writer, visits []*entity.VisitRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(visitLogHeaders))
	for i, h := range visitLogHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, v := range visits {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			v.Name,
			v.Company,
			v.Host,
			v.Purpose,
			v.Status,
			e.formatTime(v.CheckInTime),
			e.formatTime(v.CheckOutTime),
			v.ApprovedBy,
			v.RejectionReason,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write visit %s: %w", v.ID, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		e.logger.Warn("Failed to freeze header row", zap.Error(err))
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Visit log exported", zap.Int("rows", len(visits)))
	return nil
}

func (e *VisitLogExporter) formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(e.location).Format(timeLayout)
}

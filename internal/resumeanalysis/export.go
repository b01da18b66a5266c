package resumeanalysis

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"resume-analyzer/internal/scoring"
	"resume-analyzer/internal/shared/telemetry"
)

const historySheet = "History"

// ExportHistory renders an owner's analyses as an XLSX workbook, newest first.
func (s *Service) ExportHistory(ctx context.Context, ownerID string) ([]byte, error) {
	recs, err := s.Repo.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return nil, err
	}

	headers := []string{"ID", "Created", "Filename", "Overall"}
	for _, d := range scoring.Dimensions {
		headers = append(headers, string(d))
	}
	headers = append(headers, "Method", "Summary")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	for i, rec := range recs {
		row := i + 2
		scores := rec.Scores.Complete()
		values := []any{rec.ID, rec.CreatedAt.UTC().Format("2006-01-02 15:04"), rec.Filename, rec.OverallScore}
		for _, d := range scoring.Dimensions {
			values = append(values, scores[d])
		}
		method, _ := rec.Details["analysisMethod"].(string)
		summary, _ := rec.Details["summary"].(string)
		values = append(values, method, summary)

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(historySheet, cell, v)
		}
	}

	_ = f.SetColWidth(historySheet, "B", "B", 18)
	_ = f.SetColWidth(historySheet, "C", "C", 32)
	_ = f.SetColWidth(historySheet, "N", "N", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	telemetry.Info("analysis.export", map[string]any{"rows": len(recs)})
	return buf.Bytes(), nil
}

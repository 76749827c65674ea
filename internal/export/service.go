package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
	"github.com/joseph-ayodele/attest-tracker/internal/query"
	"github.com/joseph-ayodele/attest-tracker/internal/repository"
)

const (
	documentsSheet = "Documents"
	lineItemsSheet = "LineItems"
)

// Service produces XLSX bytes for the documents valid during a date range.
type Service struct {
	queries *query.Service
	docs    repository.DocumentRepository
	logger  *slog.Logger
}

func NewService(queries *query.Service, docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queries: queries, docs: docs, logger: logger}
}

// ExportOverlappingXLSX returns a workbook with one row per overlapping document
// on the first sheet and their line items on the second.
func (s *Service) ExportOverlappingXLSX(ctx context.Context, from, to entity.Date) ([]byte, error) {
	start := time.Now()

	res, err := s.queries.Run(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default workbook carries "Sheet1"; rename it instead of leaving an empty tab
	if err := f.SetSheetName(f.GetSheetName(0), documentsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	writeRow(f, documentsSheet, 1, "Document ID", "Source", "Start Date", "End Date", "Fingerprint", "Created At")
	writeRow(f, lineItemsSheet, 1, "Document ID", "Source", "Position", "Code", "Description", "Unit", "Quantity", "Literal")

	itemRow := 2
	for i, d := range res.Documents {
		writeRow(f, documentsSheet, i+2,
			d.ID.String(),
			d.SourceName,
			dateCell(d.StartDate),
			dateCell(d.EndDate),
			d.FingerprintHex(),
			d.CreatedAt.UTC().Format(time.RFC3339),
		)

		items, err := s.docs.ListLineItems(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("list line items: %w", err)
		}
		for _, it := range items {
			writeRow(f, lineItemsSheet, itemRow,
				d.ID.String(),
				d.SourceName,
				it.Position,
				it.Code,
				truncate(it.Description, 140),
				it.Unit,
				it.Quantity.Float64(),
				it.Quantity.Literal,
			)
			itemRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(documentsSheet, "A", "A", 38) // id
	_ = f.SetColWidth(documentsSheet, "B", "B", 32) // source
	_ = f.SetColWidth(documentsSheet, "C", "D", 12) // dates
	_ = f.SetColWidth(documentsSheet, "E", "E", 66) // fingerprint
	_ = f.SetColWidth(documentsSheet, "F", "F", 22)
	_ = f.SetColWidth(lineItemsSheet, "A", "B", 32)
	_ = f.SetColWidth(lineItemsSheet, "E", "E", 48) // description

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"from", res.Range.Start.String(),
		"to", res.Range.End.String(),
		"documents", len(res.Documents),
		"line_items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func dateCell(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

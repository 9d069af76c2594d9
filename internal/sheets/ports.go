package sheets

import (
	"context"

	"kantong/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a month summary to an external spreadsheet.
	ReportExporter interface {
		// ExportMonth writes the summary and returns the written range.
		ExportMonth(ctx context.Context, summary core.MonthSummary) (rangeRef string, err error)
	}
)

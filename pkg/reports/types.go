package reports

import (
	"context"
	"io"

	"github.com/rmax-ai/mdstval/pkg/harness"
)

type ReportType string

const (
	ReportTypeAccuracy ReportType = "accuracy"
	ReportTypeSummary  ReportType = "summary"
	ReportTypeChart    ReportType = "chart"
)

type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
	ReportFormatText ReportFormat = "text"
)

type ReportParams struct {
	Result *harness.RunResult
	// Format selects the summary encoding; other reports have a fixed format.
	Format ReportFormat
	// Width is the chart's bar width in cells.
	Width int
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}

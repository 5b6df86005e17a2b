package reports

import (
	"fmt"
)

// NewReportGenerator creates a report generator based on the report type.
func NewReportGenerator(reportType ReportType) (Generator, error) {
	switch reportType {
	case ReportTypeAccuracy:
		return NewAccuracyReport(), nil
	case ReportTypeSummary:
		return NewSummaryReport(), nil
	case ReportTypeChart:
		return NewChartReport(), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}

// FileName is the artifact name of a report.
func FileName(reportType ReportType, format ReportFormat) string {
	switch reportType {
	case ReportTypeAccuracy:
		return "accuracy.csv"
	case ReportTypeChart:
		return "accuracy_plot.txt"
	default:
		switch format {
		case ReportFormatJSON:
			return "summary.json"
		case ReportFormatYAML:
			return "summary.yaml"
		default:
			return "summary.txt"
		}
	}
}

package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChartTitle heads the accuracy bar chart.
const ChartTitle = "Solver accuracy on tests"

const defaultBarWidth = 40

var (
	chartTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	chartLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	chartBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	chartGapStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	chartFrameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// ChartReport draws group accuracy as horizontal bars.
type ChartReport struct{}

// NewChartReport creates a new ChartReport generator.
func NewChartReport() *ChartReport {
	return &ChartReport{}
}

// Generate implements Generator.
func (r *ChartReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	if params.Result == nil || params.Result.Accuracy == nil {
		return nil, fmt.Errorf("chart report needs a run result")
	}
	var entries []AccuracyEntry
	for pair := params.Result.Accuracy.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, AccuracyEntry{Group: pair.Key, Ratio: pair.Value})
	}
	return bytes.NewBufferString(RenderChart(entries, params.Width) + "\n"), nil
}

// RenderChart draws one bar per entry. Ratios are clamped to [0,1].
func RenderChart(entries []AccuracyEntry, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	labelWidth := 0
	for _, e := range entries {
		if w := lipgloss.Width(e.Group); w > labelWidth {
			labelWidth = w
		}
	}

	rows := []string{chartTitleStyle.Render(ChartTitle)}
	if len(entries) == 0 {
		rows = append(rows, chartLabelStyle.Render("no groups reported"))
	}
	for _, e := range entries {
		ratio := e.Ratio
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		filled := int(ratio*float64(width) + 0.5)
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			chartLabelStyle.Width(labelWidth+2).Render(e.Group),
			chartBarStyle.Render(strings.Repeat("█", filled)),
			chartGapStyle.Render(strings.Repeat("░", width-filled)),
			fmt.Sprintf(" %.3f", e.Ratio),
		)
		rows = append(rows, row)
	}
	return chartFrameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rmax-ai/mdstval/pkg/harness"
)

// AccuracyReport writes one CSV row per reported group, in corpus order.
type AccuracyReport struct{}

// NewAccuracyReport creates a new AccuracyReport generator.
func NewAccuracyReport() *AccuracyReport {
	return &AccuracyReport{}
}

// Generate implements Generator.
func (r *AccuracyReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	if params.Result == nil {
		return nil, fmt.Errorf("accuracy report needs a run result")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"group", "exact", "approximate", "total", "accuracy"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	stats := statsByName(params.Result)
	for pair := params.Result.Accuracy.Oldest(); pair != nil; pair = pair.Next() {
		st := stats[pair.Key]
		row := []string{
			pair.Key,
			strconv.Itoa(st.Exact),
			strconv.Itoa(st.Approximate),
			strconv.Itoa(st.Total),
			strconv.FormatFloat(pair.Value, 'f', 3, 64),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}

func statsByName(res *harness.RunResult) map[string]harness.GroupStats {
	m := make(map[string]harness.GroupStats, len(res.Groups))
	for _, g := range res.Groups {
		m[g.Name] = g.Stats
	}
	return m
}

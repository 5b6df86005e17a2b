package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/rmax-ai/mdstval/pkg/artifacts"
	"github.com/rmax-ai/mdstval/pkg/harness"
)

// Summary is the serialized outcome of a successful run.
type Summary struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Started    time.Time       `json:"started" yaml:"started"`
	DurationS  float64         `json:"duration_seconds" yaml:"duration_seconds"`
	TotalCases int             `json:"total_cases" yaml:"total_cases"`
	Groups     []GroupSummary  `json:"groups" yaml:"groups"`
	Accuracy   []AccuracyEntry `json:"accuracy" yaml:"accuracy"`
}

type GroupSummary struct {
	Name        string `json:"name" yaml:"name"`
	Exact       int    `json:"exact" yaml:"exact"`
	Approximate int    `json:"approximate" yaml:"approximate"`
	Total       int    `json:"total" yaml:"total"`
	Excluded    bool   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// AccuracyEntry keeps the reported ratios ordered in every encoding.
type AccuracyEntry struct {
	Group string  `json:"group" yaml:"group"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// NewSummary flattens a run result.
func NewSummary(res *harness.RunResult) Summary {
	s := Summary{
		RunID:      res.RunID,
		Started:    res.Started.UTC(),
		DurationS:  res.Duration.Seconds(),
		TotalCases: res.TotalCases(),
	}
	for _, g := range res.Groups {
		s.Groups = append(s.Groups, GroupSummary{
			Name:        g.Name,
			Exact:       g.Stats.Exact,
			Approximate: g.Stats.Approximate,
			Total:       g.Stats.Total,
			Excluded:    g.Excluded,
		})
	}
	if res.Accuracy != nil {
		for pair := res.Accuracy.Oldest(); pair != nil; pair = pair.Next() {
			s.Accuracy = append(s.Accuracy, AccuracyEntry{Group: pair.Key, Ratio: pair.Value})
		}
	}
	return s
}

// LoadSummary reads a summary written in JSON or YAML, chosen by extension.
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unsupported summary file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &s, nil
}

// SummaryReport renders the run summary as JSON, YAML or plain text.
type SummaryReport struct{}

// NewSummaryReport creates a new SummaryReport generator.
func NewSummaryReport() *SummaryReport {
	return &SummaryReport{}
}

// Generate implements Generator.
func (r *SummaryReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	if params.Result == nil {
		return nil, fmt.Errorf("summary report needs a run result")
	}
	s := NewSummary(params.Result)
	buf := &bytes.Buffer{}

	switch params.Format {
	case ReportFormatJSON:
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode summary: %w", err)
		}
	case ReportFormatYAML:
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, fmt.Errorf("failed to encode summary: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode summary: %w", err)
		}
	case ReportFormatText, "":
		writeText(buf, s)
	default:
		return nil, fmt.Errorf("unsupported summary format: %s", params.Format)
	}
	return buf, nil
}

func writeText(buf *bytes.Buffer, s Summary) {
	fmt.Fprintf(buf, "\n--- Validation Report: %s ---\n", s.RunID)
	fmt.Fprintf(buf, "Duration: %.3fs | Cases: %d\n", s.DurationS, s.TotalCases)
	buf.WriteString("\nGroups:\n")
	for _, g := range s.Groups {
		note := ""
		if g.Excluded {
			note = " (excluded)"
		}
		fmt.Fprintf(buf, "  %s: exact %d, approximate %d, total %d%s\n", g.Name, g.Exact, g.Approximate, g.Total, note)
	}
	buf.WriteString("\nAccuracy:\n")
	for _, a := range s.Accuracy {
		fmt.Fprintf(buf, "  %s: %.3f\n", a.Group, a.Ratio)
	}
}

// ResolveSummary accepts a summary file or an artifact root. For a root, the summary of the
// newest run is returned; run ids sort by creation time.
func ResolveSummary(ctx context.Context, source string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return source, nil
	}
	store, err := artifacts.Open(source)
	if err != nil {
		return "", err
	}
	keys, err := store.List(ctx, "")
	if err != nil {
		return "", err
	}
	var latest string
	for _, key := range keys {
		ok, err := doublestar.Match("*/summary.{json,yaml,yml}", key)
		if err != nil {
			return "", err
		}
		if ok && key > latest {
			latest = key
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no summary under %s", source)
	}
	return store.Path(latest), nil
}

package harness

import (
	"fmt"
	"math"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

// Stage is a step of a validation run. Stages only move forward.
type Stage int

const (
	StageIdle Stage = iota
	StageCleanEnvironment
	StageBuildBinaries
	StageGenerateCorpus
	StageRunGroups
	StageReportAggregate
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCleanEnvironment:
		return "clean_environment"
	case StageBuildBinaries:
		return "build_binaries"
	case StageGenerateCorpus:
		return "generate_corpus"
	case StageRunGroups:
		return "run_groups"
	case StageReportAggregate:
		return "report_aggregate"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// GroupStats counts verdicts for one group. Passed is Exact + Approximate.
type GroupStats struct {
	Passed      int `json:"passed" yaml:"passed"`
	Exact       int `json:"exact" yaml:"exact"`
	Approximate int `json:"approximate" yaml:"approximate"`
	Total       int `json:"total" yaml:"total"`
}

// Accuracy is the share of exact verdicts, rounded to three decimals. An empty group scores 1.
func (s GroupStats) Accuracy() float64 {
	if s.Total == 0 {
		return 1
	}
	return math.Round(float64(s.Exact)/float64(s.Total)*1000) / 1000
}

// GroupResult is the outcome of one fully executed group.
type GroupResult struct {
	Name     string     `json:"name" yaml:"name"`
	Stats    GroupStats `json:"stats" yaml:"stats"`
	Excluded bool       `json:"excluded" yaml:"excluded"`
}

// RunResult is produced only by a run in which every case passed.
type RunResult struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Groups   []GroupResult `json:"groups" yaml:"groups"`
	// Accuracy holds the reported groups in corpus order.
	Accuracy *orderedmap.OrderedMap[string, float64] `json:"-" yaml:"-"`
}

// TotalCases sums the cases of every group, excluded ones included.
func (r *RunResult) TotalCases() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Stats.Total
	}
	return n
}

// CaseFailure is the first fatal condition of a run. Case is the exact failing input.
type CaseFailure struct {
	Group string
	Index int
	Case  graph.TestCase
	Err   error
}

func (e *CaseFailure) Error() string {
	return fmt.Sprintf("group %q test #%d: %v", e.Group, e.Index, e.Err)
}

func (e *CaseFailure) Unwrap() error {
	return e.Err
}

// Package harness drives a validation run: clean, build, compose, execute, aggregate.
package harness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/rmax-ai/mdstval/pkg/compose"
	"github.com/rmax-ai/mdstval/pkg/config"
	"github.com/rmax-ai/mdstval/pkg/graph"
	"github.com/rmax-ai/mdstval/pkg/metrics"
	"github.com/rmax-ai/mdstval/pkg/runner"
	"github.com/rmax-ai/mdstval/pkg/validate"
)

// Builder acquires the binaries under test.
type Builder interface {
	Clean()
	Build(ctx context.Context) error
}

// Composer turns group configurations into a corpus.
type Composer interface {
	Compose(groups []config.Group) (*compose.Corpus, error)
}

// Deps are the collaborators of an Orchestrator. Builder may be nil when settings skip the build.
type Deps struct {
	Builder  Builder
	Composer Composer
	Solver   runner.Executable
	Checker  runner.Executable
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	// Out receives the user-facing progress and failure lines.
	Out io.Writer
}

// Orchestrator runs every case of a corpus against both binaries and stops at the first failure.
type Orchestrator struct {
	settings *config.Settings
	deps     Deps
	log      *zap.Logger
	stage    Stage
}

// New returns an Orchestrator. Missing Logger and Out default to no-ops.
func New(settings *config.Settings, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Orchestrator{settings: settings, deps: deps, log: deps.Logger}
}

// Stage reports the last stage entered.
func (o *Orchestrator) Stage() Stage {
	return o.stage
}

func (o *Orchestrator) enter(s Stage) {
	o.log.Info("stage", zap.Stringer("from", o.stage), zap.Stringer("to", s))
	o.stage = s
}

// Run executes every stage. The result is nil whenever err is non-nil.
func (o *Orchestrator) Run(ctx context.Context, groups []config.Group) (*RunResult, error) {
	o.stage = StageIdle
	o.enter(StageCleanEnvironment)
	if o.settings.SkipBuild || o.deps.Builder == nil {
		o.log.Info("using prebuilt binaries", zap.String("dir", o.settings.BinariesDir))
	} else {
		o.deps.Builder.Clean()
	}

	o.enter(StageBuildBinaries)
	if !o.settings.SkipBuild && o.deps.Builder != nil {
		if err := o.deps.Builder.Build(ctx); err != nil {
			return nil, errors.Wrap(err, "build binaries")
		}
	}

	o.enter(StageGenerateCorpus)
	corpus, err := o.deps.Composer.Compose(groups)
	if err != nil {
		return nil, errors.Wrap(err, "generate corpus")
	}
	o.log.Info("corpus ready", zap.Int("groups", corpus.Len()), zap.Int("cases", corpus.Total()))

	return o.RunCorpus(ctx, corpus)
}

// RunCorpus executes the corpus and aggregates the result.
func (o *Orchestrator) RunCorpus(ctx context.Context, corpus *compose.Corpus) (*RunResult, error) {
	if o.stage != StageGenerateCorpus {
		o.stage = StageIdle
	}
	started := time.Now()
	o.enter(StageRunGroups)

	var groups []GroupResult
	err := corpus.Each(func(name string, cases []graph.TestCase) error {
		stats, err := o.runGroup(ctx, name, cases)
		if err != nil {
			return err
		}
		groups = append(groups, GroupResult{Name: name, Stats: stats, Excluded: o.settings.IsExcluded(name)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(o.deps.Out, "All tests passed!")

	o.enter(StageReportAggregate)
	res := &RunResult{
		Started:  started,
		Duration: time.Since(started),
		Groups:   groups,
		Accuracy: orderedmap.New[string, float64](),
	}
	if res.RunID, err = NewRunID(); err != nil {
		return nil, errors.Wrap(err, "run id")
	}
	for _, g := range groups {
		if g.Excluded {
			continue
		}
		res.Accuracy.Set(g.Name, g.Stats.Accuracy())
		o.deps.Metrics.SetAccuracy(g.Name, g.Stats.Accuracy())
	}
	return res, nil
}

func (o *Orchestrator) runGroup(ctx context.Context, name string, cases []graph.TestCase) (GroupStats, error) {
	log := o.log.With(zap.String("group", name))
	log.Info("running group", zap.Int("cases", len(cases)))
	fmt.Fprintf(o.deps.Out, "Running test group '%s'...\n", name)

	var stats GroupStats
	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		verdict, err := o.RunCase(ctx, tc)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			o.deps.Metrics.ObserveCase(name, validate.Failed.String())
			failure := &CaseFailure{Group: name, Index: i + 1, Case: tc, Err: err}
			log.Error("test failed", zap.Int("index", i+1), zap.Error(err))
			fmt.Fprintf(o.deps.Out, "FAILED test #%d:\n%s\nExit...\n", i+1, tc.String())
			return stats, failure
		}

		o.deps.Metrics.ObserveCase(name, verdict.String())
		stats.Total++
		stats.Passed++
		if verdict == validate.Exact {
			stats.Exact++
		} else {
			stats.Approximate++
		}
	}

	fmt.Fprintf(o.deps.Out, "%d / %d tests OK!\n", stats.Passed, len(cases))
	return stats, nil
}

// RunCase feeds tc to the solver and then the checker and grades the answers.
func (o *Orchestrator) RunCase(ctx context.Context, tc graph.TestCase) (validate.Verdict, error) {
	input := tc.String()

	solver, err := o.deps.Solver.Run(ctx, input, o.settings.Timeout)
	o.deps.Metrics.ObserveProcess("solver", solver.Duration)
	if err != nil {
		return validate.Failed, err
	}

	checker, err := o.deps.Checker.Run(ctx, input, o.settings.Timeout)
	o.deps.Metrics.ObserveProcess("checker", checker.Duration)
	if err != nil {
		return validate.Failed, err
	}

	return validate.Validate(solver.Stdout, checker.Stdout, tc)
}

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/rmax-ai/mdstval/pkg/artifacts"
	"github.com/rmax-ai/mdstval/pkg/build"
	"github.com/rmax-ai/mdstval/pkg/compose"
	"github.com/rmax-ai/mdstval/pkg/config"
	"github.com/rmax-ai/mdstval/pkg/generator"
	"github.com/rmax-ai/mdstval/pkg/graph"
	"github.com/rmax-ai/mdstval/pkg/harness"
	"github.com/rmax-ai/mdstval/pkg/logging"
	"github.com/rmax-ai/mdstval/pkg/metrics"
	"github.com/rmax-ai/mdstval/pkg/reports"
	"github.com/rmax-ai/mdstval/pkg/runner"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: mdstval <command> [flags]

Commands:
  run       build both binaries, run every test group and report accuracy
  replay    run one saved test case (--case) against both binaries
  compose   write the generated corpus to --out without running it
  version   print version information

Run "mdstval <command> -h" for the flags of a command.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, usage)
		return 1
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "mdstval %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		return 0
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return 0
	}

	cfg, err := LoadConfig(args[0], args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "mdstval: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdstval: logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	switch cfg.Command {
	case cmdReplay:
		err = replay(ctx, cfg, logger, stdout)
	case cmdCompose:
		err = composeOnly(ctx, cfg, logger, stdout)
	default:
		err = validateRun(ctx, cfg, logger, stdout)
	}
	if err != nil {
		logger.Error("mdstval failed", zap.String("command", cfg.Command), zap.Error(err))
		return 1
	}
	return 0
}

func loadGroups(s *config.Settings) ([]config.Group, error) {
	doc, err := config.LoadGroupsGlob(s.GroupsPath)
	if err != nil {
		return nil, err
	}
	for _, name := range doc.ExcludedGroups {
		if !s.IsExcluded(name) {
			s.ExcludedGroups = append(s.ExcludedGroups, name)
		}
	}
	return doc.Groups, nil
}

func newComposer(s *config.Settings) *compose.Composer {
	var opts []compose.Option
	if s.Seed != 0 {
		next := s.Seed
		opts = append(opts,
			compose.WithSeedSource(func() int64 { next++; return next }),
			compose.WithRand(rand.New(rand.NewSource(s.Seed))),
		)
	}
	if s.SanityCheck {
		opts = append(opts, compose.WithSanityCheck())
	}
	return compose.New(generator.NewRandomConnected(), opts...)
}

func newOrchestrator(s *config.Settings, logger *zap.Logger, collector *metrics.Collector, stdout io.Writer) *harness.Orchestrator {
	return harness.New(s, harness.Deps{
		Builder:  build.New(s.SourceDir, s.BuildDir, s.OutputPath, s.BinariesDir, logger.Named("build")),
		Composer: newComposer(s),
		Solver:   runner.NewProcess("solver", s.SolverPath()),
		Checker:  runner.NewProcess("checker", s.CheckerPath()),
		Logger:   logger.Named("harness"),
		Metrics:  collector,
		Out:      stdout,
	})
}

func validateRun(ctx context.Context, cfg Config, logger *zap.Logger, stdout io.Writer) error {
	s := cfg.Settings
	groups, err := loadGroups(s)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if s.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	res, err := newOrchestrator(s, logger, collector, stdout).Run(ctx, groups)
	if err != nil {
		var failure *harness.CaseFailure
		if errors.As(err, &failure) {
			logger.Error("run aborted", zap.String("group", failure.Group), zap.Int("index", failure.Index))
		}
		return err
	}

	store, err := artifacts.NewRunStore(s.ArtifactDir, res.RunID)
	if err != nil {
		return err
	}
	if err := writeReports(ctx, store, res, reports.ReportFormat(s.ReportFormat), stdout); err != nil {
		return err
	}
	if collector != nil {
		var buf bytes.Buffer
		if err := collector.Encode(&buf); err != nil {
			return err
		}
		if _, err := store.WriteBytes(ctx, "metrics.prom", buf.Bytes()); err != nil {
			return err
		}
	}
	logger.Info("reports written", zap.String("dir", store.Dir()), zap.String("run_id", res.RunID))
	return nil
}

// writeReports stores every report of res. summary.json is always written so viewers can find
// the run; a text or yaml report_format adds the summary in that form as well.
func writeReports(ctx context.Context, store *artifacts.Store, res *harness.RunResult, format reports.ReportFormat, stdout io.Writer) error {
	type job struct {
		rt     reports.ReportType
		format reports.ReportFormat
	}
	jobs := []job{
		{reports.ReportTypeAccuracy, format},
		{reports.ReportTypeSummary, reports.ReportFormatJSON},
	}
	if format != reports.ReportFormatJSON {
		jobs = append(jobs, job{reports.ReportTypeSummary, format})
	}
	jobs = append(jobs, job{reports.ReportTypeChart, format})

	for _, j := range jobs {
		gen, err := reports.NewReportGenerator(j.rt)
		if err != nil {
			return err
		}
		r, err := gen.Generate(ctx, reports.ReportParams{Result: res, Format: j.format})
		if err != nil {
			return err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if _, err := store.WriteBytes(ctx, reports.FileName(j.rt, j.format), data); err != nil {
			return err
		}
		if j.rt == reports.ReportTypeChart {
			stdout.Write(data)
		}
	}
	return nil
}

func replay(ctx context.Context, cfg Config, logger *zap.Logger, stdout io.Writer) error {
	raw, err := os.ReadFile(cfg.CasePath)
	if err != nil {
		return err
	}
	tc, err := graph.ParseTestCase(string(raw))
	if err != nil {
		return err
	}

	o := newOrchestrator(cfg.Settings, logger, nil, stdout)
	verdict, err := o.RunCase(ctx, tc)
	if err != nil {
		fmt.Fprintf(stdout, "FAILED %s: %v\n", cfg.CasePath, err)
		return err
	}
	fmt.Fprintf(stdout, "Verdict: %s\n", verdict)
	return nil
}

// manifest describes a corpus written by the compose command.
type manifest struct {
	Seed   int64           `json:"seed,omitempty"`
	Groups []manifestGroup `json:"groups"`
}

type manifestGroup struct {
	Name  string `json:"name"`
	Dir   string `json:"dir"`
	Mode  string `json:"type"`
	Cases int    `json:"cases"`
}

func composeOnly(ctx context.Context, cfg Config, logger *zap.Logger, stdout io.Writer) error {
	groups, err := loadGroups(cfg.Settings)
	if err != nil {
		return err
	}
	corpus, err := newComposer(cfg.Settings).Compose(groups)
	if err != nil {
		return err
	}

	store, err := artifacts.NewStore(cfg.OutDir)
	if err != nil {
		return err
	}
	err = corpus.Each(func(group string, cases []graph.TestCase) error {
		for i, tc := range cases {
			key := artifacts.SafeName(group) + "/" + strconv.Itoa(i+1) + ".in"
			if _, err := store.WriteBytes(ctx, key, []byte(tc.String())); err != nil {
				return err
			}
		}
		fmt.Fprintf(stdout, "%s: %d cases\n", group, len(cases))
		return nil
	})
	if err != nil {
		return err
	}

	m := manifest{Seed: cfg.Settings.Seed}
	for _, g := range groups {
		cases, _ := corpus.Cases(g.Name)
		m.Groups = append(m.Groups, manifestGroup{
			Name:  g.Name,
			Dir:   artifacts.SafeName(g.Name),
			Mode:  g.Mode,
			Cases: len(cases),
		})
	}
	if _, err := store.WriteJSON(ctx, "manifest.json", m); err != nil {
		return err
	}
	logger.Info("corpus written", zap.String("dir", store.Dir()), zap.Int("cases", corpus.Total()))
	return nil
}

package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rmax-ai/mdstval/pkg/compose"
	"github.com/rmax-ai/mdstval/pkg/config"
	"github.com/rmax-ai/mdstval/pkg/generator"
	"github.com/rmax-ai/mdstval/pkg/graph"
	"github.com/rmax-ai/mdstval/pkg/metrics"
	"github.com/rmax-ai/mdstval/pkg/runner"
	"github.com/rmax-ai/mdstval/pkg/validate"
)

func path(n int) graph.TestCase {
	edges := make([]graph.Edge, 0, n)
	for i := 1; i < n; i++ {
		edges = append(edges, graph.Edge{From: i, To: i + 1})
	}
	return graph.NewTestCase(n, edges)
}

// treeAnswer prints a tree input back as a binary would, with the max degree raised by bump.
func treeAnswer(input string, bump int) (string, error) {
	tc, err := graph.ParseTestCase(input)
	if err != nil {
		return "", err
	}
	lines := []string{
		fmt.Sprintf("%d %d %d", tc.VertexCount, tc.EdgeCount, graph.MaxDegree(tc.Edges)+bump),
		strings.Trim(fmt.Sprint(tc.Vertices()), "[]"),
	}
	for _, e := range tc.Edges {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n"), nil
}

// stub answers every input correctly except the vertex counts listed in bumps.
type stub struct {
	bumps  map[int]int
	inputs []string
}

func (s *stub) Run(_ context.Context, input string, _ time.Duration) (runner.Result, error) {
	s.inputs = append(s.inputs, input)
	tc, err := graph.ParseTestCase(input)
	if err != nil {
		return runner.Result{}, err
	}
	out, err := treeAnswer(input, s.bumps[tc.VertexCount])
	return runner.Result{Stdout: out, Duration: time.Millisecond}, err
}

func newSettings(excluded ...string) *config.Settings {
	return &config.Settings{Timeout: time.Second, BinariesDir: "binaries", ExcludedGroups: excluded}
}

func corpusOf(groups map[string][]int, order ...string) *compose.Corpus {
	c := compose.NewCorpus()
	for _, name := range order {
		for _, n := range groups[name] {
			c.Add(name, path(n))
		}
	}
	return c
}

func TestRunCorpus_FailFast(t *testing.T) {
	solver := &stub{bumps: map[int]int{7: 2}}
	checker := &stub{}
	var out bytes.Buffer
	o := New(newSettings(), Deps{Solver: solver, Checker: checker, Logger: zaptest.NewLogger(t), Out: &out})

	corpus := corpusOf(map[string][]int{"A": {3, 4}, "B": {5, 7, 6}, "C": {3, 8}}, "A", "B", "C")
	res, err := o.RunCorpus(context.Background(), corpus)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, validate.ErrStructuralMismatch), "got %v", err)

	var failure *CaseFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "B", failure.Group)
	assert.Equal(t, 2, failure.Index)
	assert.Equal(t, 7, failure.Case.VertexCount)

	assert.Len(t, solver.inputs, 4, "group C never runs")
	assert.Equal(t, StageRunGroups, o.Stage())

	text := out.String()
	assert.Contains(t, text, "2 / 2 tests OK!\n")
	assert.Contains(t, text, "Running test group 'B'...\nFAILED test #2:\n"+path(7).String()+"\nExit...\n")
	assert.NotContains(t, text, "Running test group 'C'")
	assert.NotContains(t, text, "All tests passed!")
	assert.Equal(t, 1, strings.Count(text, "tests OK!"))
}

func TestRunCorpus_AggregatesAndExcludes(t *testing.T) {
	collector := metrics.NewCollector()
	var out bytes.Buffer
	o := New(newSettings("Hidden"), Deps{
		Solver:  &stub{bumps: map[int]int{5: 1}},
		Checker: &stub{},
		Metrics: collector,
		Out:     &out,
	})

	corpus := corpusOf(map[string][]int{"A": {2, 3, 4}, "B": {5, 6}, "Hidden": {5}}, "B", "Hidden", "A")
	res, err := o.RunCorpus(context.Background(), corpus)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, StageReportAggregate, o.Stage())

	var names []string
	for pair := res.Accuracy.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	assert.Equal(t, []string{"B", "A"}, names)
	b, _ := res.Accuracy.Get("B")
	a, _ := res.Accuracy.Get("A")
	assert.Equal(t, 0.5, b)
	assert.Equal(t, 1.0, a)

	require.Len(t, res.Groups, 3)
	assert.Equal(t, GroupStats{Passed: 1, Approximate: 1, Total: 1}, res.Groups[1].Stats)
	assert.True(t, res.Groups[1].Excluded)
	assert.Equal(t, 6, res.TotalCases())

	assert.Equal(t, "Running test group 'B'...\n2 / 2 tests OK!\n"+
		"Running test group 'Hidden'...\n1 / 1 tests OK!\n"+
		"Running test group 'A'...\n3 / 3 tests OK!\n"+
		"All tests passed!\n", out.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CasesTotal.WithLabelValues("B", "approximate")))
	assert.Equal(t, 0.5, testutil.ToFloat64(collector.GroupAccuracy.WithLabelValues("B")))
}

func TestRunCorpus_ProcessError(t *testing.T) {
	failing := runner.Func(func(ctx context.Context, input string, timeout time.Duration) (runner.Result, error) {
		res := runner.Result{Stderr: "segfault"}
		return res, &runner.ProcessError{Binary: "checker", Kind: runner.KindStderr, Result: res}
	})
	var out bytes.Buffer
	o := New(newSettings(), Deps{Solver: &stub{}, Checker: failing, Out: &out})

	res, err := o.RunCorpus(context.Background(), corpusOf(map[string][]int{"A": {3}}, "A"))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, runner.ErrProcess))
	assert.Contains(t, out.String(), "FAILED test #1:")
}

func TestRunCorpus_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	solver := &stub{}
	o := New(newSettings(), Deps{Solver: solver, Checker: &stub{}})

	res, err := o.RunCorpus(ctx, corpusOf(map[string][]int{"A": {3}}, "A"))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, solver.inputs)
}

type fakeBuilder struct {
	calls []string
	err   error
}

func (b *fakeBuilder) Clean() { b.calls = append(b.calls, "clean") }

func (b *fakeBuilder) Build(context.Context) error {
	b.calls = append(b.calls, "build")
	return b.err
}

func pathGenerator() generator.Generator {
	return generator.Func(func(v, e int, seed int64) (graph.TestCase, error) {
		return path(v), nil
	})
}

func TestRun_AllStages(t *testing.T) {
	builder := &fakeBuilder{}
	var out bytes.Buffer
	o := New(newSettings(), Deps{
		Builder:  builder,
		Composer: compose.New(pathGenerator()),
		Solver:   &stub{},
		Checker:  &stub{},
		Out:      &out,
	})

	res, err := o.Run(context.Background(), []config.Group{
		{Name: "usual", RegenFactor: 2, Mode: config.ModeUsual, Parameters: []config.Parameters{{VertexCount: 4, EdgeCount: 3}}},
		{Name: "joined", RegenFactor: 1, Mode: config.ModeComponents, Parameters: []config.Parameters{{VertexCount: 3, EdgeCount: 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "build"}, builder.calls)
	assert.Equal(t, 3, res.TotalCases())
	assert.Equal(t, "Running test group 'usual'...\n2 / 2 tests OK!\n"+
		"Running test group 'joined'...\n1 / 1 tests OK!\n"+
		"All tests passed!\n", out.String())
}

func TestRun_SkipBuild(t *testing.T) {
	builder := &fakeBuilder{}
	s := newSettings()
	s.SkipBuild = true
	o := New(s, Deps{Builder: builder, Composer: compose.New(pathGenerator()), Solver: &stub{}, Checker: &stub{}})

	_, err := o.Run(context.Background(), []config.Group{{Name: "g", RegenFactor: 1, Mode: config.ModeUsual, Parameters: []config.Parameters{{VertexCount: 2, EdgeCount: 1}}}})
	require.NoError(t, err)
	assert.Empty(t, builder.calls)
}

func TestRun_BuildAndComposeErrors(t *testing.T) {
	solver := &stub{}
	o := New(newSettings(), Deps{Builder: &fakeBuilder{err: errors.New("no cmake")}, Composer: compose.New(pathGenerator()), Solver: solver, Checker: &stub{}})
	res, err := o.Run(context.Background(), nil)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "no cmake")

	o = New(newSettings(), Deps{Builder: &fakeBuilder{}, Composer: compose.New(pathGenerator()), Solver: solver, Checker: &stub{}})
	res, err = o.Run(context.Background(), []config.Group{{Name: "x", RegenFactor: 1, Mode: "disconnected"}})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, compose.ErrUnsupportedMode))
	assert.Empty(t, solver.inputs)
}

func TestGroupStats_Accuracy(t *testing.T) {
	assert.Equal(t, 0.667, GroupStats{Exact: 2, Approximate: 1, Passed: 3, Total: 3}.Accuracy())
	assert.Equal(t, 1.0, GroupStats{}.Accuracy())
}

func TestNewRunID(t *testing.T) {
	a, err := NewRunID()
	require.NoError(t, err)
	b, err := NewRunID()
	require.NoError(t, err)
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

// Package compose expands test group configurations into a corpus of graph test cases.
package compose

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/rmax-ai/mdstval/pkg/config"
	"github.com/rmax-ai/mdstval/pkg/generator"
	"github.com/rmax-ai/mdstval/pkg/graph"
)

// Source hands out the randomness a strategy may use: a fresh seed per generator call and a
// shared stream for choices the composer makes itself, such as bridge endpoints.
type Source struct {
	Seed func() int64
	Rand *rand.Rand
}

// Strategy synthesizes one test case for a parameter set.
type Strategy interface {
	Synthesize(gen generator.Generator, p config.Parameters, src Source) (graph.TestCase, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(gen generator.Generator, p config.Parameters, src Source) (graph.TestCase, error)

// Synthesize calls f.
func (f StrategyFunc) Synthesize(gen generator.Generator, p config.Parameters, src Source) (graph.TestCase, error) {
	return f(gen, p, src)
}

// Composer builds corpora from group configurations.
type Composer struct {
	gen         generator.Generator
	seed        func() int64
	rng         *rand.Rand
	strategies  map[string]Strategy
	sanityCheck bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithSeedSource replaces the per-call seed source. The default is the wall clock in nanoseconds.
func WithSeedSource(fn func() int64) Option {
	return func(c *Composer) { c.seed = fn }
}

// WithRand sets the stream used for bridge endpoints.
func WithRand(rng *rand.Rand) Option {
	return func(c *Composer) { c.rng = rng }
}

// WithStrategy registers or replaces the strategy for mode.
func WithStrategy(mode string, s Strategy) Option {
	return func(c *Composer) { c.strategies[mode] = s }
}

// WithSanityCheck makes Compose verify every synthesized case before storing it.
func WithSanityCheck() Option {
	return func(c *Composer) { c.sanityCheck = true }
}

// New returns a Composer with the usual and components modes registered.
func New(gen generator.Generator, opts ...Option) *Composer {
	c := &Composer{
		gen:  gen,
		seed: func() int64 { return time.Now().UnixNano() },
		strategies: map[string]Strategy{
			config.ModeUsual:      StrategyFunc(Usual),
			config.ModeComponents: StrategyFunc(Components),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.seed()))
	}
	return c
}

// Modes returns the registered mode names.
func (c *Composer) Modes() []string {
	modes := make([]string, 0, len(c.strategies))
	for m := range c.strategies {
		modes = append(modes, m)
	}
	return modes
}

// Compose synthesizes regen_factor cases per parameter set for every group, in order.
// An unknown mode fails the whole corpus with a *ConfigurationError.
func (c *Composer) Compose(groups []config.Group) (*Corpus, error) {
	for _, g := range groups {
		if _, ok := c.strategies[g.Mode]; !ok {
			return nil, &ConfigurationError{Group: g.Name, Mode: g.Mode, Err: ErrUnsupportedMode}
		}
	}

	corpus := NewCorpus()
	src := Source{Seed: c.seed, Rand: c.rng}
	for _, g := range groups {
		strategy := c.strategies[g.Mode]
		cases := make([]graph.TestCase, 0, g.CaseCount())
		for _, p := range g.Parameters {
			for i := 0; i < g.RegenFactor; i++ {
				tc, err := strategy.Synthesize(c.gen, p, src)
				if err != nil {
					return nil, errors.Wrapf(err, "group %q: synthesize %d/%d", g.Name, p.VertexCount, p.EdgeCount)
				}
				if c.sanityCheck {
					if err := SanityCheck(tc); err != nil {
						return nil, errors.Wrapf(err, "group %q", g.Name)
					}
				}
				cases = append(cases, tc)
			}
		}
		corpus.Add(g.Name, cases...)
	}
	return corpus, nil
}

// SanityCheck verifies the edge-count invariant, endpoint ranges and connectivity.
func SanityCheck(tc graph.TestCase) error {
	if err := tc.Validate(); err != nil {
		return errors.Wrap(err, "sanity check")
	}
	if !graph.IsConnected(tc.Vertices(), tc.Edges) {
		return errors.Errorf("sanity check: %d-vertex case is not connected", tc.VertexCount)
	}
	return nil
}

// Usual stores one generated graph verbatim.
func Usual(gen generator.Generator, p config.Parameters, src Source) (graph.TestCase, error) {
	return gen.Generate(p.VertexCount, p.EdgeCount, src.Seed())
}

// Components generates two graphs with the same parameters and joins them with one bridge.
// The second part is renumbered after the first, and the bridge runs from a uniformly chosen
// vertex of part one to one of part two.
func Components(gen generator.Generator, p config.Parameters, src Source) (graph.TestCase, error) {
	part1, err := gen.Generate(p.VertexCount, p.EdgeCount, src.Seed())
	if err != nil {
		return graph.TestCase{}, errors.Wrap(err, "first component")
	}
	part2, err := gen.Generate(p.VertexCount, p.EdgeCount, src.Seed())
	if err != nil {
		return graph.TestCase{}, errors.Wrap(err, "second component")
	}
	return Join(part1, part2, src.Rand)
}

// Join renumbers b after a and connects them with a single random bridge. Neither input is
// modified. Both parts need at least one vertex to carry the bridge.
func Join(a, b graph.TestCase, rng *rand.Rand) (graph.TestCase, error) {
	if a.VertexCount < 1 || b.VertexCount < 1 {
		return graph.TestCase{}, errors.Wrapf(ErrEmptyComponent, "vertex counts %d and %d", a.VertexCount, b.VertexCount)
	}
	offset := a.VertexCount
	bridge := graph.Edge{
		From: rng.Intn(a.VertexCount) + 1,
		To:   offset + rng.Intn(b.VertexCount) + 1,
	}

	edges := make([]graph.Edge, 0, len(a.Edges)+len(b.Edges)+1)
	edges = append(edges, a.Edges...)
	edges = append(edges, bridge)
	for _, e := range b.Edges {
		edges = append(edges, e.Shift(offset))
	}

	return graph.TestCase{
		VertexCount: a.VertexCount + b.VertexCount,
		EdgeCount:   a.EdgeCount + b.EdgeCount + 1,
		Edges:       edges,
	}, nil
}

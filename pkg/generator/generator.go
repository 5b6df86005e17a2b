// Package generator produces connected graph instances for the composer.
//
// The composer only depends on the Generator capability; RandomConnected is the default
// implementation used by the CLI when no external generator is wired in.
package generator

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

// ErrInvalidParameters is returned when the requested counts cannot describe a simple connected graph.
var ErrInvalidParameters = errors.New("invalid generator parameters")

// Generator produces a connected test case with the requested vertex and edge counts.
type Generator interface {
	Generate(vertexCount, edgeCount int, seed int64) (graph.TestCase, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(vertexCount, edgeCount int, seed int64) (graph.TestCase, error)

// Generate calls f.
func (f Func) Generate(vertexCount, edgeCount int, seed int64) (graph.TestCase, error) {
	return f(vertexCount, edgeCount, seed)
}

// RandomConnected samples a simple connected graph: a random spanning tree followed by
// distinct extra edges. Output is deterministic for a fixed seed.
type RandomConnected struct{}

// NewRandomConnected returns the default generator.
func NewRandomConnected() *RandomConnected {
	return &RandomConnected{}
}

// Generate implements Generator.
func (RandomConnected) Generate(vertexCount, edgeCount int, seed int64) (graph.TestCase, error) {
	if vertexCount < 1 {
		return graph.TestCase{}, errors.Wrapf(ErrInvalidParameters, "vertex_count=%d < 1", vertexCount)
	}
	maxEdges := vertexCount * (vertexCount - 1) / 2
	if edgeCount < vertexCount-1 || edgeCount > maxEdges {
		return graph.TestCase{}, errors.Wrapf(ErrInvalidParameters,
			"edges_count=%d not in [%d,%d] for vertex_count=%d", edgeCount, vertexCount-1, maxEdges, vertexCount)
	}

	rng := rand.New(rand.NewSource(seed))
	edges := make([]graph.Edge, 0, edgeCount)
	present := make(map[graph.Edge]bool, edgeCount)
	add := func(e graph.Edge) bool {
		key := e.Canonical()
		if e.From == e.To || present[key] {
			return false
		}
		present[key] = true
		edges = append(edges, e)
		return true
	}

	// spanning tree: attach vertices in shuffled order to an already attached vertex
	order := rng.Perm(vertexCount)
	for i := 1; i < vertexCount; i++ {
		parent := order[rng.Intn(i)] + 1
		add(graph.Edge{From: parent, To: order[i] + 1})
	}

	// sparse requests use rejection sampling, dense ones draw from the remaining pairs
	if extra := edgeCount - len(edges); extra > 0 {
		if edgeCount*2 <= maxEdges {
			for len(edges) < edgeCount {
				add(graph.Edge{From: rng.Intn(vertexCount) + 1, To: rng.Intn(vertexCount) + 1})
			}
		} else {
			var missing []graph.Edge
			for u := 1; u <= vertexCount; u++ {
				for v := u + 1; v <= vertexCount; v++ {
					if !present[graph.Edge{From: u, To: v}] {
						missing = append(missing, graph.Edge{From: u, To: v})
					}
				}
			}
			rng.Shuffle(len(missing), func(i, j int) { missing[i], missing[j] = missing[j], missing[i] })
			for _, e := range missing[:extra] {
				add(e)
			}
		}
	}

	return graph.NewTestCase(vertexCount, edges), nil
}

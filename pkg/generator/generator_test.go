package generator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

func TestRandomConnected_Counts(t *testing.T) {
	gen := NewRandomConnected()
	params := []struct{ v, e int }{
		{1, 0}, {2, 1}, {5, 4}, {5, 10}, {10, 12}, {30, 100}, {12, 60},
	}

	for _, p := range params {
		tc, err := gen.Generate(p.v, p.e, 42)
		require.NoError(t, err)
		require.NoError(t, tc.Validate())
		assert.Equal(t, p.v, tc.VertexCount)
		assert.Equal(t, p.e, tc.EdgeCount)
		assert.True(t, graph.IsConnected(tc.Vertices(), tc.Edges), "v=%d e=%d", p.v, p.e)

		seen := make(map[graph.Edge]bool)
		for _, e := range tc.Edges {
			assert.NotEqual(t, e.From, e.To, "self-loop generated")
			assert.False(t, seen[e.Canonical()], "duplicate edge %s", e)
			seen[e.Canonical()] = true
		}
	}
}

func TestRandomConnected_Deterministic(t *testing.T) {
	gen := NewRandomConnected()

	a, err := gen.Generate(20, 35, 7)
	require.NoError(t, err)
	b, err := gen.Generate(20, 35, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := gen.Generate(20, 35, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Edges, c.Edges)
}

func TestRandomConnected_InvalidParameters(t *testing.T) {
	gen := NewRandomConnected()
	for _, p := range []struct{ v, e int }{{0, 0}, {4, 2}, {4, 7}} {
		_, err := gen.Generate(p.v, p.e, 1)
		assert.True(t, errors.Is(err, ErrInvalidParameters), "v=%d e=%d: %v", p.v, p.e, err)
	}
}

func TestFunc(t *testing.T) {
	called := false
	var gen Generator = Func(func(v, e int, seed int64) (graph.TestCase, error) {
		called = true
		assert.Equal(t, int64(9), seed)
		return graph.NewTestCase(v, nil), nil
	})

	tc, err := gen.Generate(3, 0, 9)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 3, tc.VertexCount)
}

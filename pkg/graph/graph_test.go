package graph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPath creates the tree 1-2-...-n.
func buildPath(n int) TestCase {
	edges := make([]Edge, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, Edge{From: i, To: i + 1})
	}
	return NewTestCase(n, edges)
}

// buildStar creates the tree with vertex 1 joined to every other vertex.
func buildStar(n int) TestCase {
	edges := make([]Edge, 0, n-1)
	for i := 2; i <= n; i++ {
		edges = append(edges, Edge{From: 1, To: i})
	}
	return NewTestCase(n, edges)
}

func TestTestCase_String(t *testing.T) {
	tc := NewTestCase(3, []Edge{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1}})

	assert.Equal(t, "3 3\n1 2 3\n1 2\n2 3\n3 1", tc.String())

	var buf bytes.Buffer
	n, err := tc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(tc.String())), n)
	assert.Equal(t, tc.String(), buf.String())
}

func TestTestCase_StringNoEdges(t *testing.T) {
	tc := NewTestCase(1, nil)
	assert.Equal(t, "1 0\n1\n", tc.String())
}

func TestParseTestCase_RoundTrip(t *testing.T) {
	cases := []TestCase{
		NewTestCase(1, nil),
		buildPath(5),
		buildStar(7),
		NewTestCase(4, []Edge{{From: 1, To: 2}, {From: 2, To: 1}, {From: 3, To: 4}, {From: 4, To: 4}, {From: 2, To: 3}}),
	}

	for _, want := range cases {
		got, err := ParseTestCase(want.String())
		require.NoError(t, err)
		assert.Equal(t, want.VertexCount, got.VertexCount)
		assert.Equal(t, want.EdgeCount, got.EdgeCount)
		assert.ElementsMatch(t, want.Edges, got.Edges)
	}
}

func TestParseTestCase_Rejects(t *testing.T) {
	inputs := map[string]string{
		"empty":            "",
		"missing vertices": "3 0\n1 2",
		"duplicate vertex": "3 0\n1 2 2",
		"unknown endpoint": "2 1\n1 2\n1 3",
		"not a number":     "2 1\n1 2\n1 x",
		"trailing tokens":  "2 1\n1 2\n1 2\n2 1",
		"missing edge":     "2 2\n1 2\n1 2",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTestCase(in)
			assert.True(t, errors.Is(err, ErrMalformedTestCase), "got %v", err)
		})
	}
}

func TestTestCase_Validate(t *testing.T) {
	assert.NoError(t, buildPath(4).Validate())

	bad := buildPath(4)
	bad.EdgeCount = 5
	assert.Error(t, bad.Validate())

	outOfRange := NewTestCase(2, []Edge{{From: 1, To: 3}})
	assert.Error(t, outOfRange.Validate())

	assert.Error(t, TestCase{}.Validate())
}

func TestEdge_Equal(t *testing.T) {
	assert.True(t, Edge{From: 1, To: 2}.Equal(Edge{From: 2, To: 1}))
	assert.True(t, Edge{From: 3, To: 3}.Equal(Edge{From: 3, To: 3}))
	assert.False(t, Edge{From: 1, To: 2}.Equal(Edge{From: 1, To: 3}))
	assert.Equal(t, Edge{From: 2, To: 5}, Edge{From: 5, To: 2}.Canonical())
	assert.Equal(t, Edge{From: 4, To: 7}, Edge{From: 1, To: 4}.Shift(3))
}

func TestIsConnected_SingleVertex(t *testing.T) {
	assert.True(t, IsConnected([]int{1}, nil))
}

func TestIsConnected_Empty(t *testing.T) {
	assert.True(t, IsConnected(nil, nil))
}

func TestIsConnected_DisjointTriangles(t *testing.T) {
	edges := []Edge{
		{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1},
		{From: 4, To: 5}, {From: 5, To: 6}, {From: 6, To: 4},
	}
	assert.False(t, IsConnected([]int{1, 2, 3, 4, 5, 6}, edges))

	bridged := append(append([]Edge{}, edges...), Edge{From: 3, To: 4})
	assert.True(t, IsConnected([]int{1, 2, 3, 4, 5, 6}, bridged))
}

func TestIsConnected_Trees(t *testing.T) {
	for _, n := range []int{1, 2, 10, 500} {
		path := buildPath(n)
		assert.True(t, IsConnected(path.Vertices(), path.Edges), "path of %d", n)

		star := buildStar(n)
		assert.True(t, IsConnected(star.Vertices(), star.Edges), "star of %d", n)
	}
}

func TestIsConnected_DuplicatesAndCycles(t *testing.T) {
	edges := []Edge{{From: 1, To: 2}, {From: 2, To: 1}, {From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1}, {From: 3, To: 3}}
	assert.True(t, IsConnected([]int{1, 2, 3}, edges))
}

func TestIsConnected_IsolatedVertex(t *testing.T) {
	assert.False(t, IsConnected([]int{1, 2, 3}, []Edge{{From: 1, To: 2}}))
}

func TestIsConnected_IgnoresForeignEdges(t *testing.T) {
	// 1 and 3 are only joined through 9, which is not part of the set
	assert.False(t, IsConnected([]int{1, 3}, []Edge{{From: 1, To: 9}, {From: 9, To: 3}}))
}

func TestIsConnected_StartIsFirstVertex(t *testing.T) {
	assert.True(t, IsConnected([]int{5, 2, 9}, []Edge{{From: 9, To: 2}, {From: 2, To: 5}}))
}

func TestMaxDegree(t *testing.T) {
	assert.Equal(t, 0, MaxDegree(nil))
	assert.Equal(t, 2, MaxDegree(buildPath(5).Edges))
	assert.Equal(t, 6, MaxDegree(buildStar(7).Edges))
}

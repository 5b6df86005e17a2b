package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Edge is an undirected connection between two 1-indexed vertices.
type Edge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Canonical returns the edge with the smaller endpoint first.
func (e Edge) Canonical() Edge {
	if e.From > e.To {
		return Edge{From: e.To, To: e.From}
	}
	return e
}

// Equal reports whether both edges join the same pair of vertices, ignoring orientation.
func (e Edge) Equal(other Edge) bool {
	return e.Canonical() == other.Canonical()
}

// Shift returns the edge with both endpoints moved by offset.
func (e Edge) Shift(offset int) Edge {
	return Edge{From: e.From + offset, To: e.To + offset}
}

func (e Edge) String() string {
	return strconv.Itoa(e.From) + " " + strconv.Itoa(e.To)
}

// TestCase is a graph instance fed to both binaries on stdin.
type TestCase struct {
	VertexCount int    `json:"vertex_count" yaml:"vertex_count"`
	EdgeCount   int    `json:"edge_count" yaml:"edge_count"`
	Edges       []Edge `json:"edges" yaml:"edges"`
}

// NewTestCase builds a test case whose edge count matches the given edges.
func NewTestCase(vertexCount int, edges []Edge) TestCase {
	return TestCase{
		VertexCount: vertexCount,
		EdgeCount:   len(edges),
		Edges:       edges,
	}
}

// Vertices returns the identifiers 1..VertexCount.
func (tc TestCase) Vertices() []int {
	vs := make([]int, tc.VertexCount)
	for i := range vs {
		vs[i] = i + 1
	}
	return vs
}

// Validate checks the edge-count invariant and that every endpoint is in range.
func (tc TestCase) Validate() error {
	if tc.VertexCount < 1 {
		return fmt.Errorf("vertex count %d < 1", tc.VertexCount)
	}
	if tc.EdgeCount != len(tc.Edges) {
		return fmt.Errorf("edge count %d does not match %d listed edges", tc.EdgeCount, len(tc.Edges))
	}
	for i, e := range tc.Edges {
		if e.From < 1 || e.From > tc.VertexCount || e.To < 1 || e.To > tc.VertexCount {
			return fmt.Errorf("edge #%d (%s) references a vertex outside 1..%d", i+1, e, tc.VertexCount)
		}
	}
	return nil
}

// String renders the stdin form: a header line, the vertex line, then one line per edge.
func (tc TestCase) String() string {
	var b strings.Builder
	tc.writeTo(&b)
	return b.String()
}

// WriteTo writes the stdin form of the test case to w.
func (tc TestCase) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tc.String())
	return int64(n), err
}

func (tc TestCase) writeTo(b *strings.Builder) {
	b.WriteString(strconv.Itoa(tc.VertexCount))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(tc.EdgeCount))
	b.WriteByte('\n')
	for v := 1; v <= tc.VertexCount; v++ {
		if v > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('\n')
	for i, e := range tc.Edges {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.String())
	}
}

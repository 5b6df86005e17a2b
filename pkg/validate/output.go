package validate

import (
	"strconv"
	"strings"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

// NoTreeSentinel is printed by both binaries when the input has no spanning tree.
const NoTreeSentinel = "no mst in graph"

// Output is one binary's parsed answer.
type Output struct {
	NoTree      bool
	VertexCount int
	EdgeCount   int
	MaxDegree   int
	Vertices    []int
	Edges       []graph.Edge
}

// Parse reads a binary's stdout. Surrounding whitespace is ignored and CRLF line endings are
// accepted. Any deviation from the expected layout is a *StructuralMismatch.
func Parse(raw string) (*Output, error) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == NoTreeSentinel {
		return &Output{NoTree: true}, nil
	}
	if text == "" {
		return nil, mismatch("empty output")
	}

	lines := strings.Split(text, "\n")
	header, err := ints(lines[0])
	if err != nil || len(header) != 3 {
		return nil, mismatchf("header %q is not three integers", lines[0])
	}
	out := &Output{VertexCount: header[0], EdgeCount: header[1], MaxDegree: header[2]}
	if out.EdgeCount < 0 {
		return nil, mismatchf("negative edge count %d", out.EdgeCount)
	}

	if len(lines) < 2 {
		return nil, mismatch("missing vertex line")
	}
	if out.Vertices, err = ints(lines[1]); err != nil {
		return nil, mismatchf("vertex line: %v", err)
	}

	edgeLines := lines[2:]
	if len(edgeLines) != out.EdgeCount {
		return nil, mismatchf("reported %d edges but printed %d edge lines", out.EdgeCount, len(edgeLines))
	}
	out.Edges = make([]graph.Edge, 0, len(edgeLines))
	for i, line := range edgeLines {
		pair, err := ints(line)
		if err != nil || len(pair) != 2 {
			return nil, mismatchf("edge line %d %q is not two integers", i+1, line)
		}
		out.Edges = append(out.Edges, graph.Edge{From: pair[0], To: pair[1]})
	}
	return out, nil
}

func ints(line string) ([]int, error) {
	fields := strings.Fields(line)
	vals := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTestCase is returned by ParseTestCase for input that is not in the stdin form.
var ErrMalformedTestCase = errors.New("malformed test case")

// ParseTestCase reads the form produced by TestCase.String. Tokens are whitespace separated,
// so line breaks are not significant. Duplicate vertices, vertices outside 1..V and edges to
// unknown vertices are rejected.
func ParseTestCase(s string) (TestCase, error) {
	tokens := strings.Fields(s)
	pos := 0
	next := func(what string) (int, error) {
		if pos >= len(tokens) {
			return 0, fmt.Errorf("%w: missing %s", ErrMalformedTestCase, what)
		}
		v, err := strconv.Atoi(tokens[pos])
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not an integer", ErrMalformedTestCase, what, tokens[pos])
		}
		pos++
		return v, nil
	}

	vertexCount, err := next("vertex count")
	if err != nil {
		return TestCase{}, err
	}
	edgeCount, err := next("edge count")
	if err != nil {
		return TestCase{}, err
	}
	if vertexCount < 1 || edgeCount < 0 {
		return TestCase{}, fmt.Errorf("%w: header %d %d out of range", ErrMalformedTestCase, vertexCount, edgeCount)
	}

	seen := make(map[int]bool, vertexCount)
	for i := 0; i < vertexCount; i++ {
		v, err := next("vertex")
		if err != nil {
			return TestCase{}, err
		}
		if v < 1 || v > vertexCount {
			return TestCase{}, fmt.Errorf("%w: vertex %d outside 1..%d", ErrMalformedTestCase, v, vertexCount)
		}
		if seen[v] {
			return TestCase{}, fmt.Errorf("%w: vertex %d is duplicated", ErrMalformedTestCase, v)
		}
		seen[v] = true
	}

	edges := make([]Edge, 0, edgeCount)
	for i := 0; i < edgeCount; i++ {
		from, err := next("edge endpoint")
		if err != nil {
			return TestCase{}, err
		}
		to, err := next("edge endpoint")
		if err != nil {
			return TestCase{}, err
		}
		if !seen[from] || !seen[to] {
			return TestCase{}, fmt.Errorf("%w: edge %d %d links to a non-existent vertex", ErrMalformedTestCase, from, to)
		}
		edges = append(edges, Edge{From: from, To: to})
	}
	if pos != len(tokens) {
		return TestCase{}, fmt.Errorf("%w: %d trailing tokens", ErrMalformedTestCase, len(tokens)-pos)
	}

	return TestCase{VertexCount: vertexCount, EdgeCount: edgeCount, Edges: edges}, nil
}

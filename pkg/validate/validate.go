// Package validate compares the solver's answer with the checker's for one test case.
package validate

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

// Verdict grades the solver against the checker.
type Verdict int

const (
	// Failed accompanies a non-nil error.
	Failed      Verdict = 0
	Exact       Verdict = 1
	Approximate Verdict = -1
)

func (v Verdict) String() string {
	switch v {
	case Exact:
		return "exact"
	case Approximate:
		return "approximate"
	default:
		return "failed"
	}
}

// ErrStructuralMismatch is matched by every *StructuralMismatch.
var ErrStructuralMismatch = errors.New("structural mismatch")

// StructuralMismatch describes why two outputs cannot be graded.
type StructuralMismatch struct {
	Reason string
}

func (e *StructuralMismatch) Error() string {
	return "structural mismatch: " + e.Reason
}

// Is makes errors.Is(err, ErrStructuralMismatch) hold.
func (e *StructuralMismatch) Is(target error) bool {
	return target == ErrStructuralMismatch
}

func mismatch(reason string) error {
	return &StructuralMismatch{Reason: reason}
}

func mismatchf(format string, args ...any) error {
	return &StructuralMismatch{Reason: fmt.Sprintf(format, args...)}
}

// Validate grades solverOut against checkerOut for origin. Both must report no tree, or both
// must describe a spanning tree of origin over the same vertex set whose degrees differ by at
// most one in the checker's favour.
func Validate(solverOut, checkerOut string, origin graph.TestCase) (Verdict, error) {
	solver, err := Parse(solverOut)
	if err != nil {
		return Failed, errors.Wrap(err, "solver output")
	}
	checker, err := Parse(checkerOut)
	if err != nil {
		return Failed, errors.Wrap(err, "checker output")
	}
	return Compare(solver, checker, origin)
}

// Compare grades two parsed outputs. See Validate.
func Compare(solver, checker *Output, origin graph.TestCase) (Verdict, error) {
	if solver.NoTree || checker.NoTree {
		if solver.NoTree && checker.NoTree {
			return Exact, nil
		}
		return Failed, mismatchf("sentinel disagreement: solver no-tree=%t, checker no-tree=%t", solver.NoTree, checker.NoTree)
	}

	if solver.VertexCount != origin.VertexCount || checker.VertexCount != origin.VertexCount {
		return Failed, mismatchf("vertex count: origin %d, solver %d, checker %d",
			origin.VertexCount, solver.VertexCount, checker.VertexCount)
	}

	want := origin.VertexCount - 1
	if solver.EdgeCount != want || checker.EdgeCount != want {
		return Failed, mismatchf("edge count: want %d, solver %d, checker %d", want, solver.EdgeCount, checker.EdgeCount)
	}

	if solver.MaxDegree != checker.MaxDegree && solver.MaxDegree != checker.MaxDegree+1 {
		return Failed, mismatchf("max degree: solver %d, checker %d", solver.MaxDegree, checker.MaxDegree)
	}

	if !sameVertices(solver.Vertices, checker.Vertices) {
		return Failed, mismatchf("vertex sets differ: solver %v, checker %v", solver.Vertices, checker.Vertices)
	}

	for _, side := range []struct {
		name string
		out  *Output
	}{{"solver", solver}, {"checker", checker}} {
		if err := spans(side.out); err != nil {
			return Failed, errors.Wrap(err, side.name)
		}
	}

	if solver.MaxDegree == checker.MaxDegree {
		return Exact, nil
	}
	return Approximate, nil
}

func sameVertices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// spans checks that the printed edges stay inside the printed vertex set and connect it.
func spans(out *Output) error {
	known := make(map[int]bool, len(out.Vertices))
	for _, v := range out.Vertices {
		known[v] = true
	}
	for _, e := range out.Edges {
		if !known[e.From] || !known[e.To] {
			return mismatchf("edge %s leaves the reported vertex set", e)
		}
	}
	if !graph.IsConnected(out.Vertices, out.Edges) {
		return mismatch("reported edges are not connected")
	}
	return nil
}

package graph

import (
	"testing"

	"gohypo/domain/ra"
)

func binaryVars(t *testing.T, abbrevs ...string) *ra.VariableList {
	t.Helper()
	vars := make([]ra.Variable, len(abbrevs))
	for i, a := range abbrevs {
		v, err := ra.NewVariable(a, a, 2, false)
		if err != nil {
			t.Fatalf("NewVariable(%s): %v", a, err)
		}
		vars[i] = v
	}
	vl, err := ra.NewVariableList(vars...)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}
	return vl
}

func TestHasLoopsChainIsLoopless(t *testing.T) {
	vl := binaryVars(t, "a", "b", "c")
	m := ra.NewModel(ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")), ra.NewRelation(vl.IndexOf("b"), vl.IndexOf("c")))
	g := BuildInteractionGraph(vl, m)
	if g.HasLoops() {
		t.Error("a chain of two relations should not have loops")
	}
}

func TestHasLoopsTriangleHasLoop(t *testing.T) {
	vl := binaryVars(t, "a", "b", "c", "d")
	ia, ib, ic, id := vl.IndexOf("a"), vl.IndexOf("b"), vl.IndexOf("c"), vl.IndexOf("d")
	m := ra.NewModel(
		ra.NewRelation(ia, ib, id),
		ra.NewRelation(ia, ic, id),
		ra.NewRelation(ib, ic, id),
	)
	g := BuildInteractionGraph(vl, m)
	if !g.HasLoops() {
		t.Error("the ABD:ACD:BCD triangle model should have a loop")
	}
}

func TestBuildJunctionTreeChainIsValid(t *testing.T) {
	vl := binaryVars(t, "a", "b", "c")
	ia, ib, ic := vl.IndexOf("a"), vl.IndexOf("b"), vl.IndexOf("c")
	m := ra.NewModel(ra.NewRelation(ia, ib), ra.NewRelation(ib, ic))

	jt := BuildJunctionTree(vl, m)
	if jt.State != ra.JunctionTreeValid {
		t.Fatalf("expected a valid junction tree for a chain model, got state %v", jt.State)
	}
	if len(jt.Cliques) != 2 {
		t.Fatalf("expected 2 cliques, got %d", len(jt.Cliques))
	}
}

func TestBuildJunctionTreeTriangleIsInvalid(t *testing.T) {
	vl := binaryVars(t, "a", "b", "c", "d")
	ia, ib, ic, id := vl.IndexOf("a"), vl.IndexOf("b"), vl.IndexOf("c"), vl.IndexOf("d")
	m := ra.NewModel(
		ra.NewRelation(ia, ib, id),
		ra.NewRelation(ia, ic, id),
		ra.NewRelation(ib, ic, id),
	)

	jt := BuildJunctionTree(vl, m)
	if jt.State != ra.JunctionTreeInvalid {
		t.Fatalf("ABD:ACD:BCD is not decomposable (no relation holds the clique ABCD), expected an invalid junction tree, got state %v", jt.State)
	}
}

func TestBuildJunctionTreeSingleRelation(t *testing.T) {
	vl := binaryVars(t, "a", "b")
	m := ra.NewModel(ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")))
	jt := BuildJunctionTree(vl, m)
	if jt.State != ra.JunctionTreeValid {
		t.Fatalf("a single-clique model is trivially decomposable, got state %v", jt.State)
	}
	if jt.Root != 0 {
		t.Errorf("expected root 0, got %d", jt.Root)
	}
}

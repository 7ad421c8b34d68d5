package ra

import "testing"

func TestNewRelationSortsAndDeduplicates(t *testing.T) {
	r := NewRelation(3, 1, 1, 2)
	want := []int{1, 2, 3}
	if len(r.Vars) != len(want) {
		t.Fatalf("Vars = %v, want %v", r.Vars, want)
	}
	for i := range want {
		if r.Vars[i] != want[i] {
			t.Errorf("Vars[%d] = %d, want %d", i, r.Vars[i], want[i])
		}
	}
}

func TestRelationContains(t *testing.T) {
	r := NewRelation(1, 3, 5)
	if !r.Contains(3) {
		t.Error("expected Contains(3) true")
	}
	if r.Contains(4) {
		t.Error("expected Contains(4) false")
	}
}

func TestRelationIsSubsetOf(t *testing.T) {
	small := NewRelation(1, 2)
	big := NewRelation(1, 2, 3)
	if !small.IsSubsetOf(big) {
		t.Error("expected {1,2} subset of {1,2,3}")
	}
	if big.IsSubsetOf(small) {
		t.Error("expected {1,2,3} not a subset of {1,2}")
	}
	if !big.IsSubsetOf(big) {
		t.Error("a relation must be a subset of itself")
	}
}

func TestRelationIsProperSubsetOf(t *testing.T) {
	small := NewRelation(1, 2)
	big := NewRelation(1, 2, 3)
	if !small.IsProperSubsetOf(big) {
		t.Error("expected {1,2} proper subset of {1,2,3}")
	}
	if big.IsProperSubsetOf(big) {
		t.Error("a relation must not be a proper subset of itself")
	}
}

func TestRelationIntersect(t *testing.T) {
	a := NewRelation(1, 2, 3)
	b := NewRelation(2, 3, 4)
	got := a.Intersect(b)
	want := []int{2, 3}
	if len(got.Vars) != len(want) {
		t.Fatalf("Intersect = %v, want %v", got.Vars, want)
	}
	for i := range want {
		if got.Vars[i] != want[i] {
			t.Errorf("Intersect[%d] = %d, want %d", i, got.Vars[i], want[i])
		}
	}
}

func TestRelationIntersectDisjoint(t *testing.T) {
	a := NewRelation(1, 2)
	b := NewRelation(3, 4)
	if got := a.Intersect(b); got.Len() != 0 {
		t.Errorf("expected empty intersection, got %v", got.Vars)
	}
	if a.Overlaps(b) {
		t.Error("expected Overlaps false for disjoint relations")
	}
}

func TestRelationUnion(t *testing.T) {
	a := NewRelation(1, 3)
	b := NewRelation(2, 3, 4)
	got := a.Union(b)
	want := []int{1, 2, 3, 4}
	if len(got.Vars) != len(want) {
		t.Fatalf("Union = %v, want %v", got.Vars, want)
	}
	for i := range want {
		if got.Vars[i] != want[i] {
			t.Errorf("Union[%d] = %d, want %d", i, got.Vars[i], want[i])
		}
	}
}

func TestRelationWithout(t *testing.T) {
	r := NewRelation(1, 2, 3)
	got := r.Without(2)
	want := []int{1, 3}
	if len(got.Vars) != len(want) {
		t.Fatalf("Without(2) = %v, want %v", got.Vars, want)
	}
	for i := range want {
		if got.Vars[i] != want[i] {
			t.Errorf("Without(2)[%d] = %d, want %d", i, got.Vars[i], want[i])
		}
	}
}

func TestRelationEqual(t *testing.T) {
	a := NewRelation(1, 2)
	b := NewRelation(2, 1)
	c := NewRelation(1, 3)
	if !a.Equal(b) {
		t.Error("expected {1,2} equal to {2,1} after sorting")
	}
	if a.Equal(c) {
		t.Error("expected {1,2} not equal to {1,3}")
	}
}

func TestRelationDegreesOfFreedom(t *testing.T) {
	a, _ := NewVariable("A", "a", 2, false)
	b, _ := NewVariable("B", "b", 3, false)
	vl, err := NewVariableList(a, b)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}
	r := NewRelation(0, 1)
	if got := r.DegreesOfFreedom(vl); got != 5 {
		t.Errorf("DegreesOfFreedom = %d, want 5 (2*3-1)", got)
	}
}

func TestRelationContainsDependentAndIndependentOnly(t *testing.T) {
	a, _ := NewVariable("A", "a", 2, false)
	b, _ := NewVariable("B", "b", 2, true)
	vl, err := NewVariableList(a, b)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}

	withDep := NewRelation(0, 1)
	if !withDep.ContainsDependent(vl) {
		t.Error("expected ContainsDependent true for a relation including the dependent variable")
	}
	if withDep.IndependentOnly(vl) {
		t.Error("expected IndependentOnly false when the dependent variable is present")
	}

	withoutDep := NewRelation(0)
	if withoutDep.ContainsDependent(vl) {
		t.Error("expected ContainsDependent false")
	}
	if !withoutDep.IndependentOnly(vl) {
		t.Error("expected IndependentOnly true for a relation of only independent variables")
	}
}

func TestRelationPrintNameAlphabetizesAbbreviations(t *testing.T) {
	a, _ := NewVariable("Alpha", "b", 2, false)
	b, _ := NewVariable("Beta", "a", 2, false)
	vl, err := NewVariableList(a, b)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}
	r := NewRelation(0, 1)
	if got := r.PrintName(vl); got != "AB" {
		t.Errorf("PrintName = %q, want %q", got, "AB")
	}
}

package ra

import "testing"

func twoBinaryVars(t *testing.T) (*VariableList, Variable, Variable) {
	t.Helper()
	a, err := NewVariable("A", "a", 2, false)
	if err != nil {
		t.Fatalf("NewVariable a: %v", err)
	}
	b, err := NewVariable("B", "b", 2, false)
	if err != nil {
		t.Fatalf("NewVariable b: %v", err)
	}
	vl, err := NewVariableList(a, b)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}
	return vl, vl.Variable(0), vl.Variable(1)
}

func TestKeySetValueAndGetValueRoundTrip(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k := NewKey(vl)
	k = k.SetValue(a, 1)
	k = k.SetValue(b, 0)

	if got := k.GetValue(a); got != 1 {
		t.Errorf("GetValue(a) = %d, want 1", got)
	}
	if got := k.GetValue(b); got != 0 {
		t.Errorf("GetValue(b) = %d, want 0", got)
	}
}

func TestKeySetValueDoesNotDisturbOtherVariables(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k := NewKey(vl)
	k = k.SetValue(a, 1)
	k = k.SetValue(b, 1)
	k = k.SetValue(a, 0)

	if got := k.GetValue(a); got != 0 {
		t.Errorf("GetValue(a) after overwrite = %d, want 0", got)
	}
	if got := k.GetValue(b); got != 1 {
		t.Errorf("GetValue(b) should be untouched by a's overwrite, got %d, want 1", got)
	}
}

func TestKeyEqual(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k1 := NewKey(vl).SetValue(a, 1).SetValue(b, 0)
	k2 := NewKey(vl).SetValue(a, 1).SetValue(b, 0)
	k3 := NewKey(vl).SetValue(a, 0).SetValue(b, 1)

	if !k1.Equal(k2) {
		t.Error("k1 and k2 have identical segments but Equal returned false")
	}
	if k1.Equal(k3) {
		t.Error("k1 and k3 differ but Equal returned true")
	}
}

func TestKeyLessIsLexicographicOverSegments(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	low := NewKey(vl).SetValue(a, 0).SetValue(b, 0)
	high := NewKey(vl).SetValue(a, 1).SetValue(b, 0)

	if !low.Less(high) {
		t.Error("expected low < high")
	}
	if high.Less(low) {
		t.Error("expected high not < low")
	}
	if low.Less(low) {
		t.Error("a key must not be Less than itself")
	}
}

func TestKeyCloneIsIndependent(t *testing.T) {
	vl, a, _ := twoBinaryVars(t)
	k := NewKey(vl).SetValue(a, 1)
	clone := k.Clone()
	clone = clone.SetValue(a, 0)

	if k.GetValue(a) != 1 {
		t.Error("mutating the clone's segments mutated the original key")
	}
}

func TestBuildKeySetsOnlyGivenPairs(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k := BuildKey(vl, map[int]uint32{0: 1})

	if got := k.GetValue(a); got != 1 {
		t.Errorf("BuildKey: GetValue(a) = %d, want 1", got)
	}
	if got := k.GetValue(b); got != 0 {
		t.Errorf("BuildKey: unset variable b should default to 0, got %d", got)
	}
}

func TestMaskForAndApplyMaskZeroOutComplement(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k := NewKey(vl).SetValue(a, 1).SetValue(b, 1)

	mask := MaskFor(vl, []int{0})
	projected := ApplyMask(k, mask)

	if got := projected.GetValue(a); got != 1 {
		t.Errorf("projected a = %d, want 1", got)
	}
	if got := projected.GetValue(b); got != 0 {
		t.Errorf("projected b should be masked out to 0, got %d", got)
	}
}

func TestApplyMaskWithFullMaskIsIdentity(t *testing.T) {
	vl, a, b := twoBinaryVars(t)
	k := NewKey(vl).SetValue(a, 1).SetValue(b, 1)
	full := MaskFor(vl, []int{0, 1})

	if !ApplyMask(k, full).Equal(k) {
		t.Error("applying the full mask should leave the key unchanged")
	}
}

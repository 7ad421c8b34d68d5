package ingest

import (
	"math"
	"testing"

	"gohypo/domain/ra"
)

func TestBuildAccumulatesAndNormalizes(t *testing.T) {
	ds := Dataset{
		Name: "toy",
		Variables: []VariableSpec{
			{Name: "Alpha", Abbrev: "a", Cardinality: 2},
			{Name: "Beta", Abbrev: "b", Cardinality: 2},
		},
		Rows: [][]int{
			{0, 0},
			{0, 0},
			{0, 1},
			{1, 1},
		},
		Counts: []float64{3, 1, 2, 4},
	}

	vl, table, n, err := Build(ds)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != 10 {
		t.Errorf("expected total count 10, got %g", n)
	}
	if got := table.Sum(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected normalized table to sum to 1, got %g", got)
	}

	key := ra.NewKey(vl)
	key = key.SetValue(vl.Variable(0), 0)
	key = key.SetValue(vl.Variable(1), 0)
	v, ok := table.Find(key)
	if !ok {
		t.Fatal("expected cell (0,0) to be present")
	}
	if math.Abs(v-0.4) > 1e-12 {
		t.Errorf("expected cell (0,0) = 0.4, got %g", v)
	}
}

func TestBuildRowLengthMismatch(t *testing.T) {
	ds := Dataset{
		Variables: []VariableSpec{{Name: "Alpha", Abbrev: "a", Cardinality: 2}},
		Rows:      [][]int{{0, 1}},
		Counts:    []float64{1},
	}
	if _, _, _, err := Build(ds); err == nil {
		t.Fatal("expected a row-length-mismatch error")
	}
}

func TestBuildRowsCountsLengthMismatch(t *testing.T) {
	ds := Dataset{
		Variables: []VariableSpec{{Name: "Alpha", Abbrev: "a", Cardinality: 2}},
		Rows:      [][]int{{0}, {1}},
		Counts:    []float64{1},
	}
	if _, _, _, err := Build(ds); err == nil {
		t.Fatal("expected a rows/counts length mismatch error")
	}
}

func TestBuildCardinalityOutOfRange(t *testing.T) {
	ds := Dataset{
		Variables: []VariableSpec{{Name: "Alpha", Abbrev: "a", Cardinality: 2}},
		Rows:      [][]int{{2}},
		Counts:    []float64{1},
	}
	if _, _, _, err := Build(ds); err == nil {
		t.Fatal("expected a cardinality-out-of-range error")
	}
}

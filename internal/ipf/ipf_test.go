package ipf

import (
	"math"
	"testing"

	"gohypo/domain/ra"
)

func chainFixture(t *testing.T) (*ra.VariableList, *ra.ContingencyTable, ra.Model) {
	t.Helper()
	a, _ := ra.NewVariable("A", "a", 2, false)
	b, _ := ra.NewVariable("B", "b", 2, false)
	c, _ := ra.NewVariable("C", "c", 2, false)
	vl, err := ra.NewVariableList(a, b, c)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}

	// Eight unequally-weighted joint cells over ABC, enough to exercise a
	// non-trivial fit without being degenerate.
	table := ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic)
	counts := []float64{40, 10, 5, 45, 20, 30, 35, 15}
	i := 0
	for av := 0; av < 2; av++ {
		for bv := 0; bv < 2; bv++ {
			for cv := 0; cv < 2; cv++ {
				key := ra.NewKey(vl)
				key = key.SetValue(vl.Variable(0), uint32(av))
				key = key.SetValue(vl.Variable(1), uint32(bv))
				key = key.SetValue(vl.Variable(2), uint32(cv))
				table.Add(key, counts[i])
				i++
			}
		}
	}
	table.SortAndCombine()
	table.Normalize()

	m := ra.NewModel(ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")), ra.NewRelation(vl.IndexOf("b"), vl.IndexOf("c")))
	return vl, table, m
}

func TestFitMatchesMarginals(t *testing.T) {
	vl, p, m := chainFixture(t)
	cfg := Config{MaxIterations: 200, ConvergenceThreshold: 1e-9, ProgressInterval: 10}

	result, err := Fit(vl, p, m, cfg, ra.ProgressConfig{})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !result.Converged {
		t.Fatalf("expected convergence, final error %g after %d iterations", result.FinalError, result.Iterations)
	}

	for _, r := range m.Relations {
		want := p.Project(r.Vars)
		got := result.Q.Project(r.Vars)
		for _, tup := range want.Tuples {
			gv, ok := got.Find(tup.Key)
			if !ok {
				t.Fatalf("fitted marginal missing key present in data marginal for relation %v", r.Vars)
			}
			if math.Abs(gv-tup.Value) > 1e-6 {
				t.Errorf("relation %v: marginal mismatch, want %g got %g", r.Vars, tup.Value, gv)
			}
		}
	}
}

func TestFitZeroMaxIterationsReturnsOrthogonalExpansion(t *testing.T) {
	vl, p, m := chainFixture(t)
	cfg := Config{MaxIterations: 0, ConvergenceThreshold: 1e-6, ProgressInterval: 10}

	result, err := Fit(vl, p, m, cfg, ra.ProgressConfig{})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !result.Converged {
		t.Error("max_iterations=0 should report converged: true")
	}
	if result.Iterations != 0 {
		t.Errorf("expected 0 iterations, got %d", result.Iterations)
	}

	want := p.Project(m.Relations[0].Vars).Extend(allVars(vl))
	for _, tup := range want.Tuples {
		gv, ok := result.Q.Find(tup.Key)
		if !ok || math.Abs(gv-tup.Value) > 1e-12 {
			t.Errorf("expected orthogonal expansion to be returned unchanged at key %v", tup.Key)
		}
	}
}

func TestFitSaturatedModelReturnsDataUnchanged(t *testing.T) {
	vl, p, _ := chainFixture(t)
	saturated := ra.NewModel(ra.NewRelation(0, 1, 2))
	cfg := Config{MaxIterations: 100, ConvergenceThreshold: 1e-9, ProgressInterval: 10}

	result, err := Fit(vl, p, saturated, cfg, ra.ProgressConfig{})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if result.Q != p {
		t.Error("a saturated model should return the observed table unchanged")
	}
}

func TestFitEmptyModelIsUniform(t *testing.T) {
	vl, _, _ := chainFixture(t)
	cfg := Config{MaxIterations: 100, ConvergenceThreshold: 1e-9, ProgressInterval: 10}

	result, err := Fit(vl, ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic), ra.Model{}, cfg, ra.ProgressConfig{})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	want := 1.0 / float64(vl.StateSpaceSize())
	for _, tup := range result.Q.Tuples {
		if math.Abs(tup.Value-want) > 1e-12 {
			t.Errorf("expected uniform value %g, got %g", want, tup.Value)
		}
	}
}

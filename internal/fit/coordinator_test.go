package fit

import (
	"math"
	"testing"

	"gohypo/domain/ra"
	"gohypo/internal/ipf"
)

func chainFixture(t *testing.T) (*ra.VariableList, *ra.ContingencyTable, float64, ra.Model) {
	t.Helper()
	a, _ := ra.NewVariable("A", "a", 2, false)
	b, _ := ra.NewVariable("B", "b", 2, false)
	c, _ := ra.NewVariable("C", "c", 2, false)
	vl, err := ra.NewVariableList(a, b, c)
	if err != nil {
		t.Fatalf("NewVariableList: %v", err)
	}

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
	n := table.Sum()
	table.Normalize()

	m := ra.NewModel(ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")), ra.NewRelation(vl.IndexOf("b"), vl.IndexOf("c")))
	return vl, table, n, m
}

func testConfig() Config {
	return Config{
		IPF: ipf.Config{MaxIterations: 200, ConvergenceThreshold: 1e-9, ProgressInterval: 50},
	}
}

func TestFitLooplessModelRoutesThroughBPAndIsSane(t *testing.T) {
	vl, data, n, m := chainFixture(t)
	c := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)

	result, err := c.Fit(m)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if result.HasLoops {
		t.Error("the chain model ab:bc has no loops, HasLoops should be false")
	}
	if !result.Converged {
		t.Error("belief propagation always reports converged")
	}
	if result.DF <= 0 {
		t.Errorf("expected positive degrees of freedom for a non-saturated model, got %d", result.DF)
	}
	if result.LR < -1e-9 {
		t.Errorf("LR should be non-negative, got %g", result.LR)
	}
	if math.IsNaN(result.Alpha) || result.Alpha < 0 || result.Alpha > 1 {
		t.Errorf("expected Alpha in [0,1], got %g", result.Alpha)
	}
}

func TestFitLoopyModelRoutesThroughIPF(t *testing.T) {
	vl, data, n, _ := chainFixture(t)
	loopy := ra.NewModel(
		ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")),
		ra.NewRelation(vl.IndexOf("b"), vl.IndexOf("c")),
		ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("c")),
	)
	c := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)

	result, err := c.Fit(loopy)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !result.HasLoops {
		t.Error("ab:bc:ac over three variables has a loop, HasLoops should be true")
	}
	if !result.Converged {
		t.Errorf("expected IPF convergence, final error %g", result.IPFFinalError)
	}
	if result.IPFIterations <= 0 {
		t.Error("expected a positive iteration count from the IPF path")
	}
}

func TestFitSaturatedModelHasZeroLR(t *testing.T) {
	vl, data, n, _ := chainFixture(t)
	c := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)

	result, err := c.Fit(c.TopRef)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.Abs(result.LR) > 1e-6 {
		t.Errorf("the saturated model should fit data exactly, expected LR near 0, got %g", result.LR)
	}
	if want := int(vl.StateSpaceSize()) - 1; result.DF != want {
		t.Errorf("the saturated model's degrees of freedom should be the state space minus one (%d), got %d", want, result.DF)
	}
}

func TestFitCachesByCanonicalName(t *testing.T) {
	vl, data, n, m := chainFixture(t)
	c := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)

	first, err := c.Fit(m)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(c.cache) != 1 {
		t.Fatalf("expected one cache entry after a single fit, got %d", len(c.cache))
	}

	second, err := c.Fit(m)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if first != second {
		t.Error("fitting the same model twice should return the cached pointer")
	}
}

func TestCloneHasIndependentCache(t *testing.T) {
	vl, data, n, m := chainFixture(t)
	c := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)
	clone := c.Clone()

	if _, err := clone.Fit(m); err != nil {
		t.Fatalf("Fit on clone: %v", err)
	}
	if len(clone.cache) != 1 {
		t.Fatalf("expected the clone's cache to hold one entry, got %d", len(clone.cache))
	}
	if len(c.cache) != 0 {
		t.Errorf("the original coordinator's cache should remain empty after the clone fits, got %d entries", len(c.cache))
	}
}

func TestDeltaDFDependsOnDirection(t *testing.T) {
	vl, data, n, _ := chainFixture(t)
	// AB:C (df 4) sits off the midpoint between independence (df 3) and
	// saturation (df 7), so the two directions give different DeltaDF
	// values (1 and 3). The chain AB:BC (df 5) gives 2 in both.
	m := ra.NewModel(ra.NewRelation(vl.IndexOf("a"), vl.IndexOf("b")), ra.NewRelation(vl.IndexOf("c")))

	ascending := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Ascending)
	descending := NewCoordinator(vl, data, n, testConfig(), ra.ProgressConfig{}, Descending)

	ascResult, err := ascending.Fit(m)
	if err != nil {
		t.Fatalf("Fit (ascending): %v", err)
	}
	descResult, err := descending.Fit(m)
	if err != nil {
		t.Fatalf("Fit (descending): %v", err)
	}

	wantAsc := ascResult.DF - ascending.BottomRef.DegreesOfFreedom(vl)
	wantDesc := ascending.TopRef.DegreesOfFreedom(vl) - descResult.DF

	if ascResult.DeltaDF != wantAsc {
		t.Errorf("ascending DeltaDF: want %d, got %d", wantAsc, ascResult.DeltaDF)
	}
	if descResult.DeltaDF != wantDesc {
		t.Errorf("descending DeltaDF: want %d, got %d", wantDesc, descResult.DeltaDF)
	}
	if ascResult.DeltaDF == descResult.DeltaDF {
		t.Error("expected ascending and descending DeltaDF to differ on a non-trivial model")
	}
}

// Package testfixtures builds the concrete variable lists and contingency
// tables used as calibration and regression data across the other
// packages' test suites (§8 "Concrete scenarios").
package testfixtures

import (
	"math/rand"

	"github.com/montanaflynn/stats"

	"gohypo/domain/ra"
)

// ChainFixture builds the 3-variable binary chain AB:BC calibration
// dataset (§8 scenario (1)): variables A, B, C all cardinality 2, with
// the eight reference cell values. They already sum to 1, so the
// returned table's mass (N) is 1.
func ChainFixture() (*ra.VariableList, *ra.ContingencyTable, float64) {
	a, _ := ra.NewVariable("A", "a", 2, false)
	b, _ := ra.NewVariable("B", "b", 2, false)
	c, _ := ra.NewVariable("C", "c", 2, false)
	vl, err := ra.NewVariableList(a, b, c)
	if err != nil {
		panic(err)
	}

	// Cell order: 000, 001, 010, 011, 100, 101, 110, 111.
	cells := []float64{0.25, 0.05, 0.10, 0.15, 0.05, 0.10, 0.15, 0.15}

	table := ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic)
	i := 0
	for av := uint32(0); av < 2; av++ {
		for bv := uint32(0); bv < 2; bv++ {
			for cv := uint32(0); cv < 2; cv++ {
				key := ra.NewKey(vl)
				key = key.SetValue(a, av)
				key = key.SetValue(b, bv)
				key = key.SetValue(c, cv)
				table.Add(key, cells[i])
				i++
			}
		}
	}
	table.SortAndCombine()
	n := table.Sum()
	table.Normalize()
	return vl, table, n
}

// ChainModel is the model under test for the chain fixture, canonical name
// "AB:BC" (§8 scenario (1)).
func ChainModel() ra.Model {
	return ra.NewModel(ra.NewRelation(0, 1), ra.NewRelation(1, 2))
}

// IndependenceFixture builds an independence dataset over n binary
// variables, each with its own marginal probability of the 1 state, by
// enumerating every cell and setting it to the exact product of the
// per-variable marginals (§8 scenario (3)). No sampling is done, so the
// result is the same for every seed; seed is not used.
func IndependenceFixture(seed int64, probs []float64) (*ra.VariableList, *ra.ContingencyTable, float64) {
	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"}
	vars := make([]ra.Variable, len(probs))
	for i := range probs {
		v, err := ra.NewVariable(names[i], names[i][:1], 2, false)
		if err != nil {
			panic(err)
		}
		vars[i] = v
	}
	vl, err := ra.NewVariableList(vars...)
	if err != nil {
		panic(err)
	}

	table := ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic)
	assignment := make([]uint32, len(probs))
	for {
		p := 1.0
		key := ra.NewKey(vl)
		for i, prob := range probs {
			if assignment[i] == 1 {
				p *= prob
			} else {
				p *= 1 - prob
			}
			key = key.SetValue(vl.Variable(i), assignment[i])
		}
		table.Add(key, p)
		if !incrementBinary(assignment) {
			break
		}
	}
	table.SortAndCombine()
	n := table.Sum()
	table.Normalize()
	_ = rand.New(rand.NewSource(seed)) // reserved for future noise injection
	return vl, table, n
}

func incrementBinary(a []uint32) bool {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] == 0 {
			a[i] = 1
			return true
		}
		a[i] = 0
	}
	return false
}

// IndependenceModel returns the all-singletons model for a variable list
// of the given size, i.e. the independence model (§8 scenario (3)).
func IndependenceModel(numVars int) ra.Model {
	relations := make([]ra.Relation, numVars)
	for i := range relations {
		relations[i] = ra.NewRelation(i)
	}
	return ra.NewModel(relations...)
}

// TriangleFixture builds a synthetic 4-variable binary dataset (A, B, C,
// D) shaped so that ABD:ACD:BCD is a substantially better fit than the
// independence model, standing in for the reference `fit.in` sample used
// in §8 scenario (2). The original sample data is not available in this
// environment, so this generates a reproducible dataset of the requested
// size from a seeded RNG rather than reproducing the legacy sample
// verbatim; see DESIGN.md for why the literal reference digits (H, T, LR)
// from that scenario are not pinned as exact-value tests here.
func TriangleFixture(n int, seed int64) (*ra.VariableList, *ra.ContingencyTable, float64) {
	a, _ := ra.NewVariable("A", "a", 2, false)
	b, _ := ra.NewVariable("B", "b", 2, false)
	c, _ := ra.NewVariable("C", "c", 2, false)
	d, _ := ra.NewVariable("D", "d", 2, false)
	vl, err := ra.NewVariableList(a, b, c, d)
	if err != nil {
		panic(err)
	}

	rng := rand.New(rand.NewSource(seed))
	table := ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic)
	for i := 0; i < n; i++ {
		av := uint32(rng.Intn(2))
		bv := uint32(rng.Intn(2))
		cv := uint32(rng.Intn(2))
		// D leans toward matching B XOR C, coupling D into both three-way
		// relations BCD and into ACD/ABD transitively through B and C.
		dv := bv ^ cv
		if rng.Float64() < 0.15 {
			dv ^= 1
		}
		key := ra.NewKey(vl)
		key = key.SetValue(a, av)
		key = key.SetValue(b, bv)
		key = key.SetValue(c, cv)
		key = key.SetValue(d, dv)
		table.Add(key, 1)
	}
	table.SortAndCombine()
	total := table.Sum()
	table.Normalize()
	return vl, table, total
}

// TriangleModel is the ABD:ACD:BCD model from §8 scenario (2).
func TriangleModel() ra.Model {
	return ra.NewModel(
		ra.NewRelation(0, 1, 3),
		ra.NewRelation(0, 2, 3),
		ra.NewRelation(1, 2, 3),
	)
}

// DescribeCellValues reports the mean and standard deviation of a table's
// stored cell values, for diagnostic logging alongside a fixture.
func DescribeCellValues(t *ra.ContingencyTable) (mean, stdDev float64, err error) {
	values := t.Values()
	mean, err = stats.Mean(values)
	if err != nil {
		return 0, 0, err
	}
	stdDev, err = stats.StandardDeviation(values)
	if err != nil {
		return 0, 0, err
	}
	return mean, stdDev, nil
}

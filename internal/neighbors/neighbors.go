// Package neighbors generates the candidate successor models of a seed
// model for the beam search driver: Loopless, Full, Disjoint, and Chain
// filters, each in an ascending (add associations) or descending (remove
// associations) direction (§4.9).
package neighbors

import (
	"gohypo/domain/ra"
	"gohypo/internal/graph"
)

// Filter selects which neighbor-generation rule produces candidates from a
// seed model. The four variants are a closed, fixed-size set, so dispatch
// is a plain switch rather than an interface hierarchy (§9 "Dynamic
// dispatch over filters").
type Filter int

const (
	Loopless Filter = iota
	Full
	Disjoint
	Chain
)

// Direction controls whether a filter adds associations (Ascending) or
// removes them (Descending).
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Generate returns seed's neighbors under filter/dir, deduplicated by
// canonical model name and canonically simplified (§4.9 "Output
// contract"). Chain ignores seed and dir: it has no notion of a neighbor
// and generates its whole set once per call.
func Generate(vl *ra.VariableList, seed ra.Model, filter Filter, dir Direction) []ra.Model {
	var raw []ra.Model
	switch filter {
	case Loopless:
		raw = looplessNeighbors(vl, seed, dir)
	case Full:
		raw = fullNeighbors(vl, seed, dir)
	case Disjoint:
		raw = disjointNeighbors(vl, seed, dir)
	case Chain:
		raw = GenerateAllChains(vl)
	}
	return dedupByName(vl, raw)
}

func dedupByName(vl *ra.VariableList, models []ra.Model) []ra.Model {
	seen := make(map[string]bool, len(models))
	out := make([]ra.Model, 0, len(models))
	for _, m := range models {
		name := m.PrintName(vl)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, m)
	}
	return out
}

// relationsContaining returns the indices into m.Relations of every
// relation that includes variable v.
func relationsContaining(m ra.Model, v int) []int {
	var out []int
	for i, r := range m.Relations {
		if r.Contains(v) {
			out = append(out, i)
		}
	}
	return out
}

// withoutIndices returns m's relations with the given indices excluded.
func withoutIndices(m ra.Model, exclude ...int) []ra.Relation {
	skip := make(map[int]bool, len(exclude))
	for _, i := range exclude {
		skip[i] = true
	}
	out := make([]ra.Relation, 0, len(m.Relations))
	for i, r := range m.Relations {
		if !skip[i] {
			out = append(out, r)
		}
	}
	return out
}

func looplessNeighbors(vl *ra.VariableList, seed ra.Model, dir Direction) []ra.Model {
	if vl.IsDirected() {
		return directedNeighbors(vl, seed, dir, true)
	}
	if dir == Ascending {
		return neutralAscending(vl, seed, true)
	}
	return neutralDescending(vl, seed, true)
}

func fullNeighbors(vl *ra.VariableList, seed ra.Model, dir Direction) []ra.Model {
	if vl.IsDirected() {
		return directedNeighbors(vl, seed, dir, false)
	}
	if dir == Ascending {
		out := neutralAscending(vl, seed, false)
		out = append(out, newPairwiseRelations(vl, seed)...)
		return out
	}
	return neutralDescending(vl, seed, false)
}

// neutralAscending implements §4.9 "Loopless - neutral, ascending": for
// every pair of variables not already co-occurring, merge each pair of
// their (distinct) containing relations. When loopCheck is true (the
// Loopless filter), candidates that introduce a cycle are discarded; Full
// skips that check.
func neutralAscending(vl *ra.VariableList, seed ra.Model, loopCheck bool) []ra.Model {
	n := vl.Len()
	var out []ra.Model
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if coOccur(seed, i, j) {
				continue
			}
			for _, ri := range relationsContaining(seed, i) {
				for _, rj := range relationsContaining(seed, j) {
					if ri == rj {
						continue
					}
					merged := seed.Relations[ri].Union(seed.Relations[rj])
					rest := withoutIndices(seed, ri, rj)
					candidate := ra.NewModel(append(append([]ra.Relation{}, rest...), merged)...)
					if loopCheck && graph.BuildInteractionGraph(vl, candidate).HasLoops() {
						continue
					}
					out = append(out, candidate)
				}
			}
		}
	}
	return out
}

// neutralDescending implements §4.9 "Loopless - neutral, descending"
// (Krippendorff): for every pair of variables co-occurring in exactly one
// relation R with |R| >= 3, split R into R\{i} and R\{j}.
func neutralDescending(vl *ra.VariableList, seed ra.Model, loopCheck bool) []ra.Model {
	n := vl.Len()
	var out []ra.Model
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			containing := coOccurringRelations(seed, i, j)
			if len(containing) != 1 {
				continue
			}
			rIdx := containing[0]
			r := seed.Relations[rIdx]
			if r.Len() < 3 {
				continue
			}
			rest := withoutIndices(seed, rIdx)
			candidate := ra.NewModel(append(append([]ra.Relation{}, rest...), r.Without(i), r.Without(j))...)
			if loopCheck && graph.BuildInteractionGraph(vl, candidate).HasLoops() {
				continue
			}
			out = append(out, candidate)
		}
	}
	return out
}

// directedNeighbors implements §4.9 "Loopless - directed": grow or shrink
// the predictive relation (the unique relation containing the dependent
// variable and at least one independent variable) one IV at a time.
func directedNeighbors(vl *ra.VariableList, seed ra.Model, dir Direction, loopCheck bool) []ra.Model {
	dv := vl.DependentIndex()
	predIdx := -1
	for i, r := range seed.Relations {
		if r.Contains(dv) && r.Len() >= 2 {
			predIdx = i
			break
		}
	}
	if predIdx == -1 {
		return nil
	}
	pred := seed.Relations[predIdx]
	rest := withoutIndices(seed, predIdx)

	var out []ra.Model
	if dir == Ascending {
		for i := 0; i < vl.Len(); i++ {
			if i == dv || pred.Contains(i) {
				continue
			}
			grown := ra.NewRelation(append(append([]int{}, pred.Vars...), i)...)
			candidate := ra.NewModel(append(append([]ra.Relation{}, rest...), grown)...)
			if loopCheck && graph.BuildInteractionGraph(vl, candidate).HasLoops() {
				continue
			}
			out = append(out, candidate)
		}
		return out
	}

	for _, iv := range pred.Vars {
		if iv == dv {
			continue
		}
		shrunk := pred.Without(iv)
		if shrunk.Len() == 0 {
			continue
		}
		candidate := ra.NewModel(append(append([]ra.Relation{}, rest...), shrunk)...)
		if loopCheck && graph.BuildInteractionGraph(vl, candidate).HasLoops() {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// newPairwiseRelations implements the Full filter's extra ascending move:
// adding a brand-new two-variable relation for any pair not already
// co-occurring, rather than merging their existing containing relations.
func newPairwiseRelations(vl *ra.VariableList, seed ra.Model) []ra.Model {
	n := vl.Len()
	var out []ra.Model
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if coOccur(seed, i, j) {
				continue
			}
			candidate := ra.NewModel(append(append([]ra.Relation{}, seed.Relations...), ra.NewRelation(i, j))...)
			out = append(out, candidate)
		}
	}
	return out
}

// disjointNeighbors implements §4.9 "Disjoint": ascending merges two whole
// relations; descending splits one relation into a singleton plus the
// rest. Both moves preserve disjointness automatically since the model is
// disjoint to begin with and only the touched relation(s) change.
func disjointNeighbors(vl *ra.VariableList, seed ra.Model, dir Direction) []ra.Model {
	var out []ra.Model
	if dir == Ascending {
		for i := 0; i < len(seed.Relations); i++ {
			for j := i + 1; j < len(seed.Relations); j++ {
				merged := seed.Relations[i].Union(seed.Relations[j])
				rest := withoutIndices(seed, i, j)
				out = append(out, ra.NewModel(append(append([]ra.Relation{}, rest...), merged)...))
			}
		}
		return out
	}

	for i, r := range seed.Relations {
		if r.Len() < 2 {
			continue
		}
		rest := withoutIndices(seed, i)
		for _, v := range r.Vars {
			out = append(out, ra.NewModel(append(append([]ra.Relation{}, rest...), ra.NewRelation(v), r.Without(v))...))
		}
	}
	return out
}

// coOccur reports whether i and j share any relation in m.
func coOccur(m ra.Model, i, j int) bool {
	return len(coOccurringRelations(m, i, j)) > 0
}

// coOccurringRelations returns the indices of every relation containing
// both i and j.
func coOccurringRelations(m ra.Model, i, j int) []int {
	var out []int
	for idx, r := range m.Relations {
		if r.Contains(i) && r.Contains(j) {
			out = append(out, idx)
		}
	}
	return out
}

// GenerateAllChains enumerates every linear ordering of vl's variables via
// Heap's algorithm and returns one model per distinct chain, treating a
// chain and its reverse as the same chain (§4.9, §8 "Chain enumeration for
// 4 variables").
func GenerateAllChains(vl *ra.VariableList) []ra.Model {
	n := vl.Len()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	seen := make(map[string]bool)
	var models []ra.Model

	emit := func(order []int) {
		key := chainKey(order)
		revKey := chainKey(reversed(order))
		if seen[key] || seen[revKey] {
			return
		}
		seen[key] = true
		relations := make([]ra.Relation, 0, n-1)
		for i := 0; i+1 < n; i++ {
			relations = append(relations, ra.NewRelation(order[i], order[i+1]))
		}
		models = append(models, ra.NewModel(relations...))
	}

	heapsAlgorithm(perm, n, emit)
	return models
}

func chainKey(order []int) string {
	b := make([]byte, 0, len(order)*2)
	for _, v := range order {
		b = append(b, byte(v>>8), byte(v))
	}
	return string(b)
}

func reversed(order []int) []int {
	out := make([]int, len(order))
	for i, v := range order {
		out[len(order)-1-i] = v
	}
	return out
}

// heapsAlgorithm enumerates all permutations of perm[:k] in place, calling
// emit on each complete permutation.
func heapsAlgorithm(perm []int, k int, emit func([]int)) {
	if k == 1 {
		emit(append([]int{}, perm...))
		return
	}
	for i := 0; i < k; i++ {
		heapsAlgorithm(perm, k-1, emit)
		if k%2 == 0 {
			perm[i], perm[k-1] = perm[k-1], perm[i]
		} else {
			perm[0], perm[k-1] = perm[k-1], perm[0]
		}
	}
}

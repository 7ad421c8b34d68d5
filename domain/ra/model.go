package ra

import (
	"strings"
)

// Model is an unordered set of relations, normalized by removing any
// relation that is a proper subset of another (§3, §4.3).
type Model struct {
	Relations []Relation
}

// NewModel builds a normalized model from a set of relations.
func NewModel(relations ...Relation) Model {
	m := Model{Relations: relations}
	m.normalize()
	return m
}

// normalize removes relations that are proper subsets of another relation in
// the same model and collapses exact duplicates, preserving the relative
// order the surviving relations first appeared in (§6: "relations ordered
// as they appear after duplicate-removal").
func (m *Model) normalize() {
	keep := make([]bool, len(m.Relations))
	for i := range keep {
		keep[i] = true
	}
	for i, ri := range m.Relations {
		if !keep[i] {
			continue
		}
		for j, rj := range m.Relations {
			if i == j || !keep[j] {
				continue
			}
			if ri.IsProperSubsetOf(rj) {
				keep[i] = false
				break
			}
			if ri.Equal(rj) && j < i {
				keep[i] = false
				break
			}
		}
	}
	out := make([]Relation, 0, len(m.Relations))
	for i, r := range m.Relations {
		if keep[i] {
			out = append(out, r)
		}
	}
	m.Relations = out
}

// PrintName renders the canonical model notation: relations joined by ":",
// each relation's abbreviations alphabetized (§3, §6).
func (m Model) PrintName(vl *VariableList) string {
	names := make([]string, len(m.Relations))
	for i, r := range m.Relations {
		names[i] = r.PrintName(vl)
	}
	return strings.Join(names, ":")
}

// IsSaturated reports whether the model is a single relation spanning all
// variables.
func (m Model) IsSaturated(vl *VariableList) bool {
	return len(m.Relations) == 1 && m.Relations[0].Len() == vl.Len()
}

// IsIndependence reports whether every relation is a singleton and every
// variable is present in exactly one relation.
func (m Model) IsIndependence(vl *VariableList) bool {
	if len(m.Relations) != vl.Len() {
		return false
	}
	seen := make(map[int]bool, vl.Len())
	for _, r := range m.Relations {
		if r.Len() != 1 {
			return false
		}
		if seen[r.Vars[0]] {
			return false
		}
		seen[r.Vars[0]] = true
	}
	return len(seen) == vl.Len()
}

// IsChain reports whether the model has at least one relation and every
// relation has exactly two variables. It does not check that the pairs link
// up into a single path of consecutive variables. A model produced by the
// chain neighbor generator (§4.9) is such a path by construction.
func (m Model) IsChain() bool {
	for _, r := range m.Relations {
		if r.Len() != 2 {
			return false
		}
	}
	return len(m.Relations) > 0
}

// DegreesOfFreedom computes the model's degrees of freedom per §4.3:
// saturated -> state space minus one; independence -> sum of (cardinality-1);
// otherwise second-order inclusion-exclusion over pairwise relation
// intersections. This stops at second order deliberately and does not
// correct for triple-and-higher overlaps; see DESIGN.md for the known +1
// discrepancy this produces on some loop-triangle models.
func (m Model) DegreesOfFreedom(vl *VariableList) int {
	switch {
	case m.IsSaturated(vl):
		return int(vl.StateSpaceSize()) - 1
	case m.IsIndependence(vl):
		sum := 0
		for _, r := range m.Relations {
			sum += r.DegreesOfFreedom(vl)
		}
		return sum
	default:
		return m.inclusionExclusionDF(vl)
	}
}

func (m Model) inclusionExclusionDF(vl *VariableList) int {
	df := 0
	for _, r := range m.Relations {
		df += r.DegreesOfFreedom(vl) + 1 // states, not DF, accumulate first
	}
	df -= len(m.Relations)

	for i := 0; i < len(m.Relations); i++ {
		for j := i + 1; j < len(m.Relations); j++ {
			inter := m.Relations[i].Intersect(m.Relations[j])
			if inter.Len() == 0 {
				continue
			}
			states := 1
			for _, idx := range inter.Vars {
				states *= vl.Variable(idx).Cardinality
			}
			df -= states - 1
		}
	}
	return df
}

// Clone returns a deep copy of the model.
func (m Model) Clone() Model {
	out := Model{Relations: make([]Relation, len(m.Relations))}
	for i, r := range m.Relations {
		vars := make([]int, len(r.Vars))
		copy(vars, r.Vars)
		out.Relations[i] = Relation{Vars: vars}
	}
	return out
}

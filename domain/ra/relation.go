package ra

import (
	"sort"
	"strings"
)

// Relation is a sorted vector of distinct variable indices: a subset of
// variables whose joint marginal is preserved by a model (§3, §4.3).
type Relation struct {
	Vars []int
}

// NewRelation builds a relation from a set of variable indices, sorting and
// deduplicating them.
func NewRelation(vars ...int) Relation {
	uniq := make(map[int]struct{}, len(vars))
	for _, v := range vars {
		uniq[v] = struct{}{}
	}
	out := make([]int, 0, len(uniq))
	for v := range uniq {
		out = append(out, v)
	}
	sort.Ints(out)
	return Relation{Vars: out}
}

// Len returns the number of variables in the relation.
func (r Relation) Len() int { return len(r.Vars) }

// Contains reports whether the relation includes variable index v.
func (r Relation) Contains(v int) bool {
	i := sort.SearchInts(r.Vars, v)
	return i < len(r.Vars) && r.Vars[i] == v
}

// IsSubsetOf reports whether every variable of r also belongs to other.
func (r Relation) IsSubsetOf(other Relation) bool {
	if len(r.Vars) > len(other.Vars) {
		return false
	}
	for _, v := range r.Vars {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// IsProperSubsetOf reports subset-ness with strict size inequality.
func (r Relation) IsProperSubsetOf(other Relation) bool {
	return len(r.Vars) < len(other.Vars) && r.IsSubsetOf(other)
}

// Intersect returns the two-pointer merge intersection of two sorted
// relations.
func (r Relation) Intersect(other Relation) Relation {
	var out []int
	i, j := 0, 0
	for i < len(r.Vars) && j < len(other.Vars) {
		switch {
		case r.Vars[i] == other.Vars[j]:
			out = append(out, r.Vars[i])
			i++
			j++
		case r.Vars[i] < other.Vars[j]:
			i++
		default:
			j++
		}
	}
	return Relation{Vars: out}
}

// Union returns the two-pointer merge union of two sorted relations.
func (r Relation) Union(other Relation) Relation {
	var out []int
	i, j := 0, 0
	for i < len(r.Vars) && j < len(other.Vars) {
		switch {
		case r.Vars[i] == other.Vars[j]:
			out = append(out, r.Vars[i])
			i++
			j++
		case r.Vars[i] < other.Vars[j]:
			out = append(out, r.Vars[i])
			i++
		default:
			out = append(out, other.Vars[j])
			j++
		}
	}
	out = append(out, r.Vars[i:]...)
	out = append(out, other.Vars[j:]...)
	return Relation{Vars: out}
}

// Overlaps reports whether the two relations share at least one variable.
func (r Relation) Overlaps(other Relation) bool {
	return r.Intersect(other).Len() > 0
}

// Without returns r with the given variable removed, if present.
func (r Relation) Without(v int) Relation {
	out := make([]int, 0, len(r.Vars))
	for _, x := range r.Vars {
		if x != v {
			out = append(out, x)
		}
	}
	return Relation{Vars: out}
}

// Equal reports whether two relations contain exactly the same variables.
func (r Relation) Equal(other Relation) bool {
	if len(r.Vars) != len(other.Vars) {
		return false
	}
	for i := range r.Vars {
		if r.Vars[i] != other.Vars[i] {
			return false
		}
	}
	return true
}

// DegreesOfFreedom returns the relation's own degrees of freedom:
// product of member cardinalities, minus one.
func (r Relation) DegreesOfFreedom(vl *VariableList) int {
	df := 1
	for _, idx := range r.Vars {
		df *= vl.Variable(idx).Cardinality
	}
	return df - 1
}

// ContainsDependent reports whether the relation includes the system's
// dependent variable.
func (r Relation) ContainsDependent(vl *VariableList) bool {
	return vl.IsDirected() && r.Contains(vl.DependentIndex())
}

// IndependentOnly reports whether the relation contains only independent
// variables (no dependent variable), in a directed system.
func (r Relation) IndependentOnly(vl *VariableList) bool {
	return vl.IsDirected() && !r.ContainsDependent(vl)
}

// PrintName renders the relation as its concatenated, alphabetized
// abbreviations (§3, §6).
func (r Relation) PrintName(vl *VariableList) string {
	abbrevs := make([]string, len(r.Vars))
	for i, idx := range r.Vars {
		abbrevs[i] = strings.ToUpper(vl.Variable(idx).Abbrev)
	}
	sort.Strings(abbrevs)
	return strings.Join(abbrevs, "")
}

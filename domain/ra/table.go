package ra

import (
	"encoding/binary"
	"sort"

	"gonum.org/v1/gonum/floats"

	"gohypo/domain/core"
)

// Kind distinguishes whether a table's values are expected to sum to one
// (information-theoretic) or are 0/1 presence flags (set-theoretic) (§3).
type Kind int

const (
	KindInformationTheoretic Kind = iota
	KindSetTheoretic
)

// epsilon is the floor below which a projected marginal is treated as zero
// during IPF cell scaling (§4.5).
const epsilon = 1e-15

// normalizeDriftTolerance is how far sum(Q) may drift from 1 before
// Normalize re-scales (§4.5 step 4).
const normalizeDriftTolerance = 1e-10

// Tuple is one (key, value) entry of a contingency table.
type Tuple struct {
	Key   Key
	Value float64
}

// ContingencyTable is a sorted sequence of (key, value) tuples over a subset
// of a VariableList's variables (§3, §4.2).
type ContingencyTable struct {
	VL     *VariableList
	Vars   []int // sorted variable indices this table is defined over
	Kind   Kind
	Tuples []Tuple
}

// NewContingencyTable creates an empty table over the given variables (nil
// or all variable indices means the table is defined over the whole list).
func NewContingencyTable(vl *VariableList, vars []int, kind Kind) *ContingencyTable {
	if vars == nil {
		vars = allIndices(vl.Len())
	}
	return &ContingencyTable{VL: vl, Vars: vars, Kind: kind}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Add appends a tuple; cheap during construction. Call SortAndCombine once
// after all adds.
func (t *ContingencyTable) Add(key Key, value float64) {
	t.Tuples = append(t.Tuples, Tuple{Key: key, Value: value})
}

// SortAndCombine lexicographically sorts tuples by segment array and merges
// equal keys by summing their values, leaving keys strictly increasing
// (§4.2, §8 universal invariant).
func (t *ContingencyTable) SortAndCombine() {
	sort.Slice(t.Tuples, func(i, j int) bool {
		return t.Tuples[i].Key.Less(t.Tuples[j].Key)
	})

	out := t.Tuples[:0:0]
	for _, tup := range t.Tuples {
		if len(out) > 0 && out[len(out)-1].Key.Equal(tup.Key) {
			out[len(out)-1].Value += tup.Value
			continue
		}
		out = append(out, tup)
	}
	t.Tuples = out
}

// Find performs a binary search for key, returning its value if present.
// The table must be sorted (i.e. SortAndCombine must have been called since
// the last Add).
func (t *ContingencyTable) Find(key Key) (float64, bool) {
	i := sort.Search(len(t.Tuples), func(i int) bool {
		return !t.Tuples[i].Key.Less(key)
	})
	if i < len(t.Tuples) && t.Tuples[i].Key.Equal(key) {
		return t.Tuples[i].Value, true
	}
	return 0, false
}

// Values returns the stored cell values in tuple order, for callers that
// want descriptive statistics over the raw table (e.g. mean/stddev via an
// external stats library) without reaching into Tuples directly.
func (t *ContingencyTable) Values() []float64 {
	values := make([]float64, len(t.Tuples))
	for i, tup := range t.Tuples {
		values[i] = tup.Value
	}
	return values
}

// Sum returns the sum of all values.
func (t *ContingencyTable) Sum() float64 {
	if len(t.Tuples) == 0 {
		return 0
	}
	values := make([]float64, len(t.Tuples))
	for i, tup := range t.Tuples {
		values[i] = tup.Value
	}
	return floats.Sum(values)
}

// Normalize scales the table so its sum is 1. A no-op if the sum is zero or
// already within normalizeDriftTolerance of 1.
func (t *ContingencyTable) Normalize() {
	sum := t.Sum()
	if sum == 0 {
		return
	}
	if diff := sum - 1; diff > -normalizeDriftTolerance && diff < normalizeDriftTolerance {
		return
	}
	for i := range t.Tuples {
		t.Tuples[i].Value /= sum
	}
}

// Project computes the projection of t onto vars: mask each key, accumulate
// duplicates, and return a new sorted table over exactly vars (§4.2). An
// empty vars returns the scalar table with one all-zero key whose value is
// Sum().
func (t *ContingencyTable) Project(vars []int) *ContingencyTable {
	if len(vars) == 0 {
		out := NewContingencyTable(t.VL, nil, t.Kind)
		out.Add(NewKey(t.VL), t.Sum())
		return out
	}

	sorted := make([]int, len(vars))
	copy(sorted, vars)
	sort.Ints(sorted)

	mask := MaskFor(t.VL, sorted)
	acc := make(map[string]float64, len(t.Tuples))
	keyFor := make(map[string]Key, len(t.Tuples))
	for _, tup := range t.Tuples {
		projected := ApplyMask(tup.Key, mask)
		ks := keyString(projected)
		acc[ks] += tup.Value
		keyFor[ks] = projected
	}

	out := NewContingencyTable(t.VL, sorted, t.Kind)
	out.Tuples = make([]Tuple, 0, len(acc))
	for ks, value := range acc {
		out.Tuples = append(out.Tuples, Tuple{Key: keyFor[ks], Value: value})
	}
	out.SortAndCombine()
	return out
}

// Extend expands a table defined on t.Vars to a superset dstVars by
// cross-producting with uniform values over the new variables (§4.2, used
// by belief propagation to bring a clique/separator potential up to the
// variable set needed for a multiply/divide).
func (t *ContingencyTable) Extend(dstVars []int) *ContingencyTable {
	dst := make([]int, len(dstVars))
	copy(dst, dstVars)
	sort.Ints(dst)

	newVars := make([]int, 0, len(dst))
	present := make(map[int]bool, len(t.Vars))
	for _, v := range t.Vars {
		present[v] = true
	}
	for _, v := range dst {
		if !present[v] {
			newVars = append(newVars, v)
		}
	}

	if len(newVars) == 0 {
		out := NewContingencyTable(t.VL, dst, t.Kind)
		out.Tuples = append([]Tuple{}, t.Tuples...)
		out.SortAndCombine()
		return out
	}

	complementSize := int64(1)
	cards := make([]int, len(newVars))
	for i, idx := range newVars {
		cards[i] = t.VL.Variable(idx).Cardinality
		complementSize *= int64(cards[i])
	}

	out := NewContingencyTable(t.VL, dst, t.Kind)
	assignment := make([]int, len(newVars))
	for _, tup := range t.Tuples {
		resetAssignment(assignment)
		for {
			key := tup.Key.Clone()
			for i, idx := range newVars {
				key = key.SetValue(t.VL.Variable(idx), uint32(assignment[i]))
			}
			out.Add(key, tup.Value/float64(complementSize))
			if !incrementAssignment(assignment, cards) {
				break
			}
		}
	}
	out.SortAndCombine()
	return out
}

func resetAssignment(a []int) {
	for i := range a {
		a[i] = 0
	}
}

// incrementAssignment advances a mixed-radix odometer with digit i bounded
// by cards[i]. Returns false once it has wrapped back to all zeros.
func incrementAssignment(a []int, cards []int) bool {
	for i := len(a) - 1; i >= 0; i-- {
		a[i]++
		if a[i] < cards[i] {
			return true
		}
		a[i] = 0
	}
	return false
}

// unionVars returns the sorted union of two variable-index slices.
func unionVars(a, b []int) []int {
	return NewRelation(a...).Union(NewRelation(b...)).Vars
}

// Multiply extends a and b to their variable union and multiplies matching
// cells elementwise (§4.6).
func Multiply(a, b *ContingencyTable) *ContingencyTable {
	union := unionVars(a.Vars, b.Vars)
	ea, eb := a.Extend(union), b.Extend(union)
	out, _ := combine(ea, eb, func(x, y float64) (float64, error) { return x * y, nil })
	return out
}

// Divide extends a and b to their variable union and divides matching cells
// elementwise. Division by zero yields zero unless strict is true and the
// numerator is non-zero, in which case it returns ErrDivideByZeroHit (§4.2,
// §7).
func Divide(a, b *ContingencyTable, strict bool) (*ContingencyTable, error) {
	union := unionVars(a.Vars, b.Vars)
	ea, eb := a.Extend(union), b.Extend(union)
	return combine(ea, eb, func(x, y float64) (float64, error) {
		if y == 0 {
			if x == 0 {
				return 0, nil
			}
			if strict {
				return 0, core.ErrDivideByZeroHit
			}
			return 0, nil
		}
		return x / y, nil
	})
}

// combine joins two tables already extended to the same variable set,
// applying op to every key present in either, defaulting absent entries to
// zero. The first error op returns aborts the combine.
func combine(a, b *ContingencyTable, op func(x, y float64) (float64, error)) (*ContingencyTable, error) {
	bv := make(map[string]float64, len(b.Tuples))
	for _, tup := range b.Tuples {
		bv[keyString(tup.Key)] = tup.Value
	}

	out := NewContingencyTable(a.VL, a.Vars, a.Kind)
	seen := make(map[string]bool, len(a.Tuples)+len(b.Tuples))
	for _, tup := range a.Tuples {
		ks := keyString(tup.Key)
		seen[ks] = true
		result, err := op(tup.Value, bv[ks])
		if err != nil {
			return nil, err
		}
		out.Add(tup.Key, result)
	}
	for _, tup := range b.Tuples {
		ks := keyString(tup.Key)
		if seen[ks] {
			continue
		}
		result, err := op(0, tup.Value)
		if err != nil {
			return nil, err
		}
		out.Add(tup.Key, result)
	}
	out.SortAndCombine()
	return out, nil
}

// keyString converts a key's segments into a byte string suitable as a map
// key, without allocating per-segment.
func keyString(k Key) string {
	buf := make([]byte, len(k.Segments)*4)
	for i, seg := range k.Segments {
		binary.BigEndian.PutUint32(buf[i*4:], seg)
	}
	return string(buf)
}

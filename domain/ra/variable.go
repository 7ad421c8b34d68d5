// Package ra holds the pure data types of the reconstructability-analysis
// core: variables and their bit layout, keys, contingency tables, relations,
// models, junction trees, and the result/event types the fitting and search
// algorithms in internal/ produce. Types here carry invariant-preserving
// constructors and light derived queries; the numerically heavy algorithms
// (loop detection, IPF, belief propagation, search) live in internal/.
package ra

import (
	"fmt"
	"math/bits"

	"gohypo/domain/core"
)

// segmentBits is the width of one key segment.
const segmentBits = 32

// Variable describes one discrete column of the dataset: its name, its
// cardinality, and the bit layout assigned when it was appended to a
// VariableList. Layout is immutable once assigned (§4.1).
type Variable struct {
	FullName    string `json:"full_name"`
	Abbrev      string `json:"abbrev"`
	Cardinality int    `json:"cardinality"`
	IsDependent bool   `json:"is_dependent"`

	// Bit layout, assigned by VariableList.Add.
	Segment  int    `json:"segment"`
	Shift    uint   `json:"shift"`
	BitWidth uint   `json:"bit_width"`
	Mask     uint32 `json:"mask"`
}

// NewVariable constructs a variable before it has been assigned a bit
// layout. Cardinality must be >= 2.
func NewVariable(fullName, abbrev string, cardinality int, isDependent bool) (Variable, error) {
	if cardinality < 2 {
		return Variable{}, core.NewValidationError(core.ErrCardinalityRange, fmt.Sprintf("%s=%d", fullName, cardinality))
	}
	return Variable{
		FullName:    fullName,
		Abbrev:      abbrev,
		Cardinality: cardinality,
		IsDependent: isDependent,
	}, nil
}

// requiredBitWidth returns ceil(log2(n+1)), minimum 1, so that the all-ones
// pattern of that width is distinct from every valid value 0..n-1 and can
// stand for "don't care".
func requiredBitWidth(cardinality int) uint {
	n := cardinality + 1
	w := bits.Len(uint(n - 1))
	if w < 1 {
		w = 1
	}
	return uint(w)
}

package ra

import (
	"strings"

	"gohypo/domain/core"
)

// VariableList is an ordered, immutable-after-construction sequence of
// variables plus an abbreviation index for fast lookup (§3).
type VariableList struct {
	vars        []Variable
	abbrevIndex map[string]int
	numSegments int
	depIndex    int // index of the dependent variable, -1 if neutral
}

// NewVariableList builds a variable list by appending variables in order,
// assigning each one's bit layout per §4.1.
func NewVariableList(vars ...Variable) (*VariableList, error) {
	vl := &VariableList{
		abbrevIndex: make(map[string]int, len(vars)),
		depIndex:    -1,
	}
	for _, v := range vars {
		if err := vl.add(v); err != nil {
			return nil, err
		}
	}
	return vl, nil
}

func (vl *VariableList) add(v Variable) error {
	key := strings.ToLower(v.Abbrev)
	if _, exists := vl.abbrevIndex[key]; exists {
		return core.NewValidationError(core.ErrDuplicateVariable, v.Abbrev)
	}

	v.BitWidth = requiredBitWidth(v.Cardinality)

	if len(vl.vars) == 0 {
		v.Segment = 0
		v.Shift = segmentBits - v.BitWidth
		vl.numSegments = 1
	} else {
		prev := vl.vars[len(vl.vars)-1]
		if prev.Shift >= v.BitWidth {
			v.Segment = prev.Segment
			v.Shift = prev.Shift - v.BitWidth
		} else {
			v.Segment = prev.Segment + 1
			v.Shift = segmentBits - v.BitWidth
			vl.numSegments = v.Segment + 1
		}
	}
	v.Mask = uint32(((uint64(1) << v.BitWidth) - 1) << v.Shift)

	if v.IsDependent {
		if vl.depIndex != -1 {
			return core.NewValidationError(core.ErrDuplicateVariable, "more than one dependent variable")
		}
		vl.depIndex = len(vl.vars)
	}

	vl.abbrevIndex[key] = len(vl.vars)
	vl.vars = append(vl.vars, v)
	return nil
}

// Len returns the number of variables.
func (vl *VariableList) Len() int { return len(vl.vars) }

// NumSegments returns the number of uint32 segments a Key needs.
func (vl *VariableList) NumSegments() int { return vl.numSegments }

// Variable returns the variable at index i.
func (vl *VariableList) Variable(i int) Variable { return vl.vars[i] }

// Variables returns a copy of the underlying slice.
func (vl *VariableList) Variables() []Variable {
	out := make([]Variable, len(vl.vars))
	copy(out, vl.vars)
	return out
}

// IndexOf looks up a variable by abbreviation (case-insensitive). Returns -1
// if not found.
func (vl *VariableList) IndexOf(abbrev string) int {
	if idx, ok := vl.abbrevIndex[strings.ToLower(abbrev)]; ok {
		return idx
	}
	return -1
}

// StateSpaceSize returns the product of all cardinalities.
func (vl *VariableList) StateSpaceSize() int64 {
	total := int64(1)
	for _, v := range vl.vars {
		total *= int64(v.Cardinality)
	}
	return total
}

// IsDirected reports whether a dependent variable has been designated.
func (vl *VariableList) IsDirected() bool { return vl.depIndex != -1 }

// DependentIndex returns the index of the dependent variable, or -1 if the
// system is neutral.
func (vl *VariableList) DependentIndex() int { return vl.depIndex }

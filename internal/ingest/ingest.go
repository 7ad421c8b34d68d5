// Package ingest converts the core's one external input format -
// normalized integer-coded data - into a (VariableList, ContingencyTable)
// pair (§6).
package ingest

import (
	"fmt"

	"gohypo/domain/core"
	"gohypo/domain/ra"
)

// VariableSpec describes one column of a Dataset.
type VariableSpec struct {
	Name        string
	Abbrev      string
	Cardinality int
	IsDependent bool
	Labels      []string // optional per-value string labels, len == Cardinality if set
}

// Dataset is the normalized external input: an ordered set of variable
// specs, a sequence of integer-coded rows, and a parallel sequence of
// non-negative counts (§6).
type Dataset struct {
	Name      string
	Variables []VariableSpec
	Rows      [][]int
	Counts    []float64
}

// Build converts a Dataset into a variable list, a normalized contingency
// table, and the dataset's total count N (needed later for the likelihood
// ratio and Pearson statistics, which operate on absolute counts rather
// than probabilities): build the variable list in order, pack each row into
// a key, accumulate its count, sort-and-combine, then normalize (§6).
func Build(ds Dataset) (*ra.VariableList, *ra.ContingencyTable, float64, error) {
	if len(ds.Rows) != len(ds.Counts) {
		return nil, nil, 0, core.NewValidationError(core.ErrRowLengthMismatch,
			fmt.Sprintf("%d rows vs %d counts", len(ds.Rows), len(ds.Counts)))
	}

	vars := make([]ra.Variable, len(ds.Variables))
	for i, spec := range ds.Variables {
		v, err := ra.NewVariable(spec.Name, spec.Abbrev, spec.Cardinality, spec.IsDependent)
		if err != nil {
			return nil, nil, 0, err
		}
		vars[i] = v
	}
	vl, err := ra.NewVariableList(vars...)
	if err != nil {
		return nil, nil, 0, err
	}

	table := ra.NewContingencyTable(vl, nil, ra.KindInformationTheoretic)
	for i, row := range ds.Rows {
		if len(row) != vl.Len() {
			return nil, nil, 0, core.NewValidationError(core.ErrRowLengthMismatch,
				fmt.Sprintf("row %d has length %d, expected %d", i, len(row), vl.Len()))
		}
		key := ra.NewKey(vl)
		for col, value := range row {
			v := vl.Variable(col)
			if value < 0 || value >= v.Cardinality {
				return nil, nil, 0, core.NewValidationError(core.ErrCardinalityRange,
					fmt.Sprintf("row %d column %d value %d outside [0,%d)", i, col, value, v.Cardinality))
			}
			key = key.SetValue(v, uint32(value))
		}
		table.Add(key, ds.Counts[i])
	}

	table.SortAndCombine()
	n := table.Sum()
	table.Normalize()
	return vl, table, n, nil
}

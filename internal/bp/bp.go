// Package bp implements belief propagation (sum-product) over a junction
// tree: a single collect-then-distribute sweep that makes every clique
// potential exact for a decomposable model (§4.6).
package bp

import (
	"fmt"
	"math"

	"gohypo/domain/core"
	"gohypo/domain/ra"
	intlog "gohypo/internal"
)

// Config controls the belief-propagation fitter.
type Config struct {
	Normalize bool
	Strict    bool // raise ErrNumericalIssue on NaN/Inf instead of returning a degraded result
}

// Result is the reconstructed joint distribution. Converged is always true:
// a single collect+distribute sweep makes every clique potential exact for
// a decomposable model, there is no iteration count to fail to converge on
// (§4.6, §9).
type Result struct {
	Joint      *ra.ContingencyTable
	Converged  bool
	cliques    []ra.Relation
	potentials []*ra.ContingencyTable
}

// Marginal returns the marginal of vars, taking the fast path of projecting
// a single calibrated clique potential when some clique already contains
// vars, and falling back to projecting the full joint otherwise (§4.6
// "Reconstruction").
func (r *Result) Marginal(vars []int) *ra.ContingencyTable {
	want := ra.NewRelation(vars...)
	for i, c := range r.cliques {
		if want.IsSubsetOf(c) {
			return r.potentials[i].Project(vars)
		}
	}
	return r.Joint.Project(vars)
}

// Fit runs one collect-then-distribute sweep over jt, calibrating clique
// potentials to p's marginals, then reconstructs the full joint (§4.6).
// jt must have State == ra.JunctionTreeValid.
func Fit(vl *ra.VariableList, p *ra.ContingencyTable, jt *ra.JunctionTree, cfg Config) (*Result, error) {
	n := len(jt.Cliques)
	psi := make([]*ra.ContingencyTable, n)
	phi := make([]*ra.ContingencyTable, n)

	for i, c := range jt.Cliques {
		psi[i] = p.Project(c.Vars)
	}
	for i := range jt.Cliques {
		if jt.Parent[i] == -1 {
			continue
		}
		phi[i] = p.Project(jt.Separator(i).Vars)
	}

	for _, i := range jt.PostOrder {
		parent := jt.Parent[i]
		if parent == -1 {
			continue
		}
		sep := jt.Separator(i)
		mu := psi[i].Project(sep.Vars)
		merged := ra.Multiply(psi[parent], mu)
		divided, err := ra.Divide(merged, phi[i], cfg.Strict)
		if err != nil {
			return nil, err
		}
		psi[parent] = divided
		phi[i] = mu
	}

	for _, i := range jt.PreOrder() {
		for _, child := range jt.Children[i] {
			sep := jt.Separator(child)
			mu := psi[i].Project(sep.Vars)
			merged := ra.Multiply(psi[child], mu)
			divided, err := ra.Divide(merged, phi[child], cfg.Strict)
			if err != nil {
				return nil, err
			}
			psi[child] = divided
			phi[child] = mu
		}
	}

	if cfg.Normalize {
		for _, t := range psi {
			t.Normalize()
		}
		for _, t := range phi {
			if t != nil {
				t.Normalize()
			}
		}
	}

	if cfg.Strict {
		if err := checkNumerical(psi); err != nil {
			return nil, err
		}
		if err := checkNumerical(phi); err != nil {
			return nil, err
		}
	}

	joint := reconstructJoint(vl, jt, psi, phi)
	intlog.DefaultLogger.Debug("BP calibrated %d cliques over %d variables in one collect+distribute sweep", n, vl.Len())
	return &Result{Joint: joint, Converged: true, cliques: jt.Cliques, potentials: psi}, nil
}

// reconstructJoint computes Π ψᵢ / Π φₑ, extended to every variable in vl
// and rescaled to sum to 1 (§4.6 "Reconstruction"). Multiply and Divide
// work on uniformly-extended tables, so the product carries a constant
// factor (for example when cliques share no variables) that the final
// normalization removes.
func reconstructJoint(vl *ra.VariableList, jt *ra.JunctionTree, psi, phi []*ra.ContingencyTable) *ra.ContingencyTable {
	joint := psi[jt.Root]
	for i := range jt.Cliques {
		if i == jt.Root {
			continue
		}
		joint = ra.Multiply(joint, psi[i])
	}
	for i := range jt.Cliques {
		if phi[i] == nil || len(phi[i].Vars) == 0 {
			continue
		}
		divided, _ := ra.Divide(joint, phi[i], false) // strict=false: never errors
		joint = divided
	}
	out := joint.Extend(allVars(vl))
	out.Normalize()
	return out
}

func checkNumerical(tables []*ra.ContingencyTable) error {
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, tup := range t.Tuples {
			if math.IsNaN(tup.Value) || math.IsInf(tup.Value, 0) {
				return fmt.Errorf("%w: value %v at a calibrated potential", core.ErrNumericalIssue, tup.Value)
			}
		}
	}
	return nil
}

func allVars(vl *ra.VariableList) []int {
	out := make([]int, vl.Len())
	for i := range out {
		out[i] = i
	}
	return out
}

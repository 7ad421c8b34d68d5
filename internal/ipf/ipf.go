// Package ipf implements Iterative Proportional Fitting: cyclic Bregman
// projection of a table onto the marginal constraints named by a model's
// relations (§4.5).
package ipf

import (
	"fmt"
	"math"

	"gohypo/domain/core"
	"gohypo/domain/ra"
	intlog "gohypo/internal"
)

// epsilon is the floor below which a projected marginal cell is treated as
// zero during cell scaling.
const epsilon = 1e-15

// largeScalingConstant drives a cell toward its target when the current
// iterate's marginal has collapsed to (numerically) zero but the observed
// marginal has not.
const largeScalingConstant = 1e15

// Config holds the tunables for one Fit call.
type Config struct {
	MaxIterations         int
	ConvergenceThreshold  float64
	ProgressInterval      int
	RaiseOnNonConvergence bool
}

// Result is the fitted table plus the iteration bookkeeping the coordinator
// folds into a FitResult.
type Result struct {
	Q          *ra.ContingencyTable
	Iterations int
	FinalError float64
	Converged  bool
}

// ConvergenceError reports that IPF exhausted its iteration budget without
// reaching the convergence threshold, with RaiseOnNonConvergence set (§7).
type ConvergenceError struct {
	Iterations int
	Threshold  float64
	FinalError float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("IPF did not converge after %d iterations (threshold=%g, final error=%g)",
		e.Iterations, e.Threshold, e.FinalError)
}

func (e *ConvergenceError) Unwrap() error { return core.ErrNotConverged }

// Fit runs IPF to project p onto the marginal constraints of m's relations,
// returning the fitted joint Q (§4.5).
func Fit(vl *ra.VariableList, p *ra.ContingencyTable, m ra.Model, cfg Config, progress ra.ProgressConfig) (*Result, error) {
	all := allVars(vl)

	switch {
	case len(m.Relations) == 0:
		return &Result{Q: uniform(vl), Converged: true}, nil
	case len(m.Relations) == 1 && m.Relations[0].Len() == vl.Len():
		return &Result{Q: p, Converged: true}, nil
	case len(m.Relations) == 1:
		marginal := p.Project(m.Relations[0].Vars)
		return &Result{Q: marginal.Extend(all), Converged: true}, nil
	}

	q := orthogonalExpansion(p, m.Relations[0], all)

	// max_iterations = 0 means "return the orthogonal expansion unchanged"
	// (§8), not a failed fit.
	if cfg.MaxIterations <= 0 {
		return &Result{Q: q, Converged: true}, nil
	}

	prevErr := math.Inf(1)
	finalErr := 0.0
	iterations := 0
	converged := false

	for i := 1; i <= cfg.MaxIterations; i++ {
		iterations = i
		for _, r := range m.Relations {
			q = scaleToRelation(vl, q, p, r)
		}

		finalErr = maxError(p, q, m.Relations)
		if progress.Enabled && (i == 1 || (cfg.ProgressInterval > 0 && i%cfg.ProgressInterval == 0)) {
			progress.Emit(ra.ProgressEvent{Kind: ra.ProgressIPFIteration, Iteration: i, CurrentError: finalErr})
		}

		if finalErr < cfg.ConvergenceThreshold || math.Abs(finalErr-prevErr) < 0.1*cfg.ConvergenceThreshold {
			converged = true
			prevErr = finalErr
			break
		}
		prevErr = finalErr
	}

	q.Normalize()

	if !converged && cfg.RaiseOnNonConvergence {
		intlog.DefaultLogger.Warn("IPF did not converge after %d iterations (final error %.3g, threshold %.3g)",
			iterations, finalErr, cfg.ConvergenceThreshold)
		return nil, &ConvergenceError{Iterations: iterations, Threshold: cfg.ConvergenceThreshold, FinalError: finalErr}
	}
	intlog.DefaultLogger.Debug("IPF converged=%v after %d iterations (final error %.3g)", converged, iterations, finalErr)

	return &Result{Q: q, Iterations: iterations, FinalError: finalErr, Converged: converged}, nil
}

// orthogonalExpansion marginalizes p onto r's variables, then replicates
// that marginal uniformly over the complement variables (§4.5 step 2).
func orthogonalExpansion(p *ra.ContingencyTable, r ra.Relation, allVars []int) *ra.ContingencyTable {
	marginal := p.Project(r.Vars)
	return marginal.Extend(allVars)
}

// scaleToRelation performs one relation's IPF scaling pass: Q[t] *=
// P_R[proj(t)] / Q_R[proj(t)], with a large-constant rescue when the
// current iterate's marginal has collapsed to zero (§4.5 step 3).
func scaleToRelation(vl *ra.VariableList, q, p *ra.ContingencyTable, r ra.Relation) *ra.ContingencyTable {
	pr := p.Project(r.Vars)
	qr := q.Project(r.Vars)
	mask := ra.MaskFor(vl, r.Vars)

	out := ra.NewContingencyTable(vl, q.Vars, q.Kind)
	for _, tup := range q.Tuples {
		proj := ra.ApplyMask(tup.Key, mask)
		qVal, _ := qr.Find(proj)
		pVal, _ := pr.Find(proj)

		var newVal float64
		switch {
		case qVal >= epsilon:
			newVal = tup.Value * pVal / qVal
		case pVal > epsilon:
			newVal = tup.Value * largeScalingConstant
		default:
			newVal = 0
		}
		out.Add(tup.Key, newVal)
	}
	out.SortAndCombine()
	return out
}

// maxError returns the largest absolute cell difference between p and q's
// projections onto every relation in relations (§4.5 step 3).
func maxError(p, q *ra.ContingencyTable, relations []ra.Relation) float64 {
	maxErr := 0.0
	for _, r := range relations {
		pr := p.Project(r.Vars)
		qr := q.Project(r.Vars)
		for _, t := range pr.Tuples {
			qv, _ := qr.Find(t.Key)
			if d := math.Abs(t.Value - qv); d > maxErr {
				maxErr = d
			}
		}
		for _, t := range qr.Tuples {
			pv, _ := pr.Find(t.Key)
			if d := math.Abs(pv - t.Value); d > maxErr {
				maxErr = d
			}
		}
	}
	return maxErr
}

// uniform returns the uniform distribution over vl's full state space: the
// fit implied by a model with no relations at all (§8: "an empty relation
// list means no constraints").
func uniform(vl *ra.VariableList) *ra.ContingencyTable {
	n := vl.StateSpaceSize()
	out := ra.NewContingencyTable(vl, allVars(vl), ra.KindInformationTheoretic)
	p := 1.0 / float64(n)

	cards := make([]int, vl.Len())
	for i := range cards {
		cards[i] = vl.Variable(i).Cardinality
	}
	assignment := make([]int, vl.Len())
	for {
		key := ra.NewKey(vl)
		for i := 0; i < vl.Len(); i++ {
			key = key.SetValue(vl.Variable(i), uint32(assignment[i]))
		}
		out.Add(key, p)
		if !advance(assignment, cards) {
			break
		}
	}
	out.SortAndCombine()
	return out
}

func advance(a, cards []int) bool {
	for i := len(a) - 1; i >= 0; i-- {
		a[i]++
		if a[i] < cards[i] {
			return true
		}
		a[i] = 0
	}
	return false
}

func allVars(vl *ra.VariableList) []int {
	out := make([]int, vl.Len())
	for i := range out {
		out[i] = i
	}
	return out
}

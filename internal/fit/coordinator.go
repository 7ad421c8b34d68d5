// Package fit is the Fit Coordinator: given a model, it decides between IPF
// and belief propagation, runs the fit, and assembles the full statistical
// result (§4.8).
package fit

import (
	"gohypo/domain/ra"
	"gohypo/internal/bp"
	"gohypo/internal/graph"
	"gohypo/internal/ipf"
	"gohypo/internal/stats"
)

// Direction affects only which reference model (saturated vs independence)
// the search driver treats as "better" when comparing DDF.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Config bundles the IPF and BP tunables a coordinator uses when a model
// requires fitting.
type Config struct {
	IPF ipf.Config
	BP  bp.Config
}

// Coordinator holds everything needed to fit any model over one dataset: a
// variable list, the normalized observed table, its sample size, cached
// saturated/independence reference models, and a per-instance fit cache.
// It is a value type; Clone gives a worker a private cache for thread
// safety without copying the (read-only, shared) data (§4.8).
type Coordinator struct {
	VL        *ra.VariableList
	Data      *ra.ContingencyTable
	N         float64
	TopRef    ra.Model
	BottomRef ra.Model
	Config    Config
	Progress  ra.ProgressConfig
	Direction Direction

	cache map[string]*ra.FitResult
}

// NewCoordinator builds a coordinator over vl/data, deriving the saturated
// and independence reference models.
func NewCoordinator(vl *ra.VariableList, data *ra.ContingencyTable, n float64, cfg Config, progress ra.ProgressConfig, dir Direction) Coordinator {
	all := make([]int, vl.Len())
	for i := range all {
		all[i] = i
	}
	singles := make([]ra.Relation, vl.Len())
	for i := range singles {
		singles[i] = ra.NewRelation(i)
	}

	return Coordinator{
		VL:        vl,
		Data:      data,
		N:         n,
		TopRef:    ra.NewModel(ra.NewRelation(all...)),
		BottomRef: ra.NewModel(singles...),
		Config:    cfg,
		Progress:  progress,
		Direction: dir,
		cache:     make(map[string]*ra.FitResult),
	}
}

// Clone returns a coordinator sharing the same read-only inputs but with an
// independent, empty fit cache, safe for a worker goroutine to mutate
// without synchronization (§4.8 "Thread-safety").
func (c Coordinator) Clone() Coordinator {
	clone := c
	clone.cache = make(map[string]*ra.FitResult)
	return clone
}

// Fit computes the full FitResult for m, routing to belief propagation when
// m is loopless and decomposable, and to IPF otherwise (§4.8 "Contract").
func (c Coordinator) Fit(m ra.Model) (*ra.FitResult, error) {
	name := m.PrintName(c.VL)
	if cached, ok := c.cache[name]; ok {
		return cached, nil
	}

	joint, hasLoops, ipfIterations, ipfFinalError, converged, err := c.computeJoint(m)
	if err != nil {
		return nil, err
	}

	result := c.summarize(m, name, joint, hasLoops, ipfIterations, ipfFinalError, converged)
	c.cache[name] = result
	return result, nil
}

// computeJoint implements the IPF-vs-BP routing decision (§4.8 step 1-2).
func (c Coordinator) computeJoint(m ra.Model) (joint *ra.ContingencyTable, hasLoops bool, ipfIterations int, ipfFinalError float64, converged bool, err error) {
	hasLoops = graph.BuildInteractionGraph(c.VL, m).HasLoops()
	if hasLoops {
		r, ferr := ipf.Fit(c.VL, c.Data, m, c.Config.IPF, c.Progress)
		if ferr != nil {
			return nil, true, 0, 0, false, ferr
		}
		return r.Q, true, r.Iterations, r.FinalError, r.Converged, nil
	}

	jt := graph.BuildJunctionTree(c.VL, m)
	if jt.State == ra.JunctionTreeValid {
		r, ferr := bp.Fit(c.VL, c.Data, jt, c.Config.BP)
		if ferr != nil {
			return nil, false, 0, 0, false, ferr
		}
		return r.Joint, false, 0, 0, r.Converged, nil
	}

	// Falls through here for a model with no relations at all (no clique to
	// root a tree on) and, defensively, for any loopless model whose
	// junction tree build unexpectedly fails RIP; IPF gives a correct fit
	// either way.
	r, ferr := ipf.Fit(c.VL, c.Data, m, c.Config.IPF, c.Progress)
	if ferr != nil {
		return nil, false, 0, 0, false, ferr
	}
	return r.Q, false, r.Iterations, r.FinalError, r.Converged, nil
}

// summarize assembles a FitResult from a fitted joint, computing every
// statistic in §4.7.
func (c Coordinator) summarize(m ra.Model, name string, joint *ra.ContingencyTable, hasLoops bool, ipfIterations int, ipfFinalError float64, converged bool) *ra.FitResult {
	hFit := stats.Entropy(joint)
	hData := stats.Entropy(c.Data)
	df := m.DegreesOfFreedom(c.VL)
	dfSaturated := c.TopRef.DegreesOfFreedom(c.VL)

	lr := stats.LikelihoodRatio(c.N, hFit, hData)
	pearson := stats.PearsonChiSquare(c.N, c.Data, joint)
	alpha := stats.PValue(lr, df)

	var deltaDF int
	switch c.Direction {
	case Ascending:
		deltaDF = df - c.BottomRef.DegreesOfFreedom(c.VL)
	default:
		deltaDF = dfSaturated - df
	}

	return &ra.FitResult{
		ModelName:     name,
		H:             hFit,
		T:             stats.Transmission(c.Data, joint),
		DF:            df,
		DeltaDF:       deltaDF,
		LR:            lr,
		Pearson:       pearson,
		Alpha:         alpha,
		AIC:           stats.AIC(lr, df),
		BIC:           stats.BIC(lr, df, dfSaturated, c.N),
		HasLoops:      hasLoops,
		IPFIterations: ipfIterations,
		IPFFinalError: ipfFinalError,
		Converged:     converged,
	}
}

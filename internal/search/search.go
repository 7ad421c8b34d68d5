// Package search implements the beam search driver: level-by-level
// expansion of a model lattice via a neighbor filter, with a parallel
// worker pool over each level's seeds (§4.10).
package search

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"gohypo/domain/ra"
	intlog "gohypo/internal"
	"gohypo/internal/fit"
	"gohypo/internal/neighbors"
)

// Statistic selects which fit statistic ranks candidates. DDF sorts
// descending (bigger is better); AIC and BIC sort ascending (smaller is
// better), per §4.10.
type Statistic int

const (
	AIC Statistic = iota
	BIC
	DDF
)

func (s Statistic) descending() bool { return s == DDF }

func (s Statistic) value(r *ra.FitResult) float64 {
	switch s {
	case AIC:
		return r.AIC
	case DDF:
		return float64(r.DeltaDF)
	default:
		return r.BIC
	}
}

// Config bundles one search request's tunables (§4.10 "Inputs").
type Config struct {
	Filter    neighbors.Filter
	Direction neighbors.Direction
	Statistic Statistic
	BeamWidth int
	MaxLevels int
	Parallel  bool
	Progress  ra.ProgressConfig
}

// Candidate is one model evaluated during a search, paired with its fit
// result and the level at which it was first produced.
type Candidate struct {
	Model  ra.Model
	Name   string
	Result *ra.FitResult
	Level  int
}

// Result is the outcome of a full beam search run: every distinct model
// evaluated, sorted by the target statistic, plus aggregate counters
// (§4.10 step 4, §6 "Output: search result").
type Result struct {
	Candidates     []Candidate
	TotalEvaluated int
	Elapsed        time.Duration
}

// workerResult is what one seed's worker goroutine produces: its batch of
// newly generated candidates plus how many models it evaluated (generated
// neighbors that were successfully fit, whether or not they are new by
// name).
type workerResult struct {
	candidates []Candidate
	evaluated  int
}

// Run executes the beam search from start over coordinator's data,
// following cfg (§4.10 "Algorithm").
func Run(vl *ra.VariableList, coordinator fit.Coordinator, start ra.Model, cfg Config) (*Result, error) {
	began := time.Now()
	cfg.Progress.Emit(ra.ProgressEvent{
		Kind:          ra.ProgressSearchStarted,
		TotalLevels:   cfg.MaxLevels,
		StatisticName: statisticName(cfg.Statistic),
	})

	seen := make(map[string]bool)
	var all []Candidate

	startResult, err := coordinator.Fit(start)
	if err != nil {
		return nil, err
	}
	startName := start.PrintName(vl)
	seen[startName] = true
	all = append(all, Candidate{Model: start, Name: startName, Result: startResult, Level: 0})

	seeds := []ra.Model{start}
	totalEvaluated := 1
	bestName, bestStat := startName, cfg.Statistic.value(startResult)

	for level := 1; level <= cfg.MaxLevels; level++ {
		levelStart := time.Now()
		intlog.DefaultLogger.Info("search level %d: expanding %d seed(s)", level, len(seeds))

		var batches []workerResult
		if cfg.Parallel && len(seeds) >= 2 {
			batches, err = runParallel(vl, coordinator, seeds, level, cfg)
		} else {
			batches, err = runSequential(vl, coordinator, seeds, level, cfg)
		}
		if err != nil {
			return nil, err
		}

		looplessCount, loopCount := 0, 0
		var levelCandidates []Candidate
		for _, b := range batches {
			totalEvaluated += b.evaluated
			for _, c := range b.candidates {
				if c.Result.HasLoops {
					loopCount++
				} else {
					looplessCount++
				}
				if seen[c.Name] {
					continue
				}
				seen[c.Name] = true
				all = append(all, c)
				levelCandidates = append(levelCandidates, c)
			}
		}

		sortCandidates(levelCandidates, cfg.Statistic)
		if len(levelCandidates) > cfg.BeamWidth {
			levelCandidates = levelCandidates[:cfg.BeamWidth]
		}

		for _, c := range levelCandidates {
			v := cfg.Statistic.value(c.Result)
			if betterOrEqual(cfg.Statistic, v, bestStat) {
				bestStat = v
				bestName = c.Name
			}
		}

		cfg.Progress.Emit(ra.ProgressEvent{
			Kind:           ra.ProgressSearchLevel,
			Level:          level,
			TotalLevels:    cfg.MaxLevels,
			LevelSize:      len(levelCandidates),
			BeamRetained:   len(levelCandidates),
			TotalEvaluated: totalEvaluated,
			LooplessCount:  looplessCount,
			LoopCount:      loopCount,
			BestName:       bestName,
			BestStat:       bestStat,
			LevelTime:      time.Since(levelStart).Seconds(),
			Elapsed:        time.Since(began).Seconds(),
		})

		intlog.DefaultLogger.Debug("search level %d: %d retained, best %s (%s=%v)",
			level, len(levelCandidates), bestName, statisticName(cfg.Statistic), bestStat)

		if len(levelCandidates) == 0 {
			break
		}
		seeds = make([]ra.Model, len(levelCandidates))
		for i, c := range levelCandidates {
			seeds[i] = c.Model
		}
	}

	sortCandidates(all, cfg.Statistic)
	cfg.Progress.Emit(ra.ProgressEvent{
		Kind:           ra.ProgressSearchComplete,
		TotalEvaluated: totalEvaluated,
		BestName:       bestName,
		BestStat:       bestStat,
		Elapsed:        time.Since(began).Seconds(),
	})

	return &Result{Candidates: all, TotalEvaluated: totalEvaluated, Elapsed: time.Since(began)}, nil
}

// runSequential expands and fits every seed's neighbors one at a time, in
// order, with no goroutines (§4.10 "Sequential path").
func runSequential(vl *ra.VariableList, coordinator fit.Coordinator, seeds []ra.Model, level int, cfg Config) ([]workerResult, error) {
	out := make([]workerResult, len(seeds))
	for i, seed := range seeds {
		out[i] = expandSeed(vl, coordinator, seed, level, cfg)
	}
	return out, nil
}

// runParallel expands and fits every seed's neighbors concurrently, one
// worker per seed, each with its own coordinator clone, writing to a
// preallocated slot indexed by seed position (§4.10 "Parallel path", §4.10
// "Thread safety").
func runParallel(vl *ra.VariableList, coordinator fit.Coordinator, seeds []ra.Model, level int, cfg Config) ([]workerResult, error) {
	out := make([]workerResult, len(seeds))
	g, _ := errgroup.WithContext(context.Background())
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			out[i] = expandSeed(vl, coordinator.Clone(), seed, level, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// expandSeed generates seed's neighbors under cfg.Filter/Direction and
// fits each one. If any neighbor's fit errors, the error is logged and the
// seed contributes an empty batch, so one bad seed never aborts the whole
// search (§7 "Propagation policy").
func expandSeed(vl *ra.VariableList, coordinator fit.Coordinator, seed ra.Model, level int, cfg Config) workerResult {
	neighborModels := neighbors.Generate(vl, seed, cfg.Filter, cfg.Direction)

	var result workerResult
	for _, n := range neighborModels {
		r, err := coordinator.Fit(n)
		if err != nil {
			intlog.DefaultLogger.Warn("search level %d: fit of %s failed, dropping the batch for seed %s: %v",
				level, n.PrintName(vl), seed.PrintName(vl), err)
			return workerResult{}
		}
		result.evaluated++
		result.candidates = append(result.candidates, Candidate{
			Model:  n,
			Name:   n.PrintName(vl),
			Result: r,
			Level:  level,
		})
	}
	return result
}

// sortCandidates sorts in place by cfg's statistic, stable so equal-score
// candidates keep their first-occurrence order (§4.10 "Invariants").
func sortCandidates(candidates []Candidate, stat Statistic) {
	descending := stat.descending()
	sort.SliceStable(candidates, func(i, j int) bool {
		vi, vj := stat.value(candidates[i].Result), stat.value(candidates[j].Result)
		if descending {
			return vi > vj
		}
		return vi < vj
	})
}

// betterOrEqual reports whether candidate value v improves on (or ties)
// best under stat's ranking direction, used to track the monotonically
// non-worsening best-so-far (§4.10 "Invariants").
func betterOrEqual(stat Statistic, v, best float64) bool {
	if stat.descending() {
		return v >= best
	}
	return v <= best
}

func statisticName(stat Statistic) string {
	switch stat {
	case AIC:
		return "AIC"
	case DDF:
		return "DDF"
	default:
		return "BIC"
	}
}

// Package stats computes the information-theoretic and classical
// significance statistics attached to a fit result (§4.7).
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gohypo/domain/ra"
)

// probMin is the floor below which a cell's probability is excluded from
// entropy and transmission sums, avoiding log(0).
const probMin = 1e-36

// wilsonHilfertyDF is the degrees-of-freedom threshold at or above which
// p-values switch from the exact chi-square survival function to the
// Wilson-Hilferty normal approximation, and central CDFs switch from the
// exact chi-square CDF to a plain normal approximation (§4.7).
const wilsonHilfertyDF = 100

// Entropy computes H(T) = -Σ p log2 p over cells with p > probMin.
func Entropy(t *ra.ContingencyTable) float64 {
	h := 0.0
	for _, tup := range t.Tuples {
		if tup.Value > probMin {
			h -= tup.Value * math.Log2(tup.Value)
		}
	}
	return h
}

// Transmission computes T(p || q) = Σ p log2(p/q), skipping cells where
// either p or q is at or below probMin.
func Transmission(p, q *ra.ContingencyTable) float64 {
	t := 0.0
	for _, tup := range p.Tuples {
		if tup.Value <= probMin {
			continue
		}
		qv, ok := q.Find(tup.Key)
		if !ok || qv <= probMin {
			continue
		}
		t += tup.Value * math.Log2(tup.Value/qv)
	}
	return t
}

// MaxEntropy returns log2(state_space), the entropy of the uniform
// distribution over vl.
func MaxEntropy(vl *ra.VariableList) float64 {
	return math.Log2(float64(vl.StateSpaceSize()))
}

// LikelihoodRatio computes the G^2 statistic 2*N*ln2*(H(fit) - H(data)).
// H(fit) >= H(data) always (§8), so this is non-negative and zero exactly
// at saturation.
func LikelihoodRatio(n, hFit, hData float64) float64 {
	return 2 * n * math.Ln2 * (hFit - hData)
}

// PearsonChiSquare computes Σ N (p_obs - p_exp)^2 / p_exp over the union of
// cells present in either table, skipping cells where p_exp is zero.
func PearsonChiSquare(n float64, obs, exp *ra.ContingencyTable) float64 {
	chi := 0.0
	for _, tup := range obs.Tuples {
		ev, ok := exp.Find(tup.Key)
		if !ok || ev == 0 {
			continue
		}
		d := tup.Value - ev
		chi += n * d * d / ev
	}
	for _, tup := range exp.Tuples {
		if _, ok := obs.Find(tup.Key); ok {
			continue
		}
		if tup.Value == 0 {
			continue
		}
		chi += n * tup.Value // (0 - ev)^2 / ev == ev
	}
	return chi
}

// AIC computes LR - 2*df.
func AIC(lr float64, df int) float64 {
	return lr - 2*float64(df)
}

// BIC computes LR - Δdf * ln(N), where Δdf = df_saturated - df_model, so
// simpler models (larger Δdf) are rewarded.
func BIC(lr float64, df, dfSaturated int, n float64) float64 {
	deltaDF := float64(dfSaturated - df)
	return lr - deltaDF*math.Log(n)
}

// PValue computes the upper-tail p-value of stat against a chi-square
// distribution with df degrees of freedom: the exact survival function for
// df < 100, the Wilson-Hilferty normal approximation otherwise (§4.7).
// Results are clamped to [0, 1].
func PValue(stat float64, df int) float64 {
	if stat <= 0 {
		return 1
	}

	var p float64
	if df < wilsonHilfertyDF {
		p = 1 - distuv.ChiSquared{K: float64(df)}.CDF(stat)
	} else {
		z := wilsonHilfertyZ(stat, df)
		p = 1 - distuv.Normal{Mu: 0, Sigma: 1}.CDF(z)
	}
	return clamp01(p)
}

// wilsonHilfertyZ converts a chi-square statistic into the approximating
// standard-normal deviate (§4.7).
func wilsonHilfertyZ(stat float64, df int) float64 {
	dfF := float64(df)
	return (math.Cbrt(stat/dfF) - (1 - 2/(9*dfF))) / math.Sqrt(2/(9*dfF))
}

// ChiSquareQuantile returns the value x such that P(X <= x) = p for a
// central chi-square distribution with df degrees of freedom, used to
// derive a critical value for power calculations. Below the
// Wilson-Hilferty threshold it bisects the exact CDF; at or above it
// inverts the Wilson-Hilferty approximation analytically.
func ChiSquareQuantile(df int, p float64) float64 {
	if df >= wilsonHilfertyDF {
		z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(p)
		dfF := float64(df)
		term := 1 - 2/(9*dfF) + z*math.Sqrt(2/(9*dfF))
		return dfF * term * term * term
	}

	dist := distuv.ChiSquared{K: float64(df)}
	lo, hi := 0.0, float64(df)*10+1000
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if dist.CDF(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// centralChiSquareCDF is the building block for the non-central mixture
// below: exact for df < 100, normal-approximated otherwise, matching the
// same cutover PValue uses.
func centralChiSquareCDF(x float64, df int) float64 {
	if df >= wilsonHilfertyDF {
		mean := float64(df)
		std := math.Sqrt(2 * float64(df))
		return distuv.Normal{Mu: 0, Sigma: 1}.CDF((x - mean) / std)
	}
	return distuv.ChiSquared{K: float64(df)}.CDF(x)
}

// NonCentralChiSquareCDF computes the CDF of a non-central chi-square
// distribution with df degrees of freedom and noncentrality lambda at x,
// via a Poisson-weighted mixture of central chi-square CDFs, truncated
// once the accumulated Poisson mass reaches 1 - 1e-15 (§4.7).
func NonCentralChiSquareCDF(x float64, df int, lambda float64) float64 {
	if lambda <= 0 {
		return centralChiSquareCDF(x, df)
	}

	poisson := distuv.Poisson{Lambda: lambda / 2}
	cdf := 0.0
	mass := 0.0
	const massTarget = 1 - 1e-15
	const maxTerms = 100000
	for j := 0; j < maxTerms; j++ {
		weight := poisson.Prob(float64(j))
		cdf += weight * centralChiSquareCDF(x, df+2*j)
		mass += weight
		if mass >= massTarget {
			break
		}
	}
	return clamp01(cdf)
}

// Power computes the probability of rejecting the null hypothesis (the
// model under test) at significance level alpha when the true
// noncentrality is lambda, by finding the central critical value at alpha
// and evaluating the non-central survival function there.
func Power(df int, lambda, alpha float64) float64 {
	critical := ChiSquareQuantile(df, 1-alpha)
	return clamp01(1 - NonCentralChiSquareCDF(critical, df, lambda))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

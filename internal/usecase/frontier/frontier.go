// Package frontier estimates precision/recall/F-beta proxies for a fused
// ranking without ground-truth relevance labels.
package frontier

import (
	"math"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	runpkg "github.com/lanefuse/lanefuse/internal/domain/run"
)

// overlap scale constants for the relevance proxy: g(d) is recentered
// around 0.5 and spread by 0.2 before entering the logistic.
const (
	overlapCenter = 0.5
	overlapScale  = 0.2
)

// Params are the estimator tunables. Ceiling is the assumed
// diminishing-returns factor for score saturation; treat it as a knob, not
// a law.
type Params struct {
	A        float64
	B        float64
	Gamma    float64
	Rho      float64
	Ceiling  float64
	FBetaExp float64
}

// Estimate computes one frontier point per cutoff:
//
//	P*(k) = mean over top-k of sigma(a*score + b + gamma*z(g))
//	R*(k) = rho*coverage(k) + (1-rho)*saturation(k)
//
// coverage(k) is the fraction of the target's FI codes seen anywhere in the
// top-k documents; saturation(k) is cumulative boosted score against
// Ceiling times the full-set total. Cutoffs beyond the set size clamp to
// the full set.
func Estimate(
	fused []runpkg.ScoredDoc,
	profiles map[string]codes.Profile,
	target codes.TargetProfile,
	cutoffs []int,
	p Params,
) []quality.FrontierPoint {
	n := len(fused)

	targetCodes := target.Weights(codes.FI)

	// Prefix sweeps: proxy sums, cumulative score, codes covered so far.
	proxySum := make([]float64, n+1)
	cumScore := make([]float64, n+1)
	covered := make([]int, n+1)
	seen := make(map[string]struct{}, len(targetCodes))

	for i, d := range fused {
		z := (d.Overlap - overlapCenter) / overlapScale
		proxySum[i+1] = proxySum[i] + sigmoid(p.A*d.Score+p.B+p.Gamma*z)
		cumScore[i+1] = cumScore[i] + d.Score

		for code := range targetCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			if profiles[d.ID].Has(codes.FI, code) {
				seen[code] = struct{}{}
			}
		}
		covered[i+1] = len(seen)
	}

	saturationDenom := p.Ceiling * cumScore[n]

	points := make([]quality.FrontierPoint, 0, len(cutoffs))
	for _, cutoff := range cutoffs {
		k := cutoff
		if k > n {
			k = n
		}

		var precision float64
		if k > 0 {
			precision = proxySum[k] / float64(k)
		}

		var coverage float64
		if len(targetCodes) > 0 {
			coverage = float64(covered[k]) / float64(len(targetCodes))
		}
		var saturation float64
		if saturationDenom > 0 {
			saturation = cumScore[k] / saturationDenom
		}
		recall := p.Rho*coverage + (1-p.Rho)*saturation

		points = append(points, quality.FrontierPoint{
			Cutoff:    cutoff,
			Precision: precision,
			Recall:    recall,
			FBeta:     fBeta(precision, recall, p.FBetaExp),
		})
	}
	return points
}

// fBeta combines precision and recall, 0 when both are 0.
func fBeta(p, r, beta float64) float64 {
	if p == 0 && r == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * p * r / (b2*p + r)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

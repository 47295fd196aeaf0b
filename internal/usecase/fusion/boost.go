package fusion

import (
	"github.com/lanefuse/lanefuse/internal/domain/codes"
)

// ftDiscount halves FT contributions relative to FI/CPC/IPC: F-term themes
// are broader signals than the hierarchical systems.
const ftDiscount = 0.5

// Overlap computes g(d) in [0,1]: the target-weighted fraction of target
// codes the document holds, normalized by the total target weight. An empty
// target yields 0 for every document, degrading boosting to a no-op.
func Overlap(p codes.Profile, t codes.TargetProfile) float64 {
	total := t.TotalWeight()
	if total == 0 {
		return 0
	}

	var sum float64
	for _, sys := range codes.Systems() {
		weights := t.Weights(sys)
		if len(weights) == 0 || len(p[sys]) == 0 {
			continue
		}
		factor := 1.0
		if sys == codes.FT {
			factor = ftDiscount
		}
		for code, w := range weights {
			if p.Has(sys, code) {
				sum += factor * w
			}
		}
	}

	g := sum / total
	if g > 1 {
		g = 1
	}
	return g
}

// ModulatedWeight scales a lane weight by its FI-profile similarity to the
// target: w' = w * (1 + beta*sim). Similarity is 0 when either side has no
// FI signal, leaving the weight unchanged.
func ModulatedWeight(w float64, freq codes.FreqProfile, t codes.TargetProfile, beta float64) float64 {
	if beta == 0 {
		return w
	}
	sim := codes.Cosine(freq.Counts(codes.FI), t.Weights(codes.FI))
	return w * (1 + beta*sim)
}

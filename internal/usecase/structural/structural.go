// Package structural computes rank-structure health metrics for a fused
// ranking: lane agreement, code concentration, score shape, and an
// aggregate health score.
package structural

import (
	"sort"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	runpkg "github.com/lanefuse/lanefuse/internal/domain/run"
)

// DefaultTopK is the window for lane agreement and code concentration.
const DefaultTopK = 50

// shapePenalty multiplies the Gini coefficient in the health score.
const shapePenalty = 0.3

// Compute derives all structural metrics from a fused ranking and its
// contributing lanes.
func Compute(
	fused []runpkg.ScoredDoc,
	lanes []domlane.Record,
	profiles map[string]codes.Profile,
	topK int,
) quality.Structural {
	if topK <= 0 {
		topK = DefaultTopK
	}

	las := laneAgreement(lanes, topK)
	ccw := codeConcentration(fused, profiles, topK)
	shape := gini(fused)

	return quality.Structural{
		LaneAgreement:     las,
		CodeConcentration: ccw,
		ScoreShape:        shape,
		Health:            health(las, ccw, shape),
	}
}

// laneAgreement is the mean pairwise Jaccard similarity of each lane's
// top-k document set. 0 when fewer than two lanes are compared.
func laneAgreement(lanes []domlane.Record, topK int) float64 {
	if len(lanes) < 2 {
		return 0
	}

	tops := make([]map[string]struct{}, len(lanes))
	for i, ln := range lanes {
		top := make(map[string]struct{})
		for id, rank := range ln.Ranks {
			if rank <= topK {
				top[id] = struct{}{}
			}
		}
		tops[i] = top
	}

	var sum float64
	var pairs int
	for i := 0; i < len(tops); i++ {
		for j := i + 1; j < len(tops); j++ {
			sum += jaccard(tops[i], tops[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

func jaccard(a, b map[string]struct{}) float64 {
	var inter int
	for id := range a {
		if _, ok := b[id]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// codeConcentration is the Herfindahl index of FI code frequencies within
// the fused top-k, rescaled to [0,1] between uniform-over-observed-codes
// and single-code concentration.
func codeConcentration(fused []runpkg.ScoredDoc, profiles map[string]codes.Profile, topK int) float64 {
	if topK > len(fused) {
		topK = len(fused)
	}

	counts := make(map[string]int)
	var total int
	for i := 0; i < topK; i++ {
		for _, code := range profiles[fused[i].ID][codes.FI] {
			counts[code]++
			total++
		}
	}

	n := len(counts)
	if n == 0 {
		return 0
	}
	if n == 1 {
		// Minimum and maximum concentration coincide.
		return 1
	}

	var hhi float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		hhi += p * p
	}
	minH := 1 / float64(n)
	return (hhi - minH) / (1 - minH)
}

// gini is the Gini coefficient of the fused score distribution. High values
// indicate a top-heavy ranking.
func gini(fused []runpkg.ScoredDoc) float64 {
	n := len(fused)
	if n == 0 {
		return 0
	}

	scores := make([]float64, n)
	var total float64
	for i, d := range fused {
		scores[i] = d.Score
		total += d.Score
	}
	if total == 0 {
		return 0
	}
	sort.Float64s(scores)

	var weighted float64
	for i, s := range scores {
		weighted += float64(2*(i+1)-n-1) * s
	}
	return weighted / (float64(n) * total)
}

// health is the harmonic mean of agreement and concentration, penalized by
// score-shape skew.
func health(las, ccw, shape float64) float64 {
	if las+ccw == 0 {
		return 0
	}
	f1 := 2 * las * ccw / (las + ccw)
	return f1 * (1 - shapePenalty*shape)
}

// Package fusion implements weighted Reciprocal Rank Fusion with
// classification-code-aware boosting.
package fusion

import (
	"fmt"
	"sort"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	"github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/run"
)

// Params are the fusion-time knobs of a recipe.
type Params struct {
	K      int
	Alpha  float64
	Beta   float64
	Target codes.TargetProfile
}

// Fuse merges lane rank lists into one ranking:
//
//	fused(d) = sum over lanes of w'/(k + rank(d))
//
// where w' is the lane weight modulated by FI-profile similarity to the
// target, and the final score is fused(d) boosted by code overlap. Rank is
// 1-based; a document absent from a lane contributes nothing for that lane.
// Scores are recomputed from ranks, so recipe weights apply without
// re-ingestion. Equal scores order by document id for determinism.
func Fuse(lanes []lane.Record, profiles map[string]codes.Profile, p Params) ([]run.ScoredDoc, error) {
	if len(lanes) == 0 {
		return nil, fmt.Errorf("fusion of zero lanes is undefined")
	}
	if p.K <= 0 {
		return nil, fmt.Errorf("rrf constant must be positive, got %d", p.K)
	}

	fused := make(map[string]float64)
	for _, ln := range lanes {
		if ln.Weight < 0 {
			return nil, fmt.Errorf("weight for lane %s must be non-negative, got %v", ln.Key, ln.Weight)
		}
		w := ModulatedWeight(ln.Weight, ln.Freq, p.Target, p.Beta)
		for id, rank := range ln.Ranks {
			fused[id] += w / float64(p.K+rank)
		}
	}

	out := make([]run.ScoredDoc, 0, len(fused))
	for id, score := range fused {
		g := Overlap(profiles[id], p.Target)
		out = append(out, run.ScoredDoc{
			ID:      id,
			Fused:   score,
			Overlap: g,
			Score:   score * (1 + p.Alpha*g),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// Contributions computes, per source lane, the fraction of the fused top-N
// present in that lane's result set, normalized to sum to 100 across lanes.
// Lanes with zero overlap still appear, at 0.
func Contributions(fused []run.ScoredDoc, lanes []lane.Record, topN int) map[string]float64 {
	if topN > len(fused) {
		topN = len(fused)
	}

	hits := make(map[string]float64, len(lanes))
	var total float64
	for _, ln := range lanes {
		key := ln.Key.String()
		hits[key] = 0
		for i := 0; i < topN; i++ {
			if _, ok := ln.Ranks[fused[i].ID]; ok {
				hits[key]++
			}
		}
		total += hits[key]
	}

	if total == 0 {
		return hits
	}
	for key := range hits {
		hits[key] = hits[key] / total * 100
	}
	return hits
}

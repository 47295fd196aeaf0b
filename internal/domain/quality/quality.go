// Package quality holds the label-free ranking quality estimates computed
// for a fusion run.
package quality

// FrontierPoint is one precision/recall/F-beta proxy estimate at a cutoff.
type FrontierPoint struct {
	Cutoff    int     `json:"cutoff"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	FBeta     float64 `json:"f_beta"`
}

// Structural aggregates rank-structure health signals.
type Structural struct {
	// LaneAgreement is the mean pairwise Jaccard similarity of lane top-k sets.
	LaneAgreement float64 `json:"lane_agreement"`
	// CodeConcentration is the normalized Herfindahl index of FI code frequencies.
	CodeConcentration float64 `json:"code_concentration"`
	// ScoreShape is the Gini coefficient of the fused score distribution.
	ScoreShape float64 `json:"score_shape"`
	// Health combines the above into a single advisory score.
	Health float64 `json:"health"`
}

// HealthyThreshold is the documented advisory threshold for Health.
// It is informational only and never enforced.
const HealthyThreshold = 0.5

// Healthy reports whether the health score meets the advisory threshold.
func (s Structural) Healthy() bool {
	return s.Health >= HealthyThreshold
}

// Report is the full set of quality estimates persisted with a run.
type Report struct {
	Frontier   []FrontierPoint `json:"frontier"`
	Structural Structural      `json:"structural"`
}

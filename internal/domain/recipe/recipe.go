// Package recipe models the exact parameter set that produces a fusion run.
// Recipes are copy-on-write: mutation applies a delta to a copy, never to
// the parent.
package recipe

import (
	"fmt"
	"math"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	"github.com/lanefuse/lanefuse/internal/domain/lane"
)

// Defaults for freshly created recipes.
const (
	DefaultK        = 60
	DefaultAlpha    = 0.3
	DefaultBeta     = 0.2
	DefaultFBetaExp = 1.5
	DefaultTopN     = 100
)

// DefaultCutoffs is the default frontier cutoff grid.
func DefaultCutoffs() []int {
	return []int{10, 20, 30, 50, 80, 100, 150, 200}
}

// Source references one contributing lane score set and its weight.
type Source struct {
	Lane   lane.Key
	Weight float64
}

// ProxyParams are the frontier-estimator tunables.
// Ceiling is the assumed diminishing-returns factor for R*(k); it is a
// heuristic constant, not a derived quantity.
type ProxyParams struct {
	A       float64
	B       float64
	Gamma   float64
	Rho     float64
	Ceiling float64
}

// DefaultProxy returns the default frontier tunables.
func DefaultProxy() ProxyParams {
	return ProxyParams{A: 1, B: 0, Gamma: 0.5, Rho: 0.6, Ceiling: 2.0}
}

// Recipe is the full parameter set of a fusion run.
type Recipe struct {
	Sources  []Source
	K        int
	Alpha    float64
	Beta     float64
	FBetaExp float64
	Target   codes.TargetProfile
	Cutoffs  []int
	TopN     int
	Proxy    ProxyParams
}

// New returns a recipe with default parameters for the given sources.
func New(sources []Source) Recipe {
	return Recipe{
		Sources:  sources,
		K:        DefaultK,
		Alpha:    DefaultAlpha,
		Beta:     DefaultBeta,
		FBetaExp: DefaultFBetaExp,
		Cutoffs:  DefaultCutoffs(),
		TopN:     DefaultTopN,
		Proxy:    DefaultProxy(),
	}
}

// Validate checks the recipe for structural correctness.
func (r Recipe) Validate() error {
	if len(r.Sources) == 0 {
		return fmt.Errorf("recipe has no sources")
	}
	seen := make(map[lane.Key]struct{}, len(r.Sources))
	for _, src := range r.Sources {
		if err := src.Lane.Validate(); err != nil {
			return err
		}
		if _, dup := seen[src.Lane]; dup {
			return fmt.Errorf("duplicate source lane %s", src.Lane)
		}
		seen[src.Lane] = struct{}{}
		if math.IsNaN(src.Weight) || math.IsInf(src.Weight, 0) || src.Weight < 0 {
			return fmt.Errorf("weight for lane %s must be non-negative, got %v", src.Lane, src.Weight)
		}
	}
	if r.K <= 0 {
		return fmt.Errorf("rrf constant must be positive, got %d", r.K)
	}
	if r.Alpha < 0 {
		return fmt.Errorf("boost strength must be non-negative, got %v", r.Alpha)
	}
	if r.Beta < 0 {
		return fmt.Errorf("modulation strength must be non-negative, got %v", r.Beta)
	}
	if r.FBetaExp <= 0 {
		return fmt.Errorf("f-beta exponent must be positive, got %v", r.FBetaExp)
	}
	if r.TopN <= 0 {
		return fmt.Errorf("contribution top-n must be positive, got %d", r.TopN)
	}
	for _, c := range r.Cutoffs {
		if c <= 0 {
			return fmt.Errorf("cutoff must be positive, got %d", c)
		}
	}
	return nil
}

// Clone returns a deep copy. Mutation derives children from clones so a
// parent recipe is never touched.
func (r Recipe) Clone() Recipe {
	out := r
	out.Sources = append([]Source(nil), r.Sources...)
	out.Cutoffs = append([]int(nil), r.Cutoffs...)
	if r.Target != nil {
		target := make(codes.TargetProfile, len(r.Target))
		for sys, weights := range r.Target {
			ws := make(map[string]float64, len(weights))
			for code, w := range weights {
				ws[code] = w
			}
			target[sys] = ws
		}
		out.Target = target
	}
	return out
}

// Delta is a partial recipe overwrite. Nil fields are unchanged; set fields
// replace the parent's value absolutely, never merge or increment.
type Delta struct {
	Weights  map[string]float64 // lane key string -> new weight
	K        *int
	Alpha    *float64
	Beta     *float64
	FBetaExp *float64
	Target   codes.TargetProfile
	Cutoffs  []int
	TopN     *int
	Proxy    *ProxyParams
}

// IsEmpty reports whether the delta changes nothing.
func (d Delta) IsEmpty() bool {
	return len(d.Weights) == 0 && d.K == nil && d.Alpha == nil && d.Beta == nil &&
		d.FBetaExp == nil && d.Target == nil && d.Cutoffs == nil && d.TopN == nil && d.Proxy == nil
}

// Apply produces a new recipe: a clone of r with the delta's set fields
// overwritten. Weight overwrites must name existing sources.
func (r Recipe) Apply(d Delta) (Recipe, error) {
	out := r.Clone()
	for keyStr, w := range d.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return Recipe{}, fmt.Errorf("weight for lane %s must be non-negative, got %v", keyStr, w)
		}
		found := false
		for i := range out.Sources {
			if out.Sources[i].Lane.String() == keyStr {
				out.Sources[i].Weight = w
				found = true
				break
			}
		}
		if !found {
			return Recipe{}, fmt.Errorf("delta names unknown source lane %s", keyStr)
		}
	}
	if d.K != nil {
		out.K = *d.K
	}
	if d.Alpha != nil {
		out.Alpha = *d.Alpha
	}
	if d.Beta != nil {
		out.Beta = *d.Beta
	}
	if d.FBetaExp != nil {
		out.FBetaExp = *d.FBetaExp
	}
	if d.Target != nil {
		out.Target = d.Target
	}
	if d.Cutoffs != nil {
		out.Cutoffs = append([]int(nil), d.Cutoffs...)
	}
	if d.TopN != nil {
		out.TopN = *d.TopN
	}
	if d.Proxy != nil {
		out.Proxy = *d.Proxy
	}
	if err := out.Validate(); err != nil {
		return Recipe{}, err
	}
	return out, nil
}

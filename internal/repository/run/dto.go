package run

import (
	"encoding/json"
	"fmt"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

// sourceDTO is the JSON representation of one recipe source.
type sourceDTO struct {
	Lane   string  `json:"lane"`
	Weight float64 `json:"weight"`
}

// proxyDTO is the JSON representation of the frontier tunables.
type proxyDTO struct {
	A       float64 `json:"a"`
	B       float64 `json:"b"`
	Gamma   float64 `json:"gamma"`
	Rho     float64 `json:"rho"`
	Ceiling float64 `json:"ceiling"`
}

// recipeDTO is the JSON representation of a recipe.
type recipeDTO struct {
	Sources  []sourceDTO                   `json:"sources"`
	K        int                           `json:"k"`
	Alpha    float64                       `json:"alpha"`
	Beta     float64                       `json:"beta"`
	FBetaExp float64                       `json:"f_beta_exp"`
	Target   map[string]map[string]float64 `json:"target,omitempty"`
	Cutoffs  []int                         `json:"cutoffs"`
	TopN     int                           `json:"top_n"`
	Proxy    proxyDTO                      `json:"proxy"`
}

// runDTO is the JSON representation of a run metadata record.
type runDTO struct {
	ID            string             `json:"id"`
	Kind          string             `json:"kind"`
	Recipe        recipeDTO          `json:"recipe"`
	ParentID      string             `json:"parent_id,omitempty"`
	Lineage       []recipeDTO        `json:"lineage,omitempty"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
	Quality       quality.Report     `json:"quality"`
	CreatedAt     int64              `json:"created_at"`
}

func recipeToDTO(r recipe.Recipe) recipeDTO {
	sources := make([]sourceDTO, len(r.Sources))
	for i, src := range r.Sources {
		sources[i] = sourceDTO{Lane: src.Lane.String(), Weight: src.Weight}
	}
	var target map[string]map[string]float64
	if len(r.Target) > 0 {
		target = make(map[string]map[string]float64, len(r.Target))
		for sys, weights := range r.Target {
			target[string(sys)] = weights
		}
	}
	return recipeDTO{
		Sources:  sources,
		K:        r.K,
		Alpha:    r.Alpha,
		Beta:     r.Beta,
		FBetaExp: r.FBetaExp,
		Target:   target,
		Cutoffs:  r.Cutoffs,
		TopN:     r.TopN,
		Proxy:    proxyDTO{A: r.Proxy.A, B: r.Proxy.B, Gamma: r.Proxy.Gamma, Rho: r.Proxy.Rho, Ceiling: r.Proxy.Ceiling},
	}
}

func recipeFromDTO(d recipeDTO) (recipe.Recipe, error) {
	sources := make([]recipe.Source, len(d.Sources))
	for i, src := range d.Sources {
		key, err := domlane.ParseKey(src.Lane)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("stored source: %w", err)
		}
		sources[i] = recipe.Source{Lane: key, Weight: src.Weight}
	}
	var target codes.TargetProfile
	if len(d.Target) > 0 {
		t, err := codes.NewTarget(d.Target)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("stored target: %w", err)
		}
		target = t
	}
	return recipe.Recipe{
		Sources:  sources,
		K:        d.K,
		Alpha:    d.Alpha,
		Beta:     d.Beta,
		FBetaExp: d.FBetaExp,
		Target:   target,
		Cutoffs:  d.Cutoffs,
		TopN:     d.TopN,
		Proxy:    recipe.ProxyParams{A: d.Proxy.A, B: d.Proxy.B, Gamma: d.Proxy.Gamma, Rho: d.Proxy.Rho, Ceiling: d.Proxy.Ceiling},
	}, nil
}

// runToJSON marshals a run metadata record.
func runToJSON(rn domrun.Run) ([]byte, error) {
	lineage := make([]recipeDTO, len(rn.Lineage()))
	for i, rec := range rn.Lineage() {
		lineage[i] = recipeToDTO(rec)
	}
	dto := runDTO{
		ID:            rn.ID(),
		Kind:          string(rn.Kind()),
		Recipe:        recipeToDTO(rn.Recipe()),
		ParentID:      rn.ParentID(),
		Lineage:       lineage,
		Contributions: rn.Contributions(),
		Quality:       rn.Quality(),
		CreatedAt:     rn.CreatedAt(),
	}
	return json.Marshal(dto)
}

// runFromJSON hydrates a run metadata record.
func runFromJSON(data []byte) (domrun.Run, error) {
	var dto runDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domrun.Run{}, fmt.Errorf("unmarshal run: %w", err)
	}
	rec, err := recipeFromDTO(dto.Recipe)
	if err != nil {
		return domrun.Run{}, err
	}
	lineage := make([]recipe.Recipe, len(dto.Lineage))
	for i, d := range dto.Lineage {
		lineage[i], err = recipeFromDTO(d)
		if err != nil {
			return domrun.Run{}, err
		}
	}
	return domrun.Reconstruct(
		dto.ID, domrun.Kind(dto.Kind), rec,
		dto.ParentID, lineage, dto.Contributions, dto.Quality, dto.CreatedAt,
	), nil
}

// freqToFields encodes a frequency profile as one JSON field per system.
func freqToFields(f codes.FreqProfile) map[string]string {
	out := make(map[string]string, len(codes.Systems()))
	for _, sys := range codes.Systems() {
		counts := f.Counts(sys)
		if counts == nil {
			counts = map[string]int{}
		}
		data, _ := json.Marshal(counts)
		out[string(sys)] = string(data)
	}
	return out
}

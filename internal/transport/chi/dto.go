package chi

import (
	"fmt"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type docRequest struct {
	ID    string              `json:"id"`
	Codes map[string][]string `json:"codes,omitempty"`
}

type ingestLaneRequest struct {
	Snapshot string       `json:"snapshot"`
	Query    string       `json:"query"`
	Name     string       `json:"name"`
	Weight   *float64     `json:"weight,omitempty"`
	Docs     []docRequest `json:"docs"`
}

type ingestLaneResponse struct {
	LaneKey string `json:"lane_key"`
	RunID   string `json:"run_id"`
	Docs    int    `json:"docs"`
}

type sourceRequest struct {
	Lane   string  `json:"lane"`
	Weight float64 `json:"weight"`
}

type proxyRequest struct {
	A       *float64 `json:"a,omitempty"`
	B       *float64 `json:"b,omitempty"`
	Gamma   *float64 `json:"gamma,omitempty"`
	Rho     *float64 `json:"rho,omitempty"`
	Ceiling *float64 `json:"ceiling,omitempty"`
}

type fuseRequest struct {
	Sources  []sourceRequest               `json:"sources"`
	K        *int                          `json:"k,omitempty"`
	Alpha    *float64                      `json:"alpha,omitempty"`
	Beta     *float64                      `json:"beta,omitempty"`
	FBetaExp *float64                      `json:"f_beta_exp,omitempty"`
	Target   map[string]map[string]float64 `json:"target,omitempty"`
	Cutoffs  []int                         `json:"cutoffs,omitempty"`
	TopN     *int                          `json:"top_n,omitempty"`
	Proxy    *proxyRequest                 `json:"proxy,omitempty"`
}

type mutateRequest struct {
	Weights  map[string]float64            `json:"weights,omitempty"`
	K        *int                          `json:"k,omitempty"`
	Alpha    *float64                      `json:"alpha,omitempty"`
	Beta     *float64                      `json:"beta,omitempty"`
	FBetaExp *float64                      `json:"f_beta_exp,omitempty"`
	Target   map[string]map[string]float64 `json:"target,omitempty"`
	Cutoffs  []int                         `json:"cutoffs,omitempty"`
	TopN     *int                          `json:"top_n,omitempty"`
	Proxy    *proxyRequest                 `json:"proxy,omitempty"`
}

type sourceResponse struct {
	Lane   string  `json:"lane"`
	Weight float64 `json:"weight"`
}

type proxyResponse struct {
	A       float64 `json:"a"`
	B       float64 `json:"b"`
	Gamma   float64 `json:"gamma"`
	Rho     float64 `json:"rho"`
	Ceiling float64 `json:"ceiling"`
}

type recipeResponse struct {
	Sources  []sourceResponse              `json:"sources"`
	K        int                           `json:"k"`
	Alpha    float64                       `json:"alpha"`
	Beta     float64                       `json:"beta"`
	FBetaExp float64                       `json:"f_beta_exp"`
	Target   map[string]map[string]float64 `json:"target,omitempty"`
	Cutoffs  []int                         `json:"cutoffs"`
	TopN     int                           `json:"top_n"`
	Proxy    proxyResponse                 `json:"proxy"`
}

type runResponse struct {
	ID            string             `json:"id"`
	Kind          string             `json:"kind"`
	ParentID      string             `json:"parent_id,omitempty"`
	Recipe        recipeResponse     `json:"recipe"`
	Contributions map[string]float64 `json:"contributions"`
	Quality       quality.Report     `json:"quality"`
	LineageDepth  int                `json:"lineage_depth"`
	CreatedAt     int64              `json:"created_at"`
}

type provenanceResponse struct {
	Run             runResponse          `json:"run"`
	Lineage         []recipeResponse     `json:"lineage"`
	Representatives []representativeItem `json:"representatives"`
}

type representativeItem struct {
	DocID    string `json:"doc_id"`
	Category string `json:"category"`
}

type representativesRequest struct {
	Labels map[string]string `json:"labels"`
}

type scoreItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type resultsResponse struct {
	RunID  string      `json:"run_id"`
	Scores []scoreItem `json:"scores"`
}

func docsFromRequest(reqs []docRequest) ([]domlane.Doc, error) {
	docs := make([]domlane.Doc, len(reqs))
	for i, dr := range reqs {
		profile, err := codes.NewProfile(dr.Codes)
		if err != nil {
			return nil, fmt.Errorf("doc %q: %w", dr.ID, err)
		}
		doc, err := domlane.NewDoc(dr.ID, profile)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

// recipeFromRequest builds a recipe from the request: defaults first, then
// explicitly provided fields on top.
func recipeFromRequest(req fuseRequest) (recipe.Recipe, error) {
	sources := make([]recipe.Source, len(req.Sources))
	for i, sr := range req.Sources {
		key, err := domlane.ParseKey(sr.Lane)
		if err != nil {
			return recipe.Recipe{}, err
		}
		sources[i] = recipe.Source{Lane: key, Weight: sr.Weight}
	}

	rec := recipe.New(sources)
	if req.K != nil {
		rec.K = *req.K
	}
	if req.Alpha != nil {
		rec.Alpha = *req.Alpha
	}
	if req.Beta != nil {
		rec.Beta = *req.Beta
	}
	if req.FBetaExp != nil {
		rec.FBetaExp = *req.FBetaExp
	}
	if req.Target != nil {
		target, err := codes.NewTarget(req.Target)
		if err != nil {
			return recipe.Recipe{}, err
		}
		rec.Target = target
	}
	if req.Cutoffs != nil {
		rec.Cutoffs = req.Cutoffs
	}
	if req.TopN != nil {
		rec.TopN = *req.TopN
	}
	if req.Proxy != nil {
		rec.Proxy = proxyFromRequest(*req.Proxy, rec.Proxy)
	}
	return rec, nil
}

func deltaFromRequest(req mutateRequest) (recipe.Delta, error) {
	delta := recipe.Delta{
		Weights:  req.Weights,
		K:        req.K,
		Alpha:    req.Alpha,
		Beta:     req.Beta,
		FBetaExp: req.FBetaExp,
		Cutoffs:  req.Cutoffs,
		TopN:     req.TopN,
	}
	if req.Target != nil {
		target, err := codes.NewTarget(req.Target)
		if err != nil {
			return recipe.Delta{}, err
		}
		delta.Target = target
	}
	if req.Proxy != nil {
		proxy := proxyFromRequest(*req.Proxy, recipe.DefaultProxy())
		delta.Proxy = &proxy
	}
	return delta, nil
}

func proxyFromRequest(req proxyRequest, base recipe.ProxyParams) recipe.ProxyParams {
	if req.A != nil {
		base.A = *req.A
	}
	if req.B != nil {
		base.B = *req.B
	}
	if req.Gamma != nil {
		base.Gamma = *req.Gamma
	}
	if req.Rho != nil {
		base.Rho = *req.Rho
	}
	if req.Ceiling != nil {
		base.Ceiling = *req.Ceiling
	}
	return base
}

func recipeToResponse(rec recipe.Recipe) recipeResponse {
	sources := make([]sourceResponse, len(rec.Sources))
	for i, src := range rec.Sources {
		sources[i] = sourceResponse{Lane: src.Lane.String(), Weight: src.Weight}
	}

	var target map[string]map[string]float64
	if !rec.Target.IsEmpty() {
		target = make(map[string]map[string]float64, len(rec.Target))
		for sys, weights := range rec.Target {
			m := make(map[string]float64, len(weights))
			for code, w := range weights {
				m[code] = w
			}
			target[string(sys)] = m
		}
	}

	return recipeResponse{
		Sources:  sources,
		K:        rec.K,
		Alpha:    rec.Alpha,
		Beta:     rec.Beta,
		FBetaExp: rec.FBetaExp,
		Target:   target,
		Cutoffs:  rec.Cutoffs,
		TopN:     rec.TopN,
		Proxy: proxyResponse{
			A:       rec.Proxy.A,
			B:       rec.Proxy.B,
			Gamma:   rec.Proxy.Gamma,
			Rho:     rec.Proxy.Rho,
			Ceiling: rec.Proxy.Ceiling,
		},
	}
}

func runToResponse(rn domrun.Run) runResponse {
	return runResponse{
		ID:            rn.ID(),
		Kind:          string(rn.Kind()),
		ParentID:      rn.ParentID(),
		Recipe:        recipeToResponse(rn.Recipe()),
		Contributions: rn.Contributions(),
		Quality:       rn.Quality(),
		LineageDepth:  len(rn.Lineage()),
		CreatedAt:     rn.CreatedAt(),
	}
}

func provenanceToResponse(rn domrun.Run, reps []domrun.Representative) provenanceResponse {
	lineage := make([]recipeResponse, len(rn.Lineage()))
	for i, rec := range rn.Lineage() {
		lineage[i] = recipeToResponse(rec)
	}

	items := make([]representativeItem, len(reps))
	for i, rep := range reps {
		items[i] = representativeItem{DocID: rep.DocID(), Category: string(rep.Category())}
	}

	return provenanceResponse{
		Run:             runToResponse(rn),
		Lineage:         lineage,
		Representatives: items,
	}
}

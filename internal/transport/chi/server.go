// Package chi exposes the fusion engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lanefuse/lanefuse/internal/domain"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
	healthuc "github.com/lanefuse/lanefuse/internal/usecase/health"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeInvalidParameter = "invalid_parameter"
	codeNotFound         = "not_found"
	codeInconsistent     = "inconsistent"
	codeInternalError    = "internal_error"
)

// RunService is the run lifecycle surface consumed by the HTTP layer.
type RunService interface {
	IngestLane(
		ctx context.Context,
		snapshot, query, name string,
		docs []domlane.Doc, weight float64,
	) (domlane.Key, domrun.Run, error)
	Fuse(ctx context.Context, rec recipe.Recipe) (domrun.Run, error)
	Mutate(ctx context.Context, runID string, delta recipe.Delta) (domrun.Run, error)
	Provenance(ctx context.Context, runID string) (domrun.Run, []domrun.Representative, error)
	Results(ctx context.Context, runID string) ([]domrun.ScoreEntry, error)
	RegisterRepresentatives(ctx context.Context, runID string, labeled map[string]domrun.Category) error
}

// HealthService reports component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Limits are request-size bounds enforced before the usecase layer runs.
type Limits struct {
	MaxLaneDocs   int
	MaxSources    int
	MaxBodyBytes  int
	MaxCutoff     int
	MaxLabeledSet int
}

// Server handles the fusion HTTP API.
type Server struct {
	runs   RunService
	health HealthService
	logger *zap.Logger
	limits Limits
}

// NewServer creates an HTTP API server.
func NewServer(runs RunService, health HealthService, limits Limits, logger *zap.Logger) *Server {
	return &Server{runs: runs, health: health, limits: limits, logger: logger}
}

// Routes mounts all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/lanes", s.IngestLane)
		r.Post("/runs", s.Fuse)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Post("/mutate", s.Mutate)
			r.Get("/provenance", s.Provenance)
			r.Get("/results", s.Results)
			r.Post("/representatives", s.RegisterRepresentatives)
		})
	})
}

// IngestLane handles POST /v1/lanes.
func (s *Server) IngestLane(w http.ResponseWriter, r *http.Request) {
	var req ingestLaneRequest
	if !s.decode(w, r, &req) {
		return
	}

	if s.limits.MaxLaneDocs > 0 && len(req.Docs) > s.limits.MaxLaneDocs {
		writeError(w, http.StatusBadRequest, codeInvalidParameter,
			fmt.Sprintf("lane may hold at most %d documents", s.limits.MaxLaneDocs))
		return
	}

	docs, err := docsFromRequest(req.Docs)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}

	key, rn, err := s.runs.IngestLane(r.Context(), req.Snapshot, req.Query, req.Name, docs, weight)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+rn.ID())
	writeJSON(w, http.StatusCreated, ingestLaneResponse{
		LaneKey: key.String(),
		RunID:   rn.ID(),
		Docs:    len(docs),
	})
}

// Fuse handles POST /v1/runs.
func (s *Server) Fuse(w http.ResponseWriter, r *http.Request) {
	var req fuseRequest
	if !s.decode(w, r, &req) {
		return
	}

	if s.limits.MaxSources > 0 && len(req.Sources) > s.limits.MaxSources {
		writeError(w, http.StatusBadRequest, codeInvalidParameter,
			fmt.Sprintf("recipe may reference at most %d sources", s.limits.MaxSources))
		return
	}
	if !s.cutoffsInBounds(w, req.Cutoffs) {
		return
	}

	rec, err := recipeFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	rn, err := s.runs.Fuse(r.Context(), rec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+rn.ID())
	writeJSON(w, http.StatusCreated, runToResponse(rn))
}

// Mutate handles POST /v1/runs/{id}/mutate.
func (s *Server) Mutate(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	var req mutateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.cutoffsInBounds(w, req.Cutoffs) {
		return
	}

	delta, err := deltaFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	rn, err := s.runs.Mutate(r.Context(), runID, delta)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+rn.ID())
	writeJSON(w, http.StatusCreated, runToResponse(rn))
}

// Provenance handles GET /v1/runs/{id}/provenance.
func (s *Server) Provenance(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	rn, reps, err := s.runs.Provenance(r.Context(), runID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, provenanceToResponse(rn, reps))
}

// Results handles GET /v1/runs/{id}/results.
func (s *Server) Results(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	scores, err := s.runs.Results(r.Context(), runID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]scoreItem, len(scores))
	for i, sc := range scores {
		items[i] = scoreItem{ID: sc.ID, Score: sc.Score}
	}
	writeJSON(w, http.StatusOK, resultsResponse{RunID: runID, Scores: items})
}

// RegisterRepresentatives handles POST /v1/runs/{id}/representatives.
func (s *Server) RegisterRepresentatives(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	var req representativesRequest
	if !s.decode(w, r, &req) {
		return
	}

	if len(req.Labels) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidParameter, "labels are required")
		return
	}
	if s.limits.MaxLabeledSet > 0 && len(req.Labels) > s.limits.MaxLabeledSet {
		writeError(w, http.StatusBadRequest, codeInvalidParameter,
			fmt.Sprintf("at most %d documents may be labeled per run", s.limits.MaxLabeledSet))
		return
	}

	labeled := make(map[string]domrun.Category, len(req.Labels))
	for docID, cat := range req.Labels {
		labeled[docID] = domrun.Category(cat)
	}

	if err := s.runs.RegisterRepresentatives(r.Context(), runID, labeled); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON request body with a size cap. Returns false when the
// response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if s.limits.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, int64(s.limits.MaxBodyBytes))
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// cutoffsInBounds rejects frontier cutoff grids beyond the configured bound.
// Returns false when the response has already been written.
func (s *Server) cutoffsInBounds(w http.ResponseWriter, cutoffs []int) bool {
	if s.limits.MaxCutoff <= 0 {
		return true
	}
	for _, c := range cutoffs {
		if c > s.limits.MaxCutoff {
			writeError(w, http.StatusBadRequest, codeInvalidParameter,
				fmt.Sprintf("cutoff %d exceeds maximum %d", c, s.limits.MaxCutoff))
			return false
		}
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, codeInvalidParameter, safeDomainMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, safeDomainMessage(err))
	case errors.Is(err, domain.ErrInconsistent):
		writeError(w, http.StatusConflict, codeInconsistent, safeDomainMessage(err))
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidParameter,
		domain.ErrNotFound,
		domain.ErrInconsistent,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

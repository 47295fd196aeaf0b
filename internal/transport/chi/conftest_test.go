package chi

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
	healthuc "github.com/lanefuse/lanefuse/internal/usecase/health"
)

// mockRunService implements RunService with overridable function fields.
type mockRunService struct {
	ingestFunc  func(ctx context.Context, snapshot, query, name string, docs []domlane.Doc, weight float64) (domlane.Key, domrun.Run, error)
	fuseFunc    func(ctx context.Context, rec recipe.Recipe) (domrun.Run, error)
	mutateFunc  func(ctx context.Context, runID string, delta recipe.Delta) (domrun.Run, error)
	provFunc    func(ctx context.Context, runID string) (domrun.Run, []domrun.Representative, error)
	resultsFunc func(ctx context.Context, runID string) ([]domrun.ScoreEntry, error)
	repsFunc    func(ctx context.Context, runID string, labeled map[string]domrun.Category) error
}

func (m *mockRunService) IngestLane(ctx context.Context, snapshot, query, name string, docs []domlane.Doc, weight float64) (domlane.Key, domrun.Run, error) {
	return m.ingestFunc(ctx, snapshot, query, name, docs, weight)
}

func (m *mockRunService) Fuse(ctx context.Context, rec recipe.Recipe) (domrun.Run, error) {
	return m.fuseFunc(ctx, rec)
}

func (m *mockRunService) Mutate(ctx context.Context, runID string, delta recipe.Delta) (domrun.Run, error) {
	return m.mutateFunc(ctx, runID, delta)
}

func (m *mockRunService) Provenance(ctx context.Context, runID string) (domrun.Run, []domrun.Representative, error) {
	return m.provFunc(ctx, runID)
}

func (m *mockRunService) Results(ctx context.Context, runID string) ([]domrun.ScoreEntry, error) {
	return m.resultsFunc(ctx, runID)
}

func (m *mockRunService) RegisterRepresentatives(ctx context.Context, runID string, labeled map[string]domrun.Category) error {
	return m.repsFunc(ctx, runID, labeled)
}

// mockHealthService implements HealthService.
type mockHealthService struct {
	report healthuc.Report
}

func (m *mockHealthService) Check(context.Context) healthuc.Report { return m.report }

func defaultLimits() Limits {
	return Limits{MaxLaneDocs: 100, MaxSources: 4, MaxBodyBytes: 1 << 20, MaxCutoff: 500, MaxLabeledSet: 10}
}

func newTestServer(t *testing.T, runs RunService, health HealthService) *httptest.Server {
	t.Helper()
	srv := NewServer(runs, health, defaultLimits(), zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func fusionRun(t *testing.T, id string) domrun.Run {
	t.Helper()
	rec := recipe.New([]recipe.Source{
		{Lane: domlane.Key{Snapshot: "2024q3", Fingerprint: "aaaa", Name: "semantic"}, Weight: 1},
	})
	rn, err := domrun.New(id, domrun.KindFusion, rec, "", nil,
		map[string]float64{"2024q3:aaaa:semantic": 100},
		quality.Report{Structural: quality.Structural{Health: 0.7}},
		1700000000,
	)
	if err != nil {
		t.Fatalf("domrun.New: %v", err)
	}
	return rn
}

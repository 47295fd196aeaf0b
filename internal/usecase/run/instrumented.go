package run

import (
	"context"
	"time"

	"go.uber.org/zap"

	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
	"github.com/lanefuse/lanefuse/internal/metrics"
)

// Instrumented wraps Service with metrics and logging for the mutating
// operations. Read paths are covered by the HTTP middleware.
type Instrumented struct {
	inner  *Service
	logger *zap.Logger
}

// NewInstrumented wraps a run service with observability.
func NewInstrumented(inner *Service, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: inner, logger: logger}
}

// IngestLane delegates and records ingest metrics.
func (i *Instrumented) IngestLane(
	ctx context.Context,
	snapshot, query, name string,
	docs []domlane.Doc, weight float64,
) (domlane.Key, domrun.Run, error) {
	key, rn, err := i.inner.IngestLane(ctx, snapshot, query, name, docs, weight)
	metrics.LaneIngestsTotal.WithLabelValues(name, statusLabel(err)).Inc()
	if err != nil {
		i.logger.Error("Lane ingestion failed",
			zap.String("lane", name),
			zap.String("snapshot", snapshot),
			zap.Error(err),
		)
		return domlane.Key{}, domrun.Run{}, err
	}
	i.logger.Info("Lane ingested",
		zap.String("lane_key", key.String()),
		zap.String("run_id", rn.ID()),
		zap.Int("docs", len(docs)),
	)
	return key, rn, nil
}

// Fuse delegates and records fusion metrics.
func (i *Instrumented) Fuse(ctx context.Context, rec recipe.Recipe) (domrun.Run, error) {
	start := time.Now()
	rn, err := i.inner.Fuse(ctx, rec)
	i.observeRun(domrun.KindFusion, err, time.Since(start))
	if err != nil {
		i.logger.Error("Fusion failed", zap.Int("sources", len(rec.Sources)), zap.Error(err))
		return domrun.Run{}, err
	}
	i.logger.Info("Run created",
		zap.String("run_id", rn.ID()),
		zap.Int("sources", len(rec.Sources)),
		zap.Float64("health", rn.Quality().Structural.Health),
	)
	return rn, nil
}

// Mutate delegates and records mutation metrics.
func (i *Instrumented) Mutate(ctx context.Context, runID string, delta recipe.Delta) (domrun.Run, error) {
	start := time.Now()
	rn, err := i.inner.Mutate(ctx, runID, delta)
	i.observeRun(domrun.KindFusion, err, time.Since(start))
	if err != nil {
		i.logger.Error("Mutation failed", zap.String("parent_id", runID), zap.Error(err))
		return domrun.Run{}, err
	}
	i.logger.Info("Run mutated",
		zap.String("parent_id", runID),
		zap.String("run_id", rn.ID()),
		zap.Int("lineage_depth", len(rn.Lineage())),
	)
	return rn, nil
}

// Provenance delegates.
func (i *Instrumented) Provenance(ctx context.Context, runID string) (domrun.Run, []domrun.Representative, error) {
	return i.inner.Provenance(ctx, runID)
}

// Results delegates.
func (i *Instrumented) Results(ctx context.Context, runID string) ([]domrun.ScoreEntry, error) {
	return i.inner.Results(ctx, runID)
}

// RegisterRepresentatives delegates.
func (i *Instrumented) RegisterRepresentatives(
	ctx context.Context, runID string, labeled map[string]domrun.Category,
) error {
	return i.inner.RegisterRepresentatives(ctx, runID, labeled)
}

func (i *Instrumented) observeRun(kind domrun.Kind, err error, d time.Duration) {
	metrics.RunsTotal.WithLabelValues(string(kind), statusLabel(err)).Inc()
	if err == nil {
		metrics.FusionDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

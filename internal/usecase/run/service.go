// Package run is the run lifecycle manager: it owns run identity, recipes,
// lineage, and orchestrates fusion, boosting and quality estimation.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanefuse/lanefuse/internal/domain"
	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
	"github.com/lanefuse/lanefuse/internal/usecase/frontier"
	"github.com/lanefuse/lanefuse/internal/usecase/fusion"
	"github.com/lanefuse/lanefuse/internal/usecase/structural"
)

// Service orchestrates lane ingestion and the run lifecycle.
type Service struct {
	lanes LaneRepository
	runs  RunRepository
	newID func() string
	now   func() int64
}

// New creates a run lifecycle service.
func New(lanes LaneRepository, runs RunRepository) *Service {
	return &Service{
		lanes: lanes,
		runs:  runs,
		newID: uuid.NewString,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// IngestLane persists one lane's ranked output and registers it as a run of
// kind lane. Concurrent ingestions are safe: each lane writes distinct keys.
func (s *Service) IngestLane(
	ctx context.Context,
	snapshot, query, name string,
	docs []domlane.Doc, weight float64,
) (domlane.Key, domrun.Run, error) {
	ln, err := domlane.New(name, weight, docs)
	if err != nil {
		return domlane.Key{}, domrun.Run{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}
	if snapshot == "" || query == "" {
		return domlane.Key{}, domrun.Run{}, fmt.Errorf("%w: snapshot and query are required", domain.ErrInvalidParameter)
	}
	key := domlane.NewKey(snapshot, query, name)
	if err := key.Validate(); err != nil {
		return domlane.Key{}, domrun.Run{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}

	if err := s.lanes.Save(ctx, key, ln); err != nil {
		return domlane.Key{}, domrun.Run{}, fmt.Errorf("save lane: %w", err)
	}

	rec := recipe.New([]recipe.Source{{Lane: key, Weight: ln.Weight()}})
	rn, err := s.createRun(ctx, domrun.KindLane, rec, "", nil)
	if err != nil {
		return domlane.Key{}, domrun.Run{}, err
	}
	return key, rn, nil
}

// Fuse creates a fusion run from the given recipe. Referenced lanes must be
// ingested and unexpired; missing lanes fail fast with NotFound.
func (s *Service) Fuse(ctx context.Context, rec recipe.Recipe) (domrun.Run, error) {
	if err := rec.Validate(); err != nil {
		return domrun.Run{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}
	return s.createRun(ctx, domrun.KindFusion, rec, "", nil)
}

// Mutate derives a child run: the delta's fields overwrite a copy of the
// parent's recipe absolutely, then the full pipeline re-runs. Lane runs
// cannot be mutated; their recipe is fixed by ingestion.
func (s *Service) Mutate(ctx context.Context, runID string, delta recipe.Delta) (domrun.Run, error) {
	parent, err := s.runs.Get(ctx, runID)
	if err != nil {
		return domrun.Run{}, err
	}
	if parent.Kind() != domrun.KindFusion {
		return domrun.Run{}, fmt.Errorf("%w: run %s is a lane run and cannot be mutated", domain.ErrInconsistent, runID)
	}

	rec, err := parent.Recipe().Apply(delta)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}

	lineage := append(append([]recipe.Recipe(nil), parent.Lineage()...), parent.Recipe())
	return s.createRun(ctx, domrun.KindFusion, rec, parent.ID(), lineage)
}

// Provenance returns a run's recipe, lineage, quality estimates and
// registered representatives. Expired runs are NotFound.
func (s *Service) Provenance(ctx context.Context, runID string) (domrun.Run, []domrun.Representative, error) {
	rn, err := s.runs.Get(ctx, runID)
	if err != nil {
		return domrun.Run{}, nil, err
	}
	reps, err := s.runs.Representatives(ctx, runID)
	if err != nil {
		return domrun.Run{}, nil, err
	}
	return rn, reps, nil
}

// Results returns a run's fused ranking, best score first.
func (s *Service) Results(ctx context.Context, runID string) ([]domrun.ScoreEntry, error) {
	if _, err := s.runs.Get(ctx, runID); err != nil {
		return nil, err
	}
	return s.runs.Scores(ctx, runID)
}

// RegisterRepresentatives attaches caller-labeled documents to a run.
func (s *Service) RegisterRepresentatives(
	ctx context.Context, runID string, labeled map[string]domrun.Category,
) error {
	if len(labeled) == 0 {
		return fmt.Errorf("%w: no labeled documents", domain.ErrInvalidParameter)
	}
	reps := make([]domrun.Representative, 0, len(labeled))
	for docID, category := range labeled {
		rep, err := domrun.NewRepresentative(docID, category)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
		}
		reps = append(reps, rep)
	}
	if _, err := s.runs.Get(ctx, runID); err != nil {
		return err
	}
	return s.runs.SaveRepresentatives(ctx, runID, reps)
}

// createRun executes the full pipeline for a recipe and persists the
// outcome. Nothing is written unless every stage succeeds.
func (s *Service) createRun(
	ctx context.Context,
	kind domrun.Kind, rec recipe.Recipe,
	parentID string, lineage []recipe.Recipe,
) (domrun.Run, error) {
	records, snapshot, err := s.hydrate(ctx, rec)
	if err != nil {
		return domrun.Run{}, err
	}

	ids := unionIDs(records)
	profiles, err := s.lanes.Profiles(ctx, snapshot, ids)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("load profiles: %w", err)
	}

	fused, err := fusion.Fuse(records, profiles, fusion.Params{
		K: rec.K, Alpha: rec.Alpha, Beta: rec.Beta, Target: rec.Target,
	})
	if err != nil {
		return domrun.Run{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}

	points := frontier.Estimate(fused, profiles, rec.Target, rec.Cutoffs, frontier.Params{
		A: rec.Proxy.A, B: rec.Proxy.B, Gamma: rec.Proxy.Gamma,
		Rho: rec.Proxy.Rho, Ceiling: rec.Proxy.Ceiling, FBetaExp: rec.FBetaExp,
	})
	shape := structural.Compute(fused, records, profiles, structural.DefaultTopK)
	contributions := fusion.Contributions(fused, records, rec.TopN)

	freq := codes.NewFreq()
	for _, d := range fused {
		freq.Observe(profiles[d.ID])
	}

	rn, err := domrun.New(
		s.newID(), kind, rec, parentID, lineage, contributions,
		quality.Report{Frontier: points, Structural: shape}, s.now(),
	)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("build run: %w", err)
	}

	if err := s.runs.Save(ctx, rn, fused, freq); err != nil {
		return domrun.Run{}, fmt.Errorf("save run: %w", err)
	}
	return rn, nil
}

// hydrate loads every source lane, applying the recipe's weights over the
// stored ones. All sources must share one corpus snapshot.
func (s *Service) hydrate(ctx context.Context, rec recipe.Recipe) ([]domlane.Record, string, error) {
	records := make([]domlane.Record, len(rec.Sources))
	snapshot := ""
	for i, src := range rec.Sources {
		if snapshot == "" {
			snapshot = src.Lane.Snapshot
		} else if src.Lane.Snapshot != snapshot {
			return nil, "", fmt.Errorf("%w: sources span snapshots %q and %q",
				domain.ErrInvalidParameter, snapshot, src.Lane.Snapshot)
		}
		record, err := s.lanes.Get(ctx, src.Lane)
		if err != nil {
			return nil, "", err
		}
		record.Weight = src.Weight
		records[i] = record
	}
	return records, snapshot, nil
}

// unionIDs collects every document id appearing in any lane.
func unionIDs(records []domlane.Record) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, record := range records {
		for id := range record.Ranks {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

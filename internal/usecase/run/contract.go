package run

import (
	"context"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

// LaneRepository defines the storage contract for lane score sets.
type LaneRepository interface {
	Save(ctx context.Context, key domlane.Key, ln domlane.Lane) error
	Get(ctx context.Context, key domlane.Key) (domlane.Record, error)
	Profiles(ctx context.Context, snapshot string, ids []string) (map[string]codes.Profile, error)
}

// RunRepository defines the storage contract for fusion runs.
type RunRepository interface {
	Save(ctx context.Context, rn domrun.Run, fused []domrun.ScoredDoc, freq codes.FreqProfile) error
	Get(ctx context.Context, id string) (domrun.Run, error)
	Scores(ctx context.Context, id string) ([]domrun.ScoreEntry, error)
	SaveRepresentatives(ctx context.Context, id string, reps []domrun.Representative) error
	Representatives(ctx context.Context, id string) ([]domrun.Representative, error)
}

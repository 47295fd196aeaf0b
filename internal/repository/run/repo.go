// Package run persists fusion runs: fused score sets, metadata records,
// per-run code-frequency records and representatives.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lanefuse/lanefuse/internal/db"
	"github.com/lanefuse/lanefuse/internal/domain"
	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

// store is the consumer interface for run persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ZAdd(ctx context.Context, key string, members []db.ZMember) error
	ZRangeWithScores(ctx context.Context, key string) ([]db.ZMember, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo implements usecase run persistence.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a run repository. ttl bounds every run record class.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save persists a run atomically with respect to reads: the metadata record
// is written last, so a run is only discoverable once its scores and
// frequency record exist.
func (r *Repo) Save(
	ctx context.Context, rn domrun.Run,
	fused []domrun.ScoredDoc, freq codes.FreqProfile,
) error {
	id := rn.ID()

	members := make([]db.ZMember, len(fused))
	for i, d := range fused {
		members[i] = db.ZMember{Member: d.ID, Score: d.Score}
	}
	if err := r.store.ZAdd(ctx, scoresKey(id), members); err != nil {
		return fmt.Errorf("zadd run %s: %w", id, err)
	}
	if err := r.store.Expire(ctx, scoresKey(id), r.ttl, false); err != nil {
		return fmt.Errorf("expire run scores %s: %w", id, err)
	}

	if err := r.store.HSet(ctx, codesKey(id), freqToFields(freq)); err != nil {
		return fmt.Errorf("hset run codes %s: %w", id, err)
	}
	if err := r.store.Expire(ctx, codesKey(id), r.ttl, false); err != nil {
		return fmt.Errorf("expire run codes %s: %w", id, err)
	}

	data, err := runToJSON(rn)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", id, err)
	}
	if err := r.store.SetWithTTL(ctx, metaKey(id), data, r.ttl); err != nil {
		return fmt.Errorf("set run meta %s: %w", id, err)
	}
	return nil
}

// Get hydrates a run's metadata. Expired and never-created are both
// domain.ErrNotFound, naming the run id.
func (r *Repo) Get(ctx context.Context, id string) (domrun.Run, error) {
	data, err := r.store.Get(ctx, metaKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domrun.Run{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
		}
		return domrun.Run{}, fmt.Errorf("get run meta %s: %w", id, err)
	}
	rn, err := runFromJSON(data)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("run %s: %w", id, err)
	}
	return rn, nil
}

// Scores returns the fused score set ordered by descending score.
func (r *Repo) Scores(ctx context.Context, id string) ([]domrun.ScoreEntry, error) {
	members, err := r.store.ZRangeWithScores(ctx, scoresKey(id))
	if err != nil {
		return nil, fmt.Errorf("zrange run %s: %w", id, err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("run scores %s: %w", id, domain.ErrNotFound)
	}
	entries := make([]domrun.ScoreEntry, len(members))
	for i, m := range members {
		entries[i] = domrun.ScoreEntry{ID: m.Member, Score: m.Score}
	}
	return entries, nil
}

// SaveRepresentatives appends labeled documents to a run. Labels for an
// already-labeled document are overwritten.
func (r *Repo) SaveRepresentatives(
	ctx context.Context, id string, reps []domrun.Representative,
) error {
	fields := make(map[string]string, len(reps))
	for _, rep := range reps {
		fields[rep.DocID()] = string(rep.Category())
	}
	if err := r.store.HSet(ctx, repsKey(id), fields); err != nil {
		return fmt.Errorf("hset reps %s: %w", id, err)
	}
	if err := r.store.Expire(ctx, repsKey(id), r.ttl, false); err != nil {
		return fmt.Errorf("expire reps %s: %w", id, err)
	}
	return nil
}

// Representatives returns all labeled documents of a run.
func (r *Repo) Representatives(ctx context.Context, id string) ([]domrun.Representative, error) {
	fields, err := r.store.HGetAll(ctx, repsKey(id))
	if err != nil {
		return nil, fmt.Errorf("hgetall reps %s: %w", id, err)
	}
	out := make([]domrun.Representative, 0, len(fields))
	for docID, category := range fields {
		rep, err := domrun.NewRepresentative(docID, domrun.Category(category))
		if err != nil {
			return nil, fmt.Errorf("stored representative %s: %w", docID, err)
		}
		out = append(out, rep)
	}
	return out, nil
}

func scoresKey(id string) string { return domain.KeyPrefix + "run:" + id + ":scores" }
func codesKey(id string) string  { return domain.KeyPrefix + "run:" + id + ":codes" }
func metaKey(id string) string   { return domain.KeyPrefix + "run:" + id + ":meta" }
func repsKey(id string) string   { return domain.KeyPrefix + "run:" + id + ":reps" }

// Package lane persists lane score sets and document classification profiles.
package lane

import (
	"context"
	"fmt"
	"time"

	"github.com/lanefuse/lanefuse/internal/db"
	"github.com/lanefuse/lanefuse/internal/domain"
	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
)

// store is the consumer interface for lane persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	ZAdd(ctx context.Context, key string, members []db.ZMember) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// TTL holds retention horizons per record class.
type TTL struct {
	// Lane bounds score sets, rank maps and frequency records (hours-scale).
	Lane time.Duration
	// Doc bounds cached document profiles (longer than Lane).
	Doc time.Duration
}

// Repo implements usecase lane persistence.
type Repo struct {
	store store
	ttl   TTL
}

// New creates a lane repository.
func New(s store, ttl TTL) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save persists a lane: weighted score zset, rank hash, code-frequency
// record, lane metadata, and the per-document profile cache. Scores bake the
// lane weight in as weight/(k+rank); the rank hash lets fusion re-derive
// scores under a different weight without re-ingestion.
func (r *Repo) Save(ctx context.Context, key domlane.Key, ln domlane.Lane) error {
	scores := make([]db.ZMember, ln.Size())
	ranks := make(map[string]string, ln.Size())
	freq := codes.NewFreq()
	profileItems := make([]db.HashSetItem, 0, ln.Size())

	for i, doc := range ln.Docs() {
		rank := i + 1
		scores[i] = db.ZMember{
			Member: doc.ID(),
			Score:  ln.Weight() / float64(recipe.DefaultK+rank),
		}
		ranks[doc.ID()] = fmt.Sprintf("%d", rank)
		freq.Observe(doc.Profile())

		if fields := profileToFields(doc.Profile()); len(fields) > 0 {
			profileItems = append(profileItems, db.HashSetItem{
				Key:    docKey(key.Snapshot, doc.ID()),
				Fields: fields,
			})
		}
	}

	if err := r.store.ZAdd(ctx, scoresKey(key), scores); err != nil {
		return fmt.Errorf("zadd lane %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, ranksKey(key), ranks); err != nil {
		return fmt.Errorf("hset ranks %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, codesKey(key), freqToFields(freq)); err != nil {
		return fmt.Errorf("hset codes %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, metaKey(key), metaToFields(ln)); err != nil {
		return fmt.Errorf("hset meta %s: %w", key, err)
	}
	if err := r.store.HSetMulti(ctx, profileItems); err != nil {
		return fmt.Errorf("hset profiles %s: %w", key, err)
	}

	for _, k := range []string{scoresKey(key), ranksKey(key), codesKey(key), metaKey(key)} {
		if err := r.store.Expire(ctx, k, r.ttl.Lane, false); err != nil {
			return fmt.Errorf("expire %s: %w", k, err)
		}
	}
	// Profiles are shared across lanes of a snapshot; only set a TTL where
	// none exists so a later lane cannot shorten an earlier horizon.
	for _, item := range profileItems {
		if err := r.store.Expire(ctx, item.Key, r.ttl.Doc, true); err != nil {
			return fmt.Errorf("expire %s: %w", item.Key, err)
		}
	}

	return nil
}

// Get hydrates a lane record. A missing or expired lane yields
// domain.ErrNotFound naming the lane key.
func (r *Repo) Get(ctx context.Context, key domlane.Key) (domlane.Record, error) {
	meta, err := r.store.HGetAll(ctx, metaKey(key))
	if err != nil {
		return domlane.Record{}, fmt.Errorf("hgetall meta %s: %w", key, err)
	}
	if len(meta) == 0 {
		return domlane.Record{}, fmt.Errorf("lane %s: %w", key, domain.ErrNotFound)
	}
	weight, err := metaWeight(meta)
	if err != nil {
		return domlane.Record{}, fmt.Errorf("lane %s: %w", key, err)
	}

	rankFields, err := r.store.HGetAll(ctx, ranksKey(key))
	if err != nil {
		return domlane.Record{}, fmt.Errorf("hgetall ranks %s: %w", key, err)
	}
	if len(rankFields) == 0 {
		return domlane.Record{}, fmt.Errorf("lane ranks %s: %w", key, domain.ErrNotFound)
	}
	ranks, err := ranksFromFields(rankFields)
	if err != nil {
		return domlane.Record{}, fmt.Errorf("lane %s: %w", key, err)
	}

	freqFields, err := r.store.HGetAll(ctx, codesKey(key))
	if err != nil {
		return domlane.Record{}, fmt.Errorf("hgetall codes %s: %w", key, err)
	}
	freq, err := freqFromFields(freqFields)
	if err != nil {
		return domlane.Record{}, fmt.Errorf("lane %s: %w", key, err)
	}

	return domlane.Record{Key: key, Weight: weight, Ranks: ranks, Freq: freq}, nil
}

// Profiles fetches cached classification profiles for documents of a
// snapshot. Documents whose profile has expired are simply absent.
func (r *Repo) Profiles(
	ctx context.Context, snapshot string, ids []string,
) (map[string]codes.Profile, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(snapshot, id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall profiles: %w", err)
	}

	out := make(map[string]codes.Profile, len(ids))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue
		}
		p, err := profileFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", ids[i], err)
		}
		out[ids[i]] = p
	}
	return out, nil
}

func scoresKey(k domlane.Key) string { return domain.KeyPrefix + "lane:" + k.String() + ":scores" }
func ranksKey(k domlane.Key) string  { return domain.KeyPrefix + "lane:" + k.String() + ":ranks" }
func codesKey(k domlane.Key) string  { return domain.KeyPrefix + "lane:" + k.String() + ":codes" }
func metaKey(k domlane.Key) string   { return domain.KeyPrefix + "lane:" + k.String() + ":meta" }

func docKey(snapshot, id string) string {
	return domain.KeyPrefix + "doc:" + snapshot + ":" + id
}

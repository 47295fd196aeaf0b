package run

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/lanefuse/lanefuse/internal/db"
	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

// mockStore implements the consumer interface for tests, in memory.
type mockStore struct {
	kv      map[string][]byte
	hashes  map[string]map[string]string
	zsets   map[string][]db.ZMember
	ttls    map[string]time.Duration
	setErr  error
	zaddErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		kv:     make(map[string][]byte),
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string][]db.ZMember),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.kv[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) ZAdd(_ context.Context, key string, members []db.ZMember) error {
	if m.zaddErr != nil {
		return m.zaddErr
	}
	m.zsets[key] = append(m.zsets[key], members...)
	return nil
}

func (m *mockStore) ZRangeWithScores(_ context.Context, key string) ([]db.ZMember, error) {
	members := append([]db.ZMember(nil), m.zsets[key]...)
	sort.Slice(members, func(i, j int) bool { return members[i].Score > members[j].Score })
	return members, nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	m.ttls[key] = ttl
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, 168*time.Hour), ms
}

func testRun(t *testing.T, id string) domrun.Run {
	t.Helper()
	rec := recipe.New([]recipe.Source{
		{Lane: domlane.Key{Snapshot: "2024q3", Fingerprint: "aaaa", Name: "semantic"}, Weight: 1},
	})
	target, err := codes.NewTarget(map[string]map[string]float64{
		"fi": {"A01B": 1.0, "B02C": 0.5},
	})
	if err != nil {
		t.Fatalf("codes.NewTarget: %v", err)
	}
	rec.Target = target
	rn, err := domrun.New(id, domrun.KindFusion, rec, "", nil,
		map[string]float64{"2024q3:aaaa:semantic": 100},
		quality.Report{
			Frontier:   []quality.FrontierPoint{{Cutoff: 10, Precision: 0.5, Recall: 0.4, FBeta: 0.43}},
			Structural: quality.Structural{LaneAgreement: 0, CodeConcentration: 1, ScoreShape: 0.1, Health: 0},
		},
		1700000000,
	)
	if err != nil {
		t.Fatalf("domrun.New: %v", err)
	}
	return rn
}

package lane

import (
	"context"
	"testing"
	"time"

	"github.com/lanefuse/lanefuse/internal/db"
)

// mockStore implements the consumer interface for tests, in memory.
type mockStore struct {
	hashes    map[string]map[string]string
	zsets     map[string][]db.ZMember
	ttls      map[string]time.Duration
	ttlNX     map[string]bool
	hsetErr   error
	zaddErr   error
	expireErr error
	getAllErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string][]db.ZMember),
		ttls:   make(map[string]time.Duration),
		ttlNX:  make(map[string]bool),
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
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

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		if err := m.HSet(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		fields, err := m.HGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = fields
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

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireErr != nil {
		return m.expireErr
	}
	if nx {
		if _, set := m.ttls[key]; set {
			return nil
		}
	}
	m.ttls[key] = ttl
	m.ttlNX[key] = nx
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	repo := New(ms, TTL{Lane: 72 * time.Hour, Doc: 168 * time.Hour})
	return repo, ms
}

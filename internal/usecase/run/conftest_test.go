package run

import (
	"context"
	"fmt"
	"testing"

	"github.com/lanefuse/lanefuse/internal/domain"
	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
	domrun "github.com/lanefuse/lanefuse/internal/domain/run"
)

// laneStore is an in-memory LaneRepository.
type laneStore struct {
	records  map[string]domlane.Record
	profiles map[string]map[string]codes.Profile // snapshot -> doc -> profile
	saveErr  error
	getErr   error
}

func newLaneStore() *laneStore {
	return &laneStore{
		records:  make(map[string]domlane.Record),
		profiles: make(map[string]map[string]codes.Profile),
	}
}

func (s *laneStore) Save(_ context.Context, key domlane.Key, ln domlane.Lane) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	ranks := make(map[string]int, ln.Size())
	freq := codes.NewFreq()
	for i, doc := range ln.Docs() {
		ranks[doc.ID()] = i + 1
		freq.Observe(doc.Profile())
		if len(doc.Profile()) > 0 {
			byDoc := s.profiles[key.Snapshot]
			if byDoc == nil {
				byDoc = make(map[string]codes.Profile)
				s.profiles[key.Snapshot] = byDoc
			}
			byDoc[doc.ID()] = doc.Profile()
		}
	}
	s.records[key.String()] = domlane.Record{
		Key: key, Weight: ln.Weight(), Ranks: ranks, Freq: freq,
	}
	return nil
}

func (s *laneStore) Get(_ context.Context, key domlane.Key) (domlane.Record, error) {
	if s.getErr != nil {
		return domlane.Record{}, s.getErr
	}
	record, ok := s.records[key.String()]
	if !ok {
		return domlane.Record{}, fmt.Errorf("lane %s: %w", key, domain.ErrNotFound)
	}
	return record, nil
}

func (s *laneStore) Profiles(
	_ context.Context, snapshot string, ids []string,
) (map[string]codes.Profile, error) {
	out := make(map[string]codes.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[snapshot][id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// runStore is an in-memory RunRepository.
type runStore struct {
	runs    map[string]domrun.Run
	scores  map[string][]domrun.ScoreEntry
	reps    map[string]map[string]domrun.Category
	saveErr error
}

func newRunStore() *runStore {
	return &runStore{
		runs:   make(map[string]domrun.Run),
		scores: make(map[string][]domrun.ScoreEntry),
		reps:   make(map[string]map[string]domrun.Category),
	}
}

func (s *runStore) Save(
	_ context.Context, rn domrun.Run, fused []domrun.ScoredDoc, _ codes.FreqProfile,
) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	entries := make([]domrun.ScoreEntry, len(fused))
	for i, d := range fused {
		entries[i] = domrun.ScoreEntry{ID: d.ID, Score: d.Score}
	}
	s.runs[rn.ID()] = rn
	s.scores[rn.ID()] = entries
	return nil
}

func (s *runStore) Get(_ context.Context, id string) (domrun.Run, error) {
	rn, ok := s.runs[id]
	if !ok {
		return domrun.Run{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return rn, nil
}

func (s *runStore) Scores(_ context.Context, id string) ([]domrun.ScoreEntry, error) {
	entries, ok := s.scores[id]
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("run scores %s: %w", id, domain.ErrNotFound)
	}
	return entries, nil
}

func (s *runStore) SaveRepresentatives(
	_ context.Context, id string, reps []domrun.Representative,
) error {
	byDoc := s.reps[id]
	if byDoc == nil {
		byDoc = make(map[string]domrun.Category)
		s.reps[id] = byDoc
	}
	for _, rep := range reps {
		byDoc[rep.DocID()] = rep.Category()
	}
	return nil
}

func (s *runStore) Representatives(_ context.Context, id string) ([]domrun.Representative, error) {
	out := make([]domrun.Representative, 0, len(s.reps[id]))
	for docID, category := range s.reps[id] {
		rep, err := domrun.NewRepresentative(docID, category)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

// newTestService wires a service over in-memory stores with deterministic
// ids and timestamps.
func newTestService(t *testing.T) (*Service, *laneStore, *runStore) {
	t.Helper()
	lanes := newLaneStore()
	runs := newRunStore()
	svc := New(lanes, runs)

	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("run-%d", seq)
	}
	svc.now = func() int64 { return 1700000000 }
	return svc, lanes, runs
}

func recipeTarget() (codes.TargetProfile, error) {
	return codes.NewTarget(map[string]map[string]float64{"fi": {"A01B": 1}})
}

func makeDocs(t *testing.T, fiByID map[string][]string, ids ...string) []domlane.Doc {
	t.Helper()
	docs := make([]domlane.Doc, len(ids))
	for i, id := range ids {
		var profile codes.Profile
		if fi, ok := fiByID[id]; ok {
			p, err := codes.NewProfile(map[string][]string{"fi": fi})
			if err != nil {
				t.Fatalf("NewProfile: %v", err)
			}
			profile = p
		}
		doc, err := domlane.NewDoc(id, profile)
		if err != nil {
			t.Fatalf("NewDoc(%q): %v", id, err)
		}
		docs[i] = doc
	}
	return docs
}

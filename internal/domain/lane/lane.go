// Package lane models one retrieval strategy's ranked output for a query.
package lane

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
)

// fingerprintLen is the number of hex chars kept from the query hash.
const fingerprintLen = 16

// Doc is one ranked candidate with its classification profile.
// Rank is implied by position: the first doc of a lane is rank 1.
type Doc struct {
	id      string
	profile codes.Profile
}

// NewDoc validates and creates a Doc.
func NewDoc(id string, profile codes.Profile) (Doc, error) {
	if id == "" {
		return Doc{}, fmt.Errorf("document id is required")
	}
	return Doc{id: id, profile: profile}, nil
}

// ID returns the opaque document identifier.
func (d Doc) ID() string { return d.id }

// Profile returns the document's classification profile.
func (d Doc) Profile() codes.Profile { return d.profile }

// Lane is a rank-ordered candidate list with a fusion weight.
// Ranks form a contiguous 1..N permutation by construction: docs are
// positional and duplicates are rejected.
type Lane struct {
	name   string
	weight float64
	docs   []Doc
}

// New validates and creates a Lane.
func New(name string, weight float64, docs []Doc) (Lane, error) {
	if name == "" {
		return Lane{}, fmt.Errorf("lane name is required")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return Lane{}, fmt.Errorf("lane weight must be non-negative, got %v", weight)
	}
	if len(docs) == 0 {
		return Lane{}, fmt.Errorf("lane %q has no documents", name)
	}
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.id]; dup {
			return Lane{}, fmt.Errorf("duplicate document %q in lane %q", d.id, name)
		}
		seen[d.id] = struct{}{}
	}
	return Lane{name: name, weight: weight, docs: docs}, nil
}

// Name returns the lane name.
func (l Lane) Name() string { return l.name }

// Weight returns the fusion weight supplied at ingestion.
func (l Lane) Weight() float64 { return l.weight }

// Docs returns the rank-ordered documents.
func (l Lane) Docs() []Doc { return l.docs }

// Size returns the result-set size N.
func (l Lane) Size() int { return len(l.docs) }

// Key identifies a persisted lane score set.
type Key struct {
	Snapshot    string
	Fingerprint string
	Name        string
}

// NewKey builds a lane key from the corpus snapshot, the raw query text and
// the lane name. The query is reduced to a stable fingerprint.
func NewKey(snapshot, query, name string) Key {
	return Key{Snapshot: snapshot, Fingerprint: Fingerprint(query), Name: name}
}

// Validate checks that all key parts are present and separator-free.
func (k Key) Validate() error {
	for _, part := range []string{k.Snapshot, k.Fingerprint, k.Name} {
		if part == "" {
			return fmt.Errorf("incomplete lane key %v", k)
		}
		if strings.Contains(part, ":") {
			return fmt.Errorf("lane key part %q must not contain ':'", part)
		}
	}
	return nil
}

// String renders the key as snapshot:fingerprint:name.
func (k Key) String() string {
	return k.Snapshot + ":" + k.Fingerprint + ":" + k.Name
}

// ParseKey parses a snapshot:fingerprint:name string.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed lane key %q", s)
	}
	k := Key{Snapshot: parts[0], Fingerprint: parts[1], Name: parts[2]}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Record is a hydrated lane score set as read back from storage.
type Record struct {
	Key    Key
	Weight float64
	Ranks  map[string]int
	Freq   codes.FreqProfile
}

// Fingerprint reduces query text to a short stable hex digest.
func Fingerprint(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

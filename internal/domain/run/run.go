// Package run models fusion run identity, lineage and provenance.
package run

import (
	"fmt"

	"github.com/lanefuse/lanefuse/internal/domain/quality"
	"github.com/lanefuse/lanefuse/internal/domain/recipe"
)

// Kind distinguishes how a run was created.
type Kind string

// Run kinds.
const (
	// KindLane is a run backed by a single raw lane score set.
	KindLane Kind = "lane"
	// KindFusion is a run produced by fusing lanes under a recipe.
	KindFusion Kind = "fusion"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindLane || k == KindFusion
}

// Category labels a representative document's relevance.
type Category string

// Representative categories.
const (
	Core        Category = "core"
	Boundary    Category = "boundary"
	NonRelevant Category = "non_relevant"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == Core || c == Boundary || c == NonRelevant
}

// Representative is a caller-labeled document attached to a run to seed
// future tuning. Never auto-generated.
type Representative struct {
	docID    string
	category Category
}

// NewRepresentative validates and creates a Representative.
func NewRepresentative(docID string, category Category) (Representative, error) {
	if docID == "" {
		return Representative{}, fmt.Errorf("representative document id is required")
	}
	if !category.IsValid() {
		return Representative{}, fmt.Errorf("unknown representative category %q", category)
	}
	return Representative{docID: docID, category: category}, nil
}

// DocID returns the labeled document id.
func (r Representative) DocID() string { return r.docID }

// Category returns the relevance label.
func (r Representative) Category() Category { return r.category }

// ScoredDoc is one document of a fused score set. Score is the boosted
// value the ordering uses; Fused and Overlap feed the quality estimators.
type ScoredDoc struct {
	ID      string
	Fused   float64
	Overlap float64
	Score   float64
}

// ScoreEntry is one member of a persisted ordered score set.
type ScoreEntry struct {
	ID    string
	Score float64
}

// Run is the immutable record of one fusion: identity, recipe, lineage,
// contribution breakdown and computed quality estimates.
type Run struct {
	id            string
	kind          Kind
	recipe        recipe.Recipe
	parentID      string
	lineage       []recipe.Recipe
	contributions map[string]float64
	quality       quality.Report
	createdAt     int64
}

// New validates and creates a Run.
func New(
	id string, kind Kind, rec recipe.Recipe,
	parentID string, lineage []recipe.Recipe,
	contributions map[string]float64, report quality.Report,
	createdAt int64,
) (Run, error) {
	if id == "" {
		return Run{}, fmt.Errorf("run id is required")
	}
	if !kind.IsValid() {
		return Run{}, fmt.Errorf("unknown run kind %q", kind)
	}
	if parentID == id {
		return Run{}, fmt.Errorf("run %s cannot be its own parent", id)
	}
	return Run{
		id: id, kind: kind, recipe: rec,
		parentID: parentID, lineage: lineage,
		contributions: contributions, quality: report,
		createdAt: createdAt,
	}, nil
}

// Reconstruct rebuilds a Run from persisted state without revalidation.
func Reconstruct(
	id string, kind Kind, rec recipe.Recipe,
	parentID string, lineage []recipe.Recipe,
	contributions map[string]float64, report quality.Report,
	createdAt int64,
) Run {
	return Run{
		id: id, kind: kind, recipe: rec,
		parentID: parentID, lineage: lineage,
		contributions: contributions, quality: report,
		createdAt: createdAt,
	}
}

// ID returns the run identifier.
func (r Run) ID() string { return r.id }

// Kind returns the run kind.
func (r Run) Kind() Kind { return r.kind }

// Recipe returns the parameter set that produced this run.
func (r Run) Recipe() recipe.Recipe { return r.recipe }

// ParentID returns the parent run id, empty for root runs.
func (r Run) ParentID() string { return r.parentID }

// Lineage returns the ordered ancestor recipe chain, oldest first.
func (r Run) Lineage() []recipe.Recipe { return r.lineage }

// Contributions returns per-lane top-N coverage percentages.
func (r Run) Contributions() map[string]float64 { return r.contributions }

// Quality returns the computed frontier and structural estimates.
func (r Run) Quality() quality.Report { return r.quality }

// CreatedAt returns the creation time in unix seconds.
func (r Run) CreatedAt() int64 { return r.createdAt }

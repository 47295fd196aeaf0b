package recipe

import (
	"math"
	"testing"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	"github.com/lanefuse/lanefuse/internal/domain/lane"
)

func testSources() []Source {
	return []Source{
		{Lane: lane.Key{Snapshot: "2024q3", Fingerprint: "aaaa", Name: "semantic"}, Weight: 1.0},
		{Lane: lane.Key{Snapshot: "2024q3", Fingerprint: "aaaa", Name: "keyword"}, Weight: 0.8},
	}
}

func TestNew_Defaults(t *testing.T) {
	rec := New(testSources())

	if rec.K != DefaultK {
		t.Errorf("expected k=%d, got %d", DefaultK, rec.K)
	}
	if rec.Alpha != DefaultAlpha {
		t.Errorf("expected alpha=%v, got %v", DefaultAlpha, rec.Alpha)
	}
	if rec.Beta != DefaultBeta {
		t.Errorf("expected beta=%v, got %v", DefaultBeta, rec.Beta)
	}
	if rec.FBetaExp != DefaultFBetaExp {
		t.Errorf("expected f-beta exponent %v, got %v", DefaultFBetaExp, rec.FBetaExp)
	}
	if rec.TopN != DefaultTopN {
		t.Errorf("expected top-n %d, got %d", DefaultTopN, rec.TopN)
	}
	if len(rec.Cutoffs) == 0 {
		t.Error("expected default cutoff grid")
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("default recipe must validate: %v", err)
	}
}

func TestValidate_NoSources(t *testing.T) {
	rec := New(nil)
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for empty sources")
	}
}

func TestValidate_DuplicateSource(t *testing.T) {
	src := testSources()[0]
	rec := New([]Source{src, src})
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for duplicate source")
	}
}

func TestValidate_BadNumbers(t *testing.T) {
	cases := map[string]func(*Recipe){
		"k zero":            func(r *Recipe) { r.K = 0 },
		"negative alpha":    func(r *Recipe) { r.Alpha = -0.1 },
		"negative beta":     func(r *Recipe) { r.Beta = -0.1 },
		"zero f-beta":       func(r *Recipe) { r.FBetaExp = 0 },
		"zero top-n":        func(r *Recipe) { r.TopN = 0 },
		"zero cutoff":       func(r *Recipe) { r.Cutoffs = []int{10, 0} },
		"nan source weight": func(r *Recipe) { r.Sources[0].Weight = math.NaN() },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			rec := New(testSources())
			corrupt(&rec)
			if err := rec.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestClone_Independent(t *testing.T) {
	rec := New(testSources())
	target, _ := codes.NewTarget(map[string]map[string]float64{"fi": {"A01B": 1}})
	rec.Target = target

	clone := rec.Clone()
	clone.Sources[0].Weight = 99
	clone.Cutoffs[0] = 999
	clone.Target[codes.FI]["A01B"] = 42

	if rec.Sources[0].Weight == 99 {
		t.Error("clone must not share sources with the original")
	}
	if rec.Cutoffs[0] == 999 {
		t.Error("clone must not share cutoffs with the original")
	}
	if rec.Target[codes.FI]["A01B"] == 42 {
		t.Error("clone must not share the target with the original")
	}
}

func TestDelta_IsEmpty(t *testing.T) {
	if !(Delta{}).IsEmpty() {
		t.Error("zero delta must be empty")
	}
	k := 30
	if (Delta{K: &k}).IsEmpty() {
		t.Error("delta with k set must not be empty")
	}
}

func TestApply_EmptyDeltaEqualsClone(t *testing.T) {
	rec := New(testSources())

	out, err := rec.Apply(Delta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.K != rec.K || out.Alpha != rec.Alpha || len(out.Sources) != len(rec.Sources) {
		t.Error("empty delta must reproduce the parent recipe")
	}
}

func TestApply_AbsoluteOverwrite(t *testing.T) {
	rec := New(testSources())
	k := 90
	alpha := 0.7
	target, _ := codes.NewTarget(map[string]map[string]float64{"cpc": {"H02S": 2}})

	out, err := rec.Apply(Delta{
		Weights: map[string]float64{"2024q3:aaaa:keyword": 0.1},
		K:       &k,
		Alpha:   &alpha,
		Target:  target,
		Cutoffs: []int{5, 15},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Sources[1].Weight != 0.1 {
		t.Errorf("expected overwritten weight 0.1, got %v", out.Sources[1].Weight)
	}
	if out.Sources[0].Weight != 1.0 {
		t.Errorf("unnamed source weight must be unchanged, got %v", out.Sources[0].Weight)
	}
	if out.K != 90 || out.Alpha != 0.7 {
		t.Errorf("expected k=90 alpha=0.7, got k=%d alpha=%v", out.K, out.Alpha)
	}
	if len(out.Cutoffs) != 2 || out.Cutoffs[0] != 5 {
		t.Errorf("cutoffs must be replaced, not merged: %v", out.Cutoffs)
	}
	if out.Target.Weights(codes.CPC)["H02S"] != 2 {
		t.Error("target must be replaced absolutely")
	}

	// Parent untouched.
	if rec.K != DefaultK || rec.Sources[1].Weight != 0.8 {
		t.Error("apply must never modify the parent recipe")
	}
}

func TestApply_UnknownSourceLane(t *testing.T) {
	rec := New(testSources())
	_, err := rec.Apply(Delta{Weights: map[string]float64{"2024q3:aaaa:citation": 1}})
	if err == nil {
		t.Fatal("expected error for unknown source lane")
	}
}

func TestApply_InvalidResultRejected(t *testing.T) {
	rec := New(testSources())
	k := -5
	if _, err := rec.Apply(Delta{K: &k}); err == nil {
		t.Fatal("expected error for non-positive k")
	}
}

func TestApply_NegativeWeight(t *testing.T) {
	rec := New(testSources())
	_, err := rec.Apply(Delta{Weights: map[string]float64{"2024q3:aaaa:semantic": -1}})
	if err == nil {
		t.Fatal("expected error for negative weight")
	}
}

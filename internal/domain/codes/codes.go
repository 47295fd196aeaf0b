// Package codes models the four patent classification code systems.
// Systems are fixed and independent: a code string is only meaningful
// within its own system and is never compared across systems.
package codes

import (
	"fmt"
	"math"
	"sort"
)

// System identifies a classification code system.
type System string

// The four supported code systems.
const (
	FI  System = "fi"
	FT  System = "ft"
	CPC System = "cpc"
	IPC System = "ipc"
)

// Systems returns all supported systems in canonical order.
func Systems() []System {
	return []System{FI, FT, CPC, IPC}
}

// IsValid checks if the system is one of the supported values.
func (s System) IsValid() bool {
	return s == FI || s == FT || s == CPC || s == IPC
}

// Profile holds one document's codes, keyed by system.
type Profile map[System][]string

// NewProfile validates and creates a Profile from raw system-name keys.
// Unknown system names are rejected, not silently dropped.
func NewProfile(raw map[string][]string) (Profile, error) {
	p := make(Profile, len(raw))
	for name, codeList := range raw {
		sys := System(name)
		if !sys.IsValid() {
			return nil, fmt.Errorf("unknown code system %q", name)
		}
		if len(codeList) == 0 {
			continue
		}
		p[sys] = append([]string(nil), codeList...)
	}
	return p, nil
}

// Has reports whether the profile holds the given code in the given system.
func (p Profile) Has(sys System, code string) bool {
	for _, c := range p[sys] {
		if c == code {
			return true
		}
	}
	return false
}

// TargetProfile is the caller's desired code-weight distribution per system.
// Read-only input to boosting and recall estimation.
type TargetProfile map[System]map[string]float64

// NewTarget validates and creates a TargetProfile.
// Weights must be finite and non-negative; unknown systems are rejected.
func NewTarget(raw map[string]map[string]float64) (TargetProfile, error) {
	t := make(TargetProfile, len(raw))
	for name, weights := range raw {
		sys := System(name)
		if !sys.IsValid() {
			return nil, fmt.Errorf("unknown code system %q", name)
		}
		if len(weights) == 0 {
			continue
		}
		ws := make(map[string]float64, len(weights))
		for code, w := range weights {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("non-numeric weight for %s code %q", name, code)
			}
			if w < 0 {
				return nil, fmt.Errorf("negative weight %v for %s code %q", w, name, code)
			}
			ws[code] = w
		}
		t[sys] = ws
	}
	return t, nil
}

// IsEmpty reports whether the target carries no positive weight.
func (t TargetProfile) IsEmpty() bool {
	return t.TotalWeight() == 0
}

// TotalWeight sums every weight across all systems.
func (t TargetProfile) TotalWeight() float64 {
	var sum float64
	for _, weights := range t {
		for _, w := range weights {
			sum += w
		}
	}
	return sum
}

// Weights returns the code-weight map for one system (nil if absent).
func (t TargetProfile) Weights(sys System) map[string]float64 {
	return t[sys]
}

// Codes returns the sorted code list for one system.
func (t TargetProfile) Codes(sys System) []string {
	weights := t[sys]
	out := make([]string, 0, len(weights))
	for code := range weights {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// FreqProfile aggregates code occurrence counts over a result set,
// keyed by system.
type FreqProfile map[System]map[string]int

// NewFreq creates an empty frequency profile.
func NewFreq() FreqProfile {
	return make(FreqProfile, len(Systems()))
}

// Observe counts every code of one document's profile.
func (f FreqProfile) Observe(p Profile) {
	for sys, codeList := range p {
		counts := f[sys]
		if counts == nil {
			counts = make(map[string]int)
			f[sys] = counts
		}
		for _, code := range codeList {
			counts[code]++
		}
	}
}

// Counts returns the code-count map for one system (nil if none observed).
func (f FreqProfile) Counts(sys System) map[string]int {
	return f[sys]
}

// Cosine computes cosine similarity between an observed frequency vector and
// a target weight vector over the union of their codes. Returns 0 when
// either vector is all-zero.
func Cosine(counts map[string]int, weights map[string]float64) float64 {
	var dot, normC, normW float64
	for code, c := range counts {
		fc := float64(c)
		normC += fc * fc
		if w, ok := weights[code]; ok {
			dot += fc * w
		}
	}
	for _, w := range weights {
		normW += w * w
	}
	if normC == 0 || normW == 0 {
		return 0
	}
	return dot / (math.Sqrt(normC) * math.Sqrt(normW))
}

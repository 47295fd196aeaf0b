package lane

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lanefuse/lanefuse/internal/domain/codes"
	domlane "github.com/lanefuse/lanefuse/internal/domain/lane"
)

// metaToFields converts lane metadata to a map for HSET.
func metaToFields(ln domlane.Lane) map[string]string {
	return map[string]string{
		"name":        ln.Name(),
		"weight":      strconv.FormatFloat(ln.Weight(), 'g', -1, 64),
		"size":        strconv.Itoa(ln.Size()),
		"ingested_at": strconv.FormatInt(time.Now().Unix(), 10),
	}
}

// metaWeight extracts the stored lane weight from an HGETALL result.
func metaWeight(m map[string]string) (float64, error) {
	w, err := strconv.ParseFloat(m["weight"], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored weight %q: %w", m["weight"], err)
	}
	return w, nil
}

// ranksFromFields hydrates the docID->rank map from an HGETALL result.
func ranksFromFields(m map[string]string) (map[string]int, error) {
	out := make(map[string]int, len(m))
	for id, rankStr := range m {
		rank, err := strconv.Atoi(rankStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored rank %q for %s: %w", rankStr, id, err)
		}
		out[id] = rank
	}
	return out, nil
}

// freqToFields encodes a frequency profile as one JSON field per system.
func freqToFields(f codes.FreqProfile) map[string]string {
	out := make(map[string]string, len(codes.Systems()))
	for _, sys := range codes.Systems() {
		counts := f.Counts(sys)
		if counts == nil {
			counts = map[string]int{}
		}
		data, _ := json.Marshal(counts)
		out[string(sys)] = string(data)
	}
	return out
}

// freqFromFields hydrates a frequency profile from an HGETALL result.
func freqFromFields(m map[string]string) (codes.FreqProfile, error) {
	f := codes.NewFreq()
	for _, sys := range codes.Systems() {
		data, ok := m[string(sys)]
		if !ok || data == "" {
			continue
		}
		var counts map[string]int
		if err := json.Unmarshal([]byte(data), &counts); err != nil {
			return nil, fmt.Errorf("unmarshal %s counts: %w", sys, err)
		}
		if len(counts) > 0 {
			f[sys] = counts
		}
	}
	return f, nil
}

// profileToFields encodes a document profile as one JSON field per
// populated system.
func profileToFields(p codes.Profile) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for sys, codeList := range p {
		data, _ := json.Marshal(codeList)
		out[string(sys)] = string(data)
	}
	return out
}

// profileFromFields hydrates a document profile from an HGETALL result.
func profileFromFields(m map[string]string) (codes.Profile, error) {
	p := make(codes.Profile, len(m))
	for name, data := range m {
		sys := codes.System(name)
		if !sys.IsValid() {
			// Skip unknown fields rather than fail a read: the write path
			// only stores the four systems.
			continue
		}
		var codeList []string
		if err := json.Unmarshal([]byte(data), &codeList); err != nil {
			return nil, fmt.Errorf("unmarshal %s codes: %w", name, err)
		}
		p[sys] = codeList
	}
	return p, nil
}

package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// MemoryIndex is a deterministic keyword index over a loaded slice of
// occupations. It backs file-based runs and tests; ranking is a weighted
// token overlap (title 3, synonyms 2, description 1), ties broken by code.
type MemoryIndex struct {
	recs []Occupation
}

func NewMemoryIndex(recs []Occupation) *MemoryIndex {
	return &MemoryIndex{recs: recs}
}

// LoadFile reads a JSON array of occupations.
func LoadFile(path string) ([]Occupation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file: %w", err)
	}
	var recs []Occupation
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("taxonomy file %s: %w", path, err)
	}
	return recs, nil
}

func (x *MemoryIndex) Search(_ context.Context, query string, limit int) ([]Occupation, error) {
	terms := tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		rec   Occupation
		score int
	}
	var hits []scored
	for _, r := range x.recs {
		title := tokenSet(r.Title)
		desc := tokenSet(r.Description)
		syn := map[string]bool{}
		for _, s := range r.Synonyms {
			for t := range tokenSet(s) {
				syn[t] = true
			}
		}
		score := 0
		for _, t := range terms {
			switch {
			case title[t]:
				score += 3
			case syn[t]:
				score += 2
			case desc[t]:
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{rec: r, score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rec.Code < hits[j].rec.Code
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Occupation, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range tokenize(s) {
		set[t] = true
	}
	return set
}

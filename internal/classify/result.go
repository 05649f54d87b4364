package classify

import "encoding/json"

// Result is the immutable outcome of mapping one input role. An empty
// Code means no acceptable match. Ownership passes to the caller; the
// agent never persists results.
type Result struct {
	SourceRole string
	Code       string
	Label      string
	Confidence Tier
	Reasoning  string
}

func (r Result) Score() float64 { return r.Confidence.Score() }

// MarshalJSON emits null for absent code/label and the score derived
// from the confidence tier.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		SourceRole string  `json:"source_role"`
		Code       *string `json:"code"`
		Label      *string `json:"label"`
		Confidence Tier    `json:"confidence"`
		Score      float64 `json:"score"`
		Reasoning  string  `json:"reasoning"`
	}
	w := wire{
		SourceRole: r.SourceRole,
		Confidence: r.Confidence,
		Score:      r.Score(),
		Reasoning:  r.Reasoning,
	}
	if r.Code != "" {
		w.Code = &r.Code
	}
	if r.Label != "" {
		w.Label = &r.Label
	}
	return json.Marshal(w)
}

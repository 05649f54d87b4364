package classify

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"rolemap/internal/util"
)

// rawRecord is one provisional record as the model returned it, before
// validation against the batch.
type rawRecord struct {
	Role       string  `json:"role"`
	Code       *string `json:"code"`
	Label      *string `json:"label"`
	Confidence string  `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseResponse turns raw model output into exactly one Result per batch
// item. Individual bad records are repaired or dropped; only a response
// that fails to parse as JSON at all returns a ParseError. Items the
// model skipped are filled by the fallback resolver.
func parseResponse(raw string, batch []Item, log *zap.Logger) ([]Result, error) {
	text := util.StripCodeFences(raw)
	var recs []rawRecord
	if err := json.Unmarshal([]byte(text), &recs); err != nil {
		if err2 := json.Unmarshal([]byte(util.ExtractJSONArray(text)), &recs); err2 != nil {
			return nil, &ParseError{Err: err}
		}
	}

	expected := map[string]int{}
	for _, it := range batch {
		expected[it.Role]++
	}

	// Queue accepted records per role: repeated role strings in the input
	// are matched to records in order of appearance.
	byRole := map[string][]rawRecord{}
	for _, rec := range recs {
		if rec.Role == "" {
			log.Warn("dropping classification record with no role")
			continue
		}
		if expected[rec.Role] == 0 {
			log.Warn("dropping classification record for unknown role", zap.String("role", rec.Role))
			continue
		}
		byRole[rec.Role] = append(byRole[rec.Role], rec)
	}

	out := make([]Result, 0, len(batch))
	for _, it := range batch {
		queue := byRole[it.Role]
		if len(queue) == 0 {
			log.Warn("model returned no record for role", zap.String("role", it.Role))
			out = append(out, fallbackResult(it, reasonNoMatch))
			continue
		}
		byRole[it.Role] = queue[1:]
		out = append(out, validateRecord(queue[0], it, log))
	}
	return out, nil
}

// validateRecord enforces candidate-set membership. An out-of-set code is
// repaired, not surfaced as an error: code and label are nulled and
// confidence drops to LOW.
func validateRecord(rec rawRecord, it Item, log *zap.Logger) Result {
	res := Result{
		SourceRole: it.Role,
		Confidence: ParseTier(rec.Confidence),
		Reasoning:  strings.TrimSpace(rec.Reasoning),
	}
	if rec.Code == nil || strings.TrimSpace(*rec.Code) == "" {
		// The instruction demands LOW for a declined match; don't trust a
		// model that claims confidence in no answer.
		res.Confidence = TierLow
		return res
	}
	code := strings.TrimSpace(*rec.Code)
	for _, c := range it.Candidates {
		if c.Code == code {
			res.Code = code
			res.Label = c.Title
			return res
		}
	}
	log.Warn("model returned code outside candidate set",
		zap.String("role", it.Role), zap.String("code", code))
	res.Confidence = TierLow
	res.Reasoning = "proposed code " + code + " is not among the retrieved candidates"
	return res
}

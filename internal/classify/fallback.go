package classify

// Fallback reasons surfaced in Result.Reasoning so callers can tell why
// a result was degraded.
const (
	reasonServiceError    = "classification service error"
	reasonInvalidResponse = "classification response could not be parsed"
	reasonNoMatch         = "no match returned"
	reasonNoCandidates    = "no candidates found"
)

// fallbackResult synthesizes a degraded result for one item. With
// candidates present the top-ranked one is taken at LOW confidence;
// without candidates the result is an explicit non-match. Never fails.
func fallbackResult(it Item, reason string) Result {
	if len(it.Candidates) == 0 {
		return Result{SourceRole: it.Role, Confidence: TierLow, Reasoning: reasonNoCandidates}
	}
	top := it.Candidates[0]
	return Result{
		SourceRole: it.Role,
		Code:       top.Code,
		Label:      top.Title,
		Confidence: TierLow,
		Reasoning:  reason,
	}
}

func fallbackBatch(batch []Item, reason string) []Result {
	out := make([]Result, 0, len(batch))
	for _, it := range batch {
		out = append(out, fallbackResult(it, reason))
	}
	return out
}

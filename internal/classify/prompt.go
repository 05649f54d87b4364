package classify

import (
	"fmt"
	"strings"

	"rolemap/internal/util"
)

// descLimit bounds each candidate description inside the prompt so batch
// size, not description length, controls request size.
const descLimit = 200

// systemInstruction fixes the task, the confidence vocabulary, and the
// output schema for every batch.
const systemInstruction = `You are an occupation coding assistant. You receive job titles together with
candidate occupations from a fixed reference taxonomy, and you select the best
matching occupation code for each job title.

Rules:
- Select ONLY from the candidate codes listed for that job title. Never invent
  or recall a code that is not listed.
- If none of the listed candidates fits, return null for code and label and
  confidence "LOW".
- confidence is exactly one of:
  "HIGH"   - the candidate clearly describes this job title
  "MEDIUM" - the candidate is a reasonable but not exact match
  "LOW"    - the match is a guess or no candidate fits
- reasoning is one short sentence.

Return ONLY a JSON array, one object per job title, in this exact shape:
[{"role": "<job title verbatim>", "code": "<candidate code or null>",
  "label": "<candidate title or null>", "confidence": "HIGH|MEDIUM|LOW",
  "reasoning": "<one sentence>"}]

No markdown, no code fences, no text outside the JSON array.`

// BuildPrompt renders one batch into the user message. Role order follows
// batch order and role text is kept verbatim.
func BuildPrompt(batch []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the following %d job title(s).\n", len(batch))
	for i, it := range batch {
		fmt.Fprintf(&b, "\nJob title %d: %q\n", i+1, it.Role)
		if len(it.Candidates) == 0 {
			b.WriteString("Candidates: none found. Return null code and LOW confidence for this title.\n")
			continue
		}
		b.WriteString("Candidates:\n")
		for _, c := range it.Candidates {
			fmt.Fprintf(&b, "  %s: %s — %s\n", c.Code, c.Title, util.Truncate(c.Description, descLimit))
		}
	}
	return b.String()
}

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rolemap/internal/taxonomy"
)

var devCands = []taxonomy.Occupation{
	{Code: "15-1252.00", Title: "Software Developers", Description: "Research, design, and develop computer software."},
	{Code: "15-1251.00", Title: "Computer Programmers", Description: "Create, modify, and test code."},
}

var analystCands = []taxonomy.Occupation{
	{Code: "15-2051.00", Title: "Data Scientists", Description: "Develop and implement methods to analyze data."},
}

func TestParseResponseWellFormed(t *testing.T) {
	batch := []Item{
		{Role: "Software Engineer", Candidates: devCands},
		{Role: "Data Analyst", Candidates: analystCands},
	}
	raw := `[
	  {"role": "Software Engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "Direct match."},
	  {"role": "Data Analyst", "code": "15-2051.00", "label": "Data Scientists", "confidence": "MEDIUM", "reasoning": "Close match."}
	]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "Software Engineer", res[0].SourceRole)
	assert.Equal(t, "15-1252.00", res[0].Code)
	assert.Equal(t, "Software Developers", res[0].Label)
	assert.Equal(t, TierHigh, res[0].Confidence)
	assert.Equal(t, 0.95, res[0].Score())

	assert.Equal(t, "15-2051.00", res[1].Code)
	assert.Equal(t, TierMedium, res[1].Confidence)
	assert.Equal(t, 0.75, res[1].Score())
}

func TestParseResponseStripsFences(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := "```json\n[{\"role\": \"Software Engineer\", \"code\": \"15-1252.00\", \"label\": \"Software Developers\", \"confidence\": \"high\", \"reasoning\": \"ok\"}]\n```"

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "15-1252.00", res[0].Code)
	assert.Equal(t, TierHigh, res[0].Confidence)
}

func TestParseResponseOutOfSetCodeDowngraded(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := `[{"role": "Software Engineer", "code": "99-9999.00", "label": "Made Up", "confidence": "HIGH", "reasoning": "hallucinated"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Empty(t, res[0].Code)
	assert.Empty(t, res[0].Label)
	assert.Equal(t, TierLow, res[0].Confidence)
}

func TestParseResponseNullCode(t *testing.T) {
	batch := []Item{{Role: "Chief Vibes Officer", Candidates: devCands}}
	raw := `[{"role": "Chief Vibes Officer", "code": null, "label": null, "confidence": "LOW", "reasoning": "no candidate fits"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Empty(t, res[0].Code)
	assert.Equal(t, TierLow, res[0].Confidence)
	assert.Equal(t, "no candidate fits", res[0].Reasoning)
}

func TestParseResponseNullCodeForcesLowConfidence(t *testing.T) {
	batch := []Item{{Role: "Chief Vibes Officer", Candidates: devCands}}
	raw := `[{"role": "Chief Vibes Officer", "code": null, "label": null, "confidence": "HIGH", "reasoning": "confidently nothing"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Empty(t, res[0].Code)
	assert.Equal(t, TierLow, res[0].Confidence)
}

func TestParseResponseUnknownRoleDropped(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := `[
	  {"role": "software engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "case mismatch"},
	  {"role": "Software Engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "exact"}
	]`

	// Role matching is case-sensitive: the first record is dropped, the
	// second one is accepted.
	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "15-1252.00", res[0].Code)
	assert.Equal(t, "exact", res[0].Reasoning)
}

func TestParseResponseOmittedRoleFallsBack(t *testing.T) {
	batch := []Item{
		{Role: "Software Engineer", Candidates: devCands},
		{Role: "Data Analyst", Candidates: analystCands},
	}
	raw := `[{"role": "Software Engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "ok"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "Data Analyst", res[1].SourceRole)
	assert.Equal(t, "15-2051.00", res[1].Code) // top candidate
	assert.Equal(t, TierLow, res[1].Confidence)
	assert.Equal(t, reasonNoMatch, res[1].Reasoning)
}

func TestParseResponseDuplicateRoles(t *testing.T) {
	batch := []Item{
		{Role: "Software Engineer", Candidates: devCands},
		{Role: "Software Engineer", Candidates: devCands},
	}
	raw := `[
	  {"role": "Software Engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "first"},
	  {"role": "Software Engineer", "code": "15-1251.00", "label": "Computer Programmers", "confidence": "MEDIUM", "reasoning": "second"}
	]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "15-1252.00", res[0].Code)
	assert.Equal(t, "15-1251.00", res[1].Code)
}

func TestParseResponseMissingRoleFieldDropped(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := `[{"code": "15-1252.00", "confidence": "HIGH", "reasoning": "no role field"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, TierLow, res[0].Confidence)
	assert.Equal(t, reasonNoMatch, res[0].Reasoning)
}

func TestParseResponseProseAroundArray(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := `Here are the mappings you asked for:
[{"role": "Software Engineer", "code": "15-1252.00", "label": "Software Developers", "confidence": "HIGH", "reasoning": "ok"}]
Let me know if you need anything else.`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "15-1252.00", res[0].Code)
}

func TestParseResponseGarbage(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}

	_, err := parseResponse("I could not process this request.", batch, zap.NewNop())
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseResponseLabelNormalizedToCandidateTitle(t *testing.T) {
	batch := []Item{{Role: "Software Engineer", Candidates: devCands}}
	raw := `[{"role": "Software Engineer", "code": "15-1252.00", "label": "Sofware Develper", "confidence": "HIGH", "reasoning": "typo in label"}]`

	res, err := parseResponse(raw, batch, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "Software Developers", res[0].Label)
}

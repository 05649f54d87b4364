package util

import "strings"

// StripCodeFences removes a surrounding markdown code fence, if any.
// Models frequently wrap JSON answers in ```json ... ``` even when told
// not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONArray returns the outermost JSON array in s, or s unchanged
// when no array brackets are present. Used as a second chance when a
// response carries prose around the payload.
func ExtractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

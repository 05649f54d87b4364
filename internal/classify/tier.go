package classify

import "strings"

// Tier is the categorical confidence of a mapping. The numeric score is
// derived from the tier and never set independently.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

func (t Tier) Score() float64 {
	switch t {
	case TierHigh:
		return 0.95
	case TierMedium:
		return 0.75
	default:
		return 0.50
	}
}

// ParseTier maps a model-supplied confidence string to a tier,
// case-insensitively. Anything unrecognized coerces to LOW.
func ParseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return TierHigh
	case "MEDIUM":
		return TierMedium
	default:
		return TierLow
	}
}

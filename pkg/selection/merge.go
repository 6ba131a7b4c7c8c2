package selection

import (
	"fmt"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// maxAlternatives caps the alternatives list after a merge so disagreements
// cannot grow the recommendation without bound.
const maxAlternatives = 5

// Merge combines the deterministic rule-based recommendation with an
// advisory one from the reasoning service. Agreement boosts confidence;
// disagreement keeps the rule-based pick but always surfaces the advisory
// recommendation as the first alternative. The advisory input is never
// dropped silently.
func Merge(ruleBased, advisory models.ModelRecommendation) models.ModelRecommendation {
	if ruleBased.Architecture == advisory.Architecture {
		merged := advisory
		merged.Confidence = minFloat(0.98, (ruleBased.Confidence+advisory.Confidence)/1.5)
		merged.Reasoning = fmt.Sprintf(
			"agreement: rule engine and advisory service both selected %s. Rule engine: %s Advisory: %s",
			ruleBased.Architecture, ruleBased.Reasoning, advisory.Reasoning)
		merged.Alternatives = capAlternatives(merged.Alternatives)
		return merged
	}

	merged := ruleBased
	flattened := advisory
	flattened.Alternatives = nil
	merged.Alternatives = capAlternatives(append([]models.ModelRecommendation{flattened}, ruleBased.Alternatives...))
	merged.Reasoning = fmt.Sprintf(
		"disagreement: rule engine selected %s (%s); advisory service proposed %s with confidence %.2f, kept as first alternative. %s",
		ruleBased.Architecture, ruleBased.Strategy, advisory.Architecture, advisory.Confidence, ruleBased.Reasoning)
	return merged
}

// capAlternatives bounds the list and strips nested alternatives so the
// recommendation tree never exceeds one level.
func capAlternatives(alts []models.ModelRecommendation) []models.ModelRecommendation {
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	out := make([]models.ModelRecommendation, len(alts))
	for i, alt := range alts {
		alt.Alternatives = nil
		out[i] = alt
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

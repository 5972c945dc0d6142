package generation

import "strings"

// uncertaintyPhrases lower the confidence estimate when present in a
// response.
var uncertaintyPhrases = []string{
	"i don't have enough information",
	"i'm not sure",
	"unclear",
	"cannot answer",
}

// EstimateConfidence derives a heuristic confidence score in [0,1] from the
// response and the context it was generated from. This is a crude proxy
// signal, not a calibrated probability: it rewards explicit source citations
// and substantial context, and penalizes hedging language.
func EstimateConfidence(response, docContext string) float64 {
	confidence := 0.5

	if strings.Contains(response, "Source") || strings.Contains(response, "According to") {
		confidence += 0.2
	}

	lower := strings.ToLower(response)
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			confidence -= 0.3
			break
		}
	}

	if len(docContext) > 500 {
		confidence += 0.1
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

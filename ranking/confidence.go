package ranking

import "github.com/poiesic/rankwell/core"

// GovernedFields returns the union of fields across all weight classes,
// in configuration order.
func GovernedFields(classes []core.WeightClass) []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, class := range classes {
		for _, field := range class.Fields {
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			fields = append(fields, field)
		}
	}
	return fields
}

// EstimateConfidence returns the fraction of fields where both sides carry
// usable embeddings of equal length. With no fields the confidence is 0.
func EstimateConfidence(requester *core.Requester, candidate *core.Candidate, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	usable := 0
	for _, field := range fields {
		reqVec := requester.Embeddings[field]
		candVec := candidate.Embeddings[field]
		if UsableEmbedding(reqVec) && UsableEmbedding(candVec) && len(reqVec) == len(candVec) {
			usable++
		}
	}
	return core.Clamp01(float64(usable) / float64(len(fields)))
}

// MeanConfidence returns the arithmetic mean confidence of results, or 0
// when there are none.
func MeanConfidence(results []core.MatchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}

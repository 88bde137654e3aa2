package ranking

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/rankwell/core"
)

// Score is the scorer's output for one candidate, before sorting and
// explanation.
type Score struct {
	Breakdown  core.ScoreBreakdown
	Tokens     []core.Token
	Mismatches []core.DimensionMismatch
}

// CosineSimilarity returns the cosine of the angle between a and b.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// NormalizeSimilarity maps a cosine from [-1,1] into [0,1].
func NormalizeSimilarity(cos float64) float64 {
	return core.Clamp01((cos + 1) / 2)
}

// UsableEmbedding reports whether v can take part in a similarity:
// non-empty, finite and of non-zero norm.
func UsableEmbedding(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	nonZero := false
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		if x != 0 {
			nonZero = true
		}
	}
	return nonZero
}

// ScoreCandidate computes the weighted similarity breakdown for one
// candidate that passed hard filters.
//
// Fields are visited in class order, then field order within each class.
// A field where either side lacks a usable embedding is charged the class
// penalty. A field whose embeddings differ in length is skipped and
// recorded as a mismatch. Every textual response shorter than
// params.MinResponseLength is charged params.BriefResponsePenalty.
func ScoreCandidate(requester *core.Requester, candidate *core.Candidate, classes []core.WeightClass, params ScoringParams) Score {
	var score Score

	for _, class := range classes {
		for _, field := range class.Fields {
			reqVec := requester.Embeddings[field]
			candVec := candidate.Embeddings[field]

			if !UsableEmbedding(reqVec) || !UsableEmbedding(candVec) {
				score.Breakdown.Penalties += params.missingPenalty(class.Tag)
				score.Tokens = append(score.Tokens, core.Token{
					Kind:  core.TokenMissingSignal,
					Field: field,
					Text:  fmt.Sprintf("Missing embedding for %s field %s", class.Tag, field),
				})
				continue
			}

			cos, err := CosineSimilarity(reqVec, candVec)
			if err != nil {
				score.Mismatches = append(score.Mismatches, core.DimensionMismatch{
					Field:        field,
					RequesterDim: len(reqVec),
					CandidateDim: len(candVec),
				})
				continue
			}

			contribution := NormalizeSimilarity(cos) * class.Weight
			kind := core.TokenPrimary
			if class.Tag == core.WeightPrimary {
				score.Breakdown.Primary += contribution
			} else {
				kind = core.TokenSecondary
				score.Breakdown.Secondary += contribution
			}
			if contribution > 0 {
				score.Tokens = append(score.Tokens, core.Token{
					Kind:  kind,
					Field: field,
					Text:  fmt.Sprintf("%s match on %s (%.2f points)", classLabel(class.Tag), field, contribution),
				})
			}
		}
	}

	for _, field := range slices.Sorted(maps.Keys(candidate.Responses)) {
		response := candidate.Responses[field]
		if response.Kind != core.ValueKindText {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(response.Text)) < params.MinResponseLength {
			score.Breakdown.Penalties += params.BriefResponsePenalty
			score.Tokens = append(score.Tokens, core.Token{
				Kind:  core.TokenBriefResponse,
				Field: field,
				Text:  fmt.Sprintf("Brief response for %s", field),
			})
		}
	}

	return score
}

func classLabel(tag core.WeightTag) string {
	if tag == core.WeightPrimary {
		return "Primary"
	}
	return "Secondary"
}

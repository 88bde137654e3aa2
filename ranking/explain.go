package ranking

import (
	"fmt"

	"github.com/poiesic/rankwell/core"
)

// GenerateExplanations returns copies of sorted results with their
// explanation tokens filled in. Token order per result:
//
//  1. hard-filter status
//  2. primary subtotal, if positive
//  3. secondary subtotal, if positive
//  4. penalties, if positive
//  5. comparison against the next-ranked result, if one exists
//  6. the first scorer tokens, up to params.ScoringTokensInExplanation
//  7. low-confidence disclosure, if below params.LowConfidenceThreshold
func GenerateExplanations(sorted []core.MatchResult, params ScoringParams) []core.MatchResult {
	out := make([]core.MatchResult, len(sorted))
	for i, result := range sorted {
		var next *core.MatchResult
		if i+1 < len(sorted) {
			next = &sorted[i+1]
		}
		result.Explanation = explanationTokens(result, next, params)
		out[i] = result
	}
	return out
}

func explanationTokens(result core.MatchResult, next *core.MatchResult, params ScoringParams) []core.Token {
	b := result.Breakdown
	tokens := []core.Token{{Kind: core.TokenStatus, Text: "Passed all hard filters"}}

	if b.Primary > 0 {
		tokens = append(tokens, core.Token{
			Kind: core.TokenPrimary,
			Text: fmt.Sprintf("Primary preferences alignment (%.2f points)", b.Primary),
		})
	}
	if b.Secondary > 0 {
		tokens = append(tokens, core.Token{
			Kind: core.TokenSecondary,
			Text: fmt.Sprintf("Secondary preferences alignment (%.2f points)", b.Secondary),
		})
	}
	if b.Penalties > 0 {
		tokens = append(tokens, core.Token{
			Kind: core.TokenPenalty,
			Text: fmt.Sprintf("Penalties applied (%.2f points)", b.Penalties),
		})
	}

	if next != nil {
		if tok, ok := comparisonToken(result, *next); ok {
			tokens = append(tokens, tok)
		}
	}

	limit := min(max(params.ScoringTokensInExplanation, 0), len(result.ScoringTokens))
	tokens = append(tokens, result.ScoringTokens[:limit]...)

	if result.Confidence < params.LowConfidenceThreshold {
		tokens = append(tokens, core.Token{
			Kind: core.TokenLowConfidence,
			Text: "Limited profile data; confidence is low",
		})
	}
	return tokens
}

// comparisonToken names the dimension on which result beats next. When
// neither subtotal is higher but the total still is, the difference can
// only come from lower penalties.
func comparisonToken(result, next core.MatchResult) (core.Token, bool) {
	primaryDiff := result.Breakdown.Primary - next.Breakdown.Primary
	secondaryDiff := result.Breakdown.Secondary - next.Breakdown.Secondary

	switch {
	case primaryDiff > 0:
		return core.Token{
			Kind: core.TokenComparison,
			Text: fmt.Sprintf("Primary alignment higher than the next-ranked candidate (%.2f points)", primaryDiff),
		}, true
	case secondaryDiff > 0:
		return core.Token{
			Kind: core.TokenComparison,
			Text: fmt.Sprintf("Secondary alignment higher than the next-ranked candidate (%.2f points)", secondaryDiff),
		}, true
	case result.TotalScore > next.TotalScore:
		return core.Token{
			Kind: core.TokenComparison,
			Text: "Ranked higher than the next-ranked candidate due to lower penalties",
		}, true
	}
	return core.Token{}, false
}

// Explain builds the full, privileged explanation for a ranked result.
// rank is 1-based. Role-specific views are projected from this value.
func Explain(result core.MatchResult, rank int) core.MatchExplanation {
	exp := core.MatchExplanation{
		CandidateID:     result.CandidateID,
		FilterStatus:    result.FilterStatus,
		ConfidenceLevel: core.BucketConfidence(result.Confidence),
	}

	for _, tok := range result.Explanation {
		switch tok.Kind {
		case core.TokenPrimary, core.TokenComparison:
			exp.PrimaryAlignment = append(exp.PrimaryAlignment, tok.Text)
		case core.TokenSecondary:
			exp.SecondaryAlignment = append(exp.SecondaryAlignment, tok.Text)
		case core.TokenStatus:
			exp.BoundaryRespect = append(exp.BoundaryRespect, tok.Text)
		case core.TokenMissingSignal, core.TokenBriefResponse, core.TokenLowConfidence:
			exp.ConfidenceReasons = append(exp.ConfidenceReasons, tok.Text)
		case core.TokenPenalty:
			exp.ScoringNotes = append(exp.ScoringNotes, tok.Text)
		}
	}
	for _, tok := range result.ScoringTokens {
		exp.ScoringNotes = append(exp.ScoringNotes, tok.Text)
	}
	for _, m := range result.Mismatches {
		exp.ScoringNotes = append(exp.ScoringNotes, fmt.Sprintf(
			"Embedding dimension mismatch on %s (requester %d, candidate %d)",
			m.Field, m.RequesterDim, m.CandidateDim))
	}

	total := result.TotalScore
	breakdown := result.Breakdown
	exp.TotalScore = &total
	exp.Breakdown = &breakdown
	exp.RankPosition = &rank
	return exp
}

// ExplainAll explains every result in rank order.
func ExplainAll(ranked []core.MatchResult) []core.MatchExplanation {
	out := make([]core.MatchExplanation, len(ranked))
	for i, r := range ranked {
		out[i] = Explain(r, i+1)
	}
	return out
}

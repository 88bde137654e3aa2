package ranking

import (
	"fmt"
	"math"

	"github.com/poiesic/rankwell/core"
)

// ReasonNoCandidates is the metadata reason for a run where nothing passed hard filters.
const ReasonNoCandidates = "No candidates passed hard filters"

// ScoringParams carries the fixed scoring constants. They are passed
// explicitly on every request; nothing is read from package state.
type ScoringParams struct {
	// MissingPrimaryPenalty is charged per primary field lacking a usable embedding.
	MissingPrimaryPenalty float64 `json:"missing_primary_penalty" yaml:"missing_primary_penalty"`
	// MissingSecondaryPenalty is charged per secondary field lacking a usable embedding.
	MissingSecondaryPenalty float64 `json:"missing_secondary_penalty" yaml:"missing_secondary_penalty"`
	// BriefResponsePenalty is charged per textual answer shorter than MinResponseLength.
	BriefResponsePenalty float64 `json:"brief_response_penalty" yaml:"brief_response_penalty"`
	// MinResponseLength is measured in runes after trimming whitespace.
	MinResponseLength int `json:"min_response_length" yaml:"min_response_length"`
	// LowConfidenceThreshold triggers the low-confidence disclosure token.
	LowConfidenceThreshold float64 `json:"low_confidence_threshold" yaml:"low_confidence_threshold"`
	// ScoringTokensInExplanation caps how many scorer tokens are appended.
	ScoringTokensInExplanation int `json:"scoring_tokens_in_explanation" yaml:"scoring_tokens_in_explanation"`
}

// DefaultScoringParams returns the standard constants.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		MissingPrimaryPenalty:      0.1,
		MissingSecondaryPenalty:    0.05,
		BriefResponsePenalty:       0.05,
		MinResponseLength:          10,
		LowConfidenceThreshold:     0.5,
		ScoringTokensInExplanation: 3,
	}
}

func (p ScoringParams) missingPenalty(tag core.WeightTag) float64 {
	if tag == core.WeightPrimary {
		return p.MissingPrimaryPenalty
	}
	return p.MissingSecondaryPenalty
}

// Validate rejects negative or non-finite penalties and thresholds.
func (p ScoringParams) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"missing_primary_penalty", p.MissingPrimaryPenalty},
		{"missing_secondary_penalty", p.MissingSecondaryPenalty},
		{"brief_response_penalty", p.BriefResponsePenalty},
		{"low_confidence_threshold", p.LowConfidenceThreshold},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value < 0 {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParams, v.name, v.value)
		}
	}
	if p.MinResponseLength < 0 {
		return fmt.Errorf("%w: min_response_length is %d", ErrInvalidParams, p.MinResponseLength)
	}
	if p.ScoringTokensInExplanation < 0 {
		return fmt.Errorf("%w: scoring_tokens_in_explanation is %d", ErrInvalidParams, p.ScoringTokensInExplanation)
	}
	return nil
}

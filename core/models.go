package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used for cache keys and request digests.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Requester is the entity whose preferences drive a ranking.
type Requester struct {
	ID         string               `json:"id"`
	Responses  map[string]string    `json:"responses,omitempty"`
	Embeddings map[string][]float32 `json:"embeddings,omitempty"`
}

// Candidate is an entity ranked against one requester.
type Candidate struct {
	ID             string               `json:"id"`
	Responses      map[string]Value     `json:"responses,omitempty"`
	Embeddings     map[string][]float32 `json:"embeddings,omitempty"`
	Available      bool                 `json:"available"`
	RequiredFields []string             `json:"required_fields,omitempty"`
}

// HasResponse reports whether the candidate recorded a response for field.
func (c *Candidate) HasResponse(field string) bool {
	v, ok := c.Responses[field]
	return ok && v.Kind.Valid()
}

// WeightTag names the class a group of fields belongs to.
type WeightTag string

const (
	WeightPrimary   WeightTag = "primary"
	WeightSecondary WeightTag = "secondary"
)

// Valid reports whether t is primary or secondary.
func (t WeightTag) Valid() bool {
	return t == WeightPrimary || t == WeightSecondary
}

// WeightClass groups fields that share an importance multiplier.
type WeightClass struct {
	Tag    WeightTag `json:"tag" yaml:"tag"`
	Weight float64   `json:"weight" yaml:"weight"`
	Fields []string  `json:"fields" yaml:"fields"`
}

// ScoreBreakdown holds the non-negative subtotals that make up a total score.
type ScoreBreakdown struct {
	Primary   float64 `json:"primary" yaml:"primary"`
	Secondary float64 `json:"secondary" yaml:"secondary"`
	Penalties float64 `json:"penalties" yaml:"penalties"`
}

// Total returns primary + secondary - penalties.
func (b ScoreBreakdown) Total() float64 {
	return b.Primary + b.Secondary - b.Penalties
}

// FilterStatus is the hard-filter outcome for a candidate.
type FilterStatus string

const (
	FilterPassed FilterStatus = "PASSED"
	FilterFailed FilterStatus = "FAILED"
)

// ConfidenceLevel buckets a confidence ratio for display.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// BucketConfidence maps a ratio in [0,1] to a level: above 0.7 is high,
// below 0.3 is low, anything else is medium.
func BucketConfidence(c float64) ConfidenceLevel {
	switch {
	case c > 0.7:
		return ConfidenceHigh
	case c < 0.3:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// TokenKind classifies an explanation token so it can be routed into the
// right section of a MatchExplanation.
type TokenKind string

const (
	TokenStatus        TokenKind = "status"
	TokenPrimary       TokenKind = "primary"
	TokenSecondary     TokenKind = "secondary"
	TokenPenalty       TokenKind = "penalty"
	TokenComparison    TokenKind = "comparison"
	TokenMissingSignal TokenKind = "missing-signal"
	TokenBriefResponse TokenKind = "brief-response"
	TokenLowConfidence TokenKind = "low-confidence"
)

// Token is one short, ordered, human-readable justification.
type Token struct {
	Kind  TokenKind `json:"kind" yaml:"kind"`
	Field string    `json:"field,omitempty" yaml:"field,omitempty"`
	Text  string    `json:"text" yaml:"text"`
}

// DimensionMismatch records a field whose requester and candidate embeddings
// had different lengths. The field contributed nothing to the score.
type DimensionMismatch struct {
	Field        string `json:"field" yaml:"field"`
	RequesterDim int    `json:"requester_dim" yaml:"requester_dim"`
	CandidateDim int    `json:"candidate_dim" yaml:"candidate_dim"`
}

// MatchResult is the scored, explained outcome for one candidate.
type MatchResult struct {
	CandidateID   string              `json:"candidate_id" yaml:"candidate_id"`
	TotalScore    float64             `json:"total_score" yaml:"total_score"`
	Confidence    float64             `json:"confidence" yaml:"confidence"`
	Breakdown     ScoreBreakdown      `json:"breakdown" yaml:"breakdown"`
	FilterStatus  FilterStatus        `json:"filter_status" yaml:"filter_status"`
	Explanation   []Token             `json:"explanation" yaml:"explanation"`
	ScoringTokens []Token             `json:"scoring_tokens,omitempty" yaml:"scoring_tokens,omitempty"`
	Mismatches    []DimensionMismatch `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
}

// Texts returns the explanation token strings in order.
func (r *MatchResult) Texts() []string {
	out := make([]string, len(r.Explanation))
	for i, tok := range r.Explanation {
		out[i] = tok.Text
	}
	return out
}

// FilterFailure is the single reason a candidate was excluded by hard filters.
type FilterFailure struct {
	CandidateID string `json:"candidate_id" yaml:"candidate_id"`
	Field       string `json:"field" yaml:"field"`
	Reason      string `json:"reason" yaml:"reason"`
}

// RankingMetadata summarizes one ranking run. The count, level and reason
// fields are the disclosed summary; the remaining fields are operator detail.
type RankingMetadata struct {
	FilteredCount     int             `json:"filtered_count" yaml:"filtered_count"`
	RankedCount       int             `json:"ranked_count" yaml:"ranked_count"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
	Reason            string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	DroppedAtAssembly int             `json:"dropped_at_assembly" yaml:"dropped_at_assembly"`
	FailedFilters     []FilterFailure `json:"failed_filters,omitempty" yaml:"failed_filters,omitempty"`
	UnrecognizedRules []string        `json:"unrecognized_rules,omitempty" yaml:"unrecognized_rules,omitempty"`
}

// MatchExplanation is the disclosure-ready view of one ranked candidate.
// TotalScore, Breakdown, RankPosition and ScoringNotes are privileged and
// only populated for operators.
type MatchExplanation struct {
	CandidateID        string          `json:"candidate_id" yaml:"candidate_id"`
	PrimaryAlignment   []string        `json:"primary_alignment" yaml:"primary_alignment"`
	SecondaryAlignment []string        `json:"secondary_alignment,omitempty" yaml:"secondary_alignment,omitempty"`
	BoundaryRespect    []string        `json:"boundary_respect" yaml:"boundary_respect"`
	FilterStatus       FilterStatus    `json:"filter_status" yaml:"filter_status"`
	ConfidenceLevel    ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
	ConfidenceReasons  []string        `json:"confidence_reasons,omitempty" yaml:"confidence_reasons,omitempty"`
	TotalScore         *float64        `json:"total_score,omitempty" yaml:"total_score,omitempty"`
	Breakdown          *ScoreBreakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	RankPosition       *int            `json:"rank_position,omitempty" yaml:"rank_position,omitempty"`
	ScoringNotes       []string        `json:"scoring_notes,omitempty" yaml:"scoring_notes,omitempty"`
}

// RunRecord is the audit entry kept for operators after a ranking run.
type RunRecord struct {
	RunID           string          `json:"run_id" yaml:"run_id"`
	RequesterID     string          `json:"requester_id" yaml:"requester_id"`
	GeneratedAt     time.Time       `json:"generated_at" yaml:"generated_at"`
	FilteredCount   int             `json:"filtered_count" yaml:"filtered_count"`
	RankedCount     int             `json:"ranked_count" yaml:"ranked_count"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
	Reason          string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	RankedIDs       []string        `json:"ranked_ids" yaml:"ranked_ids"`
	TopScore        float64         `json:"top_score" yaml:"top_score"`
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package visibility

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/rankwell/core"
)

// Role is the audience an explanation is disclosed to.
type Role string

const (
	RoleRequester Role = "requester"
	RoleCandidate Role = "candidate"
	RoleOperator  Role = "operator"
)

// Roles lists every role in display order.
var Roles = []Role{RoleRequester, RoleCandidate, RoleOperator}

// ParseRole accepts a role name with or without a "-view" suffix.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-view"))
	if _, ok := projections[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// MaxCandidateSecondary caps the secondary statements shown to candidates.
const MaxCandidateSecondary = 3

// Projection maps a full explanation to the subset one role may see.
type Projection func(core.MatchExplanation) core.MatchExplanation

var projections = map[Role]Projection{
	RoleRequester: requesterView,
	RoleCandidate: candidateView,
	RoleOperator:  operatorView,
}

// Disclosure is a projected explanation plus its one-line summary.
type Disclosure struct {
	Role         Role                  `json:"role" yaml:"role"`
	RulesVersion int                   `json:"rules_version" yaml:"rules_version"`
	Explanation  core.MatchExplanation `json:"explanation" yaml:"explanation"`
	Summary      string                `json:"summary" yaml:"summary"`
}

// Project returns the view of exp permitted for role.
func Project(exp core.MatchExplanation, role Role) (core.MatchExplanation, error) {
	project, ok := projections[role]
	if !ok {
		return core.MatchExplanation{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return project(exp), nil
}

// Disclose projects exp for role and builds its summary.
func Disclose(exp core.MatchExplanation, role Role) (Disclosure, error) {
	view, err := Project(exp, role)
	if err != nil {
		return Disclosure{}, err
	}
	return Disclosure{
		Role:         role,
		RulesVersion: RulesVersion,
		Explanation:  view,
		Summary:      summarize(view, role),
	}, nil
}

// GenerateSummary joins, in order, primary alignment, secondary alignment
// (not for requesters), boundary statements and the confidence label into
// one sentence. The operator summary is prefixed with rank and score.
func GenerateSummary(exp core.MatchExplanation, role Role) (string, error) {
	view, err := Project(exp, role)
	if err != nil {
		return "", err
	}
	return summarize(view, role), nil
}

func summarize(view core.MatchExplanation, role Role) string {
	var parts []string
	if role == RoleOperator && view.RankPosition != nil && view.TotalScore != nil {
		parts = append(parts, fmt.Sprintf("Ranked #%d with total score %.2f", *view.RankPosition, *view.TotalScore))
	}
	add := func(statements []string) {
		if joined := joinStatements(statements); joined != "" {
			parts = append(parts, joined)
		}
	}
	add(view.PrimaryAlignment)
	if role != RoleRequester {
		add(view.SecondaryAlignment)
	}
	add(view.BoundaryRespect)
	parts = append(parts, "Confidence: "+string(view.ConfidenceLevel))
	return strings.Join(parts, ". ") + "."
}

func joinStatements(statements []string) string {
	trimmed := make([]string, 0, len(statements))
	for _, s := range statements {
		s = strings.TrimRight(strings.TrimSpace(s), ".")
		if s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return strings.Join(trimmed, "; ")
}

func requesterView(exp core.MatchExplanation) core.MatchExplanation {
	return core.MatchExplanation{
		CandidateID:      exp.CandidateID,
		PrimaryAlignment: RewriteAll(RoleRequester, exp.PrimaryAlignment),
		BoundaryRespect:  RewriteAll(RoleRequester, exp.BoundaryRespect),
		FilterStatus:     exp.FilterStatus,
		ConfidenceLevel:  exp.ConfidenceLevel,
	}
}

func candidateView(exp core.MatchExplanation) core.MatchExplanation {
	secondary := RewriteAll(RoleCandidate, exp.SecondaryAlignment)
	if len(secondary) > MaxCandidateSecondary {
		secondary = secondary[:MaxCandidateSecondary]
	}
	return core.MatchExplanation{
		CandidateID:        exp.CandidateID,
		PrimaryAlignment:   RewriteAll(RoleCandidate, exp.PrimaryAlignment),
		SecondaryAlignment: secondary,
		BoundaryRespect:    RewriteAll(RoleCandidate, exp.BoundaryRespect),
		FilterStatus:       exp.FilterStatus,
		ConfidenceLevel:    exp.ConfidenceLevel,
		ConfidenceReasons:  RewriteAll(RoleCandidate, exp.ConfidenceReasons),
	}
}

// operatorView keeps every field. Missing privileged fields default to a
// zero score, a zero breakdown and rank 1.
func operatorView(exp core.MatchExplanation) core.MatchExplanation {
	out := exp
	out.PrimaryAlignment = slices.Clone(exp.PrimaryAlignment)
	out.SecondaryAlignment = slices.Clone(exp.SecondaryAlignment)
	out.BoundaryRespect = slices.Clone(exp.BoundaryRespect)
	out.ConfidenceReasons = slices.Clone(exp.ConfidenceReasons)
	out.ScoringNotes = slices.Clone(exp.ScoringNotes)

	score := 0.0
	if exp.TotalScore != nil {
		score = *exp.TotalScore
	}
	breakdown := core.ScoreBreakdown{}
	if exp.Breakdown != nil {
		breakdown = *exp.Breakdown
	}
	rank := 1
	if exp.RankPosition != nil {
		rank = *exp.RankPosition
	}
	out.TotalScore = &score
	out.Breakdown = &breakdown
	out.RankPosition = &rank
	return out
}

// ProjectMetadata returns the run summary permitted for role. Only operators
// see dropped counts, individual filter failures and unrecognized rules.
func ProjectMetadata(meta core.RankingMetadata, role Role) (core.RankingMetadata, error) {
	if _, ok := projections[role]; !ok {
		return core.RankingMetadata{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if role == RoleOperator {
		out := meta
		out.FailedFilters = slices.Clone(meta.FailedFilters)
		out.UnrecognizedRules = slices.Clone(meta.UnrecognizedRules)
		return out, nil
	}
	return core.RankingMetadata{
		FilteredCount:   meta.FilteredCount,
		RankedCount:     meta.RankedCount,
		ConfidenceLevel: meta.ConfidenceLevel,
		Reason:          meta.Reason,
	}, nil
}

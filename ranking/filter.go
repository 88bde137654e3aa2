package ranking

import (
	"fmt"

	"github.com/poiesic/rankwell/core"
)

// FilterReport is the eligibility outcome of hard-filter evaluation.
type FilterReport struct {
	Passed []core.Candidate
	// Failed holds one entry per excluded candidate, carrying the first failing rule.
	Failed []core.FilterFailure
	// Unrecognized lists rules whose operator did not parse. They always pass.
	Unrecognized []core.HardFilterRule
}

// EvaluateHardFilters tests each candidate against rules in order. The
// first failing rule excludes the candidate and stops evaluation for it.
func EvaluateHardFilters(candidates []core.Candidate, rules []core.HardFilterRule) FilterReport {
	report := FilterReport{Passed: make([]core.Candidate, 0, len(candidates))}
	for _, rule := range rules {
		if !rule.Operator.Recognized() {
			report.Unrecognized = append(report.Unrecognized, rule)
		}
	}

	for i := range candidates {
		candidate := &candidates[i]
		failed := false
		for _, rule := range rules {
			if EvaluateRule(rule, candidate) {
				continue
			}
			report.Failed = append(report.Failed, core.FilterFailure{
				CandidateID: candidate.ID,
				Field:       rule.Field,
				Reason:      failureReason(rule),
			})
			failed = true
			break
		}
		if !failed {
			report.Passed = append(report.Passed, *candidate)
		}
	}
	return report
}

// EvaluateRule reports whether candidate satisfies rule.
//
// A candidate without a response for the rule's field fails equals,
// greater-than, less-than and contains, and passes the negated operators.
// Ordering comparisons need a numeric reading on both sides. An
// unrecognized operator always passes.
func EvaluateRule(rule core.HardFilterRule, candidate *core.Candidate) bool {
	if !rule.Operator.Recognized() {
		return true
	}

	if !candidate.HasResponse(rule.Field) {
		return rule.Operator == core.OperatorNotEquals || rule.Operator == core.OperatorNotContains
	}
	response := candidate.Responses[rule.Field]

	switch rule.Operator {
	case core.OperatorEquals:
		return response.Equal(rule.Value)
	case core.OperatorNotEquals:
		return !response.Equal(rule.Value)
	case core.OperatorGreaterThan, core.OperatorLessThan:
		got, ok := response.AsNumber()
		if !ok {
			return false
		}
		want, ok := rule.Value.AsNumber()
		if !ok {
			return false
		}
		if rule.Operator == core.OperatorGreaterThan {
			return got > want
		}
		return got < want
	case core.OperatorContains:
		return response.Contains(rule.Value)
	case core.OperatorNotContains:
		return !response.Contains(rule.Value)
	}
	return true
}

func failureReason(rule core.HardFilterRule) string {
	if rule.Reason != "" {
		return rule.Reason
	}
	return fmt.Sprintf("%s must satisfy %s %s", rule.Field, rule.Operator, rule.Value)
}

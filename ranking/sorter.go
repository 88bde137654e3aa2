package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/rankwell/core"
)

// CompareResults orders a before b when it has the higher total score,
// then the higher confidence, then the lexicographically smaller id.
func CompareResults(a, b core.MatchResult) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	return strings.Compare(a.CandidateID, b.CandidateID)
}

// SortResults returns a sorted copy of results. The input is not modified.
func SortResults(results []core.MatchResult) []core.MatchResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, CompareResults)
	return sorted
}

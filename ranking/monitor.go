package ranking

import (
	"time"

	"github.com/poiesic/rankwell/core"
)

// Monitor provides hooks to observe a ranking run.
// CandidateScored may be called from multiple goroutines when the Ranker
// fans out scoring.
type Monitor interface {
	Start(requesterID string, candidates int)
	AfterAssembly(admitted, dropped int)
	AfterHardFilters(passed int, failed []core.FilterFailure)
	UnrecognizedOperator(rule core.HardFilterRule)
	DimensionMismatch(candidateID string, mismatch core.DimensionMismatch)
	CandidateScored(result core.MatchResult)
	EmptyPool(reason string)
	Finish(outcome Outcome, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                                {}
func (n *noopMonitor) AfterAssembly(_, _ int)                               {}
func (n *noopMonitor) AfterHardFilters(_ int, _ []core.FilterFailure)       {}
func (n *noopMonitor) UnrecognizedOperator(_ core.HardFilterRule)           {}
func (n *noopMonitor) DimensionMismatch(_ string, _ core.DimensionMismatch) {}
func (n *noopMonitor) CandidateScored(_ core.MatchResult)                   {}
func (n *noopMonitor) EmptyPool(_ string)                                   {}
func (n *noopMonitor) Finish(_ Outcome, _ time.Duration)                    {}

package ranking

import (
	"sync"
	"time"

	"github.com/poiesic/rankwell/core"
)

var (
	vecA = []float32{1, 0, 0}
	vecB = []float32{0, 1, 0}
	vecC = []float32{0, 0, 1}
)

func testClasses() []core.WeightClass {
	return []core.WeightClass{
		{Tag: core.WeightPrimary, Weight: 0.7, Fields: []string{"goals", "style"}},
		{Tag: core.WeightSecondary, Weight: 0.3, Fields: []string{"schedule"}},
	}
}

func testRequester() core.Requester {
	return core.Requester{
		ID: "req-1",
		Responses: map[string]string{
			"goals":    "Build strength for hiking",
			"style":    "Encouraging and structured",
			"schedule": "Weekday evenings",
		},
		Embeddings: map[string][]float32{
			"goals":    vecA,
			"style":    vecB,
			"schedule": vecC,
		},
	}
}

// fullCandidate answers every field with long text and mirrors the requester's vectors.
func fullCandidate(id string) core.Candidate {
	return core.Candidate{
		ID: id,
		Responses: map[string]core.Value{
			"goals":    core.TextValue("Strength and endurance programs"),
			"style":    core.TextValue("Supportive, plan-driven coaching"),
			"schedule": core.TextValue("Evenings and weekends"),
		},
		Embeddings: map[string][]float32{
			"goals":    vecA,
			"style":    vecB,
			"schedule": vecC,
		},
		Available: true,
	}
}

// bareCandidate answers every field but has no embeddings.
func bareCandidate(id string) core.Candidate {
	c := fullCandidate(id)
	c.Embeddings = nil
	return c
}

type recordingMonitor struct {
	mu           sync.Mutex
	started      int
	admitted     int
	dropped      int
	failed       []core.FilterFailure
	unrecognized []core.HardFilterRule
	mismatches   []core.DimensionMismatch
	scored       int
	emptyReasons []string
	finished     *Outcome
}

var _ Monitor = (*recordingMonitor)(nil)

func (m *recordingMonitor) Start(_ string, _ int) { m.started++ }

func (m *recordingMonitor) AfterAssembly(admitted, dropped int) {
	m.admitted, m.dropped = admitted, dropped
}

func (m *recordingMonitor) AfterHardFilters(_ int, failed []core.FilterFailure) {
	m.failed = failed
}

func (m *recordingMonitor) UnrecognizedOperator(rule core.HardFilterRule) {
	m.unrecognized = append(m.unrecognized, rule)
}

func (m *recordingMonitor) DimensionMismatch(_ string, mismatch core.DimensionMismatch) {
	m.mismatches = append(m.mismatches, mismatch)
}

func (m *recordingMonitor) CandidateScored(_ core.MatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored++
}

func (m *recordingMonitor) EmptyPool(reason string) {
	m.emptyReasons = append(m.emptyReasons, reason)
}

func (m *recordingMonitor) Finish(outcome Outcome, _ time.Duration) {
	m.finished = &outcome
}

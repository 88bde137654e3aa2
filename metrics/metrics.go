// Package metrics exposes ranking runs as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRunsTotal              = "rankwell_runs_total"
	MetricEmptyPoolTotal         = "rankwell_empty_pool_total"
	MetricCandidatesTotal        = "rankwell_candidates_total"
	MetricFilterFailuresTotal    = "rankwell_filter_failures_total"
	MetricUnrecognizedOperators  = "rankwell_unrecognized_operators_total"
	MetricDimensionMismatches    = "rankwell_dimension_mismatches_total"
	MetricRunConfidenceTotal     = "rankwell_run_confidence_total"
	MetricCandidateScore         = "rankwell_candidate_score"
	MetricRunDuration            = "rankwell_run_duration_seconds"
	MetricLastRunRankedCandidate = "rankwell_last_run_ranked_candidates"
)

// Candidate stage label values for MetricCandidatesTotal.
const (
	StageSubmitted = "submitted"
	StageAdmitted  = "admitted"
	StageDropped   = "dropped"
	StagePassed    = "passed"
	StageFailed    = "failed"
	StageRanked    = "ranked"
)

// RankingMetrics implements ranking.Monitor by recording Prometheus metrics.
// All operations are thread-safe.
type RankingMetrics struct {
	runsTotal             prometheus.Counter
	emptyPoolTotal        prometheus.Counter
	candidatesTotal       *prometheus.CounterVec
	filterFailuresTotal   *prometheus.CounterVec
	unrecognizedOperators *prometheus.CounterVec
	dimensionMismatches   *prometheus.CounterVec
	runConfidenceTotal    *prometheus.CounterVec
	candidateScore        prometheus.Histogram
	runDuration           prometheus.Histogram
	lastRunRanked         prometheus.Gauge
}

var _ ranking.Monitor = (*RankingMetrics)(nil)

// NewRankingMetrics creates and returns a new RankingMetrics with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewRankingMetrics() *RankingMetrics {
	return &RankingMetrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRunsTotal,
			Help: "Total number of ranking runs",
		}),
		emptyPoolTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEmptyPoolTotal,
			Help: "Total number of ranking runs where no candidate passed hard filters",
		}),
		candidatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCandidatesTotal,
			Help: "Candidates seen at each pipeline stage",
		}, []string{"stage"}),
		filterFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFilterFailuresTotal,
			Help: "Candidates excluded by a hard filter, by field",
		}, []string{"field"}),
		unrecognizedOperators: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUnrecognizedOperators,
			Help: "Hard filter rules skipped because the operator was not recognized, by field",
		}, []string{"field"}),
		dimensionMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDimensionMismatches,
			Help: "Fields excluded from scoring because embedding dimensions differed, by field",
		}, []string{"field"}),
		runConfidenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRunConfidenceTotal,
			Help: "Ranking runs by overall confidence level",
		}, []string{"level"}),
		candidateScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidateScore,
			Help:    "Histogram of candidate total scores",
			Buckets: []float64{-0.5, -0.25, 0, 0.25, 0.5, 0.75, 1.0, 1.5, 2.0},
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRunDuration,
			Help:    "Histogram of ranking run duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		lastRunRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRunRankedCandidate,
			Help: "Number of candidates ranked in the most recent run",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *RankingMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *RankingMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.emptyPoolTotal,
		m.candidatesTotal,
		m.filterFailuresTotal,
		m.unrecognizedOperators,
		m.dimensionMismatches,
		m.runConfidenceTotal,
		m.candidateScore,
		m.runDuration,
		m.lastRunRanked,
	}
}

func (m *RankingMetrics) Start(_ string, candidates int) {
	m.runsTotal.Inc()
	m.candidatesTotal.WithLabelValues(StageSubmitted).Add(float64(candidates))
}

func (m *RankingMetrics) AfterAssembly(admitted, dropped int) {
	m.candidatesTotal.WithLabelValues(StageAdmitted).Add(float64(admitted))
	m.candidatesTotal.WithLabelValues(StageDropped).Add(float64(dropped))
}

func (m *RankingMetrics) AfterHardFilters(passed int, failed []core.FilterFailure) {
	m.candidatesTotal.WithLabelValues(StagePassed).Add(float64(passed))
	m.candidatesTotal.WithLabelValues(StageFailed).Add(float64(len(failed)))
	for _, f := range failed {
		m.filterFailuresTotal.WithLabelValues(f.Field).Inc()
	}
}

func (m *RankingMetrics) UnrecognizedOperator(rule core.HardFilterRule) {
	m.unrecognizedOperators.WithLabelValues(rule.Field).Inc()
}

func (m *RankingMetrics) DimensionMismatch(_ string, mismatch core.DimensionMismatch) {
	m.dimensionMismatches.WithLabelValues(mismatch.Field).Inc()
}

func (m *RankingMetrics) CandidateScored(result core.MatchResult) {
	m.candidateScore.Observe(result.TotalScore)
}

func (m *RankingMetrics) EmptyPool(_ string) {
	m.emptyPoolTotal.Inc()
}

func (m *RankingMetrics) Finish(outcome ranking.Outcome, elapsed time.Duration) {
	m.runDuration.Observe(elapsed.Seconds())
	m.candidatesTotal.WithLabelValues(StageRanked).Add(float64(len(outcome.Ranked)))
	m.runConfidenceTotal.WithLabelValues(string(outcome.Metadata.ConfidenceLevel)).Inc()
	m.lastRunRanked.Set(float64(len(outcome.Ranked)))
}

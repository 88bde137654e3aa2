package metrics

import (
	"testing"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.(prometheus.Metric).Write(&m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRankingMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewRankingMetrics()
		reg := prometheus.NewRegistry()
		require.NoError(t, m.Register(reg))

		// Touch the vectors so they show up in Gather.
		m.Start("r", 1)
		m.AfterHardFilters(0, []core.FilterFailure{{Field: "f"}})
		m.UnrecognizedOperator(core.HardFilterRule{Field: "f"})
		m.DimensionMismatch("c", core.DimensionMismatch{Field: "f"})
		m.Finish(ranking.Outcome{Metadata: core.RankingMetadata{ConfidenceLevel: core.ConfidenceLow}}, 0)

		families, err := reg.Gather()
		require.NoError(t, err)
		names := make(map[string]bool)
		for _, family := range families {
			names[family.GetName()] = true
		}
		for _, name := range []string{
			MetricRunsTotal, MetricEmptyPoolTotal, MetricCandidatesTotal,
			MetricFilterFailuresTotal, MetricUnrecognizedOperators, MetricDimensionMismatches,
			MetricRunConfidenceTotal, MetricCandidateScore, MetricRunDuration, MetricLastRunRankedCandidate,
		} {
			assert.True(t, names[name], "metric %s not gathered", name)
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		require.NoError(t, NewRankingMetrics().Register(reg))
		assert.Error(t, NewRankingMetrics().Register(reg))
	})
}

func TestRankingMetrics_RecordsRankerRun(t *testing.T) {
	m := NewRankingMetrics()
	r, err := ranking.NewRanker(ranking.WithMonitor(m))
	require.NoError(t, err)
	defer r.Release()

	vec := []float32{1, 0}
	outcome, err := r.Rank(ranking.Request{
		Requester: core.Requester{
			ID:         "req",
			Embeddings: map[string][]float32{"goals": vec, "style": {1, 0, 0}},
		},
		Candidates: []core.Candidate{
			{
				ID:         "a",
				Available:  true,
				Responses:  map[string]core.Value{"goals": core.TextValue("growth")},
				Embeddings: map[string][]float32{"goals": vec, "style": {1, 0}},
			},
			{ID: "b", Available: true, Responses: map[string]core.Value{"cert": core.TextValue("ACE")}},
			{ID: "c", Available: false},
		},
		Rules: []core.HardFilterRule{
			core.NewHardFilterRule("cert", "not-equals", core.TextValue("ACE"), "Certification excluded"),
			core.NewHardFilterRule("rate", "between", core.NumberValue(1), ""),
		},
		WeightClasses: []core.WeightClass{
			{Tag: core.WeightPrimary, Weight: 1, Fields: []string{"goals"}},
			{Tag: core.WeightSecondary, Weight: 0.5, Fields: []string{"style"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Ranked, 1)

	assert.Equal(t, 1.0, counterValue(t, m.runsTotal))
	assert.Equal(t, 3.0, counterValue(t, m.candidatesTotal.WithLabelValues(StageSubmitted)))
	assert.Equal(t, 2.0, counterValue(t, m.candidatesTotal.WithLabelValues(StageAdmitted)))
	assert.Equal(t, 1.0, counterValue(t, m.candidatesTotal.WithLabelValues(StageDropped)))
	assert.Equal(t, 1.0, counterValue(t, m.candidatesTotal.WithLabelValues(StageFailed)))
	assert.Equal(t, 1.0, counterValue(t, m.candidatesTotal.WithLabelValues(StageRanked)))
	assert.Equal(t, 1.0, counterValue(t, m.filterFailuresTotal.WithLabelValues("cert")))
	assert.Equal(t, 1.0, counterValue(t, m.unrecognizedOperators.WithLabelValues("rate")))
	assert.Equal(t, 1.0, counterValue(t, m.dimensionMismatches.WithLabelValues("style")))
	assert.Equal(t, uint64(1), histogramCount(t, m.candidateScore))
	assert.Equal(t, uint64(1), histogramCount(t, m.runDuration))
	assert.Zero(t, counterValue(t, m.emptyPoolTotal))
}

func TestRankingMetrics_EmptyPool(t *testing.T) {
	m := NewRankingMetrics()
	r, err := ranking.NewRanker(ranking.WithMonitor(m))
	require.NoError(t, err)
	defer r.Release()

	_, err = r.Rank(ranking.Request{
		Requester:  core.Requester{ID: "req"},
		Candidates: []core.Candidate{{ID: "a", Available: false}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, m.emptyPoolTotal))
	assert.Equal(t, 1.0, counterValue(t, m.runConfidenceTotal.WithLabelValues(string(core.ConfidenceLow))))
}

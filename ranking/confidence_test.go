package ranking

import (
	"testing"

	"github.com/poiesic/rankwell/core"
	"github.com/stretchr/testify/assert"
)

func TestGovernedFields(t *testing.T) {
	assert.Equal(t, []string{"goals", "style", "schedule"}, GovernedFields(testClasses()))
	assert.Empty(t, GovernedFields(nil))
}

func TestEstimateConfidence(t *testing.T) {
	requester := testRequester()
	fields := GovernedFields(testClasses())

	t.Run("all fields usable", func(t *testing.T) {
		c := fullCandidate("c1")
		assert.Equal(t, 1.0, EstimateConfidence(&requester, &c, fields))
	})

	t.Run("no embeddings", func(t *testing.T) {
		c := bareCandidate("c1")
		assert.Equal(t, 0.0, EstimateConfidence(&requester, &c, fields))
	})

	t.Run("no fields configured", func(t *testing.T) {
		c := fullCandidate("c1")
		assert.Equal(t, 0.0, EstimateConfidence(&requester, &c, nil))
	})

	t.Run("mismatched dimensions are not usable", func(t *testing.T) {
		c := fullCandidate("c1")
		c.Embeddings["goals"] = []float32{1, 0}
		assert.InDelta(t, 2.0/3.0, EstimateConfidence(&requester, &c, fields), 1e-12)
	})

	t.Run("non-increasing as embeddings go missing", func(t *testing.T) {
		c := fullCandidate("c1")
		prev := EstimateConfidence(&requester, &c, fields)
		for _, field := range fields {
			delete(c.Embeddings, field)
			next := EstimateConfidence(&requester, &c, fields)
			assert.LessOrEqual(t, next, prev)
			assert.GreaterOrEqual(t, next, 0.0)
			prev = next
		}
		assert.Zero(t, prev)
	})

	t.Run("independent of score", func(t *testing.T) {
		c := fullCandidate("c1")
		c.Embeddings = map[string][]float32{
			"goals":    {-1, 0, 0},
			"style":    {0, -1, 0},
			"schedule": {0, 0, -1},
		}
		assert.Equal(t, 1.0, EstimateConfidence(&requester, &c, fields))
	})
}

func TestMeanConfidence(t *testing.T) {
	assert.Zero(t, MeanConfidence(nil))
	assert.InDelta(t, 0.5, MeanConfidence([]core.MatchResult{{Confidence: 1}, {Confidence: 0}}), 1e-12)
}

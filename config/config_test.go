package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
version: "1"
parallelism: 4
weight_classes:
  - tag: primary
    weight: 0.7
    fields: [training_style, goals]
  - tag: secondary
    weight: 0.3
    fields: [schedule, personality]
hard_filters:
  - field: certification
    operator: equals
    value: NASM
    reason: "Certification does not match requirement"
  - field: rate
    operator: less_than
    value: 80
  - field: languages
    operator: contains
    value: [en, es]
scoring:
  missing_primary_penalty: 0.2
  min_response_length: 20
ai:
  embedding_host: http://embed.internal:8080
  embedding_model: text-embedding-3-small
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rankwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvEmbeddingHost, EnvEmbeddingModel, EnvEmbeddingToken} {
		t.Setenv(key, "")
	}
}

func TestLoad_Full(t *testing.T) {
	clearEnv(t)
	cfg, errs := Load(writeConfig(t, fullConfig))
	require.Empty(t, errs)

	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, 4, cfg.Parallelism)

	require.Len(t, cfg.WeightClasses, 2)
	assert.Equal(t, core.WeightPrimary, cfg.WeightClasses[0].Tag)
	assert.InDelta(t, 0.7, cfg.WeightClasses[0].Weight, 1e-9)
	assert.Equal(t, []string{"schedule", "personality"}, cfg.WeightClasses[1].Fields)

	require.Len(t, cfg.HardFilters, 3)
	assert.Equal(t, core.OperatorEquals, cfg.HardFilters[0].Operator)
	assert.True(t, cfg.HardFilters[0].Value.Equal(core.TextValue("NASM")))
	assert.Equal(t, "Certification does not match requirement", cfg.HardFilters[0].Reason)
	assert.Equal(t, core.OperatorLessThan, cfg.HardFilters[1].Operator)
	assert.True(t, cfg.HardFilters[1].Value.Equal(core.NumberValue(80)))
	assert.Equal(t, core.ValueKindList, cfg.HardFilters[2].Value.Kind)

	// Unset scoring values keep their defaults.
	def := ranking.DefaultScoringParams()
	assert.InDelta(t, 0.2, cfg.Scoring.MissingPrimaryPenalty, 1e-9)
	assert.Equal(t, 20, cfg.Scoring.MinResponseLength)
	assert.Equal(t, def.MissingSecondaryPenalty, cfg.Scoring.MissingSecondaryPenalty)
	assert.Equal(t, def.ScoringTokensInExplanation, cfg.Scoring.ScoringTokensInExplanation)

	assert.Equal(t, "http://embed.internal:8080/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEmbeddingModel, "env-model")
	t.Setenv(EnvEmbeddingToken, "sk-env-token")

	cfg, errs := Load(writeConfig(t, fullConfig))
	require.Empty(t, errs)
	assert.Equal(t, "env-model", cfg.AI.EmbeddingModel)
	assert.Equal(t, "sk-env-token", cfg.AI.EmbeddingToken)
	assert.Equal(t, "http://embed.internal:8080/v1", cfg.AI.EmbeddingHost)
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	cfg, errs := Load("")
	require.Empty(t, errs)

	assert.Empty(t, cfg.WeightClasses)
	assert.Equal(t, ranking.DefaultScoringParams(), cfg.Scoring)
	assert.Equal(t, ai.DefaultConfig().EmbeddingModel, cfg.AI.EmbeddingModel)
	assert.Len(t, cfg.Warnings, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, errs := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Nil(t, cfg)
	require.Len(t, errs, 1)
}

func TestLoad_UnrecognizedOperatorIsWarning(t *testing.T) {
	clearEnv(t)
	cfg, errs := Load(writeConfig(t, `
weight_classes:
  - tag: primary
    weight: 1
    fields: [goals]
hard_filters:
  - field: rate
    operator: at-most
    value: 80
`))
	require.Empty(t, errs)
	require.Len(t, cfg.HardFilters, 1)
	assert.Equal(t, core.OperatorUnrecognized, cfg.HardFilters[0].Operator)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "at-most")
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	_, errs := Load(writeConfig(t, `
version: "7"
parallelism: -1
weight_classes:
  - tag: tertiary
    weight: 1
    fields: [goals]
  - tag: primary
    weight: -2
    fields: [schedule]
hard_filters:
  - field: ""
    operator: equals
    value: x
scoring:
  brief_response_penalty: -0.5
`))

	assert.Len(t, errs, 6)
	assertContainsError(t, errs, ErrUnsupportedVersion)
	assertContainsError(t, errs, ErrInvalidParallelism)
	assertContainsError(t, errs, core.ErrInvalidWeightTag)
	assertContainsError(t, errs, core.ErrInvalidWeight)
	assertContainsError(t, errs, core.ErrInvalidHardFilterRule)
	assertContainsError(t, errs, ranking.ErrInvalidParams)
}

func TestLoad_OverlappingFields(t *testing.T) {
	clearEnv(t)
	_, errs := Load(writeConfig(t, `
weight_classes:
  - tag: primary
    weight: 1
    fields: [goals]
  - tag: secondary
    weight: 0.5
    fields: [goals]
`))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrOverlappingFields)
}

func TestLogSummary_MasksToken(t *testing.T) {
	cfg := &Config{AI: ai.NewConfig(ai.WithEmbeddingToken("sk-very-secret"))}
	summary := cfg.LogSummary()
	assert.Equal(t, "sk-v****", summary["embedding_token"])
	assert.Equal(t, "0", summary["weight_classes"])
}

func assertContainsError(t *testing.T, errs []error, target error) {
	t.Helper()
	for _, err := range errs {
		if errors.Is(err, target) {
			return
		}
	}
	t.Errorf("expected an error matching %v in %v", target, errs)
}

// Package config loads ranking configuration from a YAML file, with
// environment variables overriding the embedding service settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
)

// SupportedVersion is the only configuration format version understood.
const SupportedVersion = "1"

// Environment variables that take precedence over file values.
const (
	EnvEmbeddingHost  = "RANKWELL_EMBEDDING_HOST"
	EnvEmbeddingModel = "RANKWELL_EMBEDDING_MODEL"
	EnvEmbeddingToken = "RANKWELL_EMBEDDING_TOKEN"
)

// Configuration validation errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported config version")
	ErrInvalidValue       = errors.New("invalid config value")
	ErrInvalidParallelism = errors.New("parallelism must not be negative")
)

// Config is everything a ranking run needs besides the profiles themselves.
type Config struct {
	Version       string
	WeightClasses []core.WeightClass
	HardFilters   []core.HardFilterRule
	Scoring       ranking.ScoringParams
	// Parallelism is the scoring worker pool size; below 2 scores sequentially.
	Parallelism int
	AI          *ai.Config
	// Warnings are non-fatal findings, such as unrecognized filter operators.
	Warnings []string
}

type rawWeightClass struct {
	Tag    string   `koanf:"tag"`
	Weight float64  `koanf:"weight"`
	Fields []string `koanf:"fields"`
}

type rawRule struct {
	Field    string `koanf:"field"`
	Operator string `koanf:"operator"`
	Value    any    `koanf:"value"`
	Reason   string `koanf:"reason"`
}

// Load reads configuration from an optional YAML file and the environment.
// Missing scoring values fall back to ranking.DefaultScoringParams.
// Returns the loaded config and every validation error found (empty if valid).
// If the file cannot be loaded, the config is nil.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	var loadErrs []error
	cfg := &Config{
		Version:     k.String("version"),
		Parallelism: k.Int("parallelism"),
		Scoring:     loadScoring(k),
		AI:          loadAI(k),
	}

	var classes []rawWeightClass
	if err := k.Unmarshal("weight_classes", &classes); err != nil {
		loadErrs = append(loadErrs, fmt.Errorf("%w: weight_classes: %w", ErrInvalidValue, err))
	}
	for _, c := range classes {
		cfg.WeightClasses = append(cfg.WeightClasses, core.WeightClass{
			Tag:    core.WeightTag(c.Tag),
			Weight: c.Weight,
			Fields: c.Fields,
		})
	}

	var rules []rawRule
	if err := k.Unmarshal("hard_filters", &rules); err != nil {
		loadErrs = append(loadErrs, fmt.Errorf("%w: hard_filters: %w", ErrInvalidValue, err))
	}
	for i, r := range rules {
		value, err := core.ValueOf(r.Value)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("%w: hard_filters[%d].value: %w", ErrInvalidValue, i, err))
			continue
		}
		cfg.HardFilters = append(cfg.HardFilters, core.NewHardFilterRule(r.Field, r.Operator, value, r.Reason))
	}

	errs := cfg.Validate()
	return cfg, append(loadErrs, errs...)
}

func loadScoring(k *koanf.Koanf) ranking.ScoringParams {
	params := ranking.DefaultScoringParams()
	floats := map[string]*float64{
		"scoring.missing_primary_penalty":   &params.MissingPrimaryPenalty,
		"scoring.missing_secondary_penalty": &params.MissingSecondaryPenalty,
		"scoring.brief_response_penalty":    &params.BriefResponsePenalty,
		"scoring.low_confidence_threshold":  &params.LowConfidenceThreshold,
	}
	for key, dst := range floats {
		if k.Exists(key) {
			*dst = k.Float64(key)
		}
	}
	ints := map[string]*int{
		"scoring.min_response_length":           &params.MinResponseLength,
		"scoring.scoring_tokens_in_explanation": &params.ScoringTokensInExplanation,
	}
	for key, dst := range ints {
		if k.Exists(key) {
			*dst = k.Int(key)
		}
	}
	return params
}

func loadAI(k *koanf.Koanf) *ai.Config {
	cfg := ai.DefaultConfig()
	cfg.EmbeddingHost = getEnvOrKoanf(EnvEmbeddingHost, k, "ai.embedding_host", cfg.EmbeddingHost)
	cfg.EmbeddingModel = getEnvOrKoanf(EnvEmbeddingModel, k, "ai.embedding_model", cfg.EmbeddingModel)
	cfg.EmbeddingToken = getEnvOrKoanf(EnvEmbeddingToken, k, "ai.embedding_token", cfg.EmbeddingToken)
	if k.Exists("ai.batch_size") {
		cfg.BatchSize = k.Int("ai.batch_size")
	}
	return cfg
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the
// koanf value, or the default.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := k.String(koanfKey); val != "" {
		return val
	}
	return defaultVal
}

// Validate checks the configuration and returns every problem found.
// Unrecognized filter operators are recorded in Warnings, not returned.
func (c *Config) Validate() []error {
	var errs []error
	c.Warnings = nil

	if c.Version != "" && c.Version != SupportedVersion {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedVersion, c.Version))
	}

	classesValid := true
	for i, class := range c.WeightClasses {
		if err := core.ValidateWeightClasses([]core.WeightClass{class}); err != nil {
			errs = append(errs, fmt.Errorf("weight_classes[%d]: %w", i, err))
			classesValid = false
		}
	}
	if classesValid {
		if err := core.ValidateWeightClasses(c.WeightClasses); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.WeightClasses) == 0 {
		c.Warnings = append(c.Warnings, "no weight classes configured; every candidate will score zero")
	}

	for i := range c.HardFilters {
		rule := &c.HardFilters[i]
		if err := core.ValidateHardFilterRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("hard_filters[%d]: %w", i, err))
			continue
		}
		if !rule.Operator.Recognized() {
			c.Warnings = append(c.Warnings,
				fmt.Sprintf("hard filter on %q uses unrecognized operator %q; the rule will always pass", rule.Field, rule.RawOperator))
		}
	}

	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Parallelism < 0 {
		errs = append(errs, ErrInvalidParallelism)
	}

	if c.AI != nil {
		if err := c.AI.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// The embedding token is masked.
func (c *Config) LogSummary() map[string]string {
	summary := map[string]string{
		"version":        c.Version,
		"weight_classes": fmt.Sprintf("%d", len(c.WeightClasses)),
		"hard_filters":   fmt.Sprintf("%d", len(c.HardFilters)),
		"parallelism":    fmt.Sprintf("%d", c.Parallelism),
	}
	if c.AI != nil {
		summary["embedding_host"] = c.AI.EmbeddingHost
		summary["embedding_model"] = c.AI.EmbeddingModel
		summary["embedding_token"] = maskSecret(c.AI.EmbeddingToken)
	}
	return summary
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

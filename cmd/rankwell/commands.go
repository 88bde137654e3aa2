package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/rankwell"
	"github.com/poiesic/rankwell/ai"
	"github.com/poiesic/rankwell/ai/openai"
	"github.com/poiesic/rankwell/config"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/enrich"
	"github.com/poiesic/rankwell/metrics"
	"github.com/poiesic/rankwell/storage/badger"
	"github.com/poiesic/rankwell/visibility"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// profileFile is the import format.
type profileFile struct {
	Requesters []core.Requester `json:"requesters"`
	Candidates []core.Candidate `json:"candidates"`
}

// matrixOutput is what the matrix command prints.
type matrixOutput struct {
	RulesVersion int                                        `json:"rules_version" yaml:"rules_version"`
	Roles        map[visibility.Role]visibility.FieldAccess `json:"roles" yaml:"roles"`
}

func loadConfig(path string) (*config.Config, error) {
	cfg, errs := config.Load(path)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	for _, warning := range cfg.Warnings {
		slog.Warn("configuration warning", "warning", warning)
	}
	for key, value := range cfg.LogSummary() {
		slog.Debug("configuration", "key", key, "value", value)
	}
	return cfg, nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read profiles: %w", err)
	}
	var profiles profileFile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("failed to parse profiles: %w", err)
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	engine, err := rankwell.NewEngine(c.String("db"), rankwell.WithConfig(cfg), rankwell.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	stats, err := engine.Import(ctx, profiles.Requesters, profiles.Candidates, c.Bool("embed"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Imported %d requesters and %d candidates (%d embedded, %d cached, %d failed)\n",
		len(profiles.Requesters), len(profiles.Candidates), stats.Embedded, stats.CacheHits, stats.Failed)
	return nil
}

func rankCommand(c *cli.Context) error {
	ctx := context.Background()

	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}
	var role visibility.Role
	if r := c.String("role"); r != "" {
		if role, err = visibility.ParseRole(r); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	opts := []rankwell.EngineOption{
		rankwell.WithConfig(cfg),
		rankwell.WithLogger(slog.Default()),
		rankwell.WithAutoEmbed(c.Bool("embed")),
		rankwell.WithRunRecording(c.Bool("record")),
	}
	metricsFile := c.String("metrics-file")
	var registry *prometheus.Registry
	if metricsFile != "" {
		m := metrics.NewRankingMetrics()
		registry = prometheus.NewRegistry()
		if err := m.Register(registry); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, rankwell.WithMonitor(m))
	}

	engine, err := rankwell.NewEngine(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	run, err := engine.Rank(ctx, c.String("requester"))
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	if registry != nil {
		if err := writeMetrics(metricsFile, registry); err != nil {
			return err
		}
	}

	if role == "" {
		return writeOutput(c.App.Writer, format, run)
	}
	report, err := run.Report(role)
	if err != nil {
		return err
	}
	return writeOutput(c.App.Writer, format, report)
}

func discloseCommand(c *cli.Context) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}
	role, err := visibility.ParseRole(c.String("role"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read explanation: %w", err)
	}

	// Accept a single explanation or a list of them.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var explanations []core.MatchExplanation
		if err := json.Unmarshal(trimmed, &explanations); err != nil {
			return fmt.Errorf("failed to parse explanations: %w", err)
		}
		disclosures := make([]visibility.Disclosure, 0, len(explanations))
		for _, exp := range explanations {
			d, err := visibility.Disclose(exp, role)
			if err != nil {
				return err
			}
			disclosures = append(disclosures, d)
		}
		return writeOutput(c.App.Writer, format, disclosures)
	}

	var exp core.MatchExplanation
	if err := json.Unmarshal(data, &exp); err != nil {
		return fmt.Errorf("failed to parse explanation: %w", err)
	}
	d, err := visibility.Disclose(exp, role)
	if err != nil {
		return err
	}
	return writeOutput(c.App.Writer, format, d)
}

func matrixCommand(c *cli.Context) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}
	return writeOutput(c.App.Writer, format, matrixOutput{
		RulesVersion: visibility.RulesVersion,
		Roles:        visibility.Matrix(),
	})
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	reembedConfig := &enrich.ReembedConfig{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if cfg.AI != nil {
		aiConfig.EmbeddingToken = cfg.AI.EmbeddingToken
		aiConfig.BatchSize = cfg.AI.BatchSize
	}
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	engine, err := rankwell.NewEngine(dbPath,
		rankwell.WithConfig(cfg),
		rankwell.WithProvider(provider),
		rankwell.WithLogger(slog.Default()),
	)
	if err != nil {
		provider.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", dbPath)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := engine.Reembed(ctx, provider, reembedConfig, c.App.ErrWriter); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	if cfg.AI == nil || cfg.AI.EmbeddingModel != aiConfig.EmbeddingModel {
		fmt.Fprintf(c.App.ErrWriter, "Set ai.embedding_model to %q in the configuration before ranking or importing.\n", aiConfig.EmbeddingModel)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	ctx := context.Background()

	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	runs, err := badger.NewRunRepository(backend).RecentRuns(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*core.RunRecord{}
	}
	return writeOutput(c.App.Writer, format, runs)
}

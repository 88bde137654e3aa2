// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/rankwell/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rankwell",
		Usage: "Rank candidates against a requester and disclose the explanations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Import requester and candidate profiles from a JSON file",
				Action: importCommand,
				Flags: []cli.Flag{
					dbFlag(),
					configFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to profiles JSON file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Embed text responses of governed fields before storing",
					},
				},
			},
			{
				Name:   "rank",
				Usage:  "Rank every stored candidate for one requester",
				Action: rankCommand,
				Flags: []cli.Flag{
					dbFlag(),
					configFlag(),
					formatFlag(),
					&cli.StringFlag{
						Name:     "requester",
						Aliases:  []string{"r"},
						Usage:    "Requester ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Disclose results for a role (requester, candidate, operator); empty prints the full run",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Fill missing embeddings before ranking",
					},
					&cli.BoolFlag{
						Name:  "record",
						Usage: "Save an audit record of the run",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus metrics for the run to this file",
					},
				},
			},
			{
				Name:   "disclose",
				Usage:  "Project a saved explanation for a role",
				Action: discloseCommand,
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to an explanation JSON file (object or array)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Usage:    "Role to disclose for (requester, candidate, operator)",
						Required: true,
					},
				},
			},
			{
				Name:   "matrix",
				Usage:  "Print the visibility matrix",
				Action: matrixCommand,
				Flags:  []cli.Flag{formatFlag()},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored profiles with a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					configFlag(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: ai.DefaultEmbeddingHost,
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of candidates to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N candidates",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List recorded ranking runs, most recent first",
				Action: runsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to ranking configuration YAML file",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format (json, yaml)",
		Value: formatJSON,
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format := strings.ToLower(c.String("log-format")); format {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", format)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}

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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/caselaw"
	"github.com/poiesic/caselaw/archive"
	"github.com/poiesic/caselaw/bulk"
	"github.com/poiesic/caselaw/config"
	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/handlers"
	"github.com/poiesic/caselaw/storage/badger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "caselaw",
		Usage: "Search court opinions across a local archive and remote case law services",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"CASELAW_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv file to load before reading the environment (default .env)",
			},
			&cli.StringFlag{
				Name:  "data-root",
				Usage: "Bulk export directory or s3://bucket/prefix (overrides config)",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Path to the BadgerDB index directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search all configured sources",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "jurisdiction", Usage: "Restrict to a jurisdiction"},
					&cli.StringFlag{Name: "date-min", Usage: "Earliest decision date (YYYY or YYYY-MM-DD)"},
					&cli.StringFlag{Name: "date-max", Usage: "Latest decision date (YYYY or YYYY-MM-DD)"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: core.DefaultLimit},
					&cli.StringSliceFlag{Name: "source", Usage: "Source to query, in order (repeatable)"},
					&cli.BoolFlag{Name: "exhaustive", Usage: "Query every source even once the limit is met"},
					&cli.BoolFlag{Name: "json", Usage: "Print the full response as JSON"},
				},
			},
			{
				Name:      "cite",
				Usage:     "Look a case up by citation",
				ArgsUsage: "<citation>",
				Action:    citeCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the case as JSON"},
				},
			},
			{
				Name:      "related",
				Usage:     "List cases related to a case",
				ArgsUsage: "<source> <id>",
				Action:    relatedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: core.DefaultLimit},
					&cli.BoolFlag{Name: "json", Usage: "Print results as JSON"},
				},
			},
			{
				Name:   "status",
				Usage:  "Show source availability and remaining quota",
				Action: statusCommand,
			},
			{
				Name:   "import",
				Usage:  "Build an on-disk index from a bulk export",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of volumes read concurrently (0 = one per CPU)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum read attempts per volume",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 200 * time.Millisecond,
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and environment, then applies global
// flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	if root := c.String("data-root"); root != "" {
		cfg.Archive.DataRoot = root
	}
	if index := c.String("index"); index != "" {
		cfg.Archive.IndexPath = index
	}
	return cfg, cfg.Validate()
}

func openEngine(c *cli.Context, cfg *config.Config, opts ...caselaw.Option) (*caselaw.Engine, error) {
	opts = append(caselaw.OptionsFromConfig(cfg), opts...)
	e, err := caselaw.New(c.Context, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return e, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEngine(c, cfg, caselaw.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer e.Close()

	h, err := handlers.NewHandler(e, slog.Default())
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.NewRouter(h, e.Gatherer()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func searchCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("search query is required")
	}

	q := &core.SearchQuery{
		Query:        text,
		Jurisdiction: c.String("jurisdiction"),
		DateMin:      c.String("date-min"),
		DateMax:      c.String("date-max"),
		Limit:        c.Int("limit"),
	}
	for _, s := range c.StringSlice("source") {
		id, err := core.ParseSourceID(s)
		if err != nil {
			return err
		}
		q.Sources = append(q.Sources, id)
	}
	if c.Bool("exhaustive") {
		prefer := false
		q.PreferOffline = &prefer
	}
	if err := core.ValidateQuery(q); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	resp := e.Search(c.Context, q)
	if c.Bool("json") {
		return printJSON(c, resp)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tCITATION\tDATE\tNAME")
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Source, r.Citation, r.DecisionDate, r.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\n%d of %d results\n", len(resp.Results), resp.TotalCount)
	for _, d := range resp.Sources {
		state := "ok"
		if !d.Succeeded {
			state = d.Error
		}
		fmt.Fprintf(c.App.Writer, "  %-8s %3d results  %s\n", d.Source, d.ResultCount, state)
	}
	return nil
}

func citeCommand(c *cli.Context) error {
	cite := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(cite) == "" {
		return fmt.Errorf("citation is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	res := e.GetCaseByCitation(c.Context, cite)
	if res == nil {
		return fmt.Errorf("%w: %s", core.ErrCaseNotFound, cite)
	}
	if c.Bool("json") {
		return printJSON(c, res)
	}
	printCase(c, res)
	return nil
}

func relatedCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <source> <id>")
	}
	source, err := core.ParseSourceID(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := e.FindRelated(c.Context, source, c.Args().Get(1), c.Int("limit"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c, results)
	}
	for i := range results {
		printCase(c, &results[i])
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSTATE\tQUOTA\tAUTH")
	for _, s := range e.SourceStatus() {
		quota := "unlimited"
		if s.QuotaRemaining >= 0 {
			quota = fmt.Sprint(s.QuotaRemaining)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", s.Source, s.State, quota, s.Authenticated)
	}
	return w.Flush()
}

func importCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Archive.DataRoot == "" {
		return fmt.Errorf("data root is required (--data-root or archive.data_root)")
	}
	if cfg.Archive.IndexPath == "" {
		return fmt.Errorf("index path is required (--index or archive.index_path)")
	}

	reader, err := bulk.NewReader(c.Context, cfg.Archive.DataRoot, cfg.Archive.S3())
	if err != nil {
		return fmt.Errorf("failed to open data root: %w", err)
	}

	backend, err := badger.OpenBackend(cfg.Archive.IndexPath, false, badger.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewCaseRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	opts := []archive.LoaderOption{
		archive.WithProgress(c.App.ErrWriter),
		archive.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	}
	if n := c.Int("pool-size"); n > 0 {
		opts = append(opts, archive.WithPoolSize(n))
	}
	loader, err := archive.NewLoader(reader, repo, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Importing %s into %s\n", reader.Root(), cfg.Archive.IndexPath)
	stats, err := loader.Load(c.Context)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d cases from %d volumes (%d failed) in %s\n",
		stats.Cases, stats.Volumes, stats.FailedVolumes, stats.Duration.Round(time.Millisecond))
	return nil
}

func printCase(c *cli.Context, r *core.UnifiedResult) {
	fmt.Fprintf(c.App.Writer, "%s [%s] %s %s\n", r.Name, r.Source, r.Citation, r.DecisionDate)
	if r.Court != "" {
		fmt.Fprintf(c.App.Writer, "  %s\n", r.Court)
	}
	if r.Snippet != "" {
		fmt.Fprintf(c.App.Writer, "  %s\n", r.Snippet)
	}
}

func printJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

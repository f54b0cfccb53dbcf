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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/circulars"
	"github.com/poiesic/circulars/config"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/dates"
	"github.com/poiesic/circulars/extract"
	"github.com/poiesic/circulars/httpapi"
	"github.com/poiesic/circulars/ingestion"
	"github.com/poiesic/circulars/metrics"
	"github.com/poiesic/circulars/search"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine; the API token may come from the shell.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "circulars",
		Usage: "Answer questions from a folder of dated circulars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "circulars.yaml",
				EnvVars: []string{"CIRCULARS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "corpus",
				Aliases: []string{"d"},
				Usage:   "Directory of circulars (overrides corpus.dir)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Extraction mode for PDFs: ocr, text or auto (overrides ingestion.mode)",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Extraction and embedding cache directory (overrides cache.dir)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Load the corpus and serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.StringFlag{
						Name:  "allow-origin",
						Usage: "Value for Access-Control-Allow-Origin; empty disables CORS headers",
						Value: "*",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question and print the JSON response",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Restrict the answer to documents dated YYYY-MM-DD",
					},
				},
			},
			{
				Name:   "qa",
				Usage:  "Generate questions about a file, or the whole corpus, and answer them",
				Action: qaCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Document to question instead of the corpus",
					},
				},
			},
			{
				Name:   "dates",
				Usage:  "List documents with the date found in each",
				Action: datesCommand,
			},
			{
				Name:   "index",
				Usage:  "Extract and embed the corpus into the cache without serving",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Clear the cache before indexing",
					},
				},
			},
		},
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if v := c.String("corpus"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := c.String("mode"); v != "" {
		cfg.Ingestion.Mode = v
	}
	if v := c.String("cache-dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serviceOptions translates the config into service options.
func serviceOptions(cfg *config.AppConfig, progress io.Writer) ([]circulars.ServiceOption, error) {
	mode, err := extract.ParseMode(cfg.Ingestion.Mode)
	if err != nil {
		return nil, err
	}

	ocrOpts := []extract.OCROption{extract.WithDPI(cfg.Ingestion.OCRDPI)}
	if cfg.Ingestion.OCRLanguage != "" {
		ocrOpts = append(ocrOpts, extract.WithLanguage(cfg.Ingestion.OCRLanguage))
	}

	ingestOpts := []ingestion.Option{
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithRetry(cfg.Ingestion.MaxAttempts, cfg.RetryDelay()),
		ingestion.WithSkipFailures(cfg.Ingestion.SkipFailures),
	}
	if cfg.Ingestion.Workers > 0 {
		ingestOpts = append(ingestOpts, ingestion.WithPoolSize(cfg.Ingestion.Workers))
	}
	if len(cfg.Corpus.Extensions) > 0 {
		ingestOpts = append(ingestOpts, ingestion.WithExtensions(cfg.Corpus.Extensions...))
	}
	if progress != nil {
		ingestOpts = append(ingestOpts, ingestion.WithProgress(progress))
	}

	opts := []circulars.ServiceOption{
		circulars.WithAIConfig(cfg.AIServiceConfig()),
		circulars.WithExtractionMode(mode, ocrOpts...),
		circulars.WithIngestionOptions(ingestOpts...),
		circulars.WithSearchOptions(
			search.WithPoolSize(cfg.Search.PoolSize),
			search.WithCapabilityTimeout(cfg.CapabilityTimeout()),
		),
		circulars.WithMaxQuestions(cfg.QA.MaxQuestions),
	}
	if cfg.Cache.Dir != "" {
		opts = append(opts, circulars.WithCacheDir(cfg.Cache.Dir))
	}
	return opts, nil
}

// warnMissingTools logs when the OCR toolchain is needed but absent.
func warnMissingTools(mode string) {
	if m, err := extract.ParseMode(mode); err != nil || m == extract.ModeText {
		return
	}
	missing := extract.MissingTools()
	if len(missing) == 0 {
		return
	}
	slog.Warn("OCR tools not found on PATH", "missing", strings.Join(missing, ", "))
	fmt.Fprintln(os.Stderr, extract.InstallInstructions())
}

func openService(cfg *config.AppConfig, progress io.Writer, extra ...circulars.ServiceOption) (*circulars.Service, error) {
	warnMissingTools(cfg.Ingestion.Mode)
	opts, err := serviceOptions(cfg, progress)
	if err != nil {
		return nil, err
	}
	return circulars.NewService(cfg.Corpus.Dir, append(opts, extra...)...)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.String("addr"); v != "" {
		cfg.Server.Addr = v
	}

	recorder := metrics.NewRecorder()
	svc, err := openService(cfg, nil, circulars.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("loading corpus", "dir", cfg.Corpus.Dir, "mode", cfg.Ingestion.Mode)
	start := time.Now()
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	slog.Info("corpus loaded", "documents", len(svc.Documents()), "elapsed", time.Since(start))

	handler := httpapi.NewServer(svc,
		httpapi.WithMetricsHandler(recorder.Handler()),
		httpapi.WithAllowOrigin(c.String("allow-origin")),
	)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, svc, hup)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reloadOnSignal rebuilds the corpus each time a signal arrives on sig. A
// failed reload keeps the previous corpus in service.
func reloadOnSignal(ctx context.Context, svc *circulars.Service, sig <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			slog.Info("reloading corpus")
			if err := svc.Reload(ctx); err != nil {
				slog.Error("reload failed, keeping previous corpus", "err", err)
				continue
			}
			slog.Info("corpus reloaded", "documents", len(svc.Documents()))
		}
	}
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Load(c.Context); err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	outcome := svc.Ask(c.Context, question, c.String("date"))
	return printOutcome(c.App.Writer, outcome)
}

// printOutcome writes the outcome as the HTTP API would render it.
func printOutcome(w io.Writer, outcome core.Outcome) error {
	status, payload := httpapi.Render(outcome)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return cli.Exit("", 1)
	}
	return nil
}

func qaCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	var text string
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if text, err = svc.ExtractText(c.Context, filepath.Base(path), data); err != nil {
			return fmt.Errorf("extracting %s: %w", path, err)
		}
	} else {
		if err := svc.Load(c.Context); err != nil {
			return fmt.Errorf("loading corpus: %w", err)
		}
		text = svc.CorpusText()
	}

	pairs, err := svc.GenerateQA(c.Context, text)
	if err != nil {
		return err
	}
	resp := httpapi.UploadResponse{Questions: make([]string, len(pairs)), Answers: make([]httpapi.QAResponse, len(pairs))}
	for i, p := range pairs {
		resp.Questions[i] = p.Question
		resp.Answers[i] = httpapi.QAResponse{Question: p.Question, Answer: p.Answer}
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func datesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	raws, err := svc.Pipeline().LoadDir(c.Context, cfg.Corpus.Dir)
	if err != nil {
		return err
	}
	extractor := dates.Default()
	for _, raw := range raws {
		date := extractor.Extract(raw.Text)
		label := date.String()
		if !date.Known() {
			label = "(undated)"
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", label, raw.Filename)
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Cache.Dir == "" {
		return errors.New("indexing requires a cache directory (--cache-dir or cache.dir)")
	}
	svc, err := openService(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.Bool("rebuild") {
		if err := svc.Cache().Clear(c.Context); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		slog.Info("cache cleared", "dir", cfg.Cache.Dir)
	}

	start := time.Now()
	if err := svc.Load(c.Context); err != nil {
		return err
	}
	stats, err := svc.Cache().Stats(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d documents in %s\n", len(svc.Documents()), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(c.App.Writer, "Cache: %d texts, %d vectors\n", stats.Texts, stats.Vectors)
	return nil
}

// parseLevel maps a level name onto a slog.Level.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

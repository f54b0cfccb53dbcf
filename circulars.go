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

// Package circulars answers questions against a folder of dated circulars.
//
// A Service ties the pieces together: the ingestion pipeline builds an
// immutable corpus snapshot from the folder, the searcher answers queries
// against whichever snapshot is current, and Reload swaps in a fresh
// snapshot without interrupting queries in flight.
package circulars

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/ai/openai"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
	"github.com/poiesic/circulars/extract"
	"github.com/poiesic/circulars/ingestion"
	"github.com/poiesic/circulars/metrics"
	"github.com/poiesic/circulars/search"
	"github.com/poiesic/circulars/storage"
	"github.com/poiesic/circulars/storage/badger"
)

// ErrCorpusDirRequired is returned when NewService is given no directory.
var ErrCorpusDirRequired = errors.New("corpus directory required")

// DefaultMaxQuestions bounds the questions GenerateQA asks about one text.
const DefaultMaxQuestions = 16

// noAnswer stands in for an answer the extractor could not produce.
const noAnswer = "No answer found"

// Service serves queries over a hot-reloadable corpus.
type Service struct {
	corpusDir    string
	provider     ai.AIProvider
	ownsProvider bool
	cache        storage.Cache
	ownsCache    bool
	extractor    extract.TextExtractor
	maxQuestions int
	pipeline     *ingestion.Pipeline
	holder       *corpus.Holder
	searcher     *search.Searcher
	recorder     *metrics.Recorder
	reloadMu     sync.Mutex
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	mode          extract.Mode
	extractor     extract.TextExtractor
	ocrOptions    []extract.OCROption
	cacheDir      string
	cache         storage.Cache
	ingestionOpts []ingestion.Option
	searchOpts    []search.Option
	maxQuestions  int
	recorder      *metrics.Recorder
	logger        *slog.Logger
}

// WithAIConfig configures the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider instead of creating one. The
// caller keeps ownership and must close it.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithExtractionMode selects how PDFs are read. Default is extract.ModeOCR.
func WithExtractionMode(mode extract.Mode, opts ...extract.OCROption) ServiceOption {
	return func(o *serviceOptions) {
		o.mode = mode
		o.ocrOptions = opts
	}
}

// WithExtractor replaces the standard extractor registry.
func WithExtractor(e extract.TextExtractor) ServiceOption {
	return func(o *serviceOptions) {
		o.extractor = e
	}
}

// WithCacheDir enables the persistent cache in dir.
func WithCacheDir(dir string) ServiceOption {
	return func(o *serviceOptions) {
		o.cacheDir = dir
	}
}

// WithCache uses an open cache. The caller keeps ownership.
func WithCache(cache storage.Cache) ServiceOption {
	return func(o *serviceOptions) {
		o.cache = cache
	}
}

// WithIngestionOptions passes options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithSearchOptions passes options to the searcher.
func WithSearchOptions(opts ...search.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithMaxQuestions bounds the questions GenerateQA asks. Default is
// DefaultMaxQuestions.
func WithMaxQuestions(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxQuestions = n
		}
	}
}

// WithRecorder records query and corpus metrics.
func WithRecorder(r *metrics.Recorder) ServiceOption {
	return func(o *serviceOptions) {
		o.recorder = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService wires a service for corpusDir. No documents are loaded until
// Load is called.
func NewService(corpusDir string, opts ...ServiceOption) (*Service, error) {
	if corpusDir == "" {
		return nil, ErrCorpusDirRequired
	}

	options := &serviceOptions{
		aiConfig:     ai.DefaultConfig(),
		mode:         extract.ModeOCR,
		maxQuestions: DefaultMaxQuestions,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		corpusDir:    corpusDir,
		holder:       corpus.NewHolder(nil),
		maxQuestions: options.maxQuestions,
		recorder:     options.recorder,
		logger:       options.logger.With("component", "service"),
	}

	if err := s.init(options); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(options *serviceOptions) error {
	s.provider = options.provider
	if s.provider == nil {
		provider, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			return err
		}
		s.provider = provider
		s.ownsProvider = true
	}

	extractor := options.extractor
	if extractor == nil {
		registry, err := extract.NewRegistry(options.mode, extract.ExecRunner{},
			append([]extract.OCROption{extract.WithOCRLogger(options.logger)}, options.ocrOptions...)...)
		if err != nil {
			return err
		}
		extractor = registry
	}
	s.extractor = extractor

	s.cache = options.cache
	if s.cache == nil && options.cacheDir != "" {
		cache, err := badger.OpenCache(options.cacheDir)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		s.cache = cache
		s.ownsCache = true
	}

	ingestionOpts := []ingestion.Option{ingestion.WithLogger(options.logger)}
	if s.cache != nil {
		model := options.aiConfig.EmbeddingModel
		if namer, ok := s.provider.(ai.ModelNamer); ok {
			model = namer.EmbeddingModel()
		}
		ingestionOpts = append(ingestionOpts,
			ingestion.WithCache(s.cache, string(options.mode), model))
	}
	pipeline, err := ingestion.NewPipeline(extractor, s.provider, append(ingestionOpts, options.ingestionOpts...)...)
	if err != nil {
		return err
	}
	s.pipeline = pipeline

	searchOpts := []search.Option{search.WithLogger(options.logger)}
	if s.recorder != nil {
		searchOpts = append(searchOpts, search.WithMonitor(s.recorder))
	}
	searcher, err := search.NewSearcher(s.holder, s.provider, append(searchOpts, options.searchOpts...)...)
	if err != nil {
		return err
	}
	s.searcher = searcher
	return nil
}

// Load builds a snapshot from the corpus directory and publishes it. On
// failure the current snapshot, if any, stays in service.
func (s *Service) Load(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snap, err := s.pipeline.Build(ctx, s.corpusDir)
	if err != nil {
		if s.recorder != nil {
			s.recorder.CorpusLoadFailed()
		}
		if s.holder.Load() != nil {
			s.logger.Error("reload failed, keeping current corpus", "dir", s.corpusDir, "err", err)
		}
		return err
	}

	old, err := s.holder.Swap(snap)
	if err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.CorpusLoaded(snap.Store.Len(), snap.BuiltAt)
	}

	if old != nil {
		s.logger.Info("corpus reloaded", "documents", snap.Store.Len(), "previous", old.Store.Len())
	} else {
		s.logger.Info("corpus loaded", "documents", snap.Store.Len())
	}
	return nil
}

// Reload is Load under its serving name.
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Query answers req against the current snapshot.
func (s *Service) Query(ctx context.Context, req core.QueryRequest) core.Outcome {
	return s.searcher.Query(ctx, req)
}

// Ask parses wire values into a request and answers it. A malformed date is
// reported as a failed outcome wrapping core.ErrInvalidQuery.
func (s *Service) Ask(ctx context.Context, text, isoDate string) core.Outcome {
	req, err := core.NewQueryRequest(text, isoDate)
	if err != nil {
		return core.Failed(fmt.Errorf("%w: %w", core.ErrInvalidQuery, err))
	}
	return s.Query(ctx, req)
}

// ExtractText reads the text of a single file with the service's
// extractor, as ingestion would.
func (s *Service) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	return s.extractor.ExtractText(ctx, name, data)
}

// CorpusText joins the text of every serving document, one document per
// line, with whitespace collapsed. It is empty before the first Load.
func (s *Service) CorpusText() string {
	docs := s.Documents()
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		if line := collapseSpace(doc.Text); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// GenerateQA asks up to the configured number of questions about text and
// answers each one from the same text. Blank text is core.ErrNoContext. An
// answer the extractor cannot produce is reported as "No answer found"; any
// other capability failure aborts with core.ErrCapability.
func (s *Service) GenerateQA(ctx context.Context, text string) ([]core.QAPair, error) {
	text = collapseSpace(text)
	if text == "" {
		return nil, core.ErrNoContext
	}

	s.logger.Info("generating questions", "chars", len(text), "max", s.maxQuestions)
	questions, err := s.provider.QuestionGenerator().GenerateQuestions(ctx, text, s.maxQuestions)
	if err != nil {
		return nil, fmt.Errorf("%w: generating questions: %w", core.ErrCapability, err)
	}

	extractor := s.provider.AnswerExtractor()
	pairs := make([]core.QAPair, 0, len(questions))
	for _, q := range questions {
		answer, err := extractor.ExtractAnswer(ctx, q, text)
		switch {
		case errors.Is(err, ai.ErrMalformedAnswer):
			s.logger.Warn("no answer for generated question", "question", q, "err", err)
			pairs = append(pairs, core.QAPair{Question: q, Answer: noAnswer})
		case err != nil:
			return nil, fmt.Errorf("%w: answering %q: %w", core.ErrCapability, q, err)
		default:
			pairs = append(pairs, core.QAPair{Question: q, Answer: capitalize(answer.Text)})
		}
	}
	return pairs, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Snapshot returns the serving snapshot, or nil before the first Load.
func (s *Service) Snapshot() *corpus.Snapshot {
	return s.holder.Load()
}

// Documents lists the serving documents in ingestion order.
func (s *Service) Documents() []*core.Document {
	snap := s.holder.Load()
	if snap == nil {
		return nil
	}
	return snap.Store.Documents()
}

// Pipeline returns the ingestion pipeline.
func (s *Service) Pipeline() *ingestion.Pipeline {
	return s.pipeline
}

// Cache returns the cache, or nil when caching is disabled.
func (s *Service) Cache() storage.Cache {
	return s.cache
}

// Recorder returns the metrics recorder, or nil.
func (s *Service) Recorder() *metrics.Recorder {
	return s.recorder
}

// Close releases resources the service created.
func (s *Service) Close() error {
	var errs []error
	if s.pipeline != nil {
		s.pipeline.Release()
	}
	if s.ownsCache && s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("error closing cache", "err", err)
			errs = append(errs, err)
		}
	}
	if s.ownsProvider && s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

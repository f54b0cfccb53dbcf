package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
	"github.com/poiesic/circulars/dates"
	"github.com/poiesic/circulars/extract"
	"github.com/poiesic/circulars/storage"
)

const (
	// DefaultMaxAttempts is how many times an embedding batch is tried.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first backoff delay between embedding attempts.
	DefaultBaseDelay = 500 * time.Millisecond
)

// DefaultExtensions are the file types loaded when the extractor does not
// report its own.
var DefaultExtensions = []string{".pdf", ".txt"}

// fileFilter is implemented by extractors that know which files they handle,
// such as *extract.Registry.
type fileFilter interface {
	Supports(name string) bool
}

// Pipeline loads a directory of circulars into a corpus snapshot.
type Pipeline struct {
	extractor     extract.TextExtractor
	supports      func(name string) bool
	embedder      ai.Embedder
	pool          *ants.Pool
	cache         storage.Cache
	textScope     string
	vectorScope   string
	dateExtractor *dates.Extractor
	batchSize     int
	maxAttempts   int
	baseDelay     time.Duration
	skipFailures  bool
	progress      io.Writer
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files extracted concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithCache enables the persistent text and vector cache. extractionMode
// and embeddingModel scope the entries so a configuration change misses.
func WithCache(cache storage.Cache, extractionMode, embeddingModel string) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		p.textScope = extractionMode
		p.vectorScope = embeddingModel
		return nil
	}
}

// WithDateExtractor sets the extractor used to date documents.
func WithDateExtractor(e *dates.Extractor) Option {
	return func(p *Pipeline) error {
		p.dateExtractor = e
		return nil
	}
}

// WithBatchSize sets how many documents go into one embedding request.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		p.batchSize = n
		return nil
	}
}

// WithRetry sets the embedding retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithSkipFailures logs and skips files whose text cannot be extracted
// instead of failing the whole load.
func WithSkipFailures(skip bool) Option {
	return func(p *Pipeline) error {
		p.skipFailures = skip
		return nil
	}
}

// WithProgress writes extraction and embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithExtensions restricts loading to files with the given extensions,
// overriding what the extractor reports.
func WithExtensions(exts ...string) Option {
	return func(p *Pipeline) error {
		p.supports = extensionFilter(exts)
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(extractor extract.TextExtractor, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if provider == nil || provider.Embedder() == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		extractor:   extractor,
		embedder:    provider.Embedder(),
		pool:        pool,
		batchSize:   corpus.DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}
	if f, ok := extractor.(fileFilter); ok {
		p.supports = f.Supports
	} else {
		p.supports = extensionFilter(DefaultExtensions)
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// ListDir returns the supported files directly inside dir, sorted by name.
// Hidden files and subdirectories are skipped.
func (p *Pipeline) ListDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !p.supports(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// LoadDir extracts the text of every supported file in dir. Files are
// extracted concurrently; the result is in filename order.
func (p *Pipeline) LoadDir(ctx context.Context, dir string) ([]core.RawDocument, error) {
	names, err := p.ListDir(dir)
	if err != nil {
		return nil, err
	}

	tracker := p.tracker("extracting", len(names))

	raws := make([]core.RawDocument, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			raws[i].Filename = name
			raws[i].Text, errs[i] = p.extractFile(ctx, filepath.Join(dir, name), name)
			if tracker != nil {
				tracker.Increment(1)
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()
	if tracker != nil {
		tracker.Finish()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]core.RawDocument, 0, len(raws))
	for i, raw := range raws {
		if errs[i] == nil {
			docs = append(docs, raw)
			continue
		}
		if !p.skipFailures {
			return nil, fmt.Errorf("%s: %w", names[i], errs[i])
		}
		p.logger.Warn("skipping document", "filename", names[i], "err", errs[i])
	}

	p.logger.Info("documents loaded", "dir", dir, "documents", len(docs), "skipped", len(names)-len(docs))
	return docs, nil
}

// extractFile reads and extracts one file, consulting the text cache.
func (p *Pipeline) extractFile(ctx context.Context, path, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	contentID := core.IDFromContent(string(data))
	if p.cache != nil {
		text, err := p.cache.GetText(ctx, p.textScope, contentID)
		if err == nil {
			p.logger.Debug("text cache hit", "filename", name)
			return text, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("text cache read failed", "filename", name, "err", err)
		}
	}

	text, err := p.extractor.ExtractText(ctx, name, data)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		if err := p.cache.PutText(ctx, p.textScope, contentID, text); err != nil {
			p.logger.Warn("text cache write failed", "filename", name, "err", err)
		}
	}
	return text, nil
}

// Embedder returns the retrying, cache-aware embedder used for documents.
func (p *Pipeline) Embedder() ai.Embedder {
	e := &retryingEmbedder{
		embedder:    p.embedder,
		model:       p.vectorScope,
		maxAttempts: p.maxAttempts,
		baseDelay:   p.baseDelay,
		logger:      p.logger,
	}
	if p.cache != nil {
		e.cache = p.cache
	}
	return e
}

// Build loads dir and builds a snapshot from it.
func (p *Pipeline) Build(ctx context.Context, dir string) (*corpus.Snapshot, error) {
	raws, err := p.LoadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no supported files in %s", core.ErrEmptyCorpus, dir)
	}
	return p.BuildDocuments(ctx, raws)
}

// BuildDocuments embeds already extracted documents into a snapshot.
func (p *Pipeline) BuildDocuments(ctx context.Context, raws []core.RawDocument) (*corpus.Snapshot, error) {
	opts := []corpus.Option{
		corpus.WithBatchSize(p.batchSize),
		corpus.WithLogger(p.logger),
	}
	if p.dateExtractor != nil {
		opts = append(opts, corpus.WithDateExtractor(p.dateExtractor))
	}

	tracker := p.tracker("embedding", len(raws))
	if tracker != nil {
		opts = append(opts, corpus.WithBatchCallback(func(done, _ int) {
			tracker.Update(done)
		}))
	}

	snap, err := corpus.Build(ctx, raws, p.Embedder(), opts...)
	if tracker != nil && err == nil {
		tracker.Finish()
	}
	return snap, err
}

func (p *Pipeline) tracker(label string, total int) *ProgressTracker {
	if p.progress == nil || total == 0 {
		return nil
	}
	t := NewProgressTracker(p.progress, label, total, max(total/20, 1))
	t.Start()
	return t
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func extensionFilter(exts []string) func(string) bool {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[strings.ToLower(filepath.Ext(name))]
		return ok
	}
}

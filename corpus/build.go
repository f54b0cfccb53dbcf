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

package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/dates"
)

// DefaultBatchSize is the number of texts sent per embedding request.
const DefaultBatchSize = 16

// ErrEmbedderRequired is returned when Build is called without an embedder.
var ErrEmbedderRequired = errors.New("embedder required")

type builder struct {
	extractor *dates.Extractor
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
	onBatch   func(done, total int)
}

// Option configures Build.
type Option func(*builder) error

// WithDateExtractor sets the extractor used to date documents.
func WithDateExtractor(e *dates.Extractor) Option {
	return func(b *builder) error {
		if e == nil {
			return errors.New("date extractor is nil")
		}
		b.extractor = e
		return nil
	}
}

// WithBatchSize sets how many texts go into one embedding request.
func WithBatchSize(n int) Option {
	return func(b *builder) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		b.batchSize = n
		return nil
	}
}

// WithLogger sets the logger used during the build.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithClock overrides the time source for Snapshot.BuiltAt.
func WithClock(now func() time.Time) Option {
	return func(b *builder) error {
		b.now = now
		return nil
	}
}

// WithBatchCallback registers fn to run after each embedding batch with the
// number of documents embedded so far.
func WithBatchCallback(fn func(done, total int)) Option {
	return func(b *builder) error {
		b.onBatch = fn
		return nil
	}
}

// Build dates and embeds raws and indexes the result. Document order, and
// therefore tie-breaking between equally similar documents, follows raws.
func Build(ctx context.Context, raws []core.RawDocument, embedder ai.Embedder, opts ...Option) (*Snapshot, error) {
	b := &builder{
		extractor: dates.Default(),
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	logger := b.logger.With("component", "corpus")

	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(raws) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	docs := make([]*core.Document, len(raws))
	texts := make([]string, len(raws))
	seen := make(map[core.ID]string, len(raws))
	for i := range raws {
		raw := &raws[i]
		if err := core.ValidateRawDocument(raw); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		id := core.DocumentID(raw.Filename, raw.Text)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s and %s", core.ErrDuplicateDocument, prev, raw.Filename)
		}
		seen[id] = raw.Filename

		date := b.extractor.Extract(raw.Text)
		if !date.Known() {
			logger.Debug("no date found", "filename", raw.Filename)
		}

		docs[i] = &core.Document{
			Id:       id,
			Filename: raw.Filename,
			Text:     raw.Text,
			Date:     date,
		}
		texts[i] = raw.Text
	}

	dimension := 0
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))

		vectors, err := embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding documents %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", core.ErrEmbeddingCount, end-start, len(vectors))
		}

		for j, vec := range vectors {
			doc := docs[start+j]
			if dimension == 0 {
				if len(vec) == 0 {
					return nil, fmt.Errorf("%w: %s: %w", core.ErrInvalidDocument, doc.Filename, core.ErrEmptyEmbedding)
				}
				dimension = len(vec)
			}
			doc.Vector = vec
			if err := core.ValidateDocument(doc, dimension); err != nil {
				return nil, err
			}
		}

		if b.onBatch != nil {
			b.onBatch(end, len(texts))
		}
	}

	snap, err := NewSnapshot(docs, b.now())
	if err != nil {
		return nil, err
	}

	logger.Info("corpus built", "documents", len(docs), "dimension", dimension)
	return snap, nil
}

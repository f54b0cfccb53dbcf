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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
)

// DefaultPoolSize is the number of nearest documents considered per query.
const DefaultPoolSize = 5

// Searcher answers queries against corpus snapshots.
// It holds no per-query state and is safe for concurrent use.
type Searcher struct {
	holder   *corpus.Holder
	embedder ai.Embedder
	answerer ai.AnswerExtractor
	poolSize int
	timeout  time.Duration
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets how many nearest documents are ranked per query.
// Default is DefaultPoolSize.
func WithPoolSize(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("pool size must be positive, got %d", k)
		}
		s.poolSize = k
		return nil
	}
}

// WithCapabilityTimeout bounds each embedding and answer call. Zero means
// only the caller's context applies.
func WithCapabilityTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d < 0 {
			return fmt.Errorf("capability timeout must not be negative, got %s", d)
		}
		s.timeout = d
		return nil
	}
}

// WithMonitor sets the monitor used when a query does not supply its own.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher reading snapshots from holder.
func NewSearcher(holder *corpus.Holder, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if holder == nil {
		return nil, ErrHolderRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		holder:   holder,
		embedder: provider.Embedder(),
		answerer: provider.AnswerExtractor(),
		poolSize: DefaultPoolSize,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Query handles req against the snapshot current at entry. A reload that
// lands mid-query does not affect it.
func (s *Searcher) Query(ctx context.Context, req core.QueryRequest) core.Outcome {
	return s.Handle(ctx, req, s.holder.Load())
}

// Handle answers req from snap.
func (s *Searcher) Handle(ctx context.Context, req core.QueryRequest, snap *corpus.Snapshot) core.Outcome {
	return s.HandleWithMonitor(ctx, req, snap, nil)
}

// HandleWithMonitor answers req from snap, reporting each stage to monitor.
// A nil monitor falls back to the Searcher's own.
func (s *Searcher) HandleWithMonitor(ctx context.Context, req core.QueryRequest, snap *corpus.Snapshot, monitor SearchMonitor) (outcome core.Outcome) {
	if monitor == nil {
		monitor = s.monitor
	}

	started := time.Now()
	monitor.Start(req.Text)
	defer func() {
		monitor.Finish(outcome, time.Since(started))
	}()

	if err := core.ValidateQueryRequest(req); err != nil {
		return core.Failed(err)
	}
	if snap == nil {
		return core.Failed(ErrNoSnapshot)
	}

	vector, err := s.embed(ctx, req.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		monitor.CapabilityFailed(CapabilityEmbed, err)
		return core.Failed(fmt.Errorf("%w: embedding query: %w", core.ErrCapability, err))
	}

	hits, err := snap.Index.Search(vector, s.poolSize)
	if err != nil {
		s.logger.Error("error searching index", "err", err)
		return core.Failed(fmt.Errorf("searching index: %w", err))
	}
	monitor.AfterSemanticSearch(hits)

	candidates, err := Rank(hits, snap.Lookup, req.UserDate)
	if err != nil {
		s.logger.Error("error ranking candidates", "err", err)
		return core.Failed(err)
	}
	monitor.AfterRanking(candidates)

	if req.UserDate != nil && len(candidates) == 0 {
		s.logger.Debug("no candidates for date", "date", req.UserDate.String())
		return core.NotFoundForDate()
	}

	decision := Decide(candidates, req.UserDate != nil)
	monitor.AfterDecision(decision)

	switch decision.Kind {
	case DecisionNotFound:
		return core.NotFound()
	case DecisionClarify:
		return core.NeedsClarification(decision.Dates)
	}

	selected := decision.Selected
	answer, err := s.answer(ctx, req.Text, selected.Document.Text)
	if err != nil {
		s.logger.Error("error extracting answer", "filename", selected.Document.Filename, "err", err)
		monitor.CapabilityFailed(CapabilityAnswer, err)
		return core.Failed(fmt.Errorf("%w: extracting answer: %w", core.ErrCapability, err))
	}

	return core.Answered(answer.Text, selected.Document.Filename, selected.Date)
}

func (s *Searcher) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := s.capabilityContext(ctx)
	defer cancel()
	return s.embedder.EmbedText(ctx, text)
}

func (s *Searcher) answer(ctx context.Context, question, passage string) (ai.Answer, error) {
	ctx, cancel := s.capabilityContext(ctx)
	defer cancel()

	answer, err := s.answerer.ExtractAnswer(ctx, question, passage)
	if err != nil {
		return ai.Answer{}, err
	}
	if answer.Text == "" {
		return ai.Answer{}, ai.ErrMalformedAnswer
	}
	return answer, nil
}

func (s *Searcher) capabilityContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

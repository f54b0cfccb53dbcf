package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/storage"
)

// retryingEmbedder wraps an ai.Embedder for ingestion: batches are retried
// with backoff and, when a cache is configured, vectors are reused across
// runs. Query-time embedding never goes through this type.
type retryingEmbedder struct {
	embedder    ai.Embedder
	cache       storage.VectorCache
	model       string
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

var _ ai.Embedder = (*retryingEmbedder)(nil)

// EmbedText embeds one text with retry.
func (e *retryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vec, err = e.embedder.EmbedText(ctx, text)
		return err
	}, e.maxAttempts, e.baseDelay)
	return vec, err
}

// EmbedTexts embeds texts, serving what it can from the cache and sending
// only the misses to the underlying embedder.
func (e *retryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ids := make([]core.ID, len(texts))
	for i, text := range texts {
		ids[i] = core.IDFromContent(text)
	}

	cached := e.lookup(ctx, ids)

	var missing []int
	for i, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, i)
		}
	}

	result := make([][]float32, len(texts))
	if len(missing) > 0 {
		batch := make([]string, len(missing))
		for j, i := range missing {
			batch[j] = texts[i]
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			vectors, err = e.embedder.EmbedTexts(ctx, batch)
			return err
		}, e.maxAttempts, e.baseDelay)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", core.ErrEmbeddingCount, len(batch), len(vectors))
		}

		fresh := make(map[core.ID][]float32, len(missing))
		for j, i := range missing {
			result[i] = vectors[j]
			fresh[ids[i]] = vectors[j]
		}
		e.store(ctx, fresh)
	}

	for i, id := range ids {
		if result[i] == nil {
			result[i] = cached[id]
		}
	}

	e.logger.Debug("embedded batch", "texts", len(texts), "cached", len(texts)-len(missing))
	return result, nil
}

// lookup treats any cache failure as a full miss.
func (e *retryingEmbedder) lookup(ctx context.Context, ids []core.ID) map[core.ID][]float32 {
	if e.cache == nil {
		return nil
	}
	found, err := e.cache.GetVectors(ctx, e.model, ids...)
	if err != nil {
		e.logger.Warn("vector cache read failed", "err", err)
		return nil
	}
	return found
}

func (e *retryingEmbedder) store(ctx context.Context, vectors map[core.ID][]float32) {
	if e.cache == nil || len(vectors) == 0 {
		return
	}
	if err := e.cache.PutVectors(ctx, e.model, vectors); err != nil {
		e.logger.Warn("vector cache write failed", "err", err)
	}
}

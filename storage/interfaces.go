package storage

import (
	"context"

	"github.com/poiesic/circulars/core"
)

// TextCache stores text extracted from document files. Entries are keyed by
// the content id of the file bytes and the extraction mode, so an edited or
// re-scanned file misses the cache.
type TextCache interface {
	// GetText returns the cached text. Returns ErrNotFound on a miss.
	GetText(ctx context.Context, mode string, contentID core.ID) (string, error)

	// PutText stores extracted text, replacing any previous entry.
	PutText(ctx context.Context, mode string, contentID core.ID, text string) error
}

// VectorCache stores document embeddings keyed by the embedding model and
// the content id of the embedded text.
type VectorCache interface {
	// GetVectors returns the vectors found for ids. Missing ids are absent
	// from the result; a miss is not an error.
	GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors in a single transaction.
	PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error
}

// Cache combines both caches behind one backend.
// Implementations must be safe for concurrent use.
type Cache interface {
	TextCache
	VectorCache

	// Stats counts the cached entries.
	Stats(ctx context.Context) (Stats, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Stats reports cache occupancy.
type Stats struct {
	Texts   int
	Vectors int
}

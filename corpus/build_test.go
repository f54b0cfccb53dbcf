package corpus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/circulars/ai/mock"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRaws() []core.RawDocument {
	return []core.RawDocument{
		{Filename: "a.pdf", Text: "Leave policy. Dated 10/01/2023"},
		{Filename: "b.pdf", Text: "Leave policy revised. Dated 01/06/2023"},
		{Filename: "c.pdf", Text: "Canteen menu, undated"},
	}
}

func TestBuild(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	snap, err := Build(context.Background(), testRaws(), embedder, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Store.Len())
	assert.Equal(t, 3, snap.Index.Len())
	assert.Equal(t, mock.DefaultDimension, snap.Dimension)
	assert.Equal(t, fixed, snap.BuiltAt)

	docs := snap.Store.Documents()
	assert.Equal(t, "a.pdf", docs[0].Filename)
	assert.Equal(t, "2023-01-10", docs[0].Date.String())
	assert.Equal(t, "2023-06-01", docs[1].Date.String())
	assert.False(t, docs[2].Date.Known())

	for _, doc := range docs {
		assert.Equal(t, core.DocumentID(doc.Filename, doc.Text), doc.Id)
		got, ok := snap.Lookup(doc.Id)
		require.True(t, ok)
		assert.Same(t, doc, got)
	}
}

func TestBuild_Batches(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var progress []int

	_, err := Build(context.Background(), testRaws(), embedder,
		WithBatchSize(2),
		WithBatchCallback(func(done, total int) {
			assert.Equal(t, 3, total)
			progress = append(progress, done)
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, []int{2, 3}, progress)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty corpus", func(t *testing.T) {
		_, err := Build(ctx, nil, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := Build(ctx, testRaws(), nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("blank filename", func(t *testing.T) {
		_, err := Build(ctx, []core.RawDocument{{Filename: " ", Text: "x"}}, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, core.ErrEmptyFilename)
	})

	t.Run("duplicate document", func(t *testing.T) {
		raws := append(testRaws(), testRaws()[0])
		_, err := Build(ctx, raws, mock.NewMockEmbedder())
		assert.ErrorIs(t, err, core.ErrDuplicateDocument)
	})

	t.Run("embedder failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, boom
		}
		_, err := Build(ctx, testRaws(), embedder)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("count mismatch", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 2}}, nil
		}
		_, err := Build(ctx, testRaws(), embedder)
		assert.ErrorIs(t, err, core.ErrEmbeddingCount)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = make([]float32, 3+i)
			}
			return out, nil
		}
		_, err := Build(ctx, testRaws(), embedder)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("empty vector", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return make([][]float32, len(texts)), nil
		}
		_, err := Build(ctx, testRaws(), embedder)
		assert.ErrorIs(t, err, core.ErrEmptyEmbedding)
	})

	t.Run("bad batch size", func(t *testing.T) {
		_, err := Build(ctx, testRaws(), mock.NewMockEmbedder(), WithBatchSize(0))
		assert.Error(t, err)
	})
}

func TestBuild_CustomDateExtractor(t *testing.T) {
	extractor, err := dates.NewExtractor(
		dates.WithPatterns(`\d{4}-\d{2}-\d{2}`),
		dates.WithLayouts(core.ISODateLayout),
	)
	require.NoError(t, err)

	raws := []core.RawDocument{{Filename: "iso.txt", Text: "effective 2024-02-29, supersedes 10/01/2023"}}
	snap, err := Build(context.Background(), raws, mock.NewMockEmbedder(), WithDateExtractor(extractor))
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", snap.Store.Documents()[0].Date.String())
}

package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/circulars/ai/mock"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
	"github.com/stretchr/testify/require"
)

// fixtureDoc is a document whose text embeds to a fixed vector.
type fixtureDoc struct {
	filename string
	text     string
	vector   []float32
}

type fixture struct {
	holder    *corpus.Holder
	snap      *corpus.Snapshot
	embedder  *mock.MockEmbedder
	extractor *mock.MockAnswerExtractor
	searcher  *Searcher
}

// vectorEmbedder returns an embedder that maps known texts to fixed vectors.
func vectorEmbedder(vectors map[string][]float32) *mock.MockEmbedder {
	lookup := func(text string) ([]float32, error) {
		v, ok := vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		return v, nil
	}

	e := mock.NewMockEmbedder()
	e.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return lookup(text)
	}
	e.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			v, err := lookup(text)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return e
}

func newFixture(t *testing.T, docs []fixtureDoc, queries map[string][]float32, opts ...Option) *fixture {
	t.Helper()

	vectors := make(map[string][]float32, len(docs)+len(queries))
	raws := make([]core.RawDocument, len(docs))
	for i, d := range docs {
		vectors[d.text] = d.vector
		raws[i] = core.RawDocument{Filename: d.filename, Text: d.text}
	}
	for q, v := range queries {
		vectors[q] = v
	}

	embedder := vectorEmbedder(vectors)
	extractor := mock.NewMockAnswerExtractor()

	snap, err := corpus.Build(context.Background(), raws, embedder)
	require.NoError(t, err)
	holder := corpus.NewHolder(snap)

	searcher, err := NewSearcher(holder, mock.NewMockProviderWithServices(embedder, extractor), opts...)
	require.NoError(t, err)

	return &fixture{
		holder:    holder,
		snap:      snap,
		embedder:  embedder,
		extractor: extractor,
		searcher:  searcher,
	}
}

// leavePolicyDocs is a corpus with two revisions of the same circular and an
// unrelated, more recent notice.
func leavePolicyDocs() []fixtureDoc {
	return []fixtureDoc{
		{"leave-jan.pdf", "Casual leave is 8 days. Dated 10/01/2023", []float32{1, 0, 0}},
		{"leave-jun.pdf", "Casual leave is 10 days. Dated 01/06/2023", []float32{0.9, 0.1, 0}},
	}
}

var leaveQueries = map[string][]float32{
	"leave policy": {1, 0, 0},
}

func mustRequest(t *testing.T, text, date string) core.QueryRequest {
	t.Helper()
	req, err := core.NewQueryRequest(text, date)
	require.NoError(t, err)
	return req
}

package circulars

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/ai/mock"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/extract"
	"github.com/poiesic/circulars/metrics"
	"github.com/poiesic/circulars/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "leave-jan.txt", "Casual leave is 8 days. Dated 10/01/2023")
	writeFile(t, dir, "leave-jun.txt", "Casual leave is 10 days. Dated 01/06/2023")

	base := []ServiceOption{
		WithProvider(mock.NewMockProvider()),
		WithExtractor(extract.PlainText{}),
	}
	svc, err := NewService(dir, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, dir
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService("")
	assert.ErrorIs(t, err, ErrCorpusDirRequired)

	_, err = NewService(t.TempDir(), WithExtractionMode(extract.Mode("bogus")))
	assert.ErrorIs(t, err, extract.ErrUnknownMode)

	_, err = NewService(t.TempDir(), WithSearchOptions(search.WithPoolSize(0)))
	assert.Error(t, err)
}

func TestNewService_DefaultProviderAndCache(t *testing.T) {
	svc, err := NewService(t.TempDir(),
		WithAIConfig(ai.NewConfig(ai.WithHost("http://127.0.0.1:1"))),
		WithExtractionMode(extract.ModeText),
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
	)
	require.NoError(t, err)
	assert.NotNil(t, svc.Cache())
	assert.NotNil(t, svc.Pipeline())
	assert.Nil(t, svc.Snapshot())
	assert.Nil(t, svc.Documents())
	require.NoError(t, svc.Close())
}

func TestService_QueryBeforeLoad(t *testing.T) {
	svc, _ := newTestService(t)

	outcome := svc.Ask(context.Background(), "casual leave", "")
	assert.Equal(t, core.OutcomeFailed, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, search.ErrNoSnapshot)
}

func TestService_Ask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))
	require.Len(t, svc.Documents(), 2)

	t.Run("ambiguous dates", func(t *testing.T) {
		outcome := svc.Ask(ctx, "casual leave", "")
		require.Equal(t, core.OutcomeNeedsClarification, outcome.Kind)
		assert.Equal(t, []string{"2023-06-01", "2023-01-10"}, outcome.DateStrings())
	})

	t.Run("pinned date", func(t *testing.T) {
		outcome := svc.Ask(ctx, "casual leave", "2023-01-10")
		require.Equal(t, core.OutcomeAnswered, outcome.Kind)
		assert.Equal(t, "Casual leave is 8 days", outcome.Answer)
		assert.Equal(t, "leave-jan.txt", outcome.Filename)
		assert.Equal(t, "2023-01-10", outcome.Date.String())
	})

	t.Run("no match for date", func(t *testing.T) {
		outcome := svc.Ask(ctx, "casual leave", "2022-12-31")
		assert.Equal(t, core.OutcomeNotFound, outcome.Kind)
		assert.True(t, outcome.ForDate)
	})

	t.Run("malformed date", func(t *testing.T) {
		outcome := svc.Ask(ctx, "casual leave", "10/01/2023")
		assert.Equal(t, core.OutcomeFailed, outcome.Kind)
		assert.ErrorIs(t, outcome.Err, core.ErrInvalidQuery)
		assert.ErrorIs(t, outcome.Err, core.ErrMalformedDate)
	})

	t.Run("blank query", func(t *testing.T) {
		outcome := svc.Ask(ctx, "   ", "")
		assert.ErrorIs(t, outcome.Err, core.ErrEmptyQuery)
	})
}

func TestService_Reload(t *testing.T) {
	recorder := metrics.NewRecorder(metrics.WithoutRuntimeCollectors())
	svc, dir := newTestService(t, WithRecorder(recorder))
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx))
	first := svc.Snapshot()

	writeFile(t, dir, "holidays.txt", "Holiday list. Dated March 3, 2023")
	require.NoError(t, svc.Reload(ctx))
	second := svc.Snapshot()
	assert.NotSame(t, first, second)
	assert.Len(t, svc.Documents(), 3)
	assert.Equal(t, 2, first.Store.Len(), "old snapshot is untouched")

	// An unreadable corpus keeps the current snapshot in service.
	for _, name := range []string{"leave-jan.txt", "leave-jun.txt", "holidays.txt"} {
		require.NoError(t, os.Remove(filepath.Join(dir, name)))
	}
	err := svc.Reload(ctx)
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	assert.Same(t, second, svc.Snapshot())

	outcome := svc.Ask(ctx, "casual leave", "2023-06-01")
	assert.Equal(t, core.OutcomeAnswered, outcome.Kind)
	assert.Same(t, recorder, svc.Recorder())
}

func TestService_Close(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	svc, _ := newTestService(t, WithProvider(provider))
	assert.NoError(t, svc.Close())
	assert.Zero(t, provider.CloseCount(), "injected provider belongs to the caller")
}

func TestService_GenerateQA(t *testing.T) {
	ctx := context.Background()
	text := "casual leave is 8 days.\n\nOffices close at noon."

	t.Run("questions answered from the text", func(t *testing.T) {
		svc, _ := newTestService(t)
		pairs, err := svc.GenerateQA(ctx, text)
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "What about casual leave is 8 days?", pairs[0].Question)
		assert.Equal(t, "Casual leave is 8 days", pairs[0].Answer, "answers are capitalized")
		assert.Equal(t, "What about Offices close at noon?", pairs[1].Question)
	})

	t.Run("blank text", func(t *testing.T) {
		provider := mock.NewMockProvider().(*mock.MockProvider)
		svc, _ := newTestService(t, WithProvider(provider))
		_, err := svc.GenerateQA(ctx, " \n\t")
		assert.ErrorIs(t, err, core.ErrNoContext)
		assert.Zero(t, provider.GetMockQuestionGenerator().CallCount())
	})

	t.Run("question limit", func(t *testing.T) {
		svc, _ := newTestService(t, WithMaxQuestions(1))
		pairs, err := svc.GenerateQA(ctx, text)
		require.NoError(t, err)
		assert.Len(t, pairs, 1)
	})

	t.Run("unanswerable question", func(t *testing.T) {
		provider := mock.NewMockProvider().(*mock.MockProvider)
		provider.GetMockExtractor().ExtractAnswerFunc = func(context.Context, string, string) (ai.Answer, error) {
			return ai.Answer{}, ai.ErrMalformedAnswer
		}
		svc, _ := newTestService(t, WithProvider(provider))
		pairs, err := svc.GenerateQA(ctx, text)
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "No answer found", pairs[0].Answer)
	})

	t.Run("capability failure", func(t *testing.T) {
		provider := mock.NewMockProvider().(*mock.MockProvider)
		provider.GetMockQuestionGenerator().GenerateQuestionsFunc = func(context.Context, string, int) ([]string, error) {
			return nil, errors.New("model offline")
		}
		svc, _ := newTestService(t, WithProvider(provider))
		_, err := svc.GenerateQA(ctx, text)
		assert.ErrorIs(t, err, core.ErrCapability)
	})
}

func TestService_CorpusTextAndExtract(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	assert.Empty(t, svc.CorpusText())

	require.NoError(t, svc.Load(ctx))
	assert.Equal(t,
		"Casual leave is 8 days. Dated 10/01/2023\nCasual leave is 10 days. Dated 01/06/2023",
		svc.CorpusText())

	text, err := svc.ExtractText(ctx, "notice.txt", []byte("Offices close at noon."))
	require.NoError(t, err)
	assert.Equal(t, "Offices close at noon.", text)
}

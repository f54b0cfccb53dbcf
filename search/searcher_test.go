package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/circulars/ai"
	"github.com/poiesic/circulars/ai/mock"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher(t *testing.T) {
	holder := corpus.NewHolder(nil)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(holder, provider)
		require.NoError(t, err)
		assert.Equal(t, DefaultPoolSize, searcher.poolSize)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(holder, provider, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(holder, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(holder, provider, WithPoolSize(0))
		assert.Error(t, err)

		_, err = NewSearcher(holder, provider, WithCapabilityTimeout(-time.Second))
		assert.Error(t, err)
	})

	t.Run("nil holder", func(t *testing.T) {
		_, err := NewSearcher(nil, provider)
		assert.Equal(t, ErrHolderRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(holder, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestQuery_MultipleDatesNeedClarification(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)

	out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", ""))

	require.Equal(t, core.OutcomeNeedsClarification, out.Kind)
	assert.Equal(t, []string{"2023-06-01", "2023-01-10"}, out.DateStrings())
	assert.Equal(t, 0, f.extractor.CallCount(), "no answer is extracted while ambiguous")
}

func TestQuery_WithDateAnswers(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)

	out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", "2023-01-10"))

	require.Equal(t, core.OutcomeAnswered, out.Kind, out.Reason())
	assert.Equal(t, "leave-jan.pdf", out.Filename)
	assert.Equal(t, "2023-01-10", out.Date.String())
	assert.Equal(t, "Casual leave is 8 days", out.Answer)
	assert.Equal(t, []string{"Casual leave is 8 days. Dated 10/01/2023"}, f.extractor.Contexts())
}

func TestQuery_DateWithNoDocument(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)

	out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", "2099-01-01"))

	assert.Equal(t, core.OutcomeNotFound, out.Kind)
	assert.True(t, out.ForDate)
	assert.Equal(t, 0, f.extractor.CallCount())
}

func TestQuery_SingleDocumentNeverAmbiguous(t *testing.T) {
	docs := []fixtureDoc{{"only.pdf", "Library closes at 8pm. March 3, 2021", []float32{0, 1}}}
	f := newFixture(t, docs, map[string][]float32{
		"library hours":  {0, 1},
		"something else": {5, 5},
	})

	for _, q := range []string{"library hours", "something else"} {
		out := f.searcher.Query(context.Background(), mustRequest(t, q, ""))
		require.Equal(t, core.OutcomeAnswered, out.Kind, out.Reason())
		assert.Equal(t, "only.pdf", out.Filename)
		assert.Equal(t, "2021-03-03", out.Date.String())
	}
}

func TestQuery_EmptyQueryRejectedBeforeCapabilities(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)
	embedCalls := f.embedder.CallCount()

	for _, text := range []string{"", "   ", "\n\t"} {
		out := f.searcher.Query(context.Background(), core.QueryRequest{Text: text})

		require.Equal(t, core.OutcomeFailed, out.Kind)
		assert.ErrorIs(t, out.Err, core.ErrInvalidQuery)
		assert.ErrorIs(t, out.Err, core.ErrEmptyQuery)
	}
	assert.Equal(t, embedCalls, f.embedder.CallCount())
	assert.Equal(t, 0, f.extractor.CallCount())
}

func TestQuery_UndatedDocuments(t *testing.T) {
	docs := []fixtureDoc{
		{"a.txt", "Hostel rules apply", []float32{1, 0}},
		{"b.txt", "Hostel rules are strict", []float32{0, 1}},
	}
	f := newFixture(t, docs, map[string][]float32{"hostel rules": {1, 0.2}})

	out := f.searcher.Query(context.Background(), mustRequest(t, "hostel rules", ""))

	// both undated: one distinct date, nearest document wins
	require.Equal(t, core.OutcomeAnswered, out.Kind, out.Reason())
	assert.Equal(t, "a.txt", out.Filename)
	assert.False(t, out.Date.Known())
	assert.Equal(t, "0001-01-01", out.Date.String())
}

func TestQuery_PoolSizeLimitsCandidates(t *testing.T) {
	docs := []fixtureDoc{
		{"near.pdf", "Exam schedule. 01/03/2023", []float32{0, 0}},
		{"mid.pdf", "Exam schedule. 01/04/2023", []float32{1, 0}},
		{"far.pdf", "Exam schedule. 01/05/2023", []float32{10, 0}},
	}
	f := newFixture(t, docs, map[string][]float32{"exam": {0, 0}}, WithPoolSize(2))

	out := f.searcher.Query(context.Background(), mustRequest(t, "exam", ""))

	require.Equal(t, core.OutcomeNeedsClarification, out.Kind)
	assert.Equal(t, []string{"2023-04-01", "2023-03-01"}, out.DateStrings())
}

func TestQuery_CapabilityFailures(t *testing.T) {
	boom := errors.New("model server unavailable")

	t.Run("embedding fails", func(t *testing.T) {
		f := newFixture(t, leavePolicyDocs(), leaveQueries)
		f.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, boom
		}

		out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", ""))

		require.Equal(t, core.OutcomeFailed, out.Kind)
		assert.ErrorIs(t, out.Err, core.ErrCapability)
		assert.ErrorIs(t, out.Err, boom)
	})

	t.Run("answer fails", func(t *testing.T) {
		f := newFixture(t, leavePolicyDocs(), leaveQueries)
		f.extractor.ExtractAnswerFunc = func(context.Context, string, string) (ai.Answer, error) {
			return ai.Answer{}, boom
		}

		out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", "2023-06-01"))

		require.Equal(t, core.OutcomeFailed, out.Kind)
		assert.ErrorIs(t, out.Err, core.ErrCapability)
		assert.ErrorIs(t, out.Err, boom)
		assert.Equal(t, 1, f.extractor.CallCount(), "capabilities are not retried")
	})

	t.Run("empty answer", func(t *testing.T) {
		f := newFixture(t, leavePolicyDocs(), leaveQueries)
		f.extractor.ExtractAnswerFunc = func(context.Context, string, string) (ai.Answer, error) {
			return ai.Answer{}, nil
		}

		out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", "2023-06-01"))

		require.Equal(t, core.OutcomeFailed, out.Kind)
		assert.ErrorIs(t, out.Err, ai.ErrMalformedAnswer)
	})

	t.Run("query dimension differs from corpus", func(t *testing.T) {
		f := newFixture(t, leavePolicyDocs(), map[string][]float32{"leave policy": {1, 0}})

		out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", ""))

		require.Equal(t, core.OutcomeFailed, out.Kind)
		assert.ErrorIs(t, out.Err, core.ErrDimensionMismatch)
	})
}

func TestQuery_CapabilityTimeout(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries, WithCapabilityTimeout(10*time.Millisecond))
	f.embedder.EmbedTextFunc = func(ctx context.Context, _ string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	out := f.searcher.Query(context.Background(), mustRequest(t, "leave policy", ""))

	require.Equal(t, core.OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, core.ErrCapability)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestQuery_NoSnapshot(t *testing.T) {
	searcher, err := NewSearcher(corpus.NewHolder(nil), mock.NewMockProvider())
	require.NoError(t, err)

	out := searcher.Query(context.Background(), mustRequest(t, "anything", ""))

	require.Equal(t, core.OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrNoSnapshot)
}

func TestQuery_Idempotent(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)
	req := mustRequest(t, "leave policy", "2023-06-01")

	first := f.searcher.Query(context.Background(), req)
	for i := 0; i < 5; i++ {
		again := f.searcher.Query(context.Background(), req)
		assert.Equal(t, first.Kind, again.Kind)
		assert.Equal(t, first.Filename, again.Filename)
		assert.Equal(t, first.Answer, again.Answer)
	}
}

func TestQuery_ConcurrentWithReload(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)
	req := mustRequest(t, "leave policy", "2023-06-01")

	var wg sync.WaitGroup
	outcomes := make([]core.Outcome, 32)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.searcher.Query(context.Background(), req)
		}(i)
	}
	// republishing the same corpus mid-flight must not disturb queries
	for i := 0; i < 4; i++ {
		_, err := f.holder.Swap(f.snap)
		require.NoError(t, err)
	}
	wg.Wait()

	for _, out := range outcomes {
		require.Equal(t, core.OutcomeAnswered, out.Kind, out.Reason())
		assert.Equal(t, "leave-jun.pdf", out.Filename)
	}
}

func TestHandle_UsesGivenSnapshot(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)
	captured := f.holder.Load()

	other := newFixture(t, []fixtureDoc{{"other.pdf", "Other circular 05/05/2020", []float32{1, 0, 0}}}, nil)
	_, err := f.holder.Swap(other.snap)
	require.NoError(t, err)

	out := f.searcher.Handle(context.Background(), mustRequest(t, "leave policy", "2023-01-10"), captured)
	require.Equal(t, core.OutcomeAnswered, out.Kind, out.Reason())
	assert.Equal(t, "leave-jan.pdf", out.Filename)
}

// recordingMonitor counts hook calls.
type recordingMonitor struct {
	mu       sync.Mutex
	starts   int
	hits     int
	ranked   int
	decision Decision
	failed   []string
	outcome  core.Outcome
}

func (m *recordingMonitor) Start(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
}

func (m *recordingMonitor) AfterSemanticSearch(hits []core.Hit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = len(hits)
}

func (m *recordingMonitor) AfterRanking(c []core.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranked = len(c)
}

func (m *recordingMonitor) AfterDecision(d Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decision = d
}

func (m *recordingMonitor) CapabilityFailed(capability string, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, capability)
}

func (m *recordingMonitor) Finish(o core.Outcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcome = o
}

func TestHandleWithMonitor(t *testing.T) {
	f := newFixture(t, leavePolicyDocs(), leaveQueries)
	monitor := &recordingMonitor{}

	out := f.searcher.HandleWithMonitor(context.Background(), mustRequest(t, "leave policy", ""), f.snap, monitor)

	assert.Equal(t, 1, monitor.starts)
	assert.Equal(t, 2, monitor.hits)
	assert.Equal(t, 2, monitor.ranked)
	assert.Equal(t, DecisionClarify, monitor.decision.Kind)
	assert.Equal(t, out.Kind, monitor.outcome.Kind)
	assert.Empty(t, monitor.failed)

	f.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("down")
	}
	f.searcher.HandleWithMonitor(context.Background(), mustRequest(t, "leave policy", ""), f.snap, monitor)
	assert.Equal(t, []string{CapabilityEmbed}, monitor.failed)
	assert.Equal(t, core.OutcomeFailed, monitor.outcome.Kind)
}

func TestWithMonitor_DefaultForQuery(t *testing.T) {
	monitor := &recordingMonitor{}
	f := newFixture(t, leavePolicyDocs(), leaveQueries, WithMonitor(monitor))

	f.searcher.Query(context.Background(), core.QueryRequest{Text: ""})

	assert.Equal(t, 1, monitor.starts)
	assert.Equal(t, core.OutcomeFailed, monitor.outcome.Kind)
}

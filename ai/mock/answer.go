package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/circulars/ai"
)

// MockAnswerExtractor is a test double for ai.AnswerExtractor.
// It allows custom behavior injection via function fields.
type MockAnswerExtractor struct {
	// ExtractAnswerFunc is called by ExtractAnswer if set.
	// If nil, the first sentence of the passage is returned.
	ExtractAnswerFunc func(ctx context.Context, question, passage string) (ai.Answer, error)

	mu        sync.Mutex
	callCount int
	contexts  []string
}

// NewMockAnswerExtractor creates a mock answer extractor with default behavior.
func NewMockAnswerExtractor() *MockAnswerExtractor {
	return &MockAnswerExtractor{}
}

// ExtractAnswer records the call and returns a canned answer.
func (m *MockAnswerExtractor) ExtractAnswer(ctx context.Context, question, passage string) (ai.Answer, error) {
	m.mu.Lock()
	m.callCount++
	m.contexts = append(m.contexts, passage)
	fn := m.ExtractAnswerFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, question, passage)
	}

	text := strings.TrimSpace(passage)
	if i := strings.IndexAny(text, ".\n"); i > 0 {
		text = text[:i]
	}
	if text == "" {
		return ai.Answer{}, ai.ErrMalformedAnswer
	}
	return ai.Answer{Text: text, Score: 1}, nil
}

// CallCount returns the number of times ExtractAnswer was called.
func (m *MockAnswerExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Contexts returns the contexts passed to ExtractAnswer, in call order.
func (m *MockAnswerExtractor) Contexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.contexts...)
}

// Reset clears the call count, recorded contexts and custom functions.
func (m *MockAnswerExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.contexts = nil
	m.ExtractAnswerFunc = nil
}

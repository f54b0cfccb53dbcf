package mock

import (
	"context"
	"strings"
	"sync"
)

// MockQuestionGenerator is a test double for ai.QuestionGenerator. By
// default it turns each sentence of the text into "What about <sentence>?".
type MockQuestionGenerator struct {
	// GenerateQuestionsFunc replaces the default behavior when set.
	GenerateQuestionsFunc func(ctx context.Context, text string, limit int) ([]string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockQuestionGenerator creates a mock question generator.
func NewMockQuestionGenerator() *MockQuestionGenerator {
	return &MockQuestionGenerator{}
}

func (m *MockQuestionGenerator) GenerateQuestions(ctx context.Context, text string, limit int) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.GenerateQuestionsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, limit)
	}

	var questions []string
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' }) {
		if len(questions) >= limit {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		questions = append(questions, "What about "+sentence+"?")
	}
	return questions, nil
}

// CallCount returns the number of GenerateQuestions calls.
func (m *MockQuestionGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

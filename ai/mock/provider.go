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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/circulars/ai"
)

// MockProvider bundles the mock services behind ai.AIProvider and records
// how often it was closed.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockAnswerExtractor
	questions *MockQuestionGenerator
	closes    atomic.Int32

	// CloseErr, when set, is returned from every Close call.
	CloseErr error
}

// NewMockProvider returns a provider with default mock services: a
// deterministic DefaultDimension embedder and a first-sentence extractor.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockAnswerExtractor())
}

// NewMockProviderWithServices wires caller-configured mocks. Tests keep the
// concrete mocks to inject funcs and read call counts.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockAnswerExtractor) ai.AIProvider {
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
		questions: NewMockQuestionGenerator(),
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) AnswerExtractor() ai.AnswerExtractor {
	return p.extractor
}

func (p *MockProvider) QuestionGenerator() ai.QuestionGenerator {
	return p.questions
}

// Close counts the call and returns CloseErr.
func (p *MockProvider) Close() error {
	p.closes.Add(1)
	return p.CloseErr
}

// CloseCount reports how many times Close was called.
func (p *MockProvider) CloseCount() int {
	return int(p.closes.Load())
}

// GetMockEmbedder returns the concrete embedder.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the concrete answer extractor.
func (p *MockProvider) GetMockExtractor() *MockAnswerExtractor {
	return p.extractor
}

// GetMockQuestionGenerator returns the concrete question generator.
func (p *MockProvider) GetMockQuestionGenerator() *MockQuestionGenerator {
	return p.questions
}

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

package openai

import (
	"log/slog"

	"github.com/poiesic/circulars/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider serves embeddings and answer extraction from OpenAI-compatible
// endpoints. The two services may point at different hosts.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	extractor *AnswerExtractor
	questions *QuestionGenerator
	logger    *slog.Logger
}

var (
	_ ai.AIProvider = (*Provider)(nil)
	_ ai.ModelNamer = (*Provider)(nil)
)

// NewProvider validates config and builds both services. Client options
// such as openai.WithHTTPClient apply to each of them.
//
// The result is an ai.AIProvider so callers do not depend on this package's
// concrete types.
func NewProvider(config *ai.Config, opts ...openai.Option) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config, opts...)
	if err != nil {
		return nil, err
	}
	extractor, err := newAnswerExtractor(config, opts...)
	if err != nil {
		return nil, err
	}
	questions, err := newQuestionGenerator(config, opts...)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embedding_host", config.EmbeddingHost,
		"embedding_model", config.EmbeddingModel,
		"answer_host", config.AnswerHost,
		"answer_model", config.AnswerModel)

	return &Provider{
		config:    config,
		embedder:  embedder,
		extractor: extractor,
		questions: questions,
		logger:    logger,
	}, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) AnswerExtractor() ai.AnswerExtractor {
	return p.extractor
}

func (p *Provider) QuestionGenerator() ai.QuestionGenerator {
	return p.questions
}

// EmbeddingModel names the model vectors come from.
func (p *Provider) EmbeddingModel() string {
	return p.config.EmbeddingModel
}

// Close is a no-op; the langchaingo clients hold no resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	return nil
}

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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/circulars/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// parseAttempts bounds model calls per request: the first try and one re-ask
// after an unparseable reply.
const parseAttempts = 2

// AnswerExtractor implements ai.AnswerExtractor using OpenAI-compatible chat APIs.
type AnswerExtractor struct {
	client          llms.Model
	maxContextChars int
	logger          *slog.Logger
}

// answerResponse is the JSON object the model is asked to produce.
type answerResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// newAnswerExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerExtractor(config *ai.Config, opts ...openai.Option) (*AnswerExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientOpts := append([]openai.Option{
		openai.WithBaseURL(config.AnswerHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.AnswerModel),
	}, opts...)
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, err
	}

	return &AnswerExtractor{
		client:          client,
		maxContextChars: config.MaxContextChars,
		logger:          slog.Default().With("component", "openai-answer"),
	}, nil
}

// NewAnswerExtractor creates a new answer extractor using the provided configuration.
//
// Returns ai.AnswerExtractor interface to enforce abstraction.
func NewAnswerExtractor(config *ai.Config, opts ...openai.Option) (ai.AnswerExtractor, error) {
	return newAnswerExtractor(config, opts...)
}

// ExtractAnswer asks the model for the span of passage that answers question.
// An unparseable response is re-asked once; transport errors are not retried.
func (e *AnswerExtractor) ExtractAnswer(ctx context.Context, question, passage string) (ai.Answer, error) {
	passage = truncateRunes(normalizeWhitespace(passage), e.maxContextChars)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, answerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildAnswerPrompt(question, passage)),
	}

	var result answerResponse
	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.Answer{}, err
		}
		if len(response.Choices) < 1 {
			return ai.Answer{}, fmt.Errorf("%w: no choices returned", ai.ErrMalformedAnswer)
		}

		responseText := cleanResponse(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing answer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return ai.Answer{}, fmt.Errorf("%w: %w", ai.ErrMalformedAnswer, lastErr)
	}

	answer := strings.TrimSpace(result.Answer)
	if answer == "" {
		return ai.Answer{}, fmt.Errorf("%w: empty answer", ai.ErrMalformedAnswer)
	}

	e.logger.Debug("extracted answer", "length", len(answer), "score", result.Score)
	return ai.Answer{Text: answer, Score: result.Score}, nil
}

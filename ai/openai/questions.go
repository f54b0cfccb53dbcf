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

// questionChunkChars is the size of the passage each question is written from.
const questionChunkChars = 512

// QuestionGenerator implements ai.QuestionGenerator on the answer model. The
// text is wrapped into chunks and one question is asked per chunk, in order.
type QuestionGenerator struct {
	client llms.Model
	logger *slog.Logger
}

type questionResponse struct {
	Question string `json:"question"`
}

func newQuestionGenerator(config *ai.Config, opts ...openai.Option) (*QuestionGenerator, error) {
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

	return &QuestionGenerator{
		client: client,
		logger: slog.Default().With("component", "openai-questions"),
	}, nil
}

// NewQuestionGenerator creates a question generator using the answer host
// and model from config.
func NewQuestionGenerator(config *ai.Config, opts ...openai.Option) (ai.QuestionGenerator, error) {
	return newQuestionGenerator(config, opts...)
}

// GenerateQuestions writes one question for each of the first limit
// chunks of text.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, text string, limit int) ([]string, error) {
	chunks := wrapWords(text, questionChunkChars)
	if limit < 0 {
		limit = 0
	}
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}

	questions := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := g.generate(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	g.logger.Debug("generated questions", "count", len(questions))
	return questions, nil
}

func (g *QuestionGenerator) generate(ctx context.Context, chunk string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, questionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildQuestionPrompt(chunk)),
	}

	var lastErr error
	for attempt := 0; attempt < parseAttempts; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return "", err
		}
		if len(response.Choices) < 1 {
			return "", fmt.Errorf("%w: no choices returned", ai.ErrMalformedQuestion)
		}

		responseText := cleanResponse(response.Choices[0].Content)
		var result questionResponse
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			g.logger.Warn("error parsing question response", "attempt", attempt+1, "response", responseText, "err", err)
			continue
		}
		q := strings.TrimSpace(result.Question)
		if q == "" {
			return "", fmt.Errorf("%w: empty question", ai.ErrMalformedQuestion)
		}
		return q, nil
	}
	return "", fmt.Errorf("%w: %w", ai.ErrMalformedQuestion, lastErr)
}

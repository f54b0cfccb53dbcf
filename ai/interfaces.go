package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Used on the query path.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerExtractor pulls a short answer for a question out of a single
// document's text. Implementations must be thread-safe for concurrent use.
type AnswerExtractor interface {
	// ExtractAnswer returns the span of passage that best answers question.
	// An answer with empty Text is reported as ErrMalformedAnswer.
	ExtractAnswer(ctx context.Context, question, passage string) (Answer, error)
}

// QuestionGenerator writes questions a passage can answer.
// Implementations must be thread-safe for concurrent use.
type QuestionGenerator interface {
	// GenerateQuestions returns at most limit questions about text, in
	// passage order. Text too short to ask about yields no questions.
	GenerateQuestions(ctx context.Context, text string, limit int) ([]string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and AnswerExtractor instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// AnswerExtractor returns the answer extraction service.
	// The returned AnswerExtractor is safe for concurrent use.
	AnswerExtractor() AnswerExtractor

	// QuestionGenerator returns the question generation service.
	QuestionGenerator() QuestionGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// ModelNamer is implemented by providers that can name the embedding model
// behind their Embedder. Cached vectors are keyed by this name.
type ModelNamer interface {
	EmbeddingModel() string
}

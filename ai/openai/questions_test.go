package openai

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/circulars/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionGenerator_OnePerChunk(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, []string{
		`{"question": "When is the library closed?"}`,
		"```json\n{question\": \"Who approved the holiday?\"}\n```",
	}, &calls)
	defer srv.Close()

	gen, err := NewQuestionGenerator(testConfig(srv.URL))
	require.NoError(t, err)

	text := strings.Repeat("library closed on Monday ", 30) // two chunks
	questions, err := gen.GenerateQuestions(context.Background(), text, 16)
	require.NoError(t, err)
	assert.Equal(t, []string{"When is the library closed?", "Who approved the holiday?"}, questions)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuestionGenerator_Limit(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, []string{`{"question": "Q?"}`}, &calls)
	defer srv.Close()

	gen, err := NewQuestionGenerator(testConfig(srv.URL))
	require.NoError(t, err)

	text := strings.Repeat("word ", 2000)
	questions, err := gen.GenerateQuestions(context.Background(), text, 3)
	require.NoError(t, err)
	assert.Len(t, questions, 3)
	assert.Equal(t, int32(3), calls.Load())

	questions, err = gen.GenerateQuestions(context.Background(), "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestQuestionGenerator_Malformed(t *testing.T) {
	t.Run("never parses", func(t *testing.T) {
		var calls atomic.Int32
		srv := fakeServer(t, []string{"nope"}, &calls)
		defer srv.Close()

		gen, err := NewQuestionGenerator(testConfig(srv.URL))
		require.NoError(t, err)

		_, err = gen.GenerateQuestions(context.Background(), "The office is closed.", 16)
		assert.ErrorIs(t, err, ai.ErrMalformedQuestion)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("empty question", func(t *testing.T) {
		var calls atomic.Int32
		srv := fakeServer(t, []string{`{"question": ""}`}, &calls)
		defer srv.Close()

		gen, err := NewQuestionGenerator(testConfig(srv.URL))
		require.NoError(t, err)

		_, err = gen.GenerateQuestions(context.Background(), "The office is closed.", 16)
		assert.ErrorIs(t, err, ai.ErrMalformedQuestion)
	})
}

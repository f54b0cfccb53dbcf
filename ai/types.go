package ai

import "errors"

// ErrMalformedAnswer is returned when the answer service responds with
// something that cannot be read as an answer.
var ErrMalformedAnswer = errors.New("malformed answer")

// ErrMalformedQuestion is returned when the question service responds with
// something that cannot be read as a question.
var ErrMalformedQuestion = errors.New("malformed question")

// Answer is an extracted answer span.
type Answer struct {
	// Text is the answer itself, usually a short phrase copied from the context.
	Text string `json:"answer"`

	// Score is the model's confidence in [0, 1], when it reports one.
	Score float64 `json:"score,omitempty"`
}

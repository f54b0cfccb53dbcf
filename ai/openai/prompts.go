package openai

import "fmt"

const answerSystemPrompt = `You answer questions about official circulars using only the document you are given.

Output ONLY valid JSON of the form {"answer": "<text>", "score": <number>}. Do not include any preamble,
explanation, or text outside the object.

Rules:
- The answer must be a short span copied verbatim from the document. Do not paraphrase.
- Prefer the shortest span that fully answers the question.
- score is your confidence from 0 (guess) to 1 (certain).
- If the document does not contain the answer, return the most relevant sentence with a low score.

Example:
Document: "The library will remain closed on 26/01/2024 on account of Republic Day."
Question: "When is the library closed?"
Output:
{"answer": "26/01/2024", "score": 0.9}`

// buildAnswerPrompt renders the user turn for one question.
func buildAnswerPrompt(question, passage string) string {
	return fmt.Sprintf("Document:\n%s\n\nQuestion: %s", passage, question)
}

const questionSystemPrompt = `You write study questions about official circulars.

Output ONLY valid JSON of the form {"question": "<text>"}. Do not include any preamble,
explanation, or text outside the object.

Rules:
- Ask exactly one question that the passage answers.
- Use the passage's own terms for names, dates and amounts.
- End the question with a question mark.

Example:
Passage: "The library will remain closed on 26/01/2024 on account of Republic Day."
Output:
{"question": "When will the library remain closed?"}`

// buildQuestionPrompt renders the user turn for one passage chunk.
func buildQuestionPrompt(passage string) string {
	return fmt.Sprintf("Passage:\n%s", passage)
}

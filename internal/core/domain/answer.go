package domain

import "fmt"

// NotAvailableAnswer is the exact phrase the answer prompt instructs the
// model to return when the context does not contain the answer.
const NotAvailableAnswer = "This information is not available in the provided document."

// QuestionResult is the outcome of answering one question.
// Exactly one of Answer or Err is meaningful.
type QuestionResult struct {
	// Question is the question as supplied by the caller.
	Question string

	// Answer is the trimmed completion text.
	Answer string

	// Err is set when retrieval or completion failed for this question.
	Err error
}

// OK returns true if the question was answered without error.
func (r QuestionResult) OK() bool {
	return r.Err == nil
}

// Text returns the answer, or a descriptive error string in its place.
// It is never empty.
func (r QuestionResult) Text() string {
	if r.Err != nil {
		return fmt.Sprintf("Error answering question: %v", r.Err)
	}
	if r.Answer == "" {
		return NotAvailableAnswer
	}
	return r.Answer
}

// AnswerTexts renders results in order as answer strings.
func AnswerTexts(results []QuestionResult) []string {
	answers := make([]string, len(results))
	for i, r := range results {
		answers[i] = r.Text()
	}
	return answers
}

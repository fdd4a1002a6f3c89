package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionResult_Text(t *testing.T) {
	tests := []struct {
		name     string
		result   QuestionResult
		expected string
	}{
		{
			name:     "answer",
			result:   QuestionResult{Answer: "12 months"},
			expected: "12 months",
		},
		{
			name:     "error",
			result:   QuestionResult{Err: fmt.Errorf("%w: model offline", ErrAnswer)},
			expected: "Error answering question: answer failed: model offline",
		},
		{
			name:     "error wins over answer",
			result:   QuestionResult{Answer: "partial", Err: errors.New("boom")},
			expected: "Error answering question: boom",
		},
		{
			name:     "empty answer",
			result:   QuestionResult{},
			expected: NotAvailableAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Text())
			assert.NotEmpty(t, tt.result.Text())
		})
	}
}

func TestQuestionResult_OK(t *testing.T) {
	assert.True(t, QuestionResult{Answer: "x"}.OK())
	assert.False(t, QuestionResult{Err: ErrAnswer}.OK())
}

func TestAnswerTexts_PreservesOrder(t *testing.T) {
	results := []QuestionResult{
		{Question: "a", Answer: "first"},
		{Question: "b", Err: ErrAnswer},
		{Question: "c", Answer: "third"},
	}

	answers := AnswerTexts(results)

	assert.Equal(t, []string{"first", "Error answering question: answer failed", "third"}, answers)
}

func TestAnswerTexts_Empty(t *testing.T) {
	answers := AnswerTexts(nil)

	assert.NotNil(t, answers)
	assert.Empty(t, answers)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Answerer turns a question and a retriever into a grounded answer.
type Answerer struct {
	llm      driven.LLMService
	permit   *Permit
	template string
	opts     driven.GenerateOptions
}

// NewAnswerer creates an answerer. An empty template uses DefaultAnswerPrompt.
// The permit is shared by every request in the process.
func NewAnswerer(llm driven.LLMService, permit *Permit, template string) *Answerer {
	if template == "" {
		template = DefaultAnswerPrompt
	}
	return &Answerer{
		llm:      llm,
		permit:   permit,
		template: template,
		opts:     driven.GenerateOptions{Temperature: 0},
	}
}

// ModelName returns the completion model name.
func (a *Answerer) ModelName() string {
	return a.llm.ModelName()
}

// Answer retrieves context for the question and asks the completion service.
// It never panics or returns an error: failures are carried in the result,
// wrapped with domain.ErrAnswer.
func (a *Answerer) Answer(ctx context.Context, question string, retriever driven.Retriever) domain.QuestionResult {
	result := domain.QuestionResult{Question: question}

	answer, err := a.answer(ctx, question, retriever)
	if err != nil {
		logger.Error("Error answering question %q: %v", question, err)
		result.Err = fmt.Errorf("%w: %w", domain.ErrAnswer, err)
		return result
	}

	result.Answer = answer
	return result
}

func (a *Answerer) answer(ctx context.Context, question string, retriever driven.Retriever) (string, error) {
	chunks, err := retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d chunks for %q", len(chunks), question)

	prompt := RenderPrompt(a.template, FormatContext(chunks), question)

	var completion string
	err = a.permit.Do(ctx, func(ctx context.Context) error {
		var genErr error
		completion, genErr = a.llm.Generate(ctx, prompt, a.opts)
		return genErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("completion cancelled: %w", err)
		}
		return "", fmt.Errorf("completion: %w", err)
	}

	completion = strings.TrimSpace(completion)
	if completion == "" {
		return "", errors.New("completion service returned an empty answer")
	}

	return completion, nil
}

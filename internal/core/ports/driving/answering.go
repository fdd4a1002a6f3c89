package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnsweringService answers questions against a single document.
type AnsweringService interface {
	// Run fetches and indexes the document once, then answers every question.
	// The result has one entry per question, in input order.
	// Fetch, chunk and index failures are returned as the error and no
	// question is attempted. Per-question failures are carried in the results.
	Run(ctx context.Context, ref domain.DocumentReference, questions []string) ([]domain.QuestionResult, error)

	// Models reports the completion and embedding models in use.
	Models() ModelInfo
}

// ModelInfo names the models backing an AnsweringService.
type ModelInfo struct {
	LLM       string
	Embedding string
}

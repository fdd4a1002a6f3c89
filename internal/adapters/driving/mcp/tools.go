package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerInput is the input schema for the answer_questions tool.
type AnswerInput struct {
	DocumentURL string   `json:"document_url" jsonschema:"URL of a PDF or DOCX document"`
	Questions   []string `json:"questions" jsonschema:"questions to answer from the document"`
}

// AnswerOutput is the output schema for the answer_questions tool.
type AnswerOutput struct {
	Answers []AnswerItem `json:"answers"`
	Count   int          `json:"count"`
}

// AnswerItem pairs a question with its answer.
type AnswerItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Failed   bool   `json:"failed,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_questions",
		Description: "Answer questions using only the content of a PDF or DOCX document at a URL",
	}, s.handleAnswer)
}

// handleAnswer handles the answer_questions tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	ref := domain.NewDocumentReference(input.DocumentURL)
	if err := ref.Validate(); err != nil {
		return nil, AnswerOutput{}, errors.New("document_url must be an absolute http(s) URL")
	}

	results, err := s.ports.Answering.Run(ctx, ref, input.Questions)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	output := AnswerOutput{
		Answers: make([]AnswerItem, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Answers[i] = AnswerItem{
			Question: r.Question,
			Answer:   r.Text(),
			Failed:   !r.OK(),
		}
	}

	return nil, output, nil
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// MaxRequestBytes caps the request body.
const MaxRequestBytes = 1 << 20

// RunRequest is the body of POST /hackrx/run.
type RunRequest struct {
	Documents string    `json:"documents"`
	Questions *[]string `json:"questions"`
}

// RunResponse is the body of a successful run.
type RunResponse struct {
	Answers []string `json:"answers"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	LLMModel       string `json:"llm_model"`
	EmbeddingModel string `json:"embedding_model"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// handler serves the API routes.
type handler struct {
	answering driving.AnsweringService
	apiKey    string
	timeout   time.Duration
}

func (h *handler) run(w http.ResponseWriter, r *http.Request) {
	if err := authenticate(r, h.apiKey); err != nil {
		logger.Warn("Request %s rejected: %v", requestID(r.Context()), err)
		writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}

	req, err := decodeRunRequest(w, r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	ref := domain.NewDocumentReference(req.Documents)
	questions := *req.Questions
	logger.Info("Request %s: %d questions for %s", requestID(ctx), len(questions), ref.URL)

	results, err := h.answering.Run(ctx, ref, questions)
	if err != nil {
		if domain.IsIndexingError(err) {
			writeError(w, http.StatusInternalServerError, "Failed to process document: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Answers: domain.AnswerTexts(results)})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	models := h.answering.Models()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		LLMModel:       models.LLM,
		EmbeddingModel: models.Embedding,
	})
}

// decodeRunRequest parses and validates the body.
func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*RunRequest, error) {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req RunRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is empty")
		default:
			return nil, fmt.Errorf("malformed request body: %v", err)
		}
	}

	if strings.TrimSpace(req.Documents) == "" {
		return nil, errors.New("field 'documents' is required")
	}
	if req.Questions == nil {
		return nil, errors.New("field 'questions' is required")
	}

	return &req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

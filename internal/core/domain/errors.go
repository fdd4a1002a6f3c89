package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the document format could not be
	// determined or is not one the fetcher can parse.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrLLMUnavailable indicates the completion service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Request errors.

	// ErrAuth indicates a missing or mismatched bearer token.
	ErrAuth = errors.New("invalid or missing API key")

	// Indexing errors. These abort a request before any question is answered.

	// ErrFetch indicates the document could not be downloaded or parsed.
	ErrFetch = errors.New("fetch failed")

	// ErrChunk indicates the parsed document produced no chunks.
	ErrChunk = errors.New("chunking failed")

	// ErrIndex indicates embedding or index construction failed.
	ErrIndex = errors.New("indexing failed")

	// Per-question errors. These are contained and rendered as answer text.

	// ErrAnswer indicates retrieval or completion failed for one question.
	ErrAnswer = errors.New("answer failed")
)

// IsIndexingError reports whether err is a fetch, chunk or index failure.
func IsIndexingError(err error) bool {
	return errors.Is(err, ErrFetch) || errors.Is(err, ErrChunk) || errors.Is(err, ErrIndex)
}

package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoAnsweringService indicates that no answering service was provided.
	ErrNoAnsweringService = errors.New("answering service is required")

	// ErrInvalidDocumentURL indicates the document field is not an absolute http(s) URL.
	ErrInvalidDocumentURL = errors.New("document must be an absolute http(s) URL")
)

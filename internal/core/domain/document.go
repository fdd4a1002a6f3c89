package domain

import (
	"crypto/md5" //nolint:gosec // Used for namespacing, not security.
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// Format identifies how a fetched document must be parsed.
type Format string

// Supported document formats.
const (
	// FormatPDF is a PDF document.
	FormatPDF Format = "pdf"

	// FormatDOCX is an Office Open XML word processing document.
	FormatDOCX Format = "docx"

	// FormatUnknown is any reference whose format cannot be determined.
	// Fetchers must reject it rather than guess.
	FormatUnknown Format = "unknown"
)

// IsKnown returns true if the format can be parsed.
func (f Format) IsKnown() bool {
	return f == FormatPDF || f == FormatDOCX
}

// Suffix returns the file suffix used when staging the document on disk.
func (f Format) Suffix() string {
	if !f.IsKnown() {
		return ""
	}
	return "." + string(f)
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// DetectFormat infers the format from the path suffix of a document URL.
// Query strings and fragments are ignored so signed blob URLs resolve correctly.
func DetectFormat(rawURL string) Format {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}

// DocumentReference locates a document to answer questions against.
// It is created per request and never persisted.
type DocumentReference struct {
	// URL is the document location as supplied by the caller.
	URL string

	// Format is inferred from the URL when the reference is created.
	Format Format
}

// NewDocumentReference creates a reference and infers its format.
func NewDocumentReference(rawURL string) DocumentReference {
	rawURL = strings.TrimSpace(rawURL)
	return DocumentReference{
		URL:    rawURL,
		Format: DetectFormat(rawURL),
	}
}

// Hash returns a stable content-derived identifier for the reference.
func (r DocumentReference) Hash() string {
	sum := md5.Sum([]byte(r.URL)) //nolint:gosec // Namespacing only.
	return hex.EncodeToString(sum[:])
}

// Collection returns the index namespace for the reference.
func (r DocumentReference) Collection() string {
	return "docs_" + r.Hash()
}

// Validate checks the reference is an absolute http(s) URL.
func (r DocumentReference) Validate() error {
	if r.URL == "" {
		return ErrInvalidInput
	}
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return ErrInvalidInput
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidInput
	}
	return nil
}

// TextSegment is a unit of parsed document content.
// It is produced by a fetcher and consumed only by the chunker.
type TextSegment struct {
	// Text is the parsed content.
	Text string

	// Page is the 1-based page number, or 0 when the format has no pages.
	Page int

	// Source is the URL the segment was parsed from.
	Source string

	// Format is the format the segment was parsed as.
	Format Format
}

// Chunk is a bounded text window used as the unit of retrieval.
// Chunks are immutable once produced and scoped to one index.
type Chunk struct {
	// ID is derived from the collection and position, so re-chunking
	// the same content yields the same IDs.
	ID string

	// Collection is the index namespace the chunk belongs to.
	Collection string

	// Content is the chunk text. It is an exact substring of its segment.
	Content string

	// Position is the ordinal position across the whole document.
	Position int

	// Page is the page of the segment the chunk was cut from.
	Page int

	// Start and End are rune offsets of Content within its segment.
	Start int
	End   int

	// Embedding is the vector representation, set during indexing.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Document is a parsed document ready for chunking.
type Document struct {
	// Ref is the reference the document was fetched from.
	Ref DocumentReference

	// Segments are the parsed text units in document order.
	Segments []TextSegment
}

// Collection returns the index namespace for the document.
func (d *Document) Collection() string {
	return d.Ref.Collection()
}

// Text returns all segment text joined by blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Segments))
	for _, s := range d.Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Package pdf extracts page text from PDF documents with poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// toolName is the external extractor binary.
const toolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `PDF support requires pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Format returns domain.FormatPDF.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatPDF
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Normalise extracts one segment per non-blank page. Pages are numbered from 1.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.TextSegment, error) {
	if raw == nil || raw.Path == "" {
		return nil, domain.ErrInvalidInput
	}

	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", raw.Path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	segments := splitPages(string(out), raw.URI)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in PDF", domain.ErrInvalidInput)
	}
	return segments, nil
}

// splitPages turns form-feed separated pages into segments, skipping blank pages.
func splitPages(text, source string) []domain.TextSegment {
	pages := strings.Split(text, pageBreak)

	segments := make([]domain.TextSegment, 0, len(pages))
	for i, page := range pages {
		page = normaliseLines(page)
		if page == "" {
			continue
		}
		segments = append(segments, domain.TextSegment{
			Text:   page,
			Page:   i + 1,
			Source: source,
			Format: domain.FormatPDF,
		})
	}
	return segments
}

// normaliseLines trims trailing spaces from layout output and drops
// leading and trailing blank lines.
func normaliseLines(page string) string {
	page = strings.ReplaceAll(page, "\r\n", "\n")
	lines := strings.Split(page, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

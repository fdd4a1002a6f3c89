// Package docx extracts text from Office Open XML word processing documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// documentPart is the main body of a DOCX package.
const documentPart = "word/document.xml"

// paragraphSeparator joins paragraphs within a page.
const paragraphSeparator = "\n\n"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns domain.FormatDOCX.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatDOCX
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.FormatDOCX.MIMEType()}
}

// Normalise reads the staged package and returns one segment per page.
// Pages are delimited by explicit page breaks only, since DOCX files do
// not record rendered layout.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.TextSegment, error) {
	if raw == nil || raw.Path == "" {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.OpenReader(raw.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: not a DOCX package: %w", domain.ErrInvalidInput, err)
	}
	defer reader.Close()

	pages, err := extractPages(ctx, &reader.Reader)
	if err != nil {
		return nil, err
	}

	segments := make([]domain.TextSegment, 0, len(pages))
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, domain.TextSegment{
			Text:   text,
			Page:   i + 1,
			Source: raw.URI,
			Format: domain.FormatDOCX,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no text in DOCX", domain.ErrInvalidInput)
	}
	return segments, nil
}

// extractPages streams word/document.xml and collects page texts.
func extractPages(ctx context.Context, reader *zip.Reader) ([]string, error) {
	f, err := reader.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, documentPart)
	}
	defer f.Close()

	return parseDocumentXML(ctx, f)
}

// parseDocumentXML walks the WordprocessingML body. Text runs are joined
// within a paragraph, paragraphs are separated by a blank line, and a
// page break starts a new page.
func parseDocumentXML(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		pages      []string
		paragraphs []string
		para       strings.Builder
		inText     bool
	)

	flushParagraph := func() {
		if p := strings.TrimSpace(para.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		para.Reset()
	}
	flushPage := func() {
		flushParagraph()
		pages = append(pages, strings.Join(paragraphs, paragraphSeparator))
		paragraphs = nil
	}

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed document XML: %w", domain.ErrInvalidInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					flushPage()
				} else {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushParagraph()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flushPage()

	return pages, nil
}

// attr returns the value of the named attribute, ignoring its namespace.
func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

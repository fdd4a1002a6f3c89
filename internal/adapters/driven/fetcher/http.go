// Package fetcher provides the HTTP document fetcher.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure HTTPFetcher implements the interface.
var _ driven.DocumentFetcher = (*HTTPFetcher)(nil)

// Default configuration values.
const (
	DefaultMaxBytes  = domain.DefaultMaxFetchBytes
	DefaultTimeout   = domain.DefaultFetchTimeout
	DefaultUserAgent = "docqa/1.0"
)

// ErrTooLarge is returned when a document exceeds the download limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// Config holds configuration for the HTTP fetcher.
type Config struct {
	// Client is the HTTP client (default: a client with Timeout).
	Client *http.Client

	// MaxBytes caps the download size (default: 50 MiB).
	MaxBytes int64

	// Timeout bounds the whole download (default: 2m).
	Timeout time.Duration

	// TempDir is where documents are staged (default: os.TempDir()).
	TempDir string

	// UserAgent is sent with every request.
	UserAgent string
}

// HTTPFetcher downloads documents over HTTP, stages them on disk and
// parses them with the normaliser registered for their format.
type HTTPFetcher struct {
	client      *http.Client
	normalisers driven.NormaliserRegistry
	maxBytes    int64
	tempDir     string
	userAgent   string
}

// New creates an HTTP fetcher.
func New(cfg Config, normalisers driven.NormaliserRegistry) *HTTPFetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &HTTPFetcher{
		client:      cfg.Client,
		normalisers: normalisers,
		maxBytes:    cfg.MaxBytes,
		tempDir:     cfg.TempDir,
		userAgent:   cfg.UserAgent,
	}
}

// Fetch downloads and parses the referenced document.
// The staged file is always removed before Fetch returns.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref domain.DocumentReference) ([]domain.TextSegment, error) {
	if !ref.Format.IsKnown() {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrFetch, domain.ErrUnsupportedFormat, ref.URL)
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	raw, err := f.download(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer f.remove(raw.Path)

	logger.Debug("Downloaded %d bytes from %s", raw.Size, ref.URL)

	segments, err := f.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrFetch, ref.Format, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrFetch, ref.URL)
	}

	return segments, nil
}

// download streams the response body into a temp file with the format's suffix.
// On error no file is left behind.
func (f *HTTPFetcher) download(ctx context.Context, ref domain.DocumentReference) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", ref.Format.MIMEType()+", */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, ref.URL)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	tmp, err := os.CreateTemp(f.tempDir, "docqa-*"+ref.Format.Suffix())
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := tmp.Close()
	switch {
	case err != nil:
		f.remove(path)
		return nil, fmt.Errorf("read body: %w", err)
	case closeErr != nil:
		f.remove(path)
		return nil, fmt.Errorf("write temp file: %w", closeErr)
	case n > f.maxBytes:
		f.remove(path)
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, f.maxBytes)
	case n == 0:
		f.remove(path)
		return nil, errors.New("empty response body")
	}

	return &domain.RawDocument{
		URI:      ref.URL,
		Format:   ref.Format,
		MIMEType: resp.Header.Get("Content-Type"),
		Path:     path,
		Size:     n,
		Metadata: map[string]any{"status": resp.StatusCode},
	}, nil
}

func (f *HTTPFetcher) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to remove staged document %s: %v", path, err)
	}
}

// Package hugot provides an in-process sentence-transformers embedding
// service using the hugot ONNX runtime with its pure Go backend.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel        = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions   = 384
	DefaultOnnxFilePath = "onnx/model.onnx"
	pipelineName        = "docqa-embedder"
)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is the Hugging Face model name (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir caches downloaded models (default: ~/.docqa/models).
	ModelDir string

	// OnnxFilePath selects the ONNX file inside the model repository.
	OnnxFilePath string

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int
}

// runFunc embeds a batch of texts.
type runFunc func(texts []string) ([][]float32, error)

// EmbeddingService generates embeddings in process.
type EmbeddingService struct {
	mu         sync.Mutex
	run        runFunc
	destroy    func() error
	model      string
	dimensions int
}

// NewEmbeddingService prepares the model, downloading it on first use,
// and starts a hugot session.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	cfg = withDefaults(cfg)

	modelPath, err := PrepareModel(cfg.Model, cfg.ModelDir, cfg.OnnxFilePath)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("hugot: create session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      pipelineName,
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("hugot: create pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("hugot: create pipeline: %w", err)
	}

	run := func(texts []string) ([][]float32, error) {
		result, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	}

	return newWithRunner(cfg, run, session.Destroy), nil
}

// newWithRunner builds a service around an embedding function.
func newWithRunner(cfg Config, run runFunc, destroy func() error) *EmbeddingService {
	cfg = withDefaults(cfg)
	return &EmbeddingService{
		run:        run,
		destroy:    destroy,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir()
	}
	if cfg.OnnxFilePath == "" {
		cfg.OnnxFilePath = DefaultOnnxFilePath
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return cfg
}

// DefaultModelDir returns ~/.docqa/models, or ./models without a home directory.
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".docqa", "models")
}

// ModelPath returns where a model is cached inside dir.
func ModelPath(dir, model string) string {
	return filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
}

// PrepareModel downloads the model into dir unless it is already present,
// and returns its local path.
func PrepareModel(model, dir, onnxFilePath string) (string, error) {
	path := ModelPath(dir, model)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("hugot: stat model: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("hugot: create model directory: %w", err)
	}

	logger.Info("Downloading embedding model %s to %s", model, dir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFilePath
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", fmt.Errorf("hugot: download model: %w", err)
	}
	return downloaded, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch runs the pipeline over texts. Calls are serialised.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return nil, errors.New("hugot: service closed")
	}

	embeddings, err := s.run(texts)
	if err != nil {
		return nil, fmt.Errorf("hugot: generate embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("hugot: got %d embeddings for %d inputs", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping runs a one word embedding to check the session works.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run = nil
	if s.destroy == nil {
		return nil
	}
	destroy := s.destroy
	s.destroy = nil
	return destroy()
}

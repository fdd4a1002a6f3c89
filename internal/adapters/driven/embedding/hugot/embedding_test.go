package hugot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRunner(dims int) runFunc {
	return func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			v := make([]float32, dims)
			v[0] = float32(len(t))
			out[i] = v
		}
		return out, nil
	}
}

func TestNewWithRunner_Defaults(t *testing.T) {
	svc := newWithRunner(Config{}, fixedRunner(4), nil)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	svc := newWithRunner(Config{Dimensions: 4}, fixedRunner(4), nil)

	out, err := svc.EmbedBatch(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, float32(3), out[1][0])

	out, err = svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 4)
}

func TestEmbedBatch_Errors(t *testing.T) {
	failing := newWithRunner(Config{}, func([]string) ([][]float32, error) {
		return nil, errors.New("onnx failure")
	}, nil)
	_, err := failing.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "onnx failure")

	short := newWithRunner(Config{}, func([]string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}, nil)
	_, err = short.EmbedBatch(context.Background(), []string{"x", "y"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 inputs")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = short.EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	destroyed := 0
	svc := newWithRunner(Config{}, fixedRunner(2), func() error {
		destroyed++
		return nil
	})

	require.NoError(t, svc.Ping(context.Background()))
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
	assert.Equal(t, 1, destroyed)

	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "closed")
}

func TestModelPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/models", "sentence-transformers_all-MiniLM-L6-v2"),
		ModelPath("/models", DefaultModel))
}

func TestPrepareModel_UsesCache(t *testing.T) {
	dir := t.TempDir()
	cached := ModelPath(dir, DefaultModel)
	require.NoError(t, os.MkdirAll(cached, 0o755))

	path, err := PrepareModel(DefaultModel, dir, DefaultOnnxFilePath)
	require.NoError(t, err)
	assert.Equal(t, cached, path)
}

func TestNewEmbeddingService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping hugot test in short mode (requires model download)")
	}
	if os.Getenv("DOCQA_HUGOT_TEST") == "" {
		t.Skip("set DOCQA_HUGOT_TEST=1 to download and run the embedding model")
	}

	svc, err := NewEmbeddingService(Config{ModelDir: t.TempDir()})
	require.NoError(t, err)
	defer svc.Close()

	v, err := svc.Embed(context.Background(), "This is a test sentence.")
	require.NoError(t, err)
	assert.Len(t, v, 384)
}

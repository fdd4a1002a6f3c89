package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrAuth", ErrAuth},
		{"ErrFetch", ErrFetch},
		{"ErrChunk", ErrChunk},
		{"ErrIndex", ErrIndex},
		{"ErrAnswer", ErrAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrAuth_Message(t *testing.T) {
	assert.Equal(t, "invalid or missing API key", ErrAuth.Error())
}

func TestIsIndexingError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"fetch", ErrFetch, true},
		{"chunk", ErrChunk, true},
		{"index", ErrIndex, true},
		{"wrapped fetch", fmt.Errorf("download: %w", ErrFetch), true},
		{"fetch wrapping unsupported format", fmt.Errorf("%w: %w", ErrFetch, ErrUnsupportedFormat), true},
		{"answer", ErrAnswer, false},
		{"auth", ErrAuth, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsIndexingError(tt.err))
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrUnsupportedFormat, ErrLLMUnavailable,
		ErrEmbeddingUnavailable, ErrAuth, ErrFetch, ErrChunk, ErrIndex, ErrAnswer,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

package dedupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		out[i] = domain.Chunk{ID: string(rune('a' + i)), Content: text, Position: i}
	}
	return out
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "dedupe", New().Name())
}

func TestProcessor_DropsRepeatedText(t *testing.T) {
	in := chunks(
		"ACME Insurance Policy Wording",
		"Section 1. Cover starts on the policy date.",
		"acme insurance   policy\nwording",
		"Section 2. Claims within 30 days.",
	)

	out, err := New().Process(context.Background(), nil, in)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{out[0].Position, out[1].Position, out[2].Position})
	assert.Equal(t, "d", out[2].ID, "kept chunks keep their IDs")
}

func TestProcessor_DoesNotMutateInput(t *testing.T) {
	in := chunks("same", "same", "other")

	_, err := New().Process(context.Background(), nil, in)

	require.NoError(t, err)
	assert.Equal(t, "same", in[1].Content)
	assert.Equal(t, "other", in[2].Content)
}

func TestProcessor_MinChars(t *testing.T) {
	in := chunks("12", "Page 3", "The deductible is 500 dollars.")

	out, err := New(WithMinChars(6)).Process(context.Background(), nil, in)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "The deductible is 500 dollars.", out[0].Content)
}

func TestProcessor_AllFilteredIsChunkError(t *testing.T) {
	_, err := New(WithMinChars(50)).Process(context.Background(), nil, chunks("short", "tiny"))

	assert.ErrorIs(t, err, domain.ErrChunk)
}

func TestProcessor_Empty(t *testing.T) {
	out, err := New().Process(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, nil, chunks("a"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	tests := map[string]string{
		"  Hello\tWorld \n": "hello world",
		"A\n\nB":            "a b",
		"":                  "",
		"ÉTÉ  été":          "été été",
	}
	for in, want := range tests {
		assert.Equal(t, want, fingerprint(in), "input %q", in)
	}
}

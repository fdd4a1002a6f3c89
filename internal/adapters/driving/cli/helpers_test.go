package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// wordEmbedder hashes words into a small bag-of-words vector.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?")))
		v[h.Sum32()%64]++
	}
	return v, nil
}

func (e wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (wordEmbedder) Dimensions() int            { return 64 }
func (wordEmbedder) ModelName() string          { return "word-embed" }
func (wordEmbedder) Ping(context.Context) error { return nil }
func (wordEmbedder) Close() error               { return nil }

// groundedLLM answers the grace period question from the prompt's context only.
type groundedLLM struct {
	calls atomic.Int32
}

func (l *groundedLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.calls.Add(1)
	split := strings.LastIndex(prompt, "**Question:**")
	question, passages := prompt[split:], prompt[:split]
	if strings.Contains(question, "grace period") && strings.Contains(passages, "30 days") {
		return "A grace period of 30 days is provided.", nil
	}
	return domain.NotAvailableAnswer, nil
}

func (l *groundedLLM) ModelName() string          { return "grounded" }
func (l *groundedLLM) Ping(context.Context) error { return nil }
func (l *groundedLLM) Close() error               { return nil }

// docxBytes builds a minimal DOCX with one paragraph per entry.
func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// policyServer serves a small policy document and returns its DOCX URL.
func policyServer(t *testing.T) string {
	t.Helper()
	data := docxBytes(t,
		"Section 2. A grace period of 30 days is allowed for premium payment.",
		"Section 7. Cataract surgery has a waiting period of two years.",
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/policy.docx"
}

// useTestApp replaces openApp with a pipeline built from in-memory fakes.
// It returns a pointer to the progress func the command passed in.
func useTestApp(t *testing.T, llm *groundedLLM) *services.ProgressFunc {
	t.Helper()
	var gotProgress services.ProgressFunc

	original := openApp
	openApp = func(_ context.Context, progress services.ProgressFunc) (*app.App, error) {
		gotProgress = progress
		settings := domain.DefaultAppSettings()
		settings.Server.APIKey = "test-key"
		pipeline, err := app.Assemble(&settings, app.Components{
			Embedder: wordEmbedder{},
			LLM:      llm,
			Progress: progress,
		})
		if err != nil {
			return nil, err
		}
		return &app.App{Settings: &settings, Answering: pipeline}, nil
	}
	t.Cleanup(func() { openApp = original })
	return &gotProgress
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), args...)
}

// executeCommandContext runs the root command under ctx.
func executeCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		askOutput = outputText
		askNoProgress = false
		serveAddr = ""
		mcpPort = 0
		tuiInline = false
	})
	setContext(rootCmd, ctx)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// setContext gives every command under cmd the context ctx. Cobra only
// fills a subcommand's context when it is nil, so an earlier run's
// context would otherwise stick.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContext(c, ctx)
	}
}

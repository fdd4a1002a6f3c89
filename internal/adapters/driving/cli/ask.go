package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Output formats for 'docqa ask'.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	askOutput     string
	askNoProgress bool
)

var askCmd = &cobra.Command{
	Use:   "ask <document-url> <question>...",
	Short: "Answer questions about a document",
	Long: `Fetches a PDF or DOCX document, indexes it and answers each question
using only the document's content. Questions are answered concurrently and
printed in the order given.

Examples:
  docqa ask https://example.com/policy.pdf "What is the grace period?"
  docqa ask -o json https://example.com/policy.docx "Q1?" "Q2?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askOutput, "output", "o", outputText, "output format: text, json or yaml")
	askCmd.Flags().BoolVar(&askNoProgress, "no-progress", false, "hide the embedding progress bar")
	rootCmd.AddCommand(askCmd)
}

// askResult is the structured form of one answered question.
type askResult struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Failed   bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	switch askOutput {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", askOutput)
	}

	ref := domain.NewDocumentReference(args[0])
	if err := ref.Validate(); err != nil {
		return errors.New("document URL must be an absolute http(s) URL")
	}
	questions := args[1:]

	progress := newProgressReporter(cmd.ErrOrStderr(), !askNoProgress && isTerminal(os.Stderr))
	defer progress.Finish()

	a, err := openApp(cmd.Context(), progress.Update)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	results, err := a.Answering.Run(cmd.Context(), ref, questions)
	if err != nil {
		if domain.IsIndexingError(err) {
			return fmt.Errorf("failed to process document: %w", err)
		}
		return err
	}
	progress.Finish()

	out := make([]askResult, len(results))
	for i, r := range results {
		out[i] = askResult{Question: r.Question, Answer: r.Text(), Failed: !r.OK()}
	}

	switch askOutput {
	case outputJSON:
		return writeAskJSON(cmd.OutOrStdout(), out)
	case outputYAML:
		return writeAskYAML(cmd.OutOrStdout(), out)
	default:
		writeAskText(cmd.OutOrStdout(), out, isTerminal(cmd.OutOrStdout()))
		return nil
	}
}

func writeAskJSON(w io.Writer, results []askResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	return nil
}

func writeAskYAML(w io.Writer, results []askResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close() //nolint:errcheck
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	return nil
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// writeAskText prints numbered question and answer pairs, styled when
// the writer is a terminal.
func writeAskText(w io.Writer, results []askResult, styled bool) {
	for i, r := range results {
		question := fmt.Sprintf("[%d] %s", i+1, r.Question)
		answer := r.Answer
		if styled {
			question = questionStyle.Render(question)
			if r.Failed {
				answer = failedStyle.Render(answer)
			}
		}
		fmt.Fprintln(w, question)
		fmt.Fprintln(w, indent(answer, "    "))
		fmt.Fprintln(w)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

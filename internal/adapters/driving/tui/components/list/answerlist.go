// Package list renders the answers from one run.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	minTextWidth = 20
	answerIndent = "    "
	// chrome is the header plus the expanded answer's extra lines.
	chrome = 8
)

// AnswerList shows every result as a question line with a one-line preview.
// The selected result is expanded to its full, wrapped answer.
type AnswerList struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	results []domain.QuestionResult
	cursor  int
	width   int
	height  int
}

func NewAnswerList(s *styles.Styles, km *keymap.KeyMap) *AnswerList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &AnswerList{styles: s, keys: km, width: 80, height: 10}
}

func (l *AnswerList) Update(msg tea.Msg) (*AnswerList, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch {
	case key.Matches(km, l.keys.Up):
		l.SetSelected(l.cursor - 1)
	case key.Matches(km, l.keys.Down):
		l.SetSelected(l.cursor + 1)
	}
	return l, nil
}

func (l *AnswerList) View() string {
	if len(l.results) == 0 {
		return l.styles.Muted.Render("No answers")
	}

	header := fmt.Sprintf("Answers (%d)", len(l.results))
	if n := l.FailedCount(); n > 0 {
		header += fmt.Sprintf(", %d failed", n)
	}

	var b strings.Builder
	b.WriteString(l.styles.Subtitle.Render(header))
	b.WriteString("\n")
	from, to := l.window()
	for i := from; i < to; i++ {
		b.WriteString("\n")
		b.WriteString(l.entry(i))
	}
	return b.String()
}

// window is the [from, to) range of results that fits, keeping the cursor
// on screen. Each collapsed entry takes two lines.
func (l *AnswerList) window() (int, int) {
	rows := max((l.height-chrome)/2, 1)
	from := max(l.cursor-rows+1, 0)
	return from, min(from+rows, len(l.results))
}

func (l *AnswerList) entry(i int) string {
	r := l.results[i]
	selected := i == l.cursor

	marker, qs := "  ", l.styles.Normal
	if selected {
		marker, qs = "> ", l.styles.Selected
	}
	question := qs.Render(marker + truncate(fmt.Sprintf("%d. %s", i+1, r.Question), l.width-4))

	as := l.styles.ForAnswer(!r.OK(), r.Answer == domain.NotAvailableAnswer)
	if !selected {
		return question + "\n" + as.Render(answerIndent+truncate(r.Text(), l.width-6))
	}
	wrapped := lipgloss.NewStyle().Width(max(l.width-6, minTextWidth)).Render(r.Text())
	return question + "\n" + as.Render(answerIndent+strings.ReplaceAll(wrapped, "\n", "\n"+answerIndent))
}

// truncate cuts s to n runes (at least minTextWidth), ending in "...".
func truncate(s string, n int) string {
	n = max(n, minTextWidth)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the list and moves the cursor to the first entry.
func (l *AnswerList) SetResults(results []domain.QuestionResult) {
	l.results = results
	l.cursor = 0
}

func (l *AnswerList) Results() []domain.QuestionResult { return l.results }

func (l *AnswerList) Selected() int { return l.cursor }

// SetSelected ignores indexes outside the list.
func (l *AnswerList) SetSelected(i int) {
	if i >= 0 && i < len(l.results) {
		l.cursor = i
	}
}

func (l *AnswerList) SetDimensions(width, height int) {
	l.width, l.height = width, height
}

func (l *AnswerList) Count() int { return len(l.results) }

func (l *AnswerList) IsEmpty() bool { return len(l.results) == 0 }

func (l *AnswerList) FailedCount() int {
	n := 0
	for _, r := range l.results {
		if !r.OK() {
			n++
		}
	}
	return n
}

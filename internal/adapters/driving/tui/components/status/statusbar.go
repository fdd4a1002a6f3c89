// Package status renders the one-line status bar under the ask view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// State is the phase of the ask workflow the bar describes.
type State string

const (
	StateReady     State = "ready"
	StateInput     State = "input"
	StateAnswering State = "answering"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
)

// Bar shows the workflow phase on the left and key hints on the right.
// Count means queued questions in StateInput and answers otherwise.
type Bar struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	state   State
	message string
	count   int
	width   int
}

// NewBar creates a bar. Nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: km, state: StateReady, width: 80}
}

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left, right := s.summary(), s.hints()
	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) summary() string {
	st := s.styles
	switch s.state {
	case StateAnswering:
		return st.Muted.Render(s.messageOr("Answering..."))
	case StateInput:
		if s.count == 0 {
			return st.Muted.Render("Enter a document URL and questions")
		}
		return st.Normal.Render(fmt.Sprintf("%d questions queued", s.count))
	case StateError:
		if s.message == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + s.message)
	case StateHelp:
		return st.Normal.Render("Help")
	}
	if s.count == 0 {
		return st.Muted.Render("Ready")
	}
	return st.Normal.Render(fmt.Sprintf("%d answers", s.count))
}

func (s *Bar) messageOr(fallback string) string {
	if s.message != "" {
		return s.message
	}
	return fallback
}

func (s *Bar) hints() string {
	var bindings []key.Binding
	switch {
	case s.state == StateInput:
		bindings = s.keys.InputHelp()
	case s.state == StateResults && s.count > 0:
		bindings = s.keys.ResultsHelp()
	default:
		bindings = s.keys.ShortHelp()
	}

	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Help().Key + ": " + b.Help().Desc
	}
	return s.styles.Muted.Render(strings.Join(parts, " | "))
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State { return s.state }
func (s *Bar) SetMessage(msg string) { s.message = msg }
func (s *Bar) Message() string { return s.message }
func (s *Bar) SetResultCount(n int) { s.count = n }
func (s *Bar) ResultCount() int { return s.count }
func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int { return s.width }

// Clear returns the bar to StateReady with no message or count.
func (s *Bar) Clear() {
	s.state, s.message, s.count = StateReady, "", 0
}

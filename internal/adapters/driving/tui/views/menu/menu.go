// Package menu is the TUI landing screen.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// Entry is one menu row. A zero Target with Quit set exits the program.
type Entry struct {
	Key    string
	Label  string
	Hint   string
	Target messages.ViewType
	Quit   bool
}

// Entries lists the rows in display order.
var Entries = []Entry{
	{Key: "a", Label: "Ask questions", Hint: "Answer questions about a PDF or DOCX URL", Target: messages.ViewAsk},
	{Key: "s", Label: "Settings", Hint: "Choose embedding and LLM providers", Target: messages.ViewSettings},
	{Key: "?", Label: "Help", Hint: "Key bindings and the answering pipeline", Target: messages.ViewHelp},
	{Key: "q", Label: "Quit", Quit: true},
}

// View is the landing menu.
type View struct {
	styles *styles.Styles
	cursor int
	width  int
	height int
	ready  bool
}

// NewView creates the menu. A nil s uses the default styles.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor and activates entries, either by enter or by
// an entry's shortcut key.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "up", "k":
			v.cursor = max(v.cursor-1, 0)
			return v, nil
		case "down", "j":
			v.cursor = min(v.cursor+1, len(Entries)-1)
			return v, nil
		case "enter":
			return v, activate(Entries[v.cursor])
		}
		for i, e := range Entries {
			if e.Key == key {
				v.cursor = i
				return v, activate(e)
			}
		}
	}
	return v, nil
}

func activate(e Entry) tea.Cmd {
	if e.Quit {
		return tea.Quit
	}
	target := e.Target
	return func() tea.Msg { return messages.ViewChanged{View: target} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docqa"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Question answering over PDF and DOCX documents"))
	b.WriteString("\n\n")

	for i, e := range Entries {
		row := fmt.Sprintf("[%s] %s", e.Key, e.Label)
		if i == v.cursor {
			b.WriteString(v.styles.Selected.Render("> " + row))
			if e.Hint != "" {
				b.WriteString("  " + v.styles.Muted.Render(e.Hint))
			}
		} else {
			b.WriteString(v.styles.Normal.Render("  " + row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [enter] open  [q] quit"))
	return b.String()
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height, v.ready = width, height, true
}

// Cursor returns the highlighted entry index.
func (v *View) Cursor() int {
	return v.cursor
}

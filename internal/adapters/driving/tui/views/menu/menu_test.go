package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func readyView() *View {
	v := NewView(styles.DefaultStyles())
	v.SetDimensions(80, 24)
	return v
}

func TestNewView_NilStyles(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v.styles)
	assert.Nil(t, v.Init())
	assert.Equal(t, 0, v.Cursor())
}

func TestEntries_ShortcutsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Entries {
		assert.False(t, seen[e.Key], "duplicate shortcut %q", e.Key)
		seen[e.Key] = true
	}
	assert.True(t, Entries[len(Entries)-1].Quit)
}

func TestView_CursorClamps(t *testing.T) {
	v := readyView()

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.Cursor())

	for range Entries {
		v.Update(runes("j"))
	}
	assert.Equal(t, len(Entries)-1, v.Cursor())

	v.Update(runes("k"))
	assert.Equal(t, len(Entries)-2, v.Cursor())
}

func TestView_EnterOpensView(t *testing.T) {
	tests := []struct {
		name  string
		moves int
		want  messages.ViewType
	}{
		{"ask", 0, messages.ViewAsk},
		{"settings", 1, messages.ViewSettings},
		{"help", 2, messages.ViewHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := readyView()
			for i := 0; i < tt.moves; i++ {
				v.Update(tea.KeyMsg{Type: tea.KeyDown})
			}

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_ShortcutOpensView(t *testing.T) {
	v := readyView()

	_, cmd := v.Update(runes("s"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSettings}, cmd())
	assert.Equal(t, 1, v.Cursor())
}

func TestView_Quit(t *testing.T) {
	v := readyView()

	_, cmd := v.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	v.Update(runes("j"))
	v.Update(runes("j"))
	v.Update(runes("j"))
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_UnknownKeyIgnored(t *testing.T) {
	v := readyView()

	_, cmd := v.Update(runes("x"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Cursor())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil)
	assert.Equal(t, "Initialising...", v.View())

	v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := v.View()

	assert.Contains(t, out, "docqa")
	for _, e := range Entries {
		assert.Contains(t, out, e.Label)
	}
	assert.Contains(t, out, Entries[0].Hint)
	assert.NotContains(t, out, Entries[1].Hint)
}

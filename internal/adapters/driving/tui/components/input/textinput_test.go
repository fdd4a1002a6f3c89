package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func TestNewTextInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewTextInput(s, "Name: ", "placeholder", 10)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.Equal(t, "Name: ", input.Label())
	assert.False(t, input.Focused())
}

func TestNewTextInput_NilStyles(t *testing.T) {
	input := NewTextInput(nil, "Name: ", "", 0)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestNewURLInput(t *testing.T) {
	input := NewURLInput(nil)

	assert.Equal(t, "Document: ", input.Label())
	assert.Contains(t, input.View(), "Document")
}

func TestNewQuestionInput(t *testing.T) {
	input := NewQuestionInput(nil)

	assert.Equal(t, "Question: ", input.Label())
	assert.Contains(t, input.View(), "Question")
}

func TestTextInput_Init(t *testing.T) {
	input := NewURLInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestTextInput_Update(t *testing.T) {
	input := NewQuestionInput(nil)
	input.Focus()

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "a", input.Value())
}

func TestTextInput_Update_IgnoredWhenBlurred(t *testing.T) {
	input := NewQuestionInput(nil)

	input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, "", input.Value())
}

func TestTextInput_Update_MultipleKeys(t *testing.T) {
	input := NewQuestionInput(nil)
	input.Focus()

	for _, k := range "hello" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{k}})
	}

	assert.Equal(t, "hello", input.Value())
}

func TestTextInput_Update_Backspace(t *testing.T) {
	input := NewQuestionInput(nil)
	input.Focus()
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}

func TestTextInput_CharLimit(t *testing.T) {
	input := NewTextInput(nil, "Code: ", "", 3)
	input.Focus()

	for _, k := range "abcdef" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{k}})
	}

	assert.Equal(t, "abc", input.Value())
}

func TestTextInput_FocusBlur(t *testing.T) {
	input := NewURLInput(nil)

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())

	input.Blur()
	assert.False(t, input.Focused())
}

func TestTextInput_SetWidth(t *testing.T) {
	input := NewURLInput(nil)
	assert.Equal(t, 50, input.Width()) // Default width

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())
	assert.Equal(t, 100-len("Document: ")-4, input.textinput.Width)

	input.SetWidth(10)
	assert.Equal(t, 20, input.textinput.Width)
}

func TestTextInput_Reset(t *testing.T) {
	input := NewURLInput(nil)
	input.SetValue("https://example.com/a.pdf")

	input.Reset()

	assert.Equal(t, "", input.Value())
}

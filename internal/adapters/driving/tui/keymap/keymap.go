// Package keymap holds the TUI key bindings and the help groupings built
// from them.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is every binding the views react to.
type KeyMap struct {
	Quit      key.Binding
	Help      key.Binding
	Back      key.Binding
	Submit    key.Binding // queue the typed question, or leave the URL field
	Run       key.Binding // answer every queued question
	NextField key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Cancel    key.Binding
	NewRun    key.Binding // clear answers, keep the document
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:      bind("q", "quit", "q", "ctrl+c"),
		Help:      bind("?", "help", "?"),
		Back:      bind("esc", "back", "esc"),
		Submit:    bind("enter", "add question", "enter"),
		Run:       bind("ctrl+r", "run", "ctrl+r"),
		NextField: bind("tab", "switch field", "tab", "shift+tab"),
		Up:        bind("↑/k", "up", "up", "k"),
		Down:      bind("↓/j", "down", "down", "j"),
		Select:    bind("enter", "select", "enter"),
		Cancel:    bind("esc", "cancel", "esc"),
		NewRun:    bind("n", "new run", "n"),
	}
}

// ShortHelp is shown when no more specific hints apply.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// InputHelp is shown while typing the URL or questions.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Submit, k.Run, k.Back}
}

// ResultsHelp is shown while browsing answers.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewRun, k.Up, k.Down, k.Back}
}

// FullHelp groups the bindings into columns: navigation, asking,
// answers and global.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.NextField, k.Submit, k.Run},
		{k.NewRun, k.Back, k.Cancel},
		{k.Help, k.Quit},
	}
}

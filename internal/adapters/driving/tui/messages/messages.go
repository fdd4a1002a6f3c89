// Package messages holds the tea.Msg values passed between TUI views.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ViewType identifies a screen.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewAsk
	ViewHelp
	ViewSettings
)

var viewNames = [...]string{
	ViewMenu:     "menu",
	ViewAsk:      "ask",
	ViewHelp:     "help",
	ViewSettings: "settings",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the root model to switch screens.
type ViewChanged struct {
	View ViewType
}

// AnswersCompleted carries the outcome of one ask run. Err is set only when
// the document itself failed; per-question failures live in Results.
type AnswersCompleted struct {
	Results []domain.QuestionResult
	Err     error
}

type ErrorOccurred struct {
	Err error
}

type Quit struct{}

type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

type SettingsSaved struct {
	Err error
}

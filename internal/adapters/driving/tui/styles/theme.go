// Package styles provides the colour palette and lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the docqa palette. Every colour adapts to light and dark
// terminal backgrounds.
type Theme struct {
	Accent    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultTheme returns the teal and amber docqa palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Good:      lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
		Caution:   lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FDE68A"},
		Bad:       lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles shared by every view.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Help       lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Answer renders a grounded answer body.
	Answer lipgloss.Style

	// Unanswered renders a question whose answer is the not-available sentinel.
	Unanswered lipgloss.Style
}

// NewStyles builds styles from theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame)

	return &Styles{
		theme:      theme,
		Title:      fg(theme.Accent).Bold(true),
		Subtitle:   fg(theme.Highlight).Bold(true),
		Normal:     fg(theme.Text),
		Muted:      fg(theme.Subtle),
		Selected:   fg(theme.Bar).Background(theme.Accent).Bold(true),
		Error:      fg(theme.Bad),
		Success:    fg(theme.Good),
		Warning:    fg(theme.Caution),
		Help:       fg(theme.Subtle).Italic(true),
		InputField: frame.Padding(0, 1),
		StatusBar:  fg(theme.Subtle).Background(theme.Bar).Padding(0, 1),
		Border:     frame,
		Answer:     fg(theme.Text),
		Unanswered: fg(theme.Caution).Italic(true),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForAnswer picks the style for an answer body: Error for a failed
// question, Unanswered for the not-available sentinel, Answer otherwise.
func (s *Styles) ForAnswer(failed, unanswered bool) lipgloss.Style {
	switch {
	case failed:
		return s.Error
	case unanswered:
		return s.Unanswered
	default:
		return s.Answer
	}
}

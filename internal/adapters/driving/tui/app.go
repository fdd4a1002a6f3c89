package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

var _ tea.Model = (*App)(nil)

// App routes messages between the menu, ask, settings and help screens.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	menu     *menu.View
	ask      *ask.View
	settings *settings.View

	currentView messages.ViewType
	results     []domain.QuestionResult
	err         error

	width, height int
	ready         bool
	inline        bool
}

// NewApp builds the screens over ports. Answering is required.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrInvalidPorts)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Selected.UnsetBackground()
	h.Styles.FullDesc = s.Muted
	h.Styles.FullSeparator = s.Muted

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keys:        km,
		help:        h,
		menu:        menu.NewView(s),
		ask:         ask.NewView(s, km, ports.Answering),
		settings:    settings.NewView(s, ports.Settings),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext scopes pipeline runs started from the ask screen to ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.ask.WithContext(ctx)
	return a
}

// Inline keeps the program in the normal screen buffer.
func (a *App) Inline() *App {
	a.inline = true
	return a
}

func (a *App) Init() tea.Cmd {
	title := tea.SetWindowTitle("docqa - Document Q&A")
	if a.inline {
		return title
	}
	return tea.Batch(tea.EnterAltScreen, title)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.AnswersCompleted:
		// Runs outlive the ask screen, so results are always delivered.
		var cmd tea.Cmd
		a.ask, cmd = a.ask.Update(msg)
		a.results = a.ask.Results()
		a.err = a.ask.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView != messages.ViewAsk && !a.ask.Running() {
			return a, nil
		}
		var cmd tea.Cmd
		a.ask, cmd = a.ask.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		if a.currentView != messages.ViewSettings {
			return a, nil
		}
		var cmd tea.Cmd
		a.settings, cmd = a.settings.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands msg to the active screen.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewAsk:
		a.ask, cmd = a.ask.Update(msg)
		if _, isKey := msg.(tea.KeyMsg); isKey {
			a.err = a.ask.Err()
		}
	case messages.ViewSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewAsk:
		// A run in flight keeps its queued questions.
		if !a.ask.Running() {
			a.ask.Reset()
		}
		return a.ask.Init()
	case messages.ViewSettings:
		a.settings.Reset()
		return a.settings.Init()
	}
	return nil
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.currentView {
	case messages.ViewAsk:
		return a.ask.View()
	case messages.ViewSettings:
		return a.settings.View()
	case messages.ViewHelp:
		return a.viewHelp()
	}
	return a.menu.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Normal.Render(
		"Enter a PDF or DOCX URL, queue questions and press ctrl+r. The document is\n" +
			"downloaded, split into overlapping chunks and indexed once; each question is\n" +
			"answered from the passages most relevant to it. Press n on the answers to\n" +
			"ask more about the same document without indexing it again."))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run blocks until the program exits.
func (a *App) Run() error {
	opts := []tea.ProgramOption{tea.WithContext(a.ctx)}
	if !a.inline {
		opts = append(opts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(a, opts...).Run()
	return err
}

// IsInline reports whether Inline was called.
func (a *App) IsInline() bool { return a.inline }

// Results are the answers from the last completed run.
func (a *App) Results() []domain.QuestionResult { return a.results }

func (a *App) CurrentView() messages.ViewType { return a.currentView }

// Err is the last error reported by any screen.
func (a *App) Err() error { return a.err }

func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes the app and every screen.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height, a.ready = width, height, true
	a.help.Width = width
	a.menu.SetDimensions(width, height)
	a.ask.SetDimensions(width, height)
	a.settings.SetDimensions(width, height)
}

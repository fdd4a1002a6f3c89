// Package settings provides the provider configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoSettingsService is reported when the view has no settings port.
var ErrNoSettingsService = errors.New("settings service not available")

// Section is the part of the view that receives keys.
type Section int

const (
	SectionOverview Section = iota
	SectionEmbedding
	SectionLLM
)

// overviewItems maps overview rows to the section they open.
var overviewItems = []Section{SectionEmbedding, SectionLLM}

// picker chooses a provider for one role and collects its API key.
type picker struct {
	title     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	cursor    int
	key       textinput.Model
}

func newPicker(title string, providers []domain.AIProvider, models map[domain.AIProvider]string) *picker {
	key := textinput.New()
	key.Placeholder = "Enter API key"
	key.EchoMode = textinput.EchoPassword
	key.CharLimit = 256
	return &picker{title: title, providers: providers, models: models, key: key}
}

func (p *picker) current() domain.AIProvider {
	return p.providers[p.cursor]
}

func (p *picker) editingKey() bool {
	return p.key.Focused()
}

// point moves the cursor to provider, or to the first entry if absent.
func (p *picker) point(provider domain.AIProvider) {
	p.cursor = 0
	for i, candidate := range p.providers {
		if candidate == provider {
			p.cursor = i
			return
		}
	}
}

func (p *picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.providers)-1)
}

func (p *picker) reset() {
	p.key.SetValue("")
	p.key.Blur()
}

// View is the settings configuration view.
type View struct {
	styles *styles.Styles
	svc    driving.SettingsService

	settings *domain.AppSettings
	err      error

	section   Section
	cursor    int
	embedding *picker
	llm       *picker

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view. A nil service renders errors
// instead of saving.
func NewView(s *styles.Styles, svc driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		svc:       svc,
		section:   SectionOverview,
		embedding: newPicker("Select Embedding Provider", domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()),
		llm:       newPicker("Select LLM Provider", domain.AllLLMProviders(), domain.DefaultLLMModels()),
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// save stores the active picker's provider with its default model.
func (v *View) save(section Section) tea.Cmd {
	svc := v.svc
	p := v.picker(section)
	provider, model, apiKey := p.current(), p.models[p.current()], p.key.Value()
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		if section == SectionEmbedding {
			return messages.SettingsSaved{Err: svc.SetEmbeddingProvider(provider, model, apiKey)}
		}
		return messages.SettingsSaved{Err: svc.SetLLMProvider(provider, model, apiKey)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}

	case messages.SettingsSaved:
		v.err = msg.Err
		if msg.Err == nil {
			v.backToOverview()
			return v, v.load()
		}

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		if v.section == SectionOverview {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
		v.backToOverview()
		return v, nil
	}

	if v.section == SectionOverview {
		switch msg.String() {
		case "up", "k":
			v.cursor = max(v.cursor-1, 0)
		case "down", "j":
			v.cursor = min(v.cursor+1, len(overviewItems)-1)
		case "enter":
			v.open(overviewItems[v.cursor])
		}
		return v, nil
	}

	return v.handlePickerKey(v.section, msg)
}

func (v *View) handlePickerKey(section Section, msg tea.KeyMsg) (*View, tea.Cmd) {
	p := v.picker(section)

	if p.editingKey() {
		switch msg.String() {
		case "tab", "shift+tab":
			p.key.Blur()
			return v, nil
		case "enter":
			return v, v.save(section)
		}
		var cmd tea.Cmd
		p.key, cmd = p.key.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		p.move(-1)
	case "down", "j":
		p.move(1)
	case "tab":
		if p.current().RequiresAPIKey() {
			return v, p.key.Focus()
		}
	case "enter":
		if p.current().RequiresAPIKey() {
			return v, p.key.Focus()
		}
		return v, v.save(section)
	}
	return v, nil
}

func (v *View) open(section Section) {
	v.section = section
	if v.settings == nil {
		v.picker(section).point("")
		return
	}
	if section == SectionEmbedding {
		v.embedding.point(v.settings.Embedding.Provider)
	} else {
		v.llm.point(v.settings.LLM.Provider)
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.cursor = 0
	v.embedding.reset()
	v.llm.reset()
}

func (v *View) picker(section Section) *picker {
	if section == SectionEmbedding {
		return v.embedding
	}
	return v.llm
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Provider changes apply the next time docqa starts."))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if v.section == SectionOverview {
		b.WriteString(v.renderOverview())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back"))
		return b.String()
	}

	p := v.picker(v.section)
	b.WriteString(v.renderPicker(p, v.currentProvider(v.section)))
	b.WriteString("\n")
	if p.editingKey() {
		b.WriteString(v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back"))
	} else {
		b.WriteString(v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back"))
	}
	return b.String()
}

func (v *View) currentProvider(section Section) domain.AIProvider {
	if section == SectionEmbedding {
		return v.settings.Embedding.Provider
	}
	return v.settings.LLM.Provider
}

func (v *View) renderOverview() string {
	s := v.settings
	rows := []struct {
		label      string
		provider   domain.AIProvider
		model      string
		configured bool
	}{
		{"Embedding Provider", s.Embedding.Provider, s.Embedding.Model, s.Embedding.IsConfigured()},
		{"LLM Provider", s.LLM.Provider, s.LLM.Model, s.LLM.IsConfigured()},
	}

	var b strings.Builder
	for i, row := range rows {
		value := "Not Set"
		if row.provider != "" {
			value = fmt.Sprintf("%s (%s)", row.provider.Description(), row.model)
		}
		status := v.styles.Success.Render("[configured]")
		if !row.configured {
			status = v.styles.Warning.Render("[needs API key]")
		}

		line := fmt.Sprintf("%s: %s", row.label, value)
		if i == v.cursor {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString(" " + status + "\n")
	}

	apiKey := "not set, every HTTP request is rejected"
	if s.Server.APIKey != "" {
		apiKey = "set"
	}
	details := []string{
		v.styles.Subtitle.Render("Pipeline"),
		fmt.Sprintf("  Chunks: %d characters, %d overlap", s.Pipeline.ChunkSize, s.Pipeline.ChunkOverlap),
		fmt.Sprintf("  Retrieval: MMR k=%d fetch_k=%d lambda=%.2f", s.Retrieval.K, s.Retrieval.FetchK, s.Retrieval.Lambda),
		fmt.Sprintf("  Concurrent answers: %d", s.Pipeline.ConcurrencyLimit),
		fmt.Sprintf("  Index store: %s", s.IndexStore.Kind),
		fmt.Sprintf("  HTTP API key: %s", apiKey),
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Join(details, "\n")))
	b.WriteString("\n\n")

	if v.svc != nil {
		if err := v.svc.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderPicker(p *picker, active domain.AIProvider) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(p.title))
	b.WriteString("\n\n")

	for i, provider := range p.providers {
		line := provider.Description()
		if provider == active {
			line += " (current)"
		}
		if i == p.cursor && !p.editingKey() {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
		if model, ok := p.models[provider]; ok {
			b.WriteString(v.styles.Muted.Render("    Model: " + model))
			b.WriteString("\n")
		}
	}

	if p.current().RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(p.key.View())
		b.WriteString("\n")
	}
	return b.String()
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset returns to the overview and clears errors and typed keys.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
}

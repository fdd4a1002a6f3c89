package settings

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// MockSettingsService is a mock implementation of driving.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppSettings), args.Error(1)
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	args := m.Called(settings)
	return args.Error(0)
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	args := m.Called(provider, model, apiKey)
	return args.Error(0)
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	args := m.Called(provider, model, apiKey)
	return args.Error(0)
}

func (m *MockSettingsService) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	args := m.Called()
	return args.Get(0).(domain.AppSettings)
}

// Helper function to create test settings.
func testSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Embedding.Provider = domain.AIProviderOllama
	s.Embedding.Model = "nomic-embed-text"
	s.Embedding.BaseURL = "http://localhost:11434"
	return &s
}

func TestNewView(t *testing.T) {
	mockService := new(MockSettingsService)

	view := NewView(styles.DefaultStyles(), mockService)

	require.NotNil(t, view)
	assert.Equal(t, mockService, view.svc)
	assert.Equal(t, SectionOverview, view.Section())
	assert.Equal(t, 0, view.cursor)
	assert.Equal(t, domain.AllEmbeddingProviders(), view.embedding.providers)
	assert.Equal(t, domain.AllLLMProviders(), view.llm.providers)
	assert.False(t, view.embedding.editingKey())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
}

func TestView_Init_LoadSettings_Success(t *testing.T) {
	mockService := new(MockSettingsService)
	settings := testSettings()
	mockService.On("Get").Return(settings, nil)

	view := NewView(nil, mockService)
	cmd := view.Init()

	require.NotNil(t, cmd)
	loaded, ok := cmd().(messages.SettingsLoaded)
	require.True(t, ok)
	assert.NoError(t, loaded.Err)
	assert.Equal(t, settings, loaded.Settings)
	mockService.AssertExpectations(t)
}

func TestView_Init_LoadSettings_Error(t *testing.T) {
	mockService := new(MockSettingsService)
	expectedErr := fmt.Errorf("failed to load settings")
	mockService.On("Get").Return((*domain.AppSettings)(nil), expectedErr)

	view := NewView(nil, mockService)
	loaded, ok := view.Init()().(messages.SettingsLoaded)

	require.True(t, ok)
	assert.Equal(t, expectedErr, loaded.Err)
	assert.Nil(t, loaded.Settings)
}

func TestView_Init_NoService(t *testing.T) {
	view := NewView(nil, nil)

	loaded, ok := view.Init()().(messages.SettingsLoaded)

	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoSettingsService)
}

func TestView_Update_SettingsLoaded(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	settings := testSettings()

	view.Update(messages.SettingsLoaded{Settings: settings})
	assert.Equal(t, settings, view.settings)
	assert.NoError(t, view.err)

	view.Update(messages.SettingsLoaded{Err: fmt.Errorf("boom")})
	assert.EqualError(t, view.err, "boom")
	assert.Equal(t, settings, view.settings, "failed reload keeps the last settings")
}

func TestView_Update_SettingsSaved(t *testing.T) {
	t.Run("success returns to overview and reloads", func(t *testing.T) {
		mockService := new(MockSettingsService)
		mockService.On("Get").Return(testSettings(), nil)
		view := NewView(nil, mockService)
		view.section = SectionLLM

		_, cmd := view.Update(messages.SettingsSaved{})

		assert.Equal(t, SectionOverview, view.Section())
		require.NotNil(t, cmd)
		_, ok := cmd().(messages.SettingsLoaded)
		assert.True(t, ok)
	})

	t.Run("failure stays on the picker", func(t *testing.T) {
		view := NewView(nil, new(MockSettingsService))
		view.section = SectionLLM

		_, cmd := view.Update(messages.SettingsSaved{Err: fmt.Errorf("config not writable")})

		assert.Nil(t, cmd)
		assert.Equal(t, SectionLLM, view.Section())
		assert.EqualError(t, view.err, "config not writable")
	})
}

func TestView_Update_KeyMsg_Escape(t *testing.T) {
	t.Run("from overview returns to menu", func(t *testing.T) {
		view := NewView(nil, new(MockSettingsService))

		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

		require.NotNil(t, cmd)
		changed, ok := cmd().(messages.ViewChanged)
		require.True(t, ok)
		assert.Equal(t, messages.ViewMenu, changed.View)
	})

	t.Run("from picker returns to overview", func(t *testing.T) {
		view := NewView(nil, new(MockSettingsService))
		view.section = SectionLLM
		view.cursor = 1
		view.llm.key.SetValue("half-typed")

		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

		assert.Nil(t, cmd)
		assert.Equal(t, SectionOverview, view.Section())
		assert.Equal(t, 0, view.cursor)
		assert.Empty(t, view.llm.key.Value())
	})
}

func TestView_Update_KeyMsg_Overview_Navigate(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.cursor)

	// Two rows: embedding and LLM.
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, view.cursor)

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, view.cursor)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.cursor)
}

func TestView_Update_KeyMsg_Overview_OpensPickerAtCurrentProvider(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.settings = testSettings()
	view.settings.LLM.Provider = domain.AIProviderAnthropic

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, SectionEmbedding, view.Section())
	assert.Equal(t, domain.AIProviderOllama, view.embedding.current())

	view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, SectionLLM, view.Section())
	assert.Equal(t, domain.AIProviderAnthropic, view.llm.current())
}

func TestView_Update_KeyMsg_Overview_UnknownProviderPointsAtFirst(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.settings = testSettings()
	view.settings.Embedding.Provider = domain.AIProvider("unknown")
	view.embedding.cursor = 2

	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 0, view.embedding.cursor)
}

func TestView_Update_KeyMsg_Picker_CursorBounds(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.section = SectionLLM

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.llm.cursor)

	for range domain.AllLLMProviders() {
		view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	}
	assert.Equal(t, len(domain.AllLLMProviders())-1, view.llm.cursor)
}

func TestView_Update_KeyMsg_Embedding_LocalProviderSavesDirectly(t *testing.T) {
	mockService := new(MockSettingsService)
	mockService.On("SetEmbeddingProvider", domain.AIProviderHugot, "sentence-transformers/all-MiniLM-L6-v2", "").Return(nil)

	view := NewView(nil, mockService)
	view.section = SectionEmbedding
	view.embedding.point(domain.AIProviderHugot)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	assert.NoError(t, saved.Err)
	mockService.AssertExpectations(t)
}

func TestView_Update_KeyMsg_Embedding_APIKeyFlow(t *testing.T) {
	mockService := new(MockSettingsService)
	mockService.On("SetEmbeddingProvider", domain.AIProviderOpenAI, "text-embedding-3-small", "sk-test").Return(nil)
	mockService.On("Get").Return(testSettings(), nil)

	view := NewView(nil, mockService)
	view.section = SectionEmbedding
	view.embedding.point(domain.AIProviderOpenAI)

	// Enter on a keyed provider focuses the API key input.
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, view.embedding.editingKey())
	assert.NotNil(t, cmd)

	for _, r := range "sk-test" {
		view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "sk-test", view.embedding.key.Value())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	require.NoError(t, saved.Err)

	_, reload := view.Update(saved)
	assert.Equal(t, SectionOverview, view.Section())
	assert.False(t, view.embedding.editingKey())
	assert.Empty(t, view.embedding.key.Value())

	require.NotNil(t, reload)
	loaded, ok := reload().(messages.SettingsLoaded)
	require.True(t, ok)
	view.Update(loaded)
	assert.Equal(t, "nomic-embed-text", view.settings.Embedding.Model)
	mockService.AssertExpectations(t)
}

func TestView_Update_KeyMsg_Embedding_TabTogglesInput(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.section = SectionEmbedding

	view.embedding.point(domain.AIProviderHugot)
	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, view.embedding.editingKey(), "local provider has no key field")

	view.embedding.point(domain.AIProviderOpenAI)
	view.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, view.embedding.editingKey())

	view.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.False(t, view.embedding.editingKey())
}

func TestView_Update_KeyMsg_LLM_SaveError(t *testing.T) {
	mockService := new(MockSettingsService)
	expectedErr := fmt.Errorf("config not writable")
	mockService.On("SetLLMProvider", domain.AIProviderOllama, "llama3:8b", "").Return(expectedErr)

	view := NewView(nil, mockService)
	view.section = SectionLLM
	view.llm.point(domain.AIProviderOllama)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	assert.Equal(t, expectedErr, saved.Err)
	assert.Equal(t, SectionLLM, view.Section())
}

func TestView_Update_KeyMsg_LLM_NoService(t *testing.T) {
	view := NewView(nil, nil)
	view.section = SectionLLM
	view.llm.point(domain.AIProviderOllama)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	assert.ErrorIs(t, saved.Err, ErrNoSettingsService)
}

func TestView_View_Loading(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	assert.Contains(t, view.View(), "Loading settings...")
}

func TestView_View_Overview(t *testing.T) {
	mockService := new(MockSettingsService)
	mockService.On("Validate").Return(nil)

	view := NewView(nil, mockService)
	view.settings = testSettings()

	output := view.View()

	assert.Contains(t, output, "Embedding Provider: Ollama (local) (nomic-embed-text)")
	assert.Contains(t, output, "LLM Provider: Ollama (local) (llama3:8b)")
	assert.Contains(t, output, "k=5 fetch_k=10 lambda=0.50")
	assert.Contains(t, output, "1000 characters, 200 overlap")
	assert.Contains(t, output, "Concurrent answers: 8")
	assert.Contains(t, output, "HTTP API key: not set")
	assert.Contains(t, output, "Configuration is valid")
	mockService.AssertExpectations(t)
}

func TestView_View_Overview_ValidationWarning(t *testing.T) {
	mockService := new(MockSettingsService)
	mockService.On("Validate").Return(fmt.Errorf("LLM provider requires an API key"))

	view := NewView(nil, mockService)
	view.settings = testSettings()
	view.settings.Server.APIKey = "secret"

	output := view.View()

	assert.Contains(t, output, "Warning: LLM provider requires an API key")
	assert.Contains(t, output, "HTTP API key: set")
	assert.NotContains(t, output, "secret")
}

func TestView_View_Picker(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.settings = testSettings()

	view.section = SectionEmbedding
	view.embedding.point(domain.AIProviderOpenAI)
	output := view.View()
	assert.Contains(t, output, "Select Embedding Provider")
	assert.Contains(t, output, "Ollama (local) (current)")
	assert.Contains(t, output, "Model: text-embedding-3-small")
	assert.Contains(t, output, "API Key:")

	view.section = SectionLLM
	view.llm.point(domain.AIProviderOllama)
	output = view.View()
	assert.Contains(t, output, "Select LLM Provider")
	assert.NotContains(t, output, "API Key:")
}

func TestView_View_Error(t *testing.T) {
	view := NewView(nil, nil)
	view.Update(messages.SettingsLoaded{Err: ErrNoSettingsService})

	assert.Contains(t, view.View(), "Error: settings service not available")
}

func TestView_Reset(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))
	view.section = SectionLLM
	view.cursor = 1
	view.err = fmt.Errorf("test error")
	view.llm.key.SetValue("test-llm-key")
	view.llm.key.Focus()

	view.Reset()

	assert.Equal(t, SectionOverview, view.Section())
	assert.Equal(t, 0, view.cursor)
	assert.NoError(t, view.err)
	assert.Empty(t, view.llm.key.Value())
	assert.False(t, view.llm.editingKey())
}

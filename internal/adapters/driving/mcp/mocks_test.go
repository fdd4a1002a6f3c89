package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockAnsweringService is a mock implementation of driving.AnsweringService.
type mockAnsweringService struct {
	results []domain.QuestionResult
	err     error
	calls   int
	ref     domain.DocumentReference
}

func (m *mockAnsweringService) Run(
	_ context.Context,
	ref domain.DocumentReference,
	_ []string,
) ([]domain.QuestionResult, error) {
	m.calls++
	m.ref = ref
	return m.results, m.err
}

func (m *mockAnsweringService) Models() driving.ModelInfo {
	return driving.ModelInfo{LLM: "llama3:8b", Embedding: "all-minilm"}
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) Validate() error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

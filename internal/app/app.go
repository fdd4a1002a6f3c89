// Package app assembles the answering pipeline from settings.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/fetcher"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/bolt"
	memstore "github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// Options configures how the application is assembled.
type Options struct {
	// ConfigDir holds config.toml, prompts and local data. Empty uses ~/.docqa.
	ConfigDir string

	// Env overrides environment lookup. Nil reads the process environment.
	Env services.EnvLookup

	// Progress receives embedding progress while indexes are built.
	Progress services.ProgressFunc
}

// App holds the assembled services and the resources they own.
type App struct {
	Settings        *domain.AppSettings
	SettingsService *services.SettingsService
	Answering       *services.PipelineService
	Warnings        []string

	ai    *ai.InitResult
	store driven.IndexStore
}

// Components are the externally provided parts of a pipeline.
type Components struct {
	Embedder driven.EmbeddingService
	LLM      driven.LLMService
	Prompts  driven.PromptStore
	Store    driven.IndexStore
	Progress services.ProgressFunc
}

// NewSettingsService opens the config store in the config directory.
func NewSettingsService(opts Options) (*services.SettingsService, error) {
	dir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	svc := services.NewSettingsService(configStore, ai.NewProbe(ai.Options{ModelDir: filepath.Join(dir, "models")}))
	if opts.Env != nil {
		svc.WithEnv(opts.Env)
	}
	return svc, nil
}

// LoadSettings reads and validates settings from the config directory.
func LoadSettings(opts Options) (*services.SettingsService, *domain.AppSettings, error) {
	svc, err := NewSettingsService(opts)
	if err != nil {
		return nil, nil, err
	}

	settings, err := svc.Get()
	if err != nil {
		return nil, nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	return svc, settings, nil
}

// New loads settings, connects the model services and opens the index store.
// Unreachable model services and missing external tools are reported in
// Warnings rather than failing.
func New(ctx context.Context, opts Options) (*App, error) {
	dir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	opts.ConfigDir = dir

	settingsService, settings, err := LoadSettings(opts)
	if err != nil {
		return nil, err
	}

	aiResult, err := ai.Initialise(ctx, *settings, ai.Options{ModelDir: filepath.Join(dir, "models")})
	if err != nil {
		return nil, err
	}
	warnings := append(append([]string(nil), aiResult.Warnings...), toolWarnings()...)
	for _, w := range warnings {
		logger.Warn("%s", w)
	}

	store, err := OpenIndexStore(ctx, settings.IndexStore, dir)
	if err != nil {
		aiResult.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"), map[string]string{
		driven.PromptAnswer: services.DefaultAnswerPrompt,
	})
	if err != nil {
		logger.Warn("Prompt store unavailable, using built-in prompt: %v", err)
		prompts = nil
	}

	components := Components{
		Embedder: aiResult.EmbeddingService,
		LLM:      aiResult.LLMService,
		Store:    store,
		Progress: opts.Progress,
	}
	if prompts != nil {
		components.Prompts = prompts
	}

	answering, err := Assemble(settings, components)
	if err != nil {
		aiResult.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	return &App{
		Settings:        settings,
		SettingsService: settingsService,
		Answering:       answering,
		Warnings:        warnings,
		ai:              aiResult,
		store:           store,
	}, nil
}

// checkPDFTool reports whether pdftotext can be found.
var checkPDFTool = pdf.CheckAvailable

// toolWarnings lists the external tools the normalisers need but cannot find.
func toolWarnings() []string {
	if err := checkPDFTool(); err != nil {
		return []string{fmt.Sprintf("PDF documents cannot be read: %v\n%s", err, pdf.InstallInstructions())}
	}
	return nil
}

// Assemble wires the pipeline service from settings and components.
func Assemble(settings *domain.AppSettings, c Components) (*services.PipelineService, error) {
	if c.Embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if c.LLM == nil {
		return nil, domain.ErrLLMUnavailable
	}

	splitter, err := postprocessors.DefaultPipeline(settings.Pipeline.Stages())
	if err != nil {
		return nil, fmt.Errorf("building chunker: %w", err)
	}

	docFetcher := fetcher.New(fetcher.Config{
		MaxBytes: settings.Fetch.MaxBytes,
		Timeout:  settings.Fetch.Timeout,
	}, normalisers.DefaultRegistry())

	indexer := services.NewIndexBuilder(c.Embedder, memory.Factory, settings.Retrieval, settings.Embedding.BatchSize)
	if c.Progress != nil {
		indexer.SetProgress(c.Progress)
	}

	permit := services.NewPermit(settings.Pipeline.ConcurrencyLimit)
	answerer := services.NewAnswerer(c.LLM, permit, services.LoadAnswerPrompt(c.Prompts))

	pipeline := services.NewPipelineService(docFetcher, splitter, indexer, answerer)
	pipeline.SetIndexCache(services.NewIndexCache(settings.Pipeline.IndexCacheSize))
	if c.Store != nil {
		pipeline.SetIndexStore(c.Store)
	}

	return pipeline, nil
}

// OpenIndexStore opens the configured index store, or returns nil for none.
// File stores default to the data directory under configDir.
func OpenIndexStore(ctx context.Context, cfg domain.IndexStoreSettings, configDir string) (driven.IndexStore, error) {
	dataPath := func(name string) string {
		if cfg.DSN != "" {
			return cfg.DSN
		}
		return filepath.Join(configDir, "data", name)
	}

	var (
		store driven.IndexStore
		err   error
	)
	switch cfg.Kind {
	case domain.IndexStoreNone, "":
		return nil, nil
	case domain.IndexStoreMemory:
		store = memstore.NewIndexStore()
	case domain.IndexStoreSQLite:
		store, err = openSQLite(dataPath(sqlite.DefaultFileName))
	case domain.IndexStoreBolt:
		store, err = openBolt(dataPath(bolt.DefaultFileName))
	case domain.IndexStorePostgres:
		store, err = openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown index store %q", domain.ErrInvalidInput, cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s index store: %w", cfg.Kind, err)
	}

	logger.Info("Persisting indexes to %s store", cfg.Kind)
	return store, nil
}

func openSQLite(path string) (driven.IndexStore, error) {
	s, err := sqlite.NewStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openBolt(path string) (driven.IndexStore, error) {
	s, err := bolt.NewStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, dsn string) (driven.IndexStore, error) {
	s, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases model services and the index store.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docqa"), nil
}

package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// StageConfig is one stage's settings table from domain.PipelineConfig.
type StageConfig map[string]any

// Int returns key as an int. TOML and JSON decoding produce int64 and
// float64, so both are accepted. Missing or mistyped keys yield def.
func (c StageConfig) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Factory builds a stage from its settings table.
type Factory func(cfg StageConfig) (driven.PostProcessor, error)

// Registry maps stage names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: stage %q registered twice", domain.ErrInvalidInput, name)
	}
	r.factories[name] = f
	return nil
}

// Build assembles the stages named by cfg, in order.
func (r *Registry) Build(cfg domain.PipelineConfig) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, fmt.Errorf("%w: pipeline has no stages", domain.ErrInvalidInput)
	}

	stages := make([]driven.PostProcessor, 0, len(cfg.Processors))
	for _, name := range cfg.Processors {
		f, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown stage %q (have %v)", domain.ErrInvalidInput, name, r.Names())
		}
		stage, err := f(cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		stages = append(stages, stage)
	}
	return NewPipeline(stages...), nil
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.ProviderProbe = (*Probe)(nil)

// Probe builds a throwaway service for a configuration and pings it.
type Probe struct {
	opts    Options
	timeout time.Duration
}

// NewProbe returns a probe that builds services with opts.
func NewProbe(opts Options) *Probe {
	return &Probe{opts: opts, timeout: pingTimeout}
}

// WithTimeout bounds each ping.
func (p *Probe) WithTimeout(d time.Duration) *Probe {
	p.timeout = d
	return p
}

// ProbeEmbedding pings the embedding backend described by cfg.
func (p *Probe) ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error {
	if cfg == nil || !cfg.IsConfigured() {
		return nil
	}
	svc, err := createEmbeddingService(cfg, p.opts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer svc.Close()

	if err := p.ping(ctx, svc.Ping); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
	}
	return nil
}

// ProbeLLM pings the completion backend described by cfg.
func (p *Probe) ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error {
	if cfg == nil || !cfg.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	defer svc.Close()

	if err := p.ping(ctx, svc.Ping); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrLLMUnavailable, svc.ModelName(), err)
	}
	return nil
}

func (p *Probe) ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return fn(ctx)
}

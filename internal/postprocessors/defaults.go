package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/dedupe"
)

// Builtin returns a registry holding the chunker and dedupe stages.
func Builtin() *Registry {
	r := NewRegistry()
	_ = r.Register("chunker", newChunker)
	_ = r.Register("dedupe", newDedupe)
	return r
}

// DefaultPipeline builds cfg from the built-in stages.
func DefaultPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	return Builtin().Build(cfg)
}

// newChunker reads chunk_size and overlap.
func newChunker(cfg StageConfig) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := cfg.Int("chunk_size", 0); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap := cfg.Int("overlap", -1); overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

// newDedupe reads min_chars.
func newDedupe(cfg StageConfig) (driven.PostProcessor, error) {
	return dedupe.New(dedupe.WithMinChars(cfg.Int("min_chars", 0))), nil
}

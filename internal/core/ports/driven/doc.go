// Package driven holds the outbound ports the answering core calls.
//
// Adapters under internal/adapters/driven implement them. The core needs a
// DocumentFetcher, a PostProcessorPipeline, an EmbeddingService, a
// VectorIndex factory, an LLMService and a ConfigStore to answer anything.
// IndexStore and PromptStore may be nil: indexes are then rebuilt per
// process and the built-in prompt is used.
//
// This package imports domain and nothing else from the module.
package driven

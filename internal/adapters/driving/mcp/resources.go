package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "models",
		Name:        "models",
		Description: "Completion and embedding models used to answer questions",
		MIMEType:    "application/json",
	}, s.handleModelsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Effective pipeline and retrieval settings",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleModelsResource returns the models behind the answering service.
func (s *Server) handleModelsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	models := s.ports.Answering.Models()
	return jsonResource(req.Params.URI, map[string]string{
		"llm_model":       models.LLM,
		"embedding_model": models.Embedding,
	})
}

// settingsInfo is the public view of the settings. Secrets are omitted.
type settingsInfo struct {
	ChunkSize         int     `json:"chunk_size"`
	ChunkOverlap      int     `json:"chunk_overlap"`
	ConcurrencyLimit  int     `json:"concurrency_limit"`
	K                 int     `json:"k"`
	FetchK            int     `json:"fetch_k"`
	Lambda            float64 `json:"lambda"`
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	LLMProvider       string  `json:"llm_provider"`
	LLMModel          string  `json:"llm_model"`
	IndexStore        string  `json:"index_store"`
}

// handleSettingsResource returns the effective settings without secrets.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	return jsonResource(req.Params.URI, settingsInfo{
		ChunkSize:         settings.Pipeline.ChunkSize,
		ChunkOverlap:      settings.Pipeline.ChunkOverlap,
		ConcurrencyLimit:  settings.Pipeline.ConcurrencyLimit,
		K:                 settings.Retrieval.K,
		FetchK:            settings.Retrieval.FetchK,
		Lambda:            settings.Retrieval.Lambda,
		EmbeddingProvider: settings.Embedding.Provider.String(),
		EmbeddingModel:    settings.Embedding.Model,
		LLMProvider:       settings.LLM.Provider.String(),
		LLMModel:          settings.LLM.Model,
		IndexStore:        settings.IndexStore.Kind.String(),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

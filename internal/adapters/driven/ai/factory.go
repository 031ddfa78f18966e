// Package ai provides factory functions for creating inference provider adapters.
package ai

import (
	"fmt"

	anthropicllm "github.com/custodia-labs/regdesk/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/regdesk/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// NewInferenceProvider creates the provider named in cfg.
// Ollama is served by the OpenAI-compatible adapter at its local endpoint.
func NewInferenceProvider(cfg domain.AgentConfig) (driven.InferenceProvider, error) {
	switch cfg.Provider {
	case domain.ProviderAnthropic:
		p, err := anthropicllm.NewProvider(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.ProviderOpenAI:
		return newOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)

	case domain.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openaillm.OllamaBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = openaillm.OllamaModel
		}
		return newOpenAI(cfg.APIKey, baseURL, model)

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, cfg.Provider)
	}
}

// newOpenAI avoids returning a typed nil inside the interface.
func newOpenAI(apiKey, baseURL, model string) (driven.InferenceProvider, error) {
	p, err := openaillm.NewProvider(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

package client

import (
	"context"
	"fmt"
	"log/slog"

	"basic-agent-service/internal/config"
	"basic-agent-service/internal/llm"
)

// NewProvider creates the vendor provider selected by configuration.
// The returned provider is safe for concurrent use from multiple goroutines,
// as long as its configuration is NOT modified after creation.
func NewProvider(ctx context.Context, cfg *config.LLMConfig, logger *slog.Logger) (llm.Provider, error) {
	httpClient := NewHTTPClient(logger)

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicAdapter(cfg.APIKey, cfg.Endpoint, httpClient), nil
	case config.ProviderOpenAI:
		return NewOpenAIAdapter(cfg.APIKey, cfg.Endpoint, httpClient), nil
	case config.ProviderGemini:
		adapter, err := NewGeminiAdapter(ctx, cfg.APIKey, cfg.Endpoint, httpClient)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// NewLLM wraps provider in an llm.Client built from configuration
func NewLLM(provider llm.Provider, cfg *config.LLMConfig, logger *slog.Logger) (*llm.Client, error) {
	return llm.NewClient(provider, llm.Options{
		DefaultModel:      cfg.ModelOrDefault(),
		MaxTokens:         cfg.MaxTokens,
		Timeout:           cfg.Timeout,
		ErrorAsCompletion: cfg.ErrorAsCompletion,
		Logger:            logger,
	})
}

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"basic-agent-service/internal/config"
	"basic-agent-service/internal/llm"
	"basic-agent-service/internal/types"

	"google.golang.org/genai"
)

// GeminiAdapter implements llm.Provider using the Google GenAI client
type GeminiAdapter struct {
	client *genai.Client
}

// NewGeminiAdapter creates a new Gemini adapter.
// An empty endpoint keeps the SDK default.
func NewGeminiAdapter(ctx context.Context, apiKey, endpoint string, httpClient *http.Client) (*GeminiAdapter, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAdapter{client: client}, nil
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return config.ProviderGemini
}

// Ping sends a minimal request to verify the key and model
func (a *GeminiAdapter) Ping(ctx context.Context, model string) error {
	slog.Info("checking llm connection...", "provider", a.Name(), "model", model)
	_, err := a.Complete(ctx, &llm.Request{
		Model:     model,
		MaxTokens: 1,
		Messages:  llm.BuildMessages("hello", ""),
	})
	if err != nil {
		return fmt.Errorf("llm ping failed: %w", err)
	}
	slog.Info("llm connection verified", "provider", a.Name())
	return nil
}

// Complete sends a GenerateContent request and returns the first text part
func (a *GeminiAdapter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	contents, system := toGeminiContents(req.Messages)

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", a.wrapError(err)
	}

	if text, ok := firstGeminiText(resp); ok {
		return text, nil
	}
	return "", types.NewProviderError(a.Name(), 0, errors.New("no text content in response"))
}

// toGeminiContents splits the system instruction from the conversation contents
func toGeminiContents(messages []llm.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system string
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = msg.Content
		case llm.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents, system
}

func firstGeminiText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				return part.Text, true
			}
		}
	}
	return "", false
}

func (a *GeminiAdapter) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return types.NewProviderError(a.Name(), apiErr.Code, err)
	}
	return types.NewProviderError(a.Name(), 0, err)
}

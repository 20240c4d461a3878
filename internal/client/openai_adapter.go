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

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements llm.Provider using OpenAI official client
type OpenAIAdapter struct {
	client *openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
// An empty endpoint keeps the SDK default; SDK retries are disabled.
func NewOpenAIAdapter(apiKey, endpoint string, httpClient *http.Client) *OpenAIAdapter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	return &OpenAIAdapter{client: &client}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return config.ProviderOpenAI
}

// Ping sends a minimal request to verify connection
func (a *OpenAIAdapter) Ping(ctx context.Context, model string) error {
	slog.Info("checking llm connection...", "provider", a.Name(), "model", model)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("hello"),
		},
		MaxTokens: openai.Int(1),
	}
	if _, err := a.client.Chat.Completions.New(ctx, params); err != nil {
		return fmt.Errorf("llm ping failed: %w", a.wrapError(err))
	}
	slog.Info("llm connection verified", "provider", a.Name())
	return nil
}

// Complete sends a chat completion request and returns the first choice text
func (a *OpenAIAdapter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(req.Model),
		Messages:  toOpenAIMessages(req.Messages),
		MaxTokens: openai.Int(req.MaxTokens),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", a.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", types.NewProviderError(a.Name(), 0, errors.New("no openai response"))
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// wrapError attaches the vendor status code when the SDK returned an API error
func (a *OpenAIAdapter) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return types.NewProviderError(a.Name(), apiErr.StatusCode, err)
	}
	return types.NewProviderError(a.Name(), 0, err)
}

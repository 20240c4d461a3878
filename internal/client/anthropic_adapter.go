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

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter implements llm.Provider using the official Anthropic client
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates a new Anthropic adapter.
// An empty endpoint keeps the SDK default; SDK retries are disabled.
func NewAnthropicAdapter(apiKey, endpoint string, httpClient *http.Client) *AnthropicAdapter {
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
	return &AnthropicAdapter{client: anthropic.NewClient(opts...)}
}

// Name returns the provider name
func (a *AnthropicAdapter) Name() string {
	return config.ProviderAnthropic
}

// Ping sends a minimal request to verify the key and model
func (a *AnthropicAdapter) Ping(ctx context.Context, model string) error {
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

// Complete sends one Messages API request and returns the first text block
func (a *AnthropicAdapter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toAnthropicMessages(req.Messages),
	}
	// The Messages API takes the system prompt outside the message list
	if system := req.System(); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", a.wrapError(err)
	}

	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			return text.Text, nil
		}
	}
	return "", types.NewProviderError(a.Name(), 0, errors.New("no text content in response"))
}

func toAnthropicMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleUser {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

// wrapError attaches the vendor status code when the SDK returned an API error
func (a *AnthropicAdapter) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return types.NewProviderError(a.Name(), apiErr.StatusCode, err)
	}
	return types.NewProviderError(a.Name(), 0, err)
}

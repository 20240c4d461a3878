package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basic-agent-service/internal/config"
	"basic-agent-service/internal/metrics"
)

// Role identifies the author of a message sent to the model.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of the conversation sent to the vendor.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request as seen by a Provider.
type Request struct {
	Model     string
	MaxTokens int64
	Messages  []Message
}

// System returns the system message content, or "" if there is none.
func (r *Request) System() string {
	if len(r.Messages) > 0 && r.Messages[0].Role == RoleSystem {
		return r.Messages[0].Content
	}
	return ""
}

// Provider defines the interface for a vendor LLM API.
type Provider interface {
	// Name returns the vendor name used in logs and metrics.
	Name() string
	// Complete performs one blocking call and returns the first text segment.
	Complete(ctx context.Context, req *Request) (string, error)
}

// Options configure a Client.
type Options struct {
	DefaultModel string
	MaxTokens    int64
	Timeout      time.Duration
	// ErrorAsCompletion returns vendor failures as completion text instead of an error.
	ErrorAsCompletion bool
	Logger            *slog.Logger
}

// Client wraps a Provider with a default model and generation cap.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	provider          Provider
	defaultModel      string
	maxTokens         int64
	timeout           time.Duration
	errorAsCompletion bool
	logger            *slog.Logger
}

// NewClient creates a Client. It fails if the provider or default model is missing.
func NewClient(provider Provider, opts Options) (*Client, error) {
	if provider == nil {
		return nil, errors.New("llm provider is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model is required")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider:          provider,
		defaultModel:      opts.DefaultModel,
		maxTokens:         opts.MaxTokens,
		timeout:           opts.Timeout,
		errorAsCompletion: opts.ErrorAsCompletion,
		logger:            logger.With("component", config.ComponentLLM),
	}, nil
}

// DefaultModel returns the model used when no override is given
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// ProviderName returns the name of the underlying provider
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

type completionOptions struct {
	system string
	model  string
}

// CompletionOption customises a single GetCompletion call.
type CompletionOption func(*completionOptions)

// WithSystemMessage sets the system message placed before the user message.
func WithSystemMessage(system string) CompletionOption {
	return func(o *completionOptions) { o.system = system }
}

// WithModel overrides the default model. An empty value keeps the default.
func WithModel(model string) CompletionOption {
	return func(o *completionOptions) { o.model = model }
}

// BuildMessages assembles the message list: the system message first when
// present, the user message always last.
func BuildMessages(userMessage, systemMessage string) []Message {
	messages := make([]Message, 0, 2)
	if systemMessage != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemMessage})
	}
	return append(messages, Message{Role: RoleUser, Content: userMessage})
}

// GetCompletion sends the user message to the provider and returns the completion text.
func (c *Client) GetCompletion(ctx context.Context, userMessage string, opts ...CompletionOption) (string, error) {
	var o completionOptions
	for _, opt := range opts {
		opt(&o)
	}

	model := o.model
	if model == "" {
		model = c.defaultModel
	}

	req := &Request{
		Model:     model,
		MaxTokens: c.maxTokens,
		Messages:  BuildMessages(userMessage, o.system),
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	providerName := c.provider.Name()
	start := time.Now()
	text, err := c.provider.Complete(ctx, req)
	metrics.LLMCallDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Error("llm call failed",
			"provider", providerName,
			"model", model,
			"duration", time.Since(start),
			"error", err,
		)
		if c.errorAsCompletion {
			metrics.LLMCalls.WithLabelValues(providerName, model, "masked").Inc()
			return fmt.Sprintf(config.ErrorCompletionFormat, err), nil
		}
		metrics.LLMCalls.WithLabelValues(providerName, model, "error").Inc()
		return "", fmt.Errorf("get completion: %w", err)
	}

	metrics.LLMCalls.WithLabelValues(providerName, model, "success").Inc()
	c.logger.Debug("llm call completed",
		"provider", providerName,
		"model", model,
		"duration", time.Since(start),
		"chars", len(text),
	)
	return text, nil
}

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// MockProvider implements Provider for testing
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req *Request) (string, error)
	Calls        []*Request
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req *Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "ok", nil
}

func newTestClient(t *testing.T, p Provider, opts Options) *Client {
	t.Helper()
	if opts.DefaultModel == "" {
		opts.DefaultModel = "default-model"
	}
	c, err := NewClient(p, opts)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(nil, Options{DefaultModel: "m"}); err == nil {
		t.Error("expected error for nil provider")
	}
	if _, err := NewClient(&MockProvider{}, Options{}); err == nil {
		t.Error("expected error for empty default model")
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("hi", "be nice")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "be nice" {
		t.Errorf("expected system message first, got %+v", msgs[0])
	}
	if last := msgs[len(msgs)-1]; last.Role != RoleUser || last.Content != "hi" {
		t.Errorf("expected user message last, got %+v", last)
	}

	msgs = BuildMessages("hi", "")
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Errorf("expected only the user message without a system message, got %+v", msgs)
	}
}

func TestGetCompletion_SubmitsOrderedMessages(t *testing.T) {
	p := &MockProvider{}
	c := newTestClient(t, p, Options{})

	if _, err := c.GetCompletion(context.Background(), "What is 2+2?", WithSystemMessage("Be brief.")); err != nil {
		t.Fatalf("GetCompletion failed: %v", err)
	}
	if len(p.Calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(p.Calls))
	}

	req := p.Calls[0]
	if req.Messages[0].Role != RoleSystem {
		t.Errorf("expected first message to be system, got %s", req.Messages[0].Role)
	}
	if req.System() != "Be brief." {
		t.Errorf("expected system content, got %q", req.System())
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != RoleUser || last.Content != "What is 2+2?" {
		t.Errorf("expected user message last, got %+v", last)
	}
	if req.MaxTokens != 1024 {
		t.Errorf("expected max tokens 1024, got %d", req.MaxTokens)
	}
}

func TestGetCompletion_ModelSelection(t *testing.T) {
	p := &MockProvider{}
	c := newTestClient(t, p, Options{DefaultModel: "claude-3-opus-20240229"})

	c.GetCompletion(context.Background(), "q")
	c.GetCompletion(context.Background(), "q", WithModel("claude-3-haiku-20240307"))
	c.GetCompletion(context.Background(), "q", WithModel(""))

	want := []string{"claude-3-opus-20240229", "claude-3-haiku-20240307", "claude-3-opus-20240229"}
	for i, w := range want {
		if p.Calls[i].Model != w {
			t.Errorf("call %d: expected model %s, got %s", i, w, p.Calls[i].Model)
		}
	}
}

func TestGetCompletion_ReturnsText(t *testing.T) {
	p := &MockProvider{CompleteFunc: func(ctx context.Context, req *Request) (string, error) {
		return "4", nil
	}}
	c := newTestClient(t, p, Options{})

	got, err := c.GetCompletion(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatalf("GetCompletion failed: %v", err)
	}
	if got != "4" {
		t.Errorf("expected 4, got %q", got)
	}
}

func TestGetCompletion_PropagatesVendorError(t *testing.T) {
	vendorErr := errors.New("connection refused")
	p := &MockProvider{CompleteFunc: func(ctx context.Context, req *Request) (string, error) {
		return "", vendorErr
	}}
	c := newTestClient(t, p, Options{})

	got, err := c.GetCompletion(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, vendorErr) {
		t.Errorf("expected wrapped vendor error, got %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestGetCompletion_ErrorAsCompletion(t *testing.T) {
	p := &MockProvider{CompleteFunc: func(ctx context.Context, req *Request) (string, error) {
		return "", errors.New("connection refused")
	}}
	c := newTestClient(t, p, Options{ErrorAsCompletion: true})

	got, err := c.GetCompletion(context.Background(), "q")
	if err != nil {
		t.Fatalf("expected error to be masked, got %v", err)
	}
	want := "An error occurred while processing your request: connection refused"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGetCompletion_Timeout(t *testing.T) {
	p := &MockProvider{CompleteFunc: func(ctx context.Context, req *Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	c := newTestClient(t, p, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := c.GetCompletion(context.Background(), "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not applied")
	}
	if !strings.Contains(err.Error(), "get completion") {
		t.Errorf("expected wrapped error, got %q", err.Error())
	}
}

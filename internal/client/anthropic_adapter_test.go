package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"basic-agent-service/internal/llm"
	"basic-agent-service/internal/types"

	"github.com/tidwall/gjson"
)

func anthropicTextResponse(text string) string {
	return `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-opus-20240229",
		"content": [{"type": "text", "text": "` + text + `"}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 12, "output_tokens": 1}
	}`
}

func TestAnthropicAdapter_Complete(t *testing.T) {
	var body []byte
	var apiKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		apiKey = r.Header.Get("X-Api-Key")
		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, anthropicTextResponse("4"))
	}))
	defer ts.Close()

	adapter := NewAnthropicAdapter("test-key", ts.URL, ts.Client())

	got, err := adapter.Complete(context.Background(), &llm.Request{
		Model:     "claude-3-opus-20240229",
		MaxTokens: 1024,
		Messages:  llm.BuildMessages("What is 2+2?", "Be brief."),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "4" {
		t.Errorf("Expected '4', got %q", got)
	}

	if apiKey != "test-key" {
		t.Errorf("Expected api key header, got %q", apiKey)
	}
	if m := gjson.GetBytes(body, "model").String(); m != "claude-3-opus-20240229" {
		t.Errorf("Expected model in request, got %q", m)
	}
	if n := gjson.GetBytes(body, "max_tokens").Int(); n != 1024 {
		t.Errorf("Expected max_tokens 1024, got %d", n)
	}
	if s := gjson.GetBytes(body, "system.0.text").String(); s != "Be brief." {
		t.Errorf("Expected system prompt, got %q", s)
	}
	msgs := gjson.GetBytes(body, "messages").Array()
	if len(msgs) != 1 {
		t.Fatalf("Expected only the user message in messages, got %d", len(msgs))
	}
	if role := msgs[0].Get("role").String(); role != "user" {
		t.Errorf("Expected user role, got %q", role)
	}
	if text := msgs[0].Get("content.0.text").String(); text != "What is 2+2?" {
		t.Errorf("Expected user text, got %q", text)
	}
}

func TestAnthropicAdapter_NoSystem(t *testing.T) {
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, anthropicTextResponse("hi"))
	}))
	defer ts.Close()

	adapter := NewAnthropicAdapter("test-key", ts.URL, ts.Client())
	if _, err := adapter.Complete(context.Background(), &llm.Request{
		Model:     "m",
		MaxTokens: 10,
		Messages:  llm.BuildMessages("hello", ""),
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if gjson.GetBytes(body, "system").Exists() {
		t.Errorf("Expected no system field, got %s", gjson.GetBytes(body, "system").Raw)
	}
}

func TestAnthropicAdapter_APIError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer ts.Close()

	adapter := NewAnthropicAdapter("test-key", ts.URL, ts.Client())
	_, err := adapter.Complete(context.Background(), &llm.Request{
		Model: "m", MaxTokens: 10, Messages: llm.BuildMessages("q", ""),
	})
	if err == nil {
		t.Fatal("Expected error")
	}

	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", pe.StatusCode)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one attempt, got %d", calls)
	}
}

func TestAnthropicAdapter_ConnectionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	adapter := NewAnthropicAdapter("test-key", url, nil)
	_, err := adapter.Complete(context.Background(), &llm.Request{
		Model: "m", MaxTokens: 10, Messages: llm.BuildMessages("q", ""),
	})
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if code := types.StatusCode(err); code != 0 {
		t.Errorf("Expected no status code, got %d", code)
	}
	if !types.IsRetryable(err) {
		t.Error("Expected connection failure to be classified as transient")
	}
}

func TestAnthropicAdapter_NoTextContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_01","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer ts.Close()

	adapter := NewAnthropicAdapter("test-key", ts.URL, ts.Client())
	if _, err := adapter.Complete(context.Background(), &llm.Request{
		Model: "m", MaxTokens: 10, Messages: llm.BuildMessages("q", ""),
	}); err == nil {
		t.Fatal("Expected error for empty content")
	}
}

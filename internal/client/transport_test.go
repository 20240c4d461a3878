package client

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestInstrumentedTransport_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var buf bytes.Buffer
	c := &http.Client{Transport: &InstrumentedTransport{Logger: newBufferLogger(&buf)}}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/messages", nil)
	req.Header.Set("x-api-key", "secret-key")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "status=200") {
		t.Errorf("expected debug line with status, got %q", out)
	}
	if strings.Contains(out, "secret-key") {
		t.Error("api key leaked into logs")
	}
}

func TestInstrumentedTransport_ServerErrorLogsWarn(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	var buf bytes.Buffer
	c := &http.Client{Transport: &InstrumentedTransport{Logger: newBufferLogger(&buf)}}

	resp, err := c.Get(ts.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected warn line for 502, got %q", buf.String())
	}
}

func TestInstrumentedTransport_ConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	var buf bytes.Buffer
	c := &http.Client{Transport: &InstrumentedTransport{Logger: newBufferLogger(&buf)}}

	if _, err := c.Get(url); err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(buf.String(), "vendor request failed") {
		t.Errorf("expected failure log, got %q", buf.String())
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(nil)
	if _, ok := c.Transport.(*InstrumentedTransport); !ok {
		t.Fatalf("expected InstrumentedTransport, got %T", c.Transport)
	}
	if c.Timeout != 0 {
		t.Errorf("expected no client timeout, got %v", c.Timeout)
	}
}

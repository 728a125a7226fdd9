package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultsModelPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		want     string
	}{
		{ProviderGemini, "key", "gemini/gemini-2.5-flash"},
		{ProviderOpenAI, "key", "openai/gpt-4o-mini"},
		{ProviderOllama, "", "ollama/llama3.2"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			gen, err := New(context.Background(), Config{Provider: tt.provider, APIKey: tt.apiKey})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if gen.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", gen.Name(), tt.want)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: ProviderGemini}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("gemini without key: err = %v", err)
	}
	if _, err := New(context.Background(), Config{Provider: ProviderOpenAI}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("openai without key: err = %v", err)
	}
	if _, err := New(context.Background(), Config{Provider: "bard"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider: err = %v", err)
	}
	if _, err := New(context.Background(), Config{Provider: ProviderOllama, BaseURL: "::not a url"}); err == nil {
		t.Error("expected invalid ollama url error")
	}
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("no key")
	gen := Unavailable{Provider: ProviderGemini, Err: cause}

	_, err := gen.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrProviderDisabled) {
		t.Fatalf("err = %v, want ErrProviderDisabled", err)
	}
	if !strings.Contains(err.Error(), "no key") {
		t.Errorf("err = %v, want cause in message", err)
	}
	if gen.Name() != "gemini (unavailable)" {
		t.Errorf("Name() = %q", gen.Name())
	}
}

func TestOpenAICompatibleGenerate(t *testing.T) {
	var gotPrompt, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"[\"a\",\"b\"]"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAICompatibleClient(Config{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "m", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewOpenAICompatibleClient: %v", err)
	}
	out, err := gen.Generate(context.Background(), "captions please")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `["a","b"]` {
		t.Errorf("out = %q", out)
	}
	if gotPrompt != "captions please" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestOpenAICompatibleEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAICompatibleClient(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAICompatibleClient: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAICompatibleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAICompatibleClient(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAICompatibleClient: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}

func TestOllamaGenerate(t *testing.T) {
	var gotModel string
	var gotStream *bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model  string `json:"model"`
			Stream *bool  `json:"stream"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, gotStream = body.Model, body.Stream
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"#cat #dog","done":true}` + "\n"))
	}))
	defer srv.Close()

	gen, err := NewOllamaClient(Config{BaseURL: srv.URL, Model: "llama3.2", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}
	out, err := gen.Generate(context.Background(), "tags")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "#cat #dog" {
		t.Errorf("out = %q", out)
	}
	if gotModel != "llama3.2" {
		t.Errorf("model = %q", gotModel)
	}
	if gotStream == nil || *gotStream {
		t.Errorf("stream = %v, want false", gotStream)
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"x\""},{"text":",\"y\"]"}]}}]}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "k", Model: "gemini-2.5-flash", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	out, err := gen.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `["x","y"]` {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(gotPath, "gemini-2.5-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "k", Model: "gemini-2.5-flash"})
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "hi"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

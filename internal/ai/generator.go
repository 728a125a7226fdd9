package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyResponse    = errors.New("llm returned an empty response")
	ErrMissingAPIKey    = errors.New("llm api key is missing")
	ErrUnknownProvider  = errors.New("unknown llm provider")
	ErrProviderDisabled = errors.New("llm provider is unavailable")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-flash",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3.2",
}

// TextGenerator turns a prompt into the model's raw text reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config selects and configures one provider.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the generator for cfg.Provider. An empty model falls back to the
// provider's default.
func New(ctx context.Context, cfg Config) (TextGenerator, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAICompatibleClient(cfg)
	case ProviderOllama:
		return NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Unavailable stands in for a provider that could not be constructed. Every call fails
// with the construction error, so callers take their fallback path.
type Unavailable struct {
	Provider string
	Err      error
}

func (u Unavailable) Generate(context.Context, string) (string, error) {
	if u.Err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderDisabled, u.Err)
	}
	return "", ErrProviderDisabled
}

func (u Unavailable) Name() string {
	return u.Provider + " (unavailable)"
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

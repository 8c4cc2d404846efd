package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// Provider selects the client family behind a Completer or Embedder.
type Provider string

const (
	// ProviderOpenAI covers any OpenAI-compatible endpoint, Ollama included.
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// ParseProvider normalises a configured provider name. Empty means openai and
// "ollama" is an alias for it.
func ParseProvider(name string) (Provider, error) {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case "", "openai", "ollama":
		return ProviderOpenAI, nil
	case "gemini":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", name)
	}
}

type CompleterOptions struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
}

func NewCompleter(ctx context.Context, opts CompleterOptions) (Completer, error) {
	provider, err := ParseProvider(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("completer: %w", err)
	}
	if provider == ProviderGemini {
		return NewGeminiCompleter(ctx, opts.APIKey, opts.Model, opts.Temperature)
	}
	return NewOpenAICompleter(opts.APIKey, opts.Model, opts.BaseURL, opts.Temperature), nil
}

type EmbedderOptions struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

func NewEmbedder(ctx context.Context, opts EmbedderOptions) (Embedder, error) {
	provider, err := ParseProvider(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if provider == ProviderGemini {
		return NewGeminiEmbedder(ctx, opts.APIKey, opts.Model, opts.Dimension)
	}
	return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.Dimension, opts.BaseURL), nil
}

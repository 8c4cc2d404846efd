package knowledge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	openAIEmbedRetries = 5
	openAIRetryDelay   = 3 * time.Second
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	// dimensions is only sent when the endpoint supports truncation.
	sendDimensions bool
}

func NewOpenAIEmbedder(apiKey, model string, dim int, baseURL string) *OpenAIEmbedder {
	if strings.TrimSpace(apiKey) == "" {
		apiKey = "ollama"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		dimension:      dim,
		sendDimensions: strings.HasPrefix(model, "text-embedding-3"),
	}
}

func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

// Embed sends texts in a single request; callers chunk their input.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("openai embedding model is required")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	}
	if o.sendDimensions && o.dimension > 0 {
		req.Dimensions = o.dimension
	}

	var resp openai.EmbeddingResponse
	var err error
	for attempt := 0; attempt <= openAIEmbedRetries; attempt++ {
		resp, err = o.client.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}
		if !isRetryableOpenAIError(err) || attempt == openAIEmbedRetries {
			return nil, fmt.Errorf("openai embeddings request failed: %w", err)
		}
		if !waitOrCancel(ctx, openAIRetryDelay) {
			return nil, ctx.Err()
		}
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			continue
		}
		out[item.Index] = item.Embedding
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("embedding missing at index %d", i)
		}
	}
	return out, nil
}

func isRetryableOpenAIError(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return false
	}
	return status == http.StatusTooManyRequests || status >= 500
}

package knowledge

import (
	"context"

	"codearch/internal/model"
)

// Embedder defines the interface for converting text to vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Completer sends one system/user prompt pair to a text generation model.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FileInput is one file of a summary group.
type FileInput struct {
	Path     string
	Language model.Language
	Code     string
}

// EntityInput is one entity of an explanation group.
type EntityInput struct {
	Name     string
	Kind     model.EntityKind
	Language model.Language
	Code     string
}

// Generator produces natural-language text for a group of inputs in one call.
// Both methods return exactly one string per input, in input order.
type Generator interface {
	SummarizeFiles(ctx context.Context, files []FileInput) ([]string, error)
	ExplainEntities(ctx context.Context, entities []EntityInput) ([]string, error)
}

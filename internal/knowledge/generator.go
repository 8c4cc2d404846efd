package knowledge

import (
	"context"
	"fmt"
)

// LLMGenerator implements Generator with one Completer call per group.
type LLMGenerator struct {
	completer     Completer
	promptBuilder *PromptBuilder
}

func NewLLMGenerator(c Completer) *LLMGenerator {
	return &LLMGenerator{completer: c, promptBuilder: &PromptBuilder{}}
}

func (g *LLMGenerator) SummarizeFiles(ctx context.Context, files []FileInput) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	system, user := g.promptBuilder.BuildFileSummaryPrompt(files)
	resp, err := g.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("summarize %d files: %w", len(files), err)
	}
	return DecodeNumberedList(resp, len(files)), nil
}

func (g *LLMGenerator) ExplainEntities(ctx context.Context, entities []EntityInput) ([]string, error) {
	if len(entities) == 0 {
		return []string{}, nil
	}
	system, user := g.promptBuilder.BuildEntityExplainPrompt(entities)
	resp, err := g.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("explain %d entities: %w", len(entities), err)
	}
	return DecodeNumberedList(resp, len(entities)), nil
}

package knowledge

import (
	"fmt"
	"strings"
)

const (
	fileCodeLimit   = 3000
	entityCodeLimit = 1500
)

// PromptBuilder constructs the numbered-list prompts sent for each group.
type PromptBuilder struct{}

const fileSummarySystem = `You are a code analyst. For each numbered file below, provide a 2-3 sentence technical summary.
Format your response as a numbered list matching the input numbers. Each summary should focus on what the file does.`

const entityExplainSystem = `You are a code analyst. For each numbered function below, explain what it does in 1-2 sentences.
Focus on inputs, outputs, and purpose. Format as a numbered list matching the input numbers.`

func (pb *PromptBuilder) BuildFileSummaryPrompt(files []FileInput) (string, string) {
	var sb strings.Builder
	sb.WriteString("Summarize each file:\n\n")
	for i, f := range files {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] File: %s (Language: %s)\n```\n%s\n```", i+1, f.Path, f.Language, TruncateRunes(f.Code, fileCodeLimit))
	}
	sb.WriteString("\n\nProvide numbered summaries:")
	return fileSummarySystem, sb.String()
}

func (pb *PromptBuilder) BuildEntityExplainPrompt(entities []EntityInput) (string, string) {
	var sb strings.Builder
	sb.WriteString("Explain each function:\n\n")
	for i, e := range entities {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s (%s):\n```\n%s\n```", i+1, e.Name, e.Language, TruncateRunes(e.Code, entityCodeLimit))
	}
	sb.WriteString("\n\nProvide numbered explanations:")
	return entityExplainSystem, sb.String()
}

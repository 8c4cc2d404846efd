package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"codearch/internal/model"
)

// CodeUnit is one candidate entity found in a file.
type CodeUnit struct {
	Name      string           `json:"name"`
	Kind      model.EntityKind `json:"kind"`
	StartLine int              `json:"start_line"`
	EndLine   int              `json:"end_line"`
	Content   string           `json:"content"`
}

// LanguageExtractor is implemented by each grammar-backed (precise) extractor.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	// ExtractUnits walks the top-level declarations under root.
	ExtractUnits(root *sitter.Node, sourceCode []byte) []*CodeUnit
}

func newUnit(name string, kind model.EntityKind, span *sitter.Node, sourceCode []byte) *CodeUnit {
	return &CodeUnit{
		Name:      name,
		Kind:      kind,
		StartLine: int(span.StartPoint().Row + 1),
		EndLine:   int(span.EndPoint().Row + 1),
		Content:   string(sourceCode[span.StartByte():span.EndByte()]),
	}
}

func nodeName(node *sitter.Node, sourceCode []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Content(sourceCode)
}

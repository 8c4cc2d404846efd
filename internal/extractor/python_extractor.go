package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codearch/internal/model"
)

type PythonExtractor struct{}

func (e *PythonExtractor) GetLanguage() *sitter.Language {
	return python.GetLanguage()
}

func (e *PythonExtractor) ExtractUnits(root *sitter.Node, sourceCode []byte) []*CodeUnit {
	var units []*CodeUnit
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		units = append(units, e.extractTopLevel(child, child, sourceCode)...)
	}
	return units
}

// span is the node whose range is reported; it differs from node for decorated definitions.
func (e *PythonExtractor) extractTopLevel(node, span *sitter.Node, sourceCode []byte) []*CodeUnit {
	switch node.Type() {
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			return e.extractTopLevel(def, span, sourceCode)
		}
	case "function_definition":
		if name := nodeName(node, sourceCode); name != "" {
			return []*CodeUnit{newUnit(name, model.KindFunction, span, sourceCode)}
		}
	case "class_definition":
		name := nodeName(node, sourceCode)
		if name == "" {
			return nil
		}
		units := []*CodeUnit{newUnit(name, model.KindClass, span, sourceCode)}
		return append(units, e.extractMethods(node.ChildByFieldName("body"), sourceCode)...)
	}
	return nil
}

func (e *PythonExtractor) extractMethods(body *sitter.Node, sourceCode []byte) []*CodeUnit {
	if body == nil {
		return nil
	}
	var units []*CodeUnit
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		def := member
		if member.Type() == "decorated_definition" {
			def = member.ChildByFieldName("definition")
		}
		if def == nil || def.Type() != "function_definition" {
			continue
		}
		if name := nodeName(def, sourceCode); name != "" {
			units = append(units, newUnit(name, model.KindMethod, member, sourceCode))
		}
	}
	return units
}

package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"codearch/internal/model"
)

// JavaScriptExtractor handles JavaScript and both TypeScript dialects. The grammars share
// the declaration node names used here.
type JavaScriptExtractor struct {
	language *sitter.Language
}

func NewJavaScriptExtractor() *JavaScriptExtractor {
	return &JavaScriptExtractor{language: javascript.GetLanguage()}
}

func NewTypeScriptExtractor() *JavaScriptExtractor {
	return &JavaScriptExtractor{language: typescript.GetLanguage()}
}

// NewTSXExtractor parses .tsx files. Plain .ts must not use it: angle-bracket
// type assertions and generic arrows are JSX there.
func NewTSXExtractor() *JavaScriptExtractor {
	return &JavaScriptExtractor{language: tsx.GetLanguage()}
}

func (e *JavaScriptExtractor) GetLanguage() *sitter.Language {
	return e.language
}

func (e *JavaScriptExtractor) ExtractUnits(root *sitter.Node, sourceCode []byte) []*CodeUnit {
	var units []*CodeUnit
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		units = append(units, e.extractTopLevel(child, child, sourceCode)...)
	}
	return units
}

func (e *JavaScriptExtractor) extractTopLevel(node, span *sitter.Node, sourceCode []byte) []*CodeUnit {
	switch node.Type() {
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return e.extractTopLevel(decl, span, sourceCode)
		}
		var units []*CodeUnit
		for i := 0; i < int(node.NamedChildCount()); i++ {
			units = append(units, e.extractTopLevel(node.NamedChild(i), span, sourceCode)...)
		}
		return units
	case "function_declaration", "generator_function_declaration":
		if name := nodeName(node, sourceCode); name != "" {
			return []*CodeUnit{newUnit(name, model.KindFunction, span, sourceCode)}
		}
	case "class_declaration", "abstract_class_declaration":
		name := nodeName(node, sourceCode)
		if name == "" {
			return nil
		}
		units := []*CodeUnit{newUnit(name, model.KindClass, span, sourceCode)}
		return append(units, e.extractMethods(node.ChildByFieldName("body"), sourceCode)...)
	case "lexical_declaration", "variable_declaration":
		return e.extractFunctionBindings(node, span, sourceCode)
	}
	return nil
}

func (e *JavaScriptExtractor) extractMethods(body *sitter.Node, sourceCode []byte) []*CodeUnit {
	if body == nil {
		return nil
	}
	var units []*CodeUnit
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}
		if name := nodeName(member, sourceCode); name != "" {
			units = append(units, newUnit(name, model.KindMethod, member, sourceCode))
		}
	}
	return units
}

// extractFunctionBindings reports `const f = () => {}` style declarations as functions.
func (e *JavaScriptExtractor) extractFunctionBindings(node, span *sitter.Node, sourceCode []byte) []*CodeUnit {
	var units []*CodeUnit
	for i := 0; i < int(node.NamedChildCount()); i++ {
		declarator := node.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		value := declarator.ChildByFieldName("value")
		if value == nil || !isFunctionValue(value.Type()) {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		units = append(units, newUnit(nameNode.Content(sourceCode), model.KindFunction, span, sourceCode))
	}
	return units
}

func isFunctionValue(nodeType string) bool {
	switch nodeType {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

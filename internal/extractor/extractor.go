package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codearch/internal/model"
)

// Mode is the extraction strategy used for a language.
type Mode int

const (
	ModeUnsupported Mode = iota
	ModeFallback
	ModePrecise
)

func (m Mode) String() string {
	switch m {
	case ModePrecise:
		return "precise"
	case ModeFallback:
		return "fallback"
	case ModeUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

var errSyntax = errors.New("source contains syntax errors")

// Option configures an Extractor.
type Option func(*Extractor)

// WithPreciseParsing toggles the grammar-based strategy for every language.
func WithPreciseParsing(enabled bool) Option {
	return func(e *Extractor) {
		e.precise = enabled
	}
}

// Extractor turns file text into candidate entities. The strategy per language is
// fixed when the Extractor is built; a single call never mixes strategies.
type Extractor struct {
	precise  bool
	grammars map[model.Language]LanguageExtractor
	dialects map[string]LanguageExtractor // by file extension
	fallback map[model.Language]*regexExtractor
}

// NewExtractor creates an extractor for the supported languages.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		precise: true,
		grammars: map[model.Language]LanguageExtractor{
			model.LanguagePython:     &PythonExtractor{},
			model.LanguageJavaScript: NewJavaScriptExtractor(),
			model.LanguageTypeScript: NewTypeScriptExtractor(),
		},
		dialects: map[string]LanguageExtractor{
			".tsx": NewTSXExtractor(),
		},
		fallback: map[model.Language]*regexExtractor{
			model.LanguagePython:     pythonPatterns,
			model.LanguageJavaScript: scriptPatterns,
			model.LanguageTypeScript: scriptPatterns,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capability reports which strategy Extract uses for lang.
func (e *Extractor) Capability(lang model.Language) Mode {
	if !lang.Supported() {
		return ModeUnsupported
	}
	if _, ok := e.grammars[lang]; ok && e.precise {
		return ModePrecise
	}
	if _, ok := e.fallback[lang]; ok {
		return ModeFallback
	}
	return ModeUnsupported
}

// Extract returns the candidate entities of content. Unsupported languages yield nil.
func (e *Extractor) Extract(content string, lang model.Language) []*CodeUnit {
	units, _ := e.ExtractWithMode(content, lang)
	return units
}

// ExtractWithMode is Extract plus the strategy that produced the result. A precise
// parse that fails degrades to the fallback strategy for this file only.
func (e *Extractor) ExtractWithMode(content string, lang model.Language) ([]*CodeUnit, Mode) {
	return e.extract(content, lang, e.grammars[lang])
}

// ExtractFile is ExtractWithMode with the grammar chosen by the extension of
// path where a language has more than one dialect (.tsx against .ts).
func (e *Extractor) ExtractFile(path, content string, lang model.Language) ([]*CodeUnit, Mode) {
	grammar := e.grammars[lang]
	if dialect, ok := e.dialects[strings.ToLower(filepath.Ext(path))]; ok {
		grammar = dialect
	}
	return e.extract(content, lang, grammar)
}

func (e *Extractor) extract(content string, lang model.Language, grammar LanguageExtractor) ([]*CodeUnit, Mode) {
	switch e.Capability(lang) {
	case ModePrecise:
		units, err := e.parse(content, grammar)
		if err == nil {
			return units, ModePrecise
		}
		slog.Debug("precise parse failed, using fallback", "language", lang, "error", err)
		return e.fallback[lang].extract(content), ModeFallback
	case ModeFallback:
		return e.fallback[lang].extract(content), ModeFallback
	case ModeUnsupported:
		return nil, ModeUnsupported
	default:
		return nil, ModeUnsupported
	}
}

func (e *Extractor) parse(content string, langExt LanguageExtractor) (units []*CodeUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			units, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()

	sourceCode := []byte(content)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(langExt.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, errors.New("empty parse tree")
	}
	if root.HasError() {
		return nil, errSyntax
	}
	return langExt.ExtractUnits(root, sourceCode), nil
}

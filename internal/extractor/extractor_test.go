package extractor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearch/internal/model"
)

type span struct {
	kind       model.EntityKind
	start, end int
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func spansByName(units []*CodeUnit) map[string]span {
	out := make(map[string]span, len(units))
	for _, u := range units {
		out[u.Name] = span{u.Kind, u.StartLine, u.EndLine}
	}
	return out
}

func names(units []*CodeUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name)
	}
	return out
}

func TestExtractor_Python(t *testing.T) {
	ext := NewExtractor()
	require.Equal(t, ModePrecise, ext.Capability(model.LanguagePython))

	units, mode := ext.ExtractWithMode(readFixture(t, "sample.py"), model.LanguagePython)
	require.Equal(t, ModePrecise, mode)

	assert.Equal(t, []string{"helper", "Base", "Service", "__init__", "value_doubled", "cached"}, names(units))

	got := spansByName(units)
	assert.Equal(t, span{model.KindFunction, 4, 5}, got["helper"])
	assert.Equal(t, span{model.KindClass, 8, 9}, got["Base"])
	assert.Equal(t, span{model.KindClass, 12, 18}, got["Service"])
	assert.Equal(t, span{model.KindMethod, 13, 14}, got["__init__"])
	assert.Equal(t, span{model.KindMethod, 16, 18}, got["value_doubled"], "decorators belong to the span")
	assert.Equal(t, span{model.KindFunction, 21, 23}, got["cached"])

	for _, u := range units {
		if u.Name == "helper" {
			assert.Equal(t, "def helper(x):\n    return x + 1", u.Content)
		}
	}
}

func TestExtractor_JavaScript(t *testing.T) {
	ext := NewExtractor()

	units, mode := ext.ExtractWithMode(readFixture(t, "sample.js"), model.LanguageJavaScript)
	require.Equal(t, ModePrecise, mode)

	assert.Equal(t, []string{"loadConfig", "render", "Widget", "constructor", "draw", "exported"}, names(units))

	got := spansByName(units)
	assert.Equal(t, span{model.KindFunction, 3, 5}, got["loadConfig"])
	assert.Equal(t, span{model.KindFunction, 7, 9}, got["render"])
	assert.Equal(t, span{model.KindClass, 11, 20}, got["Widget"])
	assert.Equal(t, span{model.KindMethod, 12, 15}, got["constructor"])
	assert.Equal(t, span{model.KindMethod, 17, 19}, got["draw"])
	assert.Equal(t, span{model.KindFunction, 22, 24}, got["exported"])
}

func TestExtractor_TypeScript(t *testing.T) {
	ext := NewExtractor()

	units, mode := ext.ExtractWithMode(readFixture(t, "sample.ts"), model.LanguageTypeScript)
	require.Equal(t, ModePrecise, mode)

	assert.Equal(t, []string{"Circle", "constructor", "area", "makeCircle", "describe"}, names(units))

	got := spansByName(units)
	assert.Equal(t, span{model.KindClass, 7, 13}, got["Circle"])
	assert.Equal(t, span{model.KindMethod, 10, 12}, got["area"])
	assert.Equal(t, span{model.KindFunction, 15, 15}, got["makeCircle"])
	assert.Equal(t, span{model.KindFunction, 17, 19}, got["describe"])
}

func TestExtractor_TypeScriptDialects(t *testing.T) {
	ext := NewExtractor()

	ts := "const identity = <T>(x: T): T => x;\n\nfunction width(el: unknown): number {\n  return (<HTMLElement>el).offsetWidth;\n}\n"
	units, mode := ext.ExtractFile("src/dom.ts", ts, model.LanguageTypeScript)
	require.Equal(t, ModePrecise, mode)
	assert.Equal(t, []string{"identity", "width"}, names(units))

	tsx := "export function Badge(props: { label: string }) {\n  return <span>{props.label}</span>;\n}\n"
	units, mode = ext.ExtractFile("src/Badge.tsx", tsx, model.LanguageTypeScript)
	require.Equal(t, ModePrecise, mode)
	assert.Equal(t, []string{"Badge"}, names(units))

	// JSX is not valid in a plain .ts file.
	_, mode = ext.ExtractFile("src/Badge.ts", tsx, model.LanguageTypeScript)
	assert.Equal(t, ModeFallback, mode)
}

func TestExtractor_SyntaxErrorFallsBack(t *testing.T) {
	ext := NewExtractor()
	src := "def broken(:\n    pass\n\nclass Thing:\n    pass\n"

	units, mode := ext.ExtractWithMode(src, model.LanguagePython)
	require.Equal(t, ModeFallback, mode)
	require.Len(t, units, 2)

	assert.Equal(t, "broken", units[0].Name)
	assert.Equal(t, model.KindFunction, units[0].Kind)
	assert.Equal(t, 1, units[0].StartLine)
	assert.Equal(t, 1, units[0].EndLine)
	assert.Equal(t, "def broken(:", units[0].Content)

	assert.Equal(t, "Thing", units[1].Name)
	assert.Equal(t, model.KindClass, units[1].Kind)
	assert.Equal(t, 4, units[1].StartLine)
}

func TestExtractor_FallbackOnly(t *testing.T) {
	ext := NewExtractor(WithPreciseParsing(false))
	for _, lang := range model.SupportedLanguages {
		assert.Equal(t, ModeFallback, ext.Capability(lang))
	}

	src := strings.Join([]string{
		"async function fetchAll() {",
		"  return [];",
		"}",
		"const handler = async (req) => {",
		"  function inner() {}",
		"};",
		"class App {",
		"}",
	}, "\n")

	units := ext.Extract(src, model.LanguageJavaScript)
	require.Len(t, units, 4)

	assert.Equal(t, []string{"fetchAll", "handler", "inner", "App"}, names(units))
	assert.Equal(t, 4, units[1].StartLine)
	assert.Equal(t, "function inner() {}", units[2].Content)
	assert.Equal(t, model.KindClass, units[3].Kind)
}

func TestExtractor_Unsupported(t *testing.T) {
	ext := NewExtractor()

	assert.Equal(t, ModeUnsupported, ext.Capability(model.Language("go")))
	assert.Empty(t, ext.Extract("package main\n\nfunc main() {}\n", model.Language("go")))
	assert.Empty(t, ext.Extract("def f(): pass", model.Language("")))
}

func TestExtractor_EmptyInput(t *testing.T) {
	ext := NewExtractor()
	for _, lang := range model.SupportedLanguages {
		assert.Empty(t, ext.Extract("", lang), lang)
	}
}

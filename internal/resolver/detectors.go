package resolver

import (
	"regexp"
	"strings"

	"codearch/internal/model"
)

var callKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "def": {}, "class": {}, "return": {}, "with": {},
	"try": {}, "except": {}, "elif": {}, "else": {}, "switch": {}, "case": {}, "do": {},
	"catch": {}, "finally": {}, "function": {}, "const": {}, "let": {}, "var": {},
	"new": {}, "typeof": {}, "instanceof": {}, "delete": {}, "throw": {},
}

var (
	pythonCallRe   = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)
	scriptCallRe   = regexp.MustCompile(`([a-zA-Z_$][a-zA-Z0-9_$]*)\s*\(`)
	pythonMethodRe = regexp.MustCompile(`(?m)^\s{2,}def\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	scriptMethodRe = regexp.MustCompile(`(?m)^\s+([a-zA-Z_$][a-zA-Z0-9_$]*)\s*\(`)
	pythonBasesRe  = regexp.MustCompile(`class\s+\w+\s*\(\s*([^)]+)\s*\)`)
	extendsRe      = regexp.MustCompile(`class\s+\w+\s+extends\s+([a-zA-Z_$][a-zA-Z0-9_$]*)`)
	identifierRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// nameSet collects names in first-seen order without duplicates.
type nameSet struct {
	seen  map[string]struct{}
	order []string
}

func (s *nameSet) add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

func (s *nameSet) addMatches(re *regexp.Regexp, code string, keep func(string) bool) {
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		if keep == nil || keep(m[1]) {
			s.add(m[1])
		}
	}
}

// resolveNames turns candidate names into edges from source, counting misses.
func resolveNames(source model.Entity, names []string, idx NameIndex, kind model.RelationKind, skipSelf bool, stats *ResolveStats) []model.Relationship {
	var rels []model.Relationship
	for _, name := range names {
		stats.Attempted++
		target, ok := idx[name]
		if !ok || (skipSelf && name == source.Name) {
			stats.Skipped++
			continue
		}
		stats.Resolved++
		rels = append(rels, newEdge(source, target, kind))
	}
	return rels
}

// CallResolver links an entity to every known entity it appears to call.
type CallResolver struct{}

func NewCallResolver() *CallResolver { return &CallResolver{} }

func (r *CallResolver) Name() string { return "calls" }

func (r *CallResolver) Resolve(entities []model.Entity, idx NameIndex) ([]model.Relationship, ResolveStats) {
	var stats ResolveStats
	var rels []model.Relationship
	for _, e := range entities {
		if e.Snippet == "" {
			continue
		}
		rels = append(rels, resolveNames(e, ExtractCalls(e.Snippet), idx, model.RelationCalls, true, &stats)...)
	}
	return rels, stats
}

// ExtractCalls returns identifiers followed by an opening parenthesis, minus keywords.
func ExtractCalls(code string) []string {
	var s nameSet
	notKeyword := func(name string) bool {
		_, kw := callKeywords[name]
		return !kw
	}
	s.addMatches(pythonCallRe, code, notKeyword)
	s.addMatches(scriptCallRe, code, notKeyword)
	return s.order
}

// ContainsResolver links a class to the methods declared in its body.
type ContainsResolver struct{}

func NewContainsResolver() *ContainsResolver { return &ContainsResolver{} }

func (r *ContainsResolver) Name() string { return "contains" }

func (r *ContainsResolver) Resolve(entities []model.Entity, idx NameIndex) ([]model.Relationship, ResolveStats) {
	var stats ResolveStats
	var rels []model.Relationship
	for _, e := range entities {
		if e.Snippet == "" || e.Kind != model.KindClass {
			continue
		}
		rels = append(rels, resolveNames(e, ExtractClassMethods(e.Snippet), idx, model.RelationContains, false, &stats)...)
	}
	return rels, stats
}

// ExtractClassMethods returns indented definitions inside a class snippet.
func ExtractClassMethods(code string) []string {
	var s nameSet
	s.addMatches(pythonMethodRe, code, nil)
	s.addMatches(scriptMethodRe, code, nil)
	return s.order
}

// InheritsResolver links a class to its known base classes.
type InheritsResolver struct{}

func NewInheritsResolver() *InheritsResolver { return &InheritsResolver{} }

func (r *InheritsResolver) Name() string { return "inherits" }

func (r *InheritsResolver) Resolve(entities []model.Entity, idx NameIndex) ([]model.Relationship, ResolveStats) {
	var stats ResolveStats
	var rels []model.Relationship
	for _, e := range entities {
		if e.Snippet == "" || e.Kind != model.KindClass {
			continue
		}
		rels = append(rels, resolveNames(e, ExtractParentClasses(e.Snippet), idx, model.RelationInherits, false, &stats)...)
	}
	return rels, stats
}

// ExtractParentClasses handles `class C(A, B[T])` and `class C extends A`.
func ExtractParentClasses(code string) []string {
	var s nameSet
	for _, m := range pythonBasesRe.FindAllStringSubmatch(code, -1) {
		for _, part := range strings.Split(m[1], ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), "[")
			name = strings.TrimSpace(name)
			if identifierRe.MatchString(name) {
				s.add(name)
			}
		}
	}
	s.addMatches(extendsRe, code, nil)
	return s.order
}

package resolver

import (
	"regexp"
	"strings"

	"codearch/internal/model"
)

var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`from\s+([a-zA-Z0-9._]+)\s+import`),
	regexp.MustCompile(`import\s+([a-zA-Z0-9._]+)`),
	regexp.MustCompile(`import\s+.*from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]`),
}

// ExtractImports returns the module strings a snippet imports, in first-seen order.
func ExtractImports(code string) []string {
	var s nameSet
	for _, re := range importPatterns {
		s.addMatches(re, code, nil)
	}
	return s.order
}

// DetectImports links files through the import statements found in their entities.
// Each import resolves to the first file, in the order given, that IsImportMatch
// accepts. The resulting relationships carry no target entity.
func (d *Detector) DetectImports(files []model.File, entitiesByFile map[string][]model.Entity) []model.Relationship {
	var rels []model.Relationship
	for _, file := range files {
		for _, e := range entitiesByFile[file.ID] {
			if e.Snippet == "" {
				continue
			}
			for _, imp := range ExtractImports(e.Snippet) {
				for _, candidate := range files {
					if !IsImportMatch(imp, candidate.Path) {
						continue
					}
					rels = append(rels, model.Relationship{
						RepoID:   e.RepoID,
						SourceID: e.ID,
						Kind:     model.RelationImports,
						Metadata: &model.ImportMetadata{
							SourceFile: file.Path,
							TargetFile: candidate.Path,
							ImportName: imp,
						},
					})
					break
				}
			}
		}
	}
	d.stamp(rels)
	return rels
}

// IsImportMatch reports whether filePath is the module named by importPath, or a
// file directly inside the package directory it names.
//
//	IsImportMatch("utils.helpers", "utils/helpers.py") == true
//	IsImportMatch("./models", "models/index.js")      == true
//	IsImportMatch("utils", "helpers/utils.py")        == false
func IsImportMatch(importPath, filePath string) bool {
	imp := strings.Trim(strings.ReplaceAll(importPath, ".", "/"), "./ ")
	imp = strings.ToLower(imp)
	if imp == "" {
		return false
	}

	base := strings.ToLower(strings.ReplaceAll(filePath, `\`, "/"))
	if i := strings.LastIndex(base, "."); i > strings.LastIndex(base, "/") {
		base = base[:i]
	}
	for _, suffix := range []string{"/__init__", "/index"} {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}

	if base == imp {
		return true
	}
	leaf, ok := strings.CutPrefix(base, imp+"/")
	return ok && leaf != "" && !strings.Contains(leaf, "/")
}

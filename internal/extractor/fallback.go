package extractor

import (
	"regexp"
	"strings"

	"codearch/internal/model"
)

type linePattern struct {
	re   *regexp.Regexp
	kind model.EntityKind
}

// regexExtractor scans a file line by line. Within a kind the first matching
// pattern wins; a line may still yield both a function and a class.
type regexExtractor struct {
	functions []linePattern
	classes   []linePattern
}

var pythonPatterns = &regexExtractor{
	functions: []linePattern{
		{regexp.MustCompile(`^\s*def\s+(\w+)`), model.KindFunction},
	},
	classes: []linePattern{
		{regexp.MustCompile(`^\s*class\s+(\w+)`), model.KindClass},
	},
}

var scriptPatterns = &regexExtractor{
	functions: []linePattern{
		{regexp.MustCompile(`(?:async\s+)?function\s+(\w+)`), model.KindFunction},
		{regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\(`), model.KindFunction},
	},
	classes: []linePattern{
		{regexp.MustCompile(`^\s*class\s+(\w+)`), model.KindClass},
	},
}

func (r *regexExtractor) extract(content string) []*CodeUnit {
	var units []*CodeUnit
	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		for _, group := range [][]linePattern{r.functions, r.classes} {
			for _, p := range group {
				m := p.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				units = append(units, &CodeUnit{
					Name:      m[1],
					Kind:      p.kind,
					StartLine: lineNo,
					EndLine:   lineNo,
					Content:   strings.TrimSpace(line),
				})
				break
			}
		}
	}
	return units
}

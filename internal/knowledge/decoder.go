package knowledge

import (
	"regexp"
	"strings"
)

const (
	// PlaceholderUnavailable pads a decoded list that came back short.
	PlaceholderUnavailable = "Summary not available"
	// PlaceholderSummaryFailed replaces every summary of a failed group.
	PlaceholderSummaryFailed = "Summary generation failed"
	// PlaceholderExplainFailed replaces every explanation of a failed group.
	PlaceholderExplainFailed = "Explanation generation failed"
)

var (
	itemStartRe  = regexp.MustCompile(`^\s*(?:\[(\d+)\]|(\d+)[.)]\s)`)
	itemMarkerRe = regexp.MustCompile(`^\s*(?:\[\d+\]|\d+[.)]\s*)`)
)

// DecodeNumberedList splits a model response of the form "[1] ...", "1. ..." or
// "1) ..." into exactly n items. Lines that do not open an item continue the
// current one. Extra items are dropped. A short list falls back to blank-line
// separated paragraphs when there are enough of them, and is otherwise padded
// with PlaceholderUnavailable.
func DecodeNumberedList(resp string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	var items []string
	var current []string
	flush := func() {
		if current != nil {
			items = append(items, strings.TrimSpace(strings.Join(current, " ")))
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(resp), "\n") {
		if itemStartRe.MatchString(line) {
			flush()
			current = []string{strings.TrimSpace(itemMarkerRe.ReplaceAllString(line, ""))}
			continue
		}
		if current != nil {
			current = append(current, strings.TrimSpace(line))
		}
	}
	flush()

	if len(items) >= n {
		return items[:n]
	}

	var paragraphs []string
	for _, p := range strings.Split(resp, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) >= n {
		return paragraphs[:n]
	}

	for len(items) < n {
		items = append(items, PlaceholderUnavailable)
	}
	return items
}

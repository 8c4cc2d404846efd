package model

import (
	"fmt"
	"strings"
)

// Status is the analysis state of a repository.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus converts a stored value back into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Terminal reports whether no further transition happens without a re-queue.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPending, StatusInProgress:
		return false
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is allowed.
// Status only moves forward, except that a terminal state may be re-queued to pending.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return next == StatusPending
	default:
		return false
	}
}

// EntityKind is the closed set of extracted construct kinds.
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindClass    EntityKind = "class"
	KindMethod   EntityKind = "method"
	KindVariable EntityKind = "variable"
	KindImport   EntityKind = "import"
	KindModule   EntityKind = "module"
)

// ParseEntityKind validates a stored kind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case KindFunction, KindClass, KindMethod, KindVariable, KindImport, KindModule:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// RelationKind is the closed set of relationship kinds.
type RelationKind string

const (
	RelationCalls      RelationKind = "calls"
	RelationInherits   RelationKind = "inherits"
	RelationImports    RelationKind = "imports"
	RelationContains   RelationKind = "contains"
	RelationReferences RelationKind = "references"
)

// ParseRelationKind validates a stored kind.
func ParseRelationKind(s string) (RelationKind, error) {
	switch k := RelationKind(s); k {
	case RelationCalls, RelationInherits, RelationImports, RelationContains, RelationReferences:
		return k, nil
	default:
		return "", fmt.Errorf("unknown relationship kind %q", s)
	}
}

// FileLevel reports whether edges of this kind connect files rather than entities.
func (k RelationKind) FileLevel() bool {
	switch k {
	case RelationImports:
		return true
	case RelationCalls, RelationInherits, RelationContains, RelationReferences:
		return false
	default:
		return false
	}
}

// Language is a source language the extractor knows about.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// LanguageOther is the histogram bucket for files without a supported language.
const LanguageOther = "other"

// SupportedLanguages is the extraction allow-list.
var SupportedLanguages = []Language{LanguagePython, LanguageJavaScript, LanguageTypeScript}

// Supported reports whether l is on the allow-list.
func (l Language) Supported() bool {
	switch l {
	case LanguagePython, LanguageJavaScript, LanguageTypeScript:
		return true
	default:
		return false
	}
}

// Package model holds the typed records shared by the analysis pipeline.
package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a repository, file or entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a status change would break the status machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository is one analysed source repository.
type Repository struct {
	ID                string         `json:"id"`
	URL               string         `json:"url"`
	Owner             string         `json:"owner"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	DefaultBranch     string         `json:"default_branch,omitempty"`
	Status            Status         `json:"status"`
	StatusMessage     string         `json:"status_message"`
	Progress          float64        `json:"progress"`
	FileCount         int            `json:"file_count"`
	LanguageBreakdown map[string]int `json:"language_breakdown"`
	CreatedAt         time.Time      `json:"created_at"`
	LastSyncedAt      time.Time      `json:"last_synced_at"`
}

// File belongs to exactly one repository.
type File struct {
	ID        string   `json:"id"`
	RepoID    string   `json:"repo_id"`
	Path      string   `json:"path"`
	Extension string   `json:"extension"`
	Language  Language `json:"language,omitempty"`
	SizeBytes int64    `json:"size_bytes"`
	LineCount int      `json:"line_count"`
	Summary   string   `json:"summary,omitempty"`
}

// Entity is a named construct extracted from one file.
type Entity struct {
	ID          string     `json:"id"`
	RepoID      string     `json:"repo_id"`
	FileID      string     `json:"file_id"`
	Name        string     `json:"name"`
	Kind        EntityKind `json:"kind"`
	StartLine   int        `json:"start_line"`
	EndLine     int        `json:"end_line"`
	Snippet     string     `json:"snippet"`
	Explanation string     `json:"explanation,omitempty"`
	VectorID    string     `json:"vector_id,omitempty"`
}

// ImportMetadata identifies the two files of a file-level import edge.
type ImportMetadata struct {
	SourceFile string `json:"source_file"`
	TargetFile string `json:"target_file"`
	ImportName string `json:"import_name"`
}

// Relationship is a directed, typed edge between two entities. Import edges
// have no target entity and carry Metadata instead.
type Relationship struct {
	ID        string          `json:"id"`
	RepoID    string          `json:"repo_id"`
	SourceID  string          `json:"source_id"`
	TargetID  string          `json:"target_id,omitempty"`
	Kind      RelationKind    `json:"kind"`
	Metadata  *ImportMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasTarget reports whether the edge points at an entity.
func (r Relationship) HasTarget() bool {
	return r.TargetID != ""
}

// Embedding is the vector stored for one entity.
type Embedding struct {
	ID       string            `json:"id"`
	RepoID   string            `json:"repo_id"`
	EntityID string            `json:"entity_id"`
	Code     string            `json:"code"`
	Metadata EmbeddingMetadata `json:"metadata"`
	Vector   []float32         `json:"-"`
}

// EmbeddingMetadata describes where an embedded snippet came from.
type EmbeddingMetadata struct {
	FilePath   string     `json:"file_path"`
	EntityName string     `json:"entity_name"`
	EntityKind EntityKind `json:"entity_type"`
	RepoID     string     `json:"repo_id"`
	LineRange  [2]int     `json:"line_range"`
}

// VectorID returns the embedding reference stored on an entity.
func VectorID(entityID string) string {
	return fmt.Sprintf("entity_%s", entityID)
}

// ScoredEmbedding is an embedding ranked against a query vector.
type ScoredEmbedding struct {
	Embedding
	Similarity float64 `json:"similarity"`
}

package storage

import (
	"context"

	"codearch/internal/model"
)

// Store combines every persistence capability used by the pipeline and the CLI.
type Store interface {
	RepositoryStore
	CodeStore
	RelationshipStore
	VectorStore
	Close() error
}

// RepositoryStore persists repositories and their status machine.
type RepositoryStore interface {
	CreateRepository(ctx context.Context, repo *model.Repository) error
	GetRepository(ctx context.Context, id string) (*model.Repository, error)
	GetRepositoryByURL(ctx context.Context, url string) (*model.Repository, error)
	ListRepositories(ctx context.Context) ([]*model.Repository, error)

	// TransitionStatus changes the status, rejecting moves the status machine forbids.
	TransitionStatus(ctx context.Context, id string, to model.Status, message string, progress float64) error
	// UpdateProgress records a progress message without changing the status.
	UpdateProgress(ctx context.Context, id string, message string, progress float64) error
	UpdateRepositoryStats(ctx context.Context, id string, fileCount int, breakdown map[string]int) error
}

// CodeStore persists files and entities.
type CodeStore interface {
	// UpsertFiles inserts or updates files by (repo, path) and sets each ID.
	UpsertFiles(ctx context.Context, files []*model.File) error
	ListFiles(ctx context.Context, repoID string) ([]model.File, error)
	UpdateLineCount(ctx context.Context, fileID string, lines int) error
	UpdateFileSummaries(ctx context.Context, summaries map[string]string) error

	// UpsertEntities inserts or updates entities by natural key and sets each ID.
	UpsertEntities(ctx context.Context, entities []*model.Entity) error
	ListEntities(ctx context.Context, repoID string) ([]model.Entity, error)
	UpdateExplanations(ctx context.Context, explanations map[string]string) error
}

// RelationshipStore persists inferred relationships.
type RelationshipStore interface {
	InsertRelationships(ctx context.Context, rels []model.Relationship) error
	// ListRelationships returns the relationships of a repository, all kinds when kind is empty.
	ListRelationships(ctx context.Context, repoID string, kind model.RelationKind) ([]model.Relationship, error)
}

// VectorStore defines operations for semantic search.
type VectorStore interface {
	// SaveEmbeddings stores entity snippets with their vectors and links each entity to its vector.
	SaveEmbeddings(ctx context.Context, items []model.Embedding) error

	// SearchSimilar ranks the repository's vectors by cosine similarity to vector.
	SearchSimilar(ctx context.Context, repoID string, vector []float32, limit int) ([]model.ScoredEmbedding, error)
}

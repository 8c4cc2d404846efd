// Package analysis answers read-side questions about analysed repositories.
package analysis

import (
	"context"
	"fmt"

	"codearch/internal/graph"
	"codearch/internal/model"
)

// Store is the read access the service needs.
type Store interface {
	GetRepository(ctx context.Context, id string) (*model.Repository, error)
	ListFiles(ctx context.Context, repoID string) ([]model.File, error)
	ListEntities(ctx context.Context, repoID string) ([]model.Entity, error)
	ListRelationships(ctx context.Context, repoID string, kind model.RelationKind) ([]model.Relationship, error)
}

// StatusReport is the progress view of a repository.
type StatusReport struct {
	ID       string       `json:"id"`
	Status   model.Status `json:"status"`
	Message  string       `json:"message"`
	Progress float64      `json:"progress"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Status(ctx context.Context, repoID string) (*StatusReport, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		ID:       repo.ID,
		Status:   repo.Status,
		Message:  repo.StatusMessage,
		Progress: repo.Progress,
	}, nil
}

func (s *Service) CallGraph(ctx context.Context, repoID string) (graph.CallGraph, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return graph.CallGraph{}, err
	}
	rels, err := s.store.ListRelationships(ctx, repoID, model.RelationCalls)
	if err != nil {
		return graph.CallGraph{}, fmt.Errorf("failed to load calls: %w", err)
	}
	entities, err := s.store.ListEntities(ctx, repoID)
	if err != nil {
		return graph.CallGraph{}, fmt.Errorf("failed to load entities: %w", err)
	}
	return graph.BuildCallGraph(rels, entities), nil
}

func (s *Service) DependencyMatrix(ctx context.Context, repoID string) (*graph.DependencyMatrix, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	rels, err := s.store.ListRelationships(ctx, repoID, model.RelationImports)
	if err != nil {
		return nil, fmt.Errorf("failed to load imports: %w", err)
	}
	return graph.BuildDependencyMatrix(files, rels), nil
}

// Cycles returns the import cycles among the repository's files.
func (s *Service) Cycles(ctx context.Context, repoID string) ([][]string, error) {
	m, err := s.DependencyMatrix(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return graph.FindCycles(m), nil
}

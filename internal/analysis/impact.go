package analysis

import (
	"context"
	"fmt"

	"codearch/internal/model"
)

// ImpactReport summarizes the entities affected by a change to one file.
type ImpactReport struct {
	DirectlyAffected   []model.Entity `json:"directly_affected"`
	IndirectlyAffected []model.Entity `json:"indirectly_affected"`
}

// Impact finds the entities of path that overlap the changed lines (all of
// them when lines is empty), then walks up to maxHops levels of dependents:
// entities that call or inherit from an affected entity.
func (s *Service) Impact(ctx context.Context, repoID, path string, lines []int, maxHops int) (*ImpactReport, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	fileID := ""
	for _, f := range files {
		if f.Path == path {
			fileID = f.ID
			break
		}
	}
	if fileID == "" {
		return nil, fmt.Errorf("file %s: %w", path, model.ErrNotFound)
	}

	entities, err := s.store.ListEntities(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	rels, err := s.store.ListRelationships(ctx, repoID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	report := &ImpactReport{
		DirectlyAffected:   []model.Entity{},
		IndirectlyAffected: []model.Entity{},
	}
	byID := make(map[string]model.Entity, len(entities))
	seen := make(map[string]bool)
	frontier := make(map[string]bool)
	for _, e := range entities {
		byID[e.ID] = e
		if e.FileID == fileID && isAffected(e, lines) {
			report.DirectlyAffected = append(report.DirectlyAffected, e)
			seen[e.ID] = true
			frontier[e.ID] = true
		}
	}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		next := make(map[string]bool)
		for _, r := range rels {
			if r.Kind != model.RelationCalls && r.Kind != model.RelationInherits {
				continue
			}
			if !frontier[r.TargetID] || seen[r.SourceID] {
				continue
			}
			dep, ok := byID[r.SourceID]
			if !ok {
				continue
			}
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			seen[dep.ID] = true
			next[dep.ID] = true
		}
		frontier = next
	}
	return report, nil
}

func isAffected(e model.Entity, lines []int) bool {
	if len(lines) == 0 {
		return true
	}
	for _, line := range lines {
		if line >= e.StartLine && line <= e.EndLine {
			return true
		}
	}
	return false
}

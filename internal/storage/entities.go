package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"codearch/internal/model"
)

// UpsertEntities keeps the ID of an entity already stored under the same
// (file, name, kind, start line) and refreshes its span and snippet.
func (s *SQLiteStore) UpsertEntities(ctx context.Context, entities []*model.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entities (id, repo_id, file_id, name, kind, start_line, end_line, snippet)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_id, name, kind, start_line) DO UPDATE SET
				end_line=excluded.end_line,
				snippet=excluded.snippet
			RETURNING id, explanation, vector_id
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entities {
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			row := stmt.QueryRowContext(ctx, id, e.RepoID, e.FileID, e.Name, string(e.Kind), e.StartLine, e.EndLine, e.Snippet)
			if err := row.Scan(&e.ID, &e.Explanation, &e.VectorID); err != nil {
				return fmt.Errorf("upsert entity %s: %w", e.Name, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListEntities(ctx context.Context, repoID string) ([]model.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.repo_id, e.file_id, e.name, e.kind, e.start_line, e.end_line, e.snippet, e.explanation, e.vector_id
		FROM entities e JOIN files f ON f.id = e.file_id
		WHERE e.repo_id = ? ORDER BY f.path, e.start_line, e.name`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		var kind string
		if err := rows.Scan(&e.ID, &e.RepoID, &e.FileID, &e.Name, &kind, &e.StartLine, &e.EndLine, &e.Snippet, &e.Explanation, &e.VectorID); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Kind = model.EntityKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateExplanations(ctx context.Context, explanations map[string]string) error {
	return s.updateByID(ctx, "UPDATE entities SET explanation = ? WHERE id = ?", explanations)
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codearch/internal/model"
)

// InsertRelationships appends rels. Earlier rows are never replaced.
func (s *SQLiteStore) InsertRelationships(ctx context.Context, rels []model.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO relationships (id, repo_id, source_id, target_id, kind, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, r := range rels {
			id := r.ID
			if id == "" {
				id = uuid.NewString()
			}
			created := r.CreatedAt
			if created.IsZero() {
				created = now
			}
			var target sql.NullString
			if r.HasTarget() {
				target = sql.NullString{String: r.TargetID, Valid: true}
			}
			var meta sql.NullString
			if r.Metadata != nil {
				b, err := json.Marshal(r.Metadata)
				if err != nil {
					return err
				}
				meta = sql.NullString{String: string(b), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, r.RepoID, r.SourceID, target, string(r.Kind), meta, created); err != nil {
				return fmt.Errorf("insert %s relationship from %s: %w", r.Kind, r.SourceID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListRelationships(ctx context.Context, repoID string, kind model.RelationKind) ([]model.Relationship, error) {
	query := `SELECT id, repo_id, source_id, target_id, kind, metadata, created_at
		FROM relationships WHERE repo_id = ?`
	args := []any{repoID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var out []model.Relationship
	for rows.Next() {
		var (
			r      model.Relationship
			target sql.NullString
			meta   sql.NullString
			k      string
		)
		if err := rows.Scan(&r.ID, &r.RepoID, &r.SourceID, &target, &k, &meta, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		r.Kind = model.RelationKind(k)
		r.TargetID = target.String
		if meta.Valid && meta.String != "" {
			var m model.ImportMetadata
			if err := json.Unmarshal([]byte(meta.String), &m); err != nil {
				return nil, fmt.Errorf("decode relationship metadata %s: %w", r.ID, err)
			}
			r.Metadata = &m
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

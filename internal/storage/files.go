package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"codearch/internal/model"
)

func (s *SQLiteStore) UpsertFiles(ctx context.Context, files []*model.File) error {
	if len(files) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO files (id, repo_id, path, extension, language, size_bytes, line_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo_id, path) DO UPDATE SET
				extension=excluded.extension,
				language=excluded.language,
				size_bytes=excluded.size_bytes
			RETURNING id
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range files {
			id := f.ID
			if id == "" {
				id = uuid.NewString()
			}
			if err := stmt.QueryRowContext(ctx, id, f.RepoID, f.Path, f.Extension, string(f.Language), f.SizeBytes, f.LineCount).Scan(&f.ID); err != nil {
				return fmt.Errorf("upsert file %s: %w", f.Path, err)
			}
		}
		return nil
	})
}

// ListFiles returns the repository's files ordered by path.
func (s *SQLiteStore) ListFiles(ctx context.Context, repoID string) ([]model.File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_id, path, extension, language, size_bytes, line_count, summary
		FROM files WHERE repo_id = ? ORDER BY path`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		var f model.File
		var lang string
		if err := rows.Scan(&f.ID, &f.RepoID, &f.Path, &f.Extension, &lang, &f.SizeBytes, &f.LineCount, &f.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Language = model.Language(lang)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateLineCount(ctx context.Context, fileID string, lines int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE files SET line_count = ? WHERE id = ?", lines, fileID)
	if err != nil {
		return err
	}
	return requireRow(res, "file", fileID)
}

func (s *SQLiteStore) UpdateFileSummaries(ctx context.Context, summaries map[string]string) error {
	return s.updateByID(ctx, "UPDATE files SET summary = ? WHERE id = ?", summaries)
}

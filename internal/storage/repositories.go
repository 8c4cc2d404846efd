package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codearch/internal/model"
)

const repoColumns = `id, url, owner, name, description, default_branch, status, status_message,
	progress, file_count, language_breakdown, created_at, last_synced_at`

// CreateRepository inserts repo as PENDING, assigning an ID when empty.
func (s *SQLiteStore) CreateRepository(ctx context.Context, repo *model.Repository) error {
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = time.Now().UTC()
	}
	repo.Status = model.StatusPending
	if repo.LanguageBreakdown == nil {
		repo.LanguageBreakdown = map[string]int{}
	}
	breakdown, err := json.Marshal(repo.LanguageBreakdown)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO repositories (id, url, owner, name, description, default_branch, status, status_message, progress, created_at, language_breakdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, repo.ID, repo.URL, repo.Owner, repo.Name, repo.Description, repo.DefaultBranch,
		string(repo.Status), repo.StatusMessage, repo.Progress, repo.CreatedAt, string(breakdown))
	if err != nil {
		return fmt.Errorf("insert repository %s: %w", repo.URL, err)
	}
	return nil
}

func (s *SQLiteStore) GetRepository(ctx context.Context, id string) (*model.Repository, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+repoColumns+" FROM repositories WHERE id = ?", id)
	repo, err := scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository %s: %w", id, model.ErrNotFound)
	}
	return repo, err
}

func (s *SQLiteStore) GetRepositoryByURL(ctx context.Context, url string) (*model.Repository, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+repoColumns+" FROM repositories WHERE url = ?", url)
	repo, err := scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository %s: %w", url, model.ErrNotFound)
	}
	return repo, err
}

func (s *SQLiteStore) ListRepositories(ctx context.Context) ([]*model.Repository, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+repoColumns+" FROM repositories ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var out []*model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, repo)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TransitionStatus(ctx context.Context, id string, to model.Status, message string, progress float64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM repositories WHERE id = ?", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("repository %s: %w", id, model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		from := model.Status(current)
		if !from.CanTransition(to) {
			return fmt.Errorf("%s -> %s: %w", from, to, model.ErrInvalidTransition)
		}

		if to == model.StatusCompleted {
			_, err = tx.ExecContext(ctx, `UPDATE repositories
				SET status = ?, status_message = ?, progress = ?, last_synced_at = ? WHERE id = ?`,
				string(to), message, progress, time.Now().UTC(), id)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE repositories
				SET status = ?, status_message = ?, progress = ? WHERE id = ?`,
				string(to), message, progress, id)
		}
		return err
	})
}

func (s *SQLiteStore) UpdateProgress(ctx context.Context, id string, message string, progress float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE repositories SET status_message = ?, progress = ? WHERE id = ?", message, progress, id)
	if err != nil {
		return err
	}
	return requireRow(res, "repository", id)
}

func (s *SQLiteStore) UpdateRepositoryStats(ctx context.Context, id string, fileCount int, breakdown map[string]int) error {
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	data, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE repositories SET file_count = ?, language_breakdown = ? WHERE id = ?", fileCount, string(data), id)
	if err != nil {
		return err
	}
	return requireRow(res, "repository", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*model.Repository, error) {
	var (
		r         model.Repository
		status    string
		breakdown string
		synced    sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.URL, &r.Owner, &r.Name, &r.Description, &r.DefaultBranch, &status,
		&r.StatusMessage, &r.Progress, &r.FileCount, &breakdown, &r.CreatedAt, &synced); err != nil {
		return nil, err
	}
	r.Status = model.Status(status)
	if synced.Valid {
		r.LastSyncedAt = synced.Time
	}
	r.LanguageBreakdown = map[string]int{}
	if breakdown != "" {
		if err := json.Unmarshal([]byte(breakdown), &r.LanguageBreakdown); err != nil {
			return nil, fmt.Errorf("decode language breakdown of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
	}
	return nil
}

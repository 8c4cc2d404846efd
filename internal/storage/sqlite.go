package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=on&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; phase commits are serialised here.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS repositories (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			default_branch TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			status_message TEXT NOT NULL DEFAULT '',
			progress REAL NOT NULL DEFAULT 0,
			file_count INTEGER NOT NULL DEFAULT 0,
			language_breakdown TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			last_synced_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			repo_id TEXT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			extension TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			size_bytes INTEGER NOT NULL DEFAULT 0,
			line_count INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL DEFAULT '',
			UNIQUE (repo_id, path)
		);`,
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			repo_id TEXT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			file_id TEXT NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			snippet TEXT NOT NULL DEFAULT '',
			explanation TEXT NOT NULL DEFAULT '',
			vector_id TEXT NOT NULL DEFAULT '',
			UNIQUE (file_id, name, kind, start_line)
		);`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id TEXT PRIMARY KEY,
			repo_id TEXT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			source_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			target_id TEXT REFERENCES entities(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			id TEXT PRIMARY KEY,
			repo_id TEXT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			code TEXT NOT NULL,
			metadata TEXT NOT NULL,
			embedding BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_repo ON entities(repo_id);`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_repo_kind ON relationships(repo_id, kind);`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_repo ON embeddings(repo_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// updateByID runs a prepared UPDATE ... WHERE id = ? for every entry of values.
func (s *SQLiteStore) updateByID(ctx context.Context, query string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for id, v := range values {
			if _, err := stmt.ExecContext(ctx, v, id); err != nil {
				return err
			}
		}
		return nil
	})
}

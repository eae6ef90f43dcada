// Package sqlite persists what the linter posted on previous runs, so the
// next run over the same pull request can update its review and comment in
// place instead of duplicating them.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cpp-linter/cpp-linter/internal/domain"
)

// Store records prior feedback state per (repository, pull request),
// backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One row per pull request: the review/comment ids the last run posted
	CREATE TABLE IF NOT EXISTS posted_feedback (
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		review_id INTEGER NOT NULL DEFAULT 0,
		comment_id INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (repository, pull_number)
	);

	-- Fingerprints of suggestions posted for a pull request
	CREATE TABLE IF NOT EXISTS posted_fingerprints (
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (repository, pull_number, fingerprint),
		FOREIGN KEY (repository, pull_number)
			REFERENCES posted_feedback(repository, pull_number) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_fingerprints_pr
		ON posted_fingerprints(repository, pull_number);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the recorded state for a pull request with the given one.
func (s *Store) Save(ctx context.Context, repository string, pullNumber int, state domain.PriorState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posted_feedback (repository, pull_number, review_id, comment_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repository, pull_number) DO UPDATE SET
			review_id = excluded.review_id,
			comment_id = excluded.comment_id,
			updated_at = excluded.updated_at
	`, repository, pullNumber, state.ReviewID, state.CommentID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save posted feedback: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM posted_fingerprints WHERE repository = ? AND pull_number = ?
	`, repository, pullNumber)
	if err != nil {
		return fmt.Errorf("clear fingerprints: %w", err)
	}
	for fp := range state.Fingerprints {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO posted_fingerprints (repository, pull_number, fingerprint)
			VALUES (?, ?, ?)
		`, repository, pullNumber, string(fp))
		if err != nil {
			return fmt.Errorf("save fingerprint: %w", err)
		}
	}

	return tx.Commit()
}

// Load returns the recorded state for a pull request, or nil when no run
// has posted feedback for it yet.
func (s *Store) Load(ctx context.Context, repository string, pullNumber int) (*domain.PriorState, error) {
	var state domain.PriorState
	err := s.db.QueryRowContext(ctx, `
		SELECT review_id, comment_id FROM posted_feedback
		WHERE repository = ? AND pull_number = ?
	`, repository, pullNumber).Scan(&state.ReviewID, &state.CommentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load posted feedback: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint FROM posted_fingerprints
		WHERE repository = ? AND pull_number = ?
	`, repository, pullNumber)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	defer rows.Close()

	state.Fingerprints = make(map[domain.Fingerprint]bool)
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		state.Fingerprints[domain.Fingerprint(fp)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints: %w", err)
	}

	return &state, nil
}

// Delete removes the recorded state for a pull request.
func (s *Store) Delete(ctx context.Context, repository string, pullNumber int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM posted_feedback WHERE repository = ? AND pull_number = ?
	`, repository, pullNumber)
	if err != nil {
		return fmt.Errorf("delete posted feedback: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

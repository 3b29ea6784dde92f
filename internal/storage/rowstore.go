// Package storage provides the SQLite row store that maps index row numbers
// back to full examples.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/frontpage/internal/models"
)

// RowStore persists the numbered corpus rows written at index build time.
// Each level keeps its own row set; Replace rewrites a level wholesale so the
// stored rows always match the row identifiers of the latest index build.
type RowStore struct {
	db *sql.DB
}

// Open opens or creates the row store at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func Open(dbPath string) (*RowStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create row store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open row store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &RowStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rows (
		level TEXT NOT NULL,
		rownum INTEGER NOT NULL,
		text TEXT NOT NULL,
		sentences TEXT,
		created TEXT,
		title TEXT,
		url TEXT,
		PRIMARY KEY (level, rownum)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Replace deletes all rows for level and inserts the examples with sequential
// row numbers starting at zero, in one transaction. Returns the row count.
func (s *RowStore) Replace(ctx context.Context, level string, examples iter.Seq[*models.Example]) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rows WHERE level = ?`, level); err != nil {
		return 0, fmt.Errorf("clear level %s: %w", level, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rows (level, rownum, text, sentences, created, title, url) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for ex := range examples {
		sentencesJSON, err := json.Marshal(ex.Sentences)
		if err != nil {
			return 0, fmt.Errorf("marshal sentences: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, level, n, ex.Text, string(sentencesJSON), ex.Created, ex.Meta.Title, ex.Meta.URL); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", n, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return n, nil
}

// Resolve returns the examples for the given row numbers, in the order of ids.
// Unknown ids are skipped.
func (s *RowStore) Resolve(ctx context.Context, level string, ids []int) ([]*models.Example, error) {
	out := make([]*models.Example, 0, len(ids))
	for _, id := range ids {
		row := s.db.QueryRowContext(ctx,
			`SELECT text, sentences, created, title, url FROM rows WHERE level = ? AND rownum = ?`, level, id)
		var ex models.Example
		var sentencesJSON string
		err := row.Scan(&ex.Text, &sentencesJSON, &ex.Created, &ex.Meta.Title, &ex.Meta.URL)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve row %d: %w", id, err)
		}
		if sentencesJSON != "" {
			if err := json.Unmarshal([]byte(sentencesJSON), &ex.Sentences); err != nil {
				return nil, fmt.Errorf("decode sentences for row %d: %w", id, err)
			}
		}
		ex.Meta.Created = ex.Created
		out = append(out, &ex)
	}
	return out, nil
}

// Count returns the number of rows stored for level.
func (s *RowStore) Count(ctx context.Context, level string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rows WHERE level = ?`, level).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *RowStore) Close() error {
	return s.db.Close()
}

// Package sqlite opens the penguins table in a local SQLite file using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"penguinboard/internal/infra/persistence/rowstore"
)

// DefaultPath is used when no database file is configured.
const DefaultPath = "penguins.db"

// Open opens (creating when needed) the SQLite file at path and ensures the
// penguins table exists.
func Open(ctx context.Context, path string) (*rowstore.Table, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	table := rowstore.New(db, rowstore.QuestionPlaceholder)
	if err := table.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return table, nil
}

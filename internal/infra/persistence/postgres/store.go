// Package postgres opens the penguins table in a Postgres database through
// the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"penguinboard/internal/infra/persistence/rowstore"
)

const (
	driverName = "pgx"
	// DefaultDSN targets a local database when none is configured.
	DefaultDSN = "postgres://localhost/penguinboard?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Open connects to dsn, verifies the connection and ensures the penguins
// table exists.
func Open(ctx context.Context, dsn string) (*rowstore.Table, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	table := rowstore.New(db, rowstore.DollarPlaceholder)
	if err := table.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return table, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

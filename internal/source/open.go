package source

import (
	"context"
	"fmt"

	"penguinboard/internal/blob"
	"penguinboard/internal/infra/persistence/postgres"
	"penguinboard/internal/infra/persistence/rowstore"
	"penguinboard/internal/infra/persistence/sqlite"
)

// Kind names a provider implementation.
type Kind string

const (
	KindEmbedded Kind = "embedded"
	KindFile     Kind = "file"
	KindBlob     Kind = "blob"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Config selects a provider. Only the fields of the chosen kind are read.
type Config struct {
	Kind        Kind
	Path        string // file
	Key         string // blob object key
	Blob        blob.Config
	SQLitePath  string
	PostgresDSN string
}

// Open builds the Provider named by cfg.Kind (default embedded).
func Open(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Kind {
	case "", KindEmbedded:
		return EmbeddedProvider{}, nil
	case KindFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source requires a path")
		}
		return FileProvider{Path: cfg.Path}, nil
	case KindBlob:
		if cfg.Key == "" {
			return nil, fmt.Errorf("blob source requires an object key")
		}
		store, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return BlobProvider{Store: store, Key: cfg.Key}, nil
	case KindSQLite:
		return NewSQLiteProvider(cfg.SQLitePath), nil
	case KindPostgres:
		return NewPostgresProvider(cfg.PostgresDSN), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Kind)
	}
}

// OpenTable opens the SQL table named by kind for writing. Only sqlite and
// postgres are table kinds.
func OpenTable(ctx context.Context, cfg Config) (*rowstore.Table, error) {
	switch cfg.Kind {
	case KindSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	case KindPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%q is not a table source", cfg.Kind)
	}
}

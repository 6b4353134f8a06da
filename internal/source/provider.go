// Package source loads the penguins Dataset once at startup. Providers read
// the bundled CSV, a local file, an object in a blob store, or the penguins
// table in SQLite or Postgres.
package source

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"penguinboard/internal/blob"
	"penguinboard/internal/infra/persistence/postgres"
	"penguinboard/internal/infra/persistence/rowstore"
	"penguinboard/internal/infra/persistence/sqlite"
	"penguinboard/pkg/domain"
)

// Provider yields the dataset the dashboard serves.
type Provider interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// bundled is a subset of the palmerpenguins CSV covering all three species,
// with its NA rows kept.
//
//go:embed data/penguins.csv
var bundled []byte

// Bundled returns the raw embedded CSV.
func Bundled() []byte { return bytes.Clone(bundled) }

// EmbeddedProvider parses the CSV compiled into the binary.
type EmbeddedProvider struct{}

// Load implements Provider.
func (EmbeddedProvider) Load(context.Context) (domain.Dataset, error) {
	records, err := ParseCSV(bytes.NewReader(bundled))
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("embedded dataset: %w", err)
	}
	return domain.NewDataset(records), nil
}

// FileProvider parses a CSV file on disk.
type FileProvider struct {
	Path string
}

// Load implements Provider.
func (p FileProvider) Load(context.Context) (domain.Dataset, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open dataset file: %w", err)
	}
	defer func() { _ = f.Close() }()
	records, err := ParseCSV(f)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("parse %s: %w", p.Path, err)
	}
	return domain.NewDataset(records), nil
}

// BlobProvider parses a CSV object from a blob store.
type BlobProvider struct {
	Store blob.Store
	Key   string
}

// Load implements Provider.
func (p BlobProvider) Load(ctx context.Context) (domain.Dataset, error) {
	_, rc, err := p.Store.Get(ctx, p.Key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			if keys := availableKeys(ctx, p.Store); len(keys) > 0 {
				return domain.Dataset{}, fmt.Errorf("fetch %s from %s store (available: %s): %w", p.Key, p.Store.Driver(), strings.Join(keys, ", "), err)
			}
		}
		return domain.Dataset{}, fmt.Errorf("fetch %s from %s store: %w", p.Key, p.Store.Driver(), err)
	}
	defer func() { _ = rc.Close() }()
	records, err := ParseCSV(rc)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("parse %s: %w", p.Key, err)
	}
	return domain.NewDataset(records), nil
}

// maxListedKeys caps how many keys a missing-object error names.
const maxListedKeys = 10

func availableKeys(ctx context.Context, store blob.Store) []string {
	infos, err := store.List(ctx, "")
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(strings.ToLower(info.Key), ".csv") {
			keys = append(keys, info.Key)
		}
	}
	sort.Strings(keys)
	if len(keys) > maxListedKeys {
		keys = append(keys[:maxListedKeys], "...")
	}
	return keys
}

// PublishBlob writes records as CSV to key. Objects are create-only, so an
// existing key fails with blob.ErrExists.
func PublishBlob(ctx context.Context, store blob.Store, key string, records []domain.Record) (blob.Info, error) {
	if key == "" {
		return blob.Info{}, fmt.Errorf("publish: object key required")
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return blob.Info{}, err
	}
	info, err := store.Put(ctx, key, &buf, blob.PutOptions{ContentType: "text/csv"})
	if err != nil {
		return blob.Info{}, fmt.Errorf("publish %s to %s store: %w", key, store.Driver(), err)
	}
	return info, nil
}

// TableProvider reads the penguins table through an opener so the database
// handle lives only for the duration of the load.
type TableProvider struct {
	Name string
	Open func(ctx context.Context) (*rowstore.Table, error)
}

// NewSQLiteProvider reads the penguins table from a SQLite file.
func NewSQLiteProvider(path string) TableProvider {
	return TableProvider{Name: "sqlite", Open: func(ctx context.Context) (*rowstore.Table, error) {
		return sqlite.Open(ctx, path)
	}}
}

// NewPostgresProvider reads the penguins table from Postgres.
func NewPostgresProvider(dsn string) TableProvider {
	return TableProvider{Name: "postgres", Open: func(ctx context.Context) (*rowstore.Table, error) {
		return postgres.Open(ctx, dsn)
	}}
}

// Load implements Provider.
func (p TableProvider) Load(ctx context.Context) (domain.Dataset, error) {
	table, err := p.Open(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%s dataset: %w", p.Name, err)
	}
	defer func() { _ = table.Close() }()
	ds, err := table.Load(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%s dataset: %w", p.Name, err)
	}
	return ds, nil
}

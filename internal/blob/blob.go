// Package blob is the single entry point to object storage. Callers depend on
// Store and obtain an implementation through Open; concrete backends live in
// internal/infra/blob and are not imported elsewhere.
package blob

import (
	"context"
	"fmt"

	"penguinboard/internal/blob/core"
	fsstore "penguinboard/internal/infra/blob/fs"
	memstore "penguinboard/internal/infra/blob/memory"
	s3store "penguinboard/internal/infra/blob/s3"
)

type (
	// Store is the object store surface.
	Store = core.Store
	// Info describes a stored object.
	Info = core.Info
	// PutOptions specifies optional parameters for Put.
	PutOptions = core.PutOptions
	// Driver names a backend.
	Driver = core.Driver
	// S3Config carries bucket and credential settings for the s3 driver.
	S3Config = s3store.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// Config selects and parameterises a backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

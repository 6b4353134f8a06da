// Package config resolves runtime settings from PENGUINBOARD_* environment
// variables, which command-line flags may then override.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"penguinboard/internal/blob"
	"penguinboard/internal/source"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "PENGUINBOARD_"

// Accepted histogram bin widths in millimetres.
const (
	MinHistogramBinWidth = 0.1
	MaxHistogramBinWidth = 50.0
)

// Config is the full runtime configuration of the penguinboard binary.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	Source      source.Kind
	SourcePath  string
	SourceKey   string
	SQLitePath  string
	PostgresDSN string

	BlobDriver string
	BlobFSRoot string
	S3         blob.S3Config

	SessionIdleTimeout time.Duration
	JanitorInterval    time.Duration
	HistogramBinWidth  float64
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ShutdownTimeout:    10 * time.Second,
		LogLevel:           "info",
		LogFormat:          "json",
		Source:             source.KindEmbedded,
		BlobDriver:         string(blob.DriverFilesystem),
		BlobFSRoot:         "./data",
		S3:                 blob.S3Config{Region: "us-east-1"},
		SessionIdleTimeout: 30 * time.Minute,
		JanitorInterval:    time.Minute,
		HistogramBinWidth:  1,
	}
}

// FromEnv overlays variables read through getenv onto Default. Passing
// os.Getenv reads the process environment.
//
//	PENGUINBOARD_ADDR                       listen address (:8080)
//	PENGUINBOARD_SHUTDOWN_TIMEOUT           graceful shutdown budget (10s)
//	PENGUINBOARD_LOG_LEVEL                  debug|info|warn|error (info)
//	PENGUINBOARD_LOG_FORMAT                 json|text (json)
//	PENGUINBOARD_SOURCE                     embedded|file|blob|sqlite|postgres (embedded)
//	PENGUINBOARD_SOURCE_PATH                CSV path for source=file
//	PENGUINBOARD_SOURCE_KEY                 object key for source=blob
//	PENGUINBOARD_SQLITE_PATH                SQLite file (penguins.db)
//	PENGUINBOARD_POSTGRES_DSN               Postgres DSN
//	PENGUINBOARD_BLOB_DRIVER                fs|s3|memory (fs)
//	PENGUINBOARD_BLOB_FS_ROOT               root for the fs driver (./data)
//	PENGUINBOARD_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _ACCESS_KEY_ID,
//	_SECRET_ACCESS_KEY, _SESSION_TOKEN, _PATH_STYLE
//	PENGUINBOARD_SESSION_IDLE_TIMEOUT       idle sessions are dropped after this (30m, 0 disables)
//	PENGUINBOARD_JANITOR_INTERVAL           idle sweep period (1m)
//	PENGUINBOARD_HISTOGRAM_BIN_WIDTH        bill length bin width in mm (1)
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + name)) }
	str := func(dst *string, name string) {
		if v := env(name); v != "" {
			*dst = v
		}
	}
	var errs []string
	dur := func(dst *time.Duration, name string) {
		if v := env(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				errs = append(errs, fmt.Sprintf("%s%s: invalid duration %q", EnvPrefix, name, v))
				return
			}
			*dst = d
		}
	}

	str(&cfg.Addr, "ADDR")
	dur(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LogFormat, "LOG_FORMAT")
	if v := env("SOURCE"); v != "" {
		cfg.Source = source.Kind(strings.ToLower(v))
	}
	str(&cfg.SourcePath, "SOURCE_PATH")
	str(&cfg.SourceKey, "SOURCE_KEY")
	str(&cfg.SQLitePath, "SQLITE_PATH")
	str(&cfg.PostgresDSN, "POSTGRES_DSN")
	str(&cfg.BlobDriver, "BLOB_DRIVER")
	str(&cfg.BlobFSRoot, "BLOB_FS_ROOT")
	str(&cfg.S3.Bucket, "BLOB_S3_BUCKET")
	str(&cfg.S3.Region, "BLOB_S3_REGION")
	str(&cfg.S3.Endpoint, "BLOB_S3_ENDPOINT")
	str(&cfg.S3.AccessKeyID, "BLOB_S3_ACCESS_KEY_ID")
	str(&cfg.S3.SecretAccessKey, "BLOB_S3_SECRET_ACCESS_KEY")
	str(&cfg.S3.SessionToken, "BLOB_S3_SESSION_TOKEN")
	if v := env("BLOB_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sBLOB_S3_PATH_STYLE: invalid bool %q", EnvPrefix, v))
		}
		cfg.S3.PathStyle = b
	}
	dur(&cfg.SessionIdleTimeout, "SESSION_IDLE_TIMEOUT")
	dur(&cfg.JanitorInterval, "JANITOR_INTERVAL")
	if v := env("HISTOGRAM_BIN_WIDTH"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHISTOGRAM_BIN_WIDTH: invalid number %q", EnvPrefix, v))
		}
		cfg.HistogramBinWidth = w
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// RegisterFlags binds the commonly overridden settings to fs, using the
// current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (json|text)")
	fs.Func("source", "dataset source (embedded|file|blob|sqlite|postgres)", func(v string) error {
		c.Source = source.Kind(strings.ToLower(v))
		return nil
	})
	fs.StringVar(&c.SourcePath, "source-path", c.SourcePath, "CSV path when -source=file")
	fs.StringVar(&c.SourceKey, "source-key", c.SourceKey, "object key when -source=blob")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite database file")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "Postgres connection string")
	fs.DurationVar(&c.SessionIdleTimeout, "session-idle-timeout", c.SessionIdleTimeout, "drop sessions idle for longer than this (0 disables)")
	fs.Float64Var(&c.HistogramBinWidth, "bin-width", c.HistogramBinWidth, "histogram bin width in mm")
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Source {
	case source.KindEmbedded, source.KindSQLite, source.KindPostgres:
	case source.KindFile:
		if c.SourcePath == "" {
			return fmt.Errorf("config: source=file requires a source path")
		}
	case source.KindBlob:
		if c.SourceKey == "" {
			return fmt.Errorf("config: source=blob requires a source key")
		}
		if err := c.validateBlob(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}
	if !(c.HistogramBinWidth >= MinHistogramBinWidth && c.HistogramBinWidth <= MaxHistogramBinWidth) {
		return fmt.Errorf("config: histogram bin width must be between %g and %g mm", MinHistogramBinWidth, MaxHistogramBinWidth)
	}
	if c.SessionIdleTimeout > 0 && c.JanitorInterval <= 0 {
		return fmt.Errorf("config: janitor interval must be positive when sessions expire")
	}
	return nil
}

// validateBlob checks the blob store settings. The memory driver holds
// nothing across processes, so it can never serve a dataset.
func (c Config) validateBlob() error {
	switch blob.Driver(c.BlobDriver) {
	case blob.DriverFilesystem, "":
	case blob.DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: blob driver s3 requires a bucket")
		}
	case blob.DriverMemory:
		return fmt.Errorf("config: blob driver memory cannot hold a dataset between runs")
	default:
		return fmt.Errorf("config: unknown blob driver %q", c.BlobDriver)
	}
	return nil
}

// SourceConfig translates the settings into a dataset source selection.
func (c Config) SourceConfig() source.Config {
	return source.Config{
		Kind: c.Source,
		Path: c.SourcePath,
		Key:  c.SourceKey,
		Blob: blob.Config{
			Driver: blob.Driver(c.BlobDriver),
			FSRoot: c.BlobFSRoot,
			S3:     c.S3,
		},
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
	}
}

// Command penguinboard serves the Palmer Penguins dashboard API and seeds the
// SQL tables and blob stores it can load from.
//
//	penguinboard serve  [-addr :8080] [-source embedded|file|blob|sqlite|postgres] ...
//	penguinboard import [-from penguins.csv] -to sqlite|postgres|blob ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"penguinboard/internal/adapters/httpapi"
	"penguinboard/internal/blob"
	"penguinboard/internal/config"
	"penguinboard/internal/core"
	"penguinboard/internal/source"
	"penguinboard/pkg/domain"
)

var exitFunc = os.Exit

// main runs the command-line interface with the process arguments and
// environment and exits with the status code cli returns.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	exitFunc(code)
}

const usage = `usage: penguinboard <command> [flags]

commands:
  serve    load the dataset and serve the dashboard API
  import   write a penguins CSV into a SQLite/Postgres table or a blob store
`

func cli(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cfg, err := config.FromEnv(getenv)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	switch args[0] {
	case "serve":
		return serveCommand(ctx, cfg, args[1:], stderr)
	case "import":
		return importCommand(ctx, cfg, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

func serveCommand(ctx context.Context, cfg config.Config, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	logger, err := core.NewSlogLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	dataset, err := loadDataset(ctx, cfg)
	if err != nil {
		logger.Error("dataset load failed", "source", cfg.Source, "error", err)
		_, _ = fmt.Fprintf(stderr, "penguinboard: cannot start: %v\n", err)
		return 1
	}
	logger.Info("dataset loaded", "source", cfg.Source, "rows", dataset.Len(), "species", dataset.SpeciesCounts())

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Addr, "error", err)
		return 1
	}
	if err := serve(ctx, cfg, dataset, ln, logger); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

func loadDataset(ctx context.Context, cfg config.Config) (domain.Dataset, error) {
	provider, err := source.Open(ctx, cfg.SourceConfig())
	if err != nil {
		return domain.Dataset{}, err
	}
	return provider.Load(ctx)
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, dataset domain.Dataset, ln net.Listener, logger core.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	svc := core.NewService(dataset,
		core.WithLogger(logger),
		core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(registry)),
		core.WithTracer(core.NewOTelTracer(tp)),
		core.WithHistogramBinWidth(cfg.HistogramBinWidth),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", httpapi.NewHandler(svc, logger))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go svc.RunJanitor(janitorCtx, cfg.JanitorInterval, cfg.SessionIdleTimeout)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()
	logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func importCommand(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "CSV file to import (bundled sample when empty)")
	to := fs.String("to", string(source.KindSQLite), "import target (sqlite|postgres|blob)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Postgres connection string")
	fs.StringVar(&cfg.SourceKey, "source-key", cfg.SourceKey, "object key when -to=blob")
	fs.StringVar(&cfg.BlobDriver, "blob-driver", cfg.BlobDriver, "blob driver when -to=blob (fs|s3)")
	fs.StringVar(&cfg.BlobFSRoot, "blob-fs-root", cfg.BlobFSRoot, "root directory of the fs blob driver")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if source.Kind(*to) == source.KindBlob {
		cfg.Source = source.KindBlob
		if err := cfg.Validate(); err != nil {
			_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
			return 2
		}
	}

	var provider source.Provider = source.EmbeddedProvider{}
	if *from != "" {
		provider = source.FileProvider{Path: *from}
	}
	dataset, err := provider.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}

	target := cfg.SourceConfig()
	target.Kind = source.Kind(*to)
	if target.Kind == source.KindBlob {
		return importBlob(ctx, target, dataset.Records(), stdout, stderr)
	}
	table, err := source.OpenTable(ctx, target)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	defer func() { _ = table.Close() }()
	n, err := table.Replace(ctx, dataset.Records())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "imported %d penguins into %s\n", n, *to)
	return 0
}

func importBlob(ctx context.Context, target source.Config, records []domain.Record, stdout, stderr io.Writer) int {
	store, err := blob.Open(ctx, target.Blob)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	info, err := source.PublishBlob(ctx, store, target.Key, records)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "imported %d penguins into %s blob %s (%d bytes)\n", len(records), store.Driver(), info.Key, info.Size)
	return 0
}

// Command circulationd serves the library circulation desk over HTTP.
//
// Configuration comes from the environment and optional env files, see package config.
// Without DATABASE_URL the event log and the catalog live in memory.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/desk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/circulation/seed"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/config"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/memengine"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/promadapters"
)

const (
	serviceName     = "circulationd"
	metricsPrefix   = "circulation"
	shutdownTimeout = 10 * time.Second
	seedTokenTTL    = 24 * time.Hour
)

type closer func() error

// openPair opens the primary and, if DATABASE_REPLICA_URL is set, the replica. The replica is nil otherwise.
func openPair[DB comparable](
	ctx context.Context,
	cfg config.Config,
	open func(ctx context.Context, dsn string) (DB, error),
	closeFn func(DB) error,
) (DB, DB, error) {

	var none DB

	primary, err := open(ctx, cfg.DatabaseURL)
	if err != nil || !cfg.UsesReplica() {
		return primary, none, err
	}

	replica, err := open(ctx, cfg.ReplicaURL)
	if err != nil {
		return none, none, errors.Join(fmt.Errorf("opening replica: %w", err), closeFn(primary))
	}

	return primary, replica, nil
}

func closeBoth[DB comparable](closePrimary closer, replica DB, closeFn func(DB) error) closer {
	return func() error {
		var none DB
		if replica == none {
			return closePrimary()
		}

		return errors.Join(closePrimary(), closeFn(replica))
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("circulationd failed: %v", err)
	}
}

func run() error {
	envFile := flag.String("env-file", "", "env file to load before reading the environment")
	migrate := flag.Bool("migrate", false, "create the events table and the catalog tables if missing")
	seedData := flag.Bool("seed", false, "write sample titles, patrons and loan history before serving")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var metrics shell.MetricsCollector
	if cfg.MetricsEnabled {
		metrics = promadapters.NewMetricsCollector(registry, promadapters.WithNamespace(metricsPrefix))
	}

	tracing := oteladapters.NewTracingCollector(otel.Tracer(serviceName))

	eventStore, closeEventStore, err := openEventStore(ctx, cfg, logger, metrics, tracing, *migrate)
	if err != nil {
		return err
	}
	defer logClose(logger, "event store", closeEventStore)

	titles, store, err := openCatalog(ctx, cfg, logger, *migrate)
	if err != nil {
		return err
	}

	d, err := newDesk(cfg, eventStore, titles, store, logger, metrics, tracing)
	if err != nil {
		return err
	}

	resolver, err := httpapi.NewJWTPatronResolver(cfg.JWTSecret)
	if err != nil {
		return err
	}

	if *seedData {
		if err := runSeed(ctx, eventStore, store, resolver, logger); err != nil {
			return err
		}
	}

	appOptions := []httpapi.Option{httpapi.WithContextualLogging(logger)}
	if cfg.MetricsEnabled {
		appOptions = append(appOptions, httpapi.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	app := httpapi.NewApp(d, resolver, appOptions...)

	go desk.NewRefresher(d, cfg.AnalyticsRefreshInterval).Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening", "addr", cfg.HTTPAddr, "engine", engineName(cfg))
		serveErr <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.InfoContext(context.Background(), "shutting down", "timeout", shutdownTimeout.String())

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	case err := <-serveErr:
		return err
	}
}

func newLogger(cfg config.Config, w io.Writer) *oteladapters.SlogBridgeLogger {
	handlerOptions := &slog.HandlerOptions{Level: cfg.LogLevel}

	if cfg.LogFormat == config.LogFormatText {
		return oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewTextHandler(w, handlerOptions))
	}

	return oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(w, handlerOptions))
}

func engineName(cfg config.Config) string {
	if !cfg.UsesPostgres() {
		return "memory"
	}

	return "postgres/" + cfg.DBAdapter
}

func openEventStore(
	ctx context.Context,
	cfg config.Config,
	logger *oteladapters.SlogBridgeLogger,
	metrics shell.MetricsCollector,
	tracing shell.TracingCollector,
	migrate bool,
) (shell.EventStore, closer, error) {

	if !cfg.UsesPostgres() {
		options := []memengine.Option{memengine.WithContextualLogger(logger)}
		if metrics != nil {
			options = append(options, memengine.WithMetrics(metrics))
		}

		es, err := memengine.NewEventStore(options...)

		return es, func() error { return nil }, err
	}

	options := []postgresengine.Option{
		postgresengine.WithContextualLogger(logger),
		postgresengine.WithTracing(tracing),
	}
	if metrics != nil {
		options = append(options, postgresengine.WithMetrics(metrics))
	}

	var (
		es      postgresengine.EventStore
		closeDB closer
		err     error
	)

	switch cfg.DBAdapter {
	case config.DBAdapterSQL:
		db, replica, openErr := openPair(ctx, cfg, config.OpenSQLDB, (*sql.DB).Close)
		if openErr != nil {
			return nil, nil, openErr
		}

		closeDB = closeBoth(db.Close, replica, (*sql.DB).Close)
		if replica != nil {
			es, err = postgresengine.NewEventStoreFromSQLDBWithReplica(db, replica, options...)
		} else {
			es, err = postgresengine.NewEventStoreFromSQLDB(db, options...)
		}
	case config.DBAdapterSQLX:
		db, replica, openErr := openPair(ctx, cfg, config.OpenSQLX, (*sqlx.DB).Close)
		if openErr != nil {
			return nil, nil, openErr
		}

		closeDB = closeBoth(db.Close, replica, (*sqlx.DB).Close)
		if replica != nil {
			es, err = postgresengine.NewEventStoreFromSQLXWithReplica(db, replica, options...)
		} else {
			es, err = postgresengine.NewEventStoreFromSQLX(db, options...)
		}
	default:
		closePool := func(pool *pgxpool.Pool) error { pool.Close(); return nil }
		pool, replica, openErr := openPair(ctx, cfg, config.NewPGXPool, closePool)
		if openErr != nil {
			return nil, nil, openErr
		}

		closeDB = closeBoth(func() error { return closePool(pool) }, replica, closePool)
		if replica != nil {
			es, err = postgresengine.NewEventStoreFromPGXPoolWithReplica(pool, replica, options...)
		} else {
			es, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)
		}
	}

	if err != nil {
		return nil, nil, errors.Join(err, closeDB())
	}

	if migrate {
		if err := es.CreateEventsTable(ctx); err != nil {
			return nil, nil, errors.Join(err, closeDB())
		}
	}

	return es, closeDB, nil
}

func openCatalog(
	ctx context.Context,
	cfg config.Config,
	logger *oteladapters.SlogBridgeLogger,
	migrate bool,
) (catalog.Catalog, seed.Store, error) {

	if !cfg.UsesPostgres() {
		logger.WarnContext(ctx, "no DATABASE_URL configured, serving an empty in-memory catalog")
		memory := catalog.NewMemoryCatalog()

		return memory, memory, nil
	}

	db, err := catalog.OpenGorm(cfg.DatabaseURL, catalog.NewGormLogger(logger.Slog()))
	if err != nil {
		return nil, nil, err
	}

	store := catalog.NewGormCatalog(db)
	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
	}

	return catalog.NewCachedCatalog(store, cfg.CatalogCacheSize, cfg.CatalogCacheTTL), store, nil
}

func newDesk(
	cfg config.Config,
	eventStore shell.EventStore,
	titles catalog.Catalog,
	patrons catalog.PatronDirectory,
	logger *oteladapters.SlogBridgeLogger,
	metrics shell.MetricsCollector,
	tracing shell.TracingCollector,
) (*desk.Desk, error) {

	finePolicy, err := cfg.FinePolicy()
	if err != nil {
		return nil, err
	}

	loanPolicy, err := cfg.LoanPolicy()
	if err != nil {
		return nil, err
	}

	instrumentation := []observable.Option{
		observable.WithTracing(tracing),
		observable.WithContextualLogging(logger),
	}
	if metrics != nil {
		instrumentation = append(instrumentation, observable.WithMetrics(metrics))
	}

	return desk.NewDesk(
		eventStore,
		titles,
		patrons,
		desk.WithFinePolicy(finePolicy),
		desk.WithLoanPolicy(loanPolicy),
		desk.WithRetryOptions(cfg.RetrySettings().Options()...),
		desk.WithRequestTimeout(cfg.RequestTimeout),
		desk.WithAnalyticsMaxAge(cfg.AnalyticsRefreshInterval),
		desk.WithRecommendOptions(cfg.RecommendOptions()),
		desk.WithForecastOptions(cfg.ForecastOptions()),
		desk.WithInstrumentation(instrumentation...),
		desk.WithContextualLogging(logger),
	)
}

// runSeed logs a credential for the seeded librarian and one member, for trying the API locally.
func runSeed(
	ctx context.Context,
	eventStore shell.EventStore,
	store seed.Store,
	resolver httpapi.JWTPatronResolver,
	logger *oteladapters.SlogBridgeLogger,
) error {

	result, err := seed.Run(ctx, eventStore, store, seed.DefaultOptions())
	if err != nil {
		return err
	}

	now := time.Now()

	librarianToken, err := resolver.Issue(result.Librarian, now, seedTokenTTL)
	if err != nil {
		return err
	}

	memberToken, err := resolver.Issue(result.Members[0], now, seedTokenTTL)
	if err != nil {
		return err
	}

	logger.InfoContext(
		ctx,
		"sample data seeded",
		"titles", result.Titles,
		"members", len(result.Members),
		"loans", result.Borrowed,
		"active_loans", result.Active,
		"librarian_token", librarianToken,
		"member_token", memberToken,
	)

	return nil
}

func logClose(logger *oteladapters.SlogBridgeLogger, name string, closeFn closer) {
	if err := closeFn(); err != nil {
		logger.ErrorContext(context.Background(), "closing "+name+" failed", "error", err.Error())
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

const (
	DBAdapterPGX  = "pgx"
	DBAdapterSQL  = "sql"
	DBAdapterSQLX = "sqlx"

	LogFormatJSON = "json"
	LogFormatText = "text"

	defaultEnvFile = ".env"
)

// ErrInvalidConfig is returned by Load and Validate for unparsable or impossible values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the typed service configuration.
type Config struct {
	HTTPAddr    string
	DatabaseURL string // empty selects the in-memory engine
	ReplicaURL  string // optional, serves eventually consistent reads
	DBAdapter   string
	JWTSecret   string

	FinePerDay      decimal.Decimal
	FineCap         decimal.NullDecimal
	DefaultLoanDays int
	MaxLoanDays     int

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RequestTimeout   time.Duration

	AnalyticsRefreshInterval   time.Duration
	ForecastWindowWeeks        int
	ForecastHorizonWeeks       int
	RecommendationHalfLifeDays float64

	CatalogCacheSize int
	CatalogCacheTTL  time.Duration

	LogLevel       slog.Level
	LogFormat      string
	MetricsEnabled bool
}

// Load reads the given env files (or an optional .env in the working directory) and then
// the process environment. Variables already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("loading env files: %w", err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", defaultEnvFile, err)
	}

	p := parser{}

	cfg := Config{
		HTTPAddr:    p.string("HTTP_ADDR", ":8080"),
		DatabaseURL: p.string("DATABASE_URL", ""),
		ReplicaURL:  p.string("DATABASE_REPLICA_URL", ""),
		DBAdapter:   strings.ToLower(p.string("DB_ADAPTER", DBAdapterPGX)),
		JWTSecret:   p.string("JWT_SECRET", ""),

		FinePerDay:      p.decimal("FINE_PER_DAY", core.DefaultFinePerDay),
		FineCap:         p.nullDecimal("FINE_CAP"),
		DefaultLoanDays: p.int("DEFAULT_LOAN_DAYS", core.DefaultLoanPeriodDays),
		MaxLoanDays:     p.int("MAX_LOAN_DAYS", core.DefaultMaxLoanPeriodDays),

		RetryMaxAttempts: p.int("RETRY_MAX_ATTEMPTS", 6),
		RetryBaseDelay:   p.duration("RETRY_BASE_DELAY", 10*time.Millisecond),
		RequestTimeout:   p.duration("REQUEST_TIMEOUT", 5*time.Second),

		AnalyticsRefreshInterval:   p.duration("ANALYTICS_REFRESH_INTERVAL", 5*time.Minute),
		ForecastWindowWeeks:        p.int("FORECAST_WINDOW_WEEKS", 8),
		ForecastHorizonWeeks:       p.int("FORECAST_HORIZON_WEEKS", 4),
		RecommendationHalfLifeDays: p.float("RECOMMENDATION_HALF_LIFE_DAYS", 90),

		CatalogCacheSize: p.int("CATALOG_CACHE_SIZE", 1024),
		CatalogCacheTTL:  p.duration("CATALOG_CACHE_TTL", time.Minute),

		LogLevel:       p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat:      strings.ToLower(p.string("LOG_FORMAT", LogFormatJSON)),
		MetricsEnabled: p.bool("METRICS_ENABLED", true),
	}

	if p.err != nil {
		return Config{}, p.err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPAddr != "", "HTTP_ADDR must not be empty")
	check(c.JWTSecret != "", "JWT_SECRET must be set")
	check(
		c.DBAdapter == DBAdapterPGX || c.DBAdapter == DBAdapterSQL || c.DBAdapter == DBAdapterSQLX,
		"DB_ADAPTER must be one of pgx, sql, sqlx, got %q", c.DBAdapter,
	)
	check(c.ReplicaURL == "" || c.DatabaseURL != "", "DATABASE_REPLICA_URL needs DATABASE_URL")
	check(c.RetryMaxAttempts > 0, "RETRY_MAX_ATTEMPTS must be positive")
	check(c.RetryBaseDelay >= 0, "RETRY_BASE_DELAY must not be negative")
	check(c.RequestTimeout > 0, "REQUEST_TIMEOUT must be positive")
	check(c.AnalyticsRefreshInterval > 0, "ANALYTICS_REFRESH_INTERVAL must be positive")
	check(c.ForecastWindowWeeks >= 2, "FORECAST_WINDOW_WEEKS must be at least 2")
	check(c.ForecastHorizonWeeks >= 1, "FORECAST_HORIZON_WEEKS must be at least 1")
	check(c.RecommendationHalfLifeDays > 0, "RECOMMENDATION_HALF_LIFE_DAYS must be positive")
	check(c.CatalogCacheSize > 0, "CATALOG_CACHE_SIZE must be positive")
	check(c.CatalogCacheTTL > 0, "CATALOG_CACHE_TTL must be positive")
	check(c.LogFormat == LogFormatJSON || c.LogFormat == LogFormatText, "LOG_FORMAT must be json or text, got %q", c.LogFormat)

	if _, err := c.FinePolicy(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.LoanPolicy(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return nil
}

// UsesPostgres reports whether DATABASE_URL selects the Postgres engine.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// UsesReplica reports whether eventually consistent reads go to DATABASE_REPLICA_URL.
func (c Config) UsesReplica() bool {
	return c.UsesPostgres() && c.ReplicaURL != ""
}

// FinePolicy builds the configured core.FinePolicy.
func (c Config) FinePolicy() (core.FinePolicy, error) {
	return core.NewFinePolicy(c.FinePerDay, c.FineCap)
}

// LoanPolicy builds the configured core.LoanPolicy.
func (c Config) LoanPolicy() (core.LoanPolicy, error) {
	return core.NewLoanPolicy(c.DefaultLoanDays, c.MaxLoanDays)
}

// RetrySettings returns the optimistic concurrency retry parameters for command handlers.
func (c Config) RetrySettings() shell.RetrySettings {
	return shell.RetrySettings{MaxAttempts: c.RetryMaxAttempts, BaseDelay: c.RetryBaseDelay}
}

// RecommendOptions applies the configured half-life to recommend.DefaultOptions.
func (c Config) RecommendOptions() recommend.Options {
	opts := recommend.DefaultOptions()
	opts.HalfLifeDays = c.RecommendationHalfLifeDays

	return opts
}

// ForecastOptions applies the configured window and horizon to forecast.DefaultOptions.
func (c Config) ForecastOptions() forecast.Options {
	opts := forecast.DefaultOptions()
	opts.WindowWeeks = c.ForecastWindowWeeks
	opts.HorizonWeeks = c.ForecastHorizonWeeks

	return opts
}

// parser keeps the first parse error, so Load can read all keys in one expression.
type parser struct {
	err error
}

func (p *parser) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)

	return value, ok && value != ""
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = errors.Join(ErrInvalidConfig, fmt.Errorf("%s=%q: %w", key, value, err))
	}
}

func (p *parser) string(key, def string) string {
	if value, ok := p.lookup(key); ok {
		return value
	}

	return def
}

func (p *parser) int(key string, def int) int {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}

	return n
}

func (p *parser) float(key string, def float64) float64 {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return def
	}

	return f
}

func (p *parser) bool(key string, def bool) bool {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}

	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}

	return d
}

func (p *parser) decimal(key string, def decimal.Decimal) decimal.Decimal {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}

	return d
}

func (p *parser) nullDecimal(key string) decimal.NullDecimal {
	value, ok := p.lookup(key)
	if !ok {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		p.fail(key, value, err)
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	value, ok := p.lookup(key)
	if !ok {
		return def
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		p.fail(key, value, err)
		return def
	}

	return level
}

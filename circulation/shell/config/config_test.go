package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/config"
)

func Test_Load_Defaults(t *testing.T) {
	// arrange
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "secret")

	// act
	cfg, err := config.Load()

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.UsesReplica())
	assert.Equal(t, config.DBAdapterPGX, cfg.DBAdapter)
	assert.True(t, core.DefaultFinePerDay.Equal(cfg.FinePerDay))
	assert.False(t, cfg.FineCap.Valid)
	assert.Equal(t, core.DefaultLoanPeriodDays, cfg.DefaultLoanDays)
	assert.Equal(t, core.DefaultMaxLoanPeriodDays, cfg.MaxLoanDays)
	assert.Equal(t, 6, cfg.RetrySettings().MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.RetrySettings().BaseDelay)
	assert.Equal(t, 8, cfg.ForecastWindowWeeks)
	assert.Equal(t, 4, cfg.ForecastHorizonWeeks)
	assert.InDelta(t, 90.0, cfg.RecommendationHalfLifeDays, 0)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
}

func Test_Load_FromEnvironment(t *testing.T) {
	// arrange
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/library?sslmode=disable")
	t.Setenv("DATABASE_REPLICA_URL", "postgres://u:p@replica:5432/library?sslmode=disable")
	t.Setenv("DB_ADAPTER", "SQLX")
	t.Setenv("FINE_PER_DAY", "0.25")
	t.Setenv("FINE_CAP", "10")
	t.Setenv("MAX_LOAN_DAYS", "30")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_ENABLED", "false")

	// act
	cfg, err := config.Load()

	// assert
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
	assert.True(t, cfg.UsesReplica())
	assert.Equal(t, config.DBAdapterSQLX, cfg.DBAdapter)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.MetricsEnabled)

	finePolicy, err := cfg.FinePolicy()
	require.NoError(t, err)
	assert.Equal(t, "10", finePolicy.Cap.Decimal.String())
	assert.True(t, decimal.RequireFromString("0.25").Equal(finePolicy.PerDay))

	loanPolicy, err := cfg.LoanPolicy()
	require.NoError(t, err)
	assert.Equal(t, 30, loanPolicy.MaxDays)
}

func Test_Load_FromEnvFile_EnvironmentWins(t *testing.T) {
	// arrange
	dir := t.TempDir()
	envFile := filepath.Join(dir, "circulation.env")
	require.NoError(t, os.WriteFile(envFile, []byte("JWT_SECRET=from-file\nHTTP_ADDR=:9999\nDEFAULT_LOAN_DAYS=7\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":7000")
	unsetEnv(t, "DEFAULT_LOAN_DAYS", "JWT_SECRET")

	// act
	cfg, err := config.Load(envFile)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 7, cfg.DefaultLoanDays)
}

// unsetEnv removes keys for the duration of the test, values loaded from env files are restored afterward too.
func unsetEnv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func Test_Load_MissingEnvFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}

func Test_Load_InvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparsable int", key: "MAX_LOAN_DAYS", value: "many"},
		{name: "unparsable duration", key: "RETRY_BASE_DELAY", value: "10"},
		{name: "unparsable money", key: "FINE_PER_DAY", value: "one euro"},
		{name: "negative fine", key: "FINE_PER_DAY", value: "-1"},
		{name: "default above max", key: "DEFAULT_LOAN_DAYS", value: "90"},
		{name: "unknown adapter", key: "DB_ADAPTER", value: "mysql"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "zero attempts", key: "RETRY_MAX_ATTEMPTS", value: "0"},
		{name: "replica without primary", key: "DATABASE_REPLICA_URL", value: "postgres://replica/library"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			t.Chdir(t.TempDir())
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv(tc.key, tc.value)

			// act
			_, err := config.Load()

			// assert
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func Test_Validate_RequiresJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()

	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_AnalyticsOptions_KeepDefaultsForUnconfiguredFields(t *testing.T) {
	cfg := config.Config{RecommendationHalfLifeDays: 30, ForecastWindowWeeks: 12, ForecastHorizonWeeks: 2}

	recommendOptions := cfg.RecommendOptions()
	forecastOptions := cfg.ForecastOptions()

	assert.InDelta(t, 30.0, recommendOptions.HalfLifeDays, 0)
	assert.Equal(t, recommend.DefaultLimit, recommendOptions.Limit)
	assert.Equal(t, 12, forecastOptions.WindowWeeks)
	assert.Equal(t, 2, forecastOptions.HorizonWeeks)
	assert.Equal(t, forecast.DefaultOptions().Limit, forecastOptions.Limit)
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm's query log into slog. Successful queries are logged at debug level,
// slow ones at warn and failed ones at error. Record-not-found is not a failure here.
type GormLogger struct {
	logger        *slog.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewGormLogger creates a GormLogger writing to logger.
func NewGormLogger(logger *slog.Logger) *GormLogger {
	return &GormLogger{
		logger:        logger,
		slowThreshold: defaultSlowQueryThreshold,
		level:         gormlogger.Info,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	args := []any{"sql", sql, "rows", rows, "duration_ms", float64(elapsed.Microseconds()) / 1000}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		l.logger.ErrorContext(ctx, "catalog query failed", append(args, "error", err.Error())...)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.logger.WarnContext(ctx, "catalog query slow", args...)
	case l.level >= gormlogger.Info:
		l.logger.DebugContext(ctx, "catalog query", args...)
	}
}

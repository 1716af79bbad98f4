package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// SlogBridgeLogger implements eventstore.ContextualLogger via the OpenTelemetry slog bridge.
// Records logged with a context holding an active span are correlated with that span.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger uses the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithProvider emits to the given LoggerProvider instead of the global one.
func NewSlogBridgeLoggerWithProvider(name string, provider log.LoggerProvider) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name, otelslog.WithLoggerProvider(provider))}
}

// NewSlogBridgeLoggerWithHandler wraps a plain slog.Handler, without trace correlation.
// Used when OpenTelemetry export is disabled but the components still expect a ContextualLogger.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// Slog exposes the underlying logger, e.g. for components that take *slog.Logger.
func (l *SlogBridgeLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

var _ eventstore.ContextualLogger = (*SlogBridgeLogger)(nil)

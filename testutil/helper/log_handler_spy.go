package helper

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
)

// LogHandlerSpy is a slog.Handler that remembers every record it is given.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
	echo    slog.Handler
}

// NewLogHandlerSpy creates a LogHandlerSpy. With echo set the records are also printed as JSON to stdout.
func NewLogHandlerSpy(echo bool) *LogHandlerSpy {
	spy := &LogHandlerSpy{}
	if echo {
		spy.echo = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return spy
}

func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record.Clone())
	s.mu.Unlock()

	if s.echo != nil {
		return s.echo.Handle(ctx, record)
	}

	return nil
}

func (s *LogHandlerSpy) Enabled(context.Context, slog.Level) bool { return true }

func (s *LogHandlerSpy) WithAttrs([]slog.Attr) slog.Handler { return s }

func (s *LogHandlerSpy) WithGroup(string) slog.Handler { return s }

func (s *LogHandlerSpy) any(match func(slog.Record) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.ContainsFunc(s.records, match)
}

// HasLog is true if a record with exactly this level and message was handled.
func (s *LogHandlerSpy) HasLog(level slog.Level, message string) bool {
	return s.any(func(r slog.Record) bool {
		return r.Level == level && r.Message == message
	})
}

// HasLogWithAttr is true if a record with message carried key with the given value, compared as strings.
func (s *LogHandlerSpy) HasLogWithAttr(message, key, value string) bool {
	return s.any(func(r slog.Record) bool {
		if r.Message != message {
			return false
		}

		carried := false
		r.Attrs(func(attr slog.Attr) bool {
			carried = attr.Key == key && attr.Value.String() == value
			return !carried
		})

		return carried
	})
}

func (s *LogHandlerSpy) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

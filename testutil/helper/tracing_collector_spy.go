package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// SpySpanContext is the eventstore.SpanContext handed out by TracingCollectorSpy.
type SpySpanContext struct {
	name       string
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes[key] = value
}

// SpySpanRecord represents a finished span.
type SpySpanRecord struct {
	Name       string
	Status     string
	Attributes map[string]string
}

// TracingCollectorSpy captures finished spans for inspection in tests.
type TracingCollectorSpy struct {
	finished []SpySpanRecord
	mu       sync.Mutex
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	span := &SpySpanContext{name: name, attributes: maps.Clone(attrs)}
	if span.attributes == nil {
		span.attributes = make(map[string]string)
	}

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	span.mu.Lock()
	record := SpySpanRecord{Name: span.name, Status: status, Attributes: maps.Clone(span.attributes)}
	span.mu.Unlock()

	maps.Copy(record.Attributes, attrs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, record)
}

// FinishedSpans returns a copy of all finished spans.
func (s *TracingCollectorSpy) FinishedSpans() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpySpanRecord, len(s.finished))
	copy(records, s.finished)

	return records
}

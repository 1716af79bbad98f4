package helper

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// SpyMetricKind tells which MetricsCollector method produced a SpyMetricRecord.
type SpyMetricKind int

const (
	SpyDuration SpyMetricKind = iota
	SpyCounter
	SpyValue
)

// SpyMetricRecord is one call received by MetricsCollectorSpy. Duration is set for SpyDuration,
// Value for SpyValue.
type SpyMetricRecord struct {
	Kind     SpyMetricKind
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy keeps every metrics call in arrival order.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []SpyMetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) keep(record SpyMetricRecord) {
	record.Labels = maps.Clone(record.Labels)

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.keep(SpyMetricRecord{Kind: SpyDuration, Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.keep(SpyMetricRecord{Kind: SpyCounter, Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.keep(SpyMetricRecord{Kind: SpyValue, Metric: metric, Value: value, Labels: labels})
}

// RecordsFor returns the calls of one kind for metric.
func (s *MetricsCollectorSpy) RecordsFor(kind SpyMetricKind, metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.DeleteFunc(slices.Clone(s.records), func(r SpyMetricRecord) bool {
		return r.Kind != kind || r.Metric != metric
	})
}

func (s *MetricsCollectorSpy) HasDurationRecord(metric string) bool {
	return len(s.RecordsFor(SpyDuration, metric)) > 0
}

func (s *MetricsCollectorSpy) CounterRecordsFor(metric string) []SpyMetricRecord {
	return s.RecordsFor(SpyCounter, metric)
}

// HasCounterRecordWithLabel is true if at least one increment of metric carried labelKey=labelValue.
func (s *MetricsCollectorSpy) HasCounterRecordWithLabel(metric, labelKey, labelValue string) bool {
	return slices.ContainsFunc(s.CounterRecordsFor(metric), func(r SpyMetricRecord) bool {
		return r.Labels[labelKey] == labelValue
	})
}

func (s *MetricsCollectorSpy) ValueRecordsFor(metric string) []SpyMetricRecord {
	return s.RecordsFor(SpyValue, metric)
}

func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

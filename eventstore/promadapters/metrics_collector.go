package promadapters

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// DefaultDurationBuckets are tuned for sub-second command and database latencies.
var DefaultDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// MetricsCollector implements eventstore.MetricsCollector:
//   - RecordDuration -> HistogramVec in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
type MetricsCollector struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	histograms map[string]*labeledHistogram
	counters   map[string]*labeledCounter
	gauges     map[string]*labeledGauge
}

type labeledHistogram struct {
	vec        *prometheus.HistogramVec
	labelNames []string
}

type labeledCounter struct {
	vec        *prometheus.CounterVec
	labelNames []string
}

type labeledGauge struct {
	vec        *prometheus.GaugeVec
	labelNames []string
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes every metric name, e.g. "circulation".
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// WithBuckets overrides DefaultDurationBuckets.
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) {
		m.buckets = buckets
	}
}

// NewMetricsCollector registers metrics with registerer as they are first observed.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		buckets:    DefaultDurationBuckets,
		histograms: make(map[string]*labeledHistogram),
		counters:   make(map[string]*labeledCounter),
		gauges:     make(map[string]*labeledGauge),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	h := m.histogram(metric, labels)
	if h == nil {
		return
	}

	h.vec.With(project(h.labelNames, labels)).Observe(duration.Seconds())
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	c := m.counter(metric, labels)
	if c == nil {
		return
	}

	c.vec.With(project(c.labelNames, labels)).Inc()
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	g := m.gauge(metric, labels)
	if g == nil {
		return
	}

	g.vec.With(project(g.labelNames, labels)).Set(value)
}

func (m *MetricsCollector) histogram(metric string, labels map[string]string) *labeledHistogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[metric]; ok {
		return h
	}

	labelNames := sortedKeys(labels)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      metricName(metric),
		Help:      helpText(metric),
		Buckets:   m.buckets,
	}, labelNames)

	registered, ok := register(m.registerer, vec).(*prometheus.HistogramVec)
	if !ok {
		return nil
	}

	h := &labeledHistogram{vec: registered, labelNames: labelNames}
	m.histograms[metric] = h

	return h
}

func (m *MetricsCollector) counter(metric string, labels map[string]string) *labeledCounter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[metric]; ok {
		return c
	}

	labelNames := sortedKeys(labels)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      metricName(metric),
		Help:      helpText(metric),
	}, labelNames)

	registered, ok := register(m.registerer, vec).(*prometheus.CounterVec)
	if !ok {
		return nil
	}

	c := &labeledCounter{vec: registered, labelNames: labelNames}
	m.counters[metric] = c

	return c
}

func (m *MetricsCollector) gauge(metric string, labels map[string]string) *labeledGauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gauges[metric]; ok {
		return g
	}

	labelNames := sortedKeys(labels)
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      metricName(metric),
		Help:      helpText(metric),
	}, labelNames)

	registered, ok := register(m.registerer, vec).(*prometheus.GaugeVec)
	if !ok {
		return nil
	}

	g := &labeledGauge{vec: registered, labelNames: labelNames}
	m.gauges[metric] = g

	return g
}

// register returns the already registered collector if an equal one exists and nil on any other error.
func register(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	if registerer == nil {
		return collector
	}

	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector
	}

	return nil
}

func project(labelNames []string, labels map[string]string) prometheus.Labels {
	projected := make(prometheus.Labels, len(labelNames))
	for _, name := range labelNames {
		projected[name] = labels[name]
	}

	return projected
}

func sortedKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// metricName makes arbitrary metric names valid for Prometheus.
func metricName(metric string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(metric)
}

func helpText(metric string) string {
	return "circulation metric " + metricName(metric)
}

var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)

package memengine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

const (
	engineName                = "memory"
	logMsgQueryCompleted      = "query completed"
	logMsgEventsAppended      = "events appended"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgDecodePayloadFailed = "failed to decode event payload"
	logMsgOperation           = "eventstore operation: "
	logAttrError              = "error"
	logAttrEventType          = "event_type"
	logAttrEventCount         = "event_count"
	logAttrDurationMS         = "duration_ms"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
	logAttrStreamKeys         = "stream_keys"
)

type storedEvent struct {
	event   eventstore.StorableEvent
	payload map[string]string
}

// EventStore is an in-process event log with the same append semantics as the Postgres engine.
//
// Events are kept in sequence order and indexed by every top-level string field of their payload,
// so a Query on a predicate-keyed stream only touches the events of that stream.
// The internal lock is held for the duration of a single Query or Append, never across calls,
// so concurrent writers on the same stream still go through the optimistic conflict check.
type EventStore struct {
	mu     *sync.RWMutex
	events *[]storedEvent
	index  map[string][]int

	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets a logger receiving debug and info messages about queries and appends.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that receives the request context, preferred over WithLogger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the collector for query and append durations, event counts and conflicts.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.metricsCollector = collector
		return nil
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) (EventStore, error) {
	events := make([]storedEvent, 0)

	es := EventStore{
		mu:     &sync.RWMutex{},
		events: &events,
		index:  make(map[string][]int),
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Query returns all events matching filter in sequence order,
// plus the highest sequence number among them (0 for an empty stream).
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	start := time.Now()

	es.mu.RLock()
	matched, maxSequenceNumber := es.collect(filter)
	es.mu.RUnlock()

	result := make(eventstore.StorableEvents, 0, len(matched))
	for _, stored := range matched {
		result = append(result, stored.event)
	}

	duration := time.Since(start)
	es.observe(ctx, eventstore.OperationQuery, eventstore.MetricQueryDuration, eventstore.MetricEventsQueried, len(result), duration)
	es.logDebug(ctx, logMsgOperation+logMsgQueryCompleted, logAttrEventCount, len(result), logAttrDurationMS, toMilliseconds(duration))

	return result, maxSequenceNumber, nil
}

// Append stores the events if the stream described by filter still ends at expectedMaxSequenceNumber.
// Otherwise it returns eventstore.ErrConcurrencyConflict and stores nothing.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	decoded := make([]map[string]string, 0, len(allEvents))
	for _, e := range allEvents {
		payload, err := decodePayload(e.PayloadJSON)
		if err != nil {
			es.logError(ctx, logMsgDecodePayloadFailed, err, logAttrEventType, e.EventType)
			return err
		}

		decoded = append(decoded, payload)
	}

	start := time.Now()

	es.mu.Lock()
	_, actualMaxSequenceNumber := es.collect(filter)

	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		es.mu.Unlock()

		eventstore.IncrementCounter(ctx, es.metricsCollector, eventstore.MetricConcurrencyConflicts, es.labels(eventstore.OperationAppend))
		es.logInfo(
			ctx,
			logMsgOperation+logMsgConcurrencyConflict,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
			logAttrActualSequence, actualMaxSequenceNumber,
			logAttrStreamKeys, filter.StreamKeys(),
		)

		return eventstore.ErrConcurrencyConflict
	}

	for i, e := range allEvents {
		position := len(*es.events)
		e.SequenceNumber = eventstore.MaxSequenceNumberUint(position + 1)
		*es.events = append(*es.events, storedEvent{event: e, payload: decoded[i]})

		for key, val := range decoded[i] {
			indexKey := key + ":" + val
			es.index[indexKey] = append(es.index[indexKey], position)
		}
	}
	es.mu.Unlock()

	duration := time.Since(start)
	es.observe(ctx, eventstore.OperationAppend, eventstore.MetricAppendDuration, eventstore.MetricEventsAppended, len(allEvents), duration)
	es.logInfo(ctx, logMsgOperation+logMsgEventsAppended, logAttrEventCount, len(allEvents), logAttrDurationMS, toMilliseconds(duration))

	return nil
}

// collect must be called with es.mu held.
func (es EventStore) collect(filter eventstore.Filter) ([]storedEvent, eventstore.MaxSequenceNumberUint) {
	matched := make([]storedEvent, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, position := range es.candidates(filter) {
		stored := (*es.events)[position]

		if filter.Matches(stored.event.EventType, stored.payload, stored.event.OccurredAt) {
			matched = append(matched, stored)
			maxSequenceNumber = stored.event.SequenceNumber
		}
	}

	return matched, maxSequenceNumber
}

// candidates narrows the scan via the payload index when every filter item carries predicates.
func (es EventStore) candidates(filter eventstore.Filter) []int {
	keys := filter.StreamKeys()

	if len(keys) == 0 {
		all := make([]int, len(*es.events))
		for i := range all {
			all[i] = i
		}

		return all
	}

	positions := make([]int, 0)
	for _, key := range keys {
		positions = append(positions, es.index[key]...)
	}

	slices.Sort(positions)

	return slices.Compact(positions)
}

func decodePayload(payloadJSON []byte) (map[string]string, error) {
	raw := make(map[string]any)
	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &raw); err != nil {
		return nil, errors.Join(eventstore.ErrDecodingPayloadFailed, err)
	}

	payload := make(map[string]string, len(raw))
	for key, val := range raw {
		if s, ok := val.(string); ok && s != "" {
			payload[key] = s
		}
	}

	return payload, nil
}

package eventstore

import (
	"errors"
)

var (
	ErrEmptyEventsTableName  = errors.New("events table name must not be empty")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrConcurrencyConflict   = errors.New("concurrency error, no rows were affected")

	ErrBuildingQueryFailed         = errors.New("building the query failed")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning db row failed")
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")
	ErrAppendingEventFailed        = errors.New("appending the event failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
	ErrDecodingPayloadFailed       = errors.New("decoding event payload failed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint

// Metric names shared by all engines.
const (
	MetricQueryDuration        = "eventstore_query_duration_seconds"
	MetricAppendDuration       = "eventstore_append_duration_seconds"
	MetricEventsQueried        = "eventstore_events_queried_total"
	MetricEventsAppended       = "eventstore_events_appended_total"
	MetricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	MetricDatabaseErrors       = "eventstore_database_errors_total"

	MetricLabelOperation = "operation"
	MetricLabelEngine    = "engine"
	MetricLabelErrorType = "error_type"

	OperationQuery  = "query"
	OperationAppend = "append"
)

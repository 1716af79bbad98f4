package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/postgresengine/internal/adapters"
)

const (
	engineName                     = "postgres"
	defaultEventTableName          = "events"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgQueryCompleted           = "query completed"
	logMsgEventsAppended           = "events appended"
	logMsgConcurrencyConflict      = "concurrency conflict detected"
	logMsgSchemaCreated            = "events table ensured"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "
	logAttrError                   = "error"
	logAttrQuery                   = "query"
	logAttrEventType               = "event_type"
	logAttrEventCount              = "event_count"
	logAttrDurationMS              = "duration_ms"
	logAttrExpectedEvents          = "expected_events"
	logAttrRowsAffected            = "rows_affected"
	logAttrExpectedSequence        = "expected_sequence"
	logAttrTable                   = "table"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxSeq                    = "max_seq"
	castText                       = "?::text"
	castTimestamp                  = "?::timestamp with time zone"
	castJsonb                      = "?::jsonb"
	predicateContains              = colPayload + " @> ?::jsonb"
	funcAdvisoryXactLock           = "pg_advisory_xact_lock"
	funcAdvisoryXactLockShared     = "pg_advisory_xact_lock_shared"
	funcHashTextExtended           = "hashtextextended"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// EventStore is the Postgres implementation of the event store.
//
// Append runs the CTE-guarded insert inside a transaction that first takes transaction-scoped
// advisory locks on the stream keys of the filter. Appends on the same stream are therefore
// serialized and the max sequence check cannot be bypassed by concurrent inserts under READ COMMITTED,
// while appends on different streams only share a lock in shared mode and never block each other.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

type queryResultRow struct {
	eventType      string
	payload        []byte
	metadata       []byte
	occurredAt     time.Time
	sequenceNumber eventstore.MaxSequenceNumberUint
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolWithReplica routes eventually consistent queries to the replica pool.
func NewEventStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLDBWithReplica routes eventually consistent queries to the replica.
func NewEventStoreFromSQLDBWithReplica(db *sql.DB, replica *sql.DB, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

// NewEventStoreFromSQLXWithReplica routes eventually consistent queries to the replica.
func NewEventStoreFromSQLXWithReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// CreateEventsTable creates the events table and its indexes if they do not exist yet.
func (es EventStore) CreateEventsTable(ctx context.Context) error {
	table := pq.QuoteIdentifier(es.eventTableName)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s BIGSERIAL PRIMARY KEY,
			%s TEXT NOT NULL,
			%s TIMESTAMP WITH TIME ZONE NOT NULL,
			%s JSONB NOT NULL,
			%s JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING gin (%s jsonb_path_ops)`,
			pq.QuoteIdentifier(es.eventTableName+"_payload_idx"), table, colPayload),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			pq.QuoteIdentifier(es.eventTableName+"_event_type_idx"), table, colEventType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			pq.QuoteIdentifier(es.eventTableName+"_occurred_at_idx"), table, colOccurredAt),
	}

	for _, statement := range statements {
		if _, err := es.db.Exec(ctx, statement); err != nil {
			es.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, statement)
			return errors.Join(eventstore.ErrAppendingEventFailed, err)
		}
	}

	es.logInfo(ctx, logMsgOperation+logMsgSchemaCreated, logAttrTable, es.eventTableName)

	return nil
}

// Query retrieves the events matching filter ordered by sequence number
// together with the max sequence number of this "dynamic event stream".
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	ctx, span := es.startSpan(ctx, eventstore.OperationQuery, nil)
	empty := eventstore.StorableEvents{}

	sqlQuery, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		es.finishSpan(span, statusError, buildQueryErr)
		return empty, 0, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, eventstore.OperationQuery, time.Since(start))

	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		es.recordError(ctx, eventstore.OperationQuery, errorTypeDatabase)
		es.finishSpan(span, statusError, queryErr)
		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	eventStream, maxSequenceNumber, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		es.recordError(ctx, eventstore.OperationQuery, errorTypeScan)
		es.finishSpan(span, statusError, scanErr)
		return empty, 0, scanErr
	}

	duration := time.Since(start)
	es.recordSuccess(ctx, eventstore.OperationQuery, eventstore.MetricQueryDuration, eventstore.MetricEventsQueried, len(eventStream), duration)
	es.logDebug(
		ctx,
		logMsgOperation+logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, toMilliseconds(duration))
	es.finishSpan(span, statusSuccess, nil)

	return eventStream, maxSequenceNumber, nil
}

func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (es EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	result := queryResultRow{}
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.sequenceNumber)
		if rowScanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, rowScanErr)
			return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.BuildStorableEvent(result.eventType, result.occurredAt, result.payload, result.metadata)
		if buildStorableErr != nil {
			es.logError(ctx, logMsgBuildStorableEventFailed, buildStorableErr, logAttrEventType, result.eventType)
			return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		event.SequenceNumber = result.sequenceNumber
		eventStream = append(eventStream, event)
		maxSequenceNumber = result.sequenceNumber
	}

	if err := rows.Err(); err != nil {
		es.logError(ctx, logMsgScanRowFailed, err)
		return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
	}

	return eventStream, maxSequenceNumber, nil
}

// Append appends the events if the stream described by filter still ends at expectedMaxSequenceNumber.
// Otherwise it returns eventstore.ErrConcurrencyConflict and nothing is written.
//
// The filter should be the one used for the Query the decision was based on.
// One command should typically produce one event.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)
	ctx, span := es.startSpan(ctx, eventstore.OperationAppend, map[string]string{spanAttrEventType: event.EventType})

	sqlQuery, buildQueryErr := es.buildAppendQuery(allEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, logAttrEventCount, len(allEvents))
		es.finishSpan(span, statusError, buildQueryErr)
		return buildQueryErr
	}

	lockStatements, buildLockErr := es.buildLockStatements(filter)
	if buildLockErr != nil {
		es.finishSpan(span, statusError, buildLockErr)
		return buildLockErr
	}

	start := time.Now()
	rowsAffected, execErr := es.executeAppendQuery(ctx, lockStatements, sqlQuery)
	duration := time.Since(start)

	if execErr != nil {
		es.recordError(ctx, eventstore.OperationAppend, errorTypeDatabase)
		es.finishSpan(span, statusError, execErr)
		return execErr
	}

	if rowsAffected < int64(len(allEvents)) {
		es.recordConflict(ctx)
		es.logInfo(
			ctx,
			logMsgOperation+logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(allEvents),
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
		)
		es.finishSpan(span, statusConflict, eventstore.ErrConcurrencyConflict)

		return eventstore.ErrConcurrencyConflict
	}

	es.recordSuccess(ctx, eventstore.OperationAppend, eventstore.MetricAppendDuration, eventstore.MetricEventsAppended, len(allEvents), duration)
	es.logInfo(
		ctx,
		logMsgOperation+logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, toMilliseconds(duration),
	)
	es.finishSpan(span, statusSuccess, nil)

	return nil
}

func (es EventStore) executeAppendQuery(ctx context.Context, lockStatements []string, sqlQuery string) (rowsAffectedInt64, error) {
	start := time.Now()
	tag, execErr := es.db.ExecLocked(ctx, lockStatements, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, eventstore.OperationAppend, time.Since(start))

	if execErr != nil {
		es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// buildLockStatements locks every stream key exclusively and the table in shared mode.
// A filter without stream keys spans the whole log and takes the table lock exclusively.
func (es EventStore) buildLockStatements(filter eventstore.Filter) ([]string, error) {
	builder := goqu.Dialect(dialectPostgres)
	keys := filter.StreamKeys()

	tableLock := funcAdvisoryXactLockShared
	if len(keys) == 0 {
		tableLock = funcAdvisoryXactLock
	}

	lockFor := func(fn string, key string) (string, error) {
		stmt, _, err := builder.
			Select(goqu.Func(fn, goqu.Func(funcHashTextExtended, goqu.V(key), goqu.V(0)))).
			ToSQL()
		if err != nil {
			return "", errors.Join(eventstore.ErrBuildingQueryFailed, err)
		}

		return stmt, nil
	}

	statements := make([]string, 0, len(keys)+1)

	stmt, err := lockFor(tableLock, es.eventTableName)
	if err != nil {
		return nil, err
	}
	statements = append(statements, stmt)

	for _, key := range keys {
		stmt, err = lockFor(funcAdvisoryXactLock, es.eventTableName+":"+key)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return statements, nil
}

func (es EventStore) buildAppendQuery(
	allEvents eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	if len(allEvents) == 1 {
		return es.buildInsertQueryForSingleEvent(allEvents[0], filter, expectedMaxSequenceNumber)
	}

	return es.buildInsertQueryForMultipleEvents(allEvents, filter, expectedMaxSequenceNumber)
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt, err := es.addWhereClause(filter, selectStmt)
	if err != nil {
		return "", err
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildContextCTE(builder goqu.DialectWrapper, filter eventstore.Filter) (*goqu.SelectDataset, error) {
	cteStmt := builder.
		From(es.eventTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	return es.addWhereClause(filter, cteStmt)
}

func (es EventStore) buildInsertQueryForSingleEvent(
	event eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, err := es.buildContextCTE(builder, filter)
	if err != nil {
		return "", err
	}

	selectStmt := builder.
		From(cteContext).
		Select(
			goqu.L(castText, event.EventType),
			goqu.L(castTimestamp, event.OccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)),
			goqu.L(castJsonb, string(event.MetadataJSON)),
		).
		Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber)))

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildInsertQueryForMultipleEvents(
	events []eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, err := es.buildContextCTE(builder, filter)
	if err != nil {
		return "", err
	}

	var valuesStmt *goqu.SelectDataset
	for _, event := range events {
		stmt := builder.Select(
			goqu.L(castText, event.EventType).As(colEventType),
			goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
			goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
		)

		if valuesStmt == nil {
			valuesStmt = stmt
			continue
		}

		valuesStmt = valuesStmt.UnionAll(stmt)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(
					goqu.I(cteVals+"."+colEventType),
					goqu.I(cteVals+"."+colOccurredAt),
					goqu.I(cteVals+"."+colPayload),
					goqu.I(cteVals+"."+colMetadata),
				).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	itemsExpressions := make([]exp.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		eventTypeExpressions := make([]exp.Expression, 0, len(item.EventTypes()))
		for _, eventType := range item.EventTypes() {
			eventTypeExpressions = append(eventTypeExpressions, goqu.Ex{colEventType: eventType})
		}

		predicateExpressions := make([]exp.Expression, 0, len(item.Predicates()))
		for _, predicate := range item.Predicates() {
			containment, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(
				map[string]string{predicate.Key(): predicate.Val()},
			)
			if err != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(predicateContains, string(containment)))
		}

		var predicatesExpressionList exp.ExpressionList
		if item.AllPredicatesMustMatch() {
			predicatesExpressionList = goqu.And(predicateExpressions...)
		} else {
			predicatesExpressionList = goqu.Or(predicateExpressions...)
		}

		itemsExpressions = append(itemsExpressions, goqu.And(goqu.Or(eventTypeExpressions...), predicatesExpressionList))
	}

	occurredAtExpressions := make([]exp.Expression, 0, 2)

	if !filter.OccurredFrom().IsZero() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom()))
	}

	if !filter.OccurredUntil().IsZero() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil()))
	}

	return selectStmt.Where(goqu.And(goqu.Or(itemsExpressions...), goqu.And(occurredAtExpressions...))), nil
}

package postgresengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

func titleFilter(titleIDs ...string) eventstore.Filter {
	predicates := make([]eventstore.FilterPredicate, 0, len(titleIDs))
	for _, id := range titleIDs {
		predicates = append(predicates, eventstore.P("TitleID", id))
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("TitleCopyLentToPatron", "TitleCopyReturnedByPatron").
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}

func Test_BuildSelectQuery_UsesJSONContainment(t *testing.T) {
	es := EventStore{eventTableName: defaultEventTableName}

	sqlQuery, err := es.buildSelectQuery(titleFilter("t-1"))

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "events"`)
	assert.Contains(t, sqlQuery, `payload @> '{"TitleID":"t-1"}'::jsonb`)
	assert.Contains(t, sqlQuery, `"event_type" = 'TitleCopyLentToPatron'`)
	assert.Contains(t, sqlQuery, `"event_type" = 'TitleCopyReturnedByPatron'`)
	assert.Contains(t, sqlQuery, `ORDER BY "sequence_number" ASC`)
}

func Test_BuildSelectQuery_WithTimeWindow(t *testing.T) {
	es := EventStore{eventTableName: defaultEventTableName}
	filter := eventstore.BuildEventFilter().
		OccurredFrom(helper.Day0()).
		OccurredUntil(helper.Day0().Add(helper.Days(7))).
		MatchingAnyEvent()

	sqlQuery, err := es.buildSelectQuery(filter)

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"occurred_at" >= `)
	assert.Contains(t, sqlQuery, `"occurred_at" <= `)
}

func Test_BuildAppendQuery_GuardsOnExpectedSequence(t *testing.T) {
	es := EventStore{eventTableName: defaultEventTableName}
	event, err := eventstore.BuildStorableEventWithEmptyMetadata(
		"TitleCopyLentToPatron", helper.Day0(), []byte(`{"TitleID":"t-1"}`))
	require.NoError(t, err)

	single, err := es.buildAppendQuery(eventstore.StorableEvents{event}, titleFilter("t-1"), 7)
	require.NoError(t, err)

	multiple, err := es.buildAppendQuery(eventstore.StorableEvents{event, event}, titleFilter("t-1"), 7)
	require.NoError(t, err)

	for _, sqlQuery := range []string{single, multiple} {
		assert.Contains(t, sqlQuery, `MAX("sequence_number") AS "max_seq"`)
		assert.Contains(t, sqlQuery, `COALESCE("max_seq", 0) = 7`)
	}
	assert.Contains(t, multiple, "UNION ALL")
}

func Test_BuildLockStatements_LocksEveryStreamKey(t *testing.T) {
	es := EventStore{eventTableName: defaultEventTableName}

	statements, err := es.buildLockStatements(titleFilter("t-2", "t-1"))

	require.NoError(t, err)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], `pg_advisory_xact_lock_shared(hashtextextended('events', 0))`)
	assert.Contains(t, statements[1], `pg_advisory_xact_lock(hashtextextended('events:TitleID:t-1', 0))`)
	assert.Contains(t, statements[2], `pg_advisory_xact_lock(hashtextextended('events:TitleID:t-2', 0))`)
}

func Test_BuildLockStatements_WithoutPredicates_LocksTheWholeTable(t *testing.T) {
	es := EventStore{eventTableName: defaultEventTableName}

	statements, err := es.buildLockStatements(eventstore.BuildEventFilter().MatchingAnyEvent())

	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `pg_advisory_xact_lock(hashtextextended('events', 0))`)
	assert.NotContains(t, statements[0], "shared")
}

func Test_WithTableName_RejectsEmptyName(t *testing.T) {
	_, err := newEventStore(nil, WithTableName(""))

	assert.ErrorIs(t, err, eventstore.ErrEmptyEventsTableName)
}

package postgresengine_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

const testDSNEnv = "CIRCULATION_TEST_DSN"

func givenPostgresStore(t *testing.T) postgresengine.EventStore {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	tableName := fmt.Sprintf("events_test_%d", time.Now().UnixNano())
	es, err := postgresengine.NewEventStoreFromPGXPool(pool, postgresengine.WithTableName(tableName))
	require.NoError(t, err)
	require.NoError(t, es.CreateEventsTable(ctx))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+tableName)
	})

	return es
}

func lentEvent(t *testing.T, titleID string) eventstore.StorableEvent {
	payload := []byte(fmt.Sprintf(`{"TitleID": %q, "LoanID": %q}`, titleID, helper.GivenUniqueID(t)))
	event, err := eventstore.BuildStorableEventWithEmptyMetadata("TitleCopyLentToPatron", helper.Day0(), payload)
	require.NoError(t, err)

	return event
}

func streamOf(titleID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("TitleCopyLentToPatron", "TitleCopyReturnedByPatron").
		AndAnyPredicateOf(eventstore.P("TitleID", titleID)).
		Finalize()
}

func Test_NewEventStore_RejectsNilConnections(t *testing.T) {
	_, err := postgresengine.NewEventStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewEventStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewEventStoreFromSQLX(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewEventStoreFromPGXPoolWithReplica(nil, nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewEventStoreFromSQLDBWithReplica(&sql.DB{}, nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = postgresengine.NewEventStoreFromSQLXWithReplica(nil, &sqlx.DB{})
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)
}

// Every replica store gets a replica handle on the same database, closing that handle shows
// which reads went through it.
func Test_Postgres_WithReplica_RoutesOnlyEventualReadsToReplica(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	openSQL := func(t *testing.T) *sql.DB {
		db, err := sql.Open("postgres", dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		return db
	}

	testCases := []struct {
		name  string
		build func(t *testing.T, tableName string) (postgresengine.EventStore, func())
	}{
		{
			name: "pgx",
			build: func(t *testing.T, tableName string) (postgresengine.EventStore, func()) {
				primary, err := pgxpool.New(ctx, dsn)
				require.NoError(t, err)
				t.Cleanup(primary.Close)
				replica, err := pgxpool.New(ctx, dsn)
				require.NoError(t, err)

				es, err := postgresengine.NewEventStoreFromPGXPoolWithReplica(primary, replica, postgresengine.WithTableName(tableName))
				require.NoError(t, err)

				return es, replica.Close
			},
		},
		{
			name: "sql",
			build: func(t *testing.T, tableName string) (postgresengine.EventStore, func()) {
				replica := openSQL(t)
				es, err := postgresengine.NewEventStoreFromSQLDBWithReplica(openSQL(t), replica, postgresengine.WithTableName(tableName))
				require.NoError(t, err)

				return es, func() { _ = replica.Close() }
			},
		},
		{
			name: "sqlx",
			build: func(t *testing.T, tableName string) (postgresengine.EventStore, func()) {
				replica := sqlx.NewDb(openSQL(t), "postgres")
				es, err := postgresengine.NewEventStoreFromSQLXWithReplica(sqlx.NewDb(openSQL(t), "postgres"), replica, postgresengine.WithTableName(tableName))
				require.NoError(t, err)

				return es, func() { _ = replica.Close() }
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			admin := openSQL(t)
			tableName := fmt.Sprintf("events_replica_test_%d", time.Now().UnixNano())
			es, closeReplica := tc.build(t, tableName)
			require.NoError(t, es.CreateEventsTable(ctx))
			t.Cleanup(func() {
				_, _ = admin.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+tableName)
			})

			filter := streamOf("t-1")
			require.NoError(t, es.Append(ctx, filter, 0, lentEvent(t, "t-1")))

			eventual, _, err := es.Query(eventstore.WithEventualConsistency(ctx), filter)
			require.NoError(t, err)
			require.Len(t, eventual, 1)

			// act
			closeReplica()
			_, _, eventualErr := es.Query(eventstore.WithEventualConsistency(ctx), filter)
			strong, _, strongErr := es.Query(eventstore.WithStrongConsistency(ctx), filter)

			// assert
			assert.Error(t, eventualErr)
			require.NoError(t, strongErr)
			assert.Len(t, strong, 1)
		})
	}
}

func Test_Postgres_AppendAndQuery(t *testing.T) {
	// arrange
	es := givenPostgresStore(t)
	ctx := context.Background()
	filter := streamOf("t-1")

	// act
	require.NoError(t, es.Append(ctx, filter, 0, lentEvent(t, "t-1")))
	require.NoError(t, es.Append(ctx, streamOf("t-2"), 0, lentEvent(t, "t-2")))
	events, maxSeq, err := es.Query(ctx, filter)

	// assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, maxSeq, events[0].SequenceNumber)
	assert.Equal(t, time.UTC, events[0].OccurredAt.Location())
}

func Test_Postgres_StaleExpectedSequence_Conflicts(t *testing.T) {
	// arrange
	es := givenPostgresStore(t)
	ctx := context.Background()
	filter := streamOf("t-1")
	require.NoError(t, es.Append(ctx, filter, 0, lentEvent(t, "t-1")))

	// act
	err := es.Append(ctx, filter, 0, lentEvent(t, "t-1"))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func Test_Postgres_ConcurrentAppends_ExactlyOneWins(t *testing.T) {
	// arrange
	es := givenPostgresStore(t)
	ctx := context.Background()
	filter := streamOf("t-1")
	const writers = 10
	var succeeded atomic.Int32
	var wg sync.WaitGroup

	events := make([]eventstore.StorableEvent, writers)
	for i := range events {
		events[i] = lentEvent(t, "t-1")
	}

	// act
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := es.Append(ctx, filter, 0, events[i]); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), succeeded.Load())
	stored, _, err := es.Query(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

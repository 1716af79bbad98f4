// Package ledgerhelper seeds an in-memory loan ledger with events for query and analytics tests.
package ledgerhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/memengine"
)

// Ledger appends loan events directly, bypassing the command handlers and their business rules.
type Ledger struct {
	EventStore memengine.EventStore
}

// NewLedger creates a Ledger on an empty memengine.EventStore.
func NewLedger(t testing.TB) Ledger {
	t.Helper()

	es, err := memengine.NewEventStore()
	require.NoError(t, err, "error in arranging test data")

	return Ledger{EventStore: es}
}

// GivenLent records a loan of titleID to patronID borrowed at borrowedAt.
func (l Ledger) GivenLent(
	t testing.TB,
	titleID uuid.UUID,
	patronID uuid.UUID,
	borrowedAt time.Time,
	loanPeriodDays int,
) core.TitleCopyLentToPatron {

	t.Helper()

	loanID, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	event := core.BuildTitleCopyLentToPatron(loanID, titleID, patronID, borrowedAt, loanPeriodDays)
	l.append(t, event.TitleID, loanID, event)

	return event
}

// GivenReturned closes the loan opened by lent at returnedAt with fine.
func (l Ledger) GivenReturned(
	t testing.TB,
	lent core.TitleCopyLentToPatron,
	returnedAt time.Time,
	fine decimal.Decimal,
) core.TitleCopyReturnedByPatron {

	t.Helper()

	loans := core.ProjectLoans(core.DomainEvents{lent})
	require.Len(t, loans, 1, "error in arranging test data")

	event := core.BuildTitleCopyReturnedByPatron(loans[0], returnedAt, fine)
	l.append(t, event.TitleID, uuid.New(), event)

	return event
}

func (l Ledger) append(t testing.TB, titleID core.TitleIDString, messageID uuid.UUID, event core.DomainEvent) {
	t.Helper()

	ctx := context.Background()
	filter := shell.TitleLoansFilter(titleID)

	_, maxSequenceNumber, err := l.EventStore.Query(ctx, filter)
	require.NoError(t, err, "error in arranging test data")

	storableEvent, err := shell.StorableEventFrom(event, shell.BuildEventMetadataForCommand(messageID))
	require.NoError(t, err, "error in arranging test data")

	require.NoError(t, l.EventStore.Append(ctx, filter, maxSequenceNumber, storableEvent), "error in arranging test data")
}

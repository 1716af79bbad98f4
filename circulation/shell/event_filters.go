package shell

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// TitleLoansFilter selects the loan events of one title. It is the consistency boundary
// of borrow and return: both append only if this stream did not change since it was read.
func TitleLoansFilter(titleID core.TitleIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.TitleCopyLentToPatronEventType,
			core.TitleCopyReturnedByPatronEventType,
		).
		AndAnyPredicateOf(eventstore.P(core.TitleIDKey, titleID)).
		Finalize()
}

// LoanFilter selects the events of a single loan.
func LoanFilter(loanID core.LoanIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.TitleCopyLentToPatronEventType,
			core.TitleCopyReturnedByPatronEventType,
		).
		AndAnyPredicateOf(eventstore.P(core.LoanIDKey, loanID)).
		Finalize()
}

// PatronLoansFilter selects the loan events of one patron.
func PatronLoansFilter(patronID core.PatronIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.TitleCopyLentToPatronEventType,
			core.TitleCopyReturnedByPatronEventType,
		).
		AndAnyPredicateOf(eventstore.P(core.PatronIDKey, patronID)).
		Finalize()
}

// AllLoansFilter selects every loan event, optionally only those that occurred at or after since.
func AllLoansFilter(since time.Time) eventstore.Filter {
	builder := eventstore.BuildEventFilter()
	if !since.IsZero() {
		builder = builder.OccurredFrom(since)
	}

	return builder.
		Matching().
		AnyEventTypeOf(
			core.TitleCopyLentToPatronEventType,
			core.TitleCopyReturnedByPatronEventType,
		).
		Finalize()
}

// Package eventstore holds the engine-agnostic building blocks of the circulation event log:
// filters, storable events, consistency hints and the observability interfaces.
//
// Every write is guarded by the filter it was decided on. A command handler queries a
// "dynamic event stream" (all events matching a Filter), decides, and appends with the
// max sequence number it observed. The append only succeeds if no other event matching
// the same filter was appended in the meantime, otherwise ErrConcurrencyConflict is returned
// and nothing is written:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.TitleCopyLentToPatronEventType,
//			core.TitleCopyReturnedByPatronEventType).
//		AndAnyPredicateOf(P("TitleID", titleID.String())).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	// ... decide ...
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//
// Filters keyed by a predicate only conflict with appends that touch the same predicate value,
// so streams of different titles never contend.
package eventstore

package eventstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

func Test_FilterBuilder_SanitizesInput(t *testing.T) {
	// act
	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("B", "", "A", "B").
		AndAnyPredicateOf(
			eventstore.P("TitleID", "2"),
			eventstore.P("", "x"),
			eventstore.P("TitleID", "1"),
			eventstore.P("TitleID", "2"),
			eventstore.P("PatronID", ""),
		).
		Finalize()

	// assert
	assert.Len(t, filter.Items(), 1)
	assert.Equal(t, []string{"A", "B"}, filter.Items()[0].EventTypes())
	assert.Equal(
		t,
		[]eventstore.FilterPredicate{eventstore.P("TitleID", "1"), eventstore.P("TitleID", "2")},
		filter.Items()[0].Predicates(),
	)
	assert.False(t, filter.Items()[0].AllPredicatesMustMatch())
}

func Test_FilterBuilder_BuildsMultipleItemsAndTimeWindow(t *testing.T) {
	// arrange
	from := time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	// act
	filter := eventstore.BuildEventFilter().
		OccurredFrom(from).
		Matching().
		AnyPredicateOf(eventstore.P("LoanID", "l-1")).
		OrMatching().
		AllPredicatesOf(eventstore.P("TitleID", "t-1"), eventstore.P("PatronID", "p-1")).
		AndAnyEventTypeOf("Lent").
		Finalize()

	// assert
	assert.Len(t, filter.Items(), 2)
	assert.True(t, filter.Items()[1].AllPredicatesMustMatch())
	assert.Equal(t, from.UTC(), filter.OccurredFrom())
	assert.Equal(t, time.UTC, filter.OccurredFrom().Location())
	assert.True(t, filter.OccurredUntil().IsZero())
}

func Test_FilterBuilder_MatchingAnyEvent_HasNoItems(t *testing.T) {
	filter := eventstore.BuildEventFilter().MatchingAnyEvent()

	assert.Empty(t, filter.Items())
	assert.Empty(t, filter.StreamKeys())
	assert.True(t, filter.Matches("Anything", nil, time.Now()))
}

func Test_Filter_StreamKeys(t *testing.T) {
	tests := []struct {
		name     string
		filter   eventstore.Filter
		expected []string
	}{
		{
			name: "single predicate",
			filter: eventstore.BuildEventFilter().
				Matching().AnyEventTypeOf("Lent").AndAnyPredicateOf(eventstore.P("TitleID", "t-1")).
				Finalize(),
			expected: []string{"TitleID:t-1"},
		},
		{
			name: "predicates across items are merged and de-duplicated",
			filter: eventstore.BuildEventFilter().
				Matching().AnyPredicateOf(eventstore.P("TitleID", "t-2"), eventstore.P("PatronID", "p-1")).
				OrMatching().AnyPredicateOf(eventstore.P("TitleID", "t-2")).
				Finalize(),
			expected: []string{"PatronID:p-1", "TitleID:t-2"},
		},
		{
			name: "an item without predicates spans the whole log",
			filter: eventstore.BuildEventFilter().
				Matching().AnyPredicateOf(eventstore.P("TitleID", "t-1")).
				OrMatching().AnyEventTypeOf("Lent").
				Finalize(),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.StreamKeys())
		})
	}
}

func Test_Filter_Matches(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	anyOf := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("Lent", "Returned").
		AndAnyPredicateOf(eventstore.P("TitleID", "t-1"), eventstore.P("PatronID", "p-1")).
		Finalize()

	allOf := eventstore.BuildEventFilter().
		Matching().
		AllPredicatesOf(eventstore.P("TitleID", "t-1"), eventstore.P("PatronID", "p-1")).
		Finalize()

	windowed := eventstore.BuildEventFilter().
		OccurredFrom(now.Add(-time.Hour)).
		OccurredUntil(now).
		MatchingAnyEvent()

	tests := []struct {
		name       string
		filter     eventstore.Filter
		eventType  string
		payload    map[string]string
		occurredAt time.Time
		expected   bool
	}{
		{"any-of matches one predicate", anyOf, "Lent", map[string]string{"PatronID": "p-1"}, now, true},
		{"any-of rejects other event type", anyOf, "Other", map[string]string{"TitleID": "t-1"}, now, false},
		{"any-of rejects other value", anyOf, "Lent", map[string]string{"TitleID": "t-2"}, now, false},
		{"all-of needs every predicate", allOf, "Lent", map[string]string{"TitleID": "t-1"}, now, false},
		{"all-of matches every predicate", allOf, "Lent", map[string]string{"TitleID": "t-1", "PatronID": "p-1"}, now, true},
		{"window includes the upper bound", windowed, "Lent", nil, now, true},
		{"window excludes earlier events", windowed, "Lent", nil, now.Add(-2 * time.Hour), false},
		{"window excludes later events", windowed, "Lent", nil, now.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(tt.eventType, tt.payload, tt.occurredAt))
		})
	}
}

func Test_FilterBuilder_IsImmutableBetweenBranches(t *testing.T) {
	// arrange
	base := eventstore.BuildEventFilter().Matching().AnyEventTypeOf("Lent")

	// act
	first := base.AndAnyPredicateOf(eventstore.P("TitleID", "t-1")).Finalize()
	second := base.AndAnyPredicateOf(eventstore.P("TitleID", "t-2")).Finalize()

	// assert
	assert.Equal(t, "t-1", first.Items()[0].Predicates()[0].Val())
	assert.Equal(t, "t-2", second.Items()[0].Predicates()[0].Val())
}

package eventstore

import (
	"slices"
	"strings"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter describes a "dynamic event stream": all events matching ANY of its items
// and lying inside the optional occurred-at window.
type Filter struct {
	items         []FilterItem
	occurredFrom  time.Time
	occurredUntil time.Time
}

func (f Filter) Items() []FilterItem {
	return f.items
}

// OccurredFrom is the inclusive lower bound, zero if unbounded.
func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

// OccurredUntil is the inclusive upper bound, zero if unbounded.
func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

// StreamKeys returns the sorted, de-duplicated "key:val" strings of all predicates in the Filter.
// Engines use them to serialize appends on the same stream. An empty result means the Filter
// spans the whole log.
func (f Filter) StreamKeys() []string {
	keys := make([]string, 0)

	for _, item := range f.items {
		if len(item.predicates) == 0 {
			return []string{}
		}

		for _, p := range item.predicates {
			keys = append(keys, p.key+":"+p.val)
		}
	}

	slices.Sort(keys)

	return slices.Compact(keys)
}

// Matches reports whether an event with the given type, top-level string payload fields
// and occurrence time belongs to the stream described by the Filter.
func (f Filter) Matches(eventType string, payload map[string]string, occurredAt time.Time) bool {
	if !f.occurredFrom.IsZero() && occurredAt.Before(f.occurredFrom) {
		return false
	}

	if !f.occurredUntil.IsZero() && occurredAt.After(f.occurredUntil) {
		return false
	}

	if len(f.items) == 0 {
		return true
	}

	for _, item := range f.items {
		if item.matches(eventType, payload) {
			return true
		}
	}

	return false
}

/***** FilterItem *****/

type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

func (fi FilterItem) matches(eventType string, payload map[string]string) bool {
	if len(fi.eventTypes) > 0 && !slices.Contains(fi.eventTypes, eventType) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	for _, p := range fi.predicates {
		hit := payload[p.key] == p.val

		if fi.allPredicatesMustMatch && !hit {
			return false
		}

		if !fi.allPredicatesMustMatch && hit {
			return true
		}
	}

	return fi.allPredicatesMustMatch
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P builds a FilterPredicate matching events whose JSON payload has the top-level string field key == val.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a Filter that engines translate into their own query language.
// Only combinations that are useful for event-sourced workflows can be expressed:
//
//   - empty filter (whole log)
//   - (eventType OR eventType...)
//   - (predicate OR predicate...) / (predicate AND predicate...)
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - any of the above OR'ed as multiple FilterItem(s)
//
// Each of them can be bounded by an occurred-at window.
type FilterBuilder interface {
	// OccurredFrom sets an inclusive lower bound for the occurred-at time.
	OccurredFrom(from time.Time) FilterBuilder

	// OccurredUntil sets an inclusive upper bound for the occurred-at time.
	OccurredUntil(until time.Time) FilterBuilder

	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates a Filter without items.
	MatchingAnyEvent() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds EventTypes to the current FilterItem, dropping empty ones, sorted and de-duplicated.
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates

	// AnyPredicateOf adds FilterPredicate(s) of which ANY must match, dropping partial ones, sorted and de-duplicated.
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes

	// AllPredicatesOf adds FilterPredicate(s) of which ALL must match.
	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	CompletedFilterItemBuilder
}

type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder
	CompletedFilterItemBuilder
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

// filterBuilder implements all the builder interfaces. It is passed by value, so every step works on a copy.
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) OccurredFrom(from time.Time) FilterBuilder {
	fb.filter.occurredFrom = from.UTC()

	return fb
}

func (fb filterBuilder) OccurredUntil(until time.Time) FilterBuilder {
	fb.filter.occurredUntil = until.UTC()

	return fb
}

func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.eventTypes = sanitizeEventTypes(
		append(slices.Clone(fb.currentFilterItem.eventTypes), append([]FilterEventTypeString{eventType}, eventTypes...)...),
	)

	return fb
}

func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.predicates = sanitizePredicates(
		append(slices.Clone(fb.currentFilterItem.predicates), append([]FilterPredicate{predicate}, predicates...)...),
	)

	return fb
}

func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = true

	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(slices.Clone(fb.filter.items), fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}

	return fb
}

func (fb filterBuilder) MatchingAnyEvent() Filter {
	return fb.filter
}

func (fb filterBuilder) Finalize() Filter {
	fb.filter.items = append(slices.Clone(fb.filter.items), fb.currentFilterItem)

	return fb.filter
}

func sanitizeEventTypes(eventTypes []FilterEventTypeString) []FilterEventTypeString {
	eventTypes = slices.DeleteFunc(eventTypes, func(e FilterEventTypeString) bool { return e == "" })
	slices.Sort(eventTypes)

	return slices.Clip(slices.Compact(eventTypes))
}

func sanitizePredicates(predicates []FilterPredicate) []FilterPredicate {
	predicates = slices.DeleteFunc(predicates, func(p FilterPredicate) bool { return p.key == "" || p.val == "" })
	slices.SortFunc(predicates, func(a, b FilterPredicate) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}

		return strings.Compare(a.val, b.val)
	})

	return slices.Clip(slices.Compact(predicates))
}

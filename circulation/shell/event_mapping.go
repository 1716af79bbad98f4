package shell

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

var (
	ErrMappingToStorableEventFailedForDomainEvent = errors.New("mapping to storable event failed for domain event")
	ErrMappingToStorableEventFailedForMetadata    = errors.New("mapping to storable event failed for metadata")
	ErrMappingToDomainEventFailed                 = errors.New("mapping to domain event failed")
	ErrMappingToDomainEventUnknownEventType       = errors.New("unknown event type")
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// decoders knows every loan event type the ledger may contain.
var decoders = map[core.EventTypeString]func(payload []byte) (core.DomainEvent, error){
	core.TitleCopyLentToPatronEventType:     decode[core.TitleCopyLentToPatron],
	core.TitleCopyReturnedByPatronEventType: decode[core.TitleCopyReturnedByPatron],
}

func decode[E core.DomainEvent](payload []byte) (core.DomainEvent, error) {
	var event E
	if err := codec.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}

// StorableEventFrom encodes a loan event and its metadata for the event store.
func StorableEventFrom(event core.DomainEvent, metadata EventMetadata) (eventstore.StorableEvent, error) {
	payload, err := codec.Marshal(event)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	meta, err := codec.Marshal(metadata)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForMetadata, err)
	}

	stored, err := eventstore.BuildStorableEvent(event.EventType(), event.HasOccurredAt(), payload, meta)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	return stored, nil
}

// DomainEventFrom decodes one stored event. Types not in the loan ledger fail with
// ErrMappingToDomainEventUnknownEventType.
func DomainEventFrom(stored eventstore.StorableEvent) (core.DomainEvent, error) {
	decodeFn, ok := decoders[stored.EventType]
	if !ok {
		return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
	}

	return decodeFn(stored.PayloadJSON)
}

// DomainEventsFrom decodes stored events in order and stops at the first failure.
func DomainEventsFrom(stored eventstore.StorableEvents) (core.DomainEvents, error) {
	events := make(core.DomainEvents, len(stored))

	for i := range stored {
		event, err := DomainEventFrom(stored[i])
		if err != nil {
			return nil, err
		}

		events[i] = event
	}

	return events, nil
}

// QueryDomainEvents queries es with filter and decodes the result. The returned sequence number
// is the one to pass to Append for the same filter.
func QueryDomainEvents(ctx context.Context, es QueriesEvents, filter eventstore.Filter) (
	core.DomainEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	stored, maxSequenceNumber, err := es.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	events, err := DomainEventsFrom(stored)
	if err != nil {
		return nil, 0, err
	}

	return events, maxSequenceNumber, nil
}

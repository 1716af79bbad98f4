package eventstore

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrInvalidPayloadJSON  = errors.New("payload json is not valid")
	ErrInvalidMetadataJSON = errors.New("metadata json is not valid")
)

var emptyMetadata = []byte("{}")

// StorableEvents is a slice of StorableEvent, in sequence order when read from an engine.
type StorableEvents = []StorableEvent

// StorableEvent is one row of the loan ledger as the engines see it: a type name,
// a UTC timestamp and two opaque JSON documents.
// SequenceNumber stays zero until the event was appended and read back.
type StorableEvent struct {
	EventType      string
	OccurredAt     time.Time
	PayloadJSON    []byte
	MetadataJSON   []byte
	SequenceNumber MaxSequenceNumberUint
}

// BuildStorableEvent rejects payload or metadata that is not valid JSON.
func BuildStorableEvent(eventType string, occurredAt time.Time, payloadJSON []byte, metadataJSON []byte) (StorableEvent, error) {
	switch {
	case !json.Valid(payloadJSON):
		return StorableEvent{}, ErrInvalidPayloadJSON
	case !json.Valid(metadataJSON):
		return StorableEvent{}, ErrInvalidMetadataJSON
	}

	event := StorableEvent{EventType: eventType, PayloadJSON: payloadJSON, MetadataJSON: metadataJSON}
	event.OccurredAt = occurredAt.UTC()

	return event, nil
}

// BuildStorableEventWithEmptyMetadata builds an event whose metadata is an empty object.
func BuildStorableEventWithEmptyMetadata(eventType string, occurredAt time.Time, payloadJSON []byte) (StorableEvent, error) {
	return BuildStorableEvent(eventType, occurredAt, payloadJSON, emptyMetadata)
}

package shell

import (
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// ErrMappingToEventMetadataFailed wraps decoding failures of a stored metadata document.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// EventMetadata travels next to every loan event. A borrow or return command causes exactly one
// event, so causation and correlation both point at the command's id.
type EventMetadata struct {
	MessageID     string `json:"message_id"`
	CausationID   string `json:"causation_id"`
	CorrelationID string `json:"correlation_id"`
}

// BuildEventMetadataForCommand stamps an event caused by the command with the given id.
func BuildEventMetadataForCommand(commandID uuid.UUID) EventMetadata {
	cause := commandID.String()

	return EventMetadata{MessageID: uuid.NewString(), CausationID: cause, CorrelationID: cause}
}

// EventMetadataFrom decodes the metadata document of a stored loan event.
func EventMetadataFrom(stored eventstore.StorableEvent) (EventMetadata, error) {
	var metadata EventMetadata

	err := jsoniter.ConfigFastest.Unmarshal(stored.MetadataJSON, &metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return metadata, nil
}

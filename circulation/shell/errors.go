package shell

import (
	"errors"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// MapConflict turns an exhausted concurrency conflict into core.ErrConflict, keeping the original in the chain.
// All other errors pass through unchanged.
func MapConflict(err error) error {
	if err == nil || !errors.Is(err, eventstore.ErrConcurrencyConflict) {
		return err
	}

	return errors.Join(core.ErrConflict, err)
}

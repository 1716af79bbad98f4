package helper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// GivenUniqueID returns a fresh UUIDv7.
func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id
}

// FixedClock returns a clock that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time {
		return now
	}
}

// Day0 is a fixed UTC reference instant for time-dependent tests.
func Day0() time.Time {
	return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
}

// Days returns n whole days as a duration.
func Days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}

// MustParseUUID parses s or fails the test.
func MustParseUUID(t testing.TB, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	require.NoError(t, err, "error in arranging test data")

	return id
}

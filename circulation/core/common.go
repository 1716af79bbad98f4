package core

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// EventTypeString represents an event type identifier.
type EventTypeString = string

// TitleIDString represents a catalog title identifier.
type TitleIDString = string

// PatronIDString represents a patron identifier.
type PatronIDString = string

// LoanIDString represents a loan identifier.
type LoanIDString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// Payload keys that event filters match on.
const (
	TitleIDKey  = "TitleID"
	PatronIDKey = "PatronID"
	LoanIDKey   = "LoanID"
)

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision,
// which is what Postgres stores.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}

const day = 24 * time.Hour

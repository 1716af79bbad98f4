package eventstore

import "context"

// ConsistencyLevel is a read hint carried in the context. Appends always go to the primary.
type ConsistencyLevel int

const (
	// StrongConsistency is the default. Borrow and return decisions and a patron's own loans read with it.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency lets reports and analytics read from a replica that may lag behind.
	EventualConsistency
)

type consistencyKey struct{}

// WithStrongConsistency pins reads made with the returned context to the primary.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, StrongConsistency)
}

// WithEventualConsistency allows reads made with the returned context to hit a replica.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, EventualConsistency)
}

// GetConsistencyLevel falls back to StrongConsistency when ctx carries no hint.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	level, ok := ctx.Value(consistencyKey{}).(ConsistencyLevel)
	if !ok {
		return StrongConsistency
	}

	return level
}

// MayReadFromReplica is shorthand for GetConsistencyLevel(ctx) == EventualConsistency.
func MayReadFromReplica(ctx context.Context) bool {
	return GetConsistencyLevel(ctx) == EventualConsistency
}

func (c ConsistencyLevel) String() string {
	names := map[ConsistencyLevel]string{StrongConsistency: "strong", EventualConsistency: "eventual"}
	if name, ok := names[c]; ok {
		return name
	}

	return "unknown"
}

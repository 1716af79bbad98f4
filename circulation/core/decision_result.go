package core

type decision uint8

const (
	decidedNothingToDo decision = iota
	decidedToAppend
	decidedToReject
)

// DecisionResult is what a Decide function hands back to its command handler.
// Build it with IdempotentDecision, SuccessDecision or ErrorDecision, the zero value means "nothing to do".
type DecisionResult struct {
	Event DomainEvent // set only when the decision appends

	decision decision
	err      error
}

// IdempotentDecision reports that the command was already applied earlier.
func IdempotentDecision() DecisionResult {
	return DecisionResult{decision: decidedNothingToDo}
}

// SuccessDecision carries the single loan event the command produced.
func SuccessDecision(event DomainEvent) DecisionResult {
	return DecisionResult{decision: decidedToAppend, Event: event}
}

// ErrorDecision rejects the command. Rejections never append.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{decision: decidedToReject, err: err}
}

func (r DecisionResult) HasEventToAppend() bool {
	return r.decision == decidedToAppend
}

func (r DecisionResult) IsIdempotent() bool {
	return r.decision == decidedNothingToDo
}

// HasError returns the rejection reason, or nil.
func (r DecisionResult) HasError() error {
	if r.decision != decidedToReject {
		return nil
	}

	return r.err
}

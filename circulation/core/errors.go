package core

import "errors"

// The circulation error taxonomy. Callers match with errors.Is, the wrapped chain may carry more detail.
var (
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("no copies available")
	ErrAlreadyReturned   = errors.New("loan already returned")
	ErrAlreadyBorrowed   = errors.New("patron already holds an active loan of this title")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflicting concurrent update, please retry")
	ErrInvalidLoanPeriod = errors.New("invalid loan period")
	ErrInvalidFinePolicy = errors.New("invalid fine policy")
)

package borrowtitle

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// Result is the receipt of a successful borrow.
type Result struct {
	shell.HandlerResult

	LoanID core.LoanIDString
	DueAt  time.Time
}

// CommandHandler orchestrates the command processing workflow with pure business logic and retry.
// It handles the core event sourcing workflow: Query -> Unmarshal -> Decide -> Append.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	eventStore   shell.EventStore
	titles       catalog.TitleLookup
	loanPolicy   core.LoanPolicy
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithLoanPolicy replaces core.DefaultLoanPolicy.
func WithLoanPolicy(policy core.LoanPolicy) Option {
	return func(h *CommandHandler) {
		h.loanPolicy = policy
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(eventStore shell.EventStore, titles catalog.TitleLookup, opts ...Option) CommandHandler {
	handler := CommandHandler{
		eventStore: eventStore,
		titles:     titles,
		loanPolicy: core.DefaultLoanPolicy(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle resolves the title and runs the decision with retry on concurrency conflicts.
// An exhausted retry fails with core.ErrConflict. A failed borrow appends nothing.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	title, err := h.titles.TitleByID(ctx, command.TitleID.String())
	if err != nil {
		return Result{HandlerResult: shell.NewErrorResult(shell.RetryMetrics{})}, err
	}

	var receipt Result
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		loan, idempotent, execErr := h.executeCommand(retryCtx, command, title.TotalCopies)
		receipt.LoanID, receipt.DueAt, isIdempotent = loan.LoanID, loan.DueAt, idempotent

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{HandlerResult: shell.NewErrorResult(retryMetrics)}, shell.MapConflict(err)
	}

	if isIdempotent {
		receipt.HandlerResult = shell.NewIdempotentResult(retryMetrics)
		return receipt, nil
	}

	receipt.HandlerResult = shell.NewSuccessResult(retryMetrics)

	return receipt, nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command, totalCopies int) (core.Loan, bool, error) {
	filter := shell.TitleLoansFilter(command.TitleID.String())

	ctx = eventstore.WithStrongConsistency(ctx)

	// Query and unmarshal phase
	history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
	if err != nil {
		return core.Loan{}, false, err
	}

	// Business logic phase - delegate to pure core function
	result := Decide(history, command, totalCopies, h.loanPolicy)

	if err = result.HasError(); err != nil {
		return core.Loan{}, false, err
	}

	if result.IsIdempotent() {
		loan, _ := core.FindLoan(core.ProjectLoans(history), command.LoanID.String())
		return loan, true, nil
	}

	// Append phase
	storableEvent, err := shell.StorableEventFrom(result.Event, shell.BuildEventMetadataForCommand(command.LoanID))
	if err != nil {
		return core.Loan{}, false, err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvent); err != nil {
		return core.Loan{}, false, err
	}

	loans := core.ProjectLoans(core.DomainEvents{result.Event})
	if len(loans) == 0 {
		return core.Loan{}, false, shell.ErrMappingToDomainEventUnknownEventType
	}

	return loans[0], false, nil
}

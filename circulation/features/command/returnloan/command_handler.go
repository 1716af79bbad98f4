package returnloan

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// Result is the receipt of a successful return.
type Result struct {
	shell.HandlerResult

	LoanID     core.LoanIDString
	TitleID    core.TitleIDString
	ReturnedAt time.Time
	FineAmount decimal.Decimal
}

// CommandHandler orchestrates the command processing workflow with pure business logic and retry.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	eventStore   shell.EventStore
	finePolicy   core.FinePolicy
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

// WithFinePolicy replaces core.DefaultFinePolicy.
func WithFinePolicy(policy core.FinePolicy) Option {
	return func(h *CommandHandler) {
		h.finePolicy = policy
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(eventStore shell.EventStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		eventStore: eventStore,
		finePolicy: core.DefaultFinePolicy(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle locates the loan's title and runs the decision with retry on concurrency conflicts.
// An exhausted retry fails with core.ErrConflict. A failed return appends nothing.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	titleID, err := h.locateTitle(ctx, command.LoanID.String())
	if err != nil {
		return Result{HandlerResult: shell.NewErrorResult(shell.RetryMetrics{})}, err
	}

	var receipt Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		returned, execErr := h.executeCommand(retryCtx, command, titleID)
		receipt.LoanID, receipt.TitleID = returned.LoanID, returned.TitleID
		receipt.ReturnedAt, receipt.FineAmount = returned.ReturnedAt, returned.FineAmount

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{HandlerResult: shell.NewErrorResult(retryMetrics)}, shell.MapConflict(err)
	}

	receipt.HandlerResult = shell.NewSuccessResult(retryMetrics)

	return receipt, nil
}

// locateTitle finds the title a loan belongs to. A loan never moves to another title,
// so this read is outside the retried section.
func (h CommandHandler) locateTitle(ctx context.Context, loanID core.LoanIDString) (core.TitleIDString, error) {
	events, _, err := shell.QueryDomainEvents(eventstore.WithStrongConsistency(ctx), h.eventStore, shell.LoanFilter(loanID))
	if err != nil {
		return "", err
	}

	loan, found := core.FindLoan(core.ProjectLoans(events), loanID)
	if !found {
		return "", fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
	}

	return loan.TitleID, nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(
	ctx context.Context,
	command Command,
	titleID core.TitleIDString,
) (core.TitleCopyReturnedByPatron, error) {

	filter := shell.TitleLoansFilter(titleID)

	ctx = eventstore.WithStrongConsistency(ctx)

	// Query and unmarshal phase
	history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
	if err != nil {
		return core.TitleCopyReturnedByPatron{}, err
	}

	// Business logic phase - delegate to pure core function
	result := Decide(history, command, h.finePolicy)

	if err = result.HasError(); err != nil {
		return core.TitleCopyReturnedByPatron{}, err
	}

	returned, ok := result.Event.(core.TitleCopyReturnedByPatron)
	if !ok {
		return core.TitleCopyReturnedByPatron{}, shell.ErrMappingToDomainEventUnknownEventType
	}

	// Append phase
	storableEvent, err := shell.StorableEventFrom(returned, shell.BuildEventMetadataForCommand(command.CommandID))
	if err != nil {
		return core.TitleCopyReturnedByPatron{}, err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvent); err != nil {
		return core.TitleCopyReturnedByPatron{}, err
	}

	return returned, nil
}

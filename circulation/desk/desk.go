package desk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/command/borrowtitle"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/command/returnloan"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/activeloansbypatron"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/demandforecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/loanhistory"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/overduereport"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/overduerisk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/recommendations"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/observable"
)

// BorrowReceipt is the result of a successful borrow.
type BorrowReceipt struct {
	LoanID  core.LoanIDString
	TitleID core.TitleIDString
	DueAt   time.Time
}

// ReturnReceipt is the result of a successful return.
type ReturnReceipt struct {
	LoanID     core.LoanIDString
	TitleID    core.TitleIDString
	ReturnedAt time.Time
	FineAmount decimal.Decimal
}

// Desk is safe for concurrent use.
type Desk struct {
	borrowTitle     shell.CommandHandler[borrowtitle.Command, borrowtitle.Result]
	returnLoan      shell.CommandHandler[returnloan.Command, returnloan.Result]
	activeLoans     shell.QueryHandler[activeloansbypatron.Query, activeloansbypatron.ActiveLoans]
	loanHistory     shell.QueryHandler[loanhistory.Query, loanhistory.LoanHistory]
	overdueReport   shell.QueryHandler[overduereport.Query, overduereport.Report]
	dashboardStats  shell.QueryHandler[dashboardstats.Query, dashboardstats.Stats]
	recommendations shell.QueryHandler[recommendations.Query, recommendations.Recommendations]

	demandForecast *snapshotCache[demandforecast.DemandForecast]
	overdueRisk    *snapshotCache[overduerisk.OverdueRisk]

	clock            shell.Clock
	requestTimeout   time.Duration
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// NewDesk builds every handler on eventStore and the catalog collaborators.
func NewDesk(
	eventStore shell.EventStore,
	titles catalog.Catalog,
	patrons catalog.PatronDirectory,
	options ...Option,
) (*Desk, error) {

	s := defaultSettings()
	for _, option := range options {
		if err := option(&s); err != nil {
			return nil, err
		}
	}

	d := &Desk{
		clock:            s.clock,
		requestTimeout:   s.requestTimeout,
		logger:           s.logger,
		contextualLogger: s.contextualLogger,
	}

	var err error

	if d.borrowTitle, err = instrumentCommand[borrowtitle.Command, borrowtitle.Result](
		borrowtitle.NewCommandHandler(
			eventStore,
			titles,
			borrowtitle.WithLoanPolicy(s.loanPolicy),
			borrowtitle.WithRetryOptions(s.retryOptions...),
		),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.returnLoan, err = instrumentCommand[returnloan.Command, returnloan.Result](
		returnloan.NewCommandHandler(
			eventStore,
			returnloan.WithFinePolicy(s.finePolicy),
			returnloan.WithRetryOptions(s.retryOptions...),
		),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.activeLoans, err = instrumentQuery[activeloansbypatron.Query, activeloansbypatron.ActiveLoans](
		activeloansbypatron.NewQueryHandler(eventStore, activeloansbypatron.WithClock(s.clock)),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.loanHistory, err = instrumentQuery[loanhistory.Query, loanhistory.LoanHistory](
		loanhistory.NewQueryHandler(eventStore, loanhistory.WithClock(s.clock)),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.overdueReport, err = instrumentQuery[overduereport.Query, overduereport.Report](
		overduereport.NewQueryHandler(
			eventStore,
			titles,
			overduereport.WithClock(s.clock),
			overduereport.WithFinePolicy(s.finePolicy),
		),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.dashboardStats, err = instrumentQuery[dashboardstats.Query, dashboardstats.Stats](
		dashboardstats.NewQueryHandler(eventStore, titles, patrons, dashboardstats.WithClock(s.clock)),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	if d.recommendations, err = instrumentQuery[recommendations.Query, recommendations.Recommendations](
		recommendations.NewQueryHandler(
			eventStore,
			titles,
			patrons,
			recommendations.WithClock(s.clock),
			recommendations.WithRecommendOptions(s.recommendOptions),
		),
		s.instrumentation,
	); err != nil {
		return nil, err
	}

	forecastHandler, err := instrumentQuery[demandforecast.Query, demandforecast.DemandForecast](
		demandforecast.NewQueryHandler(
			eventStore,
			titles,
			demandforecast.WithClock(s.clock),
			demandforecast.WithForecastOptions(s.forecastOptions),
		),
		s.instrumentation,
	)
	if err != nil {
		return nil, err
	}

	riskHandler, err := instrumentQuery[overduerisk.Query, overduerisk.OverdueRisk](
		overduerisk.NewQueryHandler(eventStore, overduerisk.WithClock(s.clock), overduerisk.WithRiskOptions(s.riskOptions)),
		s.instrumentation,
	)
	if err != nil {
		return nil, err
	}

	d.demandForecast = newSnapshotCache(
		func(ctx context.Context) (demandforecast.DemandForecast, error) {
			return forecastHandler.Handle(ctx, demandforecast.BuildQuery())
		},
		s.clock,
		s.analyticsMaxAge,
	)

	d.overdueRisk = newSnapshotCache(
		func(ctx context.Context) (overduerisk.OverdueRisk, error) {
			return riskHandler.Handle(ctx, overduerisk.BuildQuery())
		},
		s.clock,
		s.analyticsMaxAge,
	)

	return d, nil
}

// Borrow lends one copy of titleID to the caller. An id that is not a UUID is an unknown title.
func (d *Desk) Borrow(ctx context.Context, caller catalog.Patron, titleID string, loanPeriodDays int) (BorrowReceipt, error) {
	if err := authenticated(caller); err != nil {
		return BorrowReceipt{}, err
	}

	parsedTitleID, err := uuid.Parse(titleID)
	if err != nil {
		return BorrowReceipt{}, catalog.TitleNotFound(titleID)
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.borrowTitle.Handle(ctx, borrowtitle.BuildCommand(parsedTitleID, caller.ID, loanPeriodDays, d.clock()))
	if err != nil {
		return BorrowReceipt{}, err
	}

	return BorrowReceipt{LoanID: result.LoanID, TitleID: parsedTitleID.String(), DueAt: result.DueAt}, nil
}

// Return closes loanID. Only the borrowing patron or a librarian may return a loan.
func (d *Desk) Return(ctx context.Context, caller catalog.Patron, loanID string) (ReturnReceipt, error) {
	if err := authenticated(caller); err != nil {
		return ReturnReceipt{}, err
	}

	parsedLoanID, err := uuid.Parse(loanID)
	if err != nil {
		return ReturnReceipt{}, fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.returnLoan.Handle(ctx, returnloan.BuildCommand(parsedLoanID, caller.ID, caller.IsLibrarian(), d.clock()))
	if err != nil {
		return ReturnReceipt{}, err
	}

	return ReturnReceipt{
		LoanID:     result.LoanID,
		TitleID:    result.TitleID,
		ReturnedAt: result.ReturnedAt,
		FineAmount: result.FineAmount,
	}, nil
}

// MyLoans lists the loans the caller holds, oldest first.
func (d *Desk) MyLoans(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.activeLoans.Handle(ctx, activeloansbypatron.BuildQuery(caller.ID))
	if err != nil {
		return nil, err
	}

	return result.Loans, nil
}

// LoanHistory lists every loan of the caller, most recent first.
func (d *Desk) LoanHistory(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.loanHistory.Handle(ctx, loanhistory.BuildQuery(caller.ID))
	if err != nil {
		return nil, err
	}

	return result.Loans, nil
}

// AllLoans lists every loan in the ledger, most recent first. Librarians only.
func (d *Desk) AllLoans(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error) {
	if err := requireLibrarian(caller, "all loans"); err != nil {
		return nil, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.loanHistory.Handle(ctx, loanhistory.BuildQueryForAllPatrons())
	if err != nil {
		return nil, err
	}

	return result.Loans, nil
}

// OverdueReport lists the overdue loans with their accrued fines. Librarians only.
func (d *Desk) OverdueReport(ctx context.Context, caller catalog.Patron) (overduereport.Report, error) {
	if err := requireLibrarian(caller, "overdue report"); err != nil {
		return overduereport.Report{}, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	return d.overdueReport.Handle(ctx, overduereport.BuildQuery())
}

// DashboardStats returns the catalog and loan counters. Librarians only.
func (d *Desk) DashboardStats(ctx context.Context, caller catalog.Patron) (dashboardstats.Stats, error) {
	if err := requireLibrarian(caller, "dashboard stats"); err != nil {
		return dashboardstats.Stats{}, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	return d.dashboardStats.Handle(ctx, dashboardstats.BuildQuery())
}

// Recommendations ranks titles for patronID. limit 0 selects the configured default.
func (d *Desk) Recommendations(
	ctx context.Context,
	caller catalog.Patron,
	patronID uuid.UUID,
	limit int,
) ([]recommend.Recommendation, error) {

	if err := authenticated(caller); err != nil {
		return nil, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	result, err := d.recommendations.Handle(ctx, recommendations.BuildQuery(patronID, limit))
	if err != nil {
		return nil, err
	}

	return result.Items, nil
}

// DemandForecast returns the cached demand forecast. Librarians only.
func (d *Desk) DemandForecast(ctx context.Context, caller catalog.Patron) (demandforecast.DemandForecast, error) {
	if err := requireLibrarian(caller, "demand forecast"); err != nil {
		return demandforecast.DemandForecast{}, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	return d.demandForecast.get(ctx)
}

// OverdueRisk returns the cached overdue risk predictions. Librarians only.
func (d *Desk) OverdueRisk(ctx context.Context, caller catalog.Patron) (overduerisk.OverdueRisk, error) {
	if err := requireLibrarian(caller, "overdue risk"); err != nil {
		return overduerisk.OverdueRisk{}, err
	}

	ctx, cancel := d.bound(ctx)
	defer cancel()

	return d.overdueRisk.get(ctx)
}

// RefreshAnalytics recomputes the demand forecast and the overdue risk predictions.
func (d *Desk) RefreshAnalytics(ctx context.Context) error {
	return errors.Join(
		d.demandForecast.refresh(ctx),
		d.overdueRisk.refresh(ctx),
	)
}

func (d *Desk) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d.requestTimeout)
}

func authenticated(caller catalog.Patron) error {
	if caller.ID == uuid.Nil {
		return fmt.Errorf("no resolved caller: %w", core.ErrForbidden)
	}

	return nil
}

func requireLibrarian(caller catalog.Patron, operation string) error {
	if err := authenticated(caller); err != nil {
		return err
	}

	if !caller.IsLibrarian() {
		return fmt.Errorf("%s requires the %s role: %w", operation, catalog.RoleLibrarian, core.ErrForbidden)
	}

	return nil
}

func instrumentCommand[C shell.Command, R shell.CommandResult](
	handler shell.CommandHandler[C, R],
	options []observable.Option,
) (shell.CommandHandler[C, R], error) {

	if len(options) == 0 {
		return handler, nil
	}

	wrapper, err := observable.NewCommandWrapper(handler, options...)
	if err != nil {
		return nil, err
	}

	return wrapper, nil
}

func instrumentQuery[Q shell.Query, R any](
	handler shell.QueryHandler[Q, R],
	options []observable.Option,
) (shell.QueryHandler[Q, R], error) {

	if len(options) == 0 {
		return handler, nil
	}

	wrapper, err := observable.NewQueryWrapper(handler, options...)
	if err != nil {
		return nil, err
	}

	return wrapper, nil
}

package desk_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/desk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/eventstore/memengine"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	desk      *desk.Desk
	catalog   *catalog.MemoryCatalog
	clock     *movableClock
	member    catalog.Patron
	other     catalog.Patron
	librarian catalog.Patron
}

func setupFixture(t *testing.T, opts ...desk.Option) fixture {
	t.Helper()

	es, err := memengine.NewEventStore()
	require.NoError(t, err)

	f := fixture{
		catalog:   catalog.NewMemoryCatalog(),
		clock:     &movableClock{now: helper.Day0()},
		member:    catalog.Patron{ID: helper.GivenUniqueID(t), Name: "Octavia", Role: catalog.RoleMember},
		other:     catalog.Patron{ID: helper.GivenUniqueID(t), Name: "Ursula", Role: catalog.RoleMember},
		librarian: catalog.Patron{ID: helper.GivenUniqueID(t), Name: "Melvil", Role: catalog.RoleLibrarian},
	}

	for _, patron := range []catalog.Patron{f.member, f.other, f.librarian} {
		f.catalog.PutPatron(patron)
	}

	f.desk, err = desk.NewDesk(es, f.catalog, f.catalog, append([]desk.Option{desk.WithClock(f.clock.Now)}, opts...)...)
	require.NoError(t, err)

	return f
}

func (f fixture) givenTitle(t *testing.T, copies int) string {
	id := helper.GivenUniqueID(t).String()
	f.catalog.PutTitle(catalog.Title{ID: id, Name: "Lilith's Brood", Author: "Butler", Genre: "Science Fiction", TotalCopies: copies})

	return id
}

func Test_Desk_BorrowAndReturnLate_ChargesFine(t *testing.T) {
	// arrange
	f := setupFixture(t)
	ctx := context.Background()
	titleID := f.givenTitle(t, 1)

	// act
	receipt, err := f.desk.Borrow(ctx, f.member, titleID, 7)
	require.NoError(t, err)

	f.clock.Advance(helper.Days(9.5))
	returned, err := f.desk.Return(ctx, f.member, receipt.LoanID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, helper.Day0().Add(helper.Days(7)), receipt.DueAt)
	assert.Equal(t, receipt.LoanID, returned.LoanID)
	assert.Equal(t, titleID, returned.TitleID)
	assert.True(t, returned.FineAmount.Equal(decimal.RequireFromString("3.00")), "2.5 days late charge 3 days")

	_, err = f.desk.Return(ctx, f.member, receipt.LoanID)
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)
}

func Test_Desk_Borrow_Failures(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	titleID := f.givenTitle(t, 1)
	_, err := f.desk.Borrow(ctx, f.member, titleID, 0)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		caller   catalog.Patron
		titleID  string
		days     int
		expected error
	}{
		{name: "out of stock", caller: f.other, titleID: titleID, expected: core.ErrOutOfStock},
		{name: "already borrowed", caller: f.member, titleID: titleID, expected: core.ErrAlreadyBorrowed},
		{name: "unknown title", caller: f.member, titleID: uuid.NewString(), expected: core.ErrNotFound},
		{name: "malformed title id", caller: f.member, titleID: "not-a-uuid", expected: core.ErrNotFound},
		{name: "loan period too long", caller: f.other, titleID: f.givenTitle(t, 1), days: 365, expected: core.ErrInvalidLoanPeriod},
		{name: "no caller", caller: catalog.Patron{}, titleID: titleID, expected: core.ErrForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.desk.Borrow(ctx, tc.caller, tc.titleID, tc.days)

			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_Desk_Return_OnlyByOwnerOrLibrarian(t *testing.T) {
	// arrange
	f := setupFixture(t)
	ctx := context.Background()
	receipt, err := f.desk.Borrow(ctx, f.member, f.givenTitle(t, 1), 0)
	require.NoError(t, err)

	// act
	_, otherErr := f.desk.Return(ctx, f.other, receipt.LoanID)
	_, librarianErr := f.desk.Return(ctx, f.librarian, receipt.LoanID)

	// assert
	assert.ErrorIs(t, otherErr, core.ErrForbidden)
	assert.NoError(t, librarianErr)
}

func Test_Desk_Return_UnknownLoan(t *testing.T) {
	f := setupFixture(t)

	_, unknownErr := f.desk.Return(context.Background(), f.member, uuid.NewString())
	_, malformedErr := f.desk.Return(context.Background(), f.member, "42")

	assert.ErrorIs(t, unknownErr, core.ErrNotFound)
	assert.ErrorIs(t, malformedErr, core.ErrNotFound)
}

func Test_Desk_LibrarianOnlyOperations_AreForbiddenForMembers(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	operations := map[string]func(caller catalog.Patron) error{
		"all loans": func(caller catalog.Patron) error {
			_, err := f.desk.AllLoans(ctx, caller)
			return err
		},
		"overdue report": func(caller catalog.Patron) error {
			_, err := f.desk.OverdueReport(ctx, caller)
			return err
		},
		"dashboard stats": func(caller catalog.Patron) error {
			_, err := f.desk.DashboardStats(ctx, caller)
			return err
		},
		"demand forecast": func(caller catalog.Patron) error {
			_, err := f.desk.DemandForecast(ctx, caller)
			return err
		},
		"overdue risk": func(caller catalog.Patron) error {
			_, err := f.desk.OverdueRisk(ctx, caller)
			return err
		},
	}

	for name, operation := range operations {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, operation(f.member), core.ErrForbidden)
			assert.NoError(t, operation(f.librarian))
		})
	}
}

func Test_Desk_MemberViews(t *testing.T) {
	// arrange
	f := setupFixture(t)
	ctx := context.Background()
	first, err := f.desk.Borrow(ctx, f.member, f.givenTitle(t, 2), 14)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.desk.Borrow(ctx, f.member, f.givenTitle(t, 2), 14)
	require.NoError(t, err)
	_, err = f.desk.Return(ctx, f.member, first.LoanID)
	require.NoError(t, err)

	// act
	active, activeErr := f.desk.MyLoans(ctx, f.member)
	history, historyErr := f.desk.LoanHistory(ctx, f.member)
	all, allErr := f.desk.AllLoans(ctx, f.librarian)
	suggestions, suggestionsErr := f.desk.Recommendations(ctx, f.other, f.member.ID, 0)

	// assert
	require.NoError(t, activeErr)
	require.NoError(t, historyErr)
	require.NoError(t, allErr)
	require.NoError(t, suggestionsErr)

	require.Len(t, active, 1)
	assert.Equal(t, second.LoanID, active[0].LoanID)
	assert.Equal(t, core.LoanStatusBorrowed, active[0].Status)

	require.Len(t, history, 2)
	assert.Equal(t, second.LoanID, history[0].LoanID)
	assert.Equal(t, core.LoanStatusReturned, history[1].Status)

	assert.Len(t, all, 2)
	assert.NotEmpty(t, suggestions, "the returned title shares genre and author with the history")
}

func Test_Desk_Recommendations_UnknownPatron(t *testing.T) {
	f := setupFixture(t)
	f.givenTitle(t, 1)

	_, err := f.desk.Recommendations(context.Background(), f.librarian, helper.GivenUniqueID(t), 0)

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_Desk_Analytics_AreCachedUntilTheyAgeOut(t *testing.T) {
	// arrange
	f := setupFixture(t, desk.WithAnalyticsMaxAge(time.Hour))
	ctx := context.Background()
	f.givenTitle(t, 1)

	first, err := f.desk.DemandForecast(ctx, f.librarian)
	require.NoError(t, err)
	f.givenTitle(t, 1)

	// act
	cached, cachedErr := f.desk.DemandForecast(ctx, f.librarian)
	f.clock.Advance(2 * time.Hour)
	recomputed, recomputedErr := f.desk.DemandForecast(ctx, f.librarian)

	// assert
	require.NoError(t, cachedErr)
	require.NoError(t, recomputedErr)
	assert.Len(t, first.Forecasts, 1)
	assert.Len(t, cached.Forecasts, 1)
	assert.Len(t, recomputed.Forecasts, 2)
}

func Test_Desk_RefreshAnalytics_ReplacesTheCachedSnapshot(t *testing.T) {
	// arrange
	f := setupFixture(t, desk.WithAnalyticsMaxAge(time.Hour))
	ctx := context.Background()
	_, err := f.desk.OverdueRisk(ctx, f.librarian)
	require.NoError(t, err)
	_, err = f.desk.Borrow(ctx, f.member, f.givenTitle(t, 1), 14)
	require.NoError(t, err)

	// act
	require.NoError(t, f.desk.RefreshAnalytics(ctx))
	predictions, err := f.desk.OverdueRisk(ctx, f.librarian)

	// assert
	require.NoError(t, err)
	assert.Len(t, predictions.Predictions, 1)
}

func Test_Desk_Refresher_RefreshesUntilCanceled(t *testing.T) {
	// arrange
	logSpy := helper.NewLogHandlerSpy(false)
	f := setupFixture(t, desk.WithContextualLogging(slog.New(logSpy)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// act
	go func() {
		desk.NewRefresher(f.desk, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	// assert
	assert.Eventually(t, func() bool {
		return logSpy.HasLog(slog.LevelInfo, "analytics refreshed")
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.True(t, logSpy.HasLog(slog.LevelInfo, "analytics refresher stopped"))
}

func Test_Desk_WithInstrumentation_RecordsHandlerMetrics(t *testing.T) {
	// arrange
	metricsSpy := helper.NewMetricsCollectorSpy()
	f := setupFixture(t, desk.WithInstrumentation(observable.WithMetrics(metricsSpy)))
	ctx := context.Background()
	titleID := f.givenTitle(t, 1)

	// act
	_, err := f.desk.Borrow(ctx, f.member, titleID, 0)
	require.NoError(t, err)
	_, _ = f.desk.Borrow(ctx, f.other, titleID, 0)
	_, err = f.desk.MyLoans(ctx, f.member)
	require.NoError(t, err)

	// assert
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.CommandHandlerCallsMetric, shell.LogAttrStatus, shell.StatusSuccess))
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.CommandHandlerRejectedMetric, shell.LogAttrCommandType, "BorrowTitle"))
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.QueryHandlerCallsMetric, shell.LogAttrQueryType, "ActiveLoansByPatron"))
}

func Test_NewDesk_RejectsNegativeDurations(t *testing.T) {
	es, err := memengine.NewEventStore()
	require.NoError(t, err)
	c := catalog.NewMemoryCatalog()

	_, timeoutErr := desk.NewDesk(es, c, c, desk.WithRequestTimeout(-time.Second))
	_, maxAgeErr := desk.NewDesk(es, c, c, desk.WithAnalyticsMaxAge(-time.Second))

	assert.ErrorIs(t, timeoutErr, desk.ErrInvalidOption)
	assert.ErrorIs(t, maxAgeErr, desk.ErrInvalidOption)
}

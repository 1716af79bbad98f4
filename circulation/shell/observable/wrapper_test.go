package observable_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

type testCommand struct{}

func (testCommand) CommandType() string { return "TestCommand" }

type testResult struct {
	shell.HandlerResult
	Value string
}

type testCommandHandler struct {
	result testResult
	err    error
	calls  int
}

func (h *testCommandHandler) Handle(_ context.Context, _ testCommand) (testResult, error) {
	h.calls++
	return h.result, h.err
}

type testQuery struct{}

func (testQuery) QueryType() string { return "TestQuery" }

type testQueryHandler struct {
	err error
}

func (h testQueryHandler) Handle(_ context.Context, _ testQuery) ([]string, error) {
	if h.err != nil {
		return nil, h.err
	}

	return []string{"a"}, nil
}

func Test_CommandWrapper_Success(t *testing.T) {
	// arrange
	handler := &testCommandHandler{result: testResult{HandlerResult: shell.HandlerResult{RetryAttempts: 1}, Value: "ok"}}
	metricsSpy := helper.NewMetricsCollectorSpy()
	tracingSpy := helper.NewTracingCollectorSpy()
	logSpy := helper.NewLogHandlerSpy(false)

	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](
		handler,
		observable.WithMetrics(metricsSpy),
		observable.WithTracing(tracingSpy),
		observable.WithContextualLogging(slog.New(logSpy)),
	)
	require.NoError(t, err)

	// act
	result, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 1, handler.calls)
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.CommandHandlerCallsMetric, shell.LogAttrStatus, shell.StatusSuccess))
	assert.True(t, metricsSpy.HasDurationRecord(shell.CommandHandlerDurationMetric))
	assert.Empty(t, metricsSpy.CounterRecordsFor(shell.CommandHandlerRetriesMetric))
	require.Len(t, tracingSpy.FinishedSpans(), 1)
	assert.Equal(t, shell.SpanNameCommandHandle, tracingSpy.FinishedSpans()[0].Name)
	assert.Equal(t, shell.StatusSuccess, tracingSpy.FinishedSpans()[0].Status)
	assert.True(t, logSpy.HasLog(slog.LevelInfo, shell.LogMsgCommandStarted))
	assert.True(t, logSpy.HasLogWithAttr(shell.LogMsgCommandCompleted, shell.LogAttrCommandType, "TestCommand"))
}

func Test_CommandWrapper_Idempotent(t *testing.T) {
	// arrange
	handler := &testCommandHandler{result: testResult{HandlerResult: shell.HandlerResult{Idempotent: true, RetryAttempts: 1}}}
	metricsSpy := helper.NewMetricsCollectorSpy()
	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](handler, observable.WithMetrics(metricsSpy))
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.NoError(t, err)
	assert.Len(t, metricsSpy.CounterRecordsFor(shell.CommandHandlerIdempotentMetric), 1)
}

func Test_CommandWrapper_RecordsRetrySummary(t *testing.T) {
	// arrange
	handler := &testCommandHandler{
		result: testResult{HandlerResult: shell.HandlerResult{RetryAttempts: 6, TotalRetryDelay: 300 * time.Millisecond, RetriesExhausted: true}},
		err:    shell.MapConflict(eventstore.ErrConcurrencyConflict),
	}
	metricsSpy := helper.NewMetricsCollectorSpy()
	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](handler, observable.WithMetrics(metricsSpy))
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.CommandHandlerRetriesMetric, "attempt_number", "5"))
	assert.True(t, metricsSpy.HasDurationRecord(shell.CommandHandlerRetryDelayMetric))
	assert.Len(t, metricsSpy.CounterRecordsFor(shell.CommandHandlerMaxRetriesReachedMetric), 1)
	assert.Len(t, metricsSpy.CounterRecordsFor(shell.CommandHandlerConcurrencyConflictMetric), 1)
}

func Test_CommandWrapper_BusinessRejection_IsLoggedAsWarning(t *testing.T) {
	// arrange
	handler := &testCommandHandler{err: core.ErrOutOfStock}
	metricsSpy := helper.NewMetricsCollectorSpy()
	logSpy := helper.NewLogHandlerSpy(false)
	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](
		handler,
		observable.WithMetrics(metricsSpy),
		observable.WithLogging(slog.New(logSpy)),
	)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, core.ErrOutOfStock)
	assert.Len(t, metricsSpy.CounterRecordsFor(shell.CommandHandlerRejectedMetric), 1)
	assert.True(t, logSpy.HasLog(slog.LevelWarn, shell.LogMsgCommandRejected))
	assert.False(t, logSpy.HasLog(slog.LevelError, shell.LogMsgCommandFailed))
}

func Test_CommandWrapper_InfrastructureError_IsLoggedAsError(t *testing.T) {
	// arrange
	handler := &testCommandHandler{err: errors.New("connection refused")}
	logSpy := helper.NewLogHandlerSpy(false)
	tracingSpy := helper.NewTracingCollectorSpy()
	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](
		handler,
		observable.WithContextualLogging(slog.New(logSpy)),
		observable.WithTracing(tracingSpy),
	)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.Error(t, err)
	assert.True(t, logSpy.HasLogWithAttr(shell.LogMsgCommandFailed, shell.LogAttrError, "connection refused"))
	assert.Equal(t, shell.StatusError, tracingSpy.FinishedSpans()[0].Status)
}

func Test_CommandWrapper_WithoutInstrumentation(t *testing.T) {
	handler := &testCommandHandler{result: testResult{Value: "plain"}}
	wrapper, err := observable.NewCommandWrapper[testCommand, testResult](handler)
	require.NoError(t, err)

	result, err := wrapper.Handle(context.Background(), testCommand{})

	assert.NoError(t, err)
	assert.Equal(t, "plain", result.Value)
}

func Test_QueryWrapper_Success(t *testing.T) {
	// arrange
	metricsSpy := helper.NewMetricsCollectorSpy()
	logSpy := helper.NewLogHandlerSpy(false)
	wrapper, err := observable.NewQueryWrapper[testQuery, []string](
		testQueryHandler{},
		observable.WithMetrics(metricsSpy),
		observable.WithContextualLogging(slog.New(logSpy)),
	)
	require.NoError(t, err)

	// act
	result, err := wrapper.Handle(context.Background(), testQuery{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, result)
	assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.QueryHandlerCallsMetric, shell.LogAttrQueryType, "TestQuery"))
	assert.True(t, logSpy.HasLog(slog.LevelInfo, shell.LogMsgQueryCompleted))
}

func Test_QueryWrapper_Timeout(t *testing.T) {
	// arrange
	metricsSpy := helper.NewMetricsCollectorSpy()
	wrapper, err := observable.NewQueryWrapper[testQuery, []string](
		testQueryHandler{err: context.DeadlineExceeded},
		observable.WithMetrics(metricsSpy),
	)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testQuery{})

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, metricsSpy.CounterRecordsFor(shell.QueryHandlerTimeoutMetric), 1)
}

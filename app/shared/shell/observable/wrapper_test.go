package observable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell"
	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/observable"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	. "github.com/AntonStoeckl/vaccine-scheduler-go/testutil/helper" //nolint:revive
)

type testCommand struct{ name string }

func (testCommand) CommandType() string { return "TestCommand" }

type testQuery struct{}

func (testQuery) QueryType() string { return "TestQuery" }

type commandHandlerStub struct {
	result shell.HandlerResult
	err    error
	calls  []testCommand
}

func (h *commandHandlerStub) Handle(_ context.Context, command testCommand) (shell.HandlerResult, error) {
	h.calls = append(h.calls, command)
	return h.result, h.err
}

type queryHandlerStub struct {
	result []string
	err    error
}

func (h queryHandlerStub) Handle(_ context.Context, _ testQuery) ([]string, error) {
	return h.result, h.err
}

type observers struct {
	metrics *MetricsCollectorSpy
	tracing *TracingCollectorSpy
	logger  *LoggerSpy
}

func newObservers() observers {
	return observers{
		metrics: NewMetricsCollectorSpy(true),
		tracing: NewTracingCollectorSpy(true),
		logger:  NewLoggerSpy(true),
	}
}

func wrapCommand(t *testing.T, handler *commandHandlerStub, o observers) *observable.CommandWrapper[testCommand, shell.HandlerResult] {
	wrapper, err := observable.NewCommandWrapper[testCommand, shell.HandlerResult](
		handler,
		observable.WithCommandMetrics[testCommand, shell.HandlerResult](o.metrics),
		observable.WithCommandTracing[testCommand, shell.HandlerResult](o.tracing),
		observable.WithCommandContextualLogging[testCommand, shell.HandlerResult](o.logger),
	)
	require.NoError(t, err)

	return wrapper
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	o := newObservers()
	handler := &commandHandlerStub{result: shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}}
	wrapper := wrapCommand(t, handler, o)

	// act
	result, err := wrapper.Handle(context.Background(), testCommand{name: "x"})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, handler.result, result)
	assert.Equal(t, []testCommand{{name: "x"}}, handler.calls)
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithLabel(shell.LogAttrCommandType, "TestCommand").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, o.metrics.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.Zero(t, o.metrics.Count(KindCounter, shell.CommandHandlerRetriesMetric))
	assert.True(t, o.tracing.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusSuccess))
	assert.True(t, o.logger.HasLog("info", shell.LogMsgCommandStarted))
	assert.True(t, o.logger.HasLog("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_BusinessRejection(t *testing.T) {
	// arrange
	o := newObservers()
	handler := &commandHandlerStub{err: scheduler.ErrNotAuthorized}
	wrapper := wrapCommand(t, handler, o)

	// act
	_, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, scheduler.ErrNotAuthorized)
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerRejectedMetric).
		WithStatus(shell.StatusRejected).
		Assert())
	assert.True(t, o.tracing.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusRejected))

	record, found := o.logger.Find("warn", shell.LogMsgCommandRejected)
	assert.True(t, found)
	assert.Equal(t, scheduler.ErrNotAuthorized.Error(), record.Attr(shell.LogAttrError))
}

func Test_CommandWrapper_Handle_StorageFailure(t *testing.T) {
	// arrange
	o := newObservers()
	handler := &commandHandlerStub{err: errors.Join(scheduler.ErrStorage, errors.New("connection reset"))}
	wrapper := wrapCommand(t, handler, o)

	// act
	_, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithStatus(shell.StatusError).
		Assert())
	assert.True(t, o.tracing.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusError))
	assert.True(t, o.logger.HasLog("error", shell.LogMsgCommandFailed))
}

func Test_CommandWrapper_Handle_RecordsRetryMetadata(t *testing.T) {
	// arrange
	o := newObservers()
	handler := &commandHandlerStub{
		result: shell.HandlerResult{
			RetryAttempts:    3,
			TotalRetryDelay:  30 * time.Millisecond,
			LastErrorType:    "slot_unavailable",
			RetriesExhausted: true,
		},
		err: scheduler.ErrSlotUnavailable,
	}
	wrapper := wrapCommand(t, handler, o)

	// act
	_, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, scheduler.ErrSlotUnavailable)
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).
		WithLabel(shell.LogAttrAttemptNumber, "2").
		WithLabel(shell.LogAttrErrorType, "slot_unavailable").
		Assert())
	assert.True(t, o.metrics.HasDurationRecordForMetric(shell.CommandHandlerRetryDelayMetric).Assert())
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerMaxRetriesReachedMetric).Assert())
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerSlotUnavailableMetric).Assert())
}

func Test_CommandWrapper_Handle_Canceled(t *testing.T) {
	// arrange
	o := newObservers()
	handler := &commandHandlerStub{err: errors.Join(scheduler.ErrStorage, context.Canceled)}
	wrapper := wrapCommand(t, handler, o)

	// act
	_, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, o.metrics.HasCounterRecordForMetric(shell.CommandHandlerCanceledMetric).Assert())
}

func Test_CommandWrapper_Handle_WithPlainLogger(t *testing.T) {
	// arrange
	logger := NewLoggerSpy(true)
	wrapper, err := observable.NewCommandWrapper[testCommand, shell.HandlerResult](
		&commandHandlerStub{},
		observable.WithCommandLogging[testCommand, shell.HandlerResult](logger),
	)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, logger.HasLog("info", shell.LogMsgCommandCompleted))
}

func Test_QueryWrapper_Handle(t *testing.T) {
	testCases := []struct {
		name        string
		handlerErr  error
		wantStatus  string
		wantLogLvl  string
		wantLogMsg  string
		wantCounter string
	}{
		{"success", nil, shell.StatusSuccess, "info", shell.LogMsgQueryCompleted, shell.QueryHandlerCallsMetric},
		{"rejected", scheduler.ErrNoAvailability, shell.StatusRejected, "warn", shell.LogMsgQueryRejected, shell.QueryHandlerRejectedMetric},
		{"timeout", context.DeadlineExceeded, shell.StatusTimeout, "error", shell.LogMsgQueryFailed, shell.QueryHandlerTimeoutMetric},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			o := newObservers()
			wrapper, err := observable.NewQueryWrapper[testQuery, []string](
				queryHandlerStub{result: []string{"alice"}, err: tc.handlerErr},
				observable.WithQueryMetrics[testQuery, []string](o.metrics),
				observable.WithQueryTracing[testQuery, []string](o.tracing),
				observable.WithQueryContextualLogging[testQuery, []string](o.logger),
			)
			require.NoError(t, err)

			// act
			result, err := wrapper.Handle(context.Background(), testQuery{})

			// assert
			assert.ErrorIs(t, err, tc.handlerErr)
			assert.Equal(t, []string{"alice"}, result)
			assert.True(t, o.metrics.HasCounterRecordForMetric(tc.wantCounter).
				WithLabel(shell.LogAttrQueryType, "TestQuery").
				WithStatus(tc.wantStatus).
				Assert())
			assert.True(t, o.tracing.HasFinishedSpan(shell.SpanNameQueryHandle, tc.wantStatus))
			assert.True(t, o.logger.HasLog(tc.wantLogLvl, tc.wantLogMsg))
		})
	}
}

package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration (OpenTelemetry-compatible).
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerRejectedMetric tracks commands refused for a business reason.
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerCanceledMetric tracks canceled operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks timeout operations.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerSlotUnavailableMetric tracks reservations that lost the race for a slot.
	CommandHandlerSlotUnavailableMetric = "commandhandler_slot_unavailable_total"

	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "Reserve")
	//   - attempt_number: Number of retries that happened
	//   - error_type: Category of error causing retry (e.g., "slot_unavailable")
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks the total backoff delay of a retried command.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration (OpenTelemetry-compatible).
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerRejectedMetric tracks queries refused for a business reason.
	QueryHandlerRejectedMetric = "queryhandler_rejected_operations_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timeout query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"
)

const (
	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"

	// StatusRejected indicates a business refusal (not authorized, out of stock, ...).
	StatusRejected = "rejected"

	// StatusSlotUnavailable indicates that a concurrent reservation claimed the slot first.
	StatusSlotUnavailable = "slot_unavailable"

	// StatusError indicates an infrastructure failure.
	StatusError = "error"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"
)

const (
	// LogMsgCommandStarted is logged when command processing begins.
	LogMsgCommandStarted = "command handler started"

	// LogMsgCommandCompleted is logged when command processing succeeds.
	LogMsgCommandCompleted = "command handler completed"

	// LogMsgCommandRejected is logged when a command is refused for a business reason.
	LogMsgCommandRejected = "command handler rejected"

	// LogMsgCommandFailed is logged when command processing fails.
	LogMsgCommandFailed = "command handler failed"

	// LogMsgQueryStarted is logged when query processing begins.
	LogMsgQueryStarted = "query handler started"

	// LogMsgQueryCompleted is logged when query processing succeeds.
	LogMsgQueryCompleted = "query handler completed"

	// LogMsgQueryRejected is logged when a query is refused for a business reason.
	LogMsgQueryRejected = "query handler rejected"

	// LogMsgQueryFailed is logged when query processing fails.
	LogMsgQueryFailed = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrError           = "error"
	LogAttrAttemptNumber   = "attempt_number"
	LogAttrErrorType       = "error_type"

	// SpanNameCommandHandle is the tracing span name for command handling.
	SpanNameCommandHandle = "commandhandler.handle"

	// SpanNameQueryHandle is the tracing span name for query handling.
	SpanNameQueryHandle = "queryhandler.handle"
)

// Interface aliases for convenience when using handler observability.

type MetricsCollector = scheduler.MetricsCollector
type ContextualMetricsCollector = scheduler.ContextualMetricsCollector
type TracingCollector = scheduler.TracingCollector
type SpanContext = scheduler.SpanContext
type ContextualLogger = scheduler.ContextualLogger
type Logger = scheduler.Logger

// businessErrors are refusals that are part of normal operation, as opposed to failures.
var businessErrors = []error{
	scheduler.ErrInvalidInput,
	scheduler.ErrNotAuthenticated,
	scheduler.ErrAlreadyAuthenticated,
	scheduler.ErrNotAuthorized,
	scheduler.ErrNotFound,
	scheduler.ErrNoAvailability,
	scheduler.ErrOutOfStock,
	scheduler.ErrUnknownVaccine,
	scheduler.ErrDuplicateUsername,
	scheduler.ErrInvalidCredentials,
}

// ClassifyError maps a handler error to one of the Status constants.
// Storage errors win over business errors because a joined compensation failure must not look benign.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, scheduler.ErrStorage):
		return StatusError
	case errors.Is(err, scheduler.ErrSlotUnavailable):
		return StatusSlotUnavailable
	}

	for _, businessErr := range businessErrors {
		if errors.Is(err, businessErr) {
			return StatusRejected
		}
	}

	return StatusError
}

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// IncrementCounter uses the context-aware method if the collector supports it.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// RecordDuration uses the context-aware method if the collector supports it.
func RecordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

var commandStatusMetrics = map[string]string{
	StatusRejected:        CommandHandlerRejectedMetric,
	StatusCanceled:        CommandHandlerCanceledMetric,
	StatusTimeout:         CommandHandlerTimeoutMetric,
	StatusSlotUnavailable: CommandHandlerSlotUnavailableMetric,
}

var queryStatusMetrics = map[string]string{
	StatusRejected: QueryHandlerRejectedMetric,
	StatusCanceled: QueryHandlerCanceledMetric,
	StatusTimeout:  QueryHandlerTimeoutMetric,
}

// RecordCommandMetrics records duration and call count, plus a dedicated counter for non-success statuses.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	duration time.Duration,
) {
	labels := BuildCommandLabels(commandType, status)
	RecordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	IncrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	if metric, ok := commandStatusMetrics[status]; ok {
		IncrementCounter(ctx, collector, metric, BuildCommandLabels(commandType, status))
	}
}

// RecordQueryMetrics records duration and call count, plus a dedicated counter for non-success statuses.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {
	labels := BuildQueryLabels(queryType, status)
	RecordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	IncrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	if metric, ok := queryStatusMetrics[status]; ok {
		IncrementCounter(ctx, collector, metric, BuildQueryLabels(queryType, status))
	}
}

// RecordRetryMetrics translates the retry metadata of a HandlerResult into metrics.
func RecordRetryMetrics(ctx context.Context, collector MetricsCollector, commandType string, result HandlerResult) {
	if result.RetryAttempts > 1 {
		IncrementCounter(ctx, collector, CommandHandlerRetriesMetric,
			BuildRetryLabels(commandType, result.RetryAttempts-1, result.LastErrorType))
		RecordDuration(ctx, collector, CommandHandlerRetryDelayMetric, result.TotalRetryDelay,
			map[string]string{LogAttrCommandType: commandType})
	}

	if result.RetriesExhausted {
		IncrementCounter(ctx, collector, CommandHandlerMaxRetriesReachedMetric,
			map[string]string{LogAttrCommandType: commandType, LogAttrErrorType: result.LastErrorType})
	}
}

// StartSpan starts a span named spanName with the type attribute, or returns the original context
// and a nil span if tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	typeAttr string,
	typeValue string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, map[string]string{typeAttr: typeValue})
}

// FinishSpan completes a span with the operation outcome.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// logLevel of a handler log line.
type logLevel int

const (
	levelInfo logLevel = iota
	levelWarn
	levelError
)

// logHandler writes one handler log line, preferring the contextual logger.
func logHandler(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	level logLevel,
	msg string,
	args ...any,
) {
	if contextualLogger != nil {
		switch level {
		case levelWarn:
			contextualLogger.WarnContext(ctx, msg, args...)
		case levelError:
			contextualLogger.ErrorContext(ctx, msg, args...)
		default:
			contextualLogger.InfoContext(ctx, msg, args...)
		}

		return
	}

	if logger == nil {
		return
	}

	switch level {
	case levelWarn:
		logger.Warn(msg, args...)
	case levelError:
		logger.Error(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}

// LogStart logs the beginning of handler processing.
func LogStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg, typeAttr, typeValue string) {
	logHandler(ctx, logger, contextualLogger, levelInfo, msg, typeAttr, typeValue)
}

// LogOutcome logs the end of handler processing. Successes go to info, business refusals
// to warn with rejectedMsg, everything else to error with failedMsg.
func LogOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	msgs OutcomeMessages,
	typeAttr string,
	typeValue string,
	status string,
	duration time.Duration,
	err error,
) {
	args := []any{
		typeAttr, typeValue,
		LogAttrBusinessOutcome, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	switch status {
	case StatusSuccess:
		logHandler(ctx, logger, contextualLogger, levelInfo, msgs.Completed, args...)
	case StatusRejected, StatusSlotUnavailable:
		logHandler(ctx, logger, contextualLogger, levelWarn, msgs.Rejected, append(args, LogAttrError, err.Error())...)
	default:
		logHandler(ctx, logger, contextualLogger, levelError, msgs.Failed, append(args, LogAttrError, err.Error())...)
	}
}

// OutcomeMessages are the log messages used by LogOutcome.
type OutcomeMessages struct {
	Completed string
	Rejected  string
	Failed    string
}

// CommandOutcomeMessages are the log messages for command handlers.
var CommandOutcomeMessages = OutcomeMessages{
	Completed: LogMsgCommandCompleted,
	Rejected:  LogMsgCommandRejected,
	Failed:    LogMsgCommandFailed,
}

// QueryOutcomeMessages are the log messages for query handlers.
var QueryOutcomeMessages = OutcomeMessages{
	Completed: LogMsgQueryCompleted,
	Rejected:  LogMsgQueryRejected,
	Failed:    LogMsgQueryFailed,
}

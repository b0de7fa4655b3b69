package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

const (
	operationAddDoses       = "add_doses"
	operationTryDecrement   = "try_decrement"
	operationRestoreDose    = "restore_dose"
	operationVaccines       = "vaccines"
	operationPublish        = "publish"
	operationOpenCaregivers = "open_caregivers"
	operationClaim          = "claim"
	operationRelease        = "release"
	operationNextID         = "next_id"
	operationCreate         = "create_appointment"
	operationCancel         = "cancel_appointment"
	operationListFor        = "list_appointments"
	operationCreateAccount  = "create_account"
	operationAccount        = "load_account"
	operationMigrate        = "migrate"

	metricOperationDuration = "scheduler_storage_operation_duration_seconds"
	metricRejections        = "scheduler_storage_rejections_total"
	metricDatabaseErrors    = "scheduler_storage_database_errors_total"

	spanNamePrefix     = "scheduler.storage."
	spanAttrOperation  = "operation"
	spanAttrDurationMS = "duration_ms"
	spanAttrReason     = "reason"
	spanAttrErrorType  = "error_type"
	spanAttrVaccine    = "vaccine"
	spanAttrCaregiver  = "caregiver"
	spanAttrDate       = "date"
	spanAttrID         = "appointment_id"

	labelStatus = "status"

	statusSuccess  = "success"
	statusRejected = "rejected"
	statusError    = "error"

	errorTypeStorage  = "storage"
	errorTypeCanceled = "canceled"
)

// rejections are expected outcomes under contention or bad input, not storage failures.
var rejections = map[error]string{
	scheduler.ErrInvalidInput:      "invalid_input",
	scheduler.ErrOutOfStock:        "out_of_stock",
	scheduler.ErrUnknownVaccine:    "unknown_vaccine",
	scheduler.ErrSlotUnavailable:   "slot_unavailable",
	scheduler.ErrNotFound:          "not_found",
	scheduler.ErrDuplicateUsername: "duplicate_username",
}

func rejectionReason(err error) (string, bool) {
	for sentinel, reason := range rejections {
		if errors.Is(err, sentinel) {
			return reason, true
		}
	}

	return "", false
}

// operationObserver encapsulates the span, metrics and log lifecycle of one port operation.
type operationObserver struct {
	e         Engine
	ctx       context.Context
	operation string
	span      scheduler.SpanContext
	start     time.Time
}

// startOperation starts the span of an operation. The returned context carries it.
func (e Engine) startOperation(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, *operationObserver) {

	spanAttrs := map[string]string{spanAttrOperation: operation}
	maps.Copy(spanAttrs, attrs)

	newCtx, span := e.startTraceSpan(ctx, spanNamePrefix+operation, spanAttrs)

	return newCtx, &operationObserver{
		e:         e,
		ctx:       newCtx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}
}

// finish records the outcome of the operation and hands err back unchanged.
func (o *operationObserver) finish(err error) error {
	duration := time.Since(o.start)
	durationAttr := fmt.Sprintf("%.2f", toMilliseconds(duration))

	if err == nil {
		o.e.recordDurationMetricsContext(o.ctx, duration, o.operation, statusSuccess)
		o.e.finishTraceSpan(o.span, statusSuccess, map[string]string{spanAttrDurationMS: durationAttr})
		o.e.logOperation(o.ctx, logMsgOperation+o.operation, logAttrDurationMS, toMilliseconds(duration))

		return nil
	}

	if reason, ok := rejectionReason(err); ok {
		o.e.recordDurationMetricsContext(o.ctx, duration, o.operation, statusRejected)
		o.e.incrementCounterContext(o.ctx, metricRejections, map[string]string{
			spanAttrOperation: o.operation,
			spanAttrReason:    reason,
		})
		o.e.finishTraceSpan(o.span, statusRejected, map[string]string{
			spanAttrReason:     reason,
			spanAttrDurationMS: durationAttr,
		})
		o.e.logOperation(
			o.ctx,
			logMsgOperation+o.operation,
			logAttrOutcome, reason,
			logAttrDurationMS, toMilliseconds(duration),
		)

		return err
	}

	errorType := errorTypeStorage
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		errorType = errorTypeCanceled
	}

	o.e.recordDurationMetricsContext(o.ctx, duration, o.operation, statusError)
	o.e.incrementCounterContext(o.ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: o.operation,
		spanAttrErrorType: errorType,
	})
	o.e.finishTraceSpan(o.span, statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: durationAttr,
	})

	return err
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (e Engine) startTraceSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, scheduler.SpanContext) {

	if e.tracingCollector != nil {
		return e.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (e Engine) finishTraceSpan(span scheduler.SpanContext, status string, attrs map[string]string) {
	if e.tracingCollector != nil && span != nil {
		e.tracingCollector.FinishSpan(span, status, attrs)
	}
}

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (e Engine) recordDurationMetricsContext(
	ctx context.Context,
	duration time.Duration,
	operation, status string,
) {

	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := e.metricsCollector.(scheduler.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

// incrementCounterContext increments a counter with context if the collector supports it.
func (e Engine) incrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(scheduler.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (e Engine) logQueryWithDuration(ctx context.Context, sqlStatement string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlStatement}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (e Engine) logOperation(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (e Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

// logError logs error information at the error level.
func (e Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.logger != nil {
		e.logger.Error(msg, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

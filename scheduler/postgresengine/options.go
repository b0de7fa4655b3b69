package postgresengine

import (
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Option defines a functional option for configuring Engine.
type Option func(*Engine) error

func withTableName(tableName string, set func(*Engine)) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return scheduler.ErrEmptyTableName
		}

		set(e)

		return nil
	}
}

// WithVaccinesTableName sets the table backing the inventory ledger.
func WithVaccinesTableName(tableName string) Option {
	return withTableName(tableName, func(e *Engine) { e.tables.vaccines = tableName })
}

// WithAvailabilityTableName sets the table backing the availability index.
func WithAvailabilityTableName(tableName string) Option {
	return withTableName(tableName, func(e *Engine) { e.tables.availability = tableName })
}

// WithAppointmentsTableName sets the appointments table. The id sequence is named after it.
func WithAppointmentsTableName(tableName string) Option {
	return withTableName(tableName, func(e *Engine) { e.tables.appointments = tableName })
}

// WithPatientsTableName sets the table holding patient accounts.
func WithPatientsTableName(tableName string) Option {
	return withTableName(tableName, func(e *Engine) { e.tables.patients = tableName })
}

// WithCaregiversTableName sets the table holding caregiver accounts.
func WithCaregiversTableName(tableName string) Option {
	return withTableName(tableName, func(e *Engine) { e.tables.caregivers = tableName })
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: completed operations with durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: storage failures.
func WithLogger(logger scheduler.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// It receives the same messages as the Logger, together with the context,
// so trace and span ids can be correlated when tracing is enabled.
func WithContextualLogger(logger scheduler.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
// It receives per-operation durations, rejection counters (out of stock, slot taken, ...)
// and database error counters.
func WithMetrics(collector scheduler.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine. Every port operation gets its own span.
func WithTracing(collector scheduler.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

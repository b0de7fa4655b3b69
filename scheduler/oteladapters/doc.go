// Package oteladapters provides OpenTelemetry adapters for the scheduler observability interfaces.
//
// The postgres engine and the command handlers only depend on the small interfaces in package
// scheduler. The types here plug them into an OpenTelemetry setup:
//   - SlogBridgeLogger: scheduler.Logger and scheduler.ContextualLogger over log/slog,
//     by default via the otelslog bridge so records carry trace and span ids
//   - OTelLogger: the same interfaces on the OpenTelemetry logs API directly
//   - MetricsCollector: scheduler.ContextualMetricsCollector on OpenTelemetry instruments
//   - TracingCollector: scheduler.TracingCollector on an OpenTelemetry tracer
package oteladapters

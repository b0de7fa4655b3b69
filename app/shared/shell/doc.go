// Package shell holds the plumbing shared by all command and query handlers of the scheduler:
// the handler contracts, retry with exponential backoff, handler results with retry metadata,
// and the metric, span and log helpers used by the observable wrappers.
//
// In Hexagonal Architecture terminology, this would be called the 'application' layer.
package shell

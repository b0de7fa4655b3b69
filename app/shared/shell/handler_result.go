package shell

import "time"

// HandlerResult carries the execution metadata of a command handler run
// without coupling the handler to specific observability implementations.
type HandlerResult struct {
	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays, excluding execution time.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error encountered during retries.
	// Values: "none", "slot_unavailable", "context_canceled", "context_deadline_exceeded", "other"
	LastErrorType string

	// RetriesExhausted is true only when all attempts failed with a retryable error.
	RetriesExhausted bool
}

// Execution makes HandlerResult usable as a CommandResult for commands without payload.
func (r HandlerResult) Execution() HandlerResult {
	return r
}

// SingleAttempt is the result of a handler that does not retry.
func SingleAttempt(err error) HandlerResult {
	return HandlerResult{RetryAttempts: 1, LastErrorType: getErrorType(err)}
}

// NewHandlerResult converts the retry metadata into a HandlerResult.
func NewHandlerResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

package shell

import (
	"context"
)

// Command represents the contract for all command types of the scheduler.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandResult is implemented by every command result so that the observable wrapper
// can read the execution metadata without knowing the concrete result type.
type CommandResult interface {
	Execution() HandlerResult
}

// CoreCommandHandler defines the contract for components that process commands with pure business logic.
// Implementations should focus on the business workflow without observability concerns;
// they are designed to be wrapped with observability decorators.
type CoreCommandHandler[C Command, R CommandResult] interface {
	Handle(ctx context.Context, command C) (R, error)
}

// Query represents the contract for all query types of the scheduler.
type Query interface {
	QueryType() string
}

// CoreQueryHandler defines the contract for components that answer queries.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

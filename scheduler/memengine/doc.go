// Package memengine provides an in-memory implementation of the scheduler storage ports.
//
// All state lives behind a single mutex, so every operation is atomic with respect to
// concurrent callers. It is used by the command line when no database is configured and
// by the tests of the command handlers.
//
// Usage:
//
//	engine := memengine.NewEngine(memengine.WithLogger(logger))
//	_ = engine.AddDoses(ctx, "pfizer", 10)
package memengine

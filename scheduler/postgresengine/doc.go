// Package postgresengine provides a PostgreSQL implementation of the scheduler storage ports.
//
// Every mutating operation is a single conditional statement, so PostgreSQL's row locking
// gives the guarantees the reservation saga relies on:
//   - TryDecrement is one UPDATE guarded by doses > 0, the ledger never goes negative
//   - Claim is one UPDATE guarded by NOT claimed, each slot is claimed at most once
//   - NextID draws from a sequence, ids are never handed out twice
//   - Cancel is one DELETE guarded by the requester owning the appointment
//
// Three database adapters are supported (pgx, sql.DB, sqlx). Statements are built with goqu.
//
// Usage examples:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	engine, _ := postgresengine.NewEngineFromPGXPool(pool)
//	_ = engine.Migrate(ctx)
//
//	// With logging, metrics and tracing
//	engine, _ := postgresengine.NewEngineFromPGXPool(
//		pool,
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(metrics),
//		postgresengine.WithTracing(tracing),
//	)
package postgresengine

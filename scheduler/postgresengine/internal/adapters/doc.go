// Package adapters provide database adapter implementations for the PostgreSQL scheduler engine.
//
// The engine supports three PostgreSQL client libraries: pgxpool.Pool, sql.DB and sqlx.DB.
// Each adapter exposes the same DBAdapter interface, so the engine builds its statements once
// and executes them through whichever connection type the caller owns.
package adapters

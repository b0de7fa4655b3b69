// Package config reads the scheduler configuration from the environment (optionally pre-loaded
// from .env files) and builds the infrastructure it describes: PostgreSQL connections for the
// three supported drivers (pgx.Pool, sql.DB, sqlx.DB), the OpenTelemetry providers and the loggers.
//
// This package is part of the shell (infrastructure) layer.
package config

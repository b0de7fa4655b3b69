package adapters

import (
	"context"
	"errors"
)

// ErrNoRows is what DBRow.Scan returns for an empty result, independent of the driver.
var ErrNoRows = errors.New("no rows in result set")

// DBAdapter defines the database operations needed by the scheduler engine.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	QueryRow(ctx context.Context, query string) DBRow
	Exec(ctx context.Context, query string) (DBResult, error)
	Ping(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBRow is a single-row result. Errors of the query are deferred until Scan.
type DBRow interface {
	Scan(dest ...any) error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

package adapters

import (
	"database/sql"
	"errors"
)

// The sql.DB and sqlx.DB adapters both hand out database/sql values, wrapped here.

type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

type stdRow struct {
	row *sql.Row
}

func (s stdRow) Scan(dest ...any) error {
	err := s.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}

	return err
}

type stdResult struct {
	result sql.Result
}

func (s stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}

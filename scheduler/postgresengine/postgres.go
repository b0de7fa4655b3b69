package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/postgresengine/internal/adapters"
)

const (
	defaultVaccinesTableName     = "vaccines"
	defaultAvailabilityTableName = "caregiver_availability"
	defaultAppointmentsTableName = "appointments"
	defaultPatientsTableName     = "patients"
	defaultCaregiversTableName   = "caregivers"
	dialectPostgres              = "postgres"
	sequenceSuffix               = "_id_seq"
	isoDateLayout                = "2006-01-02"
)

const (
	colName              = "name"
	colDoses             = "doses"
	colUsername          = "username"
	colDate              = "date"
	colClaimed           = "claimed"
	colID                = "id"
	colPatientUsername   = "patient_username"
	colCaregiverUsername = "caregiver_username"
	colVaccineName       = "vaccine_name"
	colSalt              = "salt"
	colHash              = "hash"
)

const (
	logMsgBuildStatementFailed = "failed to build sql statement"
	logMsgDBQueryFailed        = "database query execution failed"
	logMsgDBExecFailed         = "database statement execution failed"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgScanRowFailed        = "failed to scan database row"
	logMsgRowsAffectedFailed   = "failed to get rows affected count"
	logMsgMigrated             = "schema migrated"
	logMsgPingFailed           = "database ping failed"
	logMsgSQLExecuted          = "executed sql for: "
	logMsgOperation            = "scheduler storage operation: "
	logAttrError               = "error"
	logAttrQuery               = "query"
	logAttrDurationMS          = "duration_ms"
	logAttrOutcome             = "outcome"
)

type tableNames struct {
	vaccines     string
	availability string
	appointments string
	patients     string
	caregivers   string
}

func (t tableNames) sequence() string {
	return t.appointments + sequenceSuffix
}

func (t tableNames) accounts(role scheduler.Role) (string, error) {
	switch role {
	case scheduler.RolePatient:
		return t.patients, nil
	case scheduler.RoleCaregiver:
		return t.caregivers, nil
	default:
		return "", fmt.Errorf("%w: account role %s", scheduler.ErrInvalidInput, role)
	}
}

// Engine implements scheduler.Engine on PostgreSQL.
// It is safe for concurrent use; all coordination happens in the database.
type Engine struct {
	db               adapters.DBAdapter
	dialect          goqu.DialectWrapper
	tables           tableNames
	logger           scheduler.Logger
	contextualLogger scheduler.ContextualLogger
	metricsCollector scheduler.MetricsCollector
	tracingCollector scheduler.TracingCollector
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, scheduler.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, scheduler.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, scheduler.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	e := Engine{
		db:      db,
		dialect: goqu.Dialect(dialectPostgres),
		tables: tableNames{
			vaccines:     defaultVaccinesTableName,
			availability: defaultAvailabilityTableName,
			appointments: defaultAppointmentsTableName,
			patients:     defaultPatientsTableName,
			caregivers:   defaultCaregiversTableName,
		},
	}

	for _, option := range options {
		if err := option(&e); err != nil {
			return Engine{}, err
		}
	}

	return e, nil
}

// Migrate creates the tables, the appointment id sequence and the open slot index if they don't exist.
func (e Engine) Migrate(ctx context.Context) error {
	ident := func(name string) string { return pgx.Identifier{name}.Sanitize() }

	statements := []string{
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, doses BIGINT NOT NULL CHECK (doses >= 0))`,
			ident(e.tables.vaccines),
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (username TEXT NOT NULL, date DATE NOT NULL, `+
				`claimed BOOLEAN NOT NULL DEFAULT FALSE, PRIMARY KEY (username, date))`,
			ident(e.tables.availability),
		),
		fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s (date, username) WHERE NOT claimed`,
			ident(e.tables.availability+"_open_idx"),
			ident(e.tables.availability),
		),
		fmt.Sprintf(`CREATE SEQUENCE IF NOT EXISTS %s`, ident(e.tables.sequence())),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id BIGINT PRIMARY KEY, date DATE NOT NULL, `+
				`patient_username TEXT NOT NULL, caregiver_username TEXT NOT NULL, vaccine_name TEXT NOT NULL)`,
			ident(e.tables.appointments),
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (username TEXT PRIMARY KEY, salt BYTEA NOT NULL, hash BYTEA NOT NULL)`,
			ident(e.tables.patients),
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (username TEXT PRIMARY KEY, salt BYTEA NOT NULL, hash BYTEA NOT NULL)`,
			ident(e.tables.caregivers),
		),
	}

	for _, statement := range statements {
		if _, err := e.exec(ctx, operationMigrate, statement); err != nil {
			return err
		}
	}

	e.logOperation(ctx, logMsgMigrated)

	return nil
}

// Ping checks that the database answers. Failures are ErrStorage.
func (e Engine) Ping(ctx context.Context) error {
	if err := e.db.Ping(ctx); err != nil {
		e.logError(ctx, logMsgPingFailed, err)
		return storageError(err)
	}

	return nil
}

// sqlBuilder is satisfied by all goqu datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// toSQL renders a non-prepared statement.
func (e Engine) toSQL(ctx context.Context, builder sqlBuilder) (string, error) {
	sqlStatement, _, err := builder.ToSQL()
	if err != nil {
		e.logError(ctx, logMsgBuildStatementFailed, err)
		return "", errors.Join(scheduler.ErrStorage, err)
	}

	return sqlStatement, nil
}

// exec runs a statement and returns the number of affected rows.
func (e Engine) exec(ctx context.Context, action string, sqlStatement string) (int64, error) {
	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlStatement)
	e.logQueryWithDuration(ctx, sqlStatement, action, time.Since(start))

	if execErr != nil {
		e.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlStatement)
		return 0, errors.Join(scheduler.ErrStorage, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(scheduler.ErrStorage, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// query runs a select statement. The caller must close the rows.
func (e Engine) query(ctx context.Context, action string, sqlStatement string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlStatement)
	e.logQueryWithDuration(ctx, sqlStatement, action, time.Since(start))

	if queryErr != nil {
		e.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlStatement)
		return nil, errors.Join(scheduler.ErrStorage, queryErr)
	}

	return rows, nil
}

// queryRow runs a select statement yielding at most one row and scans it into dest.
// An empty result is reported as found == false, not as an error.
func (e Engine) queryRow(ctx context.Context, action string, builder sqlBuilder, dest ...any) (bool, error) {
	sqlStatement, err := e.toSQL(ctx, builder)
	if err != nil {
		return false, err
	}

	start := time.Now()
	scanErr := e.db.QueryRow(ctx, sqlStatement).Scan(dest...)
	e.logQueryWithDuration(ctx, sqlStatement, action, time.Since(start))

	switch {
	case errors.Is(scanErr, adapters.ErrNoRows):
		return false, nil
	case scanErr != nil:
		e.logError(ctx, logMsgDBQueryFailed, scanErr, logAttrQuery, sqlStatement)
		return false, storageError(scanErr)
	default:
		return true, nil
	}
}

// scanAll calls scan for every row and closes the rows afterward.
func (e Engine) scanAll(ctx context.Context, rows adapters.DBRows, scan func(adapters.DBRows) error) error {
	defer e.closeRows(ctx, rows)

	for rows.Next() {
		if err := scan(rows); err != nil {
			e.logError(ctx, logMsgScanRowFailed, err)
			return errors.Join(scheduler.ErrStorage, err)
		}
	}

	if err := rows.Err(); err != nil {
		e.logError(ctx, logMsgDBQueryFailed, err)
		return errors.Join(scheduler.ErrStorage, err)
	}

	return nil
}

// exists reports whether the select statement yields at least one row.
func (e Engine) exists(ctx context.Context, action string, builder sqlBuilder) (bool, error) {
	sqlStatement, err := e.toSQL(ctx, builder)
	if err != nil {
		return false, err
	}

	rows, err := e.query(ctx, action, sqlStatement)
	if err != nil {
		return false, err
	}
	defer e.closeRows(ctx, rows)

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, errors.Join(scheduler.ErrStorage, err)
	}

	return found, nil
}

func (e Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func storageError(err error) error {
	return errors.Join(scheduler.ErrStorage, err)
}

func isoDate(date scheduler.Date) string {
	return date.Time().Format(isoDateLayout)
}

var _ scheduler.Engine = Engine{}

package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/config"
	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler/postgresengine"
)

// DSNEnv names the variable holding the DSN of the test database.
const DSNEnv = "SCHEDULER_TEST_POSTGRES_DSN"

const truncateAll = `TRUNCATE vaccines, caregiver_availability, appointments, patients, caregivers`

// AdapterTypes lists every database adapter the engine supports.
var AdapterTypes = []string{config.AdapterPGXPool, config.AdapterSQLDB, config.AdapterSQLX}

// Wrapper abstracts over the connection types the engine can run on
type Wrapper interface {
	Engine() postgresengine.Engine
	Exec(ctx context.Context, statement string, args ...any) error
	QueryInt(ctx context.Context, query string, args ...any) (int64, error)
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool   *pgxpool.Pool
	engine postgresengine.Engine
}

func (w *PGXPoolWrapper) Engine() postgresengine.Engine {
	return w.engine
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := w.pool.Exec(ctx, statement, args...)
	return err
}

func (w *PGXPoolWrapper) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	err := w.pool.QueryRow(ctx, query, args...).Scan(&value)

	return value, err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db     *sql.DB
	engine postgresengine.Engine
}

func (w *SQLDBWrapper) Engine() postgresengine.Engine {
	return w.engine
}

func (w *SQLDBWrapper) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := w.db.ExecContext(ctx, statement, args...)
	return err
}

func (w *SQLDBWrapper) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	err := w.db.QueryRowContext(ctx, query, args...).Scan(&value)

	return value, err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close()
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db     *sqlx.DB
	engine postgresengine.Engine
}

func (w *SQLXWrapper) Engine() postgresengine.Engine {
	return w.engine
}

func (w *SQLXWrapper) Exec(ctx context.Context, statement string, args ...any) error {
	_, err := w.db.ExecContext(ctx, statement, args...)
	return err
}

func (w *SQLXWrapper) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	err := w.db.GetContext(ctx, &value, query, args...)

	return value, err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close()
}

// DSNOrSkip returns the test database DSN and skips the test when none is configured.
func DSNOrSkip(t testing.TB) string {
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", DSNEnv)
	}

	return dsn
}

// CreateWrapper connects with the given adapter type, migrates the schema and registers Close as cleanup.
func CreateWrapper(t testing.TB, ctx context.Context, adapterType string, options ...postgresengine.Option) Wrapper {
	dsn := DSNOrSkip(t)

	var wrapper Wrapper

	switch adapterType {
	case config.AdapterPGXPool:
		pool, err := config.PostgresPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		engine, err := postgresengine.NewEngineFromPGXPool(pool, options...)
		require.NoError(t, err)
		wrapper = &PGXPoolWrapper{pool: pool, engine: engine}

	case config.AdapterSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn)
		require.NoError(t, err, "error opening sql.DB in test setup")
		engine, err := postgresengine.NewEngineFromSQLDB(db, options...)
		require.NoError(t, err)
		wrapper = &SQLDBWrapper{db: db, engine: engine}

	case config.AdapterSQLX:
		db, err := config.PostgresSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting sqlx.DB in test setup")
		engine, err := postgresengine.NewEngineFromSQLX(db, options...)
		require.NoError(t, err)
		wrapper = &SQLXWrapper{db: db, engine: engine}

	default:
		panic(fmt.Sprintf("unsupported adapter type: %s", adapterType))
	}

	t.Cleanup(wrapper.Close)
	require.NoError(t, wrapper.Engine().Migrate(ctx), "migration failed")

	return wrapper
}

// CleanUp empties every scheduler table.
func CleanUp(t testing.TB, ctx context.Context, wrapper Wrapper) {
	require.NoError(t, wrapper.Exec(ctx, truncateAll), "cleaning up the tables failed")
}

// DosesInDB reads the stored dose count of a vaccine.
func DosesInDB(t testing.TB, ctx context.Context, wrapper Wrapper, vaccine string) int64 {
	doses, err := wrapper.QueryInt(ctx, `SELECT doses FROM vaccines WHERE name = $1`, vaccine)
	require.NoError(t, err, "error reading doses")

	return doses
}

// ClaimedSlotsInDB counts the claimed slots of a caregiver.
func ClaimedSlotsInDB(t testing.TB, ctx context.Context, wrapper Wrapper, caregiver string) int64 {
	claimed, err := wrapper.QueryInt(
		ctx,
		`SELECT count(*) FROM caregiver_availability WHERE username = $1 AND claimed`,
		caregiver,
	)
	require.NoError(t, err, "error counting claimed slots")

	return claimed
}

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/shared/shell/config"
)

func memoryEnvironment(t *testing.T) string {
	t.Setenv(config.EnvStorage, config.StorageMemory)
	t.Setenv(config.EnvOTLPEndpoint, "")
	t.Setenv(config.EnvLogLevel, "error")

	return filepath.Join(t.TempDir(), "none.env")
}

func Test_Run_REPLOnMemoryStorage(t *testing.T) {
	// setup
	envFile := memoryEnvironment(t)
	stdin := strings.NewReader(strings.Join([]string{
		"create_caregiver alice secret",
		"login_caregiver alice secret",
		"add_doses pfizer 2",
		"quit",
	}, "\n"))
	var stdout, stderr bytes.Buffer

	// act
	err := run(t.Context(), envFile, nil, stdin, &stdout, &stderr)

	// assert
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Created user alice")
	assert.Contains(t, stdout.String(), "Logged in as: alice")
	assert.Contains(t, stdout.String(), "Doses updated!")
	assert.Contains(t, stdout.String(), "Bye!")
}

func Test_Run_RejectsUnknownCommand(t *testing.T) {
	// act
	err := run(t.Context(), "", []string{"compact"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	// assert
	assert.ErrorIs(t, err, errUnknownCommand)
}

func Test_Run_MigrateNeedsPostgres(t *testing.T) {
	// setup
	envFile := memoryEnvironment(t)

	// act
	err := run(t.Context(), envFile, []string{commandMigrate}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	// assert
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_Runtime_HandlersConfig_EnablesReserveRetry(t *testing.T) {
	// setup
	cfg := config.Config{LogBackend: config.LogBackendSlog, LogLevel: "error", ReserveRetryAttempts: 3}
	rt, err := newRuntime(t.Context(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(rt.close)

	// act
	withRetry := rt.handlersConfig(nil)
	rt.cfg.ReserveRetryAttempts = 1
	withoutRetry := rt.handlersConfig(nil)

	// assert
	assert.Len(t, withRetry.ReserveRetry, 1)
	assert.Empty(t, withoutRetry.ReserveRetry)
	assert.Nil(t, rt.observability.MetricsCollector, "telemetry is off without an endpoint")
}

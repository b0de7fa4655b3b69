package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvStorage              = "SCHEDULER_STORAGE"
	EnvPostgresDSN          = "SCHEDULER_POSTGRES_DSN"
	EnvPostgresAdapter      = "SCHEDULER_POSTGRES_ADAPTER"
	EnvLogBackend           = "SCHEDULER_LOG_BACKEND"
	EnvLogLevel             = "SCHEDULER_LOG_LEVEL"
	EnvHTTPAddr             = "SCHEDULER_HTTP_ADDR"
	EnvCORSOrigins          = "SCHEDULER_CORS_ORIGINS"
	EnvKafkaBrokers         = "SCHEDULER_KAFKA_BROKERS"
	EnvKafkaTopic           = "SCHEDULER_KAFKA_TOPIC"
	EnvReserveRetryAttempts = "SCHEDULER_RESERVE_RETRY_ATTEMPTS"
	EnvOTLPEndpoint         = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPProtocol         = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvOTLPMetricsEndpoint  = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	EnvOTLPLogsEndpoint     = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"

	LogBackendSlog = "slog"
	LogBackendZap  = "zap"

	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultKafkaTopic = "scheduler-notifications"
	defaultLogLevel   = "info"
)

// ErrInvalidConfig is returned for a missing or malformed setting.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Storage         string
	PostgresDSN     string
	PostgresAdapter string

	LogBackend string
	LogLevel   string

	HTTPAddr    string
	CORSOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	// ReserveRetryAttempts > 1 enables the retry of reservations that lost a slot race.
	ReserveRetryAttempts int

	// OTLPEndpoint (host:port) receives traces over OTLPProtocol. Metrics always go over gRPC
	// and logs over HTTP, to their own endpoints if set.
	OTLPEndpoint        string
	OTLPProtocol        string
	OTLPMetricsEndpoint string
	OTLPLogsEndpoint    string
}

// ObservabilityEnabled reports whether telemetry should be exported.
func (c Config) ObservabilityEnabled() bool {
	return c.OTLPEndpoint != ""
}

// Load pre-loads the given .env files (".env" if none are given, a missing file is fine)
// without overriding variables that are already set, then reads the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: loading %s: %w", ErrInvalidConfig, file, err)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds the Config from an arbitrary key lookup.
func FromLookup(lookup func(key string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}

		return fallback
	}

	endpoint := get(EnvOTLPEndpoint, "")

	cfg := Config{
		Storage:         strings.ToLower(get(EnvStorage, StorageMemory)),
		PostgresDSN:     get(EnvPostgresDSN, ""),
		PostgresAdapter: strings.ToLower(get(EnvPostgresAdapter, AdapterPGXPool)),
		LogBackend:      strings.ToLower(get(EnvLogBackend, LogBackendSlog)),
		LogLevel:        strings.ToLower(get(EnvLogLevel, defaultLogLevel)),
		HTTPAddr:        get(EnvHTTPAddr, defaultHTTPAddr),
		CORSOrigins:     splitList(get(EnvCORSOrigins, "")),
		KafkaBrokers:    splitList(get(EnvKafkaBrokers, "")),
		KafkaTopic:      get(EnvKafkaTopic, defaultKafkaTopic),
		OTLPEndpoint:    endpoint,
		OTLPProtocol:    strings.ToLower(get(EnvOTLPProtocol, ProtocolGRPC)),

		OTLPMetricsEndpoint: get(EnvOTLPMetricsEndpoint, endpoint),
		OTLPLogsEndpoint:    get(EnvOTLPLogsEndpoint, endpoint),
	}

	attempts, err := strconv.Atoi(get(EnvReserveRetryAttempts, "1"))
	if err != nil || attempts < 1 {
		return Config{}, invalid(EnvReserveRetryAttempts, "must be a positive integer")
	}
	cfg.ReserveRetryAttempts = attempts

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, invalid(EnvPostgresDSN, "is required for postgres storage"))
		}
	default:
		errs = append(errs, invalid(EnvStorage, "must be memory or postgres"))
	}

	if !oneOf(c.PostgresAdapter, AdapterPGXPool, AdapterSQLDB, AdapterSQLX) {
		errs = append(errs, invalid(EnvPostgresAdapter, "must be pgx.pool, sql.db or sqlx.db"))
	}

	if !oneOf(c.LogBackend, LogBackendSlog, LogBackendZap) {
		errs = append(errs, invalid(EnvLogBackend, "must be slog or zap"))
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, invalid(EnvLogLevel, "must be debug, info, warn or error"))
	}

	if !oneOf(c.OTLPProtocol, ProtocolGRPC, ProtocolHTTP) {
		errs = append(errs, invalid(EnvOTLPProtocol, "must be grpc or http"))
	}

	return errors.Join(errs...)
}

func invalid(key, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, key, reason)
}

func oneOf(value string, allowed ...string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}

	return false
}

func splitList(raw string) []string {
	var items []string

	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

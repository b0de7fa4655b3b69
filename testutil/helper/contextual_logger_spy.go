package helper

import (
	"context"
	"slices"
	"sync"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value following key in Args, or nil.
func (r LogRecord) Attr(key string) any {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if r.Args[i] == key {
			return r.Args[i+1]
		}
	}

	return nil
}

// LoggerSpy captures log calls. It implements both scheduler.Logger and scheduler.ContextualLogger.
type LoggerSpy struct {
	mu          sync.Mutex
	records     []LogRecord
	recordCalls bool
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy(recordCalls bool) *LoggerSpy {
	return &LoggerSpy{recordCalls: recordCalls}
}

func (l *LoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !l.recordCalls {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, LogRecord{Level: level, Message: msg, Args: slices.Clone(args), Context: ctx})
}

func (l *LoggerSpy) Debug(msg string, args ...any) {
	l.record(context.Background(), "debug", msg, args)
}

func (l *LoggerSpy) Info(msg string, args ...any) {
	l.record(context.Background(), "info", msg, args)
}

func (l *LoggerSpy) Warn(msg string, args ...any) {
	l.record(context.Background(), "warn", msg, args)
}

func (l *LoggerSpy) Error(msg string, args ...any) {
	l.record(context.Background(), "error", msg, args)
}

func (l *LoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "debug", msg, args)
}

func (l *LoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "info", msg, args)
}

func (l *LoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "warn", msg, args)
}

func (l *LoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.record(ctx, "error", msg, args)
}

// Records returns a copy of all captured records.
func (l *LoggerSpy) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.records)
}

// Find returns the first record with level and message.
func (l *LoggerSpy) Find(level, message string) (LogRecord, bool) {
	for _, record := range l.Records() {
		if record.Level == level && record.Message == message {
			return record, true
		}
	}

	return LogRecord{}, false
}

// HasLog reports whether a record with level and message was captured.
func (l *LoggerSpy) HasLog(level, message string) bool {
	_, found := l.Find(level, message)
	return found
}

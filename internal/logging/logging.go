// Package logging builds the service's slog logger on top of slog-logfilter.
//
// Output is text on a terminal and JSON otherwise (LOG_FORMAT overrides).
// Request, partition and refresh identifiers travel in the context so that
// both log lines and runtime filters can target a single credential track.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	logfilter "github.com/jmylchreest/slog-logfilter"
)

// ContextKey is a type for context keys used in logging.
type ContextKey string

const (
	// RequestIDKey carries the inbound HTTP request id.
	RequestIDKey ContextKey = "log_request_id"
	// PartitionKey carries the credential partition (Male/Female).
	PartitionKey ContextKey = "log_partition"
	// RefreshIDKey correlates the log lines of one credential refresh.
	RefreshIDKey ContextKey = "log_refresh_id"
)

// contextFields maps context keys to the attribute names they are logged under.
var contextFields = []struct {
	key  ContextKey
	attr string
}{
	{RequestIDKey, "request_id"},
	{PartitionKey, "partition"},
	{RefreshIDKey, "refresh_id"},
}

var registerOnce sync.Once

// WithRequestID adds a request ID to the context for logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithPartition adds the credential partition to the context for logging.
func WithPartition(ctx context.Context, partition string) context.Context {
	return context.WithValue(ctx, PartitionKey, partition)
}

// WithRefreshID tags every line logged during one refresh.
func WithRefreshID(ctx context.Context, refreshID string) context.Context {
	return context.WithValue(ctx, RefreshIDKey, refreshID)
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	return lookup(ctx, RequestIDKey)
}

// GetPartition extracts the credential partition from context.
func GetPartition(ctx context.Context) string {
	return lookup(ctx, PartitionKey)
}

// GetRefreshID extracts the refresh correlation id from context.
func GetRefreshID(ctx context.Context) string {
	return lookup(ctx, RefreshIDKey)
}

func lookup(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// FromContext returns logger enriched with every identifier present in ctx.
// The logger itself is returned when ctx carries none.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	var attrs []any
	for _, f := range contextFields {
		if v := lookup(ctx, f.key); v != "" {
			attrs = append(attrs, f.attr, v)
		}
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

// registerContextExtractors lets logfilter rules match on the context fields.
func registerContextExtractors() {
	registerOnce.Do(func() {
		for _, f := range contextFields {
			key := f.key
			logfilter.RegisterContextExtractor(f.attr, func(ctx context.Context) (string, bool) {
				v := lookup(ctx, key)
				return v, v != ""
			})
		}
	})
}

// New creates a configured logger. levelName comes from the loaded config
// (LOG_LEVEL, forced to debug by DEBUG=1).
func New(levelName string) *slog.Logger {
	registerContextExtractors()

	return logfilter.New(
		logfilter.WithLevel(parseLogLevel(levelName)),
		logfilter.WithFormat(outputFormat(os.Getenv("LOG_FORMAT"), isatty(os.Stdout))),
		logfilter.WithOutput(os.Stdout),
		logfilter.WithSource(true),
	)
}

// outputFormat honours an explicit LOG_FORMAT and otherwise picks text for terminals.
func outputFormat(env string, tty bool) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "text":
		return "text"
	case "json":
		return "json"
	}
	if tty {
		return "text"
	}
	return "json"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault creates a new logger and installs it as slog's default.
func SetDefault(levelName string) *slog.Logger {
	logger := New(levelName)
	slog.SetDefault(logger)
	return logger
}

// SetLevel changes the global log level at runtime.
func SetLevel(level slog.Level) {
	logfilter.SetLevel(level)
}

// GetLevel returns the current global log level.
func GetLevel() slog.Level {
	return logfilter.GetLevel()
}

func isatty(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/syncdeck/core/pkg/models"
)

type contextKey string

const LoggerKey contextKey = "logger"

type Logger struct {
	*zerolog.Logger
}

// New creates a new logger instance with service context
func New(service string) *Logger {
	hostname, _ := os.Hostname()

	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "@timestamp" // ELK compatible

	// Create logger with JSON output for production
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("version", getEnv("SERVICE_VERSION", "unknown")).
		Logger()

	return &Logger{&logger}
}

// WithContext returns a logger from context or creates a new one
func WithContext(ctx context.Context, service string) *Logger {
	if logger, ok := ctx.Value(LoggerKey).(*Logger); ok {
		return logger
	}
	return New(service)
}

// ToContext adds logger to context
func (l *Logger) ToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// WithRequestID adds request/correlation ID for tracing
func (l *Logger) WithRequestID(requestID string) *Logger {
	logger := l.Logger.With().Str("request_id", requestID).Logger()
	return &Logger{&logger}
}

// WithJob adds job context for scheduled sync jobs
func (l *Logger) WithJob(jobID int64, jobName string) *Logger {
	logger := l.Logger.With().
		Int64("job_id", jobID).
		Str("job_name", jobName).
		Logger()
	return &Logger{&logger}
}

// WithRun adds run context
func (l *Logger) WithRun(runID int64, kind models.RunKind) *Logger {
	logger := l.Logger.With().
		Int64("run_id", runID).
		Str("run_kind", string(kind)).
		Logger()
	return &Logger{&logger}
}

// WithError adds error context
func (l *Logger) WithError(err error) *Logger {
	logger := l.Logger.With().Err(err).Logger()
	return &Logger{&logger}
}

// LogRunStart logs the launch of a sync run
func (l *Logger) LogRunStart(jobName string, kind models.RunKind, source, destination string) {
	l.Info().
		Str("action", "run_start").
		Str("job_name", jobName).
		Str("run_kind", string(kind)).
		Str("source", source).
		Str("destination", destination).
		Msg("Starting sync run")
}

// LogRunComplete logs run completion with final counters
func (l *Logger) LogRunComplete(jobName string, status models.RunStatus, duration time.Duration, c models.Counters) {
	l.Info().
		Str("action", "run_complete").
		Str("job_name", jobName).
		Str("status", string(status)).
		Dur("duration", duration).
		Int64("bytes_done", c.BytesDone).
		Int64("files", c.Files).
		Int64("error_count", c.Errors).
		Bool("has_errors", c.Errors > 0).
		Msg("Sync run completed")
}

// LogTick logs one scheduler evaluation pass
func (l *Logger) LogTick(jobsSeen, triggered, skipped int, duration time.Duration) {
	l.Debug().
		Str("action", "scheduler_tick").
		Int("jobs_seen", jobsSeen).
		Int("triggered", triggered).
		Int("skipped", skipped).
		Dur("duration", duration).
		Msg("Scheduler tick completed")
}

// LogNotification logs a notification delivery attempt
func (l *Logger) LogNotification(jobName string, status models.RunStatus, err error) {
	event := l.Info()
	if err != nil {
		event = l.Error().Err(err)
	}

	event.
		Str("action", "notify").
		Str("job_name", jobName).
		Str("status", string(status)).
		Bool("success", err == nil).
		Msg("Run notification")
}

// Fatalf logs a fatal error and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.Fatal().Msgf(format, args...)
}

// SetupLogger configures global log level based on environment
func SetupLogger() {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Pretty logging for development
	if getEnv("ENVIRONMENT", "development") == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		logger := zerolog.New(output).With().Timestamp().Logger()
		zerolog.DefaultContextLogger = &logger
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

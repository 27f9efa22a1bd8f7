// Package logger provides structured logging for the AgentOps service
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with service-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // console output for development
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a level name to zerolog, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a structured logger
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "agentops").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

func (l *Logger) Info() *zerolog.Event { return l.zlog.Info() }
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }
func (l *Logger) Warn() *zerolog.Event { return l.zlog.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fields).Logger()}
}

func (l *Logger) component(name string) zerolog.Context {
	return l.zlog.With().Str("component", name)
}

// GrpcLogger returns a logger for gRPC operations
func (l *Logger) GrpcLogger(method string) *Logger {
	return &Logger{zlog: l.component("grpc").Str("method", method).Logger()}
}

// HTTPLogger returns a logger for HTTP handlers
func (l *Logger) HTTPLogger(path string) *Logger {
	return &Logger{zlog: l.component("http").Str("path", path).Logger()}
}

// CorpusLogger returns a logger for corpus loading
func (l *Logger) CorpusLogger(source string) *Logger {
	return &Logger{zlog: l.component("corpus").Str("source", source).Logger()}
}

// LogGrpcRequest logs a completed gRPC call
func (l *Logger) LogGrpcRequest(method string, duration time.Duration, err error) {
	event := l.zlog.Info()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}
	event.Str("component", "grpc").
		Str("method", method).
		Dur("duration_ms", duration).
		Msg("gRPC request completed")
}

// LogHTTPRequest logs a completed HTTP request. 5xx logs at error, 4xx at warn.
func (l *Logger) LogHTTPRequest(method, path string, status int, duration time.Duration, user string) {
	event := l.zlog.Info()
	switch {
	case status >= 500:
		event = l.zlog.Error()
	case status >= 400:
		event = l.zlog.Warn()
	}
	event.Str("component", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration_ms", duration).
		Str("user_id", user).
		Msg("HTTP request completed")
}

// LogQuery logs one answer or draft. text must already be redacted.
func (l *Logger) LogQuery(mode, text string, citations []string, duration time.Duration) {
	l.zlog.Debug().
		Str("component", "engine").
		Str("mode", mode).
		Str("text", text).
		Strs("citations", citations).
		Bool("no_match", len(citations) == 0).
		Dur("duration_ms", duration).
		Msg("Query composed")
}

// LogCorpusLoaded logs the result of loading the policy corpus
func (l *Logger) LogCorpusLoaded(source string, documents, sections, skipped int) {
	event := l.zlog.Info()
	if skipped > 0 {
		event = l.zlog.Warn()
	}
	event.Str("component", "corpus").
		Str("source", source).
		Int("documents", documents).
		Int("sections", sections).
		Int("skipped", skipped).
		Msg("Policy corpus loaded")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(httpPort, grpcPort int, policySource string) {
	l.zlog.Info().
		Str("event", "server_start").
		Int("http_port", httpPort).
		Int("grpc_port", grpcPort).
		Str("policies", policySource).
		Msg("AgentOps server starting")
}

// LogServerReady logs when the server accepts traffic
func (l *Logger) LogServerReady(httpPort, grpcPort int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Int("http_port", httpPort).
		Int("grpc_port", grpcPort).
		Msg("AgentOps server ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("AgentOps server shutting down")
}

// InitGlobalLogger builds a logger and installs it as zerolog's package logger
func InitGlobalLogger(cfg Config) *Logger {
	l := NewLogger(cfg)
	log.Logger = l.zlog
	return l
}

// Package logging provides structured JSON logging with component and
// trace-ID support for the MindMate Insights server.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger interface for structured logging with trace support
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	// Context-aware logging with trace IDs
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})

	WithTraceID(traceID string) Logger
	WithComponent(component string) Logger
}

// LogLevel represents logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLevel converts a level name to a LogLevel, defaulting to INFO
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// ContextKey represents keys used in context for trace IDs
type ContextKey string

// TraceIDKey is the context key carrying the request trace ID
const TraceIDKey ContextKey = "trace_id"

// WithTraceContext returns a context carrying a fresh trace ID
func WithTraceContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.New().String())
}

// logEntry is the JSON shape of one log line
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// StructuredLogger implements structured logging with JSON output
type StructuredLogger struct {
	level     LogLevel
	traceID   string
	component string
	useJSON   bool
	out       io.Writer
}

// NewLogger creates a new structured logger writing to stderr. jsonOut
// selects JSON lines over plain text; config owns the env/file
// resolution of that flag.
func NewLogger(level LogLevel, jsonOut bool) Logger {
	return &StructuredLogger{
		level:   level,
		useJSON: jsonOut,
		out:     os.Stderr,
	}
}

// WithTraceID creates a new logger with a trace ID
func (l *StructuredLogger) WithTraceID(traceID string) Logger {
	clone := *l
	clone.traceID = traceID
	return &clone
}

// WithComponent creates a new logger with a component name
func (l *StructuredLogger) WithComponent(component string) Logger {
	clone := *l
	clone.component = component
	return &clone
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DEBUG {
		l.write("DEBUG", msg, l.traceID, fields...)
	}
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...interface{}) {
	if l.level <= INFO {
		l.write("INFO", msg, l.traceID, fields...)
	}
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WARN {
		l.write("WARN", msg, l.traceID, fields...)
	}
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, fields ...interface{}) {
	if l.level <= ERROR {
		l.write("ERROR", msg, l.traceID, fields...)
	}
}

// InfoContext logs an info message with the trace ID from the context
func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	if l.level <= INFO {
		l.write("INFO", msg, l.extractTraceID(ctx), fields...)
	}
}

// ErrorContext logs an error message with the trace ID from the context
func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	if l.level <= ERROR {
		l.write("ERROR", msg, l.extractTraceID(ctx), fields...)
	}
}

func (l *StructuredLogger) extractTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		return traceID
	}
	return l.traceID
}

func (l *StructuredLogger) write(level, msg, traceID string, fields ...interface{}) {
	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		Fields:    fieldsToMap(fields...),
	}

	if l.useJSON {
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.out, string(data))
			return
		}
	}

	line := fmt.Sprintf("%s [%s]", entry.Timestamp, entry.Level)
	if entry.Component != "" {
		line += " " + entry.Component
	}
	line += ": " + entry.Message
	for key, value := range entry.Fields {
		line += fmt.Sprintf(" %s=%v", key, value)
	}
	fmt.Fprintln(l.out, line)
}

// fieldsToMap converts alternating key/value arguments into a map. An odd
// trailing value is kept under a positional key rather than dropped.
func fieldsToMap(fields ...interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	result := make(map[string]interface{}, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i)
		}
		if i+1 < len(fields) {
			result[key] = fields[i+1]
		} else {
			result[key] = "(missing)"
		}
	}
	return result
}

package logging

import "context"

// NoopLogger discards all log output. Useful in tests.
type NoopLogger struct{}

// NewNoop creates a logger that discards everything
func NewNoop() Logger {
	return &NoopLogger{}
}

func (n *NoopLogger) Debug(string, ...interface{})                        {}
func (n *NoopLogger) Info(string, ...interface{})                         {}
func (n *NoopLogger) Warn(string, ...interface{})                         {}
func (n *NoopLogger) Error(string, ...interface{})                        {}
func (n *NoopLogger) InfoContext(context.Context, string, ...interface{}) {}
func (n *NoopLogger) ErrorContext(context.Context, string, ...interface{}) {
}

// WithTraceID returns the same noop logger
func (n *NoopLogger) WithTraceID(string) Logger { return n }

// WithComponent returns the same noop logger
func (n *NoopLogger) WithComponent(string) Logger { return n }

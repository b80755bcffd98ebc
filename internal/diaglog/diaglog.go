// Package diaglog is the append-only diagnostic log of the form pipelines.
//
// Every diagnostic line goes to a Sink (a spreadsheet tab, a local workbook or
// a JSONL file). A sink that fails never interrupts the pipeline: the line is
// written to the process logger instead.
package diaglog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sink appends one (timestamp, message) row.
type Sink interface {
	Append(ctx context.Context, at time.Time, message string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, at time.Time, message string) error

func (f SinkFunc) Append(ctx context.Context, at time.Time, message string) error {
	return f(ctx, at, message)
}

// Logger writes diagnostics to a sink with a zap fallback. A nil *Logger
// discards everything.
type Logger struct {
	sink     Sink
	fallback *zap.Logger
	now      func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New builds a Logger. sink may be nil, in which case lines only reach the
// process logger.
func New(sink Sink, fallback *zap.Logger, opts ...Option) *Logger {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	l := &Logger{sink: sink, fallback: fallback, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log appends message. It never returns an error.
func (l *Logger) Log(ctx context.Context, message string) {
	if l == nil {
		return
	}
	if l.sink == nil {
		l.fallback.Info(message)
		return
	}
	l.fallback.Debug(message)
	if err := l.sink.Append(ctx, l.now(), message); err != nil {
		l.fallback.Warn("diagnostic sink failure", zap.Error(err), zap.String("message", message))
	}
}

// Logf formats and appends a message.
func (l *Logger) Logf(ctx context.Context, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(ctx, fmt.Sprintf(format, args...))
}

// Probe writes message and reports whether the sink accepted it. It is used by
// the self test; the pipelines use Log.
func (l *Logger) Probe(ctx context.Context, message string) error {
	if l == nil || l.sink == nil {
		return fmt.Errorf("no diagnostic sink configured")
	}
	return l.sink.Append(ctx, l.now(), message)
}

// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"moor.dev/moor/telemetry/semconv"
)

// WithTraceContext returns logger with trace_id and span_id attributes when
// ctx carries a valid OpenTelemetry span context. Otherwise logger is
// returned unchanged.
//
// In a handler, with the tracing recorder installed:
//
//	log := logging.WithTraceContext(c.Context(), c.Logger())
//	log.Info("invoice sent", "id", c.Param("id"))
func WithTraceContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		semconv.TraceID, sc.TraceID().String(),
		semconv.SpanID, sc.SpanID().String(),
	)
}

// ContextLogger logs with a fixed context and trace correlation.
// It is typically created per dispatch and used by one goroutine.
type ContextLogger struct {
	logger  *slog.Logger
	ctx     context.Context
	traceID string
	spanID  string
}

// NewContextLogger wraps logger for ctx. See [WithTraceContext].
func NewContextLogger(ctx context.Context, logger *slog.Logger) *ContextLogger {
	cl := &ContextLogger{logger: logger, ctx: ctx}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		cl.traceID = sc.TraceID().String()
		cl.spanID = sc.SpanID().String()
		cl.logger = logger.With(semconv.TraceID, cl.traceID, semconv.SpanID, cl.spanID)
	}
	return cl
}

// Logger returns the underlying [slog.Logger].
func (cl *ContextLogger) Logger() *slog.Logger { return cl.logger }

// TraceID returns the trace ID, or "" without a span.
func (cl *ContextLogger) TraceID() string { return cl.traceID }

// SpanID returns the span ID, or "" without a span.
func (cl *ContextLogger) SpanID() string { return cl.spanID }

// Debug logs a debug message with the context.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with the context.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with the context.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with the context.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

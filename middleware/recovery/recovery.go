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

// Package recovery turns panics in HTTP handlers into 500 responses.
//
// A recovered panic is logged with its stack, marked on the active span and
// answered through an error [moorerrors.Formatter]:
//
//	handler := recovery.New(recovery.WithLogger(logger))(r)
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	moorerrors "moor.dev/moor/errors"
)

// ErrPanic wraps every recovered panic value.
var ErrPanic = errors.New("panic recovered")

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	formatter  moorerrors.Formatter
	stackTrace bool
	stackSize  int
	handler    func(w http.ResponseWriter, r *http.Request, err error)
}

// WithLogger sets the logger receiving panic records. Default: slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithStackTrace controls whether the stack is logged. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize bounds the logged stack in bytes. Default: 4KB.
func WithStackSize(size int) Option {
	return func(cfg *config) {
		cfg.stackSize = size
	}
}

// WithFormatter sets the formatter of the 500 response.
// Default: RFC 9457 problem details.
func WithFormatter(formatter moorerrors.Formatter) Option {
	return func(cfg *config) {
		cfg.formatter = formatter
	}
}

// WithHandler replaces the response written after a panic. err wraps
// [ErrPanic].
func WithHandler(handler func(w http.ResponseWriter, r *http.Request, err error)) Option {
	return func(cfg *config) {
		cfg.handler = handler
	}
}

// New returns the middleware. http.ErrAbortHandler is re-panicked so the
// server aborts the connection as usual.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		logger:     slog.Default(),
		formatter:  moorerrors.NewRFC9457(""),
		stackTrace: true,
		stackSize:  4 << 10,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.handler == nil {
		cfg.handler = func(w http.ResponseWriter, r *http.Request, err error) {
			resp := cfg.formatter.Format(r, moorerrors.WithStatus(err, http.StatusInternalServerError))
			_ = moorerrors.Write(w, resp)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
					panic(v)
				}
				cfg.recovered(w, r, v)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func (cfg *config) recovered(w http.ResponseWriter, r *http.Request, v any) {
	err := fmt.Errorf("%w: %v", ErrPanic, v)
	if cause, ok := v.(error); ok {
		err = fmt.Errorf("%w: %w", ErrPanic, cause)
	}

	if span := trace.SpanFromContext(r.Context()); span.SpanContext().IsValid() {
		span.SetStatus(codes.Error, ErrPanic.Error())
		span.SetAttributes(
			attribute.Bool("exception.escaped", true),
			attribute.String("exception.type", fmt.Sprintf("%T", v)),
			attribute.String("exception.message", fmt.Sprint(v)),
		)
		span.RecordError(err)
	}

	if cfg.logger != nil {
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"panic", fmt.Sprint(v),
		}
		if cfg.stackTrace {
			stack := debug.Stack()
			if cfg.stackSize > 0 && len(stack) > cfg.stackSize {
				stack = stack[:cfg.stackSize]
			}
			attrs = append(attrs, "stack", string(stack))
		}
		cfg.logger.ErrorContext(r.Context(), "panic recovered", attrs...)
	}

	cfg.handler(w, r, err)
}

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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

// ParseHandlerType parses a handler name as used in route files and flags.
func ParseHandlerType(s string) (HandlerType, error) {
	switch t := HandlerType(strings.ToLower(strings.TrimSpace(s))); t {
	case JSONHandler, TextHandler, ConsoleHandler:
		return t, nil
	case "":
		return JSONHandler, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHandler, s)
}

// Level represents log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel parses "debug", "info", "warn" or "error", case-insensitively.
func ParseLevel(s string) (Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return l, nil
}

// SamplingConfig configures log sampling for high-volume records such as
// not-found diagnostics.
//
// The first Initial records are logged, then one in every Thereafter.
// The counter resets every Tick when Tick is positive. Errors are never
// sampled.
type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

// Logger builds and owns a configured [slog.Logger].
//
// Thread-safety: all methods are safe for concurrent use. The level is held
// in a [slog.LevelVar], so [Logger.SetLevel] takes effect without rebuilding
// the handler.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar

	// Added to every record when set.
	serviceName    string
	serviceVersion string
	environment    string
	attrs          []slog.Attr

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
	redact      map[string]bool
	sampling    *SamplingConfig

	customLogger *slog.Logger
	useCustom    bool

	registerGlobal bool

	slogger  *slog.Logger
	sampler  *sampler
	shutdown atomic.Bool
}

// Option is a functional option for configuring the logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stderr,
		redact:      make(map[string]bool, len(DefaultRedactKeys)),
	}
	for _, k := range DefaultRedactKeys {
		l.redact[k] = true
	}
	l.level.Set(LevelInfo)
	return l
}

// New creates a new Logger with the given options.
//
// The global slog default is left alone unless [WithGlobalLogger] is given.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}

	return l, nil
}

// MustNew creates a new Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

// Validate checks if the configuration is valid.
func (l *Logger) Validate() error {
	if l.useCustom {
		if l.customLogger == nil {
			return ErrNilLogger
		}
		return nil
	}
	if l.output == nil {
		return ErrNilOutput
	}
	switch l.handlerType {
	case JSONHandler, TextHandler, ConsoleHandler:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}
	if s := l.sampling; s != nil && (s.Initial < 0 || s.Thereafter < 0 || s.Tick < 0) {
		return ErrInvalidSampling
	}
	return nil
}

func (l *Logger) initialize() error {
	if l.useCustom {
		l.slogger = l.customLogger
	} else {
		opts := &slog.HandlerOptions{
			Level:       &l.level,
			AddSource:   l.addSource,
			ReplaceAttr: l.buildReplaceAttr(),
		}

		var handler slog.Handler
		switch l.handlerType {
		case JSONHandler:
			handler = slog.NewJSONHandler(l.output, opts)
		case TextHandler:
			handler = slog.NewTextHandler(l.output, opts)
		case ConsoleHandler:
			handler = newConsoleHandler(l.output, opts)
		}

		if l.sampling != nil {
			l.sampler = newSampler(*l.sampling)
			handler = &sampledHandler{next: handler, sampler: l.sampler}
		}
		l.slogger = slog.New(handler)

		var attrs []any
		if l.serviceName != "" {
			attrs = append(attrs, "service", l.serviceName)
		}
		if l.serviceVersion != "" {
			attrs = append(attrs, "version", l.serviceVersion)
		}
		if l.environment != "" {
			attrs = append(attrs, "env", l.environment)
		}
		for _, a := range l.attrs {
			attrs = append(attrs, a)
		}
		if len(attrs) > 0 {
			l.slogger = l.slogger.With(attrs...)
		}
	}

	if l.registerGlobal {
		slog.SetDefault(l.slogger)
	}
	return nil
}

// buildReplaceAttr redacts credential-like keys before the user replacer runs.
func (l *Logger) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if l.redact[strings.ToLower(a.Key)] {
			return slog.String(a.Key, "***REDACTED***")
		}
		if l.replaceAttr != nil {
			return l.replaceAttr(groups, a)
		}
		return a
	}
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger
}

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.slogger.With(args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l.shutdown.Load() {
		return
	}
	l.slogger.Log(context.Background(), level, msg, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// SetLevel changes the minimum log level at runtime.
// It returns [ErrCannotChangeLevel] for custom loggers.
func (l *Logger) SetLevel(level Level) error {
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)
	return nil
}

// Level returns the current minimum log level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// ServiceName returns the service name.
func (l *Logger) ServiceName() string { return l.serviceName }

// IsEnabled reports whether the logger accepts records.
func (l *Logger) IsEnabled() bool {
	return !l.shutdown.Load()
}

// Shutdown stops the logger. Later records are dropped.
func (l *Logger) Shutdown(context.Context) error {
	if !l.shutdown.CompareAndSwap(false, true) {
		return ErrLoggerShutdown
	}
	if l.sampler != nil {
		l.sampler.stop()
	}
	return nil
}

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
	"io"
	"log/slog"
	"strings"
)

// DefaultRedactKeys are attribute keys whose values never reach the output.
var DefaultRedactKeys = []string{"password", "token", "secret", "api_key", "authorization"}

// Output format.

// WithHandlerType selects the record format. JSON is the default.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithTextHandler writes logfmt style key=value records.
func WithTextHandler() Option { return WithHandlerType(TextHandler) }

// WithConsoleHandler writes colored records for terminals, e.g. while
// running moor serve locally.
func WithConsoleHandler() Option { return WithHandlerType(ConsoleHandler) }

// WithOutput sets where records are written. Default: os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// Verbosity.

// WithLevel drops records below level. It can be changed later with
// [Logger.SetLevel].
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithSource adds the file and line of the logging call.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithDebugMode turns on debug records with source locations, which is
// what tracing a dispatch that picks the wrong route needs. False leaves
// the configuration untouched.
func WithDebugMode(enabled bool) Option {
	return func(l *Logger) {
		if !enabled {
			return
		}
		l.addSource = true
		l.level.Set(LevelDebug)
	}
}

// WithSampling thins out high volume records. See [SamplingConfig].
func WithSampling(cfg SamplingConfig) Option {
	return func(l *Logger) { l.sampling = &cfg }
}

// Static attributes.

// WithServiceName sets the "service" attribute of every record.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion sets the "version" attribute of every record.
func WithServiceVersion(version string) Option {
	return func(l *Logger) { l.serviceVersion = version }
}

// WithEnvironment sets the "env" attribute of every record.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithAttrs adds attributes to every record, after the service attributes.
//
//	logging.WithAttrs(slog.String("routes_file", "routes.yaml"))
func WithAttrs(attrs ...slog.Attr) Option {
	return func(l *Logger) { l.attrs = append(l.attrs, attrs...) }
}

// Attribute rewriting.

// WithRedactKeys redacts the values of keys, compared case-insensitively,
// in addition to [DefaultRedactKeys].
func WithRedactKeys(keys ...string) Option {
	return func(l *Logger) {
		for _, k := range keys {
			l.redact[strings.ToLower(k)] = true
		}
	}
}

// WithReplaceAttr rewrites attributes after redaction. Returning an empty
// [slog.Attr] drops the attribute.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(l *Logger) { l.replaceAttr = fn }
}

// Integration.

// WithCustomLogger wraps an existing [slog.Logger]. Every option above is
// ignored, and [Logger.SetLevel] returns [ErrCannotChangeLevel].
func WithCustomLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.customLogger = logger
		l.useCustom = true
	}
}

// WithGlobalLogger installs the logger with [slog.SetDefault].
func WithGlobalLogger() Option {
	return func(l *Logger) { l.registerGlobal = true }
}

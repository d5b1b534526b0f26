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

package router

import (
	"log/slog"
	"strings"

	"moor.dev/moor/cache"
	moorerrors "moor.dev/moor/errors"
)

// Option defines functional options for router configuration.
type Option func(*Router)

// TrailingSlashPolicy controls how a trailing slash on the request path is
// treated before matching.
type TrailingSlashPolicy uint8

const (
	// TrailingSlashStrict matches the path as given.
	TrailingSlashStrict TrailingSlashPolicy = iota
	// TrailingSlashRemove strips one trailing slash, except on the root path.
	TrailingSlashRemove
	// TrailingSlashAdd appends a trailing slash when missing.
	TrailingSlashAdd
)

// String returns the policy name used in configuration files.
func (p TrailingSlashPolicy) String() string {
	switch p {
	case TrailingSlashStrict:
		return "strict"
	case TrailingSlashRemove:
		return "remove"
	case TrailingSlashAdd:
		return "add"
	}
	return "invalid"
}

// ParseTrailingSlash parses "strict", "remove" or "add". The empty string
// is strict.
func ParseTrailingSlash(s string) (TrailingSlashPolicy, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return TrailingSlashStrict, nil
	case "remove":
		return TrailingSlashRemove, nil
	case "add":
		return TrailingSlashAdd, nil
	}
	return 0, ErrInvalidTrailingSlash
}

func (p TrailingSlashPolicy) apply(path string) string {
	switch p {
	case TrailingSlashRemove:
		if len(path) > 1 && strings.HasSuffix(path, "/") {
			return path[:len(path)-1]
		}
	case TrailingSlashAdd:
		if !strings.HasSuffix(path, "/") {
			return path + "/"
		}
	}
	return path
}

// WithLogger sets the logger used for compile and dispatch events.
// The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDiagnostics sets a diagnostic handler for the router.
//
// Example:
//
//	r := router.MustNew(router.WithDiagnostics(logging.DiagnosticHandler(logger)))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithObservability sets the dispatch lifecycle recorder.
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.recorder = recorder
	}
}

// WithNotFound sets the handler run when no route dispatches a request.
// It runs exactly once per dispatch. The default writes a 404 problem when
// the dispatch came through ServeHTTP and does nothing otherwise.
func WithNotFound(h Handler) Option {
	return func(r *Router) {
		r.notFound = h
	}
}

// WithErrorHandler sets the handler receiving errors recorded with
// Context.Error. Without one, ServeHTTP logs the errors and writes a
// problem response when the handler wrote nothing.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// WithErrorFormatter sets the formatter for problem responses written by
// ServeHTTP. The default is an RFC 9457 formatter.
func WithErrorFormatter(f moorerrors.Formatter) Option {
	return func(r *Router) {
		if f != nil {
			r.formatter = f
		}
	}
}

// WithTrace enables trace messages on every dispatch context. They explain
// why each route was skipped and are included in the default not-found
// response.
func WithTrace(enabled bool) Option {
	return func(r *Router) {
		r.trace = enabled
	}
}

// WithTrailingSlash sets the trailing slash policy.
// Default: TrailingSlashStrict.
func WithTrailingSlash(policy TrailingSlashPolicy) Option {
	return func(r *Router) {
		r.trailingSlash = policy
	}
}

// WithDefaultParamPattern sets the sub-pattern of ":name" tokens declared
// without one. Default: [0-9A-Za-z_]+.
func WithDefaultParamPattern(pattern string) Option {
	return func(r *Router) {
		r.compilerOpts.DefaultParamPattern = pattern
	}
}

// WithCallbackParamPattern sets the sub-pattern of "@name" tokens declared
// without one. Default: [a-z_][0-9a-z_]*.
func WithCallbackParamPattern(pattern string) Option {
	return func(r *Router) {
		r.compilerOpts.CallbackParamPattern = pattern
	}
}

// WithPrefix sets the URL prefix applied to shorthand patterns registered
// afterwards. See Router.SetPrefix.
func WithPrefix(prefix string) Option {
	return func(r *Router) {
		r.prefix = prefix
	}
}

// WithCache stores compiled patterns in store under key, so later
// processes with the same route table skip compilation. The stored entry is
// validated against the table fingerprint before use.
func WithCache(store cache.Store, key string) Option {
	return func(r *Router) {
		r.cache = store
		r.cacheKey = key
	}
}

// WithResolver sets the fallback used for callbacks without a Bind entry.
func WithResolver(resolver Resolver) Option {
	return func(r *Router) {
		r.resolver = resolver
	}
}

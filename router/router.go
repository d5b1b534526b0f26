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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"

	"moor.dev/moor/cache"
	moorerrors "moor.dev/moor/errors"
	"moor.dev/moor/router/compiler"
	"moor.dev/moor/router/linker"
	"moor.dev/moor/router/route"
)

// noopLogger is the logger used when none is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the logger that discards everything.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// Router owns the route table, the callback handler table and the reverse
// router. Routes are registered during setup; the table is compiled and
// frozen by Compile or by the first dispatch.
//
// The Router is safe for concurrent use once compiled. Every dispatch gets
// its own Context.
//
// Example:
//
//	r := router.MustNew()
//	r.Map("/invoices/:id/send", `Billing\Invoice::send`)
//	r.BindFunc(`Billing\Invoice::send`, func(c *router.Context) {
//	    fmt.Fprintf(c.Response, "sending %s", c.Param("id"))
//	})
//	http.ListenAndServe(":8080", r)
type Router struct {
	table    *route.Table
	handlers handlerTable
	resolver Resolver

	mu       sync.Mutex // guards prefix and compilation
	prefix   string
	compiled atomic.Bool
	linker   atomic.Pointer[linker.Linker]

	logger        *slog.Logger
	diagnostics   DiagnosticHandler
	recorder      ObservabilityRecorder
	notFound      Handler
	errorHandler  ErrorHandler
	formatter     moorerrors.Formatter
	trace         bool
	trailingSlash TrailingSlashPolicy
	compilerOpts  compiler.Options

	cache    cache.Store
	cacheKey string
}

// New creates a router with the given options.
// It returns an error when the configuration is invalid.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		logger:    noopLogger,
		formatter: moorerrors.NewRFC9457(""),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}

	r.table = route.NewTable(r.compilerOpts)

	return r, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

// validate checks the router configuration for common errors.
// Routes are validated when compiled, not here.
func (r *Router) validate() error {
	if r.trailingSlash > TrailingSlashAdd {
		return fmt.Errorf("%w: %d", ErrInvalidTrailingSlash, r.trailingSlash)
	}
	for _, p := range []string{r.compilerOpts.DefaultParamPattern, r.compilerOpts.CallbackParamPattern} {
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidParamPattern, p, err)
		}
	}
	if r.cache != nil && r.cacheKey == "" {
		return ErrCacheKeyEmpty
	}

	return nil
}

// emit sends a diagnostic event when a handler is configured.
func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{
			Kind:    kind,
			Message: message,
			Fields:  fields,
		})
	}
}

// SetPrefix sets the URL prefix applied to shorthand patterns registered
// from now on. Raw expressions and patterns starting with "*" are not
// prefixed.
func (r *Router) SetPrefix(prefix string) {
	r.mu.Lock()
	r.prefix = prefix
	r.mu.Unlock()
}

// Prefix returns the current URL prefix.
func (r *Router) Prefix() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.prefix
}

// Register appends def to the route table, after applying the prefix.
// It returns a *route.ConfigError once the router is compiled.
func (r *Router) Register(def route.Definition) (route.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table.Frozen() {
		return 0, &route.ConfigError{Kind: route.KindFrozen, Route: def.Pattern, Err: route.ErrFrozen}
	}

	def.Pattern = route.JoinPrefix(r.prefix, def.Pattern)
	id := r.table.Add(def)

	r.emit(DiagRouteRegistered, "route registered", map[string]any{
		"id":      int(id),
		"pattern": def.Pattern,
		"target":  describeTarget(def.Target),
	})

	return id, nil
}

// Map registers pattern with a callback string or handler target.
// It panics when the router is already compiled.
func (r *Router) Map(pattern string, target route.Target, opts ...route.Option) route.ID {
	id, err := r.Register(route.NewDefinition(pattern, target, opts...))
	if err != nil {
		panic(err)
	}
	return id
}

// Handle registers pattern with a handler function.
func (r *Router) Handle(pattern string, h HandlerFunc, opts ...route.Option) route.ID {
	return r.Map(pattern, h, opts...)
}

// Group returns a route group registering on r under prefix.
func (r *Router) Group(prefix string, opts ...route.Option) *route.Group {
	return route.NewGroup(r, prefix, opts...)
}

// Bind binds a concrete callback string to a handler. Callback targets are
// resolved against these bindings at dispatch time. It panics when h is nil
// or the router is already compiled.
func (r *Router) Bind(callback string, h Handler) {
	if h == nil {
		panic(fmt.Errorf("%w: %q", ErrNilHandler, callback))
	}
	r.handlers.bind(callback, h)
}

// BindFunc binds a callback string to a handler function.
func (r *Router) BindFunc(callback string, f func(*Context)) {
	if f == nil {
		panic(fmt.Errorf("%w: %q", ErrNilHandler, callback))
	}
	r.Bind(callback, HandlerFunc(f))
}

// Compile compiles and freezes the route table. It collects every
// configuration error with errors.Join; each is a *route.ConfigError.
// It is safe to call more than once. The first dispatch calls it lazily.
func (r *Router) Compile() error {
	return r.ensureCompiled(context.Background())
}

// MustCompile is like Compile but panics on error.
func (r *Router) MustCompile() {
	if err := r.Compile(); err != nil {
		panic(err)
	}
}

func (r *Router) ensureCompiled(ctx context.Context) error {
	if r.compiled.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.compiled.Load() {
		return nil
	}

	if err := r.compileTable(ctx); err != nil {
		r.emit(DiagCompileFailed, "route table failed to compile", map[string]any{"error": err.Error()})
		r.logger.ErrorContext(ctx, "route table failed to compile", "error", err)
		return err
	}

	routes := r.table.Routes()
	var errs []error
	for _, rt := range routes {
		for _, e := range rt.Endpoints() {
			if e.IsCallback() {
				continue
			}
			if _, ok := asHandler(e.Handler); !ok {
				errs = append(errs, &route.ConfigError{
					Kind:  route.KindInvalidCallback,
					Route: rt.Definition.Pattern,
					Err:   fmt.Errorf("%w: %T", ErrNotHandler, e.Handler),
				})
			}
		}
		if n := len(rt.Pattern.ParamNames()); n > highParamCount {
			r.emit(DiagHighParamCount, "route declares many parameters", map[string]any{
				"pattern": rt.Definition.Pattern,
				"count":   n,
			})
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		r.emit(DiagCompileFailed, "route table failed to compile", map[string]any{"error": err.Error()})
		return err
	}

	r.table.Freeze()
	r.handlers.freeze()
	r.linker.Store(linker.New(r.table))
	r.compiled.Store(true)

	r.emit(DiagRoutesCompiled, "route table compiled", map[string]any{
		"routes":   len(routes),
		"bindings": r.handlers.len(),
	})
	r.logger.DebugContext(ctx, "route table compiled", "routes", len(routes))

	return nil
}

// compileTable compiles the table, going through the compile cache when one
// is configured. Cache failures are reported and never fail compilation.
func (r *Router) compileTable(ctx context.Context) error {
	if r.cache == nil {
		return r.table.Compile()
	}

	key := cacheKey(r.cacheKey, r.table.Fingerprint())
	data, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		r.emit(DiagCacheError, "compile cache read failed", map[string]any{"key": key, "error": err.Error()})
		r.logger.WarnContext(ctx, "compile cache read failed", "key", key, "error", err)
	case ok:
		if err := r.table.CompileFrom(data); err == nil {
			r.emit(DiagCacheHit, "route table loaded from compile cache", map[string]any{"key": key})
			return nil
		}
		r.emit(DiagCacheError, "compile cache entry rejected", map[string]any{"key": key})
	default:
		r.emit(DiagCacheMiss, "compile cache miss", map[string]any{"key": key})
	}

	if err := r.table.Compile(); err != nil {
		return err
	}

	data, err = r.table.Snapshot()
	if err == nil {
		err = r.cache.Set(ctx, key, data)
	}
	if err != nil {
		r.emit(DiagCacheError, "compile cache write failed", map[string]any{"key": key, "error": err.Error()})
		r.logger.WarnContext(ctx, "compile cache write failed", "key", key, "error", err)
	}

	return nil
}

// cacheKey derives the cache entry name from the configured key and the
// table fingerprint.
func cacheKey(key string, fingerprint uint64) string {
	return fmt.Sprintf("%s:%016x", key, fingerprint)
}

// Routes returns a summary of every compiled route in registration order.
// It compiles the table if needed.
func (r *Router) Routes() ([]route.Info, error) {
	if err := r.Compile(); err != nil {
		return nil, err
	}

	routes := r.table.Routes()
	infos := make([]route.Info, 0, len(routes))
	for _, rt := range routes {
		infos = append(infos, rt.Info())
	}

	return infos, nil
}

// LinkTo builds the URL of the best route for target. Parameters the path
// does not use are appended as a query string. Relative targets are only
// valid through Context.LinkTo.
func (r *Router) LinkTo(target string, params map[string]string) (string, error) {
	if err := r.Compile(); err != nil {
		return "", err
	}

	return r.linker.Load().Link(target, params)
}

// MustLinkTo is like LinkTo but panics when no link can be built.
func (r *Router) MustLinkTo(target string, params map[string]string) string {
	u, err := r.LinkTo(target, params)
	if err != nil {
		panic(err)
	}
	return u
}

// LinkToValues builds a URL binding values, in order, to the parameters of
// the best route that target does not already provide.
func (r *Router) LinkToValues(target string, values ...string) (string, error) {
	if err := r.Compile(); err != nil {
		return "", err
	}

	return r.linker.Load().LinkValues(target, values...)
}

// resolve turns the endpoint of a matched route into a handler.
func (r *Router) resolve(e route.Endpoint, params map[string]string) (Handler, string, error) {
	if !e.IsCallback() {
		h, ok := asHandler(e.Handler)
		if !ok {
			return nil, "", fmt.Errorf("%w: %T", ErrNotHandler, e.Handler)
		}
		return h, "", nil
	}

	cb, err := e.Descriptor.Resolve(params)
	if err != nil {
		return nil, "", err
	}
	if h, ok := r.handlers.lookup(cb); ok {
		return h, cb, nil
	}
	if r.resolver != nil {
		if h, ok := r.resolver.Resolve(cb); ok && h != nil {
			return h, cb, nil
		}
	}

	return nil, cb, fmt.Errorf("%w: %q", ErrUnbound, cb)
}

func describeTarget(t route.Target) string {
	if s, ok := t.(string); ok {
		return s
	}
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%T", t)
}

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
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync/atomic"

	"moor.dev/moor/router/callback"
	"moor.dev/moor/router/route"
)

// signal is the control signal a handler raised during its attempt.
type signal uint8

const (
	signalNone signal = iota
	signalContinue
	signalNotFound
)

// Context is the state of one dispatch: the request path, the parameter
// mapping, the route being attempted and the trace messages.
//
// ⚠️ THREAD SAFETY: Context is NOT thread-safe. It belongs to the goroutine
// running the dispatch. Copy values out of it before starting goroutines.
//
// A Context runs once. Running it again panics with ErrAlreadyRunning.
type Context struct {
	// Request and Response are set when the dispatch came through
	// ServeHTTP, and nil otherwise.
	Request  *http.Request
	Response http.ResponseWriter

	ctx    context.Context
	router *Router
	method string
	path   string

	base   map[string]string // parameters before routing
	params map[string]string // parameters of the current attempt

	route    *route.Route
	callback string
	signal   signal
	notFound Handler

	errs     []error
	trace    []string
	state    State
	attempts int

	ran      atomic.Bool
	recorder any // observability state token
}

// Context returns the context.Context of the dispatch.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.method
}

// Path returns the request path used for matching, query string removed and
// the trailing slash policy applied.
func (c *Context) Path() string {
	return c.path
}

// State returns the dispatch state.
func (c *Context) State() State {
	return c.state
}

// Param returns the value of the named parameter, or "".
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Lookup returns the value of the named parameter and whether it is set.
func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.params[name]
	return v, ok
}

// Params returns a copy of the parameter mapping.
func (c *Context) Params() map[string]string {
	return maps.Clone(c.params)
}

// Set sets a parameter for the current attempt. The value is discarded if
// the handler continues to the next route.
func (c *Context) Set(name, value string) {
	c.params[name] = value
}

// Route returns the route being dispatched, or nil outside of a route
// handler.
func (c *Context) Route() *route.Route {
	return c.route
}

// Callback returns the resolved callback string of the running handler, or
// "" for handler targets.
func (c *Context) Callback() string {
	return c.callback
}

// Continue passes the request to the next route. The handler should return
// right after calling it. Parameters are restored before the next attempt.
func (c *Context) Continue() {
	c.signal = signalContinue
}

// NotFound stops routing: no further route is tried and the not-found
// handler runs. The handler should return right after calling it.
func (c *Context) NotFound() {
	c.signal = signalNotFound
}

// NotFoundWith is like NotFound but runs h instead of the configured
// not-found handler for this dispatch.
func (c *Context) NotFoundWith(h Handler) {
	c.notFound = h
	c.signal = signalNotFound
}

// Error records an error. Errors are kept across Continue and delivered to
// the error handler when the dispatch ends.
func (c *Context) Error(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// Errors returns the recorded errors.
func (c *Context) Errors() []error {
	return slices.Clone(c.errs)
}

// Tracef records a trace message when tracing is enabled on the router.
func (c *Context) Tracef(format string, args ...any) {
	if c.router.trace {
		c.trace = append(c.trace, fmt.Sprintf(format, args...))
	}
}

// Trace returns the recorded trace messages.
func (c *Context) Trace() []string {
	return slices.Clone(c.trace)
}

// Logger returns the router logger with the request method and path.
func (c *Context) Logger() *slog.Logger {
	return c.router.logger.With("method", c.method, "path", c.path)
}

// LinkTo builds a URL like Router.LinkTo. A target starting with "*::" is
// resolved against the namespace and class of the running callback, and
// "*\" against its namespace.
func (c *Context) LinkTo(target string, params map[string]string) (string, error) {
	if callback.IsRelative(target) {
		resolved, err := callback.Relative(target, c.callback)
		if err != nil {
			return "", route.NoLinkError(target, slices.Sorted(maps.Keys(params)), err)
		}
		target = resolved
	}

	return c.router.LinkTo(target, params)
}

// rewrite replaces the request path and adds parameters that survive every
// later attempt.
func (c *Context) rewrite(path string, params map[string]string) {
	c.path = path
	maps.Copy(c.base, params)
	maps.Copy(c.params, params)
}

// restore resets the parameter mapping to its pre-routing snapshot.
func (c *Context) restore() {
	clear(c.params)
	maps.Copy(c.params, c.base)
}

// paramSink receives pattern captures for the running attempt.
type paramSink Context

func (p *paramSink) SetParam(_ int, key, value string) {
	p.params[key] = value
}

func (p *paramSink) SetParamCount(int32) {}

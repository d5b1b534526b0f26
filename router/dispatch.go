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
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"moor.dev/moor/router/route"
)

// State is the state of a dispatch.
type State uint8

const (
	StateIdle State = iota
	StateRouting
	StateDispatched
	StateNotFound
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRouting:
		return "routing"
	case StateDispatched:
		return "dispatched"
	case StateNotFound:
		return "not_found"
	}
	return "unknown"
}

// attemptResult drives the dispatch loop.
type attemptResult uint8

const (
	attemptSkip    attemptResult = iota // try the next route
	attemptMatched                      // dispatch is complete
	attemptAbort                        // stop routing, not found
)

// Request is the input of a dispatch.
type Request struct {
	Method string
	// Path is the request path. A query string is removed and its values
	// are added to Params.
	Path string
	// Params are the parameters known before routing, such as query
	// values. Pattern captures take precedence over them.
	Params map[string]string

	// HTTP and Writer are exposed as Context.Request and Context.Response.
	HTTP   *http.Request
	Writer http.ResponseWriter
}

// Result is the outcome of a dispatch.
type Result struct {
	State    State
	Route    *route.Route // nil when not found
	Callback string       // resolved callback of the dispatched route
	Params   map[string]string
	Errors   []error
	Trace    []string
	Attempts int // routes whose pattern matched
	// Panic is the recovered value when a handler panicked. Only
	// observability recorders see such a result; the panic continues
	// to the caller of Dispatch.
	Panic any
}

// Found reports whether a route dispatched the request.
func (r *Result) Found() bool {
	return r.State == StateDispatched
}

// Err joins the errors recorded by handlers.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Pattern returns the pattern of the dispatched route, or "_not_found".
// It is the low cardinality label used by metrics and spans.
func (r *Result) Pattern() string {
	if r.Route == nil {
		return "_not_found"
	}
	return r.Route.Pattern.Template()
}

// Dispatch routes req through the table and runs the winning handler, or
// the not-found handler. The table is compiled first if needed; its
// configuration errors are returned. Handler errors are in Result.Errors,
// and handler panics propagate.
func (r *Router) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	return r.NewContext(ctx, req).Run()
}

// NewContext creates the Context for one dispatch of req. Run it with Run.
func (r *Router) NewContext(ctx context.Context, req *Request) *Context {
	if ctx == nil {
		ctx = context.Background()
	}

	base := make(map[string]string, len(req.Params))
	path := req.Path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if q, err := url.ParseQuery(path[i+1:]); err == nil {
			for k, v := range q {
				if len(v) > 0 {
					base[k] = v[0]
				}
			}
		}
		path = path[:i]
	}
	maps.Copy(base, req.Params)
	if path == "" {
		path = "/"
	}

	return &Context{
		Request:  req.HTTP,
		Response: req.Writer,
		ctx:      ctx,
		router:   r,
		method:   strings.ToUpper(req.Method),
		path:     r.trailingSlash.apply(path),
		base:     base,
		params:   maps.Clone(base),
		state:    StateIdle,
	}
}

// Run dispatches the context: Idle -> Routing -> Dispatched or NotFound.
// It panics with ErrAlreadyRunning when called a second time.
func (c *Context) Run() (*Result, error) {
	if !c.ran.CompareAndSwap(false, true) {
		panic(ErrAlreadyRunning)
	}

	r := c.router
	if err := r.ensureCompiled(c.ctx); err != nil {
		return nil, err
	}

	req := &Request{Method: c.method, Path: c.path, Params: c.base, HTTP: c.Request, Writer: c.Response}
	if r.recorder != nil {
		c.ctx, c.recorder = r.recorder.OnDispatchStart(c.ctx, req)
		if c.recorder != nil {
			defer c.endPanicking()
		}
	}

	c.state = StateRouting
	outcome := attemptSkip
	for _, rt := range r.table.Routes() {
		outcome = c.attempt(rt)
		if outcome != attemptSkip {
			break
		}
	}

	if outcome == attemptMatched {
		c.state = StateDispatched
	} else {
		c.finishNotFound()
	}

	if len(c.errs) > 0 && r.errorHandler != nil {
		r.errorHandler.HandleError(c, errors.Join(c.errs...))
	}

	res := &Result{
		State:    c.state,
		Route:    c.route,
		Callback: c.callback,
		Params:   maps.Clone(c.params),
		Errors:   slices.Clone(c.errs),
		Trace:    slices.Clone(c.trace),
		Attempts: c.attempts,
	}
	if r.recorder != nil && c.recorder != nil {
		r.recorder.OnDispatchEnd(c.ctx, c.recorder, res)
	}

	return res, nil
}

// endPanicking reports a panicking dispatch to the recorder and panics
// again with the same value.
func (c *Context) endPanicking() {
	v := recover()
	if v == nil {
		return
	}

	var err error
	if e, ok := v.(error); ok {
		err = fmt.Errorf("%w: %w", ErrHandlerPanic, e)
	} else {
		err = fmt.Errorf("%w: %v", ErrHandlerPanic, v)
	}
	c.router.recorder.OnDispatchEnd(c.ctx, c.recorder, &Result{
		State:    c.state,
		Route:    c.route,
		Callback: c.callback,
		Params:   maps.Clone(c.params),
		Errors:   append(slices.Clone(c.errs), err),
		Trace:    slices.Clone(c.trace),
		Attempts: c.attempts,
		Panic:    v,
	})
	panic(v)
}

// attempt tries one route. Parameters are restored before the pattern is
// matched, so nothing from an earlier attempt is visible.
func (c *Context) attempt(rt *route.Route) attemptResult {
	c.restore()
	c.route, c.callback, c.signal = nil, "", signalNone

	if !rt.Pattern.MatchTo(c.path, (*paramSink)(c)) {
		c.Tracef("route %d %q: no match", rt.ID, rt.Definition.Pattern)
		return attemptSkip
	}
	c.attempts++

	outcome, cb, err := c.invoke(rt)
	if outcome != AttemptDispatched {
		c.route, c.callback = nil, ""
	}
	if c.router.recorder != nil && c.recorder != nil {
		c.router.recorder.OnAttempt(c.ctx, c.recorder, Attempt{
			RouteID:  rt.ID,
			Pattern:  rt.Definition.Pattern,
			Callback: cb,
			Outcome:  outcome,
			Err:      err,
		})
	}

	return outcome.result()
}

func (c *Context) invoke(rt *route.Route) (AttemptOutcome, string, error) {
	e, ok := rt.Target(c.method)
	if !ok {
		c.Tracef("route %d %q: no target for %s", rt.ID, rt.Definition.Pattern, c.method)
		return AttemptNoTarget, "", nil
	}

	maps.Copy(c.params, rt.Definition.Overrides)

	h, cb, err := c.router.resolve(e, c.params)
	if err != nil {
		c.Tracef("route %d %q: %v", rt.ID, rt.Definition.Pattern, err)
		c.router.emit(DiagTargetSkipped, "route target skipped", map[string]any{
			"pattern": rt.Definition.Pattern,
			"error":   err.Error(),
		})
		return AttemptUnresolved, cb, err
	}

	c.route, c.callback = rt, cb
	h.Invoke(c)

	switch c.signal {
	case signalContinue:
		c.Tracef("route %d %q: continued", rt.ID, rt.Definition.Pattern)
		return AttemptContinued, cb, nil
	case signalNotFound:
		c.Tracef("route %d %q: not found", rt.ID, rt.Definition.Pattern)
		return AttemptAborted, cb, nil
	}

	return AttemptDispatched, cb, nil
}

// finishNotFound runs the not-found handler once, with the pre-routing
// parameters. Signals it raises are ignored.
func (c *Context) finishNotFound() {
	c.state = StateNotFound
	c.restore()
	c.route, c.callback = nil, ""

	r := c.router
	r.emit(DiagNotFound, "no route dispatched the request", map[string]any{
		"method":   c.method,
		"path":     c.path,
		"attempts": c.attempts,
	})
	r.logger.DebugContext(c.ctx, "route not found", "method", c.method, "path", c.path)

	h := c.notFound
	if h == nil {
		h = r.notFound
	}
	if h == nil {
		h = HandlerFunc(defaultNotFound)
	}
	c.signal = signalNone
	h.Invoke(c)
}

// defaultNotFound writes a 404 problem when there is a response to write to.
func defaultNotFound(c *Context) {
	if c.Response == nil || c.Request == nil {
		return
	}
	c.router.writeError(c.Response, c.Request, &NotFoundError{
		Method: c.method,
		Path:   c.path,
		Trace:  c.trace,
	})
}

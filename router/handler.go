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
	"fmt"
	"net/http"
	"sync"

	"moor.dev/moor/router/route"
)

// Handler is the target of a route.
type Handler interface {
	Invoke(c *Context)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c *Context)

// Invoke calls f(c).
func (f HandlerFunc) Invoke(c *Context) {
	f(c)
}

// ErrorHandler receives the errors recorded with Context.Error once a
// dispatch finished.
type ErrorHandler interface {
	HandleError(c *Context, err error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(c *Context, err error)

// HandleError calls f(c, err).
func (f ErrorHandlerFunc) HandleError(c *Context, err error) {
	f(c, err)
}

// Resolver finds handlers for callbacks that have no Bind entry.
// It backs wildcard callbacks such as "*::*" where the set of concrete
// callbacks is open ended.
type Resolver interface {
	Resolve(callback string) (Handler, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(callback string) (Handler, bool)

// Resolve calls f(callback).
func (f ResolverFunc) Resolve(callback string) (Handler, bool) {
	return f(callback)
}

// httpHandler runs a net/http handler as a route target.
// Route parameters are exposed through Request.PathValue.
type httpHandler struct {
	h http.Handler
}

func (h httpHandler) Invoke(c *Context) {
	if c.Request == nil || c.Response == nil {
		c.Error(fmt.Errorf("%w: %T", ErrNoHTTP, h.h))
		return
	}
	for k, v := range c.params {
		c.Request.SetPathValue(k, v)
	}
	h.h.ServeHTTP(c.Response, c.Request)
}

// asHandler converts a route target value to a Handler.
func asHandler(v any) (Handler, bool) {
	switch h := v.(type) {
	case Handler:
		return h, true
	case func(*Context):
		return HandlerFunc(h), true
	case http.Handler:
		return httpHandler{h}, true
	case func(http.ResponseWriter, *http.Request):
		return httpHandler{http.HandlerFunc(h)}, true
	}

	return nil, false
}

// handlerTable maps concrete callback strings to handlers.
type handlerTable struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	frozen   bool
}

func (t *handlerTable) bind(callback string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		panic(&route.ConfigError{Kind: route.KindFrozen, Route: callback, Err: route.ErrFrozen})
	}
	if t.handlers == nil {
		t.handlers = make(map[string]Handler)
	}
	t.handlers[callback] = h
}

func (t *handlerTable) lookup(callback string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.handlers[callback]
	return h, ok
}

func (t *handlerTable) freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

func (t *handlerTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.handlers)
}

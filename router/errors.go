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
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAlreadyRunning indicates that a Context was run twice.
	ErrAlreadyRunning = errors.New("dispatch context already ran")

	// ErrNotFound indicates that no route dispatched the request.
	ErrNotFound = errors.New("no route matched")

	// ErrNotHandler indicates that a route target is neither a callback nor a handler.
	ErrNotHandler = errors.New("target is not a handler")

	// ErrUnbound indicates that no handler is bound to a resolved callback.
	ErrUnbound = errors.New("no handler bound to callback")

	// ErrNilHandler indicates that a nil handler was bound.
	ErrNilHandler = errors.New("handler is nil")

	// ErrNoHTTP indicates that an http.Handler target ran outside of ServeHTTP.
	ErrNoHTTP = errors.New("http handler dispatched without a request")

	// ErrInvalidTrailingSlash indicates an unknown trailing slash policy.
	ErrInvalidTrailingSlash = errors.New("invalid trailing slash policy")

	// ErrInvalidParamPattern indicates that a default parameter pattern does not compile.
	ErrInvalidParamPattern = errors.New("invalid default parameter pattern")

	// ErrHandlerPanic wraps the value of a handler panic in Result.Errors.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrCacheKeyEmpty indicates that a compile cache was configured without a key.
	ErrCacheKeyEmpty = errors.New("compile cache requires a key")
)

// NotFoundError describes a request no route dispatched.
// It implements the errors package interfaces so formatters render a 404
// problem carrying the recorded trace messages.
type NotFoundError struct {
	Method string
	Path   string
	Trace  []string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("moor: no route for %s %s", e.Method, e.Path)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// HTTPStatus returns 404.
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// Code returns the machine readable error code.
func (e *NotFoundError) Code() string {
	return "moor.not_found"
}

// Extensions exposes the trace messages, when any were recorded.
func (e *NotFoundError) Extensions() map[string]any {
	if len(e.Trace) == 0 {
		return nil
	}

	return map[string]any{"trace": e.Trace}
}

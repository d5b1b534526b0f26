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

package errors

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// Formatter defines how errors are formatted in HTTP responses.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://moor.dev/problems")
//	_ = errors.Write(w, formatter.Format(req, err))
type Formatter interface {
	// Format converts an error into HTTP response components.
	// req may be nil when the error did not come from an HTTP request.
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, marshaled to JSON by Write.
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// The router's configuration errors report 500 and its not-found error
// reports 404.
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
//
// Example:
//
//	func (e *ConfigError) Code() string {
//		return "moor.param_mismatch"
//	}
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// ErrorExtensions allows errors to add top level members to the response
// body, such as the trace messages of a failed dispatch. Members that clash
// with the fields of a format are dropped.
type ErrorExtensions interface {
	error
	// Extensions returns the extra members, or nil.
	Extensions() map[string]any
}

// WithStatus wraps an error with an explicit HTTP status code.
// The wrapped error implements ErrorType interface.
// If err is nil, the status text for the given status code is used as the error message.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// statusError wraps an error with an explicit status code.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// Write writes resp to w: headers, status line and the JSON encoded body.
func Write(w http.ResponseWriter, resp Response) error {
	body, err := json.Marshal(resp.Body)
	if err != nil {
		return err
	}

	h := w.Header()
	for k, vs := range resp.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if resp.ContentType != "" {
		h.Set("Content-Type", resp.ContentType)
	}
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)
	_, err = w.Write(body)

	return err
}

// statusOf returns the status declared by err, resolver first, or 500.
func statusOf(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// extensionsOf returns the extension members of err, or nil.
func extensionsOf(err error) map[string]any {
	var ext ErrorExtensions
	if errors.As(err, &ext) {
		return ext.Extensions()
	}
	return nil
}

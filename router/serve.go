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
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"net"
	"net/http"

	moorerrors "moor.dev/moor/errors"
)

// ErrNotHijackable is returned by Hijack when the server's writer cannot
// hand over the connection, e.g. under HTTP/2.
var ErrNotHijackable = errors.New("response writer cannot be hijacked")

// dispatchWriter is the writer handlers see under ServeHTTP. It remembers
// the final status and the body size for observability recorders, and
// drops a second final WriteHeader so a handler that continues after
// writing cannot corrupt the response.
type dispatchWriter struct {
	http.ResponseWriter
	status int // final status, 0 until one is sent
	bytes  int64
}

func (dw *dispatchWriter) WriteHeader(code int) {
	if dw.status != 0 {
		return
	}
	dw.ResponseWriter.WriteHeader(code)
	// 1xx responses may precede the final one.
	if code >= 200 || code < 100 {
		dw.status = code
	}
}

func (dw *dispatchWriter) Write(b []byte) (int, error) {
	if dw.status == 0 {
		dw.status = http.StatusOK
	}
	n, err := dw.ResponseWriter.Write(b)
	dw.bytes += int64(n)
	return n, err
}

// StatusCode returns the status sent, or 200 when nothing was sent yet.
func (dw *dispatchWriter) StatusCode() int {
	return cmp.Or(dw.status, http.StatusOK)
}

// Size returns the number of body bytes written.
func (dw *dispatchWriter) Size() int64 { return dw.bytes }

// Written reports whether a final status was sent.
func (dw *dispatchWriter) Written() bool { return dw.status != 0 }

// Unwrap lets http.ResponseController reach the server's writer.
func (dw *dispatchWriter) Unwrap() http.ResponseWriter { return dw.ResponseWriter }

// Flush implements http.Flusher for handlers that type-assert it.
func (dw *dispatchWriter) Flush() {
	_ = http.NewResponseController(dw.ResponseWriter).Flush()
}

// Hijack implements http.Hijacker for handlers that type-assert it.
func (dw *dispatchWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, brw, err := http.NewResponseController(dw.ResponseWriter).Hijack()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotHijackable, err)
	}
	return conn, brw, nil
}

var (
	_ ResponseInfo  = (*dispatchWriter)(nil)
	_ http.Flusher  = (*dispatchWriter)(nil)
	_ http.Hijacker = (*dispatchWriter)(nil)
)

// ServeHTTP implements http.Handler.
//
// The path is taken from URL.Path and the first value of every query
// parameter is available as a route parameter, below pattern captures.
// Configuration errors and unhandled handler errors produce a problem
// response through the error formatter.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rw := &dispatchWriter{ResponseWriter: w}

	query := req.URL.Query()
	params := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	res, err := r.Dispatch(req.Context(), &Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Params: params,
		HTTP:   req,
		Writer: rw,
	})
	if err != nil {
		r.writeError(rw, req, err)
		return
	}

	if len(res.Errors) > 0 && r.errorHandler == nil {
		err := res.Err()
		r.logger.ErrorContext(req.Context(), "handler error",
			"method", req.Method,
			"path", req.URL.Path,
			"route", res.Pattern(),
			"error", err,
		)
		if !rw.Written() {
			r.writeError(rw, req, err)
		}
	}
}

// writeError formats err with the router formatter and writes it.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	if werr := moorerrors.Write(w, r.formatter.Format(req, err)); werr != nil {
		r.logger.WarnContext(req.Context(), "failed to write error response", "error", werr)
	}
}

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

// Package requestid tags every HTTP request with a unique ID, taken from
// the client's X-Request-ID header when allowed or generated otherwise.
//
// The ID is echoed in the response header and stored in the request
// context, where [FromContext] and [FromRequest] find it:
//
//	handler := requestid.New()(r)
//	r.BindFunc("Invoices::show", func(c *router.Context) {
//	    log.Info("showing invoice", "request_id", requestid.FromRequest(c.Request))
//	})
package requestid

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DefaultHeader carries the request ID.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength bounds IDs accepted from clients.
const maxClientIDLength = 128

type contextKey struct{}

// Option configures the middleware.
type Option func(*config)

type config struct {
	header        string
	generator     func() string
	allowClientID bool
}

// WithHeader replaces [DefaultHeader].
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.header = name
	}
}

// WithULID generates 26 character ULIDs instead of UUID v7.
func WithULID() Option {
	return func(cfg *config) {
		cfg.generator = newULID
	}
}

// WithGenerator sets the ID generator.
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		cfg.generator = generator
	}
}

// WithAllowClientID controls whether IDs sent by clients are kept.
// Default: true.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}

// newUUIDv7 returns a time-ordered UUID (RFC 9562).
func newUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newULID returns a ULID, monotonic within a millisecond.
func newULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns the middleware. The ID is set on the request header too, so
// handlers reading headers see the same value.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		header:        DefaultHeader,
		generator:     newUUIDv7,
		allowClientID: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.allowClientID {
				id = r.Header.Get(cfg.header)
				if len(id) > maxClientIDLength {
					id = ""
				}
			}
			if id == "" {
				id = cfg.generator()
			}

			w.Header().Set(cfg.header, id)
			r.Header.Set(cfg.header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
		})
	}
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromRequest returns the request ID of r, or "" for a nil request.
func FromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	return FromContext(r.Context())
}

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

package config

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moor.dev/moor/cache"
	"moor.dev/moor/config/codec"
	"moor.dev/moor/logging"
	"moor.dev/moor/metrics"
	"moor.dev/moor/router"
	"moor.dev/moor/router/route"
	"moor.dev/moor/tracing"
)

const routesYAML = `
prefix: /api
trailing_slash: remove
cache_key: billing
routes:
  - pattern: /invoices/:id
    callback: Invoices::show
    name: invoice
  - pattern: /invoices
    methods:
      GET: Invoices::index
      POST: Invoices::create
  - pattern: /legacy/:id
    callback: Invoices::show
    overrides:
      legacy: "1"
logging:
  level: debug
  format: text
  access: true
  slow_threshold: 250ms
tracing:
  enabled: true
  sample_rate: 0
redis:
  addr: localhost:6379
  ttl: 1h
`

const routesTOML = `
prefix = "/api"
trailing_slash = "remove"
cache_key = "billing"

[[routes]]
pattern = "/invoices/:id"
callback = "Invoices::show"
name = "invoice"

[[routes]]
pattern = "/invoices"
methods = { GET = "Invoices::index", POST = "Invoices::create" }

[[routes]]
pattern = "/legacy/:id"
callback = "Invoices::show"
overrides = { legacy = "1" }

[logging]
level = "debug"
format = "text"
access = true
slow_threshold = "250ms"

[tracing]
enabled = true
sample_rate = 0.0

[redis]
addr = "localhost:6379"
ttl = "1h"
`

const routesJSON = `{
  "prefix": "/api",
  "trailing_slash": "remove",
  "cache_key": "billing",
  "routes": [
    {"pattern": "/invoices/:id", "callback": "Invoices::show", "name": "invoice"},
    {"pattern": "/invoices", "methods": {"GET": "Invoices::index", "POST": "Invoices::create"}},
    {"pattern": "/legacy/:id", "callback": "Invoices::show", "overrides": {"legacy": "1"}}
  ],
  "logging": {"level": "debug", "format": "text", "access": true, "slow_threshold": "250ms"},
  "tracing": {"enabled": true, "sample_rate": 0},
  "redis": {"addr": "localhost:6379", "ttl": "1h"}
}`

func TestLoadRouterFile_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		format  codec.Type
	}{
		{name: "yaml", content: routesYAML, format: codec.TypeYAML},
		{name: "toml", content: routesTOML, format: codec.TypeTOML},
		{name: "json", content: routesJSON, format: codec.TypeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := LoadRouterFile(context.Background(), WithContent([]byte(tt.content), tt.format))
			require.NoError(t, err)

			assert.Equal(t, "/api", f.Prefix)
			assert.Equal(t, "remove", f.TrailingSlash)
			assert.Equal(t, "billing", f.CacheKey)
			require.Len(t, f.Routes, 3)
			assert.Equal(t, RouteSpec{Pattern: "/invoices/:id", Callback: "Invoices::show", Name: "invoice"}, f.Routes[0])
			assert.Equal(t, map[string]string{"GET": "Invoices::index", "POST": "Invoices::create"}, f.Routes[1].Methods)
			assert.Equal(t, map[string]string{"legacy": "1"}, f.Routes[2].Overrides)

			assert.Equal(t, LoggingSection{
				Level:         "debug",
				Format:        "text",
				Access:        true,
				SlowThreshold: 250 * time.Millisecond,
			}, f.Logging)

			assert.True(t, f.Tracing.Enabled)
			assert.Equal(t, "noop", f.Tracing.Provider)
			require.NotNil(t, f.Tracing.SampleRate)
			assert.Zero(t, *f.Tracing.SampleRate)

			assert.Equal(t, "prometheus", f.Metrics.Provider)
			assert.Equal(t, "/metrics", f.Metrics.Path)

			assert.Equal(t, RedisSection{Addr: "localhost:6379", Prefix: "moor:", TTL: time.Hour}, f.Redis)
		})
	}
}

func TestLoadRouterFile_Defaults(t *testing.T) {
	t.Parallel()

	f, err := LoadRouterFile(context.Background(), WithContent([]byte("{}"), codec.TypeJSON))
	require.NoError(t, err)

	assert.Equal(t, "strict", f.TrailingSlash)
	assert.Equal(t, "info", f.Logging.Level)
	assert.Equal(t, "json", f.Logging.Format)
	assert.Nil(t, f.Tracing.SampleRate)
	assert.Empty(t, f.Routes)
}

func TestLoadRouterFile_SchemaRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "prefixes: /api\n"},
		{name: "bad trailing slash", content: "trailing_slash: sometimes\n"},
		{name: "route without pattern", content: "routes:\n  - callback: A::b\n"},
		{name: "route without target", content: "routes:\n  - pattern: /a\n"},
		{name: "empty methods", content: "routes:\n  - pattern: /a\n    methods: {}\n"},
		{name: "bad log level", content: "logging:\n  level: loud\n"},
		{name: "sample rate above one", content: "tracing:\n  sample_rate: 2\n"},
		{name: "relative metrics path", content: "metrics:\n  path: metrics\n"},
		{name: "negative redis db", content: "redis:\n  db: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadRouterFile(context.Background(), WithContent([]byte(tt.content), codec.TypeYAML))
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "json-schema", cfgErr.Source)
		})
	}
}

func TestRouterFile_Validate(t *testing.T) {
	t.Parallel()

	f := &RouterFile{
		TrailingSlash: "sometimes",
		Logging:       LoggingSection{Level: "loud", Format: "xml"},
		Routes:        []RouteSpec{{Pattern: "/a"}},
	}
	err := f.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, router.ErrInvalidTrailingSlash)
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
	assert.ErrorIs(t, err, logging.ErrInvalidHandler)
	assert.Contains(t, err.Error(), `routes[0] "/a"`)

	ok := &RouterFile{TrailingSlash: "add", Logging: LoggingSection{Level: "warn", Format: "console"}}
	assert.NoError(t, ok.Validate())
}

func TestRouterFile_ValidateTags(t *testing.T) {
	t.Parallel()

	valid := func() *RouterFile {
		return &RouterFile{
			TrailingSlash: "strict",
			Logging:       LoggingSection{Level: "info", Format: "json"},
			Routes:        []RouteSpec{{Pattern: "/invoices/:id", Callback: "Invoices::show"}},
		}
	}
	require.NoError(t, valid().Validate())

	rate := 1.5
	tests := []struct {
		name   string
		modify func(f *RouterFile)
		want   string
	}{
		{name: "empty pattern", modify: func(f *RouterFile) { f.Routes = append(f.Routes, RouteSpec{Callback: "A::b"}) }, want: "routes[1].pattern: invalid field: fails required"},
		{name: "relative prefix", modify: func(f *RouterFile) { f.Prefix = "api" }, want: "prefix: invalid field: fails startswith=/"},
		{name: "empty method target", modify: func(f *RouterFile) { f.Routes[0].Methods = map[string]string{"GET": ""} }, want: "routes[0].methods[GET]"},
		{name: "redis addr", modify: func(f *RouterFile) { f.Redis.Addr = "nowhere" }, want: "redis.addr: invalid field: fails hostname_port"},
		{name: "sample rate", modify: func(f *RouterFile) { f.Tracing.SampleRate = &rate }, want: "tracing.sample_rate: invalid field: fails lte=1"},
		{name: "metrics path", modify: func(f *RouterFile) { f.Metrics.Path = "metrics" }, want: "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := valid()
			tt.modify(f)
			err := f.Validate()
			require.ErrorIs(t, err, ErrInvalidField)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	f := TestRouterFile(t, "routes.yaml", routesYAML)
	opts, err := Options(f, nil)
	require.NoError(t, err)

	r := router.MustNew(opts...)
	require.NoError(t, Apply(f, r))

	var calls []string
	for _, cb := range []string{"Invoices::show", "Invoices::index", "Invoices::create"} {
		r.BindFunc(cb, func(c *router.Context) {
			calls = append(calls, c.Callback()+" id="+c.Param("id")+" legacy="+c.Param("legacy"))
		})
	}

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{method: http.MethodGet, path: "/api/invoices/7", want: "Invoices::show id=7 legacy="},
		{method: http.MethodGet, path: "/api/invoices/7/", want: "Invoices::show id=7 legacy="},
		{method: http.MethodGet, path: "/api/invoices", want: "Invoices::index id= legacy="},
		{method: http.MethodPost, path: "/api/invoices", want: "Invoices::create id= legacy="},
		{method: http.MethodGet, path: "/api/legacy/9", want: "Invoices::show id=9 legacy=1"},
	}
	for _, tt := range tests {
		calls = nil
		res, err := r.Dispatch(context.Background(), &router.Request{Method: tt.method, Path: tt.path})
		require.NoError(t, err)
		require.True(t, res.Found(), "%s %s", tt.method, tt.path)
		assert.Equal(t, []string{tt.want}, calls, "%s %s", tt.method, tt.path)
	}

	res, err := r.Dispatch(context.Background(), &router.Request{Method: http.MethodDelete, Path: "/api/invoices"})
	require.NoError(t, err)
	assert.False(t, res.Found())

	link, err := r.LinkTo("invoice", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/api/invoices/42", link)
}

func TestApply_ReportsEveryFailure(t *testing.T) {
	t.Parallel()

	f := &RouterFile{Routes: []RouteSpec{
		{Pattern: "/one", Callback: "A::one"},
		{Pattern: "/two", Methods: map[string]string{"GET": "A::two"}},
	}}

	r := router.MustNew()
	r.MustCompile()

	err := Apply(f, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, route.ErrFrozen)
	assert.Contains(t, err.Error(), `routes[0] "/one"`)
	assert.Contains(t, err.Error(), `routes[1] "/two"`)
}

func TestApply_MissingTargetFailsCompile(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	require.NoError(t, Apply(&RouterFile{Routes: []RouteSpec{{Pattern: "/a"}}}, r))
	assert.ErrorIs(t, r.Compile(), route.ErrNoTarget)
}

func TestOptions_Cache(t *testing.T) {
	t.Parallel()

	f := TestRouterFile(t, "routes.json", routesJSON)
	store := cache.NewMemory()

	opts, err := Options(f, store)
	require.NoError(t, err)

	r := router.MustNew(opts...)
	require.NoError(t, Apply(f, r))
	require.NoError(t, r.Compile())
	assert.Equal(t, 1, store.Len())

	f.CacheKey = ""
	opts, err = Options(f, store)
	require.NoError(t, err)
	r = router.MustNew(opts...)
	require.NoError(t, Apply(f, r))
	require.NoError(t, r.Compile())
	assert.Equal(t, 1, store.Len(), "no cache key, no cache")
}

func TestOptions_InvalidTrailingSlash(t *testing.T) {
	t.Parallel()

	_, err := Options(&RouterFile{TrailingSlash: "sometimes"}, nil)
	assert.ErrorIs(t, err, router.ErrInvalidTrailingSlash)
}

func TestLoggingSection_Options(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := LoggingSection{Level: "warn", Format: "json", Service: "billing", SlowThreshold: time.Second, Redact: []string{"IBAN"}}

	opts, err := s.Options(&buf)
	require.NoError(t, err)

	l := logging.MustNew(opts...)
	l.Info("dropped")
	l.Warn("kept", "iban", "DE89370400440532013000")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"service":"billing"`)
	assert.Contains(t, buf.String(), `"iban":"***REDACTED***"`)
	assert.Len(t, s.AccessOptions(), 1)
	assert.Empty(t, LoggingSection{}.AccessOptions())

	_, err = LoggingSection{Level: "loud"}.Options(&buf)
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
	_, err = LoggingSection{Level: "info", Format: "xml"}.Options(&buf)
	assert.ErrorIs(t, err, logging.ErrInvalidHandler)
}

func TestMetricsSection_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		section  MetricsSection
		provider metrics.Provider
		wantErr  bool
	}{
		{name: "prometheus", section: MetricsSection{Provider: "prometheus", Path: "/metrics"}, provider: metrics.PrometheusProvider},
		{name: "default", section: MetricsSection{Path: "/metrics"}, provider: metrics.PrometheusProvider},
		{name: "stdout", section: MetricsSection{Provider: "stdout", ExcludePaths: []string{"/healthz"}}, provider: metrics.StdoutProvider},
		{name: "unknown", section: MetricsSection{Provider: "statsd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			opts, err := tt.section.Options(&buf)
			if tt.wantErr {
				assert.ErrorIs(t, err, metrics.ErrInvalidProvider)
				return
			}
			require.NoError(t, err)

			rec, err := metrics.New(opts...)
			require.NoError(t, err)
			t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })
			assert.Equal(t, tt.provider, rec.Provider())
		})
	}
}

func TestTracingSection_Options(t *testing.T) {
	t.Parallel()

	half := 0.5
	tests := []struct {
		name     string
		section  TracingSection
		provider tracing.Provider
		wantErr  bool
	}{
		{name: "default", section: TracingSection{}, provider: tracing.NoopProvider},
		{name: "stdout", section: TracingSection{Provider: "stdout", SampleRate: &half}, provider: tracing.StdoutProvider},
		{name: "otlp", section: TracingSection{Provider: "otlp", Endpoint: "localhost:4317", Insecure: true}, provider: tracing.OTLPProvider},
		{name: "otlp http", section: TracingSection{Provider: "otlp-http", Endpoint: "localhost:4318"}, provider: tracing.OTLPHTTPProvider},
		{name: "unknown", section: TracingSection{Provider: "zipkin"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			opts, err := tt.section.Options(&buf)
			if tt.wantErr {
				assert.ErrorIs(t, err, tracing.ErrInvalidProvider)
				return
			}
			require.NoError(t, err)

			tr, err := tracing.New(opts...)
			require.NoError(t, err)
			t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
			assert.Equal(t, tt.provider, tr.Provider())
		})
	}
}

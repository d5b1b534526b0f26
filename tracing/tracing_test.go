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

package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	tr, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	assert.Equal(t, NoopProvider, tr.Provider())
	assert.Equal(t, DefaultServiceName, tr.ServiceName())
	assert.Equal(t, DefaultServiceVersion, tr.ServiceVersion())

	_, span := tr.StartSpan(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	tr.FinishSpan(span, nil)
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
		substr  string
	}{
		{name: "sample rate above one", opts: []Option{WithSampleRate(1.5)}, wantErr: ErrInvalidSampleRate},
		{name: "negative sample rate", opts: []Option{WithSampleRate(-0.1)}, wantErr: ErrInvalidSampleRate},
		{name: "conflicting providers", opts: []Option{WithNoop(), WithStdout(nil)}, substr: "conflicting provider options"},
		{name: "empty service name", opts: []Option{WithServiceName("")}, substr: "service name"},
		{name: "bad exclusion pattern", opts: []Option{WithExcludePatterns("(")}, substr: "invalid path exclusion pattern"},
		{name: "nil custom provider", opts: []Option{WithTracerProvider(nil)}, wantErr: ErrNilProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.opts...)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustNew(WithSampleRate(2)) })
}

func TestStdoutProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := MustNew(WithStdout(&buf), WithServiceName("billing"))

	_, span := tr.StartSpan(context.Background(), "invoice.render")
	tr.FinishSpan(span, errors.New("template missing"))
	require.NoError(t, tr.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "invoice.render")
	assert.Contains(t, out, "template missing")
	assert.Contains(t, out, "billing")
}

func TestOTLPProviders_StartLazily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opt      Option
		provider Provider
	}{
		{name: "grpc", opt: WithOTLP("localhost:4317", true), provider: OTLPProvider},
		{name: "http", opt: WithOTLPHTTP("http://localhost:4318/v1/traces"), provider: OTLPHTTPProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := MustNew(tt.opt)
			assert.Equal(t, tt.provider, tr.Provider())

			_, span := tr.StartSpan(context.Background(), "before-start")
			assert.False(t, span.SpanContext().IsValid())

			require.NoError(t, tr.Start(context.Background()))
			require.NoError(t, tr.Start(context.Background()))
			require.NoError(t, tr.Shutdown(context.Background()))
		})
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()

	tr := MustNew()
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Start(context.Background()))
}

func TestCustomProvider_NotShutDown(t *testing.T) {
	t.Parallel()

	tr, spans := TestingTracer(t)
	assert.Equal(t, Provider(""), tr.Provider())
	require.NoError(t, tr.Shutdown(context.Background()))

	_, span := tr.StartSpan(context.Background(), "after-shutdown")
	span.End()
	assert.Len(t, spans.Ended(), 1)
}

func TestShouldSample(t *testing.T) {
	t.Parallel()

	tr := MustNew(WithSampleRate(0.5))

	var sampled int
	for range 10000 {
		if tr.shouldSample() {
			sampled++
		}
	}
	assert.InDelta(t, 5000, sampled, 500)
}

func TestPropagation(t *testing.T) {
	t.Parallel()

	tr, _ := TestingTracer(t)
	ctx, span := tr.StartSpan(context.Background(), "outbound")
	defer span.End()

	headers := http.Header{}
	tr.InjectTraceContext(ctx, headers)
	require.NotEmpty(t, headers.Get("traceparent"))

	remote := trace.SpanContextFromContext(tr.ExtractTraceContext(context.Background(), headers))
	assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())
	assert.True(t, remote.IsRemote())
}

func TestParseOTLPEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		endpoint string
		host     string
		insecure bool
	}{
		{"http://collector:4318/v1/traces", "collector:4318", true},
		{"https://collector:4318", "collector:4318", false},
		{"collector:4318", "collector:4318", false},
	}

	for _, tt := range tests {
		host, insecure := parseOTLPEndpoint(tt.endpoint)
		assert.Equal(t, tt.host, host, tt.endpoint)
		assert.Equal(t, tt.insecure, insecure, tt.endpoint)
	}
}

func TestEventHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tr := MustNew(WithLogger(logger), WithServiceName("billing"))
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	assert.Contains(t, buf.String(), "tracing initialized")
	assert.Contains(t, buf.String(), "service=billing")
}

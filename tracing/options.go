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
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithTracerProvider creates spans on a caller-owned tracer provider.
// Provider options are ignored and [Tracer.Shutdown] leaves it running.
//
//	sr := tracetest.NewSpanRecorder()
//	tr := tracing.MustNew(tracing.WithTracerProvider(
//	    sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)),
//	))
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the tracer provider as the global
// OpenTelemetry tracer provider.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate traces the given fraction of dispatches, from 0.0 to 1.0.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = rate }
}

// WithPropagator replaces the W3C trace context and baggage propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) { t.propagator = p }
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) { t.eventHandler = handler }
}

// WithLogger logs internal operational events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithSpanStartHook calls hook after every dispatch span starts, with the
// HTTP request when the dispatch came through ServeHTTP.
func WithSpanStartHook(hook SpanStartHook) Option {
	return func(t *Tracer) { t.spanStartHook = hook }
}

// WithExcludePaths gives no span to dispatches of the exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for _, p := range paths {
			t.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes gives no span to dispatches of paths with the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) { t.excludePrefixes = append(t.excludePrefixes, prefixes...) }
}

// WithExcludePatterns gives no span to dispatches of paths matching the
// regular expressions. An invalid expression makes [New] fail.
func WithExcludePatterns(patterns ...string) Option {
	return func(t *Tracer) {
		for _, pattern := range patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				t.validationErrors = append(t.validationErrors,
					fmt.Errorf("invalid path exclusion pattern %q: %w", pattern, err))
				continue
			}
			t.excludePatterns = append(t.excludePatterns, re)
		}
	}
}

// WithoutParams keeps route parameters off dispatch spans.
func WithoutParams() Option {
	return func(t *Tracer) { t.recordParams = false }
}

// WithNoop records spans without exporting them.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithStdout prints spans to w, or to standard output when w is nil.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
		t.stdoutWriter = w
	}
}

// WithOTLP exports over OTLP gRPC to endpoint, a host:port. The exporter
// connects in [Tracer.Start].
func WithOTLP(endpoint string, insecure bool) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.providerSetCount++
		t.otlpEndpoint = endpoint
		t.otlpInsecure = insecure
	}
}

// WithOTLPHTTP exports over OTLP HTTP to endpoint. An http:// endpoint is
// insecure. The exporter connects in [Tracer.Start].
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.providerSetCount++
		t.otlpEndpoint = endpoint
	}
}

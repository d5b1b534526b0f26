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
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// initializeProvider builds the tracer provider for the configured exporter.
func (t *Tracer) initializeProvider(ctx context.Context) error {
	if t.customTracerProvider {
		if t.tracerProvider == nil {
			return ErrNilProvider
		}
		t.emitDebug("using custom tracer provider")
		t.tracer = t.tracerProvider.Tracer(tracerName)
		if t.registerGlobal {
			otel.SetTracerProvider(t.tracerProvider)
		}
		return nil
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion))}

	switch t.provider {
	case NoopProvider:
	case StdoutProvider:
		exporterOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if t.stdoutWriter != nil {
			exporterOpts = append(exporterOpts, stdouttrace.WithWriter(t.stdoutWriter))
		}
		exporter, err := stdouttrace.New(exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSyncer(exporter))
	case OTLPProvider:
		grpcOpts := []otlptracegrpc.Option{}
		if t.otlpEndpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case OTLPHTTPProvider:
		httpOpts := []otlptracehttp.Option{}
		if t.otlpEndpoint != "" {
			host, insecure := parseOTLPEndpoint(t.otlpEndpoint)
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(host))
			if insecure || t.otlpInsecure {
				httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
			}
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProvider, t.provider)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	t.sdkProvider = tp
	t.tracerProvider = tp
	t.tracer = tp.Tracer(tracerName)

	if t.registerGlobal {
		t.emitDebug("setting global tracer provider", "provider", t.provider)
		otel.SetTracerProvider(tp)
	}
	t.emitInfo("tracing initialized", "provider", t.provider, "service", t.serviceName)

	return nil
}

// parseOTLPEndpoint strips the scheme and path from endpoint. Plain http
// endpoints are insecure.
func parseOTLPEndpoint(endpoint string) (host string, insecure bool) {
	host = endpoint
	if trimmed, ok := strings.CutPrefix(host, "http://"); ok {
		host, insecure = trimmed, true
	} else if trimmed, ok := strings.CutPrefix(host, "https://"); ok {
		host = trimmed
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host, insecure
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}

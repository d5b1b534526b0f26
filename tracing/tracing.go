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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	// tracerName is the instrumentation scope of every span.
	tracerName = "moor.dev/moor/tracing"

	// DefaultServiceName is used when no service name is given.
	DefaultServiceName = "moor"

	// DefaultServiceVersion is used when no service version is given.
	DefaultServiceVersion = "unknown"

	// DefaultSampleRate traces every dispatch.
	DefaultSampleRate = 1.0
)

// samplingMultiplier is 2^64 divided by the golden ratio. Multiplying the
// dispatch counter by it spreads consecutive values uniformly over uint64.
const samplingMultiplier uint64 = 0x9E3779B97F4A7C15

// Sentinel errors.
var (
	ErrInvalidProvider   = errors.New("unsupported tracing provider")
	ErrInvalidSampleRate = errors.New("sample rate must be between 0.0 and 1.0")
	ErrNilProvider       = errors.New("custom tracer provider is nil")
)

// EventType is the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as an exporter failure.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler logging to logger.
// A nil logger discards events.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider names a span exporter.
type Provider string

const (
	// NoopProvider records spans without exporting them (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans, for development.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// SpanStartHook is called after a dispatch span starts.
type SpanStartHook func(ctx context.Context, span trace.Span, req *http.Request)

// Tracer creates dispatch spans. It implements router.ObservabilityRecorder
// and is safe for concurrent use.
//
// The global OpenTelemetry tracer provider is left alone unless
// [WithGlobalTracerProvider] is given.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler
	spanStartHook  SpanStartHook

	serviceName    string
	serviceVersion string

	provider             Provider
	providerSetCount     int
	otlpEndpoint         string
	otlpInsecure         bool
	stdoutWriter         io.Writer
	customTracerProvider bool
	registerGlobal       bool

	sampleRate        float64
	samplingThreshold uint64
	sampleCounter     atomic.Uint64

	excludePaths    map[string]bool
	excludePrefixes []string
	excludePatterns []*regexp.Regexp
	recordParams    bool

	validationErrors []error

	isStarted      atomic.Bool
	isShuttingDown atomic.Bool
}

// New creates a [Tracer]. OTLP providers connect in [Tracer.Start]; every
// other provider is ready when New returns.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		provider:       NoopProvider,
		sampleRate:     DefaultSampleRate,
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		excludePaths:   make(map[string]bool),
		recordParams:   true,
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if t.customTracerProvider || (t.provider != OTLPProvider && t.provider != OTLPHTTPProvider) {
		if err := t.initializeProvider(context.Background()); err != nil {
			return nil, err
		}
		t.isStarted.Store(true)
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize tracing: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if len(t.validationErrors) > 0 {
		return errors.Join(t.validationErrors...)
	}
	if t.providerSetCount > 1 {
		return errors.New("conflicting provider options: only one of WithNoop, WithStdout, WithOTLP or WithOTLPHTTP can be used")
	}
	if t.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("%w, got %f", ErrInvalidSampleRate, t.sampleRate)
	}
	if t.sampleRate < 1 {
		t.samplingThreshold = uint64(t.sampleRate * float64(^uint64(0)))
	}

	switch t.provider {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProvider, t.provider)
	}
	return nil
}

// Start connects OTLP exporters. It is a no-op for other providers and
// when called again.
func (t *Tracer) Start(ctx context.Context) error {
	if t.isStarted.Load() || t.isShuttingDown.Load() {
		return nil
	}
	if err := t.initializeProvider(ctx); err != nil {
		return err
	}
	t.isStarted.Store(true)
	return nil
}

// Shutdown flushes and stops a tracer provider built by New or Start.
// Custom providers are left to their owner. Calling Shutdown again is a
// no-op.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if t.sdkProvider == nil {
		return nil
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		t.emitError("tracer provider shutdown failed", "error", err)
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	return nil
}

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ServiceVersion returns the service version.
func (t *Tracer) ServiceVersion() string { return t.serviceVersion }

// Provider returns the configured provider, or "" for a custom provider.
func (t *Tracer) Provider() Provider {
	if t.customTracerProvider {
		return ""
	}
	return t.provider
}

// ShouldExcludePath reports whether dispatches of path get no span.
func (t *Tracer) ShouldExcludePath(path string) bool {
	if t.excludePaths[path] {
		return true
	}
	for _, prefix := range t.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, re := range t.excludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// shouldSample applies the sample rate.
func (t *Tracer) shouldSample() bool {
	switch {
	case t.sampleRate >= 1:
		return true
	case t.sampleRate == 0:
		return false
	}
	n := t.sampleCounter.Add(1)
	return n*samplingMultiplier <= t.samplingThreshold
}

// StartSpan starts a child span of whatever span ctx carries. Handlers use
// it to trace work done while dispatching.
//
//	ctx, span := tr.StartSpan(c.Context(), "invoice.render")
//	defer tr.FinishSpan(span, nil)
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name, opts...)
}

// FinishSpan ends span, marking it failed when err is not nil.
func (t *Tracer) FinishSpan(span trace.Span, err error) {
	if span == nil || !span.IsRecording() {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ExtractTraceContext returns ctx with the remote span context found in
// headers, if any.
func (t *Tracer) ExtractTraceContext(ctx context.Context, headers http.Header) context.Context {
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// InjectTraceContext writes the span context of ctx into headers.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

func (t *Tracer) emit(et EventType, msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: et, Message: msg, Args: args})
	}
}

func (t *Tracer) emitError(msg string, args ...any) { t.emit(EventError, msg, args...) }
func (t *Tracer) emitInfo(msg string, args ...any)  { t.emit(EventInfo, msg, args...) }
func (t *Tracer) emitDebug(msg string, args ...any) { t.emit(EventDebug, msg, args...) }

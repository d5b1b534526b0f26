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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"moor.dev/moor/telemetry/semconv"
)

// meterName is the instrumentation scope of every instrument.
const meterName = "moor.dev/moor/metrics"

// Default histogram buckets.
var (
	// DefaultDurationBuckets are boundaries for dispatch duration in seconds.
	DefaultDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

	// DefaultAttemptBuckets are boundaries for the number of routes whose
	// pattern matched during one dispatch.
	DefaultAttemptBuckets = []float64{1, 2, 3, 5, 8, 13, 21}
)

// Sentinel errors.
var (
	ErrNotPrometheus   = errors.New("handler only available with the Prometheus provider")
	ErrInvalidProvider = errors.New("unsupported metrics provider")
	ErrNilProvider     = errors.New("custom meter provider is nil")
	ErrMetricsLimit    = errors.New("custom metrics limit reached")
	ErrMetricName      = errors.New("invalid metric name")
)

// EventType is the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as a failed export.
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

// Provider names a metrics backend.
type Provider string

const (
	// PrometheusProvider exposes metrics through a private Prometheus registry (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics periodically, for development.
	StdoutProvider Provider = "stdout"
)

// Recorder records dispatch metrics. It implements router.ObservabilityRecorder
// and is safe for concurrent use.
//
// The global OpenTelemetry meter provider is left alone unless
// [WithGlobalMeterProvider] is given.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	dispatchDuration metric.Float64Histogram
	dispatchCount    metric.Int64Counter
	activeDispatches metric.Int64UpDownCounter
	dispatchAttempts metric.Int64Histogram
	routeAttempts    metric.Int64Counter
	handlerErrors    metric.Int64Counter

	customMu         sync.RWMutex
	customCounters   map[string]metric.Int64Counter
	customHistograms map[string]metric.Float64Histogram
	maxCustomMetrics int

	durationBuckets []float64
	attemptBuckets  []float64
	pathFilter      *pathFilter

	validationErrors []error

	serviceName    string
	serviceVersion string
	serviceAttrs   []attribute.KeyValue

	provider            Provider
	providerSetCount    int
	otlpEndpoint        string
	exportInterval      time.Duration
	stdoutWriter        io.Writer
	metricsAddr         string
	metricsPath         string
	customMeterProvider bool
	registerGlobal      bool

	serverMu       sync.Mutex
	server         *http.Server
	isStarted      atomic.Bool
	isShuttingDown atomic.Bool
}

// New creates a [Recorder] with the given options.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:      "moor",
		serviceVersion:   "unknown",
		provider:         PrometheusProvider,
		exportInterval:   30 * time.Second,
		metricsPath:      "/metrics",
		maxCustomMetrics: 100,
		durationBuckets:  DefaultDurationBuckets,
		attemptBuckets:   DefaultAttemptBuckets,
		customCounters:   make(map[string]metric.Int64Counter),
		customHistograms: make(map[string]metric.Float64Histogram),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r.serviceAttrs = []attribute.KeyValue{
		attribute.String(semconv.ServiceName, r.serviceName),
		attribute.String(semconv.ServiceVersion, r.serviceVersion),
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return errors.Join(r.validationErrors...)
	}
	if r.providerSetCount > 1 {
		return errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP or WithStdout can be used")
	}
	if r.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if r.maxCustomMetrics < 0 {
		return fmt.Errorf("maxCustomMetrics must not be negative, got %d", r.maxCustomMetrics)
	}
	if r.exportInterval < time.Second {
		r.emitWarning("export interval is very low", "interval", r.exportInterval)
	}

	switch r.provider {
	case PrometheusProvider:
		if r.metricsPath == "" {
			return errors.New("metrics path cannot be empty for the Prometheus provider")
		}
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, using default", "default", defaultOTLPEndpoint)
			r.otlpEndpoint = defaultOTLPEndpoint
		}
	case StdoutProvider:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidProvider, r.provider)
	}

	return nil
}

// initializeInstruments creates the dispatch instruments on r.meter.
func (r *Recorder) initializeInstruments() error {
	var err error

	if r.dispatchDuration, err = r.meter.Float64Histogram(
		"moor.dispatch.duration",
		metric.WithDescription("Time spent dispatching a request through the route table"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("dispatch duration histogram: %w", err)
	}

	if r.dispatchCount, err = r.meter.Int64Counter(
		"moor.dispatch.count",
		metric.WithDescription("Dispatches by route pattern and final state"),
	); err != nil {
		return fmt.Errorf("dispatch counter: %w", err)
	}

	if r.activeDispatches, err = r.meter.Int64UpDownCounter(
		"moor.dispatch.active",
		metric.WithDescription("Dispatches in progress"),
	); err != nil {
		return fmt.Errorf("active dispatches counter: %w", err)
	}

	if r.dispatchAttempts, err = r.meter.Int64Histogram(
		"moor.dispatch.attempts",
		metric.WithDescription("Routes whose pattern matched during one dispatch"),
		metric.WithExplicitBucketBoundaries(r.attemptBuckets...),
	); err != nil {
		return fmt.Errorf("dispatch attempts histogram: %w", err)
	}

	if r.routeAttempts, err = r.meter.Int64Counter(
		"moor.route.attempts",
		metric.WithDescription("Route attempts by pattern and outcome"),
	); err != nil {
		return fmt.Errorf("route attempts counter: %w", err)
	}

	if r.handlerErrors, err = r.meter.Int64Counter(
		"moor.dispatch.errors",
		metric.WithDescription("Dispatches whose handlers recorded errors"),
	); err != nil {
		return fmt.Errorf("handler errors counter: %w", err)
	}

	return nil
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNotPrometheus, r.provider)
	}
	return r.prometheusHandler, nil
}

// Provider returns the configured provider, or "" for a custom meter provider.
func (r *Recorder) Provider() Provider {
	if r.customMeterProvider {
		return ""
	}
	return r.provider
}

// Path returns the scrape path of the Prometheus provider.
func (r *Recorder) Path() string {
	if r.Provider() != PrometheusProvider {
		return ""
	}
	return r.metricsPath
}

// ServiceName returns the service name.
func (r *Recorder) ServiceName() string { return r.serviceName }

// Shutdown stops the metrics server and flushes and shuts down the meter
// provider. Custom meter providers are left to their owner. Calling
// Shutdown again is a no-op.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := r.stopServer(ctx); err != nil {
		errs = append(errs, err)
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok && !r.customMeterProvider {
		if err := mp.ForceFlush(ctx); err != nil {
			r.emitWarning("metrics flush failed", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ForceFlush exports pending metrics for push providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}
	return nil
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: t, Message: msg, Args: args})
	}
}

func (r *Recorder) emitError(msg string, args ...any)   { r.emit(EventError, msg, args...) }
func (r *Recorder) emitWarning(msg string, args ...any) { r.emit(EventWarning, msg, args...) }
func (r *Recorder) emitInfo(msg string, args ...any)    { r.emit(EventInfo, msg, args...) }
func (r *Recorder) emitDebug(msg string, args ...any)   { r.emit(EventDebug, msg, args...) }

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
	"net"
	"net/http"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const defaultOTLPEndpoint = "http://localhost:4318"

// initializeProvider builds the meter provider and the instruments.
func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		if r.meterProvider == nil {
			return ErrNilProvider
		}
		r.emitDebug("using custom meter provider")
	} else {
		var (
			reader sdkmetric.Reader
			err    error
		)
		switch r.provider {
		case PrometheusProvider:
			reader, err = r.prometheusReader()
		case OTLPProvider:
			reader, err = r.otlpReader()
		case StdoutProvider:
			reader, err = r.stdoutReader()
		default:
			err = fmt.Errorf("%w: %s", ErrInvalidProvider, r.provider)
		}
		if err != nil {
			return err
		}

		r.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		if r.registerGlobal {
			r.emitDebug("setting global meter provider", "provider", r.provider)
			otel.SetMeterProvider(r.meterProvider)
		}
	}

	r.meter = r.meterProvider.Meter(meterName)
	return r.initializeInstruments()
}

// prometheusReader registers an exporter on a private registry so several
// recorders can coexist in one process.
func (r *Recorder) prometheusReader() (sdkmetric.Reader, error) {
	r.prometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
	return exporter, nil
}

func (r *Recorder) otlpReader() (sdkmetric.Reader, error) {
	host, insecure := parseOTLPEndpoint(r.otlpEndpoint)

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}

func (r *Recorder) stdoutReader() (sdkmetric.Reader, error) {
	var opts []stdoutmetric.Option
	if r.stdoutWriter != nil {
		opts = append(opts, stdoutmetric.WithWriter(r.stdoutWriter))
	}

	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}

// parseOTLPEndpoint strips the scheme and path from endpoint. Plain http
// endpoints are insecure.
func parseOTLPEndpoint(endpoint string) (host string, insecure bool) {
	host = endpoint
	switch {
	case strings.HasPrefix(host, "http://"):
		host, insecure = strings.TrimPrefix(host, "http://"), true
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host, insecure
}

// Start serves the Prometheus scrape endpoint on the address given to
// [WithPrometheus]. It returns once the listener is bound; the server stops
// when ctx is cancelled or on [Recorder.Shutdown]. Start is a no-op without
// an address and when called again.
func (r *Recorder) Start(ctx context.Context) error {
	if r.prometheusHandler == nil || r.metricsAddr == "" {
		return nil
	}
	if r.isShuttingDown.Load() || !r.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", r.metricsAddr)
	if err != nil {
		r.isStarted.Store(false)
		return fmt.Errorf("metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	r.serverMu.Lock()
	r.server = server
	r.metricsAddr = ln.Addr().String()
	r.serverMu.Unlock()

	r.emitInfo("metrics server starting", "address", ln.Addr().String(), "path", r.metricsPath)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.emitError("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = r.stopServer(shutdownCtx)
	}()

	return nil
}

// ServerAddress returns the bound address of the metrics server, or the
// configured address before [Recorder.Start].
func (r *Recorder) ServerAddress() string {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()
	return r.metricsAddr
}

func (r *Recorder) stopServer(ctx context.Context) error {
	r.serverMu.Lock()
	server := r.server
	r.server = nil
	r.serverMu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		r.emitError("error shutting down metrics server", "error", err)
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

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
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

const maxMetricNameLength = 255

// reservedPrefixes are kept for the dispatch instruments and Prometheus.
var reservedPrefixes = []string{"__", "moor.", "moor_"}

func validateMetricName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrMetricName)
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrMetricName, len(name), maxMetricNameLength)
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a letter and contain only letters, digits, '_', '.' or '-'", ErrMetricName, name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("%w: %q uses reserved prefix %q", ErrMetricName, name, prefix)
		}
	}
	return nil
}

// IncrementCounter adds one to the custom counter name, creating it on
// first use. Handlers use it for application metrics:
//
//	_ = rec.IncrementCounter(c.Context(), "invoices.sent", attribute.String("channel", "mail"))
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error {
	return r.AddCounter(ctx, name, 1, attrs...)
}

// AddCounter adds value to the custom counter name.
func (r *Recorder) AddCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) error {
	c, err := getOrCreate(r, r.customCounters, name, func() (metric.Int64Counter, error) {
		return r.meter.Int64Counter(name, metric.WithDescription("Custom counter metric"))
	})
	if err != nil {
		r.emitWarning("custom counter rejected", "name", name, "error", err)
		return err
	}
	c.Add(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// RecordHistogram records value on the custom histogram name.
func (r *Recorder) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) error {
	h, err := getOrCreate(r, r.customHistograms, name, func() (metric.Float64Histogram, error) {
		return r.meter.Float64Histogram(name, metric.WithDescription("Custom histogram metric"))
	})
	if err != nil {
		r.emitWarning("custom histogram rejected", "name", name, "error", err)
		return err
	}
	h.Record(ctx, value, metric.WithAttributes(attrs...))
	return nil
}

// CustomMetricCount returns the number of custom instruments created.
func (r *Recorder) CustomMetricCount() int {
	r.customMu.RLock()
	defer r.customMu.RUnlock()
	return len(r.customCounters) + len(r.customHistograms)
}

// getOrCreate returns the instrument called name from m, creating it with
// create while the custom metrics limit allows.
func getOrCreate[T any](r *Recorder, m map[string]T, name string, create func() (T, error)) (T, error) {
	r.customMu.RLock()
	inst, ok := m[name]
	r.customMu.RUnlock()
	if ok {
		return inst, nil
	}

	var zero T
	if err := validateMetricName(name); err != nil {
		return zero, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	if inst, ok := m[name]; ok {
		return inst, nil
	}
	if n := len(r.customCounters) + len(r.customHistograms); n >= r.maxCustomMetrics {
		return zero, fmt.Errorf("%w: %q (limit %d)", ErrMetricsLimit, name, r.maxCustomMetrics)
	}

	inst, err := create()
	if err != nil {
		return zero, err
	}
	m[name] = inst
	return inst, nil
}

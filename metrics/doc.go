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

// Package metrics records moor dispatch metrics with OpenTelemetry.
//
// A [Recorder] implements router.ObservabilityRecorder:
//
//	rec := metrics.MustNew(
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithServiceName("billing"),
//	    metrics.WithExcludePaths("/healthz"),
//	)
//	if err := rec.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(rec))
//
// # Instruments
//
//	moor.dispatch.duration  histogram, seconds, by method, route, state and status
//	moor.dispatch.count     counter, same attributes
//	moor.dispatch.active    up-down counter
//	moor.dispatch.attempts  histogram of routes whose pattern matched, by route
//	moor.dispatch.errors    counter of handler errors, by route
//	moor.route.attempts     counter by route pattern and attempt outcome
//
// The route attribute is the dispatched pattern, or "_not_found". Request
// paths never become attributes.
//
// # Providers
//
// Prometheus (default) exports through a private registry, served by
// [Recorder.Handler] or by [Recorder.Start]. OTLP pushes to an HTTP
// collector and stdout prints periodically. [WithMeterProvider] records on
// a caller-owned provider instead; [TestingRecorder] uses it with a manual
// reader.
//
// # Custom Metrics
//
// Handlers may record application counters and histograms with
// [Recorder.IncrementCounter] and [Recorder.RecordHistogram]. Names under
// "moor." are reserved.
package metrics

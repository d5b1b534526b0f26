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

// Package tracing traces router dispatches with OpenTelemetry.
//
// A [Tracer] implements router.ObservabilityRecorder. Every dispatch gets a
// server span named "METHOD pattern" once a route dispatches, or
// "moor.dispatch" when none does. Each route whose pattern matched adds a
// "route.attempt" event with its outcome.
//
//	tr, err := tracing.New(
//	    tracing.WithServiceName("billing"),
//	    tracing.WithOTLP("collector:4317", true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObservability(tr))
//
// # Providers
//
//   - [NoopProvider] (default) records spans without exporting them
//   - [StdoutProvider] prints spans, for development
//   - [OTLPProvider] and [OTLPHTTPProvider] export to a collector and
//     connect in [Tracer.Start]
//
// [WithTracerProvider] uses a caller-owned provider instead.
//
// # Propagation
//
// Dispatches that come through ServeHTTP continue the remote trace found in
// the W3C traceparent header. Handlers start child spans from the dispatch
// context with [Tracer.StartSpan].
//
// # Global State
//
// The global OpenTelemetry tracer provider is only set with
// [WithGlobalTracerProvider], so several tracers can coexist in a process.
package tracing

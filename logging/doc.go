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

// Package logging builds [slog] loggers for moor routers and connects
// router diagnostics to them.
//
// # Basic Usage
//
//	log := logging.MustNew(logging.WithConsoleHandler())
//	defer log.Shutdown(context.Background())
//	log.Info("routes loaded", "count", 12)
//
// Handlers are JSON (default), text, or a colored console format for
// terminals. Service name, version and environment are attached to every
// record when set. Keys such as "password" and "token" are redacted.
//
// # Router Integration
//
//	log := logging.MustNew(logging.WithServiceName("billing"))
//	r := router.MustNew(
//	    router.WithLogger(log.Logger()),
//	    router.WithDiagnostics(logging.DiagnosticHandler(log.Logger())),
//	)
//
// Diagnostics are mapped to levels by kind: compile failures are errors,
// cache failures and routes with many parameters are warnings, a compiled
// table is info, and everything else is debug.
//
// # Trace Correlation
//
// [WithTraceContext] adds trace_id and span_id when the context carries an
// OpenTelemetry span, such as the dispatch span started by the tracing
// package.
//
// # Sampling
//
//	log := logging.MustNew(logging.WithSampling(logging.SamplingConfig{
//	    Initial:    100,
//	    Thereafter: 100,
//	    Tick:       time.Minute,
//	}))
//
// Errors are never sampled.
package logging

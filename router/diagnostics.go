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

package router

// DiagnosticEvent is an informational router event.
//
// Diagnostics are optional: the router behaves the same whether they are
// collected or not. They give visibility into configuration and routing
// decisions without enabling trace messages on every request.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// Configuration diagnostics
	DiagRouteRegistered DiagnosticKind = "route_registered"
	DiagRoutesCompiled  DiagnosticKind = "routes_compiled"
	DiagCompileFailed   DiagnosticKind = "routes_compile_failed"
	DiagHighParamCount  DiagnosticKind = "route_param_count_high"

	// Compile cache diagnostics
	DiagCacheHit   DiagnosticKind = "compile_cache_hit"
	DiagCacheMiss  DiagnosticKind = "compile_cache_miss"
	DiagCacheError DiagnosticKind = "compile_cache_error"

	// Dispatch diagnostics
	DiagTargetSkipped DiagnosticKind = "target_skipped"
	DiagNotFound      DiagnosticKind = "route_not_found"
)

// highParamCount is the parameter count above which DiagHighParamCount fires.
const highParamCount = 8

// DiagnosticHandler receives diagnostic events from the router.
// Implementations may log, emit metrics, trace events, or ignore them.
//
// Example with logging:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Info(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
//
// The logging package provides a ready made handler.
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

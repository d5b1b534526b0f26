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

package semconv

// Service metadata, set once per process.
const (
	// ServiceName identifies the service that produced the telemetry.
	ServiceName = "service.name"

	// ServiceVersion is the version of that service.
	ServiceVersion = "service.version"
)

// HTTP attributes, following the OpenTelemetry semantic conventions.
const (
	// HTTPRequestMethod is the request method, e.g. "GET".
	HTTPRequestMethod = "http.request.method"

	// HTTPRoute is the template of the dispatched route, e.g.
	// "/invoices/:id", or "_not_found".
	HTTPRoute = "http.route"

	// HTTPResponseStatusCode is the status written by the handler.
	HTTPResponseStatusCode = "http.response.status_code"

	// URLPath is the dispatched path, without the query string.
	URLPath = "url.path"
)

// Dispatch attributes.
const (
	// RoutePattern is the template of the dispatched route, used as a low
	// cardinality metric label.
	RoutePattern = "moor.route"

	// RouteID is the position of a route in the table.
	RouteID = "moor.route.id"

	// RouteName is the name given to a route at registration.
	RouteName = "moor.route.name"

	// State is the final dispatch state: "dispatched" or "not_found".
	State = "moor.state"

	// Callback is the resolved callback, e.g. "Invoices::show".
	Callback = "moor.callback"

	// Attempts counts the routes whose pattern matched during a dispatch.
	Attempts = "moor.attempts"

	// AttemptOutcome is how one route attempt ended, e.g. "continued".
	AttemptOutcome = "moor.attempt.outcome"

	// ParamPrefix prefixes the name of each route parameter.
	ParamPrefix = "moor.param."
)

// Span and event names.
const (
	// DispatchSpan names a dispatch span until a route dispatches it, when
	// it is renamed to "METHOD template".
	DispatchSpan = "moor.dispatch"

	// AttemptEvent is recorded on the dispatch span for each route attempt.
	AttemptEvent = "route.attempt"
)

// Trace correlation fields of log records.
const (
	// TraceID is the hex trace identifier.
	TraceID = "trace_id"

	// SpanID is the hex span identifier.
	SpanID = "span_id"
)

// Param returns the attribute key of route parameter name.
func Param(name string) string {
	return ParamPrefix + name
}

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
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"moor.dev/moor/router"
	"moor.dev/moor/telemetry/semconv"
)

var _ router.ObservabilityRecorder = (*Tracer)(nil)

// dispatchState carries the dispatch span between hooks.
type dispatchState struct {
	span   trace.Span
	method string
	writer any
}

// OnDispatchStart starts a server span for the dispatch, continuing the
// remote trace found in the HTTP request headers. Excluded and unsampled
// dispatches return a nil state.
func (t *Tracer) OnDispatchStart(ctx context.Context, req *router.Request) (context.Context, any) {
	if t.tracer == nil || t.isShuttingDown.Load() {
		return ctx, nil
	}
	path, _, _ := strings.Cut(req.Path, "?")
	if t.ShouldExcludePath(path) || !t.shouldSample() {
		return ctx, nil
	}

	if req.HTTP != nil {
		ctx = t.ExtractTraceContext(ctx, req.HTTP.Header)
	}

	ctx, span := t.tracer.Start(ctx, semconv.DispatchSpan,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(semconv.HTTPRequestMethod, req.Method),
			attribute.String(semconv.URLPath, path),
		),
	)

	if t.spanStartHook != nil {
		t.spanStartHook(ctx, span, req.HTTP)
	}

	return ctx, &dispatchState{span: span, method: req.Method, writer: req.Writer}
}

// OnAttempt adds a span event for one route attempt.
func (t *Tracer) OnAttempt(_ context.Context, state any, a router.Attempt) {
	s, ok := state.(*dispatchState)
	if !ok {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int(semconv.RouteID, int(a.RouteID)),
		attribute.String(semconv.HTTPRoute, a.Pattern),
		attribute.String(semconv.AttemptOutcome, a.Outcome.String()),
	}
	if a.Callback != "" {
		attrs = append(attrs, attribute.String(semconv.Callback, a.Callback))
	}
	if a.Err != nil {
		attrs = append(attrs, attribute.String("error.message", a.Err.Error()))
	}
	s.span.AddEvent(semconv.AttemptEvent, trace.WithAttributes(attrs...))
}

// OnDispatchEnd names the span "METHOD pattern" after the dispatched route, records the
// outcome and ends the span. Handler errors mark the span failed.
func (t *Tracer) OnDispatchEnd(_ context.Context, state any, res *router.Result) {
	s, ok := state.(*dispatchState)
	if !ok {
		return
	}
	span := s.span
	defer span.End()

	span.SetAttributes(
		attribute.String(semconv.HTTPRoute, res.Pattern()),
		attribute.String(semconv.State, res.State.String()),
		attribute.Int(semconv.Attempts, res.Attempts),
	)
	if res.Route != nil {
		span.SetName(s.method + " " + res.Route.Pattern.Template())
		if name := res.Route.Definition.Name; name != "" {
			span.SetAttributes(attribute.String(semconv.RouteName, name))
		}
	}
	if res.Callback != "" {
		span.SetAttributes(attribute.String(semconv.Callback, res.Callback))
	}
	if t.recordParams && len(res.Params) > 0 {
		span.SetAttributes(paramAttributes(res.Params)...)
	}
	if info, ok := s.writer.(router.ResponseInfo); ok && info.Written() {
		span.SetAttributes(attribute.Int(semconv.HTTPResponseStatusCode, info.StatusCode()))
	}

	switch {
	case len(res.Errors) > 0:
		for _, err := range res.Errors {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, res.Err().Error())
	case !res.Found():
		span.SetStatus(codes.Error, "route not found")
	default:
		span.SetStatus(codes.Ok, "")
	}
}

// paramAttributes returns one attribute per parameter, sorted by name.
func paramAttributes(params map[string]string) []attribute.KeyValue {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]attribute.KeyValue, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, attribute.String(semconv.Param(name), params[name]))
	}
	return attrs
}

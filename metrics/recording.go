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
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"moor.dev/moor/router"
	"moor.dev/moor/telemetry/semconv"
)

var _ router.ObservabilityRecorder = (*Recorder)(nil)

// dispatchState is the per-dispatch token handed back to the router.
type dispatchState struct {
	start  time.Time
	method string
	writer any
}

// OnDispatchStart starts timing a dispatch. Excluded paths return a nil
// state so the router skips the remaining hooks.
func (r *Recorder) OnDispatchStart(ctx context.Context, req *router.Request) (context.Context, any) {
	path, _, _ := strings.Cut(req.Path, "?")
	if r.isShuttingDown.Load() || r.ShouldExcludePath(path) {
		return ctx, nil
	}

	r.activeDispatches.Add(ctx, 1, metric.WithAttributes(r.serviceAttrs...))

	return ctx, &dispatchState{start: time.Now(), method: req.Method, writer: req.Writer}
}

// OnAttempt counts one route attempt by pattern and outcome.
func (r *Recorder) OnAttempt(ctx context.Context, state any, a router.Attempt) {
	if _, ok := state.(*dispatchState); !ok {
		return
	}

	r.routeAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(semconv.RoutePattern, a.Pattern),
		attribute.String(semconv.AttemptOutcome, a.Outcome.String()),
	))
}

// OnDispatchEnd records the duration, count and attempts of a dispatch.
// Routes are labelled by pattern, and "_not_found" when nothing dispatched.
func (r *Recorder) OnDispatchEnd(ctx context.Context, state any, res *router.Result) {
	s, ok := state.(*dispatchState)
	if !ok {
		return
	}

	r.activeDispatches.Add(ctx, -1, metric.WithAttributes(r.serviceAttrs...))

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+4)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		attribute.String(semconv.HTTPRequestMethod, s.method),
		attribute.String(semconv.RoutePattern, res.Pattern()),
		attribute.String(semconv.State, res.State.String()),
	)
	if info, ok := s.writer.(router.ResponseInfo); ok && info.Written() {
		attrs = append(attrs, attribute.Int(semconv.HTTPResponseStatusCode, info.StatusCode()))
	}
	set := metric.WithAttributeSet(attribute.NewSet(attrs...))

	r.dispatchDuration.Record(ctx, time.Since(s.start).Seconds(), set)
	r.dispatchCount.Add(ctx, 1, set)
	r.dispatchAttempts.Record(ctx, int64(res.Attempts), metric.WithAttributes(attribute.String(semconv.RoutePattern, res.Pattern())))
	if len(res.Errors) > 0 {
		r.handlerErrors.Add(ctx, int64(len(res.Errors)), metric.WithAttributes(attribute.String(semconv.RoutePattern, res.Pattern())))
	}
}

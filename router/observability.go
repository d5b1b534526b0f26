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

import (
	"context"

	"moor.dev/moor/router/route"
)

// ObservabilityRecorder provides lifecycle hooks for dispatches.
// The metrics and tracing packages implement it.
//
// Lifecycle:
//  1. OnDispatchStart(ctx, req) returns an enriched context and an opaque
//     state token. The enriched context is always used, even when the state
//     is nil.
//  2. OnAttempt is called for every route whose pattern matched, with the
//     outcome of the attempt. Routes whose pattern did not match are not
//     reported.
//  3. OnDispatchEnd is called once with the final result.
//
// A nil state excludes the dispatch: OnAttempt and OnDispatchEnd are
// skipped for it.
//
// When a handler panics, OnDispatchEnd still runs with Result.Panic set and
// an ErrHandlerPanic error, then the panic propagates to the caller.
//
// Thread safety: all methods must be safe for concurrent use.
type ObservabilityRecorder interface {
	OnDispatchStart(ctx context.Context, req *Request) (context.Context, any)
	OnAttempt(ctx context.Context, state any, attempt Attempt)
	OnDispatchEnd(ctx context.Context, state any, res *Result)
}

// AttemptOutcome is how one route attempt ended.
type AttemptOutcome uint8

const (
	// AttemptNoTarget means the route has no target for the request method.
	AttemptNoTarget AttemptOutcome = iota
	// AttemptUnresolved means the callback could not be resolved to a handler.
	AttemptUnresolved
	// AttemptContinued means the handler passed to the next route.
	AttemptContinued
	// AttemptDispatched means the handler completed.
	AttemptDispatched
	// AttemptAborted means the handler stopped routing with NotFound.
	AttemptAborted
)

var outcomeNames = [...]string{
	AttemptNoTarget:   "no_target",
	AttemptUnresolved: "unresolved",
	AttemptContinued:  "continued",
	AttemptDispatched: "dispatched",
	AttemptAborted:    "aborted",
}

// String returns the snake_case outcome name.
func (o AttemptOutcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// result maps the outcome onto the dispatch loop's control flow.
func (o AttemptOutcome) result() attemptResult {
	switch o {
	case AttemptDispatched:
		return attemptMatched
	case AttemptAborted:
		return attemptAbort
	default:
		return attemptSkip
	}
}

// Attempt describes one route attempt.
type Attempt struct {
	RouteID  route.ID
	Pattern  string
	Callback string // resolved callback, empty for handler targets
	Outcome  AttemptOutcome
	Err      error // resolution error for AttemptUnresolved
}

// ResponseInfo is implemented by the response writer ServeHTTP hands to
// handlers. Recorders type-assert Request.Writer to read status and size.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
	Written() bool
}

// JoinRecorders returns a recorder calling every non-nil recorder in order.
// The context returned by each OnDispatchStart is passed to the next, so a
// tracing recorder listed first makes its span visible to the others. A
// recorder returning a nil state is skipped for that dispatch. Without
// recorders JoinRecorders returns nil.
//
//	r := router.MustNew(router.WithObservability(router.JoinRecorders(tracer, recorder)))
func JoinRecorders(recorders ...ObservabilityRecorder) ObservabilityRecorder {
	joined := make(multiRecorder, 0, len(recorders))
	for _, rec := range recorders {
		if rec != nil {
			joined = append(joined, rec)
		}
	}
	switch len(joined) {
	case 0:
		return nil
	case 1:
		return joined[0]
	}
	return joined
}

type multiRecorder []ObservabilityRecorder

func (m multiRecorder) OnDispatchStart(ctx context.Context, req *Request) (context.Context, any) {
	states := make([]any, len(m))
	var active bool
	for i, rec := range m {
		ctx, states[i] = rec.OnDispatchStart(ctx, req)
		active = active || states[i] != nil
	}
	if !active {
		return ctx, nil
	}
	return ctx, states
}

func (m multiRecorder) OnAttempt(ctx context.Context, state any, attempt Attempt) {
	states, _ := state.([]any)
	for i, s := range states {
		if s != nil {
			m[i].OnAttempt(ctx, s, attempt)
		}
	}
}

func (m multiRecorder) OnDispatchEnd(ctx context.Context, state any, res *Result) {
	states, _ := state.([]any)
	for i, s := range states {
		if s != nil {
			m[i].OnDispatchEnd(ctx, s, res)
		}
	}
}

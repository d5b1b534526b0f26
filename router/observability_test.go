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

//go:build !integration

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moor.dev/moor/router/route"
)

type ctxKey struct{}

// spyRecorder records every hook call.
type spyRecorder struct {
	mu       sync.Mutex
	exclude  string // path whose dispatches get a nil state
	starts   []string
	attempts []Attempt
	results  []*Result
	statuses []int
	sawCtx   bool
}

func (s *spyRecorder) OnDispatchStart(ctx context.Context, req *Request) (context.Context, any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starts = append(s.starts, req.Method+" "+req.Path)
	ctx = context.WithValue(ctx, ctxKey{}, "enriched")
	if req.Path == s.exclude {
		return ctx, nil
	}

	return ctx, req
}

func (s *spyRecorder) OnAttempt(ctx context.Context, state any, a Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sawCtx = ctx.Value(ctxKey{}) == "enriched"
	s.attempts = append(s.attempts, a)
}

func (s *spyRecorder) OnDispatchEnd(_ context.Context, state any, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, res)
	if req, ok := state.(*Request); ok {
		if info, ok := req.Writer.(ResponseInfo); ok {
			s.statuses = append(s.statuses, info.StatusCode())
		}
	}
}

func TestObservability_Attempts(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{}
	r := MustNew(WithObservability(spy))
	r.Map("/invoices", nil, route.WithMethod(http.MethodPost, "Invoices::create"))
	r.Map("/:class", "*::index")
	r.Handle("/:class", func(c *Context) {
		assert.Equal(t, "enriched", c.Context().Value(ctxKey{}))
		c.Continue()
	})
	r.Handle("/:class", func(c *Context) { c.NotFound() })
	r.Handle("/other", func(*Context) {})

	res := dispatch(t, r, http.MethodGet, "/invoices")

	require.Len(t, spy.attempts, 4)
	outcomes := make([]AttemptOutcome, 0, len(spy.attempts))
	for _, a := range spy.attempts {
		outcomes = append(outcomes, a.Outcome)
	}
	assert.Equal(t, []AttemptOutcome{AttemptNoTarget, AttemptUnresolved, AttemptContinued, AttemptAborted}, outcomes)

	assert.Equal(t, "Invoices::index", spy.attempts[1].Callback)
	require.ErrorIs(t, spy.attempts[1].Err, ErrUnbound)
	assert.Equal(t, route.ID(2), spy.attempts[2].RouteID)
	assert.True(t, spy.sawCtx)

	require.Len(t, spy.results, 1)
	assert.Same(t, res, spy.results[0])
	assert.Equal(t, StateNotFound, res.State)
	assert.Equal(t, []string{"GET /invoices"}, spy.starts)
}

func TestObservability_Dispatched(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{}
	r := MustNew(WithObservability(spy))
	r.Map("/invoices/:id", `Billing\Invoice::show`)
	r.BindFunc(`Billing\Invoice::show`, func(c *Context) {
		c.Response.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invoices/7", nil))

	require.Len(t, spy.attempts, 1)
	assert.Equal(t, AttemptDispatched, spy.attempts[0].Outcome)
	assert.Equal(t, `Billing\Invoice::show`, spy.attempts[0].Callback)
	assert.Equal(t, []int{http.StatusNoContent}, spy.statuses)
}

func TestObservability_ExcludedDispatch(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{exclude: "/health"}
	r := MustNew(WithObservability(spy))
	r.Handle("/health", func(*Context) {})

	dispatch(t, r, http.MethodGet, "/health")

	assert.Len(t, spy.starts, 1)
	assert.Empty(t, spy.attempts)
	assert.Empty(t, spy.results)
}

func TestJoinRecorders(t *testing.T) {
	t.Parallel()

	first := &spyRecorder{}
	second := &spyRecorder{exclude: "/health"}
	r := MustNew(WithObservability(JoinRecorders(first, nil, second)))
	r.Handle("/health", func(*Context) {})

	dispatch(t, r, http.MethodGet, "/health")

	assert.Len(t, first.starts, 1)
	assert.Len(t, first.attempts, 1)
	assert.Len(t, first.results, 1)
	assert.True(t, first.sawCtx)

	assert.Len(t, second.starts, 1)
	assert.Empty(t, second.attempts)
	assert.Empty(t, second.results)
}

func TestJoinRecorders_Single(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{}
	assert.Same(t, spy, JoinRecorders(nil, spy))
	assert.Nil(t, JoinRecorders(nil, nil))
}

func TestAttemptOutcome_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome AttemptOutcome
		want    string
	}{
		{AttemptNoTarget, "no_target"},
		{AttemptUnresolved, "unresolved"},
		{AttemptContinued, "continued"},
		{AttemptDispatched, "dispatched"},
		{AttemptAborted, "aborted"},
		{AttemptOutcome(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.outcome.String())
	}
}

func TestObservability_PanickingHandlerEndsDispatch(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{}
	r := MustNew(WithObservability(spy))
	r.Handle("/boom/:id", func(*Context) { panic("ledger corrupt") })

	assert.PanicsWithValue(t, "ledger corrupt", func() {
		_, _ = r.Dispatch(context.Background(), &Request{Method: http.MethodGet, Path: "/boom/7"})
	})

	require.Len(t, spy.results, 1)
	res := spy.results[0]
	assert.Equal(t, "ledger corrupt", res.Panic)
	assert.Equal(t, "/boom/:id", res.Pattern())
	assert.Equal(t, "7", res.Params["id"])
	require.Len(t, res.Errors, 1)
	require.ErrorIs(t, res.Errors[0], ErrHandlerPanic)
	assert.Contains(t, res.Errors[0].Error(), "ledger corrupt")
}

func TestObservability_ExcludedPanicSkipsEnd(t *testing.T) {
	t.Parallel()

	spy := &spyRecorder{exclude: "/boom"}
	r := MustNew(WithObservability(spy))
	r.Handle("/boom", func(*Context) { panic("ignored") })

	assert.Panics(t, func() {
		_, _ = r.Dispatch(context.Background(), &Request{Method: http.MethodGet, Path: "/boom"})
	})
	assert.Empty(t, spy.results)
}

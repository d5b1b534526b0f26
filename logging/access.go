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

package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"moor.dev/moor/router"
)

// AccessOption configures an [AccessRecorder].
type AccessOption func(*AccessRecorder)

// WithErrorsOnly logs only failed, not-found and slow dispatches.
func WithErrorsOnly() AccessOption {
	return func(a *AccessRecorder) { a.errorsOnly = true }
}

// WithSlowThreshold marks dispatches taking at least d as slow and logs
// them at warn level.
func WithSlowThreshold(d time.Duration) AccessOption {
	return func(a *AccessRecorder) { a.slowThreshold = d }
}

// WithAccessExcludePaths skips dispatches of the exact paths.
func WithAccessExcludePaths(paths ...string) AccessOption {
	return func(a *AccessRecorder) {
		for _, p := range paths {
			a.exclude[p] = true
		}
	}
}

// WithAccessAttrs adds the attributes fn returns for the request to its
// access record. fn runs when the dispatch starts.
//
//	logging.WithAccessAttrs(func(_ context.Context, req *router.Request) []slog.Attr {
//	    return []slog.Attr{slog.String("request_id", requestid.FromRequest(req.HTTP))}
//	})
func WithAccessAttrs(fn func(ctx context.Context, req *router.Request) []slog.Attr) AccessOption {
	return func(a *AccessRecorder) { a.attrs = fn }
}

// AccessRecorder writes one access record per dispatch. It implements
// router.ObservabilityRecorder. List it after a tracing recorder in
// router.JoinRecorders so records carry the trace and span IDs.
type AccessRecorder struct {
	logger        *slog.Logger
	errorsOnly    bool
	slowThreshold time.Duration
	exclude       map[string]bool
	attrs         func(context.Context, *router.Request) []slog.Attr
}

var _ router.ObservabilityRecorder = (*AccessRecorder)(nil)

// NewAccessRecorder returns an [AccessRecorder] logging to logger.
// A nil logger discards records.
func NewAccessRecorder(logger *slog.Logger, opts ...AccessOption) *AccessRecorder {
	if logger == nil {
		logger = router.NoopLogger()
	}
	a := &AccessRecorder{logger: logger, exclude: make(map[string]bool)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type accessState struct {
	start  time.Time
	method string
	path   string
	writer any
	extra  []slog.Attr
}

// OnDispatchStart starts timing the dispatch.
func (a *AccessRecorder) OnDispatchStart(ctx context.Context, req *router.Request) (context.Context, any) {
	path, _, _ := strings.Cut(req.Path, "?")
	if a.exclude[path] {
		return ctx, nil
	}
	s := &accessState{start: time.Now(), method: req.Method, path: path, writer: req.Writer}
	if a.attrs != nil {
		s.extra = a.attrs(ctx, req)
	}
	return ctx, s
}

// OnAttempt does nothing; attempts are summarized in the access record.
func (a *AccessRecorder) OnAttempt(context.Context, any, router.Attempt) {}

// OnDispatchEnd writes the access record. Handler errors log at error
// level, not-found and slow dispatches at warn level.
func (a *AccessRecorder) OnDispatchEnd(ctx context.Context, state any, res *router.Result) {
	s, ok := state.(*accessState)
	if !ok {
		return
	}

	duration := time.Since(s.start)
	failed := len(res.Errors) > 0
	slow := a.slowThreshold > 0 && duration >= a.slowThreshold

	level := slog.LevelInfo
	switch {
	case failed:
		level = slog.LevelError
	case !res.Found() || slow:
		level = slog.LevelWarn
	}
	if a.errorsOnly && level == slog.LevelInfo {
		return
	}

	logger := WithTraceContext(ctx, a.logger)
	if !logger.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("method", s.method),
		slog.String("path", s.path),
		slog.String("route", res.Pattern()),
		slog.String("state", res.State.String()),
		slog.Int("attempts", res.Attempts),
		slog.Int64("duration_ms", duration.Milliseconds()),
	}
	if res.Callback != "" {
		attrs = append(attrs, slog.String("callback", res.Callback))
	}
	if info, ok := s.writer.(router.ResponseInfo); ok && info.Written() {
		attrs = append(attrs, slog.Int("status", info.StatusCode()), slog.Int64("bytes", info.Size()))
	}
	if failed {
		attrs = append(attrs, slog.Any("error", res.Err()))
	}
	if slow {
		attrs = append(attrs, slog.Bool("slow", true))
	}
	attrs = append(attrs, s.extra...)

	logger.LogAttrs(ctx, level, "access", attrs...)
}

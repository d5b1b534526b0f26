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
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diagnosticLog collects diagnostic events.
type diagnosticLog struct {
	mu     sync.Mutex
	events []DiagnosticEvent
}

func (d *diagnosticLog) OnDiagnostic(e DiagnosticEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = append(d.events, e)
}

func (d *diagnosticLog) kinds() []DiagnosticKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]DiagnosticKind, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Kind)
	}

	return out
}

func (d *diagnosticLog) find(kind DiagnosticKind) (DiagnosticEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.events {
		if e.Kind == kind {
			return e, true
		}
	}

	return DiagnosticEvent{}, false
}

func TestDiagnostics_Lifecycle(t *testing.T) {
	t.Parallel()

	diags := &diagnosticLog{}
	r := MustNew(WithDiagnostics(diags), WithPrefix("/api"))
	r.Map("/:class/:method", "*::*")
	r.Map("/a/:b/:c/:d/:e/:f/:g/:h/:i/:j", "Deep::path")

	r.MustCompile()
	dispatch(t, r, http.MethodGet, "/api/invoice/show")

	assert.Equal(t, []DiagnosticKind{
		DiagRouteRegistered,
		DiagRouteRegistered,
		DiagHighParamCount,
		DiagRoutesCompiled,
		DiagTargetSkipped,
		DiagNotFound,
	}, diags.kinds())

	registered, ok := diags.find(DiagRouteRegistered)
	require.True(t, ok)
	assert.Equal(t, "/api/:class/:method", registered.Fields["pattern"])
	assert.Equal(t, "*::*", registered.Fields["target"])

	high, _ := diags.find(DiagHighParamCount)
	assert.Equal(t, 9, high.Fields["count"])

	compiled, _ := diags.find(DiagRoutesCompiled)
	assert.Equal(t, 2, compiled.Fields["routes"])

	notFound, _ := diags.find(DiagNotFound)
	assert.Equal(t, "/api/invoice/show", notFound.Fields["path"])
	assert.Equal(t, 1, notFound.Fields["attempts"])
}

func TestDiagnostics_CompileFailed(t *testing.T) {
	t.Parallel()

	diags := &diagnosticLog{}
	r := MustNew(WithDiagnostics(diags))
	r.Map("/reports/:title", `Reports\@name::show`)

	require.Error(t, r.Compile())

	failed, ok := diags.find(DiagCompileFailed)
	require.True(t, ok)
	assert.Contains(t, failed.Fields["error"], "param_mismatch")
}

func TestDiagnosticHandlerFunc(t *testing.T) {
	t.Parallel()

	var got DiagnosticEvent
	h := DiagnosticHandlerFunc(func(e DiagnosticEvent) { got = e })
	h.OnDiagnostic(DiagnosticEvent{Kind: DiagNotFound, Message: "m"})

	assert.Equal(t, DiagNotFound, got.Kind)
}

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

package route

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"moor.dev/moor/router/compiler"
)

// Table is the ordered, append-only route table.
//
// Definitions are added before matching starts and compiled in one pass.
// Registration order is the match precedence.
type Table struct {
	opts compiler.Options

	mu      sync.RWMutex
	defs    []Definition
	routes  []*Route
	keys    map[string]ID
	err     error // last compile error
	pending bool

	frozen atomic.Bool
}

// NewTable creates an empty table compiling patterns with opts.
func NewTable(opts compiler.Options) *Table {
	return &Table{opts: opts}
}

// Options returns the compiler options of the table.
func (t *Table) Options() compiler.Options {
	return t.opts
}

// Add appends def and returns its ID. It panics with ErrFrozen once the
// table is frozen: registering after matching starts is a programming error.
func (t *Table) Add(def Definition) ID {
	if t.frozen.Load() {
		panic(&ConfigError{Kind: KindFrozen, Route: def.Pattern, Err: ErrFrozen})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id := ID(len(t.defs))
	t.defs = append(t.defs, def)
	t.pending = true

	return id
}

// Compile compiles every definition added since the last call. It is
// idempotent and collects all configuration errors with errors.Join.
func (t *Table) Compile() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.compileLocked(nil)
}

func (t *Table) compileLocked(snapshots []compiler.Snapshot) error {
	if !t.pending {
		return t.err
	}

	var (
		errs   []error
		routes = make([]*Route, 0, len(t.defs)-len(t.routes))
	)
	for i := len(t.routes); i < len(t.defs); i++ {
		def := t.defs[i]

		var (
			p   *compiler.Pattern
			err error
		)
		if snapshots != nil {
			p, err = compiler.FromSnapshot(snapshots[i])
		} else {
			p, err = compiler.Compile(def.Pattern, t.opts)
		}
		if err != nil {
			errs = append(errs, newConfigError(def.Pattern, err))
			continue
		}

		r, err := compileRoute(ID(i), def, p)
		if err != nil {
			errs = append(errs, newConfigError(def.Pattern, err))
			continue
		}
		routes = append(routes, r)
	}

	if len(errs) > 0 {
		t.err = errors.Join(errs...)
		return t.err
	}

	if t.keys == nil {
		t.keys = make(map[string]ID)
	}
	for _, r := range routes {
		t.index(r)
	}
	t.routes = append(t.routes, routes...)
	t.pending = false
	t.err = nil

	return nil
}

// index records the lookup keys of r. The first route wins a key.
func (t *Table) index(r *Route) {
	add := func(key string) {
		if key == "" {
			return
		}
		if _, ok := t.keys[key]; !ok {
			t.keys[key] = r.ID
		}
	}

	add(r.Definition.Name)
	for _, e := range r.Endpoints() {
		add(e.Callback)
	}
}

// Freeze stops further registration.
func (t *Table) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether the table is frozen.
func (t *Table) Frozen() bool {
	return t.frozen.Load()
}

// Lookup returns the first route registered with callback key or name key.
func (t *Table) Lookup(key string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.keys[key]
	return id, ok
}

// Route returns the compiled route with id.
func (t *Table) Route(id ID) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id < 0 || int(id) >= len(t.routes) {
		return nil, false
	}
	return t.routes[id], true
}

// Routes returns the compiled routes in registration order.
func (t *Table) Routes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.routes)
}

// Len returns the number of registered definitions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.defs)
}

// Fingerprint hashes every definition and the compiler options.
// It changes whenever the table would compile differently.
func (t *Table) Fingerprint() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}

	write(t.opts.DefaultParamPattern)
	write(t.opts.CallbackParamPattern)
	for _, def := range t.defs {
		write(def.Pattern)
		write(targetKey(def.Target))
		for _, m := range slices.Sorted(maps.Keys(def.Methods)) {
			write(m)
			write(targetKey(def.Methods[m]))
		}
		for _, k := range slices.Sorted(maps.Keys(def.Overrides)) {
			write(k)
			write(def.Overrides[k])
		}
		write(def.Name)
	}
	write(strconv.Itoa(len(t.defs)))

	return h.Sum64()
}

func targetKey(t Target) string {
	if s, ok := t.(string); ok {
		return s
	}
	return fmt.Sprintf("%T", t)
}

// tableSnapshot is the encoded form of compiled patterns.
type tableSnapshot struct {
	Fingerprint uint64              `json:"fingerprint"`
	Patterns    []compiler.Snapshot `json:"patterns"`
}

// Snapshot encodes the compiled patterns of a fully compiled table.
func (t *Table) Snapshot() ([]byte, error) {
	fp := t.Fingerprint()

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.pending || t.err != nil {
		return nil, fmt.Errorf("%w: table is not compiled", ErrBadSnapshot)
	}

	s := tableSnapshot{
		Fingerprint: fp,
		Patterns:    make([]compiler.Snapshot, 0, len(t.routes)),
	}
	for _, r := range t.routes {
		s.Patterns = append(s.Patterns, r.Pattern.Snapshot())
	}

	return json.Marshal(s)
}

// CompileFrom compiles the table from data produced by Snapshot. The data
// must come from a table with the same fingerprint, otherwise ErrBadSnapshot
// is returned and nothing is compiled.
func (t *Table) CompileFrom(data []byte) error {
	var s tableSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if s.Fingerprint != t.Fingerprint() {
		return fmt.Errorf("%w: fingerprint mismatch", ErrBadSnapshot)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.routes) != 0 || len(s.Patterns) != len(t.defs) {
		return fmt.Errorf("%w: %d patterns for %d routes", ErrBadSnapshot, len(s.Patterns), len(t.defs))
	}
	for i, p := range s.Patterns {
		if p.Source != t.defs[i].Pattern {
			return fmt.Errorf("%w: route %d is %q, snapshot has %q", ErrBadSnapshot, i, t.defs[i].Pattern, p.Source)
		}
	}

	return t.compileLocked(s.Patterns)
}

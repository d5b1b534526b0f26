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
	"fmt"
	"maps"
	"slices"
	"strings"

	"moor.dev/moor/router/callback"
	"moor.dev/moor/router/compiler"
)

// Target is a callback string or a handler value.
// In practice the handler is a router.Handler; using any here avoids the
// import cycle with the router package.
type Target = any

// MethodAny is the method filter fallback entry.
const MethodAny = "*"

// ID identifies a route by registration order.
type ID int

// Definition is a route as registered. It is not modified after Add.
type Definition struct {
	Pattern   string
	Target    Target
	Methods   map[string]Target
	Overrides map[string]string
	Name      string
}

// Option configures a Definition.
type Option func(*Definition)

// WithMethods sets the method filter. Keys are HTTP methods or MethodAny.
func WithMethods(methods map[string]Target) Option {
	return func(d *Definition) {
		if d.Methods == nil {
			d.Methods = make(map[string]Target, len(methods))
		}
		for m, t := range methods {
			d.Methods[normalizeMethod(m)] = t
		}
	}
}

// WithMethod adds one method filter entry.
func WithMethod(method string, target Target) Option {
	return WithMethods(map[string]Target{method: target})
}

// WithOverrides sets parameter values applied on every match.
func WithOverrides(overrides map[string]string) Option {
	return func(d *Definition) {
		if d.Overrides == nil {
			d.Overrides = make(map[string]string, len(overrides))
		}
		maps.Copy(d.Overrides, overrides)
	}
}

// WithName names the route. The name is also a lookup key for links.
func WithName(name string) Option {
	return func(d *Definition) {
		d.Name = name
	}
}

// NewDefinition builds a Definition from options.
func NewDefinition(pattern string, target Target, opts ...Option) Definition {
	d := Definition{Pattern: pattern, Target: target}
	for _, opt := range opts {
		opt(&d)
	}

	return d
}

func normalizeMethod(m string) string {
	if m == MethodAny {
		return m
	}
	return strings.ToUpper(m)
}

// Endpoint is a compiled target.
type Endpoint struct {
	Callback   string               // callback source, empty for handler targets
	Descriptor *callback.Descriptor // nil for handler targets
	Handler    any                  // handler target, nil for callbacks
}

// IsCallback reports whether the endpoint is a callback string.
func (e Endpoint) IsCallback() bool {
	return e.Descriptor != nil
}

func compileEndpoint(t Target) (Endpoint, error) {
	switch v := t.(type) {
	case nil:
		return Endpoint{}, ErrNoTarget
	case string:
		d, err := callback.Parse(v)
		if err != nil {
			return Endpoint{}, err
		}
		return Endpoint{Callback: v, Descriptor: d}, nil
	default:
		return Endpoint{Handler: v}, nil
	}
}

// Route is a compiled Definition.
type Route struct {
	ID         ID
	Definition Definition
	Pattern    *compiler.Pattern
	Default    Endpoint
	Methods    map[string]Endpoint
}

// Target returns the endpoint serving method: the method entry, then the
// MethodAny entry, then the default target.
func (r *Route) Target(method string) (Endpoint, bool) {
	if len(r.Methods) > 0 {
		if e, ok := r.Methods[normalizeMethod(method)]; ok {
			return e, true
		}
		if e, ok := r.Methods[MethodAny]; ok {
			return e, true
		}
	}
	if r.Definition.Target != nil {
		return r.Default, true
	}

	return Endpoint{}, false
}

// Endpoints returns every endpoint of the route, default first, then the
// method entries in method order.
func (r *Route) Endpoints() []Endpoint {
	var out []Endpoint
	if r.Definition.Target != nil {
		out = append(out, r.Default)
	}
	for _, m := range slices.Sorted(maps.Keys(r.Methods)) {
		out = append(out, r.Methods[m])
	}

	return out
}

// Callbacks returns the distinct callback descriptors of the route.
func (r *Route) Callbacks() []*callback.Descriptor {
	var out []*callback.Descriptor
	seen := make(map[string]bool)
	for _, e := range r.Endpoints() {
		if e.Descriptor == nil || seen[e.Callback] {
			continue
		}
		seen[e.Callback] = true
		out = append(out, e.Descriptor)
	}

	return out
}

// compileRoute compiles def and checks its parameters.
func compileRoute(id ID, def Definition, p *compiler.Pattern) (*Route, error) {
	r := &Route{ID: id, Definition: def, Pattern: p}

	if def.Target == nil && len(def.Methods) == 0 {
		return nil, ErrNoTarget
	}
	if def.Target != nil {
		e, err := compileEndpoint(def.Target)
		if err != nil {
			return nil, err
		}
		r.Default = e
	}
	if len(def.Methods) > 0 {
		r.Methods = make(map[string]Endpoint, len(def.Methods))
		for _, m := range slices.Sorted(maps.Keys(def.Methods)) {
			e, err := compileEndpoint(def.Methods[m])
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", m, err)
			}
			r.Methods[normalizeMethod(m)] = e
		}
	}

	if err := r.checkParams(); err != nil {
		return nil, err
	}

	return r, nil
}

// checkParams enforces that callback captures are declared by the pattern
// and that "@" parameters of the pattern feed a callback capture.
func (r *Route) checkParams() error {
	used := make(map[string]bool)
	var undeclared []string
	for _, d := range r.Callbacks() {
		for _, name := range d.CaptureNames() {
			used[name] = true
			if !r.Pattern.HasParam(name) && !slices.Contains(undeclared, name) {
				undeclared = append(undeclared, name)
			}
		}
	}

	var unused []string
	for _, name := range r.Pattern.CallbackParams() {
		if !used[name] {
			unused = append(unused, name)
		}
	}

	if len(undeclared) == 0 && len(unused) == 0 {
		return nil
	}

	params := append(undeclared, unused...)
	return &ConfigError{
		Kind:   KindParamMismatch,
		Route:  r.Definition.Pattern,
		Params: params,
		Err:    fmt.Errorf("%w: undeclared in pattern %v, unused by callback %v", ErrParamMismatch, undeclared, unused),
	}
}

// Info is a read-only summary of a route for introspection.
type Info struct {
	ID        ID                `json:"id"`
	Pattern   string            `json:"pattern"`
	Template  string            `json:"template"`
	Regexp    string            `json:"regexp"`
	Params    []string          `json:"params,omitempty"`
	Callback  string            `json:"callback,omitempty"`
	Methods   map[string]string `json:"methods,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty"`
	Name      string            `json:"name,omitempty"`
	Linkable  bool              `json:"linkable"`
}

// Info returns the introspection summary of r.
func (r *Route) Info() Info {
	info := Info{
		ID:        r.ID,
		Pattern:   r.Definition.Pattern,
		Template:  r.Pattern.Template(),
		Regexp:    r.Pattern.Expr(),
		Params:    r.Pattern.ParamNames(),
		Callback:  describe(r.Default),
		Overrides: r.Definition.Overrides,
		Name:      r.Definition.Name,
		Linkable:  r.Pattern.Linkable(),
	}
	if len(r.Methods) > 0 {
		info.Methods = make(map[string]string, len(r.Methods))
		for m, e := range r.Methods {
			info.Methods[m] = describe(e)
		}
	}

	return info
}

func describe(e Endpoint) string {
	switch {
	case e.Descriptor != nil:
		return e.Callback
	case e.Handler != nil:
		return fmt.Sprintf("%T", e.Handler)
	}
	return ""
}

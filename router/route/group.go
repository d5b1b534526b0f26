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
	"strings"
)

// Group registers routes under a common pattern prefix.
//
// Example:
//
//	admin := r.Group("/admin")
//	admin.Map("/users/:id", `Admin\Users::show`)   // pattern: /admin/users/:id
//	billing := admin.Group("/billing")
//	billing.Map("/:id", `Admin\Billing::show`)     // pattern: /admin/billing/:id
type Group struct {
	registrar  Registrar
	prefix     string
	namePrefix string
	opts       []Option
}

// NewGroup creates a new Group with the given registrar and prefix.
// Options are applied to every route of the group before the route's own.
func NewGroup(registrar Registrar, prefix string, opts ...Option) *Group {
	return &Group{
		registrar: registrar,
		prefix:    prefix,
		opts:      opts,
	}
}

// Prefix returns the pattern prefix of the group.
func (g *Group) Prefix() string {
	return g.prefix
}

// SetNamePrefix sets a prefix for all route names in this group.
// The prefix is appended to any existing name prefix from parent groups.
// Returns the group for method chaining.
func (g *Group) SetNamePrefix(prefix string) *Group {
	g.namePrefix += prefix
	return g
}

// Group creates a nested group. Prefixes and options are inherited.
func (g *Group) Group(prefix string, opts ...Option) *Group {
	var fullPrefix string
	switch {
	case g.prefix == "":
		fullPrefix = prefix
	case prefix == "":
		fullPrefix = g.prefix
	default:
		var sb strings.Builder
		sb.Grow(len(g.prefix) + len(prefix))
		sb.WriteString(strings.TrimRight(g.prefix, "/"))
		sb.WriteString(prefix)
		fullPrefix = sb.String()
	}

	all := make([]Option, 0, len(g.opts)+len(opts))
	all = append(all, g.opts...)
	all = append(all, opts...)

	return &Group{
		registrar:  g.registrar,
		prefix:     fullPrefix,
		namePrefix: g.namePrefix,
		opts:       all,
	}
}

// Register registers a route under the group prefix.
func (g *Group) Register(pattern string, target Target, opts ...Option) (ID, error) {
	all := make([]Option, 0, len(g.opts)+len(opts))
	all = append(all, g.opts...)
	all = append(all, opts...)

	def := NewDefinition(JoinPrefix(g.prefix, pattern), target, all...)
	if def.Name != "" {
		def.Name = g.namePrefix + def.Name
	}

	return g.registrar.Register(def)
}

// Map is like Register but panics on error.
func (g *Group) Map(pattern string, target Target, opts ...Option) ID {
	id, err := g.Register(pattern, target, opts...)
	if err != nil {
		panic(fmt.Sprintf("route: %v", err))
	}

	return id
}

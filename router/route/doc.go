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

// Package route holds route definitions and the route table.
//
// This package contains:
//   - Definition: a pattern source plus its target, method filter and overrides
//   - Route: a compiled definition
//   - Table: the ordered, append-only list of routes
//   - Group: registration under a shared pattern prefix
//
// # Targets
//
// A target is either a callback string, parsed with the callback package,
// or a handler value owned by the router. Method filters map HTTP methods to
// targets; the "*" entry is the fallback.
//
//	def := route.Definition{
//	    Pattern: "/invoices/:id",
//	    Target:  `Billing\Invoice::show`,
//	    Methods: map[string]route.Target{"POST": `Billing\Invoice::update`},
//	}
//
// # Compilation
//
// Definitions are compiled by Table.Compile. Compilation is idempotent and
// reports every broken definition at once. It also checks that the inline
// captures of each callback are declared by the pattern, and that every
// "@name" parameter of the pattern is used by a callback.
//
// Once the table is frozen, Add panics.
package route

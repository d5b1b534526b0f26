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

// Package router matches request paths against an ordered route table and
// dispatches them to handlers, and builds URLs back from callbacks.
//
// # Routes
//
// A route pairs a pattern with a target. Patterns use ":name" tokens with an
// optional sub-pattern, "@name" tokens feeding callback captures, leading or
// trailing "*" to drop an anchor, or a raw regular expression:
//
//	r := router.MustNew()
//	r.Map("/users/:id(\\d+)", `Users::show`)
//	r.Map("/reports/@name", `Reports\@name(uc)::show`)
//	r.Handle("/health", func(c *router.Context) { ... })
//
// A target is either a handler or a callback string. Callback strings are
// resolved against the handler table filled with Bind:
//
//	r.BindFunc(`Users::show`, showUser)
//	r.BindFunc(`Reports\Monthly::show`, showMonthly)
//
// # Dispatch
//
// Routes are tried in registration order; the first route whose pattern
// matches and whose target resolves wins. Registration order is the only
// precedence rule. A handler may call Context.Continue to pass the request
// to the next route, or Context.NotFound to stop routing. Parameters are
// restored to their pre-routing values before every attempt, so a skipped
// route never leaks captures into the next one.
//
// The route table is compiled and frozen by Compile, or lazily by the first
// dispatch. Registering routes afterwards is a programming error.
//
// # Links
//
// LinkTo builds a URL from a callback and parameter values. Inside a
// handler, Context.LinkTo also accepts targets relative to the running
// callback, such as "*::edit".
//
//	u, err := r.LinkTo(`Users::show`, map[string]string{"id": "7"})
//	// u == "/users/7"
package router

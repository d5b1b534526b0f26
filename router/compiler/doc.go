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

// Package compiler turns route pattern sources into compiled patterns.
//
// A compiled Pattern holds an anchored regular expression with one named
// capture group per declared parameter, the parameter names in capture
// order, and a reverse template used to build URLs.
//
// # Shorthand patterns
//
// Shorthand sources start with "/" or "*":
//
//	/users/:id              id matches DefaultParamPattern
//	/users/:id(\d+)         id matches \d+
//	/reports/@name          name is bound to a callback capture
//	/files/*                no end anchor
//	*/edit                  no start anchor
//
// Sub-patterns may nest parentheses. Literal text is quoted, and repeated
// slashes collapse into one. Duplicate names and names starting with
// ReservedPrefix are rejected.
//
// # Raw expressions
//
// A source starting with RegexpSentinel, or with any character other than
// "/" and "*", is compiled as is. Its named groups become the parameters:
//
//	regexp:^/posts/(?P<year>\d{4})/(?P<slug>[a-z-]+)$
//
// The reverse template replaces each named group with ":name". If any other
// regular expression syntax remains, the pattern matches normally but cannot
// be used to build URLs.
//
// # Matching and building
//
//	p := compiler.MustCompile("/users/:id", compiler.Options{})
//	params, ok := p.Match("/users/42")  // {"id": "42"}, true
//	path, _, err := p.Build(map[string]string{"id": "42"})
//
// Compilation is deterministic: compiling the same source with the same
// Options yields the same expression and parameter order.
package compiler

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
	"strings"

	"moor.dev/moor/router/compiler"
)

// Registrar is the interface that Router implements to enable route registration.
// It is used by Group to register routes without creating an import cycle.
type Registrar interface {
	// Register adds a definition to the route table.
	Register(def Definition) (ID, error)
}

// JoinPrefix applies a prefix to a shorthand pattern.
// Raw expressions and patterns with a leading "*" are returned unchanged,
// since neither is anchored at a known path start.
func JoinPrefix(prefix, pattern string) string {
	if prefix == "" || compiler.IsRaw(pattern) || strings.HasPrefix(pattern, "*") {
		return pattern
	}

	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return pattern
	}
	if pattern == "" || pattern == "/" {
		return prefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	return prefix + pattern
}

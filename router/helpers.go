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

package router

import (
	"regexp"
	"strings"

	"moor.dev/moor/router/compiler"
	"moor.dev/moor/router/route"
)

// ExtensionParam is the parameter YankExtension stores the extension in.
const ExtensionParam = "extension"

// defaultExtensions matches two to four letters, like "json" or "xml".
const defaultExtensions = `[a-zA-Z]{2,4}`

// YankExtension registers a route that strips a file extension from the
// request path, stores it in the "extension" parameter and continues with
// the stripped path. Register it before the routes it should apply to.
// With no arguments any extension of two to four letters is removed.
//
//	r.YankExtension("json", "xml")
//	r.Map("/users/:id", `Users::show`)
//	// GET /users/7.json dispatches Users::show with id=7, extension=json
func (r *Router) YankExtension(extensions ...string) route.ID {
	alt := defaultExtensions
	if len(extensions) > 0 {
		quoted := make([]string, len(extensions))
		for i, ext := range extensions {
			quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(ext, "."))
		}
		alt = strings.Join(quoted, "|")
	}

	pattern := compiler.RegexpSentinel + `\.(?P<` + ExtensionParam + `>` + alt + `)$`

	// Raw patterns are never prefixed, so the route applies to every path.
	return r.Map(pattern, HandlerFunc(yankExtension))
}

func yankExtension(c *Context) {
	ext := c.Param(ExtensionParam)
	c.rewrite(strings.TrimSuffix(c.Path(), "."+ext), map[string]string{ExtensionParam: ext})
	c.Continue()
}

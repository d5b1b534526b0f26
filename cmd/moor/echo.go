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

package main

import (
	"net/http"

	"github.com/goccy/go-json"

	"moor.dev/moor/middleware/requestid"
	"moor.dev/moor/router"
)

// echoResponse is the body written by the echo handler.
type echoResponse struct {
	Route     string            `json:"route"`
	Name      string            `json:"name,omitempty"`
	Callback  string            `json:"callback,omitempty"`
	Params    map[string]string `json:"params"`
	RequestID string            `json:"request_id,omitempty"`
}

// echo answers every dispatched route with what the router resolved. It
// stands in for the application a route file is written for.
func echo(c *router.Context) {
	if c.Response == nil {
		return
	}

	body := echoResponse{
		Callback:  c.Callback(),
		Params:    c.Params(),
		RequestID: requestid.FromRequest(c.Request),
	}
	if rt := c.Route(); rt != nil {
		body.Route = rt.Pattern.Template()
		body.Name = rt.Definition.Name
	}

	c.Response.Header().Set("Content-Type", "application/json")
	c.Response.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(c.Response).Encode(body); err != nil {
		c.Error(err)
	}
}

// echoResolver binds every callback to [echo].
var echoResolver = router.ResolverFunc(func(string) (router.Handler, bool) {
	return router.HandlerFunc(echo), true
})

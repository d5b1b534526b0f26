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
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"moor.dev/moor/router"
)

// errNoRoute is returned by match when no route dispatched the path.
var errNoRoute = errors.New("no route dispatched the request")

// matchOutput is the JSON form of a dispatch result.
type matchOutput struct {
	State    string            `json:"state"`
	RouteID  *int              `json:"route_id,omitempty"`
	Pattern  string            `json:"pattern"`
	Callback string            `json:"callback,omitempty"`
	Params   map[string]string `json:"params"`
	Attempts int               `json:"attempts"`
	Trace    []string          `json:"trace,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
}

func newMatchOutput(res *router.Result) matchOutput {
	out := matchOutput{
		State:    res.State.String(),
		Pattern:  res.Pattern(),
		Callback: res.Callback,
		Params:   res.Params,
		Attempts: res.Attempts,
		Trace:    res.Trace,
	}
	if res.Route != nil {
		id := int(res.Route.ID)
		out.RouteID = &id
	}
	for _, err := range res.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

func matchCmd(opts *rootOptions) *cobra.Command {
	var (
		method string
		params map[string]string
		trace  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match PATH",
		Short: "Dispatch a path through the route table",
		Long: `Dispatch PATH through the route table and print the route that won,
its callback and its parameters. Every callback is accepted, so the result
is what the application would see. A query string becomes parameters.

The command fails when no route dispatches the path.

Examples:
  moor match /invoices/7
  moor match --method POST /invoices
  moor match --trace '/reports/monthly_sales?format=csv'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStack(cmd.Context(), opts, false, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = s.shutdown(cmd.Context()) }()

			routerOpts := []router.Option{router.WithResolver(echoResolver)}
			if trace {
				routerOpts = append(routerOpts, router.WithTrace(true))
			}
			r, err := s.router(routerOpts...)
			if err != nil {
				return err
			}

			res, err := r.Dispatch(cmd.Context(), &router.Request{
				Method: method,
				Path:   args[0],
				Params: params,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(newMatchOutput(res)); err != nil {
					return err
				}
			} else {
				printMatch(cmd.OutOrStdout(), res)
			}

			if !res.Found() {
				return fmt.Errorf("%s %s: %w", strings.ToUpper(method), args[0], errNoRoute)
			}
			return res.Err()
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "Request method")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Parameter known before routing, as key=value")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print the routing trace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func printMatch(w io.Writer, res *router.Result) {
	fmt.Fprintf(w, "state:    %s\n", res.State)
	if res.Route != nil {
		fmt.Fprintf(w, "route:    %d %s\n", res.Route.ID, res.Route.Definition.Pattern)
	}
	if res.Callback != "" {
		fmt.Fprintf(w, "callback: %s\n", res.Callback)
	}
	for _, k := range slices.Sorted(maps.Keys(res.Params)) {
		fmt.Fprintf(w, "param:    %s=%s\n", k, res.Params[k])
	}
	fmt.Fprintf(w, "attempts: %d\n", res.Attempts)
	for _, line := range res.Trace {
		fmt.Fprintf(w, "trace:    %s\n", line)
	}
}

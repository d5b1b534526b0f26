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
	"strings"

	"github.com/spf13/cobra"
)

// errBadParam is returned for a link parameter without "=".
var errBadParam = errors.New("parameter must be key=value")

func linkCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link TARGET [KEY=VALUE...]",
		Short: "Build the URL of a callback or route name",
		Long: `Build the URL of the best route for TARGET, a callback such as
"Invoices::show" or a route name. Parameters the path does not use are
appended as a query string.

Examples:
  moor link invoice id=7
  moor link 'Reports\MonthlySales::show' format=csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			s, err := loadStack(cmd.Context(), opts, false, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = s.shutdown(cmd.Context()) }()

			r, err := s.router()
			if err != nil {
				return err
			}
			u, err := r.LinkTo(args[0], params)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	return cmd
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%q: %w", arg, errBadParam)
		}
		params[k] = v
	}
	return params, nil
}

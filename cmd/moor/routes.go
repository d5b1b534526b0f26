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
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"moor.dev/moor/router/route"
)

func routesCmd(opts *rootOptions) *cobra.Command {
	var asJSON, asTable bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the compiled route table",
		Long: `List every route of the route file in dispatch order, with its
compiled pattern, targets and name.

Examples:
  moor routes -f routes.yaml
  moor routes -f routes.toml --json
  moor routes -f routes.yaml --table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadStack(cmd.Context(), opts, false, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = s.shutdown(cmd.Context()) }()

			r, err := s.router()
			if err != nil {
				return err
			}
			infos, err := r.Routes()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			if asTable {
				return renderRouteTable(cmd.OutOrStdout(), infos)
			}
			return printRoutes(cmd.OutOrStdout(), infos)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	cmd.Flags().BoolVar(&asTable, "table", false, "Draw a bordered table")
	cmd.MarkFlagsMutuallyExclusive("json", "table")

	return cmd
}

func printRoutes(w io.Writer, infos []route.Info) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATTERN\tTARGET\tNAME")
	for _, info := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", info.ID, info.Pattern, describeTargets(info), info.Name)
	}
	return tw.Flush()
}

// describeTargets renders the default callback followed by the method
// targets in method order.
func describeTargets(info route.Info) string {
	var parts []string
	if info.Callback != "" {
		parts = append(parts, info.Callback)
	}
	for _, m := range slices.Sorted(maps.Keys(info.Methods)) {
		parts = append(parts, m+"="+info.Methods[m])
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

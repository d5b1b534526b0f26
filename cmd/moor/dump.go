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

	"github.com/spf13/cobra"

	"moor.dev/moor/config"
	"moor.dev/moor/config/codec"
	"moor.dev/moor/config/dumper"
)

func dumpCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the merged route file",
		Long: `Print the route file after merging Consul and environment overrides and
validating it. The format of --output comes from its extension.

Examples:
  moor dump -f routes.yaml
  moor dump -f routes.yaml --format json
  MOOR_PREFIX=/v2 moor dump -f routes.yaml --output merged.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgOpts := append(opts.sources(), config.WithJSONSchema(config.RouterFileSchema))
			if output != "" {
				cfgOpts = append(cfgOpts, config.WithFileDumper(output))
			} else {
				encoder, err := codec.GetEncoder(codec.Type(format))
				if err != nil {
					return fmt.Errorf("format %q: %w", format, err)
				}
				cfgOpts = append(cfgOpts, config.WithDumper(dumper.NewWriter(cmd.OutOrStdout(), encoder)))
			}

			cfg, err := config.New(cfgOpts...)
			if err != nil {
				return err
			}
			if err := cfg.Load(cmd.Context()); err != nil {
				return err
			}
			return cfg.Dump(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&format, "format", string(codec.TypeYAML), "Output format: yaml, json or toml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

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

// Command moor inspects and serves route files.
//
//	moor routes -f routes.yaml
//	moor match -f routes.yaml GET /invoices/7
//	moor link -f routes.yaml invoice id=7
//	moor serve -f routes.yaml --addr :8080
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"moor.dev/moor/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	file      string
	envPrefix string
	consulKey string
}

// sources returns the configuration sources of the route file. Consul
// overrides the file and the environment overrides both.
func (o *rootOptions) sources() []config.Option {
	opts := []config.Option{config.WithFile(o.file)}
	if o.consulKey != "" {
		opts = append(opts, config.WithConsul(o.consulKey))
	}
	if o.envPrefix != "" {
		opts = append(opts, config.WithEnv(o.envPrefix))
	}
	return opts
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "moor",
		Short: "Inspect and serve Moor route files",
		Long: `Moor maps URL paths to callbacks through an ordered route table.

The route file is read from --file and merged with the Consul key named by
--consul-key (when CONSUL_HTTP_ADDR is set) and with environment variables
starting with --env-prefix. A double underscore nests keys, so
MOOR_LOGGING__LEVEL=debug sets logging.level.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "routes.yaml", "Route file (.yaml, .yml, .json or .toml)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "MOOR_", "Prefix of environment overrides, empty to disable")
	flags.StringVar(&opts.consulKey, "consul-key", "", "Consul KV key merged over the route file")

	root.AddCommand(
		routesCmd(opts),
		matchCmd(opts),
		linkCmd(opts),
		serveCmd(opts),
		dumpCmd(opts),
		versionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

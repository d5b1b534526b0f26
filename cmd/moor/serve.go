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
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"moor.dev/moor/middleware/compress"
	"moor.dev/moor/middleware/recovery"
	"moor.dev/moor/middleware/requestid"
	"moor.dev/moor/router"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr  string
		flags serveFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route table over HTTP",
		Long: `Serve the route table over HTTP. Every dispatched route answers with a
JSON document naming its pattern, callback and parameters; unmatched paths
get a 404 problem document. Requests carry an X-Request-ID, taken from the
client or generated, and handler panics become 500 responses. Bodies of
1 KiB and more are compressed with Brotli or gzip unless --no-compress.

Metrics, tracing and access logs are configured by the metrics, tracing and
logging sections of the route file. When metrics.addr is empty the
Prometheus endpoint is served on the same listener.

Examples:
  moor serve -f routes.yaml
  moor serve -f routes.yaml --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(ctx, ln, opts, flags, cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVar(&flags.noBanner, "no-banner", false, "Do not print the startup banner")
	cmd.Flags().BoolVar(&flags.noCompress, "no-compress", false, "Do not compress responses")

	return cmd
}

// serveFlags are the switches of the serve command.
type serveFlags struct {
	noBanner   bool
	noCompress bool
}

// serve runs the server on ln until ctx is cancelled.
func serve(ctx context.Context, ln net.Listener, opts *rootOptions, flags serveFlags, cmd *cobra.Command) error {
	s, err := loadStack(ctx, opts, true, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = s.shutdown(shutdownCtx)
	}()

	r, err := s.router(router.WithResolver(echoResolver))
	if err != nil {
		_ = ln.Close()
		return err
	}

	log := s.logger.Logger()
	handler := recovery.New(recovery.WithLogger(log))(s.handler(r))
	if !flags.noCompress {
		handler = compress.New()(handler)
	}
	server := &http.Server{
		Handler:           requestid.New()(handler),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if !flags.noBanner {
		infos, err := r.Routes()
		if err != nil {
			_ = ln.Close()
			return err
		}
		printBanner(cmd.OutOrStdout(), ln.Addr().String(), s, infos)
	}
	log.InfoContext(ctx, "server starting", "address", ln.Addr().String(), "version", version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// handler routes the Prometheus endpoint, when it has no listener of its
// own, and everything else to r.
func (s *stack) handler(r *router.Router) http.Handler {
	if s.metrics == nil || s.file.Metrics.Addr != "" {
		return r
	}
	h, err := s.metrics.Handler()
	if err != nil {
		return r
	}

	mux := http.NewServeMux()
	mux.Handle(s.metrics.Path(), h)
	mux.Handle("/", r)
	return mux
}

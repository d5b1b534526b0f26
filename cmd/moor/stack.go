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
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"moor.dev/moor/cache"
	"moor.dev/moor/cache/rediscache"
	"moor.dev/moor/config"
	"moor.dev/moor/logging"
	"moor.dev/moor/metrics"
	"moor.dev/moor/middleware/requestid"
	"moor.dev/moor/router"
	"moor.dev/moor/tracing"
)

// stack holds what a command builds from the route file besides the
// router itself.
type stack struct {
	file    *config.RouterFile
	logger  *logging.Logger
	client  *redis.Client
	store   cache.Store
	metrics *metrics.Recorder
	tracer  *tracing.Tracer
}

// newStack builds the logger and the compile cache of f. With telemetry,
// metrics and tracing are built too when f enables them. Logs go to
// stderr; stdout exporters write to stdout.
func newStack(ctx context.Context, f *config.RouterFile, telemetry bool, stdout, stderr io.Writer) (*stack, error) {
	logOpts, err := f.Logging.Options(stderr)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	s := &stack{file: f}
	if s.logger, err = logging.New(logOpts...); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := s.logger.Logger()

	if f.Redis.Addr != "" && f.CacheKey != "" {
		s.client = redis.NewClient(&redis.Options{
			Addr:     f.Redis.Addr,
			Password: f.Redis.Password,
			DB:       f.Redis.DB,
		})
		if err := s.client.Ping(ctx).Err(); err != nil {
			log.WarnContext(ctx, "compile cache disabled, redis unreachable", "addr", f.Redis.Addr, "error", err)
			_ = s.client.Close()
			s.client = nil
		} else {
			s.store = rediscache.New(s.client,
				rediscache.WithPrefix(f.Redis.Prefix),
				rediscache.WithTTL(f.Redis.TTL),
			)
		}
	}

	if !telemetry {
		return s, nil
	}

	service := f.Logging.Service
	if service == "" {
		service = tracing.DefaultServiceName
	}

	if f.Metrics.Enabled {
		opts, err := f.Metrics.Options(stdout)
		if err != nil {
			return nil, s.fail(fmt.Errorf("metrics: %w", err))
		}
		opts = append(opts,
			metrics.WithServiceName(service),
			metrics.WithServiceVersion(version),
			metrics.WithLogger(log),
		)
		if s.metrics, err = metrics.New(opts...); err != nil {
			return nil, s.fail(fmt.Errorf("metrics: %w", err))
		}
		if err := s.metrics.Start(ctx); err != nil {
			return nil, s.fail(err)
		}
	}

	if f.Tracing.Enabled {
		opts, err := f.Tracing.Options(stdout)
		if err != nil {
			return nil, s.fail(fmt.Errorf("tracing: %w", err))
		}
		opts = append(opts,
			tracing.WithServiceName(service),
			tracing.WithServiceVersion(version),
			tracing.WithLogger(log),
		)
		if s.tracer, err = tracing.New(opts...); err != nil {
			return nil, s.fail(fmt.Errorf("tracing: %w", err))
		}
		if err := s.tracer.Start(ctx); err != nil {
			return nil, s.fail(err)
		}
	}

	return s, nil
}

// fail releases what was built and returns err.
func (s *stack) fail(err error) error {
	return errors.Join(err, s.shutdown(context.Background()))
}

// recorder joins the tracer, the metrics recorder and the access log.
// The tracer goes first so the others see its span.
func (s *stack) recorder() router.ObservabilityRecorder {
	var recorders []router.ObservabilityRecorder
	if s.tracer != nil {
		recorders = append(recorders, s.tracer)
	}
	if s.metrics != nil {
		recorders = append(recorders, s.metrics)
	}
	if s.file.Logging.Access {
		opts := append(s.file.Logging.AccessOptions(), logging.WithAccessAttrs(requestIDAttrs))
		recorders = append(recorders, logging.NewAccessRecorder(s.logger.Logger(), opts...))
	}
	return router.JoinRecorders(recorders...)
}

// router builds the router of the route file and registers its routes.
func (s *stack) router(opts ...router.Option) (*router.Router, error) {
	fileOpts, err := config.Options(s.file, s.store)
	if err != nil {
		return nil, err
	}

	log := s.logger.Logger()
	all := append(fileOpts,
		router.WithLogger(log),
		router.WithDiagnostics(logging.DiagnosticHandler(log)),
	)
	if rec := s.recorder(); rec != nil {
		all = append(all, router.WithObservability(rec))
	}
	all = append(all, opts...)

	r, err := router.New(all...)
	if err != nil {
		return nil, err
	}
	if err := config.Apply(s.file, r); err != nil {
		return nil, err
	}
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// shutdown flushes the exporters and closes the Redis client.
func (s *stack) shutdown(ctx context.Context) error {
	var errs []error
	if s.tracer != nil {
		errs = append(errs, s.tracer.Shutdown(ctx))
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.Shutdown(ctx))
	}
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.logger != nil {
		_ = s.logger.Shutdown(ctx)
	}
	return errors.Join(errs...)
}

// loadStack loads the route file named by opts and builds its stack.
func loadStack(ctx context.Context, opts *rootOptions, telemetry bool, stdout, stderr io.Writer) (*stack, error) {
	f, err := config.LoadRouterFile(ctx, opts.sources()...)
	if err != nil {
		return nil, err
	}
	return newStack(ctx, f, telemetry, stdout, stderr)
}

// requestIDAttrs adds the ID assigned by the requestid middleware to
// access records.
func requestIDAttrs(_ context.Context, req *router.Request) []slog.Attr {
	if id := requestid.FromRequest(req.HTTP); id != "" {
		return []slog.Attr{slog.String("request_id", id)}
	}
	return nil
}

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

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"moor.dev/moor/cache"
	"moor.dev/moor/logging"
	"moor.dev/moor/metrics"
	"moor.dev/moor/router"
	"moor.dev/moor/router/route"
	"moor.dev/moor/tracing"
)

// RouterFileSchema is the JSON Schema every route file is validated
// against.
//
//go:embed schema.json
var RouterFileSchema []byte

// RouterFile is a route file: router settings, the route table and the
// observability settings of the command line tool.
//
//	prefix: /api
//	trailing_slash: remove
//	routes:
//	  - pattern: /invoices/:id
//	    callback: Invoices::show
//	    name: invoice
//	  - pattern: /:class/:method
//	    callback: "*::*"
type RouterFile struct {
	DefaultParamPattern  string      `config:"default_param_pattern"`
	CallbackParamPattern string      `config:"callback_param_pattern"`
	Prefix               string      `config:"prefix" validate:"omitempty,startswith=/"`
	Trace                bool        `config:"trace"`
	TrailingSlash        string      `config:"trailing_slash" default:"strict"`
	CacheKey             string      `config:"cache_key"`
	Routes               []RouteSpec `config:"routes" validate:"dive"`

	Logging LoggingSection `config:"logging"`
	Metrics MetricsSection `config:"metrics"`
	Tracing TracingSection `config:"tracing"`
	Redis   RedisSection   `config:"redis"`
}

// RouteSpec is one route of a route file. Callback is the default target;
// Methods maps HTTP methods, or "*", to callbacks.
type RouteSpec struct {
	Pattern   string            `config:"pattern" validate:"required"`
	Callback  string            `config:"callback"`
	Methods   map[string]string `config:"methods" validate:"dive,keys,required,endkeys,required"`
	Overrides map[string]string `config:"overrides" validate:"dive,keys,required,endkeys"`
	Name      string            `config:"name"`
}

// LoggingSection configures the logger.
type LoggingSection struct {
	Level         string        `config:"level" default:"info"`
	Format        string        `config:"format" default:"json"`
	Service       string        `config:"service"`
	Access        bool          `config:"access"`
	SlowThreshold time.Duration `config:"slow_threshold" validate:"gte=0"`
	Redact        []string      `config:"redact" validate:"dive,required"`
}

// MetricsSection configures dispatch metrics.
type MetricsSection struct {
	Enabled      bool     `config:"enabled"`
	Provider     string   `config:"provider" default:"prometheus"`
	Addr         string   `config:"addr"`
	Path         string   `config:"path" default:"/metrics" validate:"omitempty,startswith=/"`
	Endpoint     string   `config:"endpoint"`
	ExcludePaths []string `config:"exclude_paths"`
}

// TracingSection configures dispatch tracing.
type TracingSection struct {
	Enabled      bool     `config:"enabled"`
	Provider     string   `config:"provider" default:"noop"`
	Endpoint     string   `config:"endpoint"`
	Insecure     bool     `config:"insecure"`
	SampleRate   *float64 `config:"sample_rate" validate:"omitempty,gte=0,lte=1"`
	ExcludePaths []string `config:"exclude_paths"`
}

// RedisSection locates the Redis server holding compiled route tables.
type RedisSection struct {
	Addr     string        `config:"addr" validate:"omitempty,hostname_port"`
	Password string        `config:"password"`
	DB       int           `config:"db" validate:"gte=0"`
	Prefix   string        `config:"prefix" default:"moor:"`
	TTL      time.Duration `config:"ttl" validate:"gte=0"`
}

// Validate checks the validate tags of the file and what the schema
// cannot: that the trailing slash policy and logging settings parse.
func (f *RouterFile) Validate() error {
	errs := checkTags(f)
	if _, err := router.ParseTrailingSlash(f.TrailingSlash); err != nil {
		errs = append(errs, fmt.Errorf("trailing_slash %q: %w", f.TrailingSlash, err))
	}
	if _, err := logging.ParseLevel(f.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if _, err := logging.ParseHandlerType(f.Logging.Format); err != nil {
		errs = append(errs, fmt.Errorf("logging.format: %w", err))
	}
	for i, rt := range f.Routes {
		if rt.Callback == "" && len(rt.Methods) == 0 {
			errs = append(errs, fmt.Errorf("routes[%d] %q: no callback and no methods", i, rt.Pattern))
		}
	}
	return errors.Join(errs...)
}

// tagValidator names fields by their config tags, so errors read like the
// route file: "routes[1].pattern".
var tagValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("config"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

func checkTags(f *RouterFile) []error {
	err := tagValidator().Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{err}
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		check := fe.Tag()
		if fe.Param() != "" {
			check += "=" + fe.Param()
		}
		errs = append(errs, fmt.Errorf("%s: %w: fails %s", field, ErrInvalidField, check))
	}
	return errs
}

// LoadRouterFile loads, validates and binds a route file from the sources
// in opts.
//
//	f, err := config.LoadRouterFile(ctx,
//	    config.WithFile("routes.yaml"),
//	    config.WithEnv("MOOR_"),
//	)
func LoadRouterFile(ctx context.Context, opts ...Option) (*RouterFile, error) {
	var f RouterFile
	opts = append(opts, WithJSONSchema(RouterFileSchema), WithBinding(&f))

	cfg, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	return &f, nil
}

// Options returns the router options of f. When store is not nil and f
// names a cache key, compiled tables are cached in store.
func Options(f *RouterFile, store cache.Store) ([]router.Option, error) {
	policy, err := router.ParseTrailingSlash(f.TrailingSlash)
	if err != nil {
		return nil, fmt.Errorf("trailing_slash %q: %w", f.TrailingSlash, err)
	}

	opts := []router.Option{
		router.WithTrace(f.Trace),
		router.WithTrailingSlash(policy),
	}
	if f.DefaultParamPattern != "" {
		opts = append(opts, router.WithDefaultParamPattern(f.DefaultParamPattern))
	}
	if f.CallbackParamPattern != "" {
		opts = append(opts, router.WithCallbackParamPattern(f.CallbackParamPattern))
	}
	if f.Prefix != "" {
		opts = append(opts, router.WithPrefix(f.Prefix))
	}
	if store != nil && f.CacheKey != "" {
		opts = append(opts, router.WithCache(store, f.CacheKey))
	}
	return opts, nil
}

// Apply registers the routes of f on r, in file order. Every failed
// registration is reported.
func Apply(f *RouterFile, r *router.Router) error {
	var errs []error
	for i, rt := range f.Routes {
		var target route.Target
		if rt.Callback != "" {
			target = rt.Callback
		}

		var opts []route.Option
		if len(rt.Methods) > 0 {
			methods := make(map[string]route.Target, len(rt.Methods))
			for m, cb := range rt.Methods {
				methods[m] = cb
			}
			opts = append(opts, route.WithMethods(methods))
		}
		if len(rt.Overrides) > 0 {
			opts = append(opts, route.WithOverrides(rt.Overrides))
		}
		if rt.Name != "" {
			opts = append(opts, route.WithName(rt.Name))
		}

		if _, err := r.Register(route.NewDefinition(rt.Pattern, target, opts...)); err != nil {
			errs = append(errs, fmt.Errorf("routes[%d] %q: %w", i, rt.Pattern, err))
		}
	}
	return errors.Join(errs...)
}

// Options returns the logger options of the section, writing to w.
func (s LoggingSection) Options(w io.Writer) ([]logging.Option, error) {
	level, err := logging.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	handler, err := logging.ParseHandlerType(s.Format)
	if err != nil {
		return nil, err
	}

	opts := []logging.Option{
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithHandlerType(handler),
	}
	if s.Service != "" {
		opts = append(opts, logging.WithServiceName(s.Service))
	}
	if len(s.Redact) > 0 {
		opts = append(opts, logging.WithRedactKeys(s.Redact...))
	}
	return opts, nil
}

// AccessOptions returns the access log options of the section.
func (s LoggingSection) AccessOptions() []logging.AccessOption {
	var opts []logging.AccessOption
	if s.SlowThreshold > 0 {
		opts = append(opts, logging.WithSlowThreshold(s.SlowThreshold))
	}
	return opts
}

// Options returns the metrics options of the section. stdout receives the
// stdout provider's output.
func (s MetricsSection) Options(stdout io.Writer) ([]metrics.Option, error) {
	var opts []metrics.Option
	switch metrics.Provider(s.Provider) {
	case metrics.PrometheusProvider, "":
		opts = append(opts, metrics.WithPrometheus(s.Addr, s.Path))
	case metrics.OTLPProvider:
		opts = append(opts, metrics.WithOTLP(s.Endpoint))
	case metrics.StdoutProvider:
		opts = append(opts, metrics.WithStdout(stdout))
	default:
		return nil, fmt.Errorf("%w: %s", metrics.ErrInvalidProvider, s.Provider)
	}
	if len(s.ExcludePaths) > 0 {
		opts = append(opts, metrics.WithExcludePaths(s.ExcludePaths...))
	}
	return opts, nil
}

// Options returns the tracing options of the section. stdout receives the
// stdout provider's output.
func (s TracingSection) Options(stdout io.Writer) ([]tracing.Option, error) {
	var opts []tracing.Option
	switch tracing.Provider(s.Provider) {
	case tracing.NoopProvider, "":
		opts = append(opts, tracing.WithNoop())
	case tracing.StdoutProvider:
		opts = append(opts, tracing.WithStdout(stdout))
	case tracing.OTLPProvider:
		opts = append(opts, tracing.WithOTLP(s.Endpoint, s.Insecure))
	case tracing.OTLPHTTPProvider:
		opts = append(opts, tracing.WithOTLPHTTP(s.Endpoint))
	default:
		return nil, fmt.Errorf("%w: %s", tracing.ErrInvalidProvider, s.Provider)
	}
	if s.SampleRate != nil {
		opts = append(opts, tracing.WithSampleRate(*s.SampleRate))
	}
	if len(s.ExcludePaths) > 0 {
		opts = append(opts, tracing.WithExcludePaths(s.ExcludePaths...))
	}
	return opts, nil
}

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
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"

	"moor.dev/moor/config/codec"
	"moor.dev/moor/config/dumper"
	"moor.dev/moor/config/source"
)

// Sentinel errors.
var (
	ErrNilSource     = errors.New("source cannot be nil")
	ErrNilDumper     = errors.New("dumper cannot be nil")
	ErrBindingTarget = errors.New("binding target must be a non-nil pointer")
	ErrUnknownFormat = errors.New("unknown configuration format")
	ErrInvalidField  = errors.New("invalid field")
)

// Source loads configuration values. Keys are matched case-insensitively.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Dumper writes configuration values.
type Dumper interface {
	Dump(ctx context.Context, values map[string]any) error
}

// Validator is implemented by binding targets that check themselves after
// binding.
type Validator interface {
	Validate() error
}

// Option configures a [Config].
type Option func(c *Config) error

// Config merges values from its sources, in order, each source overriding
// the ones before it. It is safe for concurrent use.
type Config struct {
	mu      sync.RWMutex
	values  map[string]any
	sources []Source
	dumpers []Dumper

	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
}

// WithSource adds a source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return ErrNilSource
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile adds a file source. The format comes from the extension: .yaml,
// .yml, .json or .toml. Environment variables in path are expanded.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		return WithFileAs(path, format)(c)
	}
}

// WithFileAs adds a file source decoded with the given codec.
func WithFileAs(path string, format codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewFile(os.ExpandEnv(path), decoder))
		return nil
	}
}

// WithContent adds data decoded with the given codec as a source.
//
//	cfg := config.MustNew(config.WithContent([]byte("prefix: /api"), codec.TypeYAML))
func WithContent(data []byte, format codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewContent(data, decoder))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix as a source.
// A double underscore nests keys: MOOR_LOGGING__LEVEL is logging.level.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithConsul adds a Consul KV key as a source, with the format taken from
// the key's extension. It is skipped when CONSUL_HTTP_ADDR is not set, so
// the same options work on machines without Consul.
func WithConsul(key string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		format, err := detectFormat(key)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("consul-source", "get-decoder", err)
		}
		src, err := source.NewConsul(os.ExpandEnv(key), decoder, nil)
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFileDumper writes the values to path on [Config.Dump], in the format
// of its extension.
func WithFileDumper(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-dumper", "detect-format", err)
		}
		encoder, err := codec.GetEncoder(format)
		if err != nil {
			return NewError("file-dumper", "get-encoder", err)
		}
		c.dumpers = append(c.dumpers, dumper.NewFile(path, encoder))
		return nil
	}
}

// WithDumper adds a dumper.
func WithDumper(d Dumper) Option {
	return func(c *Config) error {
		if d == nil {
			return ErrNilDumper
		}
		c.dumpers = append(c.dumpers, d)
		return nil
	}
}

// WithBinding decodes the values into v, a pointer to a struct, on every
// [Config.Load]. Fields are matched by the "config" tag; zero fields take
// their "default" tag. A v implementing [Validator] is validated.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil || reflect.TypeOf(v).Kind() != reflect.Pointer {
			return ErrBindingTarget
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used by binding.
func WithTag(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return errors.New("tag name cannot be empty")
		}
		c.tagName = name
		return nil
	}
}

// WithJSONSchema validates the merged values against schema on every load.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", doc); err != nil {
			return NewError("json-schema", "compile", err)
		}
		compiled, err := compiler.Compile("schema.json")
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = compiled
		return nil
	}
}

// WithValidator adds a check on the merged values.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
		return nil
	}
}

// New returns a [Config]. Option errors are joined.
func New(opts ...Option) (*Config, error) {
	c := &Config{values: map[string]any{}, tagName: "config"}

	var errs []error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// Load reads every source, merges, validates and binds the values. The
// values are replaced only when every step succeeds.
func (c *Config) Load(ctx context.Context) error {
	values, err := c.loadSources(ctx)
	if err != nil {
		return err
	}

	if c.schema != nil {
		if err := c.schema.Validate(values); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.validators {
		if err := runValidator(fn, values); err != nil {
			return NewError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		if err := c.bind(values); err != nil {
			return err
		}
	}
	c.values = values
	return nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := fmt.Sprintf("source[%d]", i)
		if s, ok := src.(fmt.Stringer); ok {
			name += " " + s.String()
		}

		values, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(name, "load", err)
		}
		if err := mergo.Map(&merged, normalizeKeys(values), mergo.WithOverride); err != nil {
			return nil, NewError(name, "merge", err)
		}
	}
	return merged, nil
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(values)
}

// bind decodes values into a fresh value of the binding type and copies
// it over the target only when decoding and validation succeed.
func (c *Config) bind(values map[string]any) error {
	target := reflect.ValueOf(c.binding).Elem()
	fresh := reflect.New(target.Type())

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           fresh.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return NewError("binding", "bind", err)
	}
	if err := decoder.Decode(values); err != nil {
		return NewError("binding", "bind", err)
	}
	if fresh.Elem().Kind() == reflect.Struct {
		if err := setDefaults(fresh.Elem()); err != nil {
			return NewError("binding", "defaults", err)
		}
	}
	if v, ok := fresh.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	target.Set(fresh.Elem())
	return nil
}

// Dump writes the current values to every dumper.
func (c *Config) Dump(ctx context.Context) error {
	values := c.Values()
	for _, d := range c.dumpers {
		if err := d.Dump(ctx, values); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}
	return nil
}

// Values returns a shallow copy of the loaded values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// normalizeKeys lower-cases map keys recursively. Maps inside lists keep
// their keys, so route definitions are left as written.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// setDefaults fills zero fields from their "default" tag, recursing into
// nested structs.
func setDefaults(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field, sf := v.Field(i), t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		}
		def, ok := sf.Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setDefault(field, def); err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
	}
	return nil
}

func setDefault(field reflect.Value, def string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(def)
	case reflect.Bool:
		b, err := cast.ToBoolE(def)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := cast.ToDurationE(def)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := cast.ToInt64E(def)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(def)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(def)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported default for %s", field.Type())
		}
		field.Set(reflect.ValueOf(cast.ToStringSlice(strings.Split(def, ","))))
	default:
		return fmt.Errorf("unsupported default for %s", field.Type())
	}
	return nil
}

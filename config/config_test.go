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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moor.dev/moor/config/codec"
	"moor.dev/moor/config/dumper"
)

func TestConfig_MergeOrder(t *testing.T) {
	t.Parallel()

	cfg := MustNew(
		WithSource(TestSource(map[string]any{
			"prefix": "/api",
			"logging": map[string]any{
				"level":  "info",
				"format": "json",
			},
		})),
		WithSource(TestSource(map[string]any{
			"Prefix": "/v2",
			"LOGGING": map[string]any{
				"Level": "debug",
			},
		})),
	)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, "/v2", cfg.String("prefix"))
	assert.Equal(t, "debug", cfg.String("logging.level"))
	assert.Equal(t, "json", cfg.String("Logging.Format"), "nested keys merge instead of replacing the section")
}

func TestConfig_NewErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{name: "nil source", opt: WithSource(nil), want: ErrNilSource},
		{name: "nil dumper", opt: WithDumper(nil), want: ErrNilDumper},
		{name: "unknown extension", opt: WithFile("routes.ini"), want: ErrUnknownFormat},
		{name: "unknown dumper extension", opt: WithFileDumper("routes.xml"), want: ErrUnknownFormat},
		{name: "binding by value", opt: WithBinding(struct{}{}), want: ErrBindingTarget},
		{name: "binding nil", opt: WithBinding(nil), want: ErrBindingTarget},
		{name: "unknown codec", opt: WithContent(nil, "ini"), want: codec.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := New(tt.opt)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_NewJoinsErrors(t *testing.T) {
	t.Parallel()

	_, err := New(WithSource(nil), WithDumper(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilSource)
	assert.ErrorIs(t, err, ErrNilDumper)

	assert.Panics(t, func() { MustNew(WithSource(nil)) })
}

func TestConfig_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cfg := MustNew(
		WithSource(TestSource(map[string]any{"prefix": "/api"})),
		WithSource(TestSourceWithError(boom)),
	)

	err := cfg.Load(context.Background())
	require.ErrorIs(t, err, boom)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "source[1]", cfgErr.Source)
	assert.Equal(t, "load", cfgErr.Operation)
	assert.False(t, cfg.Has("prefix"), "values are kept only when loading succeeds")
}

func TestConfig_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := MustNew(WithSource(TestSource(map[string]any{"prefix": "/api"})))
	assert.ErrorIs(t, cfg.Load(ctx), context.Canceled)
}

type bindTarget struct {
	Prefix  string        `config:"prefix"`
	Timeout time.Duration `config:"timeout"`
	Level   string        `config:"level" default:"info"`
	Retries int           `config:"retries" default:"3"`
	Tags    []string      `config:"tags"`
}

func (b *bindTarget) Validate() error {
	if b.Prefix == "/forbidden" {
		return errors.New("forbidden prefix")
	}
	return nil
}

func TestConfig_Binding(t *testing.T) {
	t.Parallel()

	var target bindTarget
	cfg := MustNew(
		WithSource(TestSource(map[string]any{
			"prefix":  "/api",
			"timeout": "1500ms",
			"tags":    "a,b",
		})),
		WithBinding(&target),
	)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, bindTarget{
		Prefix:  "/api",
		Timeout: 1500 * time.Millisecond,
		Level:   "info",
		Retries: 3,
		Tags:    []string{"a", "b"},
	}, target)
}

func TestConfig_BindingValidatorKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	values := map[string]any{"prefix": "/api"}
	src := &staticSource{values: values}

	var target bindTarget
	cfg := MustNew(WithSource(src), WithBinding(&target))
	require.NoError(t, cfg.Load(context.Background()))
	require.Equal(t, "/api", target.Prefix)

	src.values = map[string]any{"prefix": "/forbidden"}
	err := cfg.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden prefix")
	assert.Equal(t, "/api", target.Prefix)
	assert.Equal(t, "/api", cfg.String("prefix"))
}

func TestConfig_CustomTag(t *testing.T) {
	t.Parallel()

	var target struct {
		Prefix string `moor:"prefix"`
	}
	cfg := MustNew(
		WithSource(TestSource(map[string]any{"prefix": "/api"})),
		WithTag("moor"),
		WithBinding(&target),
	)
	require.NoError(t, cfg.Load(context.Background()))
	assert.Equal(t, "/api", target.Prefix)

	_, err := New(WithTag(""))
	assert.Error(t, err)
}

func TestConfig_JSONSchema(t *testing.T) {
	t.Parallel()

	schema := []byte(`{
		"type": "object",
		"properties": {"prefix": {"type": "string", "pattern": "^/"}},
		"required": ["prefix"]
	}`)

	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{name: "valid", values: map[string]any{"prefix": "/api"}},
		{name: "missing", values: map[string]any{}, wantErr: true},
		{name: "relative prefix", values: map[string]any{"prefix": "api"}, wantErr: true},
		{name: "wrong type", values: map[string]any{"prefix": 12}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := MustNew(WithSource(TestSource(tt.values)), WithJSONSchema(schema))
			err := cfg.Load(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "json-schema", cfgErr.Source)
		})
	}

	_, err := New(WithJSONSchema([]byte("{")))
	assert.Error(t, err)
}

func TestConfig_Validators(t *testing.T) {
	t.Parallel()

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		cfg := MustNew(
			WithSource(TestSource(map[string]any{"trace": true})),
			WithValidator(func(values map[string]any) error {
				if values["trace"] == true {
					return errors.New("trace is not allowed here")
				}
				return nil
			}),
		)
		err := cfg.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validator[0]")
	})

	t.Run("panic", func(t *testing.T) {
		t.Parallel()

		cfg := MustNew(
			WithSource(TestSource(map[string]any{})),
			WithValidator(func(map[string]any) error { panic("bad validator") }),
		)
		err := cfg.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad validator")
	})
}

func TestConfig_FileSources(t *testing.T) {
	t.Parallel()

	yamlPath := TestFile(t, "base.yaml", "prefix: /api\nlogging:\n  level: info\n")
	tomlPath := TestFile(t, "override.toml", "[logging]\nlevel = \"warn\"\n")

	cfg := MustNew(WithFile(yamlPath), WithFile(tomlPath))
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, "/api", cfg.String("prefix"))
	assert.Equal(t, "warn", cfg.String("logging.level"))
}

func TestConfig_MissingFile(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
	err := cfg.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Env(t *testing.T) {
	t.Setenv("MOORTEST_PREFIX", "/env")
	t.Setenv("MOORTEST_LOGGING__LEVEL", "error")
	t.Setenv("MOORTEST_REDIS__DB", "2")

	cfg := MustNew(
		WithContent([]byte("prefix: /api\nlogging:\n  level: info\n  format: text\n"), codec.TypeYAML),
		WithEnv("MOORTEST_"),
	)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, "/env", cfg.String("prefix"))
	assert.Equal(t, "error", cfg.String("logging.level"))
	assert.Equal(t, "text", cfg.String("logging.format"))
	assert.Equal(t, 2, cfg.Int("redis.db"))
}

func TestConfig_ConsulSkippedWithoutAddress(t *testing.T) {
	t.Setenv("CONSUL_HTTP_ADDR", "")

	cfg, err := New(WithConsul("moor/routes.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))
	assert.Empty(t, cfg.Values())
}

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithContent([]byte(`
trace: true
redis:
  db: 3
  ttl: 90s
tracing:
  sample_rate: 0.5
  exclude_paths: [/healthz, /metrics]
`), codec.TypeYAML))
	require.NoError(t, cfg.Load(context.Background()))

	assert.True(t, cfg.Bool("trace"))
	assert.Equal(t, 3, cfg.Int("redis.db"))
	assert.Equal(t, 90*time.Second, cfg.Duration("redis.ttl"))
	assert.InDelta(t, 0.5, cfg.Float64("tracing.sample_rate"), 1e-9)
	assert.Equal(t, []string{"/healthz", "/metrics"}, cfg.StringSlice("tracing.exclude_paths"))
	assert.Contains(t, cfg.StringMap("redis"), "db")

	assert.True(t, cfg.Has("redis.db"))
	assert.False(t, cfg.Has("redis.addr"))
	assert.False(t, cfg.Has("trace.enabled"), "scalars have no children")
	assert.Equal(t, "fallback", cfg.StringOr("prefix", "fallback"))
	assert.Nil(t, cfg.Get("missing"))
}

func TestConfig_Dump(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "dump.yaml")

	cfg := MustNew(
		WithSource(TestSource(map[string]any{"prefix": "/api"})),
		WithDumper(dumper.NewWriter(&buf, codec.JSONCodec{})),
		WithFileDumper(path),
	)
	require.NoError(t, cfg.Load(context.Background()))
	require.NoError(t, cfg.Dump(context.Background()))

	assert.JSONEq(t, `{"prefix": "/api"}`, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prefix: /api")
}

func TestConfig_ValuesIsCopy(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithSource(TestSource(map[string]any{"prefix": "/api"})))
	require.NoError(t, cfg.Load(context.Background()))

	values := cfg.Values()
	values["prefix"] = "/changed"
	assert.Equal(t, "/api", cfg.String("prefix"))
}

func TestError(t *testing.T) {
	t.Parallel()

	inner := errors.New("bad")
	err := NewFieldError("binding", "prefix", "bind", inner)
	assert.Equal(t, "config error in binding.prefix during bind: bad", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "config error in json-schema during validate: bad", NewError("json-schema", "validate", inner).Error())
}

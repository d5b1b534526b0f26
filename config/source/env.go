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

package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"moor.dev/moor/config/codec"
)

// Env loads configuration from environment variables starting with a
// prefix. The prefix is removed and the rest is decoded with
// [codec.EnvCodec]:
//
//	MOOR_PREFIX=/api         ->  prefix = "/api"
//	MOOR_LOGGING__LEVEL=warn ->  logging.level = "warn"
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv returns a source for variables starting with prefix.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, environ: os.Environ}
}

// Load implements config.Source.
func (e *Env) Load(context.Context) (map[string]any, error) {
	var lines []string
	for _, kv := range e.environ() {
		if rest, ok := strings.CutPrefix(kv, e.prefix); ok {
			lines = append(lines, rest)
		}
	}

	var values map[string]any
	if err := (codec.EnvCodec{}).Decode([]byte(strings.Join(lines, "\n")), &values); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return values, nil
}

// String names the source in errors.
func (e *Env) String() string {
	return "env:" + e.prefix
}

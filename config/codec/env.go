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

package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// TypeEnv is the environment variable codec.
const TypeEnv Type = "env"

// EnvSeparator separates nesting levels in variable names. A single
// underscore stays part of the key, so TRAILING_SLASH is trailing_slash.
const EnvSeparator = "__"

// ErrEncodeEnv is returned by [EnvCodec.Encode].
var ErrEncodeEnv = errors.New("encoding to environment variables is not supported")

func init() {
	RegisterDecoder(TypeEnv, EnvCodec{})
}

// EnvCodec decodes KEY=value lines into a nested map. Keys are lower-cased
// and split on [EnvSeparator]:
//
//	LOGGING__LEVEL=debug  ->  logging.level = "debug"
//	TRACE=true            ->  trace = true
//
// Values that read as booleans or decimal numbers are converted, so they
// validate against typed schemas. Everything else stays a string.
type EnvCodec struct{}

// Encode always fails with [ErrEncodeEnv].
func (EnvCodec) Encode(any) ([]byte, error) {
	return nil, ErrEncodeEnv
}

// Decode implements [Decoder]. v must be a *map[string]any.
func (EnvCodec) Decode(data []byte, v any) error {
	out, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("env codec: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(strings.TrimSpace(key)), EnvSeparator) {
			if p = strings.Trim(p, "_"); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = inferValue(strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("env codec: %w", err)
	}

	*out = conf
	return nil
}

// numeric matches plain decimal numbers without leading zeros.
var numeric = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// inferValue converts "true", "false" and plain decimal numbers. Anything
// else, including numbers with leading zeros, stays a string.
func inferValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "false":
		return cast.ToBool(s)
	}
	if !numeric.MatchString(s) {
		return s
	}
	if !strings.Contains(s, ".") {
		if n, err := cast.ToInt64E(s); err == nil {
			return n
		}
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return f
	}
	return s
}

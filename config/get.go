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
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at a dot-separated, case-insensitive path, or nil.
//
//	cfg.Get("logging.level")
func (c *Config) Get(path string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var current any = c.values
	for _, key := range strings.Split(strings.ToLower(path), ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[key]; !ok {
			return nil
		}
	}
	return current
}

// Has reports whether path is set.
func (c *Config) Has(path string) bool {
	return c.Get(path) != nil
}

// String returns the value at path as a string.
func (c *Config) String(path string) string { return cast.ToString(c.Get(path)) }

// Bool returns the value at path as a bool.
func (c *Config) Bool(path string) bool { return cast.ToBool(c.Get(path)) }

// Int returns the value at path as an int.
func (c *Config) Int(path string) int { return cast.ToInt(c.Get(path)) }

// Float64 returns the value at path as a float64.
func (c *Config) Float64(path string) float64 { return cast.ToFloat64(c.Get(path)) }

// Duration returns the value at path as a duration.
func (c *Config) Duration(path string) time.Duration { return cast.ToDuration(c.Get(path)) }

// StringSlice returns the value at path as a string slice.
func (c *Config) StringSlice(path string) []string { return cast.ToStringSlice(c.Get(path)) }

// StringMap returns the value at path as a map.
func (c *Config) StringMap(path string) map[string]any { return cast.ToStringMap(c.Get(path)) }

// StringOr returns the value at path as a string, or def when unset.
func (c *Config) StringOr(path, def string) string {
	if v := c.Get(path); v != nil {
		return cast.ToString(v)
	}
	return def
}

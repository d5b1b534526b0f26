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
	"os"
	"path/filepath"
	"testing"
)

type staticSource struct {
	values map[string]any
	err    error
}

func (s *staticSource) Load(context.Context) (map[string]any, error) {
	return s.values, s.err
}

// TestSource returns a source loading values.
func TestSource(values map[string]any) Source {
	return &staticSource{values: values}
}

// TestSourceWithError returns a source failing with err.
func TestSourceWithError(err error) Source {
	return &staticSource{err: err}
}

// TestFile writes content to a file called name in a test directory and
// returns its path.
func TestFile(t testing.TB, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("TestFile: %v", err)
	}
	return path
}

// TestRouterFile loads a route file from content in the format of name's
// extension.
func TestRouterFile(t testing.TB, name string, content string) *RouterFile {
	t.Helper()

	f, err := LoadRouterFile(context.Background(), WithFile(TestFile(t, name, content)))
	if err != nil {
		t.Fatalf("TestRouterFile: %v", err)
	}
	return f
}

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

package compiler

import "sync"

// testParamWriter is a ParamWriter used by tests.
// It records parameters by key and by capture index.
type testParamWriter struct {
	mu      sync.Mutex
	params  map[string]string
	indexes map[string]int
	count   int32
}

func (m *testParamWriter) SetParam(index int, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.params == nil {
		m.params = make(map[string]string)
		m.indexes = make(map[string]int)
	}
	m.params[key] = value
	m.indexes[key] = index
}

func (m *testParamWriter) SetParamCount(count int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = count
}

// get returns a parameter value by key.
func (m *testParamWriter) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.params[key]
	return v, ok
}

func (m *testParamWriter) index(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.indexes[key]; ok {
		return i
	}
	return -1
}

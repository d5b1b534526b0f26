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

// Package cache stores compiled route tables between process starts.
//
// The router asks a Store for an entry named after the configured cache key
// and the fingerprint of its route definitions. A hit skips pattern parsing;
// a miss compiles normally and writes the result back. Entries are opaque
// byte slices produced by the router, so any key value store can serve.
//
//	store := cache.NewMemory(cache.WithTTL(time.Hour))
//	r := router.MustNew(router.WithCache(store, "billing"))
package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrEmptyKey is returned when a Store is asked for the empty key.
var ErrEmptyKey = errors.New("cache: empty key")

// Store persists compiled route tables.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key, replacing any previous entry.
	Set(ctx context.Context, key string, data []byte) error
}

// Memory is an in-process Store.
// It is useful in tests and when several routers in one process share a
// route file.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type entry struct {
	data    []byte
	expires time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithTTL expires entries d after they were set. Zero keeps them forever.
func WithTTL(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.ttl = d
	}
}

// WithMaxEntries evicts the oldest entry once more than n are stored.
// Zero means no limit.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxEntries = n
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Get implements Store. The returned slice is a copy.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.removeLocked(key)
		return nil, false, nil
	}

	return append([]byte(nil), e.data...), true, nil
}

// Set implements Store. data is copied.
func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	e := entry{data: append([]byte(nil), data...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		m.removeLocked(key)
	}
	m.entries[key] = e
	m.order = append(m.order, key)

	for m.maxEntries > 0 && len(m.order) > m.maxEntries {
		m.removeLocked(m.order[0])
	}

	return nil
}

// Delete removes the entry stored under key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *Memory) removeLocked(key string) {
	delete(m.entries, key)
	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

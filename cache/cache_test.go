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

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "billing:00000000000000ff")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`[{"source":"/invoices/:id"}]`)
	require.NoError(t, m.Set(ctx, "billing:00000000000000ff", payload))

	payload[0] = 'X'

	got, ok, err := m.Get(ctx, "billing:00000000000000ff")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte('['), got[0], "stored data is copied on Set")

	got[1] = 'Y'
	again, _, _ := m.Get(ctx, "billing:00000000000000ff")
	assert.Equal(t, byte('{'), again[1], "returned data is copied on Get")
}

func TestMemory_EmptyKey(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	_, _, err := m.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyKey)
	require.ErrorIs(t, m.Set(context.Background(), "", nil), ErrEmptyKey)
}

func TestMemory_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v")))

	now = now.Add(59 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "expired entries are dropped on read")
}

func TestMemory_MaxEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(WithMaxEntries(2))

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Set(ctx, "a", []byte("3")))
	require.NoError(t, m.Set(ctx, "c", []byte("4")))

	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok, "b is the oldest write")

	got, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), got)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v")))

	m.Delete("k")
	m.Delete("missing")

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(WithMaxEntries(8))

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%10)
			assert.NoError(t, m.Set(ctx, key, []byte(key)))
			if got, ok, err := m.Get(ctx, key); err == nil && ok {
				assert.Equal(t, key, string(got))
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, m.Len(), 8)
}

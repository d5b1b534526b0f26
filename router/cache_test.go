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

//go:build !integration

package router

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moor.dev/moor/cache"
)

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store offline")
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("store offline")
}

func billingRouter(t *testing.T, opts ...Option) (*Router, *diagnosticLog) {
	t.Helper()

	diags := &diagnosticLog{}
	r, err := New(append(opts, WithDiagnostics(diags))...)
	require.NoError(t, err)

	r.Map("/invoices/:id(\\d+)/send", `Billing\Invoice::send`)
	r.Map("/reports/@name", `Reports\@name(uc)::show`)
	r.Map("/:class/:method", "*::*")

	return r, diags
}

func TestCompileCache_MissThenHit(t *testing.T) {
	t.Parallel()

	store := cache.NewMemory()

	first, diags := billingRouter(t, WithCache(store, "billing"))
	require.NoError(t, first.Compile())
	assert.Contains(t, diags.kinds(), DiagCacheMiss)
	assert.Equal(t, 1, store.Len())

	key := cacheKey("billing", first.table.Fingerprint())
	_, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	second, diags := billingRouter(t, WithCache(store, "billing"))
	var sent string
	second.BindFunc(`Billing\Invoice::send`, func(c *Context) { sent = c.Param("id") })
	require.NoError(t, second.Compile())
	assert.Contains(t, diags.kinds(), DiagCacheHit)
	assert.NotContains(t, diags.kinds(), DiagCacheMiss)

	dispatch(t, second, http.MethodGet, "/invoices/7/send")
	assert.Equal(t, "7", sent)

	u, err := second.LinkTo(`Reports\MonthlySales::show`, nil)
	require.NoError(t, err)
	assert.Equal(t, "/reports/monthly_sales", u)

	firstInfos, err := first.Routes()
	require.NoError(t, err)
	secondInfos, err := second.Routes()
	require.NoError(t, err)
	assert.Equal(t, firstInfos, secondInfos)
}

func TestCompileCache_ChangedTableMisses(t *testing.T) {
	t.Parallel()

	store := cache.NewMemory()

	first, _ := billingRouter(t, WithCache(store, "billing"))
	require.NoError(t, first.Compile())

	second, diags := billingRouter(t, WithCache(store, "billing"))
	second.Map("/extra", "Extra::index")
	require.NoError(t, second.Compile())

	assert.Contains(t, diags.kinds(), DiagCacheMiss)
	assert.Equal(t, 2, store.Len())
}

func TestCompileCache_CorruptEntry(t *testing.T) {
	t.Parallel()

	store := cache.NewMemory()
	r, diags := billingRouter(t, WithCache(store, "billing"))
	key := cacheKey("billing", r.table.Fingerprint())
	require.NoError(t, store.Set(context.Background(), key, []byte("not json")))

	require.NoError(t, r.Compile())

	assert.Contains(t, diags.kinds(), DiagCacheError)
	data, _, _ := store.Get(context.Background(), key)
	assert.NotEqual(t, []byte("not json"), data, "the entry is rewritten after compiling")
	assert.True(t, dispatch(t, r, http.MethodGet, "/invoices/1/send").Attempts > 0)
}

func TestCompileCache_StoreFailure(t *testing.T) {
	t.Parallel()

	r, diags := billingRouter(t, WithCache(failingStore{}, "billing"))

	require.NoError(t, r.Compile(), "cache failures never fail compilation")

	errorsSeen := 0
	for _, k := range diags.kinds() {
		if k == DiagCacheError {
			errorsSeen++
		}
	}
	assert.Equal(t, 2, errorsSeen, "read and write failures are both reported")
}

func TestCompileCache_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := New(WithCache(cache.NewMemory(), ""))
	require.ErrorIs(t, err, ErrCacheKeyEmpty)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "billing:00000000000000ff", cacheKey("billing", 0xff))
}

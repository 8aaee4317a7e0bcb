/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/cache"
	"dirpx.dev/dpx/cache/strategy"
)

func newLRU(t *testing.T, capacity int) apis.Cache[string, int] {
	t.Helper()
	c, err := cache.New[string, int](capacity, strategy.LRU)
	require.NoError(t, err)
	return c
}

func TestLRUBasics(t *testing.T) {
	c := newLRU(t, 3)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	c.Put("b", 2)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())

	// Updating an existing key replaces the value without growing.
	c.Put("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRU(t, 2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRURemoveAndPurge(t *testing.T) {
	c := newLRU(t, 4)
	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"), "second removal reports absence")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)

	// The cache stays usable after a purge.
	c.Put("c", 3)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestDefaultCapacity(t *testing.T) {
	c, err := cache.New[int, int](0, strategy.LRU)
	require.NoError(t, err)

	for i := 0; i < cache.DefaultCapacity+5; i++ {
		c.Put(i, i)
	}
	assert.Equal(t, cache.DefaultCapacity, c.Len())
}

func TestNoneRetainsNothing(t *testing.T) {
	c, err := cache.New[string, int](8, strategy.None)
	require.NoError(t, err)

	c.Put("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Remove("a"))
	c.Purge()
}

func TestUnsupportedStrategies(t *testing.T) {
	_, err := cache.New[string, int](8, strategy.LFU)
	assert.ErrorIs(t, err, cache.ErrUnsupportedStrategy)

	_, err = cache.New[string, int](8, strategy.TTL)
	assert.ErrorIs(t, err, cache.ErrUnsupportedStrategy)

	_, err = cache.New[string, int](8, strategy.Strategy(42))
	assert.ErrorIs(t, err, cache.ErrUnsupportedStrategy)
}

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

// Package cache provides the bounded caches behind the dispatch tiers.
//
// The implementations here are deliberately not goroutine-safe: a Get is
// a mutation under recency-based policies, so the owning dispatchable
// serializes all access with its own lock rather than paying for a second
// layer of synchronization.
package cache

import (
	"container/list"
	"errors"
	"fmt"

	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/cache/strategy"
)

// DefaultCapacity is the per-tier capacity used when none is configured.
// A coarse guard against unbounded growth under exploratory workloads,
// not a performance-tuned constant.
const DefaultCapacity = 20

// ErrUnsupportedStrategy is returned for strategies no dispatch cache
// implements (LFU, TTL, or unknown values).
var ErrUnsupportedStrategy = errors.New("dpx(cache): unsupported cache strategy")

// New constructs a bounded cache with the given capacity and eviction
// strategy. Capacity zero or below falls back to DefaultCapacity. Only
// LRU and None are implemented; other strategies yield
// ErrUnsupportedStrategy.
func New[K comparable, V any](capacity int, strat strategy.Strategy) (apis.Cache[K, V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	switch strat {
	case strategy.LRU:
		return &lru[K, V]{
			capacity: capacity,
			order:    list.New(),
			items:    make(map[K]*list.Element, capacity),
		}, nil
	case strategy.None:
		return nop[K, V]{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, strat)
	}
}

// entry is one keyed value on the recency list.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// lru is a classic bounded LRU: a map into a recency-ordered list.
// Front is most recently used; eviction takes from the back.
type lru[K comparable, V any] struct {
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

// Get returns the value for key and bumps the entry to the front.
func (c *lru[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key at the front, evicting the least recently
// used entry when over capacity.
func (c *lru[K, V]) Put(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.order.Len() > c.capacity {
		back := c.order.Back()
		c.order.Remove(back)
		delete(c.items, back.Value.(*entry[K, V]).key)
	}
}

// Remove drops the entry for key if present.
func (c *lru[K, V]) Remove(key K) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

// Len returns the number of live entries.
func (c *lru[K, V]) Len() int {
	return c.order.Len()
}

// Purge drops all entries.
func (c *lru[K, V]) Purge() {
	c.order.Init()
	clear(c.items)
}

// nop is the pass-through cache for strategy.None: it retains nothing.
type nop[K comparable, V any] struct{}

func (nop[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}
func (nop[K, V]) Put(K, V)      {}
func (nop[K, V]) Remove(K) bool { return false }
func (nop[K, V]) Len() int      { return 0 }
func (nop[K, V]) Purge()        {}

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

package config

import (
	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/cache/strategy"
)

const (
	// DefaultMatchCacheCapacity bounds the structural match cache.
	// A coarse guard against unbounded growth under exploratory
	// workloads, not a performance-tuned constant.
	DefaultMatchCacheCapacity = 20
	// DefaultResolvedCacheCapacity bounds the priority-resolved cache.
	DefaultResolvedCacheCapacity = 20
)

// DefaultStrategy is the eviction policy used when none is configured.
var DefaultStrategy = strategy.LRU

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure capacities are valid.
	if cfg.MatchCacheCapacity <= 0 {
		cfg.MatchCacheCapacity = DefaultMatchCacheCapacity
	}
	if cfg.ResolvedCacheCapacity <= 0 {
		cfg.ResolvedCacheCapacity = DefaultResolvedCacheCapacity
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MatchCacheCapacity:    DefaultMatchCacheCapacity,
		ResolvedCacheCapacity: DefaultResolvedCacheCapacity,
		Strategy:              DefaultStrategy,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMatchCacheCapacity sets the tier-1 capacity.
// A non-positive value resets to the default.
func WithMatchCacheCapacity(capacity int) Option {
	return func(c *apis.Config) {
		if capacity <= 0 {
			c.MatchCacheCapacity = DefaultMatchCacheCapacity
			return
		}
		c.MatchCacheCapacity = capacity
	}
}

// WithResolvedCacheCapacity sets the tier-2 capacity.
// A non-positive value resets to the default.
func WithResolvedCacheCapacity(capacity int) Option {
	return func(c *apis.Config) {
		if capacity <= 0 {
			c.ResolvedCacheCapacity = DefaultResolvedCacheCapacity
			return
		}
		c.ResolvedCacheCapacity = capacity
	}
}

// WithStrategy sets the cache eviction strategy for both tiers.
func WithStrategy(s strategy.Strategy) Option {
	return func(c *apis.Config) {
		c.Strategy = s
	}
}

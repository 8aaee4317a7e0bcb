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

package apis

import (
	"dirpx.dev/dpx/cache/strategy"
)

// Config carries read-only dispatch knobs that influence a dispatchable.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// MatchCacheCapacity bounds the structural match cache (tier 1).
	// The cache maps canonical type tuples to ordered candidate lists.
	// Zero or negative values fall back to the package default.
	MatchCacheCapacity int

	// ResolvedCacheCapacity bounds the priority-resolved cache (tier 2).
	// The cache maps canonical type tuples to stamped final answers.
	// Zero or negative values fall back to the package default.
	ResolvedCacheCapacity int

	// Strategy selects the eviction policy used by both cache tiers.
	// LRU is the default; None disables caching (pass-through), which
	// never changes answers, only performance.
	Strategy strategy.Strategy
}

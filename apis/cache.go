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

// Cache is a bounded key/value store used by the dispatch cache tiers.
// Keep it minimal so implementations can pick their own data structures
// (ordered map + access bump, two-pointer ring, pass-through, ...).
//
// Implementations are NOT required to be safe for concurrent use; the
// owning dispatchable serializes access. Get is a use: under recency-based
// policies it must protect the entry from near-term eviction.
type Cache[K comparable, V any] interface {
	// Get returns the value stored under key, marking the entry as used.
	Get(key K) (value V, ok bool)
	// Put stores value under key, evicting per policy if over capacity.
	Put(key K, value V)
	// Remove drops the entry for key, reporting whether it was present.
	Remove(key K) bool
	// Len returns the number of live entries.
	Len() int
	// Purge drops all entries.
	Purge()
}

// Stats is a point-in-time snapshot of a dispatchable's cache counters.
// Counters are cumulative since creation (ClearCaches does not reset them).
type Stats struct {
	// MatchHits counts tier-1 lookups served from the match cache.
	MatchHits uint64
	// MatchMisses counts tier-1 lookups that recomputed candidates.
	MatchMisses uint64
	// ResolvedHits counts tier-2 lookups served with a valid stamp.
	ResolvedHits uint64
	// ResolvedMisses counts tier-2 lookups with no entry at all.
	ResolvedMisses uint64
	// ResolvedStale counts tier-2 entries rejected for a stamp mismatch.
	ResolvedStale uint64
}

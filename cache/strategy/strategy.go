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

package strategy

import (
	"fmt"
	"strings"
)

// Strategy controls the eviction policy of a dispatch cache tier.
//
// # Overview
//
// Strategy is a small enumerated type selecting a broad class of cache
// behavior. It does not carry capacities or durations; those are
// configured separately (see apis.Config). Cache constructors use the
// value to pick the underlying algorithm and data structures.
//
// # Contract
//
//   - Strategy values are plain integers and safe for concurrent use.
//   - Existing values keep their semantics; new values may be added.
//   - Constructors MAY reject strategies they do not implement; they
//     MUST NOT silently substitute a different policy.
type Strategy int

const (
	// LRU selects Least Recently Used eviction: when capacity is
	// exceeded, the entry unused for the longest time is dropped.
	// Both reads (hits) and writes count as use. This is the default
	// for dispatch caches, where recently dispatched type tuples are
	// the best predictor of the next call.
	LRU Strategy = iota

	// LFU selects Least Frequently Used eviction. Reserved: no dispatch
	// cache implements it yet, and constructors reject it.
	LFU

	// TTL selects time-based expiration. Reserved: dispatch answers do
	// not age, they are invalidated by registration and activation
	// changes, so no dispatch cache implements it.
	TTL

	// None disables caching for the tier. Every lookup misses and every
	// store is discarded; answers are unchanged, only performance.
	// Useful in tests comparing cached and uncached behavior.
	None
)

// String returns the stable token for the Strategy value, or a
// diagnostic "Unknown(<n>)" form for out-of-range values. It never
// panics, so corrupted values can still be surfaced in logs.
func (s Strategy) String() string {
	switch s {
	case LRU:
		return "LRU"
	case LFU:
		return "LFU"
	case TTL:
		return "TTL"
	case None:
		return "None"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Parse converts a textual token into a Strategy. Matching is
// case-insensitive and surrounding whitespace is trimmed. On failure it
// returns None and a non-nil error; the returned Strategy must not be
// used in that case.
func Parse(s string) (Strategy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return None, fmt.Errorf("cache: empty strategy")
	}

	switch strings.ToUpper(trimmed) {
	case "LRU":
		return LRU, nil
	case "LFU":
		return LFU, nil
	case "TTL":
		return TTL, nil
	case "NONE":
		return None, nil
	default:
		return None, fmt.Errorf("cache: unknown strategy %q", s)
	}
}

// MustParse is like Parse but panics on invalid input. It is intended
// for hard-coded values in Go code, tests, and initialization paths;
// never use it on untrusted input.
func MustParse(s string) Strategy {
	strategy, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return strategy
}

// MarshalText implements encoding.TextMarshaler. Unknown values yield an
// error rather than persisting an "Unknown(...)" form.
func (s Strategy) MarshalText() ([]byte, error) {
	switch s {
	case LRU, LFU, TTL, None:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("cache: cannot marshal unknown strategy %d", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the same
// tokens as Parse; on failure the receiver is left unchanged.
func (s *Strategy) UnmarshalText(text []byte) error {
	value, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = value
	return nil
}

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

// Package canon canonicalizes type tuples into cache keys.
//
// Every distinct reflect.Type is assigned a process-lifetime ordinal the
// first time it is seen. Ordinals impose an arbitrary but consistent total
// order over types: first-seen order, not anything address- or name-based,
// so the order is reproducible for a fixed call sequence. Callers must not
// depend on the specific order, only on its consistency within one run.
package canon

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Key is the canonical cache key for a deduplicated, ordered type tuple.
// The empty Key denotes the empty tuple (an untyped call).
type Key string

// ordinals maps reflect.Type to its assigned ordinal.
var ordinals sync.Map // map[reflect.Type]int64

// nextOrdinal issues ordinals in first-seen order.
var nextOrdinal atomic.Int64

// Ordinal returns the total-order position of t, assigning one on first
// sight. Losing a racy first assignment may skip a counter value; only
// uniqueness and stability matter, not density.
func Ordinal(t reflect.Type) int64 {
	if v, ok := ordinals.Load(t); ok {
		return v.(int64)
	}
	v, _ := ordinals.LoadOrStore(t, nextOrdinal.Add(1))
	return v.(int64)
}

// Canonicalize deduplicates types by identity, drops nil entries, and
// sorts the survivors into the process-wide total order. It returns the
// cache key together with the canonical tuple itself.
//
// Tuples are tiny (well under ten entries for real calls), so an
// insertion sort beats a general sort here.
func Canonicalize(types []reflect.Type) (Key, []reflect.Type) {
	if len(types) == 0 {
		return "", nil
	}

	out := make([]reflect.Type, 0, len(types))
outer:
	for _, t := range types {
		if t == nil {
			continue
		}
		for _, seen := range out {
			if seen == t {
				continue outer
			}
		}
		// Insertion sort by ordinal.
		o := Ordinal(t)
		pos := len(out)
		for i, seen := range out {
			if o < Ordinal(seen) {
				pos = i
				break
			}
		}
		out = append(out, nil)
		copy(out[pos+1:], out[pos:])
		out[pos] = t
	}

	if len(out) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for i, t := range out {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatInt(Ordinal(t), 10))
	}
	return Key(sb.String()), out
}

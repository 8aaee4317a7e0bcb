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

// Package epoch provides the process-wide monotonic priority counter and
// the context-scoped priority overrides used by scoped backends.
//
// # Design
//
// A single atomic counter is the source of every rank in the system:
//
//   - Fixed backend priorities, drawn once at registration, so later
//     registration always outranks earlier registration.
//   - Scoped activation priorities, drawn on every activation, so an
//     activation always outranks every previously drawn value.
//   - Stamps, which identify a PriorityContext and invalidate
//     priority-resolved cache entries computed under a different
//     activation state.
//
// Activation state is never a bare global. It rides on context.Context as
// an immutable PriorityContext chain: each activation derives a child
// context whose PriorityContext links back to the parent's. Concurrent
// goroutines with different contexts therefore never observe each other's
// overrides, and "deactivation" is simply resuming with the parent
// context, whose stamp revalidates anything cached under it. Nesting the
// same backend stacks naturally: the innermost link wins, and unwinding
// restores the previous value in LIFO order.
package epoch

import (
	"context"
	"sync/atomic"
)

// Disabled is the effective priority of a scoped backend outside any
// activation. Candidates at this priority are never selected.
const Disabled int64 = -1

// counter is the process-wide monotonic source of priorities and stamps.
var counter atomic.Int64

// Next returns the next value of the process-wide counter. Values are
// strictly increasing across the process lifetime and start at 1.
func Next() int64 {
	return counter.Add(1)
}

// Current returns the most recently issued counter value (0 if none).
func Current() int64 {
	return counter.Load()
}

// PriorityContext is one link of an immutable activation chain. The nil
// PriorityContext is valid and denotes the base state: no overrides,
// stamp 0. Links are shared between contexts and must never be mutated.
type PriorityContext struct {
	// stamp identifies this activation state for cache validation.
	stamp int64
	// backendID is the backend whose priority this link overrides.
	backendID int64
	// priority is the context-local priority for backendID.
	priority int64
	// prev is the enclosing activation state (nil at the base).
	prev *PriorityContext
}

// Stamp returns the stamp identifying this activation state.
// The nil (base) state has stamp 0.
func (pc *PriorityContext) Stamp() int64 {
	if pc == nil {
		return 0
	}
	return pc.stamp
}

// Priority returns the context-local priority for the given backend ID.
// The innermost activation wins; Disabled is returned when the backend is
// not activated anywhere in the chain.
func (pc *PriorityContext) Priority(backendID int64) int64 {
	for link := pc; link != nil; link = link.prev {
		if link.backendID == backendID {
			return link.priority
		}
	}
	return Disabled
}

// ctxKey is the private context key for the PriorityContext chain.
type ctxKey struct{}

// FromContext returns the PriorityContext carried by ctx, or nil (the
// base state) if none is present. A nil ctx yields the base state.
func FromContext(ctx context.Context) *PriorityContext {
	if ctx == nil {
		return nil
	}
	pc, _ := ctx.Value(ctxKey{}).(*PriorityContext)
	return pc
}

// With derives a context whose PriorityContext elevates backendID to a
// freshly drawn priority, strictly greater than anything seen so far.
// The returned context carries a new stamp; every other context keeps its
// own stamp and activation state untouched.
func With(ctx context.Context, backendID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	n := Next()
	pc := &PriorityContext{
		stamp:     n,
		backendID: backendID,
		priority:  n,
		prev:      FromContext(ctx),
	}
	return context.WithValue(ctx, ctxKey{}, pc)
}

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

// Package dpx provides a runtime multiple-dispatch resolver.
//
// Given a dispatchable operation, a set of candidate implementations each
// tagged with a primary type and a set of promotable secondary types, and
// the runtime types of a call's relevant arguments, dpx deterministically
// selects the single implementation that should run — or a fallback when
// none matches.
//
// # Model
//
// A Backend describes one alternative implementation family: the primary
// (dispatch) type it serves, the secondary (promotable) types it
// additionally accepts alongside the primary, and its priority behavior.
// Backends are created once, at process or library initialization, into a
// process-wide append-only registry:
//
//	var matrix Matrix
//	b, err := dpx.NewBackend("matrix", reflect.TypeOf(matrix),
//	    []reflect.Type{reflect.TypeOf(Dense{})})
//
// A Dispatchable owns the (backend, implementation) registrations for one
// operation and resolves calls:
//
//	mul := dpx.New[func(a, b any) any](resolver.WithName("multiply"))
//	if err := mul.Register(b, mulMatrix); err != nil { ... }
//
//	chosen, impl, err := mul.DispatchValues(ctx, a, b)
//
// Matching is structural: the type tuple must contain the backend's
// primary type (or a recognized subtype when the primary type is an
// interface), and every remaining type must be served by the primary or a
// promotable type. Among matching candidates, a strictly more specific
// dispatch type always wins; priorities only break ties between equally
// specific candidates, and a genuine cross-type tie is an ambiguity
// fault, never an arbitrary pick.
//
// # Scoped backends
//
// A scoped backend is opt-in: disabled by default, and preferred over
// every structurally tied candidate only within a dynamic activation:
//
//	ctx, err := dpx.Activate(ctx, experimental)
//	// calls dispatched with ctx prefer the experimental backend
//
// Activation state rides on context.Context, so concurrent goroutines
// with different activations never observe each other's overrides, and
// dropping the derived context restores the previous state on every exit
// path.
//
// # Caching
//
// Each dispatchable keeps two bounded LRU cache tiers keyed by the
// canonical form of the type tuple: the structural match cache (reset
// only by registration changes) and the priority-resolved cache (stamped
// with the activation state it was computed under, and revalidated on
// every hit). Caching is transparent: clearing caches never changes the
// answer, only performance. Hit, miss, and staleness counters are
// exposed via Stats for operators.
//
// # Concurrency model
//
// Backend and registry reads are wait-free snapshot loads. A
// dispatchable serializes dispatch and registration with an internal
// lock; dispatch runs to completion synchronously and never blocks on
// I/O. The priority counter is a process-wide atomic.
//
// # Scope
//
// dpx only answers "which implementation should run". Extracting the
// relevant arguments from a call and invoking the selected
// implementation belong to the caller; the DispatchValues helper and the
// resolver.Defer / resolver.CheckResult contract mark that boundary.
// Implementations cannot decline at runtime in favor of the next-best
// candidate: deferral is unsupported and surfaces as a fault.
package dpx

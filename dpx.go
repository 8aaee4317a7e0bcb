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

package dpx

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"dirpx.dev/dpx/backend"
	"dirpx.dev/dpx/resolver"
)

// regMu serializes writers (backend creation, reset) so we never publish
// partially-built snapshots.
var regMu sync.Mutex

// reg is the global, append-only backend list. Readers load the current
// snapshot atomically and never mutate it; writers copy, append, and swap.
var reg atomic.Pointer[[]*backend.Backend]

// NewBackend creates an always-enabled backend and appends it to the
// process-wide registry. Fixed priorities are drawn in registration
// order, so later registration outranks earlier registration among
// fixed backends.
func NewBackend(name string, dispatchType reflect.Type, promotable []reflect.Type, opts ...backend.Option) (*backend.Backend, error) {
	b, err := backend.New(name, dispatchType, promotable, opts...)
	if err != nil {
		return nil, err
	}
	publish(b)
	return b, nil
}

// NewScopedBackend creates an opt-in backend: disabled by default and
// only preferred inside a dynamic activation (see Activate).
func NewScopedBackend(name string, dispatchType reflect.Type, promotable []reflect.Type, opts ...backend.Option) (*backend.Backend, error) {
	return NewBackend(name, dispatchType, promotable, append(opts, backend.WithScoped())...)
}

// publish appends b to the global snapshot.
func publish(b *backend.Backend) {
	regMu.Lock()
	defer regMu.Unlock()

	old := reg.Load()
	var next []*backend.Backend
	if old != nil {
		next = append(next, *old...)
	}
	next = append(next, b)
	reg.Store(&next)
}

// Backends returns a copy of the process-wide backend registry in
// registration order.
func Backends() []*backend.Backend {
	old := reg.Load()
	if old == nil {
		return nil
	}
	return append([]*backend.Backend(nil), *old...)
}

// Reset drops the global backend registry. Backends are append-only
// during normal operation; this is a hard reset for tests that need a
// deterministic registry between cases.
func Reset() {
	regMu.Lock()
	defer regMu.Unlock()
	reg.Store(nil)
}

// New constructs a dispatchable for one operation and fires the creation
// callback of every registered backend with it, letting backends
// self-register generic implementations (e.g. behind lazy imports). The
// callback receives the dispatchable as any and type-asserts to
// *resolver.Dispatchable[F] for the operations it knows.
func New[F any](opts ...resolver.Option) *resolver.Dispatchable[F] {
	d := resolver.New[F](opts...)
	fireCallbacks(d)
	return d
}

// NewWithFallback is like New but installs a fallback implementation
// that serves any call no backend matches, including untyped calls.
func NewWithFallback[F any](fallback F, opts ...resolver.Option) *resolver.Dispatchable[F] {
	d := resolver.NewWithFallback[F](fallback, opts...)
	fireCallbacks(d)
	return d
}

// fireCallbacks notifies every backend with a creation callback.
func fireCallbacks(d any) {
	for _, b := range Backends() {
		if cb := b.Callback(); cb != nil {
			cb(d)
		}
	}
}

// Activate enters a dynamic scope for a scoped backend. The returned
// context prefers b over every structurally tied candidate for the
// dynamic extent in which it is used; the parent context keeps the
// previous activation state. Activating a fixed-priority backend returns
// backend.ErrInvalidScope.
func Activate(ctx context.Context, b *backend.Backend) (context.Context, error) {
	return b.Activate(ctx)
}

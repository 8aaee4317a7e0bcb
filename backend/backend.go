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

// Package backend defines the registry entry for one alternative
// implementation family: its identity, the types it serves, and its
// priority behavior.
//
// A Backend is immutable for its lifetime. Priority is the one dynamic
// aspect, and even that is not stored on the Backend: fixed priorities
// are assigned once from the process-wide counter, and scoped priorities
// live on the context chain (see package epoch), so concurrent callers
// with different activations never interfere.
package backend

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/epoch"
	uref "dirpx.dev/dpx/utils/reflect"
)

var _ apis.Describer = (*Backend)(nil)

var (
	// ErrEmptyName is returned when a backend is created without a name.
	ErrEmptyName = errors.New("dpx(backend): empty backend name")
	// ErrNilDispatchType is returned when a backend is created without
	// a dispatch type.
	ErrNilDispatchType = errors.New("dpx(backend): nil dispatch type")
	// ErrInvalidScope is returned when a fixed-priority backend is
	// activated; only scoped backends participate in dynamic scopes.
	ErrInvalidScope = errors.New("dpx(backend): fixed-priority backend cannot be scoped")
)

// Mode describes how a backend's effective priority is determined.
type Mode int

const (
	// Fixed backends are always enabled. Their priority is assigned at
	// creation from the process-wide counter, so later creation always
	// outranks earlier creation among fixed backends.
	Fixed Mode = iota

	// Scoped backends are disabled by default and only carry a positive
	// priority inside a dynamic activation (see Activate).
	Scoped
)

// String returns "Fixed" or "Scoped", or a diagnostic form for unknown
// values.
func (m Mode) String() string {
	switch m {
	case Fixed:
		return "Fixed"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Backend is one alternative implementation family for dispatchable
// operations. It is tagged with the primary (dispatch) type it serves and
// a set of promotable secondary types it additionally accepts when they
// co-occur with the primary type.
type Backend struct {
	// name is the human-chosen identity, used in diagnostics.
	name string
	// id uniquely identifies the backend for context-local overrides.
	id int64
	// dispatchType is the primary type this backend handles.
	dispatchType reflect.Type
	// promotable are the secondary types accepted alongside the primary.
	promotable []reflect.Type
	// mode selects fixed or scoped priority behavior.
	mode Mode
	// fixed is the assigned priority for Fixed backends.
	fixed int64
	// callback, if set, runs for every dispatchable created through the
	// root package, enabling self-registration (e.g. lazy imports).
	callback func(dispatchable any)
}

// Option customizes backend construction.
type Option func(*Backend)

// WithScoped makes the backend opt-in: disabled by default and only
// preferred inside a dynamic activation.
func WithScoped() Option {
	return func(b *Backend) {
		b.mode = Scoped
	}
}

// WithPriority overrides the counter-assigned priority of a fixed
// backend. Distinct-dispatch-type candidates tying at the same priority
// fault at resolution time, so explicit priorities are for callers that
// deliberately manage their own ranking. Ignored for scoped backends.
func WithPriority(priority int64) Option {
	return func(b *Backend) {
		b.fixed = priority
	}
}

// WithCallback attaches a creation callback. The root package invokes it
// with every new dispatchable (as any) so the backend can register a
// generic implementation without the operation knowing about it.
func WithCallback(cb func(dispatchable any)) Option {
	return func(b *Backend) {
		b.callback = cb
	}
}

// New constructs a Backend. The dispatch type is the primary type the
// backend serves; promotable lists the secondary types accepted when they
// co-occur with it. Fixed priority is drawn from the process-wide counter
// unless WithPriority overrides it.
func New(name string, dispatchType reflect.Type, promotable []reflect.Type, opts ...Option) (*Backend, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if dispatchType == nil {
		return nil, ErrNilDispatchType
	}

	b := &Backend{
		name:         name,
		id:           epoch.Next(),
		dispatchType: dispatchType,
		promotable:   append([]reflect.Type(nil), promotable...),
		mode:         Fixed,
		fixed:        0,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.mode == Fixed && b.fixed == 0 {
		b.fixed = epoch.Next()
	}
	return b, nil
}

// Name returns the backend's human-chosen identity.
func (b *Backend) Name() string {
	return b.name
}

// ID returns the backend's process-unique numeric identity.
func (b *Backend) ID() int64 {
	return b.id
}

// DispatchType returns the primary type this backend handles.
func (b *Backend) DispatchType() reflect.Type {
	return b.dispatchType
}

// PromotableTypes returns a copy of the secondary types this backend
// accepts alongside its primary type.
func (b *Backend) PromotableTypes() []reflect.Type {
	return append([]reflect.Type(nil), b.promotable...)
}

// Mode returns whether the backend is fixed or scoped.
func (b *Backend) Mode() Mode {
	return b.mode
}

// Matches reports whether the backend structurally serves the given
// canonical type tuple (non-empty, distinct, nil-free).
//
// The tuple must contain an anchor: a type that is the dispatch type
// itself, or a recognized subtype of it when the dispatch type is
// abstract. Every other type must then be a subtype of the dispatch type
// or of one of the promotable types; a single unservable type rejects the
// whole tuple. This is how a backend declines mixed-type calls it cannot
// safely serve.
func (b *Backend) Matches(types []reflect.Type) bool {
	anchored := false
outer:
	for _, t := range types {
		if uref.Subtype(t, b.dispatchType) {
			anchored = true
			continue
		}
		for _, p := range b.promotable {
			if uref.Subtype(t, p) {
				continue outer
			}
		}
		return false
	}
	return anchored
}

// MoreSpecificThan reports whether this backend is strictly more specific
// than other. The relation is irreflexive: backends sharing the identical
// dispatch type are equally specific and are ordered purely by priority.
// Otherwise this backend wins if its dispatch type is a subtype of the
// other's dispatch type or of any of the other's promotable types.
//
// The registered hierarchy is expected to form a consistent partial
// order; callers detect the both-directions case and surface it as an
// ambiguity fault rather than papering over a cycle.
func (b *Backend) MoreSpecificThan(other *Backend) bool {
	if other == nil || b.dispatchType == other.dispatchType {
		return false
	}
	if uref.Subtype(b.dispatchType, other.dispatchType) {
		return true
	}
	for _, p := range other.promotable {
		if uref.Subtype(b.dispatchType, p) {
			return true
		}
	}
	return false
}

// EffectivePriority returns the backend's current priority: the fixed
// value, or the context-local override for scoped backends
// (epoch.Disabled outside any activation).
func (b *Backend) EffectivePriority(ctx context.Context) int64 {
	if b.mode == Fixed {
		return b.fixed
	}
	return epoch.FromContext(ctx).Priority(b.id)
}

// FixedPriority returns the assigned priority of a Fixed backend, and
// epoch.Disabled for scoped backends. Used for the private cache-list
// placement order; external tie-breaking goes through EffectivePriority.
func (b *Backend) FixedPriority() int64 {
	if b.mode == Fixed {
		return b.fixed
	}
	return epoch.Disabled
}

// Activate enters a dynamic scope for a scoped backend: the returned
// context carries a fresh priority strictly greater than anything seen so
// far. Exiting the scope is implicit: resume using the parent context,
// which restores the previous activation state on every exit path.
// Nested activations stack and unwind in LIFO order by construction.
//
// Activating a fixed-priority backend is an error.
func (b *Backend) Activate(ctx context.Context) (context.Context, error) {
	if b.mode != Scoped {
		return ctx, fmt.Errorf("%w: %q", ErrInvalidScope, b.name)
	}
	return epoch.With(ctx, b.id), nil
}

// Callback returns the creation callback, or nil.
func (b *Backend) Callback() func(dispatchable any) {
	return b.callback
}

// String returns a short identity, e.g. `backend "Matrix"`.
func (b *Backend) String() string {
	return fmt.Sprintf("backend %q", b.name)
}

// Describe returns a stable single-line description of the backend for
// diagnostics and golden tests.
func (b *Backend) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "backend %q dispatch=%s", b.name, b.dispatchType)
	sb.WriteString(" promotable=(")
	for i, p := range b.promotable {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	fmt.Fprintf(&sb, " mode=%s", b.mode)
	if b.mode == Fixed {
		fmt.Fprintf(&sb, " priority=%d", b.fixed)
	}
	return sb.String()
}

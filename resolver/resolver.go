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

// Package resolver implements the per-operation dispatchable: the ordered
// registrations of (backend, implementation) pairs, the matching and
// specificity algorithm, and the two-tier dispatch cache.
//
// # Resolution
//
// Dispatch canonicalizes the incoming type tuple, then consults tier 1
// (the structural match cache) for the specificity-ordered candidate
// list. Structural matching is independent of priorities, so tier 1 is
// only reset by registration changes. With more than one candidate, the
// winner additionally depends on activation state, so tier 2 (the
// priority-resolved cache) stores the final answer stamped with the
// activation stamp of the context it was computed under; a mismatched
// stamp is recorded as stale and recomputed, never trusted.
//
// Among candidates, specificity governs first: an enabled candidate
// strictly more specific than another knocks the less specific one out,
// whatever their priorities. Priorities only break ties between the
// remaining, equally placed candidates. A genuine tie between candidates
// of different dispatch types is surfaced as an ambiguity fault; picking
// one silently would be a correctness violation, not resilience.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/backend"
	"dirpx.dev/dpx/cache"
	"dirpx.dev/dpx/canon"
	"dirpx.dev/dpx/config"
	"dirpx.dev/dpx/epoch"
)

var (
	// ErrDuplicateRegistration is returned when a backend is registered
	// twice on one dispatchable.
	ErrDuplicateRegistration = errors.New("dpx(resolver): backend already registered")
	// ErrNotRegistered is returned when unregistering a backend that is
	// not present.
	ErrNotRegistered = errors.New("dpx(resolver): backend not registered")
	// ErrNilBackend is returned when a nil backend is passed to
	// Register or Unregister.
	ErrNilBackend = errors.New("dpx(resolver): nil backend")
	// ErrNoImplementation is returned when no backend matches and no
	// fallback is registered.
	ErrNoImplementation = errors.New("dpx(resolver): no matching implementation")
	// ErrAmbiguousHierarchy is returned when two candidates each compare
	// as more specific than the other: the registered type hierarchy is
	// cyclic, which signals misconfiguration.
	ErrAmbiguousHierarchy = errors.New("dpx(resolver): cyclic specificity between backends")
	// ErrAmbiguousResolution is returned when two candidates of
	// different dispatch types tie at the highest enabled priority.
	ErrAmbiguousResolution = errors.New("dpx(resolver): multiple matching implementations")
	// ErrUnsupportedDeferral is returned when a selected implementation
	// signals deferral, which this resolver does not implement.
	ErrUnsupportedDeferral = errors.New("dpx(resolver): implementation deferral is not supported")
)

var _ apis.Describer = (*Dispatchable[func()])(nil)

// deferSentinel is the designated "defer to another implementation"
// return value. Its only use is to be detected and rejected.
type deferSentinel struct{}

// Defer is the sentinel an implementation would return to defer to the
// next-best candidate. Deferral is explicitly unsupported: collaborators
// invoking implementations pass results through CheckResult and surface
// ErrUnsupportedDeferral when they see this value.
var Defer any = deferSentinel{}

// CheckResult validates an implementation's return value at the
// invocation boundary. It returns ErrUnsupportedDeferral when the value
// is the Defer sentinel and nil otherwise.
func CheckResult(v any) error {
	if v == Defer {
		return ErrUnsupportedDeferral
	}
	return nil
}

// Entry is one registration in a dispatchable snapshot. The fallback is
// listed with a nil Backend.
type Entry[F any] struct {
	// Backend is the registered backend, nil for the fallback.
	Backend *backend.Backend
	// Impl is the registered implementation.
	Impl F
}

// candidate pairs a matching backend with its implementation.
type candidate[F any] struct {
	b    *backend.Backend
	impl F
}

// resolution is a tier-2 entry: a final answer valid only for the
// activation state identified by stamp.
type resolution[F any] struct {
	stamp int64
	b     *backend.Backend
	impl  F
}

// settings collects option-configurable construction state.
type settings struct {
	name string
	cfg  apis.Config
	log  *slog.Logger
}

// Option customizes dispatchable construction.
type Option func(*settings)

// WithName sets a diagnostic name used in descriptions and logs.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithConfig sets cache capacities and the eviction strategy.
func WithConfig(cfg apis.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithLogger enables structured debug logging of registrations, cache
// resets, and resolutions. A nil logger keeps the dispatchable silent.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		s.log = log
	}
}

// Dispatchable owns the registrations and caches for one operation and
// resolves which implementation should serve a type tuple. F is the
// implementation type, typically a function type.
//
// All methods are safe for concurrent use. Dispatch runs to completion
// synchronously; it never blocks on I/O.
type Dispatchable[F any] struct {
	name string
	log  *slog.Logger

	// mu guards alternatives, fallback, and both cache tiers. Cache
	// reads mutate recency state, so a plain mutex, not RWMutex.
	mu          sync.Mutex
	alts        []candidate[F]
	fallback    F
	hasFallback bool
	match       apis.Cache[canon.Key, []candidate[F]]
	resolved    apis.Cache[canon.Key, resolution[F]]

	// Counters are cumulative and independently atomic so Stats can
	// read them without taking mu.
	matchHits      atomic.Uint64
	matchMisses    atomic.Uint64
	resolvedHits   atomic.Uint64
	resolvedMisses atomic.Uint64
	resolvedStale  atomic.Uint64
}

// New constructs a Dispatchable without a fallback: a call no backend
// serves is a fault. It panics when the configured cache strategy is one
// no dispatch cache implements (see cache.New); validate configuration
// loaded from external sources before passing it here.
func New[F any](opts ...Option) *Dispatchable[F] {
	s := settings{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	match, err := cache.New[canon.Key, []candidate[F]](s.cfg.MatchCacheCapacity, s.cfg.Strategy)
	if err != nil {
		panic(err)
	}
	resolved, err := cache.New[canon.Key, resolution[F]](s.cfg.ResolvedCacheCapacity, s.cfg.Strategy)
	if err != nil {
		panic(err)
	}

	return &Dispatchable[F]{
		name:     s.name,
		log:      s.log,
		match:    match,
		resolved: resolved,
	}
}

// NewWithFallback constructs a Dispatchable whose fallback serves any
// call no backend matches, including untyped calls.
func NewWithFallback[F any](fallback F, opts ...Option) *Dispatchable[F] {
	d := New[F](opts...)
	d.fallback = fallback
	d.hasFallback = true
	return d
}

// Name returns the diagnostic name ("" if none was set).
func (d *Dispatchable[F]) Name() string {
	return d.name
}

// Register appends (b, impl) to the alternatives. Registering the same
// backend twice is a fault. Registration resets both cache tiers:
// registration is rare, and a full reset is simpler and safer than
// incremental invalidation.
func (d *Dispatchable[F]) Register(b *backend.Backend, impl F) error {
	if b == nil {
		return ErrNilBackend
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.alts {
		if c.b.ID() == b.ID() {
			return fmt.Errorf("%w: %q", ErrDuplicateRegistration, b.Name())
		}
	}
	d.alts = append(d.alts, candidate[F]{b: b, impl: impl})
	d.match.Purge()
	d.resolved.Purge()

	d.debug("backend registered", slog.String("backend", b.Name()))
	return nil
}

// Unregister removes a previously registered backend and resets both
// cache tiers.
func (d *Dispatchable[F]) Unregister(b *backend.Backend) error {
	if b == nil {
		return ErrNilBackend
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, c := range d.alts {
		if c.b.ID() == b.ID() {
			d.alts = append(d.alts[:i], d.alts[i+1:]...)
			d.match.Purge()
			d.resolved.Purge()
			d.debug("backend unregistered", slog.String("backend", b.Name()))
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotRegistered, b.Name())
}

// SetFallback installs (or replaces) the fallback implementation and
// resets both cache tiers so previously cached fallback answers cannot
// leak the old implementation.
func (d *Dispatchable[F]) SetFallback(impl F) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = impl
	d.hasFallback = true
	d.match.Purge()
	d.resolved.Purge()
}

// Fallback returns the fallback implementation and whether one is set.
func (d *Dispatchable[F]) Fallback() (F, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fallback, d.hasFallback
}

// Entries returns a snapshot of the registrations in registration order,
// with the fallback (if any) appended as an Entry with a nil Backend.
func (d *Dispatchable[F]) Entries() []Entry[F] {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Entry[F], 0, len(d.alts)+1)
	for _, c := range d.alts {
		out = append(out, Entry[F]{Backend: c.b, Impl: c.impl})
	}
	if d.hasFallback {
		out = append(out, Entry[F]{Backend: nil, Impl: d.fallback})
	}
	return out
}

// ClearCaches drops both cache tiers. Counters are cumulative and are
// not reset. Clearing caches never changes answers, only performance.
func (d *Dispatchable[F]) ClearCaches() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.match.Purge()
	d.resolved.Purge()
	d.debug("caches cleared")
}

// Stats returns a snapshot of the cache counters.
func (d *Dispatchable[F]) Stats() apis.Stats {
	return apis.Stats{
		MatchHits:      d.matchHits.Load(),
		MatchMisses:    d.matchMisses.Load(),
		ResolvedHits:   d.resolvedHits.Load(),
		ResolvedMisses: d.resolvedMisses.Load(),
		ResolvedStale:  d.resolvedStale.Load(),
	}
}

// DispatchValues resolves the implementation for the runtime types of the
// given relevant objects. Nil placeholders produced by the extraction
// collaborator are discarded; only the types of the survivors dispatch.
func (d *Dispatchable[F]) DispatchValues(ctx context.Context, vals ...any) (*backend.Backend, F, error) {
	types := make([]reflect.Type, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		types = append(types, reflect.TypeOf(v))
	}
	return d.Dispatch(ctx, types)
}

// Dispatch selects the single implementation that should serve the given
// type tuple, or the fallback when none matches. The returned Backend is
// nil when the fallback was selected.
//
// For fixed registrations and a fixed activation state, Dispatch is a
// pure function of the tuple's canonical form: repeated calls return the
// identical pair.
func (d *Dispatchable[F]) Dispatch(ctx context.Context, types []reflect.Type) (*backend.Backend, F, error) {
	var zero F

	key, canonical := canon.Canonicalize(types)
	if len(canonical) == 0 {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.hasFallback {
			return nil, d.fallback, nil
		}
		return nil, zero, fmt.Errorf("%w: no fallback for untyped call", ErrNoImplementation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Tier 1: structural candidates, priority-independent.
	cands, ok := d.match.Get(key)
	if ok {
		d.matchHits.Add(1)
	} else {
		d.matchMisses.Add(1)
		var err error
		cands, err = d.computeCandidates(canonical)
		if err != nil {
			return nil, zero, err
		}
		d.match.Put(key, cands)
	}

	switch {
	case len(cands) == 0:
		if d.hasFallback {
			return nil, d.fallback, nil
		}
		return nil, zero, fmt.Errorf("%w: %s", ErrNoImplementation, typeTuple(canonical))
	case len(cands) == 1 && cands[0].b.Mode() == backend.Fixed:
		// A lone fixed candidate cannot change under activation state;
		// not worth a tier-2 slot. A lone scoped candidate can (it may
		// be inactive), so it goes through the priority path below.
		return cands[0].b, cands[0].impl, nil
	}

	// Tier 2: the final answer, valid only for this activation state.
	stamp := epoch.FromContext(ctx).Stamp()
	if r, ok := d.resolved.Get(key); ok {
		if r.stamp == stamp {
			d.resolvedHits.Add(1)
			return r.b, r.impl, nil
		}
		d.resolvedStale.Add(1)
	} else {
		d.resolvedMisses.Add(1)
	}

	chosen, found, err := d.selectByPriority(ctx, cands, canonical)
	if err != nil {
		return nil, zero, err
	}
	if !found {
		if d.hasFallback {
			return nil, d.fallback, nil
		}
		return nil, zero, fmt.Errorf("%w: %s (no enabled backend)", ErrNoImplementation, typeTuple(canonical))
	}

	d.resolved.Put(key, resolution[F]{stamp: stamp, b: chosen.b, impl: chosen.impl})
	return chosen.b, chosen.impl, nil
}

// computeCandidates scans the alternatives and builds the
// specificity-ordered candidate list for the canonical tuple: more
// specific entries toward the front. Among entries with the identical
// dispatch type, a fixed backend with a larger priority sorts ahead,
// purely so the most likely winner is inspected first; the externally
// observed tie-break always goes through effective priorities.
func (d *Dispatchable[F]) computeCandidates(canonical []reflect.Type) ([]candidate[F], error) {
	cands := make([]candidate[F], 0, len(d.alts))
	for _, c := range d.alts {
		if !c.b.Matches(canonical) {
			continue
		}
		pos := len(cands)
		for i, existing := range cands {
			cm := c.b.MoreSpecificThan(existing.b)
			ec := existing.b.MoreSpecificThan(c.b)
			if cm && ec {
				return nil, fmt.Errorf("%w: %q and %q", ErrAmbiguousHierarchy, c.b.Name(), existing.b.Name())
			}
			if cm {
				pos = i
				break
			}
			if !ec && c.b.DispatchType() == existing.b.DispatchType() &&
				c.b.FixedPriority() > existing.b.FixedPriority() {
				pos = i
				break
			}
		}
		cands = append(cands, candidate[F]{})
		copy(cands[pos+1:], cands[pos:])
		cands[pos] = c
	}
	return cands, nil
}

// selectByPriority picks the winner among structurally matching
// candidates. Disabled candidates are skipped outright. Specificity
// governs first: any enabled candidate dominated by (strictly less
// specific than) another enabled candidate is knocked out. The survivors
// compete on effective priority; a tie between different dispatch types
// is an ambiguity fault, while same-type ties keep the front-most entry.
func (d *Dispatchable[F]) selectByPriority(ctx context.Context, cands []candidate[F], canonical []reflect.Type) (candidate[F], bool, error) {
	enabled := make([]candidate[F], 0, len(cands))
	prios := make([]int64, 0, len(cands))
	for _, c := range cands {
		p := c.b.EffectivePriority(ctx)
		if p == epoch.Disabled {
			continue
		}
		enabled = append(enabled, c)
		prios = append(prios, p)
	}
	if len(enabled) == 0 {
		return candidate[F]{}, false, nil
	}

	var best candidate[F]
	bestPrio := epoch.Disabled
	found := false
outer:
	for i, c := range enabled {
		for _, other := range enabled {
			if other.b != c.b && other.b.MoreSpecificThan(c.b) {
				continue outer
			}
		}
		switch {
		case !found || prios[i] > bestPrio:
			best, bestPrio, found = c, prios[i], true
		case prios[i] == bestPrio && c.b.DispatchType() != best.b.DispatchType():
			return candidate[F]{}, false, fmt.Errorf("%w: %q and %q both match %s at priority %d",
				ErrAmbiguousResolution, best.b.Name(), c.b.Name(), typeTuple(canonical), bestPrio)
		}
	}
	return best, found, nil
}

// Describe returns a stable multi-line description of the dispatchable:
// registrations in order, then the fallback marker.
func (d *Dispatchable[F]) Describe() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	name := d.name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&sb, "dispatchable %q\n", name)
	for i, c := range d.alts {
		fmt.Fprintf(&sb, "  [%d] %s\n", i, c.b.Describe())
	}
	if d.hasFallback {
		sb.WriteString("  fallback: registered\n")
	} else {
		sb.WriteString("  fallback: none\n")
	}
	return sb.String()
}

// typeTuple renders a canonical tuple for error messages.
func typeTuple(canonical []reflect.Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range canonical {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// debug logs at Debug level when a logger is configured.
func (d *Dispatchable[F]) debug(msg string, args ...any) {
	if d.log == nil {
		return
	}
	if d.name != "" {
		args = append(args, slog.String("dispatchable", d.name))
	}
	d.log.Debug(msg, args...)
}

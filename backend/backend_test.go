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

package backend_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dpx/backend"
	"dirpx.dev/dpx/epoch"
)

// Test hierarchy: Matrix and Scalar are concrete; Tensor is an open
// category that Matrix belongs to and Other does not.
type Tensor interface {
	Rank() int
}

type Matrix struct{}

func (Matrix) Rank() int { return 2 }

type Scalar struct{}

type Other struct{}

var (
	tensorType = reflect.TypeOf((*Tensor)(nil)).Elem()
	matrixType = reflect.TypeOf(Matrix{})
	scalarType = reflect.TypeOf(Scalar{})
	otherType  = reflect.TypeOf(Other{})
)

func TestNewValidation(t *testing.T) {
	_, err := backend.New("", matrixType, nil)
	assert.ErrorIs(t, err, backend.ErrEmptyName)

	_, err = backend.New("matrix", nil, nil)
	assert.ErrorIs(t, err, backend.ErrNilDispatchType)
}

func TestFixedPrioritiesFollowCreationOrder(t *testing.T) {
	early, err := backend.New("early", matrixType, nil)
	require.NoError(t, err)
	late, err := backend.New("late", scalarType, nil)
	require.NoError(t, err)

	assert.Equal(t, backend.Fixed, early.Mode())
	assert.Greater(t, late.FixedPriority(), early.FixedPriority(),
		"later creation must outrank earlier creation")
}

func TestWithPriorityOverride(t *testing.T) {
	b, err := backend.New("pinned", matrixType, nil, backend.WithPriority(1234))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), b.FixedPriority())
	assert.Equal(t, int64(1234), b.EffectivePriority(context.Background()))
}

func TestMatchesAnchorAndPromotion(t *testing.T) {
	// A Matrix backend that promotes Scalar arguments.
	b, err := backend.New("matrix", matrixType, []reflect.Type{scalarType})
	require.NoError(t, err)

	tests := []struct {
		name  string
		tuple []reflect.Type
		want  bool
	}{
		{"primary alone", []reflect.Type{matrixType}, true},
		{"primary with promotable", []reflect.Type{matrixType, scalarType}, true},
		{"promotable alone has no anchor", []reflect.Type{scalarType}, false},
		{"unrelated type rejects the tuple", []reflect.Type{matrixType, otherType}, false},
		{"unrelated alone", []reflect.Type{otherType}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Matches(tt.tuple))
		})
	}
}

func TestMatchesAbstractAnchor(t *testing.T) {
	generic, err := backend.New("generic", tensorType, nil)
	require.NoError(t, err)

	assert.True(t, generic.Matches([]reflect.Type{matrixType}), "member anchors an abstract dispatch type")
	assert.True(t, generic.Matches([]reflect.Type{tensorType}))
	assert.False(t, generic.Matches([]reflect.Type{scalarType}), "non-member cannot anchor")
	assert.False(t, generic.Matches([]reflect.Type{matrixType, otherType}),
		"unservable extra type rejects the tuple")
}

func TestMatchesConcreteIsClosed(t *testing.T) {
	// A concrete dispatch type accepts only identity, never lookalikes.
	b, err := backend.New("matrix", matrixType, nil)
	require.NoError(t, err)
	assert.False(t, b.Matches([]reflect.Type{tensorType}),
		"abstract type is not an instance of its member")
}

func TestMoreSpecificThan(t *testing.T) {
	concrete, err := backend.New("matrix", matrixType, nil)
	require.NoError(t, err)
	generic, err := backend.New("tensor", tensorType, nil)
	require.NoError(t, err)
	sameType, err := backend.New("matrix2", matrixType, nil)
	require.NoError(t, err)
	promoter, err := backend.New("scalar", scalarType, []reflect.Type{matrixType})
	require.NoError(t, err)

	assert.True(t, concrete.MoreSpecificThan(generic), "member beats open category")
	assert.False(t, generic.MoreSpecificThan(concrete))

	// Identical dispatch types are equally specific, both directions.
	assert.False(t, concrete.MoreSpecificThan(sameType))
	assert.False(t, sameType.MoreSpecificThan(concrete))
	assert.False(t, concrete.MoreSpecificThan(concrete), "irreflexive")

	// Specific via the other's promotable set.
	assert.True(t, concrete.MoreSpecificThan(promoter))
	assert.False(t, promoter.MoreSpecificThan(concrete))
}

func TestScopedLifecycle(t *testing.T) {
	scoped, err := backend.New("opt-in", matrixType, nil, backend.WithScoped())
	require.NoError(t, err)
	assert.Equal(t, backend.Scoped, scoped.Mode())

	base := context.Background()
	assert.Equal(t, epoch.Disabled, scoped.EffectivePriority(base), "disabled outside any activation")
	assert.Equal(t, epoch.Disabled, scoped.FixedPriority())

	ctx, err := scoped.Activate(base)
	require.NoError(t, err)
	active := scoped.EffectivePriority(ctx)
	assert.Positive(t, active)

	// Nested activation stacks; unwinding restores the outer value.
	inner, err := scoped.Activate(ctx)
	require.NoError(t, err)
	assert.Greater(t, scoped.EffectivePriority(inner), active)
	assert.Equal(t, active, scoped.EffectivePriority(ctx))

	// The base context never sees the activation.
	assert.Equal(t, epoch.Disabled, scoped.EffectivePriority(base))
}

func TestActivateFixedFails(t *testing.T) {
	fixed, err := backend.New("fixed", matrixType, nil)
	require.NoError(t, err)

	ctx, err := fixed.Activate(context.Background())
	assert.ErrorIs(t, err, backend.ErrInvalidScope)
	assert.Equal(t, context.Background(), ctx, "context passes through unchanged on error")
}

func TestActivationOutranksEveryFixedBackend(t *testing.T) {
	fixed, err := backend.New("fixed", matrixType, nil)
	require.NoError(t, err)
	scoped, err := backend.New("scoped", matrixType, nil, backend.WithScoped())
	require.NoError(t, err)

	ctx, err := scoped.Activate(context.Background())
	require.NoError(t, err)
	assert.Greater(t, scoped.EffectivePriority(ctx), fixed.EffectivePriority(ctx),
		"activation draws a value above everything seen so far")
}

func TestDescribe(t *testing.T) {
	b, err := backend.New("matrix", matrixType, []reflect.Type{scalarType}, backend.WithPriority(3))
	require.NoError(t, err)
	assert.Equal(t,
		`backend "matrix" dispatch=backend_test.Matrix promotable=(backend_test.Scalar) mode=Fixed priority=3`,
		b.Describe())

	scoped, err := backend.New("opt-in", matrixType, nil, backend.WithScoped())
	require.NoError(t, err)
	assert.Equal(t,
		`backend "opt-in" dispatch=backend_test.Matrix promotable=() mode=Scoped`,
		scoped.Describe())
}

func TestPromotableTypesCopied(t *testing.T) {
	promo := []reflect.Type{scalarType}
	b, err := backend.New("matrix", matrixType, promo)
	require.NoError(t, err)

	got := b.PromotableTypes()
	require.Len(t, got, 1)
	got[0] = otherType
	assert.Equal(t, scalarType, b.PromotableTypes()[0], "mutating the copy must not leak in")
}

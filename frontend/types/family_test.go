package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-train/luau/frontend/ilerr"
)

func TestReduceUnionFamilyRewritesInstanceInPlace(t *testing.T) {
	w := newTestWorld()
	family := w.arena.NewType(&TypeFamilyInstanceType{
		Family:        w.builtins.UnionFamily,
		TypeArguments: []TypeId{w.builtins.NumberType, w.builtins.StringType},
	})
	w.push(&ReduceConstraint{Ty: family})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	union, ok := Follow(family).Variant().(*UnionType)
	assert.True(t, ok)
	assert.Len(t, union.Options, 2)
}

func TestReduceWaitsForPendingArguments(t *testing.T) {
	// The family cannot reduce until its placeholder argument is bound, so
	// the reduction must chase the Unpack1 that binds it.
	w := newTestWorld()
	arg := w.arena.NewType(&BlockedType{})
	family := w.arena.NewType(&TypeFamilyInstanceType{
		Family:        w.builtins.UnionFamily,
		TypeArguments: []TypeId{arg},
	})
	w.push(&ReduceConstraint{Ty: family})
	w.push(&Unpack1Constraint{ResultType: arg, SourceType: w.builtins.NumberType})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(family))
}

func TestReduceUnknownFamilyIsUninhabitedUnderForce(t *testing.T) {
	w := newTestWorld()
	family := w.arena.NewType(&TypeFamilyInstanceType{
		Family:        &TypeFamily{Name: "keyof"},
		TypeArguments: []TypeId{w.builtins.NumberType},
	})
	w.push(&ReduceConstraint{Ty: family})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.UninhabitedTypeFamily, s.Errors.Errors()[0].Code())
}

func TestReducePackFamilyIsUninhabitedUnderForce(t *testing.T) {
	w := newTestWorld()
	pack := w.arena.NewPack(&FamilyInstancePack{Family: &TypeFamily{Name: "len"}})
	w.push(&ReducePackConstraint{Tp: pack})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.UninhabitedTypeFamily, s.Errors.Errors()[0].Code())
	assert.Equal(t, w.builtins.ErrorTypePack, FollowPack(pack))
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-train/luau/frontend/ilerr"
)

func (w *testWorld) hasProp(subject TypeId, name string, context ValueContext, deps ...*Constraint) TypeId {
	result := w.arena.NewType(&BlockedType{})
	w.push(&HasPropConstraint{ResultType: result, SubjectType: subject, Prop: name, Context: context}, deps...)
	return result
}

func TestHasPropReadsDeclaredProperty(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableSealed, map[string]*Property{"name": SharedProperty(w.builtins.StringType)})
	result := w.hasProp(subject, "name", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.StringType, Follow(result))
}

func TestHasPropOnFreeTableInsertsProperty(t *testing.T) {
	testCases := []struct {
		name      string
		context   ValueContext
		wantWrite bool
	}{
		{"read inserts read-only", ValueRValue, false},
		{"write inserts shared", ValueLValue, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld()
			subject := w.table(TableFree, nil)
			result := w.hasProp(subject, "x", tc.context)

			s := w.solve(t)

			assert.False(t, s.Errors.HasError())
			prop := subject.Variant().(*TableType).Props["x"]
			assert.NotNil(t, prop)
			assert.Equal(t, Follow(prop.ReadTy), Follow(result))
			if tc.wantWrite {
				assert.NotNil(t, prop.WriteTy)
			} else {
				assert.Nil(t, prop.WriteTy)
			}
		})
	}
}

func TestHasPropMissingOnSealedTableIsAny(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableSealed, nil)
	result := w.hasProp(subject, "missing", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.AnyType, Follow(result))
}

func TestHasPropInConditionalRelaxesToUnknown(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableSealed, nil)
	result := w.arena.NewType(&BlockedType{})
	w.push(&HasPropConstraint{
		ResultType:    result,
		SubjectType:   subject,
		Prop:          "maybe",
		InConditional: true,
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.UnknownType, Follow(result))
}

func TestHasPropFallsThroughIndexMetamethod(t *testing.T) {
	w := newTestWorld()
	base := w.table(TableSealed, map[string]*Property{"inherited": SharedProperty(w.builtins.NumberType)})
	subject := w.arena.NewType(&MetatableType{
		Table: w.table(TableSealed, nil),
		Metatable: w.table(TableSealed, map[string]*Property{
			"__index": SharedProperty(base),
		}),
	})
	result := w.hasProp(subject, "inherited", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(result))
}

func TestHasPropUsesStringIndexer(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableSealed, nil)
	subject.Variant().(*TableType).Indexer = &TableIndexer{
		IndexType:       w.builtins.StringType,
		IndexResultType: w.builtins.BooleanType,
	}
	result := w.hasProp(subject, "anything", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.BooleanType, Follow(result))
}

func TestHasPropOnUnionCombinesMembers(t *testing.T) {
	w := newTestWorld()
	left := w.table(TableSealed, map[string]*Property{"v": SharedProperty(w.builtins.NumberType)})
	right := w.table(TableSealed, map[string]*Property{"v": SharedProperty(w.builtins.StringType)})
	subject := w.arena.NewType(&UnionType{Options: []TypeId{left, right}})
	result := w.hasProp(subject, "v", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	union, ok := Follow(result).Variant().(*UnionType)
	assert.True(t, ok)
	assert.Len(t, union.Options, 2)
}

func TestHasPropOnClassWalksParentChain(t *testing.T) {
	w := newTestWorld()
	parent := w.arena.NewType(&ClassType{
		Name:  "Instance",
		Props: map[string]*Property{"ClassName": SharedProperty(w.builtins.StringType)},
	})
	child := w.arena.NewType(&ClassType{
		Name:   "Part",
		Props:  map[string]*Property{},
		Parent: parent,
	})
	result := w.hasProp(child, "ClassName", ValueRValue)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.StringType, Follow(result))
}

func TestSetPropInstallsOnUnsealedTable(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableUnsealed, nil)
	result := w.arena.NewType(&BlockedType{})
	w.push(&SetPropConstraint{
		ResultType:  result,
		SubjectType: subject,
		Path:        []string{"tag"},
		PropType:    w.builtins.StringType,
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	prop := subject.Variant().(*TableType).Props["tag"]
	assert.NotNil(t, prop)
	assert.Equal(t, w.builtins.StringType, Follow(prop.ReadTy))
	assert.Equal(t, subject, Follow(result))
}

func TestSetPropCreatesIntermediateTables(t *testing.T) {
	// box.a.b = 1 on an empty unsealed box materializes box.a on the way.
	w := newTestWorld()
	subject := w.table(TableUnsealed, nil)
	result := w.arena.NewType(&BlockedType{})
	w.push(&SetPropConstraint{
		ResultType:  result,
		SubjectType: subject,
		Path:        []string{"a", "b"},
		PropType:    w.builtins.NumberType,
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	aProp := subject.Variant().(*TableType).Props["a"]
	assert.NotNil(t, aProp)
	intermediate, ok := Follow(aProp.ReadTy).Variant().(*TableType)
	assert.True(t, ok)
	assert.Equal(t, TableUnsealed, intermediate.State)
	assert.Equal(t, w.builtins.NumberType, Follow(intermediate.Props["b"].ReadTy))
}

func TestSetPropOnSealedTableIsRejected(t *testing.T) {
	w := newTestWorld()
	subject := w.table(TableSealed, nil)
	result := w.arena.NewType(&BlockedType{})
	w.push(&SetPropConstraint{
		ResultType:  result,
		SubjectType: subject,
		Path:        []string{"nope"},
		PropType:    w.builtins.NumberType,
	})

	s := w.solve(t)

	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.PropertyAccessViolation, s.Errors.Errors()[0].Code())
	assert.Empty(t, subject.Variant().(*TableType).Props)
}

func TestSetPropExistingPropertyUnifiesInstead(t *testing.T) {
	w := newTestWorld()
	slot := w.arena.FreshType(w.builtins, w.scope)
	subject := w.table(TableSealed, map[string]*Property{"count": SharedProperty(slot)})
	result := w.arena.NewType(&BlockedType{})
	w.push(&SetPropConstraint{
		ResultType:  result,
		SubjectType: subject,
		Path:        []string{"count"},
		PropType:    w.builtins.NumberType,
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	slotFree := Follow(slot).Variant().(*FreeType)
	assert.Equal(t, w.builtins.NumberType, Follow(slotFree.LowerBound))
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyUnion(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins()
	simplifier := NewSimplifier(arena, builtins)

	nested := arena.NewType(&UnionType{Options: []TypeId{builtins.NumberType, builtins.StringType}})

	testCases := []struct {
		name  string
		left  TypeId
		right TypeId
		check func(t *testing.T, result TypeId)
	}{
		{
			"identical operands collapse", builtins.NumberType, builtins.NumberType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.NumberType, result) },
		},
		{
			"never is the identity", builtins.NeverType, builtins.StringType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.StringType, result) },
		},
		{
			"any absorbs everything", builtins.NumberType, builtins.AnyType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.AnyType, result) },
		},
		{
			"unknown absorbs concrete members", builtins.UnknownType, builtins.NumberType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.UnknownType, result) },
		},
		{
			"nested unions flatten and dedupe", nested, builtins.StringType,
			func(t *testing.T, result TypeId) {
				union, ok := result.Variant().(*UnionType)
				assert.True(t, ok)
				assert.Len(t, union.Options, 2)
			},
		},
		{
			"distinct members stay a union", builtins.NumberType, builtins.StringType,
			func(t *testing.T, result TypeId) {
				union, ok := result.Variant().(*UnionType)
				assert.True(t, ok)
				assert.Len(t, union.Options, 2)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, simplifier.SimplifyUnion(tc.left, tc.right))
		})
	}
}

func TestSimplifyIntersection(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins()
	simplifier := NewSimplifier(arena, builtins)

	testCases := []struct {
		name  string
		left  TypeId
		right TypeId
		check func(t *testing.T, result TypeId)
	}{
		{
			"unknown is the identity", builtins.UnknownType, builtins.NumberType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.NumberType, result) },
		},
		{
			"never annihilates", builtins.NumberType, builtins.NeverType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.NeverType, result) },
		},
		{
			"identical operands collapse", builtins.StringType, builtins.StringType,
			func(t *testing.T, result TypeId) { assert.Equal(t, builtins.StringType, result) },
		},
		{
			"distinct members stay an intersection", builtins.NumberType, builtins.StringType,
			func(t *testing.T, result TypeId) {
				intersection, ok := result.Variant().(*IntersectionType)
				assert.True(t, ok)
				assert.Len(t, intersection.Parts, 2)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, simplifier.SimplifyIntersection(tc.left, tc.right))
		})
	}
}

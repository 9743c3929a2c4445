package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-train/luau/frontend/ilerr"
)

func (w *testWorld) call(fn TypeId, args ...TypeId) (TypePackId, *Constraint) {
	result := w.arena.NewPack(&BlockedPack{})
	c := w.push(&FunctionCallConstraint{
		Fn:       fn,
		ArgsPack: w.pack(args...),
		Result:   result,
	})
	return result, c
}

func (w *testWorld) unpack1(source TypePackId, deps ...*Constraint) TypeId {
	bound := w.arena.NewType(&BlockedType{})
	w.push(&UnpackConstraint{ResultPack: w.pack(bound), SourcePack: source}, deps...)
	return bound
}

func TestCallTopAndBottomCalleesShortCircuit(t *testing.T) {
	testCases := []struct {
		name   string
		callee func(b *Builtins) TypeId
		want   func(b *Builtins) TypePackId
	}{
		{"any", func(b *Builtins) TypeId { return b.AnyType }, func(b *Builtins) TypePackId { return b.AnyTypePack }},
		{"error", func(b *Builtins) TypeId { return b.ErrorType }, func(b *Builtins) TypePackId { return b.ErrorTypePack }},
		{"never", func(b *Builtins) TypeId { return b.NeverType }, func(b *Builtins) TypePackId { return b.NeverTypePack }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld()
			result, _ := w.call(tc.callee(w.builtins), w.builtins.NumberType)

			s := w.solve(t)

			assert.True(t, s.IsDone())
			assert.False(t, s.Errors.HasError())
			assert.Equal(t, tc.want(w.builtins), FollowPack(result))
		})
	}
}

func TestCallBindsResultPack(t *testing.T) {
	w := newTestWorld()
	greet := w.fn([]TypeId{w.builtins.StringType}, []TypeId{w.builtins.NumberType})
	result, c := w.call(greet, w.builtins.StringType)
	bound := w.unpack1(result, c)

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(bound))
}

func TestCallNonFunctionReportsError(t *testing.T) {
	w := newTestWorld()
	result, _ := w.call(w.builtins.NumberType)

	s := w.solve(t)

	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.CannotCallNonFunction, s.Errors.Errors()[0].Code())
	assert.Equal(t, w.builtins.ErrorTypePack, FollowPack(result))
}

func TestCallRewritesCallMetamethod(t *testing.T) {
	// obj(...) becomes __call(obj, ...), so the metamethod's first parameter
	// receives the object itself.
	w := newTestWorld()
	callFn := w.fn([]TypeId{w.builtins.AnyType, w.builtins.NumberType}, []TypeId{w.builtins.StringType})
	obj := w.arena.NewType(&MetatableType{
		Table: w.table(TableSealed, nil),
		Metatable: w.table(TableSealed, map[string]*Property{
			"__call": SharedProperty(callFn),
		}),
	})
	result, c := w.call(obj, w.builtins.NumberType)
	bound := w.unpack1(result, c)

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.StringType, Follow(bound))
}

func TestCallPicksArityCompatibleOverload(t *testing.T) {
	w := newTestWorld()
	unary := w.fn([]TypeId{w.builtins.NumberType}, []TypeId{w.builtins.StringType})
	binary := w.fn([]TypeId{w.builtins.NumberType, w.builtins.NumberType}, []TypeId{w.builtins.BooleanType})
	overloaded := w.arena.NewType(&IntersectionType{Parts: []TypeId{unary, binary}})

	result, c := w.call(overloaded, w.builtins.NumberType, w.builtins.NumberType)
	bound := w.unpack1(result, c)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.BooleanType, Follow(bound))
}

func TestCallInstantiatesGenericCalleePerSite(t *testing.T) {
	// Two calls of the same generic identity must not contaminate each other.
	w := newTestWorld()
	paramT := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	id := w.arena.NewType(&FunctionType{
		Generics: []TypeId{paramT},
		ArgTypes: w.pack(paramT),
		RetTypes: w.pack(paramT),
	})

	first, c1 := w.call(id, w.builtins.NumberType)
	firstBound := w.unpack1(first, c1)
	second, c2 := w.call(id, w.builtins.StringType)
	secondBound := w.unpack1(second, c2)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	firstFree, ok := Follow(firstBound).Variant().(*FreeType)
	assert.True(t, ok)
	assert.Equal(t, w.builtins.NumberType, Follow(firstFree.LowerBound))
	secondFree, ok := Follow(secondBound).Variant().(*FreeType)
	assert.True(t, ok)
	assert.Equal(t, w.builtins.StringType, Follow(secondFree.LowerBound))
}

func TestCallResolvesLeftoverDiscriminants(t *testing.T) {
	w := newTestWorld()
	fn := w.fn([]TypeId{w.builtins.StringType}, nil)
	result := w.arena.NewPack(&BlockedPack{})
	discriminant := w.arena.NewType(&BlockedType{})
	w.push(&FunctionCallConstraint{
		Fn:            fn,
		ArgsPack:      w.pack(w.builtins.StringType),
		Result:        result,
		Discriminants: []TypeId{nil, discriminant},
	})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.Equal(t, w.builtins.AnyType, Follow(discriminant))
}

func TestFunctionCheckBindsUnannotatedLambdaParams(t *testing.T) {
	// local f = function(cb: (number) -> ()) ... end
	// f(function(x) ... end)  -- x must come out as number
	w := newTestWorld()
	expectedCb := w.fn([]TypeId{w.builtins.NumberType}, nil)
	callee := w.fn([]TypeId{expectedCb}, nil)

	paramX := w.arena.FreshType(w.builtins, w.scope)
	lambda := &LambdaExpr{Range: w.loc(), Params: []LambdaParam{{Range: w.loc(), Ty: paramX}}}
	argTy := w.fn([]TypeId{paramX}, nil)

	w.push(&FunctionCheckConstraint{
		Fn:       callee,
		ArgsPack: w.pack(argTy),
		CallSite: &CallExpr{Range: w.loc(), Args: []CallArg{{Range: w.loc(), Kind: ArgLambda, Lambda: lambda, Ty: argTy}}},
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(paramX))
}

func TestFunctionCheckLeavesAnnotatedParamsAlone(t *testing.T) {
	w := newTestWorld()
	expectedCb := w.fn([]TypeId{w.builtins.NumberType}, nil)
	callee := w.fn([]TypeId{expectedCb}, nil)

	paramX := w.arena.FreshType(w.builtins, w.scope)
	lambda := &LambdaExpr{Range: w.loc(), Params: []LambdaParam{{Range: w.loc(), Annotated: true, Ty: paramX}}}

	w.push(&FunctionCheckConstraint{
		Fn:       callee,
		ArgsPack: w.pack(w.fn([]TypeId{paramX}, nil)),
		CallSite: &CallExpr{Range: w.loc(), Args: []CallArg{{Range: w.loc(), Kind: ArgLambda, Lambda: lambda}}},
	})

	s := w.solve(t)

	_, stillFree := Follow(paramX).Variant().(*FreeType)
	assert.True(t, stillFree)
	assert.False(t, s.Errors.HasError())
}

func TestFunctionCheckPushesExpectedTableFields(t *testing.T) {
	w := newTestWorld()
	expectedArg := w.table(TableSealed, map[string]*Property{"count": SharedProperty(w.builtins.NumberType)})
	callee := w.fn([]TypeId{expectedArg}, nil)

	fieldTy := w.arena.FreshType(w.builtins, w.scope)
	literal := &TableExpr{Range: w.loc(), Fields: []TableField{{Range: w.loc(), Key: "count", ValueTy: fieldTy}}}

	w.push(&FunctionCheckConstraint{
		Fn:       callee,
		ArgsPack: w.pack(expectedArg),
		CallSite: &CallExpr{Range: w.loc(), Args: []CallArg{{Range: w.loc(), Kind: ArgTable, Table: literal}}},
	})

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	fieldFree, ok := Follow(fieldTy).Variant().(*FreeType)
	assert.True(t, ok)
	assert.Equal(t, w.builtins.NumberType, Follow(fieldFree.UpperBound))
}

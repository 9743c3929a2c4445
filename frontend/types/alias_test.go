package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-train/luau/frontend/ilerr"
)

func (w *testWorld) declareAlias(name string, params []GenericTypeDefinition, body TypeId) *TypeFun {
	alias := &TypeFun{TypeParams: params, Type: body}
	w.scope.PrivateTypeBindings[name] = alias
	return alias
}

func (w *testWorld) pending(name string, args ...TypeId) TypeId {
	target := w.arena.NewType(&PendingExpansionType{Name: name, TypeArguments: args})
	w.push(&TypeAliasExpansionConstraint{Target: target})
	return target
}

func TestExpandAliasWithoutParameters(t *testing.T) {
	w := newTestWorld()
	w.declareAlias("Id", nil, w.builtins.NumberType)
	target := w.pending("Id")

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(target))
}

func TestExpandUnknownAliasReportsUnknownSymbol(t *testing.T) {
	w := newTestWorld()
	target := w.pending("Missing")

	s := w.solve(t)

	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.UnknownSymbol, s.Errors.Errors()[0].Code())
	assert.Equal(t, w.builtins.ErrorType, Follow(target))
}

func TestExpandAliasInstantiatesBody(t *testing.T) {
	w := newTestWorld()
	paramT := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	body := w.table(TableSealed, map[string]*Property{
		"first":  SharedProperty(paramT),
		"second": SharedProperty(paramT),
	})
	w.declareAlias("Pair", []GenericTypeDefinition{{Ty: paramT}}, body)
	target := w.pending("Pair", w.builtins.NumberType)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	expanded, ok := Follow(target).Variant().(*TableType)
	assert.True(t, ok)
	assert.Equal(t, w.builtins.NumberType, Follow(expanded.Props["first"].ReadTy))
	assert.Equal(t, []TypeId{w.builtins.NumberType}, expanded.InstantiatedTypeParams)
	// the declared body must not have been stamped through
	assert.Equal(t, paramT, Follow(body.Variant().(*TableType).Props["first"].ReadTy))
}

func TestExpandAliasCachesOneNodePerArgumentList(t *testing.T) {
	w := newTestWorld()
	paramT := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	body := w.table(TableSealed, map[string]*Property{"value": SharedProperty(paramT)})
	w.declareAlias("Box", []GenericTypeDefinition{{Ty: paramT}}, body)

	first := w.pending("Box", w.builtins.StringType)
	second := w.pending("Box", w.builtins.StringType)
	other := w.pending("Box", w.builtins.NumberType)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, Follow(first), Follow(second))
	assert.NotEqual(t, Follow(first), Follow(other))
}

func TestExpandAliasAppliedToItsOwnParameters(t *testing.T) {
	w := newTestWorld()
	paramT := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	body := w.table(TableSealed, map[string]*Property{"value": SharedProperty(paramT)})
	alias := w.declareAlias("Box", []GenericTypeDefinition{{Ty: paramT}}, body)
	target := w.pending("Box", paramT)

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	assert.Equal(t, Follow(alias.Type), Follow(target))
}

func TestExpandAliasFillsDefaults(t *testing.T) {
	w := newTestWorld()
	paramT := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	body := w.table(TableSealed, map[string]*Property{"value": SharedProperty(paramT)})
	w.declareAlias("Opt", []GenericTypeDefinition{{Ty: paramT, Default: w.builtins.StringType}}, body)
	target := w.pending("Opt")

	s := w.solve(t)

	assert.False(t, s.Errors.HasError())
	expanded := Follow(target).Variant().(*TableType)
	assert.Equal(t, w.builtins.StringType, Follow(expanded.Props["value"].ReadTy))
}

func TestExpandAliasDivergingOnItselfIsRejected(t *testing.T) {
	// type Weird<A> = Weird<{ value: A }> would grow a fresh instantiation
	// on every expansion.
	w := newTestWorld()
	paramA := w.arena.NewType(&GenericType{Name: "A", Scope: w.scope})
	wrapped := w.table(TableSealed, map[string]*Property{"value": SharedProperty(paramA)})
	body := w.arena.NewType(&PendingExpansionType{Name: "Weird", TypeArguments: []TypeId{wrapped}})
	w.declareAlias("Weird", []GenericTypeDefinition{{Ty: paramA}}, body)
	target := w.pending("Weird", w.builtins.NumberType)

	s := w.solve(t)

	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.RecursiveTypeWithDifferentParams, s.Errors.Errors()[0].Code())
	assert.Equal(t, w.builtins.ErrorType, Follow(target))
}

func TestNameConstraintStampsTables(t *testing.T) {
	w := newTestWorld()
	named := w.table(TableSealed, nil)
	w.push(&NameConstraint{NamedType: named, Name: "Point"})
	synthetic := w.table(TableSealed, nil)
	w.push(&NameConstraint{NamedType: synthetic, Name: "anonymous", Synthetic: true})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.Equal(t, "Point", named.Variant().(*TableType).Name)
	assert.Equal(t, "anonymous", synthetic.Variant().(*TableType).SyntheticName)
	assert.Empty(t, synthetic.Variant().(*TableType).Name)
}

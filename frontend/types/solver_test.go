package types

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/u-train/luau/frontend/ast"
)

type testWorld struct {
	arena    *Arena
	builtins *Builtins
	scope    *Scope

	constraints []*Constraint
	nextPos     token.Pos
}

func newTestWorld() *testWorld {
	return &testWorld{
		arena:    NewArena(),
		builtins: NewBuiltins(),
		scope:    NewScope(nil),
		nextPos:  1,
	}
}

func (w *testWorld) loc() ast.Range {
	r := ast.Range{PosStart: w.nextPos, PosEnd: w.nextPos + 1}
	w.nextPos += 2
	return r
}

func (w *testWorld) push(payload ConstraintPayload, deps ...*Constraint) *Constraint {
	c := &Constraint{Scope: w.scope, Location: w.loc(), Payload: payload, Dependencies: deps}
	w.constraints = append(w.constraints, c)
	return c
}

func (w *testWorld) pack(head ...TypeId) TypePackId {
	return w.arena.NewPack(&ListPack{Head: head})
}

func (w *testWorld) fn(args []TypeId, rets []TypeId) TypeId {
	return w.arena.NewType(&FunctionType{
		ArgTypes: w.pack(args...),
		RetTypes: w.pack(rets...),
	})
}

func (w *testWorld) table(state TableState, props map[string]*Property) TypeId {
	if props == nil {
		props = map[string]*Property{}
	}
	return w.arena.NewType(&TableType{Props: props, State: state, Scope: w.scope})
}

func (w *testWorld) solve(t *testing.T) *Solver {
	t.Helper()
	s := NewSolver(w.arena, w.builtins, w.scope, w.constraints, SolverOptions{ModuleName: "test"})
	require.NoError(t, s.Run())
	require.Empty(t, s.Failures)
	return s
}

func TestSolveSubtypeWidensLowerBound(t *testing.T) {
	w := newTestWorld()
	free := w.arena.FreshType(w.builtins, w.scope)
	w.push(&SubtypeConstraint{SubType: w.builtins.NumberType, SuperType: free})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	freeVariant := Follow(free).Variant().(*FreeType)
	assert.Equal(t, w.builtins.NumberType, Follow(freeVariant.LowerBound))
}

func TestSolveReleasesEveryConstraintBlockedOnOneType(t *testing.T) {
	// Two constraints wait on the same placeholder. Binding it must wake
	// both, exactly once each.
	w := newTestWorld()
	blocked := w.arena.NewType(&BlockedType{})

	propResult := w.arena.NewType(&BlockedType{})
	w.push(&HasPropConstraint{ResultType: propResult, SubjectType: blocked, Prop: "x"})
	indexResult := w.arena.NewType(&BlockedType{})
	w.push(&HasIndexerConstraint{ResultType: indexResult, SubjectType: blocked, IndexType: w.builtins.NumberType})

	source := w.table(TableSealed, map[string]*Property{"x": SharedProperty(w.builtins.StringType)})
	source.Variant().(*TableType).Indexer = &TableIndexer{
		IndexType:       w.builtins.NumberType,
		IndexResultType: w.builtins.BooleanType,
	}
	w.push(&Unpack1Constraint{ResultType: blocked, SourceType: source})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.StringType, Follow(propResult))
	assert.Equal(t, w.builtins.BooleanType, Follow(indexResult))
}

func TestPrimitiveTypeWaitsForOtherConstraints(t *testing.T) {
	// The commit must hold off while more than one subtype constraint still
	// mentions the free type, without needing a force pass.
	w := newTestWorld()
	free := w.arena.FreshType(w.builtins, w.scope)
	w.push(&PrimitiveTypeConstraint{FreeType: free, PrimitiveType: w.builtins.NumberType})
	w.push(&SubtypeConstraint{SubType: w.builtins.NumberType, SuperType: free})
	w.push(&SubtypeConstraint{SubType: free, SuperType: w.builtins.NumberType})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.False(t, s.Errors.HasError())
	assert.Equal(t, w.builtins.NumberType, Follow(free))
}

func TestPrimitiveTypeSingletonUpperBoundKeepsLowerBound(t *testing.T) {
	w := newTestWorld()
	free := w.arena.FreshType(w.builtins, w.scope)
	w.push(&PrimitiveTypeConstraint{FreeType: free, PrimitiveType: w.builtins.BooleanType})
	w.push(&SubtypeConstraint{SubType: w.builtins.FalseType, SuperType: free})
	w.push(&SubtypeConstraint{SubType: free, SuperType: w.builtins.FalseType})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	assert.Equal(t, w.builtins.FalseType, Follow(free))
}

func TestEqualityUnifiesBothDirections(t *testing.T) {
	w := newTestWorld()
	a := w.arena.FreshType(w.builtins, w.scope)
	b := w.arena.FreshType(w.builtins, w.scope)
	w.push(&EqualityConstraint{ResultType: a, AssignmentType: b})
	w.push(&SubtypeConstraint{SubType: w.builtins.StringType, SuperType: b})

	s := w.solve(t)

	assert.True(t, s.IsDone())
	aFree := Follow(a).Variant().(*FreeType)
	assert.NotEqual(t, w.builtins.NeverType, Follow(aFree.LowerBound))
}

func TestRandomizeDoesNotChangeTheFixpoint(t *testing.T) {
	run := func(seed uint32) string {
		w := newTestWorld()
		callee := w.fn([]TypeId{w.builtins.StringType}, []TypeId{w.builtins.NumberType})
		result := w.arena.NewPack(&BlockedPack{})
		call := w.push(&FunctionCallConstraint{
			Fn:       callee,
			ArgsPack: w.pack(w.builtins.StringType),
			Result:   result,
		})
		bound := w.arena.NewType(&BlockedType{})
		w.push(&UnpackConstraint{ResultPack: w.pack(bound), SourcePack: result}, call)

		s := NewSolver(w.arena, w.builtins, w.scope, w.constraints, SolverOptions{ModuleName: "test"})
		if seed != 0 {
			s.Randomize(seed)
		}
		require.NoError(t, s.Run())
		return TypeName(Follow(bound))
	}

	baseline := run(0)
	for _, seed := range []uint32{1, 7, 1337} {
		assert.Equal(t, baseline, run(seed), "seed %d diverged", seed)
	}
}

func TestIterationLimitReportsCodeTooComplex(t *testing.T) {
	w := newTestWorld()
	// A constraint that only a force pass can discharge: property lookup on a
	// placeholder nothing ever binds.
	blocked := w.arena.NewType(&BlockedType{})
	result := w.arena.NewType(&BlockedType{})
	w.push(&HasPropConstraint{ResultType: result, SubjectType: blocked, Prop: "x"})

	s := NewSolver(w.arena, w.builtins, w.scope, w.constraints, SolverOptions{
		ModuleName: "test",
		Limits:     Limits{RecursionLimit: defaultRecursionLimit, IterationLimit: 1},
	})
	require.NoError(t, s.Run())
	// the pass budget is exhausted before quiescence
	assert.True(t, s.Errors.HasError())
}

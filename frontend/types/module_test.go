package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-train/luau/frontend/ilerr"
)

func (w *testWorld) solverWith(t *testing.T, opts SolverOptions) *Solver {
	t.Helper()
	if opts.ModuleName == "" {
		opts.ModuleName = "test"
	}
	return NewSolver(w.arena, w.builtins, w.scope, w.constraints, opts)
}

func TestResolveModuleReturnsFirstReturnValue(t *testing.T) {
	w := newTestWorld()
	resolver := MapResolver{
		"game/ReplicatedStorage/util": {
			Name:       "game/ReplicatedStorage/util",
			ReturnType: w.pack(w.builtins.NumberType, w.builtins.StringType),
			Kind:       SourceModule,
		},
	}
	s := w.solverWith(t, SolverOptions{ModuleResolver: resolver})

	result := s.resolveModule("game/ReplicatedStorage/util", w.loc())

	assert.Equal(t, w.builtins.NumberType, Follow(result))
	assert.False(t, s.Errors.HasError())
}

func TestResolveModuleUnknownPathReportsUnknownRequire(t *testing.T) {
	w := newTestWorld()
	s := w.solverWith(t, SolverOptions{ModuleResolver: MapResolver{}})

	result := s.resolveModule("game/Missing", w.loc())

	assert.Equal(t, w.builtins.ErrorType, Follow(result))
	assert.True(t, s.Errors.HasError())
	assert.Equal(t, ilerr.UnknownRequire, s.Errors.Errors()[0].Code())
}

func TestResolveModuleScriptCannotBeRequired(t *testing.T) {
	w := newTestWorld()
	resolver := MapResolver{
		"game/Main": {Name: "game/Main", ReturnType: w.pack(), Kind: SourceScript},
	}
	s := w.solverWith(t, SolverOptions{ModuleResolver: resolver})

	result := s.resolveModule("game/Main", w.loc())

	assert.Equal(t, w.builtins.ErrorType, Follow(result))
	assert.Equal(t, ilerr.IllegalRequire, s.Errors.Errors()[0].Code())
}

func TestResolveModuleOnRequireCycleIsAny(t *testing.T) {
	w := newTestWorld()
	s := w.solverWith(t, SolverOptions{
		ModuleResolver: MapResolver{},
		RequireCycles: []RequireCycle{
			{Path: []string{"game/A", "game/B"}},
		},
	})

	result := s.resolveModule("game/B", w.loc())

	assert.Equal(t, w.builtins.AnyType, Follow(result))
	assert.False(t, s.Errors.HasError())
}

func TestResolveModuleEmptyReturnIsErrorRecovery(t *testing.T) {
	w := newTestWorld()
	resolver := MapResolver{
		"game/SideEffects": {Name: "game/SideEffects", ReturnType: w.pack(), Kind: SourceModule},
	}
	s := w.solverWith(t, SolverOptions{ModuleResolver: resolver})

	result := s.resolveModule("game/SideEffects", w.loc())

	assert.Equal(t, w.builtins.ErrorType, Follow(result))
	assert.False(t, s.Errors.HasError())
}

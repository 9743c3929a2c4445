package cmd

import (
	"fmt"
	"go/token"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
	"github.com/u-train/luau/frontend/ast"
	"github.com/u-train/luau/frontend/ilerr"
	"github.com/u-train/luau/frontend/types"
	"github.com/u-train/luau/internal/log"
)

var SolveCmd = &cobra.Command{
	Use:          "solve",
	Short:        "Run the solver on a built-in constraint set and dump the resulting bindings",
	RunE:         runSolve,
	SilenceUsage: true,
}

var (
	solveLogLevel *int
	solveShuffle  *uint32
)

func init() {
	solveLogLevel = SolveCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	solveShuffle = SolveCmd.Flags().Uint32("shuffle", 0, "shuffle constraint order with this seed before solving")
}

func runSolve(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*solveLogLevel))

	arena := types.NewArena()
	builtins := types.NewBuiltins()
	rootScope := types.NewScope(nil)

	constraints := demoConstraints(arena, builtins, rootScope)

	solver := types.NewSolver(arena, builtins, rootScope, constraints, types.SolverOptions{
		ModuleName: "demo",
		StepLogger: types.NewSlogStepLogger(),
	})
	if *solveShuffle != 0 {
		solver.Randomize(*solveShuffle)
	}
	if err := solver.Run(); err != nil {
		return fmt.Errorf("solve aborted: %w", err)
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(rootScope.Bindings))
	for name := range rootScope.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s : %s\n", name, types.TypeName(rootScope.Bindings[name]))
	}

	if !solver.IsDone() {
		fmt.Fprintln(out, "solver stalled before quiescence")
	}
	for _, failure := range solver.Failures {
		fmt.Fprintf(out, "internal failure: %v\n", failure)
	}
	if solver.Errors.HasError() {
		for _, typeError := range solver.Errors.Errors() {
			fmt.Fprintln(out, ilerr.FormatWithCode(typeError))
		}
		return fmt.Errorf("%d errors found during solving", len(solver.Errors.Errors()))
	}
	return nil
}

// demoConstraints encodes a small program against the root scope:
//
//	type Pair<T> = { first: T, second: T }
//	local numbers: Pair<number>
//	local greet = function(name: string): string ... end
//	local message = greet("world")
//	local box = {}
//	box.tag = message
//	local tag = box.tag
//	local id = function(x) return x end
func demoConstraints(arena *types.Arena, builtins *types.Builtins, scope *types.Scope) []*types.Constraint {
	var constraints []*types.Constraint
	pos := token.Pos(1)
	push := func(payload types.ConstraintPayload, deps ...*types.Constraint) *types.Constraint {
		c := &types.Constraint{
			Scope:        scope,
			Location:     ast.Range{PosStart: pos, PosEnd: pos + 1},
			Payload:      payload,
			Dependencies: deps,
		}
		pos += 2
		constraints = append(constraints, c)
		return c
	}

	// type Pair<T> = { first: T, second: T }
	paramT := arena.NewType(&types.GenericType{Name: "T", Scope: scope})
	pairBody := arena.NewType(&types.TableType{
		Props: map[string]*types.Property{
			"first":  types.SharedProperty(paramT),
			"second": types.SharedProperty(paramT),
		},
		State: types.TableSealed,
		Scope: scope,
	})
	scope.PrivateTypeBindings["Pair"] = &types.TypeFun{
		TypeParams: []types.GenericTypeDefinition{{Ty: paramT}},
		Type:       pairBody,
	}

	// local numbers: Pair<number>
	numbersTy := arena.NewType(&types.PendingExpansionType{
		Name:          "Pair",
		TypeArguments: []types.TypeId{builtins.NumberType},
	})
	expansion := push(&types.TypeAliasExpansionConstraint{Target: numbersTy})
	push(&types.NameConstraint{
		NamedType:      numbersTy,
		Name:           "Pair",
		TypeParameters: []types.TypeId{builtins.NumberType},
	}, expansion)
	scope.Bindings["numbers"] = numbersTy

	// local greet = function(name: string): string ... end
	greetFn := arena.NewType(&types.FunctionType{
		ArgTypes: arena.NewPack(&types.ListPack{Head: []types.TypeId{builtins.StringType}}),
		RetTypes: arena.NewPack(&types.ListPack{Head: []types.TypeId{builtins.StringType}}),
	})
	scope.Bindings["greet"] = greetFn

	// local message = greet("world")
	callResult := arena.NewPack(&types.BlockedPack{})
	call := push(&types.FunctionCallConstraint{
		Fn:       greetFn,
		ArgsPack: arena.NewPack(&types.ListPack{Head: []types.TypeId{builtins.StringType}}),
		Result:   callResult,
	})
	messageTy := arena.NewType(&types.BlockedType{})
	push(&types.UnpackConstraint{
		ResultPack: arena.NewPack(&types.ListPack{Head: []types.TypeId{messageTy}}),
		SourcePack: callResult,
	}, call)
	scope.Bindings["message"] = messageTy

	// local box = {}; box.tag = message; local tag = box.tag
	boxTy := arena.NewType(&types.TableType{
		Props: map[string]*types.Property{},
		State: types.TableUnsealed,
		Scope: scope,
	})
	setResult := arena.NewType(&types.BlockedType{})
	assignment := push(&types.SetPropConstraint{
		ResultType:  setResult,
		SubjectType: boxTy,
		Path:        []string{"tag"},
		PropType:    messageTy,
	})
	tagTy := arena.NewType(&types.BlockedType{})
	push(&types.HasPropConstraint{
		ResultType:  tagTy,
		SubjectType: boxTy,
		Prop:        "tag",
		Context:     types.ValueRValue,
	}, assignment)
	scope.Bindings["box"] = boxTy
	scope.Bindings["tag"] = tagTy

	// local id = function(x) return x end
	xTy := arena.FreshType(builtins, scope)
	idFn := arena.NewType(&types.FunctionType{
		ArgTypes: arena.NewPack(&types.ListPack{Head: []types.TypeId{xTy}}),
		RetTypes: arena.NewPack(&types.ListPack{Head: []types.TypeId{xTy}}),
	})
	idTy := arena.NewType(&types.BlockedType{})
	push(&types.GeneralizationConstraint{GeneralizedType: idTy, SourceType: idFn})
	scope.Bindings["id"] = idTy

	return constraints
}

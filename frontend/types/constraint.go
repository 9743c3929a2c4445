package types

import (
	"github.com/u-train/luau/frontend/ast"
)

// Constraint is one unit of typing work. Constraints are allocated once and
// referenced by the blocking index for as long as they are unsolved.
type Constraint struct {
	Scope    *Scope
	Location ast.Range
	Payload  ConstraintPayload

	// Dependencies are constraints that must be solved before this one is
	// eligible for dispatch.
	Dependencies []*Constraint
}

// ConstraintPayload is the kind-specific part of a constraint.
type ConstraintPayload interface {
	isConstraintPayload()
	Kind() string
}

// SubtypeConstraint asserts SubType <: SuperType.
type SubtypeConstraint struct {
	SubType   TypeId
	SuperType TypeId
}

// PackSubtypeConstraint asserts SubPack <: SuperPack element-wise.
type PackSubtypeConstraint struct {
	SubPack   TypePackId
	SuperPack TypePackId
}

// EqualityConstraint asserts both orderings between its operands.
type EqualityConstraint struct {
	ResultType     TypeId
	AssignmentType TypeId
}

// GeneralizationConstraint closes SourceType over the free types scoped at or
// below the constraint's scope, binding the scheme to GeneralizedType.
type GeneralizationConstraint struct {
	GeneralizedType TypeId
	SourceType      TypeId

	// InteriorTypes are generalized in the same pass, their results discarded.
	InteriorTypes []TypeId
}

// IterableConstraint resolves a generalized `for ... in` form: the iterator
// pack produces values unpacked into Variables.
type IterableConstraint struct {
	Iterator  TypePackId
	Variables TypePackId

	// NextAstKey locates the for-in expression so the resolved iterator
	// function can be recorded for downstream tooling.
	NextAstKey ast.Range
}

// NameConstraint attaches a user-visible name to a table or metatable.
type NameConstraint struct {
	NamedType          TypeId
	Name               string
	Synthetic          bool
	TypeParameters     []TypeId
	TypePackParameters []TypePackId
}

// TypeAliasExpansionConstraint expands the PendingExpansionType in Target.
type TypeAliasExpansionConstraint struct {
	Target TypeId
}

// FunctionCallConstraint resolves a call of Fn with ArgsPack, binding the
// BlockedPack in Result.
type FunctionCallConstraint struct {
	Fn       TypeId
	ArgsPack TypePackId
	Result   TypePackId

	CallSite ast.Range

	// Discriminants are refinement types for the call's arguments; entries
	// may be nil. Any still blocked after dispatch are bound to any.
	Discriminants []TypeId
}

// CallArgKind classifies a call-site argument expression for bidirectional
// checking.
type CallArgKind int

const (
	ArgOther CallArgKind = iota
	ArgConstant
	ArgLambda
	ArgTable
)

// LambdaParam is one parameter of a lambda argument. Unannotated parameters
// whose type is still free are bound to the expected parameter type.
type LambdaParam struct {
	ast.Range
	Annotated bool
	Ty        TypeId
}

type LambdaExpr struct {
	ast.Range
	Params []LambdaParam
}

// TableField is one field of a table-literal argument.
type TableField struct {
	ast.Range
	Key     string
	ValueTy TypeId
}

type TableExpr struct {
	ast.Range
	Fields []TableField
}

// CallArg is one argument at a call site, as much of the expression as
// bidirectional checking needs.
type CallArg struct {
	ast.Range
	Kind   CallArgKind
	Ty     TypeId
	Lambda *LambdaExpr
	Table  *TableExpr
}

// CallExpr abstracts the call-site expression fed to FunctionCheckConstraint.
type CallExpr struct {
	ast.Range
	Self bool
	Args []CallArg
}

// FunctionCheckConstraint pushes expected types from a known callee into the
// call site's literal and lambda arguments.
type FunctionCheckConstraint struct {
	Fn       TypeId
	ArgsPack TypePackId
	CallSite *CallExpr
}

// PrimitiveTypeConstraint commits FreeType to PrimitiveType once its last
// other constraint is about to be solved.
type PrimitiveTypeConstraint struct {
	FreeType      TypeId
	PrimitiveType TypeId
}

// ValueContext distinguishes reads from writes during property lookup.
type ValueContext int

const (
	ValueRValue ValueContext = iota
	ValueLValue
)

// HasPropConstraint binds ResultType to the type of Prop on SubjectType.
type HasPropConstraint struct {
	ResultType  TypeId
	SubjectType TypeId
	Prop        string
	Context     ValueContext

	// InConditional relaxes missing properties to unknown, for refinements.
	InConditional bool
	// SuppressSimplification keeps multi-result lookups as raw unions.
	SuppressSimplification bool
}

// SetPropConstraint walks Path through unsealed tables and installs PropType
// on the leaf. ResultType is bound to the subject threaded through.
type SetPropConstraint struct {
	ResultType  TypeId
	SubjectType TypeId
	Path        []string
	PropType    TypeId
}

// HasIndexerConstraint binds ResultType to the value type stored at IndexType
// on SubjectType.
type HasIndexerConstraint struct {
	ResultType  TypeId
	SubjectType TypeId
	IndexType   TypeId
}

// SetIndexerConstraint installs or checks an indexer write on SubjectType.
type SetIndexerConstraint struct {
	SubjectType TypeId
	IndexType   TypeId
	PropType    TypeId
}

// UnpackConstraint destructures SourcePack into the known-length ResultPack.
// Over-long result packs are filled with nil.
type UnpackConstraint struct {
	ResultPack TypePackId
	SourcePack TypePackId
}

// Unpack1Constraint is the single-type form of UnpackConstraint.
type Unpack1Constraint struct {
	ResultType TypeId
	SourceType TypeId
}

// ReduceConstraint asks the family reducer to discharge the family instances
// inside Ty.
type ReduceConstraint struct {
	Ty TypeId
}

// ReducePackConstraint is ReduceConstraint for packs.
type ReducePackConstraint struct {
	Tp TypePackId
}

func (*SubtypeConstraint) isConstraintPayload()            {}
func (*PackSubtypeConstraint) isConstraintPayload()        {}
func (*EqualityConstraint) isConstraintPayload()           {}
func (*GeneralizationConstraint) isConstraintPayload()     {}
func (*IterableConstraint) isConstraintPayload()           {}
func (*NameConstraint) isConstraintPayload()               {}
func (*TypeAliasExpansionConstraint) isConstraintPayload() {}
func (*FunctionCallConstraint) isConstraintPayload()       {}
func (*FunctionCheckConstraint) isConstraintPayload()      {}
func (*PrimitiveTypeConstraint) isConstraintPayload()      {}
func (*HasPropConstraint) isConstraintPayload()            {}
func (*SetPropConstraint) isConstraintPayload()            {}
func (*HasIndexerConstraint) isConstraintPayload()         {}
func (*SetIndexerConstraint) isConstraintPayload()         {}
func (*UnpackConstraint) isConstraintPayload()             {}
func (*Unpack1Constraint) isConstraintPayload()            {}
func (*ReduceConstraint) isConstraintPayload()             {}
func (*ReducePackConstraint) isConstraintPayload()         {}

func (*SubtypeConstraint) Kind() string            { return "Subtype" }
func (*PackSubtypeConstraint) Kind() string        { return "PackSubtype" }
func (*EqualityConstraint) Kind() string           { return "Equality" }
func (*GeneralizationConstraint) Kind() string     { return "Generalization" }
func (*IterableConstraint) Kind() string           { return "Iterable" }
func (*NameConstraint) Kind() string               { return "Name" }
func (*TypeAliasExpansionConstraint) Kind() string { return "TypeAliasExpansion" }
func (*FunctionCallConstraint) Kind() string       { return "FunctionCall" }
func (*FunctionCheckConstraint) Kind() string      { return "FunctionCheck" }
func (*PrimitiveTypeConstraint) Kind() string      { return "PrimitiveType" }
func (*HasPropConstraint) Kind() string            { return "HasProp" }
func (*SetPropConstraint) Kind() string            { return "SetProp" }
func (*HasIndexerConstraint) Kind() string         { return "HasIndexer" }
func (*SetIndexerConstraint) Kind() string         { return "SetIndexer" }
func (*UnpackConstraint) Kind() string             { return "Unpack" }
func (*Unpack1Constraint) Kind() string            { return "Unpack1" }
func (*ReduceConstraint) Kind() string             { return "Reduce" }
func (*ReducePackConstraint) Kind() string         { return "ReducePack" }

// GetFreeTypes collects the free types mentioned by a subtyping payload.
// The solver uses these to maintain per-type counts of outstanding subtype
// constraints, which gate commit decisions like PrimitiveTypeConstraint.
func (c *Constraint) GetFreeTypes() []TypeId {
	var free []TypeId
	collect := func(ty TypeId) bool {
		if _, ok := Follow(ty).variant.(*FreeType); ok {
			free = append(free, Follow(ty))
		}
		return true
	}
	switch p := c.Payload.(type) {
	case *SubtypeConstraint:
		visitType(p.SubType, collect, nil)
		visitType(p.SuperType, collect, nil)
	case *PackSubtypeConstraint:
		visitPackTypes(p.SubPack, collect)
		visitPackTypes(p.SuperPack, collect)
	case *EqualityConstraint:
		visitType(p.ResultType, collect, nil)
		visitType(p.AssignmentType, collect, nil)
	}
	return free
}

// visitPackTypes walks every type reachable from a pack root.
func visitPackTypes(tp TypePackId, visit func(TypeId) bool) {
	head, tail := Flatten(tp)
	for _, ty := range head {
		visitType(ty, visit, nil)
	}
	if tail != nil {
		if v, ok := FollowPack(tail).variant.(*VariadicPack); ok {
			visitType(v.Ty, visit, nil)
		}
	}
}

package types

import (
	"github.com/pkg/errors"
	"github.com/u-train/luau/internal/log"
)

var logger = log.DefaultLogger.With("section", "types")

// TypeId identifies a type node. Always read it through Follow.
type TypeId = *Type

// Type is a node in the type graph. Its variant may be swapped by the solver
// when a placeholder is committed, so holders of a TypeId must re-inspect
// through Follow after every dispatch.
type Type struct {
	variant    TypeVariant
	owner      *Arena
	persistent bool
	seq        uint64
}

// Variant returns the current variant of the node, without following Bound
// indirection.
func (t *Type) Variant() TypeVariant { return t.variant }

// Seq is a per-arena allocation number, used for deterministic ordering.
func (t *Type) Seq() uint64 { return t.seq }

// Persistent reports whether this node is shared across modules and must
// never be mutated.
func (t *Type) Persistent() bool { return t.persistent }

// TypeVariant is one of the concrete shapes a type node can take.
type TypeVariant interface {
	isTypeVariant()
}

// BoundType is indirection to another node. It is the only variant the solver
// introduces to replace a placeholder.
type BoundType struct {
	Boundee TypeId
}

// FreeType is a type variable with monotone bounds: the lower bound only ever
// widens, the upper bound only ever narrows.
type FreeType struct {
	Scope      *Scope
	LowerBound TypeId
	UpperBound TypeId
}

// GenericType is a quantified type parameter.
type GenericType struct {
	Name  string
	Scope *Scope
}

// BlockedType is a placeholder that only its owning constraint may bind.
// A nil Owner means any constraint may bind it.
type BlockedType struct {
	Owner *Constraint
}

// PendingExpansionType is an unresolved reference to a parametric type alias,
// awaiting a TypeAliasExpansionConstraint.
type PendingExpansionType struct {
	Prefix        string // qualifying module alias, empty for local names
	Name          string
	TypeArguments []TypeId
	PackArguments []TypePackId
}

// TypeFamilyInstanceType is a deferred type-level computation, reduced by a
// ReduceConstraint.
type TypeFamilyInstanceType struct {
	Family        *TypeFamily
	TypeArguments []TypeId
	PackArguments []TypePackId
}

// LocalType accumulates the domain of a local variable across its definite
// assignments. When BlockCount reaches zero the node is bound to Domain.
type LocalType struct {
	Domain     TypeId
	BlockCount int
	Name       string
}

type PrimitiveKind int

const (
	NilKind PrimitiveKind = iota
	BooleanKind
	NumberKind
	StringKind
	ThreadKind
)

func (k PrimitiveKind) String() string {
	switch k {
	case NilKind:
		return "nil"
	case BooleanKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ThreadKind:
		return "thread"
	}
	return "unknown primitive"
}

type PrimType struct {
	Kind PrimitiveKind
	// Metatable is the shared metatable for primitives that carry one,
	// like the string library. May be nil.
	Metatable TypeId
}

// SingletonType is a literal type like "hello" or true.
type SingletonType struct {
	BoolValue   bool
	StringValue string
	IsString    bool
}

func (s *SingletonType) Kind() PrimitiveKind {
	if s.IsString {
		return StringKind
	}
	return BooleanKind
}

type FunctionType struct {
	Generics     []TypeId
	GenericPacks []TypePackId
	ArgTypes     TypePackId
	RetTypes     TypePackId
}

// Property is a table or class member, split into read and write facets.
// A nil facet means the property cannot be used in that direction.
type Property struct {
	ReadTy  TypeId
	WriteTy TypeId
}

func SharedProperty(ty TypeId) *Property {
	return &Property{ReadTy: ty, WriteTy: ty}
}

func ReadOnlyProperty(ty TypeId) *Property {
	return &Property{ReadTy: ty}
}

type TableIndexer struct {
	IndexType       TypeId
	IndexResultType TypeId
}

type TableState int

const (
	// TableSealed tables do not accept new properties.
	TableSealed TableState = iota
	// TableUnsealed tables accept new string-keyed properties.
	TableUnsealed
	// TableFree tables accumulate any property that is read or written.
	TableFree
	// TableGeneric tables appear inside quantified schemes.
	TableGeneric
)

type TableType struct {
	Props   map[string]*Property
	Indexer *TableIndexer
	State   TableState
	Scope   *Scope

	Name          string
	SyntheticName string

	InstantiatedTypeParams     []TypeId
	InstantiatedTypePackParams []TypePackId
}

type MetatableType struct {
	Table     TypeId
	Metatable TypeId
}

type ClassType struct {
	Name      string
	Props     map[string]*Property
	Parent    TypeId
	Metatable TypeId
	Indexer   *TableIndexer
}

type UnionType struct {
	Options []TypeId
}

type IntersectionType struct {
	Parts []TypeId
}

type NeverType struct{}
type AnyType struct{}
type UnknownType struct{}
type ErrorType struct{}

func (*BoundType) isTypeVariant()              {}
func (*FreeType) isTypeVariant()               {}
func (*GenericType) isTypeVariant()            {}
func (*BlockedType) isTypeVariant()            {}
func (*PendingExpansionType) isTypeVariant()   {}
func (*TypeFamilyInstanceType) isTypeVariant() {}
func (*LocalType) isTypeVariant()              {}
func (*PrimType) isTypeVariant()               {}
func (*SingletonType) isTypeVariant()          {}
func (*FunctionType) isTypeVariant()           {}
func (*TableType) isTypeVariant()              {}
func (*MetatableType) isTypeVariant()          {}
func (*ClassType) isTypeVariant()              {}
func (*UnionType) isTypeVariant()              {}
func (*IntersectionType) isTypeVariant()       {}
func (*NeverType) isTypeVariant()              {}
func (*AnyType) isTypeVariant()                {}
func (*UnknownType) isTypeVariant()            {}
func (*ErrorType) isTypeVariant()              {}

// Arena owns every type and pack node allocated for one module.
type Arena struct {
	seq uint64
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) NewType(v TypeVariant) TypeId {
	a.seq++
	return &Type{variant: v, owner: a, seq: a.seq}
}

func (a *Arena) NewPack(v PackVariant) TypePackId {
	a.seq++
	return &TypePack{variant: v, owner: a, seq: a.seq}
}

// FreshType allocates a free type with bounds [never, unknown].
func (a *Arena) FreshType(b *Builtins, scope *Scope) TypeId {
	return a.NewType(&FreeType{
		Scope:      scope,
		LowerBound: b.NeverType,
		UpperBound: b.UnknownType,
	})
}

func (a *Arena) FreshPack(scope *Scope) TypePackId {
	return a.NewPack(&FreePack{Scope: scope})
}

// internalError marks a broken solver invariant. It is recovered at the
// Solver.Run boundary and surfaced through Failures, never past the API.
type internalError struct {
	err error
}

func ice(format string, args ...any) {
	panic(internalError{err: errors.Errorf(format, args...)})
}

// checkMutable asserts the write discipline for in-place variant swaps.
func (a *Arena) checkMutable(ty TypeId) {
	if ty.persistent {
		ice("cannot mutate persistent type %v", TypeName(ty))
	}
	if ty.owner != a {
		ice("cannot mutate type owned by a foreign arena")
	}
}

// BindTo replaces ty's variant with indirection to target.
// Binding is a one-shot transition; the caller is responsible for unblocking
// anything indexed under ty.
func (a *Arena) BindTo(ty TypeId, target TypeId) {
	a.checkMutable(ty)
	if Follow(target) == ty {
		ice("attempted to create a Bound cycle on %v", TypeName(ty))
	}
	ty.variant = &BoundType{Boundee: target}
}

// EmplaceVariant swaps ty's variant in place.
func (a *Arena) EmplaceVariant(ty TypeId, v TypeVariant) {
	a.checkMutable(ty)
	ty.variant = v
}

// EmplacePackVariant swaps tp's variant in place.
func (a *Arena) EmplacePackVariant(tp TypePackId, v PackVariant) {
	if tp.persistent {
		ice("cannot mutate persistent type pack")
	}
	if tp.owner != a {
		ice("cannot mutate type pack owned by a foreign arena")
	}
	tp.variant = v
}

func (a *Arena) BindPackTo(tp TypePackId, target TypePackId) {
	if tp.persistent {
		ice("cannot mutate persistent type pack")
	}
	if tp.owner != a {
		ice("cannot mutate type pack owned by a foreign arena")
	}
	if FollowPack(target) == tp {
		ice("attempted to create a Bound cycle on a type pack")
	}
	tp.variant = &BoundPack{Boundee: target}
}

// Follow chases Bound indirection to the canonical representative.
// It is idempotent. A cycle in the Bound chain is a solver bug.
func Follow(ty TypeId) TypeId {
	slow, fast := ty, ty
	for {
		b, ok := fast.variant.(*BoundType)
		if !ok {
			return fast
		}
		fast = b.Boundee
		if b, ok := fast.variant.(*BoundType); ok {
			fast = b.Boundee
		} else {
			return fast
		}
		slow = slow.variant.(*BoundType).Boundee
		if slow == fast {
			ice("cycle detected in Bound chain")
		}
	}
}

// OccursCheck reports whether needle is reachable from haystack through
// structural edges. Class types are not entered.
func OccursCheck(needle, haystack TypeId) bool {
	needle = Follow(needle)
	found := false
	visitType(haystack, func(ty TypeId) bool {
		if Follow(ty) == needle {
			found = true
		}
		return !found
	}, nil)
	return found
}

// visitType walks every type reachable from root, visiting each node at most
// once. The callback returns false to stop early. Class types are treated as
// leaves, and so are PendingExpansion and TypeFamilyInstance payload
// arguments, which are visited but not expanded further than their argument
// lists.
func visitType(root TypeId, visit func(TypeId) bool, visitPack func(TypePackId) bool) {
	walkTy, _ := newGraphWalker(visit, visitPack)
	walkTy(root)
}

// visitTypePack is visitType rooted at a pack.
func visitTypePack(root TypePackId, visit func(TypeId) bool, visitPack func(TypePackId) bool) {
	_, walkTp := newGraphWalker(visit, visitPack)
	walkTp(root)
}

func newGraphWalker(visit func(TypeId) bool, visitPack func(TypePackId) bool) (func(TypeId) bool, func(TypePackId) bool) {
	seenTypes := map[TypeId]struct{}{}
	seenPacks := map[TypePackId]struct{}{}
	var walkTy func(TypeId) bool
	var walkTp func(TypePackId) bool

	walkTy = func(ty TypeId) bool {
		ty = Follow(ty)
		if _, ok := seenTypes[ty]; ok {
			return true
		}
		seenTypes[ty] = struct{}{}
		if visit != nil && !visit(ty) {
			return false
		}
		switch v := ty.variant.(type) {
		case *FreeType:
			if v.LowerBound != nil && !walkTy(v.LowerBound) {
				return false
			}
			if v.UpperBound != nil && !walkTy(v.UpperBound) {
				return false
			}
		case *LocalType:
			if v.Domain != nil && !walkTy(v.Domain) {
				return false
			}
		case *FunctionType:
			if !walkTp(v.ArgTypes) || !walkTp(v.RetTypes) {
				return false
			}
		case *TableType:
			for _, prop := range v.Props {
				if prop.ReadTy != nil && !walkTy(prop.ReadTy) {
					return false
				}
				if prop.WriteTy != nil && prop.WriteTy != prop.ReadTy && !walkTy(prop.WriteTy) {
					return false
				}
			}
			if v.Indexer != nil {
				if !walkTy(v.Indexer.IndexType) || !walkTy(v.Indexer.IndexResultType) {
					return false
				}
			}
		case *MetatableType:
			if !walkTy(v.Table) || !walkTy(v.Metatable) {
				return false
			}
		case *UnionType:
			for _, opt := range v.Options {
				if !walkTy(opt) {
					return false
				}
			}
		case *IntersectionType:
			for _, part := range v.Parts {
				if !walkTy(part) {
					return false
				}
			}
		case *PendingExpansionType:
			for _, arg := range v.TypeArguments {
				if !walkTy(arg) {
					return false
				}
			}
			for _, arg := range v.PackArguments {
				if !walkTp(arg) {
					return false
				}
			}
		case *TypeFamilyInstanceType:
			for _, arg := range v.TypeArguments {
				if !walkTy(arg) {
					return false
				}
			}
			for _, arg := range v.PackArguments {
				if !walkTp(arg) {
					return false
				}
			}
		}
		return true
	}

	walkTp = func(tp TypePackId) bool {
		tp = FollowPack(tp)
		if _, ok := seenPacks[tp]; ok {
			return true
		}
		seenPacks[tp] = struct{}{}
		if visitPack != nil && !visitPack(tp) {
			return false
		}
		switch v := tp.variant.(type) {
		case *ListPack:
			for _, head := range v.Head {
				if !walkTy(head) {
					return false
				}
			}
			if v.Tail != nil && !walkTp(v.Tail) {
				return false
			}
		case *VariadicPack:
			if !walkTy(v.Ty) {
				return false
			}
		case *FamilyInstancePack:
			for _, arg := range v.TypeArguments {
				if !walkTy(arg) {
					return false
				}
			}
			for _, arg := range v.PackArguments {
				if !walkTp(arg) {
					return false
				}
			}
		}
		return true
	}

	return walkTy, walkTp
}

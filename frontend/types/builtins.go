package types

// Builtins owns the persistent singleton nodes shared by every module.
// Persistent nodes are never mutated; handlers bind placeholders to them.
type Builtins struct {
	arena *Arena

	NilType     TypeId
	BooleanType TypeId
	NumberType  TypeId
	StringType  TypeId
	ThreadType  TypeId

	TrueType  TypeId
	FalseType TypeId

	AnyType     TypeId
	UnknownType TypeId
	NeverType   TypeId
	ErrorType   TypeId

	EmptyTypePack TypePackId
	AnyTypePack   TypePackId
	NeverTypePack TypePackId
	ErrorTypePack TypePackId

	// UnionFamily is the built-in deferred-union type family, produced by
	// indexer lookups over intersections.
	UnionFamily *TypeFamily
}

func NewBuiltins() *Builtins {
	a := NewArena()
	b := &Builtins{arena: a}

	persistentType := func(v TypeVariant) TypeId {
		ty := a.NewType(v)
		ty.persistent = true
		return ty
	}
	persistentPack := func(v PackVariant) TypePackId {
		tp := a.NewPack(v)
		tp.persistent = true
		return tp
	}

	b.NilType = persistentType(&PrimType{Kind: NilKind})
	b.BooleanType = persistentType(&PrimType{Kind: BooleanKind})
	b.NumberType = persistentType(&PrimType{Kind: NumberKind})
	b.StringType = persistentType(&PrimType{Kind: StringKind})
	b.ThreadType = persistentType(&PrimType{Kind: ThreadKind})

	b.TrueType = persistentType(&SingletonType{BoolValue: true})
	b.FalseType = persistentType(&SingletonType{BoolValue: false})

	b.AnyType = persistentType(&AnyType{})
	b.UnknownType = persistentType(&UnknownType{})
	b.NeverType = persistentType(&NeverType{})
	b.ErrorType = persistentType(&ErrorType{})

	b.EmptyTypePack = persistentPack(&ListPack{})
	b.AnyTypePack = persistentPack(&VariadicPack{Ty: b.AnyType})
	b.NeverTypePack = persistentPack(&VariadicPack{Ty: b.NeverType})
	b.ErrorTypePack = persistentPack(&VariadicPack{Ty: b.ErrorType})

	b.UnionFamily = &TypeFamily{Name: "union"}

	return b
}

// ErrorRecoveryType is the type handlers bind at a diagnostic site so that
// inference can continue past the error.
func (b *Builtins) ErrorRecoveryType() TypeId { return b.ErrorType }

func (b *Builtins) ErrorRecoveryTypePack() TypePackId { return b.ErrorTypePack }

// TypeFamily is a named type-level computation. Instances of it stay blocked
// behind a ReduceConstraint until the family reducer discharges them.
type TypeFamily struct {
	Name string
}

package types

// TypePackId identifies a type pack node. Always read it through FollowPack.
type TypePackId = *TypePack

type TypePack struct {
	variant    PackVariant
	owner      *Arena
	persistent bool
	seq        uint64
}

func (t *TypePack) Variant() PackVariant { return t.variant }
func (t *TypePack) Seq() uint64          { return t.seq }
func (t *TypePack) Persistent() bool     { return t.persistent }

type PackVariant interface {
	isPackVariant()
}

// ListPack is a sequence of head types with an optional tail pack.
type ListPack struct {
	Head []TypeId
	Tail TypePackId // may be nil
}

// VariadicPack repeats Ty indefinitely. Hidden variadics do not count toward
// user-visible arity.
type VariadicPack struct {
	Ty     TypeId
	Hidden bool
}

type GenericPack struct {
	Name  string
	Scope *Scope
}

type FreePack struct {
	Scope *Scope
}

type BoundPack struct {
	Boundee TypePackId
}

// BlockedPack mirrors BlockedType for packs.
type BlockedPack struct {
	Owner *Constraint
}

type ErrorPack struct{}

type FamilyInstancePack struct {
	Family        *TypeFamily
	TypeArguments []TypeId
	PackArguments []TypePackId
}

func (*ListPack) isPackVariant()           {}
func (*VariadicPack) isPackVariant()       {}
func (*GenericPack) isPackVariant()        {}
func (*FreePack) isPackVariant()           {}
func (*BoundPack) isPackVariant()          {}
func (*BlockedPack) isPackVariant()        {}
func (*ErrorPack) isPackVariant()          {}
func (*FamilyInstancePack) isPackVariant() {}

// FollowPack chases BoundPack indirection to the canonical representative.
func FollowPack(tp TypePackId) TypePackId {
	slow, fast := tp, tp
	for {
		b, ok := fast.variant.(*BoundPack)
		if !ok {
			return fast
		}
		fast = b.Boundee
		if b, ok := fast.variant.(*BoundPack); ok {
			fast = b.Boundee
		} else {
			return fast
		}
		slow = slow.variant.(*BoundPack).Boundee
		if slow == fast {
			ice("cycle detected in BoundPack chain")
		}
	}
}

// Flatten collects every head type of a pack, splicing ListPack chains, and
// returns the heads together with the terminating tail. The tail is nil when
// the pack ends; otherwise it is a VariadicPack, a placeholder pack, or a
// generic pack that stops the walk.
func Flatten(tp TypePackId) (head []TypeId, tail TypePackId) {
	tp = FollowPack(tp)
	for tp != nil {
		list, ok := tp.variant.(*ListPack)
		if !ok {
			return head, tp
		}
		head = append(head, list.Head...)
		if list.Tail == nil {
			return head, nil
		}
		tp = FollowPack(list.Tail)
	}
	return head, nil
}

// PackIsEmpty reports whether the pack flattens to no head and no tail.
func PackIsEmpty(tp TypePackId) bool {
	head, tail := Flatten(tp)
	return len(head) == 0 && tail == nil
}

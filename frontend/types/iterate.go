package types

import (
	"github.com/u-train/luau/frontend/ilerr"
)

// tryDispatchIterable resolves a generalized for-in form. The iterator pack
// is inspected as up to three values: a next function (or an iterable
// value), a state, and a first index.
func (s *Solver) tryDispatchIterable(c *Constraint, p *IterableConstraint, force bool) bool {
	iterator := FollowPack(p.Iterator)
	if s.isBlockedPack(iterator) && !force {
		return s.block(iterator, c)
	}

	head, tail := Flatten(iterator)
	if len(head) > 3 {
		head = head[:3]
	}
	for len(head) < 3 && tail != nil {
		variadic, ok := FollowPack(tail).Variant().(*VariadicPack)
		if !ok {
			break
		}
		head = append(head, variadic.Ty)
	}
	if len(head) == 0 {
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	}

	nextTy := Follow(head[0])
	if _, isFree := nextTy.Variant().(*FreeType); isFree {
		if !force {
			return s.block(nextTy, c)
		}
		s.reportError(ilerr.NewNotIterable{Positioner: c.Location, TypeName: TypeName(nextTy)})
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	}

	if _, isFn := nextTy.Variant().(*FunctionType); isFn {
		var tableTy, firstIndexTy TypeId
		if len(head) > 1 {
			tableTy = head[1]
		}
		if len(head) > 2 {
			firstIndexTy = head[2]
		}
		return s.tryDispatchIterableFunction(c, p, nextTy, tableTy, firstIndexTy, force)
	}
	return s.tryDispatchIterableTable(c, p, nextTy, force)
}

// tryDispatchIterableFunction handles the explicit iterator-triple form:
// for vars in nextFn, state, firstIndex.
func (s *Solver) tryDispatchIterableFunction(c *Constraint, p *IterableConstraint, nextTy, tableTy, firstIndexTy TypeId, force bool) bool {
	if firstIndexTy != nil {
		firstIndex := Follow(firstIndexTy)
		switch firstIndex.Variant().(type) {
		case *FreeType, *BlockedType:
			if !force {
				return s.block(firstIndex, c)
			}
		}
	}

	fn := Follow(nextTy).Variant().(*FunctionType)
	s.AstForInNextTypes[p.NextAstKey] = Follow(nextTy)

	if tableTy != nil {
		callHead := []TypeId{tableTy}
		if firstIndexTy != nil {
			callHead = append(callHead, firstIndexTy)
		}
		callArgs := s.arena.NewPack(&ListPack{Head: callHead})
		s.unifyPack(c, callArgs, fn.ArgTypes)
	}

	retHead, retTail := Flatten(fn.RetTypes)
	if len(retHead) > 0 {
		// The loop stops rather than advancing on nil, so the first value
		// can drop its optional nil arm.
		stripped := make([]TypeId, len(retHead))
		copy(stripped, retHead)
		stripped[0] = s.stripOptionalNil(retHead[0])
		retPack := s.arena.NewPack(&ListPack{Head: stripped, Tail: retTail})
		nc := s.pushConstraint(c.Scope, c.Location, &UnpackConstraint{
			ResultPack: p.Variables,
			SourcePack: retPack,
		})
		s.inheritBlocks(c, nc)
	} else {
		s.unpackVariables(c, p.Variables, s.builtins.NilType)
	}
	return true
}

// tryDispatchIterableTable handles iteration over a plain value: a table
// with an indexer, a value carrying an __iter metamethod, or one of the
// uniform top/bottom types.
func (s *Solver) tryDispatchIterableTable(c *Constraint, p *IterableConstraint, iterTy TypeId, force bool) bool {
	iterTy = Follow(iterTy)
	switch v := iterTy.Variant().(type) {
	case *AnyType, *ErrorType, *NeverType:
		s.unpackVariables(c, p.Variables, iterTy)
		return true
	case *TableType:
		if v.State == TableFree || v.State == TableUnsealed {
			if v.Indexer == nil {
				if !force {
					return s.block(iterTy, c)
				}
				s.reportError(ilerr.NewNotIterable{Positioner: c.Location, TypeName: TypeName(iterTy)})
				s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
				return true
			}
		}
		if v.Indexer != nil {
			s.unpackKeyValue(c, p.Variables, v.Indexer.IndexType, v.Indexer.IndexResultType)
			return true
		}
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	case *MetatableType:
		if iterFn := s.lookupIterMetamethod(v); iterFn != nil {
			return s.dispatchIterMetamethod(c, p, iterFn, force)
		}
		// No __iter: fall through to the inner table.
		return s.tryDispatchIterableTable(c, p, v.Table, force)
	}
	s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
	return true
}

func (s *Solver) lookupIterMetamethod(mt *MetatableType) TypeId {
	metatable, ok := Follow(mt.Metatable).Variant().(*TableType)
	if !ok {
		return nil
	}
	prop, ok := metatable.Props["__iter"]
	if !ok || prop.ReadTy == nil {
		return nil
	}
	return prop.ReadTy
}

// dispatchIterMetamethod instantiates __iter and unpacks the loop variables
// from the next function it returns.
func (s *Solver) dispatchIterMetamethod(c *Constraint, p *IterableConstraint, iterFn TypeId, force bool) bool {
	instantiated := s.instantiate(iterFn)
	fn, ok := Follow(instantiated).Variant().(*FunctionType)
	if !ok {
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	}
	retHead, _ := Flatten(fn.RetTypes)
	if len(retHead) == 0 {
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	}
	nextTy := Follow(retHead[0])
	if s.isBlockedType(nextTy) {
		if !force {
			return s.block(nextTy, c)
		}
		s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
		return true
	}
	var tableTy, firstIndexTy TypeId
	if len(retHead) > 1 {
		tableTy = retHead[1]
	}
	if len(retHead) > 2 {
		firstIndexTy = retHead[2]
	}
	if _, isFn := nextTy.Variant().(*FunctionType); isFn {
		return s.tryDispatchIterableFunction(c, p, nextTy, tableTy, firstIndexTy, force)
	}
	s.unpackVariables(c, p.Variables, s.builtins.ErrorRecoveryType())
	return true
}

// unpackVariables writes ty into every loop-variable slot.
func (s *Solver) unpackVariables(c *Constraint, variables TypePackId, ty TypeId) {
	head, _ := Flatten(variables)
	for _, slot := range head {
		s.unpackOne(c, slot, ty)
	}
}

// unpackKeyValue writes (key, value) into the first two loop-variable
// slots; any further slots receive nil.
func (s *Solver) unpackKeyValue(c *Constraint, variables TypePackId, keyTy, valueTy TypeId) {
	head, _ := Flatten(variables)
	for i, slot := range head {
		switch i {
		case 0:
			s.unpackOne(c, slot, keyTy)
		case 1:
			s.unpackOne(c, slot, valueTy)
		default:
			s.unpackOne(c, slot, s.builtins.NilType)
		}
	}
}

// stripOptionalNil removes a nil arm from a union type.
func (s *Solver) stripOptionalNil(ty TypeId) TypeId {
	ty = Follow(ty)
	u, ok := ty.Variant().(*UnionType)
	if !ok {
		return ty
	}
	var kept []TypeId
	for _, opt := range u.Options {
		if prim, isPrim := Follow(opt).Variant().(*PrimType); isPrim && prim.Kind == NilKind {
			continue
		}
		kept = append(kept, opt)
	}
	switch len(kept) {
	case 0:
		return s.builtins.NilType
	case 1:
		return kept[0]
	case len(u.Options):
		return ty
	}
	return s.arena.NewType(&UnionType{Options: kept})
}

package types

// tryDispatchPrimitiveType commits a free type to its declared primitive once
// at most one other constraint still references that free type. Returning false
// without registering a block edge keeps the constraint eligible for the next
// normal pass, so no force pass is needed to discharge it.
func (s *Solver) tryDispatchPrimitiveType(c *Constraint, p *PrimitiveTypeConstraint, force bool) bool {
	freeTy := Follow(p.FreeType)
	free, ok := freeTy.Variant().(*FreeType)
	if !ok {
		// Something else already resolved it.
		return true
	}
	if !force && s.unresolvedConstraints[freeTy] > 1 {
		return false
	}

	bindTo := p.PrimitiveType
	if singleton, ok := Follow(free.UpperBound).Variant().(*SingletonType); ok && singletonAdmits(singleton, p.PrimitiveType) {
		// The upper bound pinned a literal; the lower bound carries it.
		bindTo = free.LowerBound
	}
	s.arena.BindTo(freeTy, bindTo)
	s.unblockType(freeTy)
	return true
}

// singletonAdmits reports whether a singleton's base primitive is prim.
func singletonAdmits(singleton *SingletonType, prim TypeId) bool {
	p, ok := Follow(prim).Variant().(*PrimType)
	if !ok {
		return false
	}
	if singleton.IsString {
		return p.Kind == StringKind
	}
	return p.Kind == BooleanKind
}

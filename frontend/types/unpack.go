package types

// tryDispatchUnpack destructures the source pack into the result pack, slot
// by slot. Result packs longer than the source are padded with nil.
func (s *Solver) tryDispatchUnpack(c *Constraint, p *UnpackConstraint) bool {
	sourcePack := FollowPack(p.SourcePack)
	if s.isBlockedPack(sourcePack) {
		return s.block(sourcePack, c)
	}

	resultHead, _ := Flatten(p.ResultPack)
	sourceHead, sourceTail := Flatten(sourcePack)

	for i, resultTy := range resultHead {
		var srcTy TypeId
		switch {
		case i < len(sourceHead):
			srcTy = sourceHead[i]
		case sourceTail != nil:
			if variadic, ok := FollowPack(sourceTail).Variant().(*VariadicPack); ok {
				srcTy = variadic.Ty
			}
		}
		if srcTy == nil {
			srcTy = s.builtins.NilType
		}
		s.unpackOne(c, resultTy, srcTy)
	}
	return true
}

func (s *Solver) tryDispatchUnpack1(c *Constraint, p *Unpack1Constraint) bool {
	if s.isBlockedType(p.SourceType) {
		return s.block(Follow(p.SourceType), c)
	}
	s.unpackOne(c, p.ResultType, p.SourceType)
	return true
}

// unpackOne writes one unpacked value into one destination slot.
func (s *Solver) unpackOne(c *Constraint, resultTy, srcTy TypeId) {
	resultTy = Follow(resultTy)

	switch v := resultTy.Variant().(type) {
	case *LocalType:
		if v.Domain == nil {
			v.Domain = Follow(srcTy)
		} else {
			v.Domain = s.simplifier.SimplifyUnion(v.Domain, srcTy)
		}
		if v.BlockCount > 0 {
			v.BlockCount--
		}
		if v.BlockCount == 0 {
			domain := v.Domain
			if Follow(domain) == resultTy {
				domain = s.arena.FreshType(s.builtins, c.Scope)
			}
			s.arena.BindTo(resultTy, domain)
			s.unblockType(resultTy)
		}
	case *BlockedType:
		if Follow(srcTy) == resultTy {
			srcTy = s.arena.FreshType(s.builtins, c.Scope)
		}
		s.bindBlockedType(resultTy, srcTy, resultTy, c)
	default:
		s.unify(c, srcTy, resultTy)
	}
}

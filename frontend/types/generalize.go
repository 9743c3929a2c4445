package types

import (
	"github.com/u-train/luau/frontend/ilerr"
)

// tryDispatchGeneralization closes sourceType over the free types and packs
// scoped at or below the constraint's scope, then commits the scheme to
// generalizedType.
func (s *Solver) tryDispatchGeneralization(c *Constraint, p *GeneralizationConstraint, force bool) bool {
	sourceTy := Follow(p.SourceType)
	if s.isBlockedType(sourceTy) && !force {
		return s.block(sourceTy, c)
	}

	result, ok := s.generalize(c.Scope, sourceTy)
	if !ok {
		s.reportError(ilerr.NewCodeTooComplex{Positioner: c.Location})
		result = s.builtins.ErrorRecoveryType()
	}

	generalized := Follow(p.GeneralizedType)
	if _, stillBlocked := generalized.Variant().(*BlockedType); stillBlocked {
		s.bindBlockedType(generalized, result, p.GeneralizedType, c)
	} else {
		s.unify(c, generalized, result)
	}

	for _, interior := range p.InteriorTypes {
		s.generalize(c.Scope, Follow(interior))
	}
	return true
}

// generalize quantifies ty in place. Free types under a function type become
// generics on the function; free types anywhere else settle to their bounds.
// The bool result is false when the graph is too large to close safely.
func (s *Solver) generalize(scope *Scope, ty TypeId) (TypeId, bool) {
	ty = Follow(ty)

	var frees []TypeId
	var freePacks []TypePackId
	nodes := 0
	overflow := false
	visitType(ty, func(t TypeId) bool {
		nodes++
		if nodes > s.limits.RecursionLimit {
			overflow = true
			return false
		}
		if free, ok := t.Variant().(*FreeType); ok && t.owner == s.arena && scope.IsAncestorOf(free.Scope) {
			frees = append(frees, t)
		}
		return true
	}, func(tp TypePackId) bool {
		if free, ok := tp.Variant().(*FreePack); ok && tp.owner == s.arena && scope.IsAncestorOf(free.Scope) {
			freePacks = append(freePacks, tp)
		}
		return true
	})
	if overflow {
		return nil, false
	}

	if fn, ok := ty.Variant().(*FunctionType); ok {
		for i, free := range frees {
			generic := s.arena.NewType(&GenericType{Name: genericName(i), Scope: scope})
			s.arena.BindTo(free, generic)
			s.unblockType(free)
			fn.Generics = append(fn.Generics, generic)
		}
		for i, free := range freePacks {
			generic := s.arena.NewPack(&GenericPack{Name: genericName(i) + "...", Scope: scope})
			s.arena.BindPackTo(free, generic)
			s.unblockPack(free)
			fn.GenericPacks = append(fn.GenericPacks, generic)
		}
		return ty, true
	}

	for _, free := range frees {
		v := free.Variant().(*FreeType)
		target := Follow(v.LowerBound)
		if _, isNever := target.Variant().(*NeverType); isNever {
			target = Follow(v.UpperBound)
		}
		if target == free {
			target = s.builtins.UnknownType
		}
		s.arena.BindTo(free, target)
		s.unblockType(free)
	}
	for _, free := range freePacks {
		s.arena.BindPackTo(free, s.builtins.EmptyTypePack)
		s.unblockPack(free)
	}
	return Follow(ty), true
}

// genericName yields a, b, ..., z, a1, b1, ... for inserted quantifiers.
func genericName(i int) string {
	letter := string(rune('a' + i%26))
	if i < 26 {
		return letter
	}
	return letter + string(rune('0'+i/26))
}

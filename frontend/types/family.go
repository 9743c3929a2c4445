package types

import (
	"github.com/u-train/luau/frontend/ast"
	"github.com/u-train/luau/frontend/ilerr"
)

// FamilyReduction is the outcome of one reduction sweep over a type graph.
// Reduced nodes were rewritten in place and should be unblocked; blocked
// nodes are still waiting on unsolved arguments; uninhabited nodes could
// not reduce even under force and must be interned as irreducible.
type FamilyReduction struct {
	ReducedTypes     []TypeId
	ReducedPacks     []TypePackId
	BlockedTypes     []TypeId
	BlockedPacks     []TypePackId
	UninhabitedTypes []TypeId
	Errors           []ilerr.TypeError
}

// FamilyReducer rewrites type family applications into concrete types once
// their arguments are solved enough to decide the result.
type FamilyReducer interface {
	ReduceFamilies(root TypeId, location ast.Range, force bool) FamilyReduction
	ReducePackFamilies(root TypePackId, location ast.Range, force bool) FamilyReduction
}

// NewFamilyReducer returns the built-in reducer. It only knows the union
// family; any other family is treated as irreducible and becomes
// uninhabited when forced.
func NewFamilyReducer(arena *Arena, builtins *Builtins) FamilyReducer {
	return &builtinFamilyReducer{
		arena:      arena,
		builtins:   builtins,
		simplifier: NewSimplifier(arena, builtins),
	}
}

type builtinFamilyReducer struct {
	arena      *Arena
	builtins   *Builtins
	simplifier Simplifier
}

func (r *builtinFamilyReducer) ReduceFamilies(root TypeId, location ast.Range, force bool) FamilyReduction {
	var out FamilyReduction
	visitType(root, func(ty TypeId) bool {
		if _, ok := ty.Variant().(*TypeFamilyInstanceType); ok {
			r.reduceInstance(ty, location, force, &out)
		}
		return true
	}, nil)
	return out
}

func (r *builtinFamilyReducer) ReducePackFamilies(root TypePackId, location ast.Range, force bool) FamilyReduction {
	var out FamilyReduction
	visitTypePack(root, func(ty TypeId) bool {
		if _, ok := ty.Variant().(*TypeFamilyInstanceType); ok {
			r.reduceInstance(ty, location, force, &out)
		}
		return true
	}, func(tp TypePackId) bool {
		if fam, ok := tp.Variant().(*FamilyInstancePack); ok {
			r.reducePackInstance(tp, fam, location, force, &out)
		}
		return true
	})
	return out
}

// reduceInstance attempts to rewrite one family application in place.
func (r *builtinFamilyReducer) reduceInstance(ty TypeId, location ast.Range, force bool, out *FamilyReduction) {
	fam := ty.Variant().(*TypeFamilyInstanceType)

	var pending []TypeId
	var pendingPacks []TypePackId
	for _, arg := range fam.TypeArguments {
		if argIsPending(arg) {
			pending = append(pending, Follow(arg))
		}
	}
	for _, arg := range fam.PackArguments {
		if packIsPending(arg) {
			pendingPacks = append(pendingPacks, FollowPack(arg))
		}
	}

	if len(pending) > 0 || len(pendingPacks) > 0 {
		if !force {
			out.BlockedTypes = append(out.BlockedTypes, pending...)
			out.BlockedPacks = append(out.BlockedPacks, pendingPacks...)
			return
		}
		out.UninhabitedTypes = append(out.UninhabitedTypes, ty)
		out.Errors = append(out.Errors, ilerr.NewUninhabitedTypeFamily{Positioner: location, Family: fam.Family.Name})
		return
	}

	if fam.Family != r.builtins.UnionFamily {
		if force {
			out.UninhabitedTypes = append(out.UninhabitedTypes, ty)
			out.Errors = append(out.Errors, ilerr.NewUninhabitedTypeFamily{Positioner: location, Family: fam.Family.Name})
		} else {
			out.BlockedTypes = append(out.BlockedTypes, ty)
		}
		return
	}

	result := r.builtins.NeverType
	for _, arg := range fam.TypeArguments {
		result = r.simplifier.SimplifyUnion(result, arg)
	}
	if result == ty {
		result = r.builtins.ErrorRecoveryType()
	}
	r.arena.BindTo(ty, result)
	out.ReducedTypes = append(out.ReducedTypes, ty)
}

func (r *builtinFamilyReducer) reducePackInstance(tp TypePackId, fam *FamilyInstancePack, location ast.Range, force bool, out *FamilyReduction) {
	for _, arg := range fam.TypeArguments {
		if argIsPending(arg) {
			if !force {
				out.BlockedTypes = append(out.BlockedTypes, Follow(arg))
				return
			}
			out.Errors = append(out.Errors, ilerr.NewUninhabitedTypeFamily{Positioner: location, Family: fam.Family.Name})
			r.arena.BindPackTo(tp, r.builtins.ErrorTypePack)
			out.ReducedPacks = append(out.ReducedPacks, tp)
			return
		}
	}
	// No pack families reduce to anything but error today.
	if force {
		out.Errors = append(out.Errors, ilerr.NewUninhabitedTypeFamily{Positioner: location, Family: fam.Family.Name})
		r.arena.BindPackTo(tp, r.builtins.ErrorTypePack)
		out.ReducedPacks = append(out.ReducedPacks, tp)
		return
	}
	out.BlockedPacks = append(out.BlockedPacks, tp)
}

func argIsPending(ty TypeId) bool {
	switch Follow(ty).Variant().(type) {
	case *BlockedType, *PendingExpansionType, *FreeType:
		return true
	}
	return false
}

func packIsPending(tp TypePackId) bool {
	switch FollowPack(tp).Variant().(type) {
	case *BlockedPack, *FreePack:
		return true
	}
	return false
}

// tryDispatchReduce reduces every family application reachable from the
// constrained type. It blocks on whatever the reducer could not decide.
func (s *Solver) tryDispatchReduce(c *Constraint, p *ReduceConstraint, force bool) bool {
	ty := Follow(p.Ty)
	result := s.familyReducer.ReduceFamilies(ty, c.Location, force)
	return s.commitReduction(c, result, force)
}

func (s *Solver) tryDispatchReducePack(c *Constraint, p *ReducePackConstraint, force bool) bool {
	tp := FollowPack(p.Tp)
	result := s.familyReducer.ReducePackFamilies(tp, c.Location, force)
	return s.commitReduction(c, result, force)
}

func (s *Solver) commitReduction(c *Constraint, result FamilyReduction, force bool) bool {
	for _, e := range result.Errors {
		s.reportError(e)
	}
	for _, u := range result.UninhabitedTypes {
		s.uninhabitedTypeFamilies.Insert(u)
		s.unblockType(u)
	}
	for _, r := range result.ReducedTypes {
		s.unblockType(r)
	}
	for _, r := range result.ReducedPacks {
		s.unblockPack(r)
	}
	if len(result.BlockedTypes) == 0 && len(result.BlockedPacks) == 0 {
		return true
	}
	if force {
		return true
	}
	for _, b := range result.BlockedTypes {
		s.block(b, c)
	}
	for _, b := range result.BlockedPacks {
		s.block(b, c)
	}
	return false
}

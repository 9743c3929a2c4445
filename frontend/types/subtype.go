package types

// tryDispatchSubtype enforces SubType <: SuperType. Blocked operands suspend
// the constraint; everything else is delegated to the unifier, which reports
// failures itself.
func (s *Solver) tryDispatchSubtype(c *Constraint, p *SubtypeConstraint) bool {
	if s.isBlockedType(p.SubType) {
		return s.block(Follow(p.SubType), c)
	}
	if s.isBlockedType(p.SuperType) {
		return s.block(Follow(p.SuperType), c)
	}
	s.unify(c, p.SubType, p.SuperType)
	return true
}

func (s *Solver) tryDispatchPackSubtype(c *Constraint, p *PackSubtypeConstraint) bool {
	if s.isBlockedPack(p.SubPack) {
		return s.block(FollowPack(p.SubPack), c)
	}
	if s.isBlockedPack(p.SuperPack) {
		return s.block(FollowPack(p.SuperPack), c)
	}
	s.unifyPack(c, p.SubPack, p.SuperPack)
	return true
}

// tryDispatchEquality requires the two types to be mutual subtypes.
func (s *Solver) tryDispatchEquality(c *Constraint, p *EqualityConstraint) bool {
	if s.isBlockedType(p.ResultType) {
		return s.block(Follow(p.ResultType), c)
	}
	if s.isBlockedType(p.AssignmentType) {
		return s.block(Follow(p.AssignmentType), c)
	}
	s.unify(c, p.AssignmentType, p.ResultType)
	s.unify(c, p.ResultType, p.AssignmentType)
	return true
}

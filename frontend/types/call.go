package types

import (
	"github.com/u-train/luau/frontend/ilerr"
)

// tryDispatchFunctionCall resolves one call site: short-circuit top/bottom
// callees, collapse uniform unions, rewrite __call metamethods, pick an
// arity-compatible overload, and unify it against the synthesized call shape.
func (s *Solver) tryDispatchFunctionCall(c *Constraint, p *FunctionCallConstraint, force bool) bool {
	fnTy := Follow(p.Fn)
	if s.isBlockedType(fnTy) {
		return s.block(fnTy, c)
	}
	if s.hasUnresolvedConstraints(fnTy) && !force {
		return s.block(fnTy, c)
	}

	argsHead, _ := Flatten(p.ArgsPack)
	if s.isBlockedPack(p.ArgsPack) {
		return s.block(FollowPack(p.ArgsPack), c)
	}
	for _, arg := range argsHead {
		if s.isBlockedType(arg) {
			return s.block(Follow(arg), c)
		}
	}

	switch fnTy.Variant().(type) {
	case *AnyType:
		s.commitCallResult(c, p, s.builtins.AnyTypePack)
		return true
	case *ErrorType:
		s.commitCallResult(c, p, s.builtins.ErrorTypePack)
		return true
	case *NeverType:
		s.commitCallResult(c, p, s.builtins.NeverTypePack)
		return true
	}

	if collapsed := collapseUniform(fnTy); collapsed != nil {
		fnTy = collapsed
	}

	argsPack := p.ArgsPack
	if mt, ok := fnTy.Variant().(*MetatableType); ok {
		if callFn := lookupCallMetamethod(mt); callFn != nil {
			// obj(...) becomes __call(obj, ...).
			head := append([]TypeId{fnTy}, argsHead...)
			_, tail := Flatten(argsPack)
			argsPack = s.arena.NewPack(&ListPack{Head: head, Tail: tail})
			argsHead = head
			fnTy = Follow(callFn)
		}
	}

	overload := selectOverload(fnTy, len(argsHead))
	if overload == nil {
		s.reportError(ilerr.NewCannotCallNonFunction{Positioner: c.Location, TypeName: TypeName(fnTy)})
		s.commitCallResult(c, p, s.builtins.ErrorTypePack)
		return true
	}

	instantiated := s.instantiate(overload)
	s.AstOverloadResolvedTypes[p.CallSite] = Follow(instantiated)
	s.reproduceConstraints(c, instantiated)

	resultPack := FollowPack(p.Result)
	if _, isBlocked := resultPack.Variant().(*BlockedPack); isBlocked {
		s.arena.EmplacePackVariant(resultPack, &FreePack{Scope: c.Scope})
	}
	synthesized := s.arena.NewType(&FunctionType{ArgTypes: argsPack, RetTypes: p.Result})
	s.unify(c, instantiated, synthesized)
	s.unblockPack(resultPack)

	s.resolveDiscriminants(p.Discriminants)
	return true
}

func (s *Solver) commitCallResult(c *Constraint, p *FunctionCallConstraint, result TypePackId) {
	resultPack := FollowPack(p.Result)
	if _, isBlocked := resultPack.Variant().(*BlockedPack); isBlocked {
		s.bindBlockedPack(resultPack, result, c)
	} else {
		s.unifyPack(c, result, resultPack)
	}
	s.resolveDiscriminants(p.Discriminants)
}

// resolveDiscriminants binds any refinement discriminant that is still a
// placeholder to any, which is neutral under both intersection and negation.
func (s *Solver) resolveDiscriminants(discriminants []TypeId) {
	for _, d := range discriminants {
		if d == nil {
			continue
		}
		dt := Follow(d)
		if _, isBlocked := dt.Variant().(*BlockedType); isBlocked {
			s.arena.BindTo(dt, s.builtins.AnyType)
			s.unblockType(dt)
		}
	}
}

// collapseUniform returns the single node behind a union or intersection
// whose members all follow to it, or nil.
func collapseUniform(ty TypeId) TypeId {
	var members []TypeId
	switch v := ty.Variant().(type) {
	case *UnionType:
		members = v.Options
	case *IntersectionType:
		members = v.Parts
	default:
		return nil
	}
	if len(members) == 0 {
		return nil
	}
	first := Follow(members[0])
	for _, member := range members[1:] {
		if Follow(member) != first {
			return nil
		}
	}
	return first
}

func lookupCallMetamethod(mt *MetatableType) TypeId {
	metatable, ok := Follow(mt.Metatable).Variant().(*TableType)
	if !ok {
		return nil
	}
	prop, ok := metatable.Props["__call"]
	if !ok || prop.ReadTy == nil {
		return nil
	}
	return prop.ReadTy
}

// selectOverload picks the first arity-compatible function member of the
// callee. A plain function is its own overload set of one.
func selectOverload(fnTy TypeId, argCount int) TypeId {
	if _, ok := fnTy.Variant().(*FunctionType); ok {
		if arityCompatible(fnTy, argCount) {
			return fnTy
		}
		return nil
	}
	intersection, ok := fnTy.Variant().(*IntersectionType)
	if !ok {
		return nil
	}
	var fallback TypeId
	for _, part := range intersection.Parts {
		member := Follow(part)
		if _, isFn := member.Variant().(*FunctionType); !isFn {
			continue
		}
		if fallback == nil {
			fallback = member
		}
		if arityCompatible(member, argCount) {
			return member
		}
	}
	return fallback
}

func arityCompatible(fnTy TypeId, argCount int) bool {
	fn := Follow(fnTy).Variant().(*FunctionType)
	head, tail := Flatten(fn.ArgTypes)
	if tail == nil && argCount > len(head) {
		return false
	}
	return true
}

// instantiate materializes a fresh copy of a generic function with its
// quantifiers replaced by free types, ready to be constrained by one call
// site without leaking into others.
func (s *Solver) instantiate(ty TypeId) TypeId {
	fnTy := Follow(ty)
	fn, ok := fnTy.Variant().(*FunctionType)
	if !ok {
		return fnTy
	}
	if len(fn.Generics) == 0 && len(fn.GenericPacks) == 0 {
		return fnTy
	}
	sub := newSubstitutor(s.arena)
	for _, g := range fn.Generics {
		sub.addType(g, s.arena.FreshType(s.builtins, s.rootScope))
	}
	for _, g := range fn.GenericPacks {
		sub.addPack(g, s.arena.FreshPack(s.rootScope))
	}
	instantiated := sub.substitute(fnTy)
	if instFn, ok := Follow(instantiated).Variant().(*FunctionType); ok {
		instFn.Generics = nil
		instFn.GenericPacks = nil
	}
	return Follow(instantiated)
}

// tryDispatchFunctionCheck pushes expected types from a known callee into
// the call site's literal and lambda arguments before the call itself is
// dispatched.
func (s *Solver) tryDispatchFunctionCheck(c *Constraint, p *FunctionCheckConstraint) bool {
	fnTy := Follow(p.Fn)
	if s.isBlockedType(fnTy) {
		return s.block(fnTy, c)
	}
	fn, ok := fnTy.Variant().(*FunctionType)
	if !ok {
		return true
	}

	// Expected types must not expose the callee's quantifiers, so generics
	// become unknown / ...unknown for the duration of this pass.
	if len(fn.Generics) > 0 || len(fn.GenericPacks) > 0 {
		sub := newSubstitutor(s.arena)
		for _, g := range fn.Generics {
			sub.addType(g, s.builtins.UnknownType)
		}
		for _, g := range fn.GenericPacks {
			sub.addPack(g, s.arena.NewPack(&VariadicPack{Ty: s.builtins.UnknownType}))
		}
		replaced := sub.substitute(fnTy)
		s.reproduceConstraints(c, replaced)
		if replacedFn, ok := Follow(replaced).Variant().(*FunctionType); ok {
			fn = replacedFn
		}
	}

	if p.CallSite == nil {
		return true
	}

	expectedHead, expectedTail := Flatten(fn.ArgTypes)
	offset := 0
	if p.CallSite.Self {
		offset = 1
	}

	for i, arg := range p.CallSite.Args {
		idx := i + offset
		var expected TypeId
		if idx < len(expectedHead) {
			expected = expectedHead[idx]
		} else if expectedTail != nil {
			if variadic, ok := FollowPack(expectedTail).Variant().(*VariadicPack); ok {
				expected = variadic.Ty
			}
		}
		if expected == nil {
			continue
		}
		s.AstExpectedTypes[arg.Range] = Follow(expected)

		switch arg.Kind {
		case ArgLambda:
			s.checkLambdaArgument(arg.Lambda, expected)
		case ArgConstant:
			s.unify(c, arg.Ty, expected)
		case ArgTable:
			blockers := s.matchTableLiteral(c, arg.Table, expected)
			if len(blockers) > 0 {
				for _, b := range blockers {
					s.block(b, c)
				}
				return false
			}
		}
	}
	return true
}

// checkLambdaArgument binds each unannotated, still-free lambda parameter
// to the parameter type the callee expects in that position.
func (s *Solver) checkLambdaArgument(lambda *LambdaExpr, expected TypeId) {
	if lambda == nil {
		return
	}
	efn, ok := Follow(expected).Variant().(*FunctionType)
	if !ok {
		return
	}
	expectedParams, _ := Flatten(efn.ArgTypes)
	for j, param := range lambda.Params {
		if param.Annotated || j >= len(expectedParams) || param.Ty == nil {
			continue
		}
		actual := Follow(param.Ty)
		if _, isFree := actual.Variant().(*FreeType); !isFree {
			continue
		}
		target := Follow(expectedParams[j])
		if target == actual {
			continue
		}
		s.arena.BindTo(actual, target)
		s.unblockType(actual)
	}
}

// matchTableLiteral pushes expected field types into a table-literal
// argument. It returns the placeholders that prevent matching today.
func (s *Solver) matchTableLiteral(c *Constraint, literal *TableExpr, expected TypeId) []TypeId {
	if literal == nil {
		return nil
	}
	expectedTy := Follow(expected)
	if s.isBlockedType(expectedTy) {
		return []TypeId{expectedTy}
	}
	table, ok := expectedTy.Variant().(*TableType)
	if !ok {
		return nil
	}

	var blockers []TypeId
	for _, field := range literal.Fields {
		var want TypeId
		if prop, ok := table.Props[field.Key]; ok && prop.ReadTy != nil {
			want = prop.ReadTy
		} else if table.Indexer != nil {
			want = table.Indexer.IndexResultType
		}
		if want == nil {
			continue
		}
		if s.isBlockedType(want) {
			blockers = append(blockers, Follow(want))
			continue
		}
		s.AstExpectedTypes[field.Range] = Follow(want)
		if field.ValueTy != nil {
			s.unify(c, field.ValueTy, want)
		}
	}
	return blockers
}

package types

import (
	"slices"

	"github.com/u-train/luau/frontend/ilerr"
)

// instantiationSignature identifies one alias applied to one argument list.
// Two expansions with the same signature must share a node.
type instantiationSignature struct {
	alias         *TypeFun
	arguments     []TypeId
	packArguments []TypePackId
}

type signatureHasher struct{}

func (signatureHasher) Hash(sig *instantiationSignature) uint32 {
	h := uint32(2166136261)
	mix := func(v uint64) {
		h ^= uint32(v)
		h *= 16777619
		h ^= uint32(v >> 32)
		h *= 16777619
	}
	mix(Follow(sig.alias.Type).Seq())
	for _, ty := range sig.arguments {
		mix(ty.Seq())
	}
	for _, tp := range sig.packArguments {
		mix(tp.Seq())
	}
	return h
}

func (signatureHasher) Equal(a, b *instantiationSignature) bool {
	return a.alias == b.alias &&
		slices.Equal(a.arguments, b.arguments) &&
		slices.Equal(a.packArguments, b.packArguments)
}

// tryDispatchName attaches a user-visible name to a table or metatable.
// Union and intersection targets are silently skipped.
func (s *Solver) tryDispatchName(c *Constraint, p *NameConstraint, force bool) bool {
	target := Follow(p.NamedType)
	if s.isBlockedType(target) {
		if !force {
			return s.block(target, c)
		}
		return true
	}

	switch v := target.Variant().(type) {
	case *TableType:
		s.nameTable(v, p)
	case *MetatableType:
		if table, ok := Follow(v.Table).Variant().(*TableType); ok {
			s.nameTable(table, p)
		}
	case *UnionType, *IntersectionType:
		// Nothing to hang a name on.
	}
	return true
}

func (s *Solver) nameTable(table *TableType, p *NameConstraint) {
	if p.Synthetic {
		table.SyntheticName = p.Name
	} else {
		table.Name = p.Name
	}
	table.InstantiatedTypeParams = p.TypeParameters
	table.InstantiatedTypePackParams = p.TypePackParameters
}

// tryDispatchTypeAliasExpansion instantiates one PendingExpansionType.
func (s *Solver) tryDispatchTypeAliasExpansion(c *Constraint, p *TypeAliasExpansionConstraint) bool {
	target := Follow(p.Target)
	pending, ok := target.Variant().(*PendingExpansionType)
	if !ok {
		return true
	}

	bindResult := func(result TypeId) {
		if Follow(result) == target {
			result = s.builtins.ErrorRecoveryType()
		}
		s.arena.BindTo(target, result)
		s.unblockType(target)
	}

	var alias *TypeFun
	var found bool
	if pending.Prefix != "" {
		alias, found = c.Scope.LookupImportedType(pending.Prefix, pending.Name)
	} else {
		alias, found = c.Scope.LookupType(pending.Name)
	}
	if !found {
		name := pending.Name
		if pending.Prefix != "" {
			name = pending.Prefix + "." + name
		}
		s.reportError(ilerr.NewUnknownSymbol{Positioner: c.Location, Name: name})
		bindResult(s.builtins.ErrorRecoveryType())
		return true
	}

	if len(alias.TypeParams) == 0 && len(alias.TypePackParams) == 0 {
		bindResult(alias.Type)
		return true
	}

	if OccursCheck(target, alias.Type) {
		s.reportError(ilerr.NewOccursCheckFailed{Positioner: c.Location})
		bindResult(s.builtins.ErrorRecoveryType())
		return true
	}

	typeArgs, packArgs := s.saturateArguments(alias, pending.TypeArguments, pending.PackArguments)

	if s.isIdentitySubstitution(alias, typeArgs, packArgs) {
		bindResult(alias.Type)
		return true
	}

	sig := &instantiationSignature{alias: alias, arguments: typeArgs, packArguments: packArgs}
	if cached, ok := s.instantiatedAliases.Get(sig); ok {
		bindResult(cached)
		return true
	}

	if s.hasDivergentSelfExpansion(alias, pending) {
		s.reportError(ilerr.NewRecursiveTypeWithDifferentParams{Positioner: c.Location, Name: pending.Name})
		bindResult(s.builtins.ErrorRecoveryType())
		return true
	}

	sub := newSubstitutor(s.arena)
	for i, param := range alias.TypeParams {
		sub.addType(param.Ty, typeArgs[i])
	}
	for i, param := range alias.TypePackParams {
		sub.addPack(param.Tp, packArgs[i])
	}
	result := sub.substitute(alias.Type)
	s.reproduceConstraints(c, result)

	// Never stamp through a node the substitution did not copy: that would
	// mutate the alias's declared form, or another arena's surface.
	if Follow(result).owner != s.arena || Follow(result) == Follow(alias.Type) {
		result = s.cloneNamedLayer(Follow(result))
	}

	if table := namedTableOf(result); table != nil {
		table.InstantiatedTypeParams = typeArgs
		table.InstantiatedTypePackParams = packArgs
	}

	s.instantiatedAliases = s.instantiatedAliases.Set(sig, Follow(result))
	bindResult(result)
	return true
}

// saturateArguments fits the provided arguments to the alias's declared
// parameter shape: excess types roll into a trailing pack, single-element
// packs can fill a missing type slot, defaults apply in declaration order
// with earlier saturated parameters substituted in, and anything still
// missing becomes the error-recovery type.
func (s *Solver) saturateArguments(alias *TypeFun, typeArgs []TypeId, packArgs []TypePackId) ([]TypeId, []TypePackId) {
	typesRequired := len(alias.TypeParams)
	packsRequired := len(alias.TypePackParams)

	saturated := append([]TypeId(nil), typeArgs...)
	saturatedPacks := append([]TypePackId(nil), packArgs...)

	if len(saturated) > typesRequired {
		excess := saturated[typesRequired:]
		saturated = saturated[:typesRequired]
		if packsRequired > 0 {
			trailing := s.arena.NewPack(&ListPack{Head: append([]TypeId(nil), excess...)})
			saturatedPacks = append([]TypePackId{trailing}, saturatedPacks...)
		}
	}

	for len(saturated) < typesRequired && len(saturatedPacks) > 0 {
		head, tail := Flatten(saturatedPacks[0])
		if len(head) != 1 || tail != nil {
			break
		}
		saturated = append(saturated, head[0])
		saturatedPacks = saturatedPacks[1:]
	}

	needsDefaults := (len(saturated) < typesRequired && len(saturatedPacks) == 0) ||
		(len(saturated) == typesRequired && len(saturatedPacks) < packsRequired)
	if needsDefaults {
		sub := newSubstitutor(s.arena)
		for i, param := range alias.TypeParams {
			if i < len(saturated) {
				sub.addType(param.Ty, saturated[i])
				continue
			}
			filled := s.builtins.ErrorRecoveryType()
			if param.Default != nil {
				filled = sub.substitute(param.Default)
			}
			saturated = append(saturated, filled)
			sub.addType(param.Ty, filled)
		}
		for i, param := range alias.TypePackParams {
			if i < len(saturatedPacks) {
				sub.addPack(param.Tp, saturatedPacks[i])
				continue
			}
			filled := s.builtins.ErrorTypePack
			if param.Default != nil {
				filled = sub.substitutePack(param.Default)
			}
			saturatedPacks = append(saturatedPacks, filled)
			sub.addPack(param.Tp, filled)
		}
	}

	for len(saturated) < typesRequired {
		saturated = append(saturated, s.builtins.ErrorRecoveryType())
	}
	for len(saturatedPacks) < packsRequired {
		saturatedPacks = append(saturatedPacks, s.builtins.ErrorTypePack)
	}
	if len(saturatedPacks) > packsRequired {
		saturatedPacks = saturatedPacks[:packsRequired]
	}
	return saturated, saturatedPacks
}

func (s *Solver) isIdentitySubstitution(alias *TypeFun, typeArgs []TypeId, packArgs []TypePackId) bool {
	if len(typeArgs) != len(alias.TypeParams) || len(packArgs) != len(alias.TypePackParams) {
		return false
	}
	for i, param := range alias.TypeParams {
		if Follow(typeArgs[i]) != Follow(param.Ty) {
			return false
		}
	}
	for i, param := range alias.TypePackParams {
		if FollowPack(packArgs[i]) != FollowPack(param.Tp) {
			return false
		}
	}
	return true
}

// hasDivergentSelfExpansion reports whether the alias body re-applies the
// same alias with anything other than its own parameters, which would
// expand forever.
func (s *Solver) hasDivergentSelfExpansion(alias *TypeFun, outer *PendingExpansionType) bool {
	divergent := false
	visitType(alias.Type, func(ty TypeId) bool {
		inner, ok := ty.Variant().(*PendingExpansionType)
		if !ok || inner.Prefix != outer.Prefix || inner.Name != outer.Name {
			return true
		}
		if len(inner.TypeArguments) != len(alias.TypeParams) ||
			len(inner.PackArguments) != len(alias.TypePackParams) {
			divergent = true
			return false
		}
		for i, arg := range inner.TypeArguments {
			if Follow(arg) != Follow(alias.TypeParams[i].Ty) {
				divergent = true
				return false
			}
		}
		for i, arg := range inner.PackArguments {
			if FollowPack(arg) != FollowPack(alias.TypePackParams[i].Tp) {
				divergent = true
				return false
			}
		}
		return true
	}, nil)
	return divergent
}

// reproduceConstraints queues follow-up work for every placeholder the
// substitution copied: expansions for pending aliases, reductions for
// family instances.
func (s *Solver) reproduceConstraints(c *Constraint, root TypeId) {
	visitType(root, func(ty TypeId) bool {
		switch ty.Variant().(type) {
		case *PendingExpansionType:
			nc := s.pushConstraint(c.Scope, c.Location, &TypeAliasExpansionConstraint{Target: ty})
			s.inheritBlocks(c, nc)
		case *TypeFamilyInstanceType:
			s.pushConstraint(c.Scope, c.Location, &ReduceConstraint{Ty: ty})
		}
		return true
	}, func(tp TypePackId) bool {
		if _, ok := tp.Variant().(*FamilyInstancePack); ok {
			s.pushConstraint(c.Scope, c.Location, &ReducePackConstraint{Tp: tp})
		}
		return true
	})
}

// cloneNamedLayer copies the table (or metatable-wrapped table) layer that
// is about to receive instantiation stamps.
func (s *Solver) cloneNamedLayer(ty TypeId) TypeId {
	switch v := ty.Variant().(type) {
	case *TableType:
		next := &TableType{
			Props:         make(map[string]*Property, len(v.Props)),
			Indexer:       v.Indexer,
			State:         v.State,
			Scope:         v.Scope,
			Name:          v.Name,
			SyntheticName: v.SyntheticName,
		}
		for name, prop := range v.Props {
			copied := *prop
			next.Props[name] = &copied
		}
		if v.Indexer != nil {
			indexer := *v.Indexer
			next.Indexer = &indexer
		}
		return s.arena.NewType(next)
	case *MetatableType:
		return s.arena.NewType(&MetatableType{
			Table:     s.cloneNamedLayer(Follow(v.Table)),
			Metatable: v.Metatable,
		})
	}
	return ty
}

// namedTableOf digs out the table that instantiation stamps land on.
func namedTableOf(ty TypeId) *TableType {
	switch v := Follow(ty).Variant().(type) {
	case *TableType:
		return v
	case *MetatableType:
		if table, ok := Follow(v.Table).Variant().(*TableType); ok {
			return table
		}
	}
	return nil
}

package types

import (
	"github.com/u-train/luau/frontend/ilerr"
)

// tryDispatchHasProp resolves subject.prop and binds the result slot. A
// lookup with no answer at all resolves to any.
func (s *Solver) tryDispatchHasProp(c *Constraint, p *HasPropConstraint, force bool) bool {
	subject := Follow(p.SubjectType)
	if s.isBlockedType(subject) && !force {
		return s.block(subject, c)
	}

	lookup := propLookup{
		solver:                 s,
		constraint:             c,
		name:                   p.Prop,
		context:                p.Context,
		inConditional:          p.InConditional,
		suppressSimplification: p.SuppressSimplification,
		seen:                   map[TypeId]struct{}{},
	}
	blockers, result := lookup.find(subject, 0)
	if len(blockers) > 0 && !force {
		for _, b := range blockers {
			s.block(b, c)
		}
		return false
	}
	if result == nil {
		result = s.builtins.AnyType
	}

	resultTy := Follow(p.ResultType)
	if _, isBlocked := resultTy.Variant().(*BlockedType); isBlocked {
		s.bindBlockedType(resultTy, result, p.ResultType, c)
	} else {
		s.unify(c, result, resultTy)
	}
	return true
}

// propLookup is one property resolution in flight. The visited set stops
// cyclic metatable chains; depth bounds pathological nesting.
type propLookup struct {
	solver                 *Solver
	constraint             *Constraint
	name                   string
	context                ValueContext
	inConditional          bool
	suppressSimplification bool
	seen                   map[TypeId]struct{}
}

func (l *propLookup) find(subject TypeId, depth int) ([]TypeId, TypeId) {
	s := l.solver
	subject = Follow(subject)
	if depth > s.limits.RecursionLimit {
		return nil, nil
	}
	if _, ok := l.seen[subject]; ok {
		return nil, nil
	}
	l.seen[subject] = struct{}{}

	switch v := subject.Variant().(type) {
	case *BlockedType, *PendingExpansionType:
		return []TypeId{subject}, nil
	case *AnyType, *NeverType:
		return nil, subject
	case *TableType:
		return l.findInTable(v, depth)
	case *MetatableType:
		if l.context == ValueLValue {
			return l.find(v.Table, depth+1)
		}
		blockers, result := l.find(v.Table, depth+1)
		if len(blockers) > 0 || result != nil {
			return blockers, result
		}
		return l.findThroughIndexMetamethod(v.Metatable, depth)
	case *ClassType:
		if prop := lookupClassProp(v, l.name); prop != nil {
			if l.context == ValueLValue && prop.WriteTy != nil {
				return nil, prop.WriteTy
			}
			if prop.ReadTy != nil {
				return nil, prop.ReadTy
			}
		}
		if v.Indexer != nil {
			return nil, v.Indexer.IndexResultType
		}
		return nil, nil
	case *PrimType:
		if v.Metatable != nil {
			return l.findThroughIndexMetamethod(v.Metatable, depth)
		}
		return nil, nil
	case *FreeType:
		return l.findInFree(v, subject, depth)
	case *UnionType:
		return l.findInParts(v.Options, depth, false)
	case *IntersectionType:
		return l.findInParts(v.Parts, depth, true)
	}
	return nil, nil
}

func (l *propLookup) findInTable(table *TableType, depth int) ([]TypeId, TypeId) {
	s := l.solver
	if prop, ok := table.Props[l.name]; ok {
		if l.context == ValueLValue {
			if prop.WriteTy != nil {
				return nil, prop.WriteTy
			}
			if table.State == TableFree && prop.ReadTy != nil {
				// Writing to a read-only slot of a still-growing table
				// upgrades it in place.
				prop.WriteTy = prop.ReadTy
				return nil, prop.WriteTy
			}
		}
		if prop.ReadTy != nil {
			return nil, prop.ReadTy
		}
		return nil, nil
	}
	if table.Indexer != nil && isStringIndex(table.Indexer.IndexType) {
		return nil, table.Indexer.IndexResultType
	}
	if table.State == TableFree {
		fresh := s.arena.FreshType(s.builtins, l.constraint.Scope)
		if l.context == ValueLValue {
			table.Props[l.name] = SharedProperty(fresh)
		} else {
			table.Props[l.name] = ReadOnlyProperty(fresh)
		}
		return nil, fresh
	}
	if l.inConditional {
		return nil, s.builtins.UnknownType
	}
	return nil, nil
}

// findThroughIndexMetamethod resolves a lookup that fell through to the
// __index entry of a metatable.
func (l *propLookup) findThroughIndexMetamethod(metatable TypeId, depth int) ([]TypeId, TypeId) {
	mtTable, ok := Follow(metatable).Variant().(*TableType)
	if !ok {
		return nil, nil
	}
	indexProp, ok := mtTable.Props["__index"]
	if !ok || indexProp.ReadTy == nil {
		return nil, nil
	}
	index := Follow(indexProp.ReadTy)
	if fn, isFn := index.Variant().(*FunctionType); isFn {
		retHead, _ := Flatten(fn.RetTypes)
		if len(retHead) > 0 {
			return nil, retHead[0]
		}
		return nil, nil
	}
	return l.find(index, depth+1)
}

func (l *propLookup) findInFree(free *FreeType, subject TypeId, depth int) ([]TypeId, TypeId) {
	s := l.solver
	upper := Follow(free.UpperBound)
	switch upper.Variant().(type) {
	case *TableType, *MetatableType, *PrimType:
		return l.find(upper, depth+1)
	}

	fresh := s.arena.FreshType(s.builtins, l.constraint.Scope)
	props := map[string]*Property{}
	if l.context == ValueLValue {
		props[l.name] = SharedProperty(fresh)
	} else {
		props[l.name] = ReadOnlyProperty(fresh)
	}
	upperTable := s.arena.NewType(&TableType{
		Props: props,
		State: TableUnsealed,
		Scope: l.constraint.Scope,
	})
	s.unify(l.constraint, subject, upperTable)
	return nil, fresh
}

func (l *propLookup) findInParts(parts []TypeId, depth int, intersect bool) ([]TypeId, TypeId) {
	s := l.solver
	var blockers []TypeId
	var results []TypeId
	for _, part := range parts {
		partBlockers, result := l.find(part, depth+1)
		blockers = append(blockers, partBlockers...)
		if result == nil {
			continue
		}
		result = Follow(result)
		duplicate := false
		for _, existing := range results {
			if existing == result {
				duplicate = true
				break
			}
		}
		if !duplicate {
			results = append(results, result)
		}
	}
	if len(blockers) > 0 {
		return blockers, nil
	}

	combineAsIntersection := intersect || l.context == ValueLValue
	switch {
	case len(results) == 0:
		return nil, nil
	case len(results) == 1:
		return nil, results[0]
	case len(results) == 2 && !l.suppressSimplification:
		if combineAsIntersection {
			return nil, s.simplifier.SimplifyIntersection(results[0], results[1])
		}
		return nil, s.simplifier.SimplifyUnion(results[0], results[1])
	}
	if combineAsIntersection {
		return nil, s.arena.NewType(&IntersectionType{Parts: results})
	}
	return nil, s.arena.NewType(&UnionType{Options: results})
}

func isStringIndex(indexTy TypeId) bool {
	switch v := Follow(indexTy).Variant().(type) {
	case *PrimType:
		return v.Kind == StringKind
	case *SingletonType:
		return v.IsString
	}
	return false
}

// tryDispatchSetProp installs a property at the end of a path of unsealed
// tables. A sealed table along the way refuses the write. On the last table an
// existing property is unified with the written type instead.
func (s *Solver) tryDispatchSetProp(c *Constraint, p *SetPropConstraint) bool {
	subject := Follow(p.SubjectType)
	if s.isBlockedType(subject) {
		return s.block(subject, c)
	}

	current := subject
	for i, segment := range p.Path {
		table, ok := Follow(current).Variant().(*TableType)
		if !ok {
			s.reportError(ilerr.NewPropertyAccessViolation{
				Positioner: c.Location,
				Key:        segment,
				Reason:     "cannot add a property to " + TypeName(Follow(current)),
			})
			break
		}
		last := i == len(p.Path)-1

		if last {
			if existing, ok := table.Props[segment]; ok {
				target := existing.WriteTy
				if target == nil {
					target = existing.ReadTy
				}
				if target != nil {
					s.unify(c, p.PropType, target)
				}
				break
			}
			if table.State == TableSealed {
				s.reportError(ilerr.NewPropertyAccessViolation{
					Positioner: c.Location,
					Key:        segment,
					Reason:     "cannot add a property to a sealed table",
				})
				break
			}
			table.Props[segment] = SharedProperty(p.PropType)
			break
		}

		existing, ok := table.Props[segment]
		if !ok {
			if table.State == TableSealed {
				s.reportError(ilerr.NewPropertyAccessViolation{
					Positioner: c.Location,
					Key:        segment,
					Reason:     "cannot add a property to a sealed table",
				})
				break
			}
			intermediate := s.arena.NewType(&TableType{
				Props: map[string]*Property{},
				State: TableUnsealed,
				Scope: c.Scope,
			})
			table.Props[segment] = SharedProperty(intermediate)
			current = intermediate
			continue
		}
		if table.State == TableSealed {
			s.reportError(ilerr.NewPropertyAccessViolation{
				Positioner: c.Location,
				Key:        segment,
				Reason:     "cannot write through a sealed table",
			})
			break
		}
		if existing.ReadTy != nil {
			current = existing.ReadTy
		} else {
			current = existing.WriteTy
		}
		if current == nil {
			break
		}
	}

	resultTy := Follow(p.ResultType)
	if _, isBlocked := resultTy.Variant().(*BlockedType); isBlocked {
		s.bindBlockedType(resultTy, subject, p.ResultType, c)
	} else {
		s.unify(c, subject, resultTy)
	}
	return true
}

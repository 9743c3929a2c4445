package types

import (
	"github.com/u-train/luau/frontend/ilerr"
)

// tryDispatchHasIndexer resolves subject[index] and binds the result slot.
// Intersections defer their combined result to the union type family so
// simplification happens after every branch has settled.
func (s *Solver) tryDispatchHasIndexer(c *Constraint, p *HasIndexerConstraint, force bool) bool {
	subject := Follow(p.SubjectType)
	indexTy := Follow(p.IndexType)
	if s.isBlockedType(subject) && !force {
		return s.block(subject, c)
	}
	if s.isBlockedType(indexTy) && !force {
		return s.block(indexTy, c)
	}

	seen := map[TypeId]struct{}{}
	blockers, results := s.indexerResults(c, subject, indexTy, 0, seen)
	if len(blockers) > 0 && !force {
		for _, b := range blockers {
			s.block(b, c)
		}
		return false
	}

	var result TypeId
	switch len(results) {
	case 0:
		result = s.builtins.ErrorRecoveryType()
	case 1:
		result = results[0]
	default:
		result = s.arena.NewType(&UnionType{Options: results})
	}

	resultTy := Follow(p.ResultType)
	if _, isBlocked := resultTy.Variant().(*BlockedType); isBlocked {
		s.bindBlockedType(resultTy, result, p.ResultType, c)
	} else {
		s.unify(c, result, resultTy)
	}
	return true
}

// indexerResults recursively resolves where an index read on subject lands.
func (s *Solver) indexerResults(c *Constraint, subject, indexTy TypeId, depth int, seen map[TypeId]struct{}) ([]TypeId, []TypeId) {
	subject = Follow(subject)
	if depth > s.limits.RecursionLimit {
		return nil, nil
	}
	if _, ok := seen[subject]; ok {
		return nil, nil
	}
	seen[subject] = struct{}{}

	switch v := subject.Variant().(type) {
	case *BlockedType, *PendingExpansionType:
		return []TypeId{subject}, nil
	case *AnyType, *ErrorType, *NeverType:
		return nil, []TypeId{subject}
	case *FreeType:
		fresh := s.arena.FreshType(s.builtins, c.Scope)
		upperTable := s.arena.NewType(&TableType{
			Props:   map[string]*Property{},
			Indexer: &TableIndexer{IndexType: indexTy, IndexResultType: fresh},
			State:   TableUnsealed,
			Scope:   c.Scope,
		})
		s.unify(c, subject, upperTable)
		return nil, []TypeId{fresh}
	case *TableType:
		if v.Indexer != nil {
			s.unify(c, indexTy, v.Indexer.IndexType)
			return nil, []TypeId{v.Indexer.IndexResultType}
		}
		if v.State == TableUnsealed || v.State == TableFree {
			fresh := s.arena.FreshType(s.builtins, c.Scope)
			v.Indexer = &TableIndexer{IndexType: indexTy, IndexResultType: fresh}
			return nil, []TypeId{fresh}
		}
		return nil, nil
	case *MetatableType:
		return s.indexerResults(c, v.Table, indexTy, depth+1, seen)
	case *ClassType:
		if v.Indexer != nil {
			s.unify(c, indexTy, v.Indexer.IndexType)
			return nil, []TypeId{v.Indexer.IndexResultType}
		}
		if isStringIndex(indexTy) {
			return nil, []TypeId{s.builtins.UnknownType}
		}
		return nil, nil
	case *UnionType:
		return s.collectIndexerResults(c, v.Options, indexTy, depth, seen, false)
	case *IntersectionType:
		return s.collectIndexerResults(c, v.Parts, indexTy, depth, seen, true)
	}
	return nil, nil
}

func (s *Solver) collectIndexerResults(c *Constraint, parts []TypeId, indexTy TypeId, depth int, seen map[TypeId]struct{}, deferUnion bool) ([]TypeId, []TypeId) {
	var blockers []TypeId
	var results []TypeId
	for _, part := range parts {
		partBlockers, partResults := s.indexerResults(c, part, indexTy, depth+1, seen)
		blockers = append(blockers, partBlockers...)
		for _, result := range partResults {
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
	}
	if len(blockers) > 0 {
		return blockers, nil
	}
	if deferUnion && len(results) > 1 {
		// The branches may still be refined, so the combination is left to
		// the union family and a queued reduction.
		family := s.arena.NewType(&TypeFamilyInstanceType{
			Family:        s.builtins.UnionFamily,
			TypeArguments: results,
		})
		s.pushConstraint(c.Scope, c.Location, &ReduceConstraint{Ty: family})
		return nil, []TypeId{family}
	}
	return nil, results
}

// tryDispatchSetIndexer checks or installs an indexer write on the subject.
func (s *Solver) tryDispatchSetIndexer(c *Constraint, p *SetIndexerConstraint, force bool) bool {
	subject := Follow(p.SubjectType)
	if s.isBlockedType(subject) && !force {
		return s.block(subject, c)
	}
	indexTy := Follow(p.IndexType)
	if s.isBlockedType(indexTy) && !force {
		return s.block(indexTy, c)
	}
	s.setIndexer(c, subject, indexTy, p.PropType, 0, map[TypeId]struct{}{})
	return true
}

func (s *Solver) setIndexer(c *Constraint, subject, indexTy, propTy TypeId, depth int, seen map[TypeId]struct{}) {
	subject = Follow(subject)
	if depth > s.limits.RecursionLimit {
		return
	}
	if _, ok := seen[subject]; ok {
		return
	}
	seen[subject] = struct{}{}

	switch v := subject.Variant().(type) {
	case *AnyType, *ErrorType, *NeverType:
		return
	case *FreeType:
		upperTable := s.arena.NewType(&TableType{
			Props:   map[string]*Property{},
			Indexer: &TableIndexer{IndexType: indexTy, IndexResultType: propTy},
			State:   TableUnsealed,
			Scope:   c.Scope,
		})
		s.unify(c, subject, upperTable)
	case *TableType:
		if v.Indexer != nil {
			s.unify(c, indexTy, v.Indexer.IndexType)
			s.unify(c, propTy, v.Indexer.IndexResultType)
			return
		}
		if v.State == TableUnsealed || v.State == TableFree {
			v.Indexer = &TableIndexer{IndexType: indexTy, IndexResultType: propTy}
			return
		}
		s.reportError(ilerr.NewPropertyAccessViolation{
			Positioner: c.Location,
			Key:        TypeName(indexTy),
			Reason:     "cannot add an indexer to a sealed table",
		})
	case *MetatableType:
		s.setIndexer(c, v.Table, indexTy, propTy, depth+1, seen)
	case *ClassType:
		if v.Indexer != nil {
			s.unify(c, indexTy, v.Indexer.IndexType)
			s.unify(c, propTy, v.Indexer.IndexResultType)
		}
	case *UnionType:
		for _, opt := range v.Options {
			s.setIndexer(c, opt, indexTy, propTy, depth+1, seen)
		}
	case *IntersectionType:
		for _, part := range v.Parts {
			s.setIndexer(c, part, indexTy, propTy, depth+1, seen)
		}
	}
}

package types

import (
	"github.com/u-train/luau/frontend/ilerr"
	"github.com/u-train/luau/internal/log"
	"github.com/u-train/luau/util"
)

var unifyLogger = log.DefaultLogger.With("section", "unify")

// Unifier decides sub <: sup by mutating Free bounds in place. Results beyond
// the boolean travel through the side channels: generic substitutions feed
// instantiation, incomplete subtypes are re-queued as fresh constraints, and
// expanded free types feed the upper-bound contributor map.
type Unifier interface {
	Unify(sub, sup TypeId) bool
	UnifyPacks(sub, sup TypePackId) bool

	GenericSubstitutions() map[TypeId]TypeId
	GenericPackSubstitutions() map[TypePackId]TypePackId
	IncompleteSubtypes() []IncompleteSubtype
	ExpandedFreeTypes() map[TypeId][]TypeId
}

// IncompleteSubtype is a pair the unifier could not decide because one side
// is still a placeholder. Exactly one of the type pair or the pack pair is
// set.
type IncompleteSubtype struct {
	SubType   TypeId
	SuperType TypeId
	SubPack   TypePackId
	SuperPack TypePackId
}

type typeIdHasher struct{}

func (typeIdHasher) Hash(ty TypeId) uint32    { return uint32(ty.Seq()) }
func (typeIdHasher) Equal(a, b TypeId) bool   { return a == b }

// boundsUnifier is the default unifier: a structural walk that widens lower
// bounds and narrows upper bounds of free types, monotonically.
type boundsUnifier struct {
	s *Solver
	c *Constraint

	genericSubs     map[TypeId]TypeId
	genericPackSubs map[TypePackId]TypePackId
	incomplete      util.Stack[IncompleteSubtype]
	expandedFree    map[TypeId][]TypeId

	// seen holds (sub, sup) Seq pairs already in progress, which is what
	// terminates the walk on cyclic graphs.
	seen  util.MSet[util.Pair[uint64, uint64]]
	depth int
}

func newBoundsUnifier(s *Solver, c *Constraint) Unifier {
	return &boundsUnifier{
		s:               s,
		c:               c,
		genericSubs:     map[TypeId]TypeId{},
		genericPackSubs: map[TypePackId]TypePackId{},
		expandedFree:    map[TypeId][]TypeId{},
		seen:            util.NewEmptySet[util.Pair[uint64, uint64]](),
	}
}

func (u *boundsUnifier) GenericSubstitutions() map[TypeId]TypeId { return u.genericSubs }
func (u *boundsUnifier) GenericPackSubstitutions() map[TypePackId]TypePackId {
	return u.genericPackSubs
}
func (u *boundsUnifier) IncompleteSubtypes() []IncompleteSubtype { return u.incomplete.PopAll() }
func (u *boundsUnifier) ExpandedFreeTypes() map[TypeId][]TypeId  { return u.expandedFree }

func (u *boundsUnifier) Unify(sub, sup TypeId) bool {
	return u.unify(sub, sup)
}

func (u *boundsUnifier) UnifyPacks(sub, sup TypePackId) bool {
	return u.unifyPacks(sub, sup)
}

func (u *boundsUnifier) unify(sub, sup TypeId) bool {
	sub, sup = Follow(sub), Follow(sup)
	if sub == sup {
		return true
	}
	pair := util.NewPair(sub.seq, sup.seq)
	if u.seen.Contains(pair) {
		return true
	}
	u.seen.Add(pair)

	u.depth++
	defer func() { u.depth-- }()
	if u.depth > u.s.limits.RecursionLimit {
		return false
	}

	if u.s.isBlockedType(sub) || u.s.isBlockedType(sup) {
		u.incomplete.Push(IncompleteSubtype{SubType: sub, SuperType: sup})
		return true
	}

	// generics are recorded, not solved; instantiation applies them later
	if _, ok := sub.variant.(*GenericType); ok {
		u.genericSubs[sub] = sup
		return true
	}
	if _, ok := sup.variant.(*GenericType); ok {
		u.genericSubs[sup] = sub
		return true
	}

	subFree, subIsFree := sub.variant.(*FreeType)
	supFree, supIsFree := sup.variant.(*FreeType)
	switch {
	case subIsFree && supIsFree:
		subFree.UpperBound = u.s.simplifier.SimplifyIntersection(subFree.UpperBound, sup)
		supFree.LowerBound = u.s.simplifier.SimplifyUnion(supFree.LowerBound, sub)
		u.expandedFree[sub] = append(u.expandedFree[sub], sup)
		return true
	case subIsFree:
		subFree.UpperBound = u.s.simplifier.SimplifyIntersection(subFree.UpperBound, sup)
		u.expandedFree[sub] = append(u.expandedFree[sub], sup)
		return true
	case supIsFree:
		supFree.LowerBound = u.s.simplifier.SimplifyUnion(supFree.LowerBound, sub)
		return true
	}

	switch sub.variant.(type) {
	case *NeverType, *ErrorType, *AnyType:
		return true
	}
	switch sup.variant.(type) {
	case *AnyType, *UnknownType, *ErrorType:
		return true
	}

	if subU, ok := sub.variant.(*UnionType); ok {
		for _, opt := range subU.Options {
			if !u.unify(opt, sup) {
				return false
			}
		}
		return true
	}
	if supI, ok := sup.variant.(*IntersectionType); ok {
		for _, part := range supI.Parts {
			if !u.unify(sub, part) {
				return false
			}
		}
		return true
	}
	if supU, ok := sup.variant.(*UnionType); ok {
		for _, opt := range supU.Options {
			if u.unify(sub, opt) {
				return true
			}
		}
		return false
	}
	if subI, ok := sub.variant.(*IntersectionType); ok {
		for _, part := range subI.Parts {
			if u.unify(part, sup) {
				return true
			}
		}
		return false
	}

	switch supV := sup.variant.(type) {
	case *PrimType:
		if subPrim, ok := sub.variant.(*PrimType); ok {
			return subPrim.Kind == supV.Kind
		}
		if subSing, ok := sub.variant.(*SingletonType); ok {
			return subSing.Kind() == supV.Kind
		}
		return false
	case *SingletonType:
		subSing, ok := sub.variant.(*SingletonType)
		return ok && *subSing == *supV
	case *FunctionType:
		subFn, ok := sub.variant.(*FunctionType)
		if !ok {
			return false
		}
		// parameters are contravariant, returns covariant
		return u.unifyPacks(supV.ArgTypes, subFn.ArgTypes) && u.unifyPacks(subFn.RetTypes, supV.RetTypes)
	case *TableType:
		return u.unifyIntoTable(sub, supV)
	case *MetatableType:
		subMt, ok := sub.variant.(*MetatableType)
		if !ok {
			return false
		}
		return u.unify(subMt.Table, supV.Table) && u.unify(subMt.Metatable, supV.Metatable)
	case *ClassType:
		subClass, ok := sub.variant.(*ClassType)
		if !ok {
			return false
		}
		for cur := subClass; cur != nil; {
			if cur == supV {
				return true
			}
			parent := cur.Parent
			if parent == nil {
				break
			}
			next, ok := Follow(parent).variant.(*ClassType)
			if !ok {
				break
			}
			cur = next
		}
		return false
	case *NeverType:
		return false
	}
	return false
}

// unifyIntoTable implements width subtyping: every property the supertype
// demands must be present on the subtype. Free subtype tables accumulate
// missing properties instead of failing.
func (u *boundsUnifier) unifyIntoTable(sub TypeId, supTable *TableType) bool {
	var subTable *TableType
	switch subV := sub.variant.(type) {
	case *TableType:
		subTable = subV
	case *MetatableType:
		return u.unify(subV.Table, Follow(findTableOwner(u, supTable)))
	case *ClassType:
		for name, supProp := range supTable.Props {
			subProp := lookupClassProp(subV, name)
			if subProp == nil {
				return false
			}
			if supProp.ReadTy != nil && (subProp.ReadTy == nil || !u.unify(subProp.ReadTy, supProp.ReadTy)) {
				return false
			}
		}
		return true
	default:
		return false
	}

	for name, supProp := range supTable.Props {
		subProp, ok := subTable.Props[name]
		if !ok {
			if subTable.State == TableFree || subTable.State == TableUnsealed {
				subTable.Props[name] = &Property{ReadTy: supProp.ReadTy, WriteTy: supProp.WriteTy}
				continue
			}
			if subTable.Indexer != nil {
				if !u.unify(u.s.builtins.StringType, subTable.Indexer.IndexType) {
					return false
				}
				if supProp.ReadTy != nil && !u.unify(subTable.Indexer.IndexResultType, supProp.ReadTy) {
					return false
				}
				continue
			}
			return false
		}
		if supProp.ReadTy != nil {
			if subProp.ReadTy == nil || !u.unify(subProp.ReadTy, supProp.ReadTy) {
				return false
			}
		}
		if supProp.WriteTy != nil {
			if subProp.WriteTy == nil || !u.unify(supProp.WriteTy, subProp.WriteTy) {
				return false
			}
		}
	}
	if supTable.Indexer != nil {
		if subTable.Indexer == nil {
			if subTable.State == TableFree || subTable.State == TableUnsealed {
				subTable.Indexer = &TableIndexer{
					IndexType:       supTable.Indexer.IndexType,
					IndexResultType: supTable.Indexer.IndexResultType,
				}
			} else {
				return false
			}
		} else {
			if !u.unify(supTable.Indexer.IndexType, subTable.Indexer.IndexType) {
				return false
			}
			if !u.unify(subTable.Indexer.IndexResultType, supTable.Indexer.IndexResultType) {
				return false
			}
		}
	}
	return true
}

// findTableOwner returns a fresh node wrapping a table variant; the original
// TypeId of the supertype is not recovered.
func findTableOwner(u *boundsUnifier, table *TableType) TypeId {
	// supTable came from a followed sup TypeId in unify; rebuild is not
	// possible from the variant alone, so wrap it in a throwaway node.
	return u.s.arena.NewType(table)
}

func lookupClassProp(class *ClassType, name string) *Property {
	for cur := class; cur != nil; {
		if prop, ok := cur.Props[name]; ok {
			return prop
		}
		if cur.Parent == nil {
			return nil
		}
		next, ok := Follow(cur.Parent).variant.(*ClassType)
		if !ok {
			return nil
		}
		cur = next
	}
	return nil
}

func (u *boundsUnifier) unifyPacks(sub, sup TypePackId) bool {
	sub, sup = FollowPack(sub), FollowPack(sup)
	if sub == sup {
		return true
	}

	if u.s.isBlockedPack(sub) || u.s.isBlockedPack(sup) {
		u.incomplete.Push(IncompleteSubtype{SubPack: sub, SuperPack: sup})
		return true
	}
	if _, ok := sub.variant.(*ErrorPack); ok {
		return true
	}
	if _, ok := sup.variant.(*ErrorPack); ok {
		return true
	}
	if _, ok := sub.variant.(*FreePack); ok {
		u.s.arena.BindPackTo(sub, sup)
		u.s.unblockPack(sub)
		return true
	}
	if _, ok := sup.variant.(*FreePack); ok {
		u.s.arena.BindPackTo(sup, sub)
		u.s.unblockPack(sup)
		return true
	}
	if g, ok := sup.variant.(*GenericPack); ok {
		_ = g
		u.genericPackSubs[sup] = sub
		return true
	}
	if _, ok := sub.variant.(*GenericPack); ok {
		u.genericPackSubs[sub] = sup
		return true
	}

	subHead, subTail := Flatten(sub)
	supHead, supTail := Flatten(sup)

	n := len(subHead)
	if len(supHead) < n {
		n = len(supHead)
	}
	for i := 0; i < n; i++ {
		if !u.unify(subHead[i], supHead[i]) {
			return false
		}
	}
	// extra demanded elements draw from the sub tail, defaulting to nil
	for i := n; i < len(supHead); i++ {
		src := u.s.builtins.NilType
		if subTail != nil {
			if v, ok := FollowPack(subTail).variant.(*VariadicPack); ok {
				src = v.Ty
			}
		}
		if !u.unify(src, supHead[i]) {
			return false
		}
	}
	// extra provided elements must fit the sup tail, if any
	if supTail != nil {
		if v, ok := FollowPack(supTail).variant.(*VariadicPack); ok {
			for i := n; i < len(subHead); i++ {
				if !u.unify(subHead[i], v.Ty) {
					return false
				}
			}
		}
	}

	switch {
	case subTail == nil && supTail == nil:
		return true
	case subTail != nil && supTail != nil:
		subV, subOk := FollowPack(subTail).variant.(*VariadicPack)
		supV, supOk := FollowPack(supTail).variant.(*VariadicPack)
		if subOk && supOk {
			return u.unify(subV.Ty, supV.Ty)
		}
		return u.unifyPacks(subTail, supTail)
	default:
		// one side exhausted; the shorter side provides or accepts nil
		return true
	}
}

// unify invokes the unifier and propagates its side channels: incomplete
// subtypes become fresh constraints inheriting c's block set, and expanded
// free types are recorded as upper-bound contributors. On hard failure an
// occurs-check diagnostic is reported and false is returned without
// unblocking anything.
func (s *Solver) unify(c *Constraint, sub, sup TypeId) bool {
	u := s.newUnifier(s, c)
	ok := u.Unify(sub, sup)
	if !ok {
		unifyLogger.Debug("unification failed",
			"sub", TypeName(sub), "sup", TypeName(sup))
		s.reportError(ilerr.NewOccursCheckFailed{Positioner: c.Location})
		return false
	}
	s.propagateUnifyResults(c, u)
	return true
}

func (s *Solver) unifyPack(c *Constraint, sub, sup TypePackId) bool {
	u := s.newUnifier(s, c)
	ok := u.UnifyPacks(sub, sup)
	if !ok {
		unifyLogger.Debug("pack unification failed",
			"sub", PackName(sub), "sup", PackName(sup))
		s.reportError(ilerr.NewOccursCheckFailed{Positioner: c.Location})
		return false
	}
	s.propagateUnifyResults(c, u)
	return true
}

func (s *Solver) propagateUnifyResults(c *Constraint, u Unifier) {
	for _, inc := range u.IncompleteSubtypes() {
		var nc *Constraint
		if inc.SubType != nil {
			nc = s.pushConstraint(c.Scope, c.Location, &SubtypeConstraint{
				SubType:   inc.SubType,
				SuperType: inc.SuperType,
			})
		} else {
			nc = s.pushConstraint(c.Scope, c.Location, &PackSubtypeConstraint{
				SubPack:   inc.SubPack,
				SuperPack: inc.SuperPack,
			})
		}
		s.inheritBlocks(c, nc)
	}
	for ty, uppers := range u.ExpandedFreeTypes() {
		contribs, _ := s.upperBoundContributors.Get(ty)
		for _, up := range uppers {
			contribs = append(contribs, UpperBoundContributor{Location: c.Location, Ty: up})
		}
		s.upperBoundContributors = s.upperBoundContributors.Set(ty, contribs)
	}
}

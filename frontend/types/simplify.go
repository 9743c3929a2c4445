package types

import (
	"sort"

	"github.com/xtgo/set"
)

// Simplifier shrinks union and intersection shapes before they are written
// into free-type bounds. Implementations must be purely syntactic: no
// subtyping queries, no arena mutation beyond allocating the result node.
type Simplifier interface {
	SimplifyUnion(left, right TypeId) TypeId
	SimplifyIntersection(left, right TypeId) TypeId
}

// NewSimplifier returns the default syntactic simplifier: it flattens nested
// unions/intersections, deduplicates identical nodes, and applies the
// top/bottom absorption rules for never, any, and unknown. error has no
// absorption rule and is kept like any other member.
func NewSimplifier(arena *Arena, builtins *Builtins) Simplifier {
	return &syntacticSimplifier{arena: arena, builtins: builtins}
}

type syntacticSimplifier struct {
	arena    *Arena
	builtins *Builtins
}

// bySeq orders types by allocation sequence so set.Uniq can collapse
// duplicates. The order itself is arbitrary but deterministic per arena.
type bySeq []TypeId

func (s bySeq) Len() int           { return len(s) }
func (s bySeq) Less(i, j int) bool { return s[i].Seq() < s[j].Seq() }
func (s bySeq) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func (s *syntacticSimplifier) SimplifyUnion(left, right TypeId) TypeId {
	var options []TypeId
	options = flattenUnion(options, left)
	options = flattenUnion(options, right)

	kept := options[:0]
	for _, opt := range options {
		switch Follow(opt).Variant().(type) {
		case *NeverType:
			// never is the identity of union.
		case *AnyType:
			return s.builtins.AnyType
		case *UnknownType:
			return s.builtins.UnknownType
		default:
			kept = append(kept, opt)
		}
	}
	kept = dedupe(kept)

	switch len(kept) {
	case 0:
		return s.builtins.NeverType
	case 1:
		return kept[0]
	}
	return s.arena.NewType(&UnionType{Options: kept})
}

func (s *syntacticSimplifier) SimplifyIntersection(left, right TypeId) TypeId {
	var parts []TypeId
	parts = flattenIntersection(parts, left)
	parts = flattenIntersection(parts, right)

	kept := parts[:0]
	for _, part := range parts {
		switch Follow(part).Variant().(type) {
		case *UnknownType:
			// unknown is the identity of intersection.
		case *NeverType:
			return s.builtins.NeverType
		default:
			kept = append(kept, part)
		}
	}
	kept = dedupe(kept)

	switch len(kept) {
	case 0:
		return s.builtins.UnknownType
	case 1:
		return kept[0]
	}
	return s.arena.NewType(&IntersectionType{Parts: kept})
}

func flattenUnion(acc []TypeId, ty TypeId) []TypeId {
	ty = Follow(ty)
	if u, ok := ty.Variant().(*UnionType); ok {
		for _, opt := range u.Options {
			acc = flattenUnion(acc, opt)
		}
		return acc
	}
	return append(acc, ty)
}

func flattenIntersection(acc []TypeId, ty TypeId) []TypeId {
	ty = Follow(ty)
	if i, ok := ty.Variant().(*IntersectionType); ok {
		for _, part := range i.Parts {
			acc = flattenIntersection(acc, part)
		}
		return acc
	}
	return append(acc, ty)
}

func dedupe(tys []TypeId) []TypeId {
	if len(tys) < 2 {
		return tys
	}
	sort.Sort(bySeq(tys))
	n := set.Uniq(bySeq(tys))
	return tys[:n]
}

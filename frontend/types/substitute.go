package types

// substitutor deep-copies type graphs, replacing every occurrence of the
// registered keys. Nodes owned by another arena and persistent nodes are
// never cloned: the replacement keys cannot occur inside them. Cyclic
// graphs are handled by registering a placeholder clone before descending.
type substitutor struct {
	arena *Arena

	replaceTypes map[TypeId]TypeId
	replacePacks map[TypePackId]TypePackId

	cloneTypes map[TypeId]TypeId
	clonePacks map[TypePackId]TypePackId
}

func newSubstitutor(arena *Arena) *substitutor {
	return &substitutor{
		arena:        arena,
		replaceTypes: map[TypeId]TypeId{},
		replacePacks: map[TypePackId]TypePackId{},
		cloneTypes:   map[TypeId]TypeId{},
		clonePacks:   map[TypePackId]TypePackId{},
	}
}

func (s *substitutor) addType(from, to TypeId) {
	s.replaceTypes[Follow(from)] = to
}

func (s *substitutor) addPack(from, to TypePackId) {
	s.replacePacks[FollowPack(from)] = to
}

// touches reports whether any replacement key is reachable from root.
func (s *substitutor) touches(root TypeId) bool {
	found := false
	visitType(root, func(ty TypeId) bool {
		if _, ok := s.replaceTypes[ty]; ok {
			found = true
			return false
		}
		return true
	}, func(tp TypePackId) bool {
		if _, ok := s.replacePacks[tp]; ok {
			found = true
			return false
		}
		return true
	})
	return found
}

func (s *substitutor) touchesPack(root TypePackId) bool {
	found := false
	visitTypePack(root, func(ty TypeId) bool {
		if _, ok := s.replaceTypes[ty]; ok {
			found = true
			return false
		}
		return true
	}, func(tp TypePackId) bool {
		if _, ok := s.replacePacks[tp]; ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// substitute returns root with every replacement key swapped for its value.
// Clean graphs are returned unchanged.
func (s *substitutor) substitute(root TypeId) TypeId {
	if len(s.replaceTypes) == 0 && len(s.replacePacks) == 0 {
		return root
	}
	if !s.touches(root) {
		return root
	}
	return s.cloneType(root)
}

func (s *substitutor) substitutePack(root TypePackId) TypePackId {
	if len(s.replaceTypes) == 0 && len(s.replacePacks) == 0 {
		return root
	}
	if !s.touchesPack(root) {
		return root
	}
	return s.clonePack(root)
}

func (s *substitutor) cloneType(ty TypeId) TypeId {
	ty = Follow(ty)
	if to, ok := s.replaceTypes[ty]; ok {
		return to
	}
	if clone, ok := s.cloneTypes[ty]; ok {
		return clone
	}
	if ty.Persistent() || ty.owner != s.arena {
		return ty
	}

	switch v := ty.variant.(type) {
	case *FreeType:
		clone := s.placeholder(ty)
		s.arena.EmplaceVariant(clone, &FreeType{
			Scope:      v.Scope,
			LowerBound: s.cloneType(v.LowerBound),
			UpperBound: s.cloneType(v.UpperBound),
		})
		return clone
	case *LocalType:
		clone := s.placeholder(ty)
		next := &LocalType{BlockCount: v.BlockCount, Name: v.Name}
		if v.Domain != nil {
			next.Domain = s.cloneType(v.Domain)
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *FunctionType:
		clone := s.placeholder(ty)
		next := &FunctionType{
			Generics:     append([]TypeId(nil), v.Generics...),
			GenericPacks: append([]TypePackId(nil), v.GenericPacks...),
			ArgTypes:     s.clonePack(v.ArgTypes),
			RetTypes:     s.clonePack(v.RetTypes),
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *TableType:
		clone := s.placeholder(ty)
		next := &TableType{
			Props:         make(map[string]*Property, len(v.Props)),
			State:         v.State,
			Scope:         v.Scope,
			Name:          v.Name,
			SyntheticName: v.SyntheticName,
		}
		for name, prop := range v.Props {
			next.Props[name] = s.cloneProperty(prop)
		}
		if v.Indexer != nil {
			next.Indexer = &TableIndexer{
				IndexType:       s.cloneType(v.Indexer.IndexType),
				IndexResultType: s.cloneType(v.Indexer.IndexResultType),
			}
		}
		for _, param := range v.InstantiatedTypeParams {
			next.InstantiatedTypeParams = append(next.InstantiatedTypeParams, s.cloneType(param))
		}
		for _, param := range v.InstantiatedTypePackParams {
			next.InstantiatedTypePackParams = append(next.InstantiatedTypePackParams, s.clonePack(param))
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *MetatableType:
		clone := s.placeholder(ty)
		s.arena.EmplaceVariant(clone, &MetatableType{
			Table:     s.cloneType(v.Table),
			Metatable: s.cloneType(v.Metatable),
		})
		return clone
	case *UnionType:
		clone := s.placeholder(ty)
		next := &UnionType{Options: make([]TypeId, 0, len(v.Options))}
		for _, opt := range v.Options {
			next.Options = append(next.Options, s.cloneType(opt))
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *IntersectionType:
		clone := s.placeholder(ty)
		next := &IntersectionType{Parts: make([]TypeId, 0, len(v.Parts))}
		for _, part := range v.Parts {
			next.Parts = append(next.Parts, s.cloneType(part))
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *PendingExpansionType:
		clone := s.placeholder(ty)
		next := &PendingExpansionType{Prefix: v.Prefix, Name: v.Name}
		for _, arg := range v.TypeArguments {
			next.TypeArguments = append(next.TypeArguments, s.cloneType(arg))
		}
		for _, arg := range v.PackArguments {
			next.PackArguments = append(next.PackArguments, s.clonePack(arg))
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	case *TypeFamilyInstanceType:
		clone := s.placeholder(ty)
		next := &TypeFamilyInstanceType{Family: v.Family}
		for _, arg := range v.TypeArguments {
			next.TypeArguments = append(next.TypeArguments, s.cloneType(arg))
		}
		for _, arg := range v.PackArguments {
			next.PackArguments = append(next.PackArguments, s.clonePack(arg))
		}
		s.arena.EmplaceVariant(clone, next)
		return clone
	}
	// Leaves: primitives, singletons, generics not in the map, classes,
	// blocked nodes, never/any/unknown/error.
	return ty
}

func (s *substitutor) cloneProperty(prop *Property) *Property {
	next := &Property{}
	if prop.ReadTy != nil {
		next.ReadTy = s.cloneType(prop.ReadTy)
	}
	if prop.WriteTy != nil {
		if prop.WriteTy == prop.ReadTy {
			next.WriteTy = next.ReadTy
		} else {
			next.WriteTy = s.cloneType(prop.WriteTy)
		}
	}
	return next
}

func (s *substitutor) clonePack(tp TypePackId) TypePackId {
	tp = FollowPack(tp)
	if to, ok := s.replacePacks[tp]; ok {
		return to
	}
	if clone, ok := s.clonePacks[tp]; ok {
		return clone
	}
	if tp.Persistent() || tp.owner != s.arena {
		return tp
	}

	switch v := tp.variant.(type) {
	case *ListPack:
		clone := s.packPlaceholder(tp)
		next := &ListPack{Head: make([]TypeId, 0, len(v.Head))}
		for _, head := range v.Head {
			next.Head = append(next.Head, s.cloneType(head))
		}
		if v.Tail != nil {
			next.Tail = s.clonePack(v.Tail)
		}
		s.arena.EmplacePackVariant(clone, next)
		return clone
	case *VariadicPack:
		clone := s.packPlaceholder(tp)
		s.arena.EmplacePackVariant(clone, &VariadicPack{Ty: s.cloneType(v.Ty), Hidden: v.Hidden})
		return clone
	case *FamilyInstancePack:
		clone := s.packPlaceholder(tp)
		next := &FamilyInstancePack{Family: v.Family}
		for _, arg := range v.TypeArguments {
			next.TypeArguments = append(next.TypeArguments, s.cloneType(arg))
		}
		for _, arg := range v.PackArguments {
			next.PackArguments = append(next.PackArguments, s.clonePack(arg))
		}
		s.arena.EmplacePackVariant(clone, next)
		return clone
	}
	return tp
}

// placeholder allocates the clone node up front so cyclic graphs resolve
// back to it instead of recursing forever.
func (s *substitutor) placeholder(original TypeId) TypeId {
	clone := s.arena.NewType(nil)
	s.cloneTypes[original] = clone
	return clone
}

func (s *substitutor) packPlaceholder(original TypePackId) TypePackId {
	clone := s.arena.NewPack(nil)
	s.clonePacks[original] = clone
	return clone
}

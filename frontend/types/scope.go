package types

// Scope is one lexical scope of the module under inference. Scopes form a
// tree through Parent; lookups walk towards the root.
type Scope struct {
	Parent *Scope

	Bindings map[string]TypeId

	ExportedTypeBindings map[string]*TypeFun
	PrivateTypeBindings  map[string]*TypeFun

	// ImportedTypeBindings maps a required module's local alias to the type
	// aliases it exports.
	ImportedTypeBindings map[string]map[string]*TypeFun

	ReturnType TypePackId
}

func NewScope(parent *Scope) *Scope {
	return &Scope{
		Parent:               parent,
		Bindings:             map[string]TypeId{},
		ExportedTypeBindings: map[string]*TypeFun{},
		PrivateTypeBindings:  map[string]*TypeFun{},
		ImportedTypeBindings: map[string]map[string]*TypeFun{},
	}
}

func (s *Scope) Lookup(name string) (TypeId, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if ty, ok := cur.Bindings[name]; ok {
			return ty, true
		}
	}
	return nil, false
}

// LookupType finds a type alias by unqualified name, preferring private
// bindings of the nearest scope.
func (s *Scope) LookupType(name string) (*TypeFun, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if tf, ok := cur.PrivateTypeBindings[name]; ok {
			return tf, true
		}
		if tf, ok := cur.ExportedTypeBindings[name]; ok {
			return tf, true
		}
	}
	return nil, false
}

// LookupImportedType finds a type alias exported by a required module.
func (s *Scope) LookupImportedType(moduleAlias, name string) (*TypeFun, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if exports, ok := cur.ImportedTypeBindings[moduleAlias]; ok {
			tf, ok := exports[name]
			return tf, ok
		}
	}
	return nil, false
}

// IsAncestorOf reports whether s is scope or one of its ancestors.
func (s *Scope) IsAncestorOf(scope *Scope) bool {
	for cur := scope; cur != nil; cur = cur.Parent {
		if cur == s {
			return true
		}
	}
	return false
}

// GenericTypeDefinition is one declared type parameter of an alias, with an
// optional default applied during argument saturation.
type GenericTypeDefinition struct {
	Ty      TypeId
	Default TypeId
}

type GenericTypePackDefinition struct {
	Tp      TypePackId
	Default TypePackId
}

// TypeFun is a (possibly parametric) type alias definition.
type TypeFun struct {
	TypeParams     []GenericTypeDefinition
	TypePackParams []GenericTypePackDefinition
	Type           TypeId
}

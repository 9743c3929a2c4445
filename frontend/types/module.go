package types

import (
	"github.com/u-train/luau/frontend/ast"
	"github.com/u-train/luau/frontend/ilerr"
)

// ModuleSourceKind classifies what a require path points at.
type ModuleSourceKind int

const (
	// SourceModule is an ordinary requirable module.
	SourceModule ModuleSourceKind = iota
	// SourceScript is an executable entry point and may not be required.
	SourceScript
)

// ModuleInfo is the solver-facing summary of an already-checked module.
type ModuleInfo struct {
	Name       string
	ReturnType TypePackId
	Kind       ModuleSourceKind
}

// ModuleResolver answers require lookups during a solve. Implementations
// must be safe to call repeatedly with the same name.
type ModuleResolver interface {
	GetModule(name string) *ModuleInfo
	ModuleExists(name string) bool
	HumanReadableModuleName(name string) string
}

// MapResolver is the trivial in-memory resolver used by tests and the
// debug driver.
type MapResolver map[string]*ModuleInfo

func (m MapResolver) GetModule(name string) *ModuleInfo    { return m[name] }
func (m MapResolver) ModuleExists(name string) bool        { _, ok := m[name]; return ok }
func (m MapResolver) HumanReadableModuleName(name string) string { return name }

// resolveModule returns the type a require of moduleName evaluates to at
// location. Requires that participate in a cycle with the current module
// resolve to any rather than diverging.
func (s *Solver) resolveModule(moduleName string, location ast.Range) TypeId {
	for _, cycle := range s.requireCycles {
		for _, step := range cycle.Path {
			if step == moduleName {
				return s.builtins.AnyType
			}
		}
	}

	info := s.moduleResolver.GetModule(moduleName)
	if info == nil {
		if !s.moduleResolver.ModuleExists(moduleName) {
			s.reportError(ilerr.NewUnknownRequire{
				Positioner: location,
				ModulePath: s.moduleResolver.HumanReadableModuleName(moduleName),
			})
		}
		return s.builtins.ErrorRecoveryType()
	}
	if info.Kind != SourceModule {
		s.reportError(ilerr.NewIllegalRequire{
			Positioner: location,
			ModulePath: s.moduleResolver.HumanReadableModuleName(moduleName),
			Reason:     "only modules can be required",
		})
		return s.builtins.ErrorRecoveryType()
	}

	head, _ := Flatten(info.ReturnType)
	if len(head) == 0 {
		return s.builtins.ErrorRecoveryType()
	}
	return head[0]
}

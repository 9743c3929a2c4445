package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/u-train/luau/frontend/ast"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = true
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	UnknownSymbol
	UnknownRequire
	IllegalRequire
	OccursCheckFailed
	RecursiveTypeWithDifferentParams
	CodeTooComplex
	NotIterable
	CannotCallNonFunction
	PropertyAccessViolation
	UninhabitedTypeFamily
)

// TypeError is a user-facing diagnostic produced during constraint solving.
//
// Every diagnostic carries the module it was produced for and a source range.
type TypeError interface {
	Error() string
	Code() ErrCode
	ModuleName() string
	ast.Positioner

	withStack([]byte) TypeError
	withModule(string) TypeError
	getStack() []byte
}

func FormatWithCode(e TypeError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E TypeError](err E) TypeError {
	return err.withStack(debug.Stack())
}

// WithModule tags err with the module it was produced for.
func WithModule(err TypeError, module string) TypeError {
	return err.withModule(module)
}

type Unclassified struct {
	From error
	ast.Positioner
	Module string
	stack  []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode      { return None }
func (e Unclassified) ModuleName() string { return e.Module }
func (e Unclassified) getStack() []byte   { return e.stack }
func (e Unclassified) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e Unclassified) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewUnknownSymbol struct {
	ast.Positioner
	Name   string
	Module string
	stack  []byte
}

func (e NewUnknownSymbol) Error() string {
	return fmt.Sprintf("unknown type '%s'", e.Name)
}
func (e NewUnknownSymbol) Code() ErrCode      { return UnknownSymbol }
func (e NewUnknownSymbol) ModuleName() string { return e.Module }
func (e NewUnknownSymbol) getStack() []byte   { return e.stack }
func (e NewUnknownSymbol) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewUnknownSymbol) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewUnknownRequire struct {
	ast.Positioner
	ModulePath string
	Module     string
	stack      []byte
}

func (e NewUnknownRequire) Error() string {
	return fmt.Sprintf("unknown require: %s", e.ModulePath)
}
func (e NewUnknownRequire) Code() ErrCode      { return UnknownRequire }
func (e NewUnknownRequire) ModuleName() string { return e.Module }
func (e NewUnknownRequire) getStack() []byte   { return e.stack }
func (e NewUnknownRequire) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewUnknownRequire) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewIllegalRequire struct {
	ast.Positioner
	ModulePath string
	Reason     string
	Module     string
	stack      []byte
}

func (e NewIllegalRequire) Error() string {
	return fmt.Sprintf("cannot require module %s: %s", e.ModulePath, e.Reason)
}
func (e NewIllegalRequire) Code() ErrCode      { return IllegalRequire }
func (e NewIllegalRequire) ModuleName() string { return e.Module }
func (e NewIllegalRequire) getStack() []byte   { return e.stack }
func (e NewIllegalRequire) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewIllegalRequire) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewOccursCheckFailed struct {
	ast.Positioner
	Module string
	stack  []byte
}

func (e NewOccursCheckFailed) Error() string {
	return "type contains a reference to itself"
}
func (e NewOccursCheckFailed) Code() ErrCode      { return OccursCheckFailed }
func (e NewOccursCheckFailed) ModuleName() string { return e.Module }
func (e NewOccursCheckFailed) getStack() []byte   { return e.stack }
func (e NewOccursCheckFailed) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewOccursCheckFailed) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewRecursiveTypeWithDifferentParams struct {
	ast.Positioner
	Name   string
	Module string
	stack  []byte
}

func (e NewRecursiveTypeWithDifferentParams) Error() string {
	return fmt.Sprintf("recursive type '%s' being used with different parameters", e.Name)
}
func (e NewRecursiveTypeWithDifferentParams) Code() ErrCode {
	return RecursiveTypeWithDifferentParams
}
func (e NewRecursiveTypeWithDifferentParams) ModuleName() string { return e.Module }
func (e NewRecursiveTypeWithDifferentParams) getStack() []byte   { return e.stack }
func (e NewRecursiveTypeWithDifferentParams) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewRecursiveTypeWithDifferentParams) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewCodeTooComplex struct {
	ast.Positioner
	Module string
	stack  []byte
}

func (e NewCodeTooComplex) Error() string {
	return "code is too complex to typecheck! Consider simplifying the code around this area"
}
func (e NewCodeTooComplex) Code() ErrCode      { return CodeTooComplex }
func (e NewCodeTooComplex) ModuleName() string { return e.Module }
func (e NewCodeTooComplex) getStack() []byte   { return e.stack }
func (e NewCodeTooComplex) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewCodeTooComplex) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewNotIterable struct {
	ast.Positioner
	TypeName string
	Module   string
	stack    []byte
}

func (e NewNotIterable) Error() string {
	return fmt.Sprintf("cannot iterate over a value of type '%s'", e.TypeName)
}
func (e NewNotIterable) Code() ErrCode      { return NotIterable }
func (e NewNotIterable) ModuleName() string { return e.Module }
func (e NewNotIterable) getStack() []byte   { return e.stack }
func (e NewNotIterable) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewNotIterable) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewCannotCallNonFunction struct {
	ast.Positioner
	TypeName string
	Module   string
	stack    []byte
}

func (e NewCannotCallNonFunction) Error() string {
	return fmt.Sprintf("cannot call a value of type '%s'", e.TypeName)
}
func (e NewCannotCallNonFunction) Code() ErrCode      { return CannotCallNonFunction }
func (e NewCannotCallNonFunction) ModuleName() string { return e.Module }
func (e NewCannotCallNonFunction) getStack() []byte   { return e.stack }
func (e NewCannotCallNonFunction) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewCannotCallNonFunction) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewPropertyAccessViolation struct {
	ast.Positioner
	Key    string
	Reason string
	Module string
	stack  []byte
}

func (e NewPropertyAccessViolation) Error() string {
	return fmt.Sprintf("cannot add property '%s': %s", e.Key, e.Reason)
}
func (e NewPropertyAccessViolation) Code() ErrCode      { return PropertyAccessViolation }
func (e NewPropertyAccessViolation) ModuleName() string { return e.Module }
func (e NewPropertyAccessViolation) getStack() []byte   { return e.stack }
func (e NewPropertyAccessViolation) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewPropertyAccessViolation) withModule(module string) TypeError {
	e.Module = module
	return e
}

type NewUninhabitedTypeFamily struct {
	ast.Positioner
	Family string
	Module string
	stack  []byte
}

func (e NewUninhabitedTypeFamily) Error() string {
	return fmt.Sprintf("type family instance %s is uninhabited", e.Family)
}
func (e NewUninhabitedTypeFamily) Code() ErrCode      { return UninhabitedTypeFamily }
func (e NewUninhabitedTypeFamily) ModuleName() string { return e.Module }
func (e NewUninhabitedTypeFamily) getStack() []byte   { return e.stack }
func (e NewUninhabitedTypeFamily) withStack(stack []byte) TypeError {
	e.stack = stack
	return e
}
func (e NewUninhabitedTypeFamily) withModule(module string) TypeError {
	e.Module = module
	return e
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteClonesOnlyTouchedGraphs(t *testing.T) {
	w := newTestWorld()
	generic := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	fn := w.fn([]TypeId{generic}, []TypeId{generic})

	sub := newSubstitutor(w.arena)
	sub.addType(generic, w.builtins.NumberType)
	replaced := sub.substitute(fn)

	assert.NotEqual(t, fn, replaced)
	replacedFn := Follow(replaced).Variant().(*FunctionType)
	args, _ := Flatten(replacedFn.ArgTypes)
	rets, _ := Flatten(replacedFn.RetTypes)
	assert.Equal(t, w.builtins.NumberType, Follow(args[0]))
	assert.Equal(t, w.builtins.NumberType, Follow(rets[0]))

	// the original is left alone
	originalArgs, _ := Flatten(fn.Variant().(*FunctionType).ArgTypes)
	assert.Equal(t, generic, Follow(originalArgs[0]))
}

func TestSubstituteReturnsUntouchedGraphUnchanged(t *testing.T) {
	w := newTestWorld()
	generic := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	fn := w.fn([]TypeId{w.builtins.StringType}, []TypeId{w.builtins.StringType})

	sub := newSubstitutor(w.arena)
	sub.addType(generic, w.builtins.NumberType)

	assert.Equal(t, fn, sub.substitute(fn))
}

func TestSubstituteTableProperties(t *testing.T) {
	w := newTestWorld()
	generic := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	table := w.table(TableSealed, map[string]*Property{"value": SharedProperty(generic)})

	sub := newSubstitutor(w.arena)
	sub.addType(generic, w.builtins.BooleanType)
	replaced := sub.substitute(table)

	assert.NotEqual(t, table, replaced)
	replacedTable := Follow(replaced).Variant().(*TableType)
	assert.Equal(t, w.builtins.BooleanType, Follow(replacedTable.Props["value"].ReadTy))
	assert.Equal(t, generic, Follow(table.Variant().(*TableType).Props["value"].ReadTy))
}

func TestSubstituteHandlesCyclicGraphs(t *testing.T) {
	// type Node = { next: Node, value: T }
	w := newTestWorld()
	generic := w.arena.NewType(&GenericType{Name: "T", Scope: w.scope})
	node := w.table(TableSealed, map[string]*Property{"value": SharedProperty(generic)})
	node.Variant().(*TableType).Props["next"] = SharedProperty(node)

	sub := newSubstitutor(w.arena)
	sub.addType(generic, w.builtins.NumberType)
	replaced := sub.substitute(node)

	replacedTable := Follow(replaced).Variant().(*TableType)
	assert.Equal(t, w.builtins.NumberType, Follow(replacedTable.Props["value"].ReadTy))
	// the clone's cycle points back at the clone, not the original
	assert.Equal(t, Follow(replaced), Follow(replacedTable.Props["next"].ReadTy))
}

func TestSubstitutePackReplacement(t *testing.T) {
	w := newTestWorld()
	genericPack := w.arena.NewPack(&GenericPack{Name: "A...", Scope: w.scope})
	fn := w.arena.NewType(&FunctionType{
		ArgTypes: genericPack,
		RetTypes: genericPack,
	})

	sub := newSubstitutor(w.arena)
	sub.addPack(genericPack, w.pack(w.builtins.NumberType))
	replaced := sub.substitute(fn)

	replacedFn := Follow(replaced).Variant().(*FunctionType)
	args, _ := Flatten(replacedFn.ArgTypes)
	assert.Equal(t, []TypeId{w.builtins.NumberType}, args)
}

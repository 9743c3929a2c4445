package ilerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsNilReceiverIsUsable(t *testing.T) {
	var errs *Errors

	assert.False(t, errs.HasError())
	assert.Empty(t, errs.Errors())

	errs = errs.With(NewUnknownSymbol{Name: "Foo"})
	assert.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 1)
}

func TestErrorsMerge(t *testing.T) {
	left := (&Errors{}).With(NewUnknownSymbol{Name: "A"})
	right := (&Errors{}).With(NewNotIterable{TypeName: "number"})

	merged := left.Merge(right)

	assert.Len(t, merged.Errors(), 2)
	assert.Equal(t, UnknownSymbol, merged.Errors()[0].Code())
	assert.Equal(t, NotIterable, merged.Errors()[1].Code())
}

func TestMergeWithNilOperands(t *testing.T) {
	var left *Errors
	right := (&Errors{}).With(NewCodeTooComplex{})

	assert.Equal(t, right, left.Merge(right))
	assert.Equal(t, right, right.Merge(nil))
}

func TestFormatWithCode(t *testing.T) {
	testCases := []struct {
		name string
		err  TypeError
		want string
	}{
		{"unknown symbol", NewUnknownSymbol{Name: "Foo"}, "(E001) unknown type 'Foo'"},
		{"not iterable", NewNotIterable{TypeName: "number"}, "(E007) cannot iterate over a value of type 'number'"},
		{"cannot call", NewCannotCallNonFunction{TypeName: "string"}, "(E008) cannot call a value of type 'string'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatWithCode(tc.err))
		})
	}
}

func TestNewAttachesStack(t *testing.T) {
	err := New(NewUnknownSymbol{Name: "Foo"})

	assert.NotNil(t, err.getStack())
	assert.Contains(t, FormatWithCode(err), "(E001) unknown type 'Foo'")
}

func TestWithModuleTagsError(t *testing.T) {
	err := WithModule(NewUnknownRequire{ModulePath: "game/Missing"}, "main")

	assert.Equal(t, "main", err.ModuleName())
	assert.Equal(t, UnknownRequire, err.Code())
}

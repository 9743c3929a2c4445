package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMSetAddRemoveContains(t *testing.T) {
	s := NewEmptySet[string]()
	s.Add("a", "b")

	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, 2, s.Len())

	s.Remove("a")
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 1, s.Len())
}

func TestMSetOfDeduplicates(t *testing.T) {
	s := NewSetOf([]int{1, 2, 2, 3, 3, 3})

	assert.Equal(t, 3, s.Len())
	assert.ElementsMatch(t, []int{1, 2, 3}, s.AsSlice())
}

func TestStackIsLastInFirstOut(t *testing.T) {
	var s Stack[int]
	s.Push(1)
	s.Push(2)

	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestStackPopAllDrains(t *testing.T) {
	var s Stack[string]
	s.Push("x")
	s.Push("y")

	assert.Equal(t, []string{"x", "y"}, s.PopAll())
	assert.Empty(t, s.PopAll())
}

func TestPairHoldsBothValues(t *testing.T) {
	p := NewPair(1, "one")

	assert.Equal(t, 1, p.Fst)
	assert.Equal(t, "one", p.Snd)
}

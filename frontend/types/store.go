package types

import (
	"slices"

	"github.com/u-train/luau/frontend/ast"
)

// constraintStore owns every constraint record for one solve. Records may be
// referenced by the blocking index long after their position in unsolved
// changes, so they are never freed, only removed from the unsolved sequence.
type constraintStore struct {
	owned    []*Constraint
	unsolved []*Constraint
}

func newConstraintStore(initial []*Constraint) *constraintStore {
	return &constraintStore{
		owned:    slices.Clone(initial),
		unsolved: slices.Clone(initial),
	}
}

// push allocates a solver-synthesized constraint and appends it to unsolved.
func (st *constraintStore) push(scope *Scope, location ast.Range, payload ConstraintPayload) *Constraint {
	c := &Constraint{
		Scope:    scope,
		Location: location,
		Payload:  payload,
	}
	st.owned = append(st.owned, c)
	st.unsolved = append(st.unsolved, c)
	return c
}

func (st *constraintStore) removeAt(i int) {
	st.unsolved = slices.Delete(st.unsolved, i, i+1)
}

func (st *constraintStore) isDone() bool {
	return len(st.unsolved) == 0
}

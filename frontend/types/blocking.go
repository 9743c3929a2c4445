package types

import (
	set "github.com/hashicorp/go-set/v3"
)

// blockedKey is TypeId, TypePackId, or *Constraint: the things a constraint
// can wait on.
type blockedKey = any

// blockingIndex is the bidirectional wait index between constraints and the
// keys they are blocked on. blocked is the reverse-edge map; counts tracks
// how many distinct keys each constraint is waiting on.
type blockingIndex struct {
	blocked map[blockedKey]*set.Set[*Constraint]
	counts  map[*Constraint]int
}

func newBlockingIndex() blockingIndex {
	return blockingIndex{
		blocked: map[blockedKey]*set.Set[*Constraint]{},
		counts:  map[*Constraint]int{},
	}
}

// insert records that c waits on key. It is idempotent on (key, c): re-blocking
// on the same key does not double-count. Reports whether the edge was new.
func (b *blockingIndex) insert(key blockedKey, c *Constraint) bool {
	waiting, ok := b.blocked[key]
	if !ok {
		waiting = set.New[*Constraint](1)
		b.blocked[key] = waiting
	}
	if !waiting.Insert(c) {
		return false
	}
	b.counts[c]++
	return true
}

// release erases key, decrementing the wait count of every constraint that was
// blocked on it. Returns the constraints that became fully unblocked.
func (b *blockingIndex) release(key blockedKey) []*Constraint {
	waiting, ok := b.blocked[key]
	if !ok {
		return nil
	}
	delete(b.blocked, key)
	var freed []*Constraint
	for c := range waiting.Items() {
		b.counts[c]--
		if b.counts[c] <= 0 {
			delete(b.counts, c)
			freed = append(freed, c)
		}
	}
	return freed
}

// waitingOn returns the constraints currently blocked on key.
func (b *blockingIndex) waitingOn(key blockedKey) []*Constraint {
	waiting, ok := b.blocked[key]
	if !ok {
		return nil
	}
	return waiting.Slice()
}

// isBlocked reports whether c still waits on at least one key.
func (b *blockingIndex) isBlocked(c *Constraint) bool {
	return b.counts[c] > 0
}

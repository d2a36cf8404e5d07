// SPDX-License-Identifier: EPL-2.0

// Package perfecthash maps keys minted by the table itself to values.
//
// Keys are chosen so that every live key owns a distinct slot, which makes
// lookups a single atomic load with no probing. A slot is free when it is
// empty or when the value stored there no longer claims a key that maps to
// it, so entries heal themselves as values are re-keyed elsewhere.
package perfecthash

import (
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
)

// Table is safe for concurrent use. Get never blocks.
type Table[T any] struct {
	slots []atomic.Pointer[T]
	mask  int32
	keyOf func(*T) int32

	mu   sync.Mutex
	next int32 // last key handed out
}

// New returns a table for at most maxValues simultaneously keyed values.
// keyOf reports the key a value currently claims, or 0 for none.
func New[T any](maxValues int, keyOf func(*T) int32) *Table[T] {
	capacity := nextPow2(2 * max(maxValues, 1))
	return &Table[T]{
		slots: make([]atomic.Pointer[T], capacity),
		mask:  int32(capacity - 1),
		keyOf: keyOf,
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Capacity returns the number of slots.
func (t *Table[T]) Capacity() int { return len(t.slots) }

func (t *Table[T]) index(key int32) int32 { return key & t.mask }

// Get returns the value stored for key, or nil. The value may have moved on
// to another key since; callers compare against the value's own key.
func (t *Table[T]) Get(key int32) *T {
	if key <= 0 {
		return nil
	}
	return t.slots[t.index(key)].Load()
}

func (t *Table[T]) stale(i int32, v *T) bool {
	if v == nil {
		return true
	}
	k := t.keyOf(v)
	return k <= 0 || t.index(k) != i
}

// GenerateKey mints a positive key for v, stores v under it and releases
// the slot of oldKey if v still holds it. The caller must publish the new
// key on v before another GenerateKey call can observe v's slot. It panics
// when every slot is held by a live value.
func (t *Table[T]) GenerateKey(v *T, oldKey int32) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var key int32
	found := false
	for range len(t.slots) {
		if t.next == math.MaxInt32 {
			t.next = 0
		}
		t.next++
		i := t.index(t.next)
		if t.stale(i, t.slots[i].Load()) {
			key = t.next
			found = true
			break
		}
	}
	if !found {
		panic(fmt.Sprintf("perfecthash: no free slot in %d", len(t.slots)))
	}

	if oldKey > 0 {
		i := t.index(oldKey)
		if cur := t.slots[i].Load(); cur == v || t.stale(i, cur) {
			t.slots[i].Store(nil)
		}
	}
	t.slots[t.index(key)].Store(v)
	return key
}

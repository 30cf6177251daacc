// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cmap

import "code.hybscloud.com/atomix"

// cell is a reference-counted heap allocation holding a hashmap key or
// value, ported from godby::details::Referenced<T>. A cell's count equals
// the number of outstanding accessors plus one for the slot that currently
// points at it; the cell is freed by the ordinary Go garbage collector once
// nothing references the *cell[V] anymore, so release here only decides
// when it is safe to stop treating the cell as live (there is no manual
// delete — see controlBlock.Destroy in asp for the equivalent Go-GC
// rationale).
type cell[V any] struct {
	ref atomix.Int32
	val V
}

func newCell[V any](val V) *cell[V] {
	c := &cell[V]{val: val}
	c.ref.StoreRelaxed(1)
	return c
}

// acquire increments the cell's reference count, refusing to resurrect a
// cell whose count has already dropped to zero — the resurrecting-CAS
// pattern accessors use before ever dereferencing a cell.
func (c *cell[V]) acquire() bool {
	for {
		cur := c.ref.LoadAcquire()
		if cur == 0 {
			return false
		}
		if c.ref.CompareAndSwapAcqRel(cur, cur+1) {
			return true
		}
	}
}

// release decrements the cell's reference count by one. Both an accessor
// releasing its own hold and a bucket unlinking the cell from its slot
// (releasing the +1 baked into newCell) call this same method — each holds
// exactly one reference to give up, so no distinction between the two call
// sites is needed.
func (c *cell[V]) release() {
	c.ref.AddAcqRel(-1)
}

// Accessor is a scoped handle keeping a cell alive for the duration of its
// use, returned by Map.Get. The zero value is an empty accessor (Ok()
// reports false).
type Accessor[V any] struct {
	c *cell[V]
}

// Ok reports whether the accessor actually holds a live cell.
func (a Accessor[V]) Ok() bool { return a.c != nil }

// Value returns the accessor's value. Calling Value on an empty accessor
// returns the zero value of V.
func (a Accessor[V]) Value() V {
	if a.c == nil {
		var zero V
		return zero
	}
	return a.c.val
}

// Release releases the accessor's reference on the cell. Safe to call on an
// empty accessor.
func (a Accessor[V]) Release() {
	if a.c != nil {
		a.c.release()
	}
}

func accessorFor[V any](c *cell[V]) Accessor[V] {
	if c == nil || !c.acquire() {
		return Accessor[V]{}
	}
	return Accessor[V]{c: c}
}

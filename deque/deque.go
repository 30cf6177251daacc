// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package deque implements a Chase-Lev work-stealing deque: a single owner
// goroutine pushes and pops from the bottom, any number of thief goroutines
// steal from the top, and the backing buffer grows lock-free when the owner
// runs out of room.
package deque

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// fenceWord backs the portable sequentially-consistent fence used between
// the owner's bottom decrement and its top re-read in Pop, and between a
// thief's top read and its bottom read in Steal — the same atomic-round-trip
// shape hazard/fence_other.go uses where no cheaper platform primitive
// applies. Shared across all Deque[T] instances since it carries no state
// of its own, only ordering.
var fenceWord atomic.Uint64

func fenceSeqCst() {
	fenceWord.Add(1)
}

// array is one generation of the deque's backing buffer. Resizing never
// mutates an array in place — it allocates a new, larger one and copies the
// live range — so a thief mid-steal against an old array is never racing a
// concurrent write to the slot it is reading.
type array[T any] struct {
	mask uint64 // capacity-1; capacity is always a power of two
	s    []T
}

func newArray[T any](capacity uint64) *array[T] {
	return &array[T]{mask: capacity - 1, s: make([]T, capacity)}
}

func (a *array[T]) capacity() uint64 {
	return a.mask + 1
}

func (a *array[T]) get(i uint64) T {
	return a.s[i&a.mask]
}

func (a *array[T]) put(i uint64, v T) {
	a.s[i&a.mask] = v
}

func (a *array[T]) resize(bottom, top uint64) *array[T] {
	next := newArray[T](a.capacity() * 2)
	for i := top; i != bottom; i++ {
		next.put(i, a.get(i))
	}
	return next
}

// Deque is a single-owner, many-thief work-stealing deque with unbounded
// capacity via lock-free growth, grounded on godby::StealingQueue.
//
// Push and Pop must only be called by the deque's single owner goroutine.
// Steal may be called by any goroutine, including the owner's own.
type Deque[T any] struct {
	top     atomix.Uint64
	bottom  atomix.Uint64
	buf     atomic.Pointer[array[T]]
	garbage []*array[T] // old buffers, kept alive for the deque's lifetime
}

// New creates a deque with an initial capacity, rounded up to a power of
// two (minimum 2).
func New[T any](capacity int) *Deque[T] {
	n := uint64(1)
	for n < uint64(capacity) {
		n <<= 1
	}
	if n < 2 {
		n = 2
	}
	d := &Deque[T]{}
	d.buf.Store(newArray[T](n))
	return d
}

// Empty reports whether the deque appeared empty at the time of the call.
func (d *Deque[T]) Empty() bool {
	b := d.bottom.LoadRelaxed()
	t := d.top.LoadRelaxed()
	return b <= t
}

// Size reports the number of items at the time of the call.
func (d *Deque[T]) Size() int {
	b := d.bottom.LoadRelaxed()
	t := d.top.LoadRelaxed()
	if b < t {
		return 0
	}
	return int(b - t)
}

// Capacity returns the current backing buffer's capacity.
func (d *Deque[T]) Capacity() int {
	return int(d.buf.Load().capacity())
}

// Push inserts an item. Owner-only. Grows the backing buffer (doubling
// capacity) if the deque is full; the displaced buffer is kept on a garbage
// list for the deque's lifetime rather than freed, since a concurrent thief
// may still be mid-read against it.
func (d *Deque[T]) Push(item T) {
	b := d.bottom.LoadRelaxed()
	t := d.top.LoadAcquire()
	a := d.buf.Load()

	if a.capacity()-1 <= b-t {
		next := a.resize(b, t)
		d.garbage = append(d.garbage, a)
		a = next
		d.buf.Store(a)
	}

	a.put(b, item)
	d.bottom.StoreRelease(b + 1)
}

// Pop removes and returns an item. Owner-only. ok is false if the deque was
// empty, or if a thief won the race for the last remaining item.
func (d *Deque[T]) Pop() (item T, ok bool) {
	b := d.bottom.LoadRelaxed() - 1
	a := d.buf.Load()
	d.bottom.StoreRelaxed(b)
	fenceSeqCst()
	t := d.top.LoadRelaxed()

	if int64(t) > int64(b) {
		d.bottom.StoreRelaxed(b + 1)
		return item, false
	}

	item = a.get(b)
	if t == b {
		// Last item: race a concurrent thief for it via the same CAS on
		// top that is the linearization point for every steal.
		if !d.top.CompareAndSwapAcqRel(t, t+1) {
			var zero T
			item = zero
			ok = false
		} else {
			ok = true
		}
		d.bottom.StoreRelaxed(b + 1)
		return item, ok
	}

	d.bottom.StoreRelaxed(b + 1)
	return item, true
}

// Steal removes and returns an item from the top. Any goroutine may call
// Steal, including the owner. ok is false on a lost race — which is not
// necessarily the same as the deque being empty; callers should retry.
func (d *Deque[T]) Steal() (item T, ok bool) {
	t := d.top.LoadAcquire()
	fenceSeqCst()
	b := d.bottom.LoadAcquire()

	if int64(t) >= int64(b) {
		return item, false
	}

	a := d.buf.Load()
	item = a.get(t)
	if !d.top.CompareAndSwapAcqRel(t, t+1) {
		var zero T
		return zero, false
	}
	return item, true
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp

import (
	"sync/atomic"

	"code.hybscloud.com/concur/hazard"
)

// AtomicSharedPtr is an atomic, lock-free slot holding shared ownership of a
// control block. Load is wait-free: it never spins on contention from other
// Loads, only (briefly) on a concurrent Store/Exchange racing the hazard
// protect/re-read sequence.
//
// The zero value is an empty AtomicSharedPtr.
type AtomicSharedPtr[T any] struct {
	slot atomic.Pointer[controlBlockRef[T]]
}

// NewAtomicSharedPtr creates an AtomicSharedPtr initially holding desired.
// desired's reference is transferred into the slot.
func NewAtomicSharedPtr[T any](desired *SharedPtr[T]) *AtomicSharedPtr[T] {
	a := &AtomicSharedPtr[T]{}
	a.Store(desired)
	return a
}

// Load returns a new strong handle to the currently stored control block,
// or an empty SharedPtr if the slot is empty. Load is the operation the
// hazard engine exists for: it protects the slot's current control block
// long enough to perform a resurrecting strong-count increment.
func (a *AtomicSharedPtr[T]) Load() *SharedPtr[T] {
	s := acquirePooledSlot()
	defer releasePooledSlot(s)

	for {
		ref := hazard.Protect(s, &a.slot)
		if ref == nil {
			return Empty[T]()
		}
		if ref.base.strong.IncrementIfNonZero(1) {
			return &SharedPtr[T]{ref: ref}
		}
		// The block we protected was disposed between protect and the
		// increment attempt; loop and re-protect the (by now updated) slot.
	}
}

// Store releases the previously held control block and transfers ownership
// of desired's reference into the slot.
func (a *AtomicSharedPtr[T]) Store(desired *SharedPtr[T]) {
	next := desired.releaseInternals()
	old := a.slot.Swap(next)
	if old != nil {
		old.base.decrementStrong(sharedEngine())
	}
}

// Exchange stores desired and returns a handle taking over the previously
// held reference (an empty SharedPtr if the slot was empty).
func (a *AtomicSharedPtr[T]) Exchange(desired *SharedPtr[T]) *SharedPtr[T] {
	next := desired.releaseInternals()
	old := a.slot.Swap(next)
	if old == nil {
		return Empty[T]()
	}
	return &SharedPtr[T]{ref: old}
}

// CompareAndSwapWeak attempts to store desired if the slot currently holds
// the same control block as expected. On success desired's reference
// transfers into the slot and the slot's own reference to the old control
// block is released, while *expected keeps the reference it holds; on failure
// expected is refreshed to the slot's current value and desired keeps its
// own reference. CompareAndSwapWeak may fail spuriously even when the
// control block has not changed — this is what makes it unsuitable on its
// own for CompareAndSwapStrong, which loops on top of it with an ABA check.
func (a *AtomicSharedPtr[T]) CompareAndSwapWeak(expected **SharedPtr[T], desired *SharedPtr[T]) bool {
	expectedRef := (*expected).ref
	desiredRef := desired.ref

	if a.slot.CompareAndSwap(expectedRef, desiredRef) {
		if expectedRef != nil {
			expectedRef.base.decrementStrong(sharedEngine())
		}
		desired.ref = nil // ownership transferred into the slot
		return true
	}
	*expected = a.Load()
	return false
}

// CompareAndSwapStrong is CompareAndSwapWeak looped until either it
// succeeds or the slot's control block has genuinely changed — the ABA
// check a plain weak compare-exchange cannot provide.
func (a *AtomicSharedPtr[T]) CompareAndSwapStrong(expected **SharedPtr[T], desired *SharedPtr[T]) bool {
	before := (*expected).ref
	for {
		if a.CompareAndSwapWeak(expected, desired) {
			return true
		}
		if (*expected).ref != before {
			return false
		}
	}
}

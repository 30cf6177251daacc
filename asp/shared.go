// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp

// controlBlockRef is the immutable (payload pointer, control-block base)
// pair a SharedPtr/WeakPtr/AtomicSharedPtr slot actually holds. It never
// mutates after construction, so every clone of a handle can safely share
// the same *controlBlockRef pointer — which is what lets
// AtomicSharedPtr.CompareAndSwapWeak compare slot contents by pointer
// identity instead of by value.
type controlBlockRef[T any] struct {
	ptr  *T
	base *controlBlockBase
}

// SharedPtr is a strong-owning handle to a control block. The zero value is
// the empty shared pointer (Get returns nil).
//
// SharedPtr is not itself safe for concurrent use from multiple goroutines;
// share ownership by Clone-ing a handle per goroutine, or publish updates
// through an AtomicSharedPtr.
type SharedPtr[T any] struct {
	ref *controlBlockRef[T]
}

// NewSharedPtr constructs a SharedPtr owning val in-place, mirroring the
// source's ControlBlockInplace variant.
func NewSharedPtr[T any](val T) *SharedPtr[T] {
	cb := newControlBlock(val, nil)
	return &SharedPtr[T]{ref: &controlBlockRef[T]{ptr: &cb.val, base: &cb.controlBlockBase}}
}

// NewSharedPtrWithDeleter constructs a SharedPtr whose deleter runs when the
// strong count reaches zero, mirroring the source's ControlBlockWithDeleter
// variant — useful when zeroing T is not enough to release what it holds
// (e.g. closing a file descriptor held in T).
func NewSharedPtrWithDeleter[T any](val T, deleter func(*T)) *SharedPtr[T] {
	cb := newControlBlock(val, deleter)
	return &SharedPtr[T]{ref: &controlBlockRef[T]{ptr: &cb.val, base: &cb.controlBlockBase}}
}

// Empty returns the empty SharedPtr, equivalent to the zero value.
func Empty[T any]() *SharedPtr[T] {
	return &SharedPtr[T]{}
}

// Get returns a pointer to the managed object, or nil if sp is empty.
func (sp *SharedPtr[T]) Get() *T {
	if sp == nil || sp.ref == nil {
		return nil
	}
	return sp.ref.ptr
}

// UseCount returns the current strong reference count, or 0 if empty.
func (sp *SharedPtr[T]) UseCount() uint32 {
	if sp == nil || sp.ref == nil {
		return 0
	}
	return sp.ref.base.strong.Load()
}

// Clone returns a new handle sharing ownership of the same control block.
// Only the strong count moves — the weak side is the control block's own
// self-reference, released once when the strong count first hits zero, not
// once per strong handle.
func (sp *SharedPtr[T]) Clone() *SharedPtr[T] {
	if sp == nil || sp.ref == nil {
		return Empty[T]()
	}
	sp.ref.base.strong.IncrementIfNonZero(1)
	return &SharedPtr[T]{ref: sp.ref}
}

// Aliased returns a handle that shares sp's control block — and therefore
// its lifetime — but whose Get returns ptr instead of sp's own payload
// address. This is the aliasing constructor from §4.C, used to keep a
// sub-object of T alive via its owner's reference count.
func Aliased[T, U any](sp *SharedPtr[T], ptr *U) *SharedPtr[U] {
	if sp == nil || sp.ref == nil {
		return Empty[U]()
	}
	sp.ref.base.strong.IncrementIfNonZero(1)
	return &SharedPtr[U]{ref: &controlBlockRef[U]{ptr: ptr, base: sp.ref.base}}
}

// Drop releases sp's strong reference. Calling Drop more than once on the
// same handle is a programmer error — it double-releases the reference
// count — so handles should be dropped exactly once, typically via a defer
// right after construction or Load.
func (sp *SharedPtr[T]) Drop() {
	if sp == nil || sp.ref == nil {
		return
	}
	sp.ref.base.decrementStrong(sharedEngine())
	sp.ref = nil
}

// releaseInternals hands sp's controlBlockRef to the caller (an
// AtomicSharedPtr store/exchange/compare-exchange path) and clears sp so the
// reference is not also dropped when sp goes out of scope.
func (sp *SharedPtr[T]) releaseInternals() *controlBlockRef[T] {
	ref := sp.ref
	sp.ref = nil
	return ref
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package asp implements an atomic, lock-free, wait-free-load shared
// pointer: an atomic slot holding shared ownership of a control block,
// reclaimed through a hazard-pointer engine so that a concurrent Load never
// blocks and never observes a freed block.
package asp

import (
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/concur/hazard"
	"code.hybscloud.com/concur/refcount"
)

// controlBlockBase carries the reference counts shared by every control
// block shape. It collapses the source's inplace / boxed-with-deleter /
// boxed-with-allocator hierarchy into one non-generic base plus a type
// parameterized payload holder (controlBlock[T]) per the §9 re-architecture
// guidance to dispatch by tag rather than by virtual call — here the "tag"
// is simply whether disposer is nil.
type controlBlockBase struct {
	strong   *refcount.Counter
	weak     atomix.Uint32
	disposer func()
	retire   func(e *hazard.Engine)
}

func (b *controlBlockBase) dispose() {
	if b.disposer != nil {
		b.disposer()
	}
}

func (b *controlBlockBase) incrementWeak() {
	b.weak.AddAcqRel(1)
}

func (b *controlBlockBase) decrementWeak(e *hazard.Engine) {
	if b.weak.AddAcqRel(^uint32(0)) != 0 {
		return
	}
	// Weak count hit zero: the block is retired through the hazard engine
	// rather than freed immediately, so any in-flight Load that already
	// published a hazard pointer to it still observes a valid object.
	b.retire(e)
}

func (b *controlBlockBase) decrementStrong(e *hazard.Engine) {
	if b.strong.Decrement(1) {
		b.dispose()
		b.decrementWeak(e)
	}
}

// controlBlock is the concrete, type-parameterized control block: the base
// plus the inplace payload. Aliased handles (see shared.go's Aliased) share
// a base without sharing a controlBlock[T] of their own element type.
type controlBlock[T any] struct {
	controlBlockBase
	val T
}

func newControlBlock[T any](val T, disposer func(*T)) *controlBlock[T] {
	cb := &controlBlock[T]{val: val}
	cb.strong = refcount.New(1)
	cb.weak.StoreRelaxed(1)
	if disposer != nil {
		cb.disposer = func() { disposer(&cb.val) }
	}
	cb.retire = func(e *hazard.Engine) {
		s := e.Acquire()
		defer e.ReleaseSlot(s)
		e.Retire(s, uintptr(unsafe.Pointer(cb)), cb)
	}
	return cb
}

// Destroy satisfies hazard.Retirable. The control block's Go memory is
// reclaimed by the garbage collector as usual — there is no manual free —
// so Destroy exists only to complete the retirement handshake the hazard
// engine expects; dispose() (run when the strong count hits zero) is where
// user-visible cleanup actually happens.
func (cb *controlBlock[T]) Destroy() {}

// sharedEngine is the process-wide hazard engine every AtomicSharedPtr[T]
// uses, lazily initialized on first use per §9's "process-wide state with
// lazy first-access initialization" guidance for the source's global
// hazard-pointer list singleton.
var (
	sharedEngineOnce sync.Once
	sharedEngineVal  *hazard.Engine
)

func sharedEngine() *hazard.Engine {
	sharedEngineOnce.Do(func() { sharedEngineVal = hazard.NewEngine() })
	return sharedEngineVal
}

// sharedSlotPool caches *hazard.Slot handles across Load/CompareAndSwapWeak
// calls instead of scanning the engine's slot list and flipping its in-use
// flag on every call. Go has no thread-exit hook to give a slot back at the
// point §4.A's "returned on thread exit" describes, so sync.Pool's per-P
// caching is the closest idiomatic stand-in: a goroutine usually gets the
// same slot back across consecutive calls on the same P, and a slot the
// pool drops under memory pressure is simply never released back to the
// engine, which is consistent with hazard slots being leaked by design
// rather than freed.
var sharedSlotPool = sync.Pool{
	New: func() any { return sharedEngine().Acquire() },
}

func acquirePooledSlot() *hazard.Slot {
	return sharedSlotPool.Get().(*hazard.Slot)
}

func releasePooledSlot(s *hazard.Slot) {
	s.Release()
	sharedSlotPool.Put(s)
}

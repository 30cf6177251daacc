// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hazard implements a hazard-pointer reclamation engine: one
// protected-pointer slot per goroutine, and a deferred-reclamation mechanism
// for retired objects that drains once no slot protects them anymore.
//
// Exactly one protected pointer per goroutine is handed out, which is
// sufficient for code.hybscloud.com/concur/asp and bounds unreclaimed memory
// to O(P²) where P is the number of goroutines that have ever called Protect.
package hazard

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// deamortizedBatch is the number of retired candidates a deamortized retire
// call processes once the engine is switched into deamortized mode. This is
// a tuning knob, not part of the reclamation contract.
const deamortizedBatch = 2

// amortizedThreshold is the per-slot retired-count at which an amortized
// retire triggers a full cleanup pass.
const amortizedThreshold = 2000

// Retirable is anything the engine can defer-destroy.
type Retirable interface {
	// Destroy is called exactly once, after the engine has established that
	// no slot protects this object anymore.
	Destroy()
}

// retiredEntry is the intrusive retired-list node. The list is singly linked
// through this field rather than through a field on the retired object
// itself, since Retirable implementations in Go are ordinary heap values of
// arbitrary shape rather than a fixed control-block layout.
type retiredEntry struct {
	ptr  unsafePtr
	obj  Retirable
	next *retiredEntry
}

// unsafePtr is the address a slot protects, compared by identity only.
type unsafePtr = uintptr

// Slot is a single goroutine's protected-pointer publication point plus its
// thread-local retired list. Slots are never freed — only handed back to the
// engine by an explicit ReleaseSlot call and then reused by the next
// goroutine that acquires a slot.
type Slot struct {
	protected atomic.Uintptr // the address this slot currently protects, 0 if none
	inUse     atomix.Bool
	next      atomic.Pointer[Slot] // engine-wide slot list link

	retiredHead *retiredEntry
	retiredTail *retiredEntry
	retiredN    int

	deamortizedCursor *retiredEntry

	protectedSet map[unsafePtr]struct{} // cleanup scratch set, reused across calls
}

// Engine owns the process-wide, monotonically growing list of slots and the
// deamortized-mode flag. The zero value is ready to use.
type Engine struct {
	head        atomic.Pointer[Slot]
	deamortized atomix.Bool
}

// NewEngine creates an empty hazard-pointer engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Acquire hands out a Slot for exclusive use by the caller until Release is
// called. Callers typically keep one Slot per goroutine in goroutine-local
// storage (e.g. a *Slot stored in a struct owned by that goroutine); Acquire
// itself is safe to call from any goroutine.
//
// Acquire never blocks. If no free slot exists it allocates one and appends
// it to the engine-wide list — allocation failure here is fatal, matching
// the source's "the list grows monotonically and leaks by design."
func (e *Engine) Acquire() *Slot {
	for s := e.head.Load(); s != nil; s = s.next.Load() {
		if s.inUse.LoadAcquire() {
			continue
		}
		if s.inUse.CompareAndSwapAcqRel(false, true) {
			s.protected.Store(0)
			return s
		}
	}
	s := &Slot{protectedSet: make(map[unsafePtr]struct{})}
	s.inUse.StoreRelease(true)
	for {
		head := e.head.Load()
		s.next.Store(head)
		if e.head.CompareAndSwap(head, s) {
			return s
		}
	}
}

// ReleaseSlot returns a slot to the engine's free list. It does not touch
// the slot's retired list: retired objects already queued on this slot stay
// there until a future cleanup reclaims them, even across reuse by another
// goroutine.
func (e *Engine) ReleaseSlot(s *Slot) {
	s.protected.Store(0)
	s.inUse.StoreRelease(false)
}

// Protect publishes src's current value into s and returns it, looping until
// the published value and a fresh read of src agree. This is the read,
// publish, re-read sequence from the hazard-pointer protocol: the light
// fence pairs with the writer's heavy fence in Retire's cleanup pass.
func Protect[T any](s *Slot, src *atomic.Pointer[T]) *T {
	sw := spin.Wait{}
	for {
		p := src.Load()
		s.protected.Store(uintptr(ptrOf(p)))
		lightFence()
		keepAlive(p)
		p2 := src.Load()
		if ptrOf(p) == ptrOf(p2) {
			return p
		}
		sw.Once()
	}
}

// Release clears the slot's protected pointer with release semantics,
// letting a subsequent cleanup pass reclaim anything it was the last
// protector of.
func (s *Slot) Release() {
	s.protected.Store(0)
}

// Retire appends obj (addressed at ptr) to s's thread-local retired list. In
// amortized mode (the default), once the per-slot retired count since the
// last cleanup reaches amortizedThreshold, Retire runs a full Cleanup. In
// deamortized mode, Retire instead processes at most deamortizedBatch
// already-retired candidates round-robin, tightening worst-case latency at
// the cost of slower overall reclamation.
func (e *Engine) Retire(s *Slot, ptr uintptr, obj Retirable) {
	entry := &retiredEntry{ptr: ptr, obj: obj}
	if s.retiredTail != nil {
		s.retiredTail.next = entry
	} else {
		s.retiredHead = entry
	}
	s.retiredTail = entry
	s.retiredN++

	if e.deamortized.LoadAcquire() {
		e.deamortizedStep(s)
		return
	}
	if s.retiredN >= amortizedThreshold {
		e.Cleanup(s)
	}
}

// EnableDeamortizedReclamation switches the engine into round-robin
// reclamation mode, where each Retire call advances reclamation by a fixed
// small batch instead of running one large Cleanup at the threshold.
func (e *Engine) EnableDeamortizedReclamation() {
	e.deamortized.StoreRelease(true)
}

func (e *Engine) deamortizedStep(s *Slot) {
	for i := 0; i < deamortizedBatch; i++ {
		if s.deamortizedCursor == nil {
			if s.retiredN < amortizedThreshold {
				return
			}
			e.scanProtected(s)
			s.deamortizedCursor = s.retiredHead
		}
		e.tryReclaimOne(s)
	}
}

func (e *Engine) tryReclaimOne(s *Slot) {
	cur := s.deamortizedCursor
	if cur == nil {
		return
	}
	s.deamortizedCursor = cur.next
	if _, protected := s.protectedSet[cur.ptr]; !protected {
		cur.obj.Destroy()
		e.unlink(s, cur)
	}
}

// Cleanup issues the heavy asymmetric fence, collects every slot's currently
// protected pointer, and destroys every retired object on s that is absent
// from that set. Surviving retired entries are kept for a future pass.
func (e *Engine) Cleanup(s *Slot) {
	heavyFence()
	e.scanProtected(s)

	var kept *retiredEntry
	var keptTail *retiredEntry
	keptN := 0
	for entry := s.retiredHead; entry != nil; {
		next := entry.next
		if _, protected := s.protectedSet[entry.ptr]; protected {
			entry.next = nil
			if keptTail != nil {
				keptTail.next = entry
			} else {
				kept = entry
			}
			keptTail = entry
			keptN++
		} else {
			entry.obj.Destroy()
		}
		entry = next
	}
	s.retiredHead, s.retiredTail, s.retiredN = kept, keptTail, keptN
	clear(s.protectedSet)
}

func (e *Engine) scanProtected(s *Slot) {
	clear(s.protectedSet)
	for cur := e.head.Load(); cur != nil; cur = cur.next.Load() {
		if p := cur.protected.Load(); p != 0 {
			s.protectedSet[p] = struct{}{}
		}
	}
}

func (e *Engine) unlink(s *Slot, target *retiredEntry) {
	if s.retiredHead == target {
		s.retiredHead = target.next
		if s.retiredTail == target {
			s.retiredTail = nil
		}
		s.retiredN--
		return
	}
	for cur := s.retiredHead; cur != nil; cur = cur.next {
		if cur.next == target {
			cur.next = target.next
			if s.retiredTail == target {
				s.retiredTail = cur
			}
			s.retiredN--
			return
		}
	}
}

func ptrOf[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

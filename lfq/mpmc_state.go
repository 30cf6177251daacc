// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Slot states for MPMCState's EMPTY -> STORING -> STORED -> LOADING -> EMPTY
// per-slot protocol. atomix has no single-byte atomic type, so the state is
// kept in a word-sized atomix.Int32, matching the rest of lfq's preference
// for word-sized atomics over byte atomics.
const (
	stateEmpty int32 = iota
	stateStoring
	stateStored
	stateLoading
)

type mpmcStateSlot[T any] struct {
	state atomix.Int32
	data  T
	_     padShort
}

// MPMCState is the state-byte-plus-element variant of the bounded MPMC
// queue, for element types that cannot reserve a sentinel value (MPMC
// needs none either; it guards each slot with a cycle number where
// MPMCState uses an explicit state word). Producers own
// EMPTY->STORING->STORED; consumers own STORED->LOADING->EMPTY.
//
// TotalOrder adds a seq_cst fence right after the same acq_rel
// index-advance CAS, giving a single global FIFO order across all
// observers instead of FIFO only per producer/consumer pair.
type MPMCState[T any] struct {
	_          pad
	tail       atomix.Uint64
	_          pad
	head       atomix.Uint64
	_          pad
	buffer     []mpmcStateSlot[T]
	mask       uint64
	capacity   uint64
	TotalOrder bool
	_          pad
	fenceWord  atomix.Uint64 // seq-cst round trip for TotalOrder mode
}

// NewMPMCState creates a state-byte MPMC queue. Capacity rounds up to the
// next power of two.
func NewMPMCState[T any](capacity int) *MPMCState[T] {
	if capacity < 2 {
		panic("lfq: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &MPMCState[T]{
		buffer:   make([]mpmcStateSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
}

// fenceSeqCst is a portable sequentially-consistent fence built from an
// atomic round trip on a dedicated word, the same fallback shape
// hazard/fence_other.go uses for platforms with no cheaper primitive.
// TotalOrder mode pays this on every index advance in exchange for a single
// global push/pop order instead of per-pair FIFO only.
func (q *MPMCState[T]) fenceSeqCst() {
	q.fenceWord.AddAcqRel(1)
}

func (q *MPMCState[T]) advanceTail(tail uint64) bool {
	ok := q.tail.CompareAndSwapAcqRel(tail, tail+1)
	if q.TotalOrder {
		q.fenceSeqCst()
	}
	return ok
}

func (q *MPMCState[T]) advanceHead(head uint64) bool {
	ok := q.head.CompareAndSwapAcqRel(head, head+1)
	if q.TotalOrder {
		q.fenceSeqCst()
	}
	return ok
}

// TryEnqueue attempts to add an element without waiting. Returns
// ErrWouldBlock if the queue is full.
func (q *MPMCState[T]) TryEnqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
		if tail-head >= q.capacity {
			return ErrWouldBlock
		}
		slot := &q.buffer[tail&q.mask]
		if slot.state.LoadAcquire() != stateEmpty {
			sw.Once()
			continue
		}
		if !q.advanceTail(tail) {
			sw.Once()
			continue
		}
		if !slot.state.CompareAndSwapAcqRel(stateEmpty, stateStoring) {
			// Lost the per-slot race to another producer that reserved this
			// index before us; the index advance above is still valid since
			// each producer gets a distinct tail value to retry from.
			sw.Once()
			continue
		}
		slot.data = *elem
		slot.state.StoreRelease(stateStored)
		return nil
	}
}

// TryDequeue attempts to remove an element without waiting. Returns
// (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPMCState[T]) TryDequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()
		if head >= tail {
			var zero T
			return zero, ErrWouldBlock
		}
		slot := &q.buffer[head&q.mask]
		if slot.state.LoadAcquire() != stateStored {
			sw.Once()
			continue
		}
		if !q.advanceHead(head) {
			sw.Once()
			continue
		}
		if !slot.state.CompareAndSwapAcqRel(stateStored, stateLoading) {
			sw.Once()
			continue
		}
		elem := slot.data
		var zero T
		slot.data = zero
		slot.state.StoreRelease(stateEmpty)
		return elem, nil
	}
}

// Enqueue blocks (bounded-wait, spinning) until a slot is available. It is
// total in the sense of §4.D's push: it expects a matching Dequeue to make
// progress, so it is not itself globally lock-free under sustained
// backpressure.
func (q *MPMCState[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		if err := q.TryEnqueue(elem); err == nil {
			return nil
		}
		sw.Once()
	}
}

// Dequeue blocks (bounded-wait, spinning) until an element is available.
func (q *MPMCState[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		v, err := q.TryDequeue()
		if err == nil {
			return v, nil
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCState[T]) Cap() int { return int(q.capacity) }

// WasEmpty is an advisory, relaxed-ordering snapshot: true if the queue
// appeared empty at the moment of the call.
func (q *MPMCState[T]) WasEmpty() bool {
	return q.head.LoadRelaxed() >= q.tail.LoadRelaxed()
}

// WasFull is an advisory, relaxed-ordering snapshot.
func (q *MPMCState[T]) WasFull() bool {
	return q.tail.LoadRelaxed()-q.head.LoadRelaxed() >= q.capacity
}

// WasSize is an advisory, relaxed-ordering snapshot of the element count.
func (q *MPMCState[T]) WasSize() int {
	tail := q.tail.LoadRelaxed()
	head := q.head.LoadRelaxed()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

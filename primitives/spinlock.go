// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package primitives collects standalone synchronization building blocks:
// a spinlock, a seqlock, a barrier, and a wait-group, ported from godby's Spinlock.h,
// Seqlock.h, and Barrier.h.
package primitives

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SpinLock is a compare-exchange-based mutual exclusion lock that busy-waits
// instead of parking, ported from godby::Spinlock. Zero value is unlocked.
type SpinLock struct {
	locked atomix.Bool
}

// Lock blocks, spinning with PAUSE/YIELD backoff, until the lock is
// acquired.
func (l *SpinLock) Lock() {
	sw := spin.Wait{}
	for !l.locked.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}

// TryLock attempts to acquire the lock without waiting.
func (l *SpinLock) TryLock() bool {
	return l.locked.CompareAndSwapAcqRel(false, true)
}

// Unlock releases the lock. Unlocking an already-unlocked SpinLock is a
// programmer error.
func (l *SpinLock) Unlock() {
	l.locked.StoreRelease(false)
}

// Guard acquires l on construction and releases it on Release, covering
// every exit path including early return and panic — the scoped-acquisition
// pattern from §9's re-architecture guidance for RAII spinlock guards.
//
// Example:
//
//	g := primitives.Acquire(&lock)
//	defer g.Release()
type Guard struct {
	l *SpinLock
}

// Acquire locks l and returns a Guard that releases it.
func Acquire(l *SpinLock) Guard {
	l.Lock()
	return Guard{l: l}
}

// Release unlocks the underlying SpinLock. Calling Release more than once
// is a programmer error, matching Unlock's own contract.
func (g Guard) Release() {
	g.l.Unlock()
}

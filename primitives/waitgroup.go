// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package primitives

import "sync"

// WaitGroup is a counter guarded by a condition variable: Done wakes waiters
// once the counter reaches zero, and Wait blocks until it does, per §4.G's
// description of the wait-group as the one OS-blocking primitive in this
// package rather than a spinning one.
type WaitGroup struct {
	mu      sync.Mutex
	cond    *sync.Cond
	counter int
}

// NewWaitGroup returns a WaitGroup ready to use.
func NewWaitGroup() *WaitGroup {
	wg := &WaitGroup{}
	wg.cond = sync.NewCond(&wg.mu)
	return wg
}

// Add adds delta, which may be negative, to the counter. Add with a positive
// delta must happen before the corresponding Wait returns, matching
// sync.WaitGroup's own contract.
func (wg *WaitGroup) Add(delta int) {
	wg.mu.Lock()
	wg.counter += delta
	if wg.counter < 0 {
		wg.mu.Unlock()
		panic("primitives: negative WaitGroup counter")
	}
	if wg.counter == 0 {
		wg.cond.Broadcast()
	}
	wg.mu.Unlock()
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait blocks until the counter is zero.
func (wg *WaitGroup) Wait() {
	wg.mu.Lock()
	for wg.counter > 0 {
		wg.cond.Wait()
	}
	wg.mu.Unlock()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package primitives

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Barrier is a reusable cooperative rendezvous point for a fixed number of
// participants, ported from godby::Barrier. Each arrival decrements the
// counter and spins until it reaches zero; Release lets a coordinator reset
// the counter for the next round.
type Barrier struct {
	counter atomix.Int32
}

// NewBarrier returns a Barrier armed for n participants.
func NewBarrier(n int32) *Barrier {
	b := &Barrier{}
	b.counter.StoreRelaxed(n)
	return b
}

// Wait decrements the counter and blocks until every participant has
// arrived.
func (b *Barrier) Wait() {
	b.counter.AddAcqRel(-1)
	sw := spin.Wait{}
	for b.counter.LoadAcquire() > 0 {
		sw.Once()
	}
}

// Release spins until the counter has reached zero — confirming every
// participant has arrived; it does not wait for participants to leave their
// own Wait spin — then rearms the barrier for expectedCounter participants.
func (b *Barrier) Release(expectedCounter int32) {
	sw := spin.Wait{}
	for b.counter.LoadAcquire() != 0 {
		sw.Once()
	}
	b.counter.StoreRelease(expectedCounter)
}

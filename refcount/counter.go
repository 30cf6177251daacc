// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package refcount implements a wait-free reference counter with the
// property that an increment from zero fails rather than resurrects the
// counted object.
package refcount

import "code.hybscloud.com/atomix"

const (
	zeroFlag        uint32 = 1 << 31
	zeroPendingFlag uint32 = 1 << 30
	// MaxValue is the largest representable count.
	MaxValue uint32 = zeroPendingFlag - 1
)

// Counter is a 32-bit wait-free reference counter. The top two bits are
// reserved: one zero flag and one zero-pending flag. Once the zero flag is
// observed, the counter can never be incremented again.
//
// The zero value is not ready to use; construct with New.
type Counter struct {
	x atomix.Uint32
}

// New creates a Counter initialized to desired.
func New(desired uint32) *Counter {
	c := &Counter{}
	c.x.StoreRelaxed(desired)
	return c
}

// Load returns the current count, or 0 if the counter has reached zero.
func (c *Counter) Load() uint32 {
	val := c.x.LoadAcquire()
	if val == 0 {
		if c.x.CompareAndSwapAcqRel(val, zeroFlag|zeroPendingFlag) {
			return 0
		}
		val = c.x.LoadAcquire()
	}
	if val&zeroFlag != 0 {
		return 0
	}
	return val
}

// IncrementIfNonZero adds arg to the counter. It reports whether the
// increment took effect — it fails if the counter had already reached zero,
// without ever resurrecting it.
func (c *Counter) IncrementIfNonZero(arg uint32) bool {
	val := c.x.AddAcqRel(arg) - arg
	return val&zeroFlag == 0
}

// Decrement subtracts arg from the counter. It reports whether this call was
// the one responsible for bringing the counter to zero; at most one caller
// across all concurrent decrements ever observes true for a given counter.
func (c *Counter) Decrement(arg uint32) bool {
	neg := ^arg + 1 // two's complement negation, since atomix has no signed fetch-sub
	if c.x.AddAcqRel(neg)+arg != arg {
		return false
	}
	var expected uint32 = 0
	if c.x.CompareAndSwapAcqRel(expected, zeroFlag) {
		return true
	}
	expected = c.x.LoadAcquire()
	if expected&zeroPendingFlag == 0 {
		return false
	}
	// Emulate exchange(zero_flag) with a CAS loop: the pending bit is only
	// ever set by Load below the zero flag's birth, so this converges fast.
	for {
		prev := expected
		if c.x.CompareAndSwapAcqRel(prev, zeroFlag) {
			return prev&zeroPendingFlag != 0
		}
		expected = c.x.LoadAcquire()
	}
}

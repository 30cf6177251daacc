// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp

import "errors"

// ErrExpired is returned when upgrading a WeakPtr whose underlying object
// has already had its strong count reach zero. The "lock" form (Lock)
// instead reports expiry through ok=false per §4.C, so ErrExpired itself is
// a plain sentinel rather than one of the iox-classified control-flow
// errors — there is nothing for a caller to retry here.
var ErrExpired = errors.New("asp: weak pointer expired")

// WeakPtr is a non-owning handle that observes a control block without
// keeping its payload alive. The zero value is an expired weak pointer.
type WeakPtr[T any] struct {
	ref *controlBlockRef[T]
}

// Weak returns a new WeakPtr observing sp's control block. Weak increments
// the block's weak count, which must be balanced by exactly one Drop.
func (sp *SharedPtr[T]) Weak() *WeakPtr[T] {
	if sp == nil || sp.ref == nil {
		return &WeakPtr[T]{}
	}
	sp.ref.base.incrementWeak()
	return &WeakPtr[T]{ref: sp.ref}
}

// Lock attempts to upgrade wp to a strong SharedPtr. It reports ok=false,
// with an empty SharedPtr, if the strong count had already reached zero —
// this is the "lock" form from §4.C, which signals expiry through its
// return value rather than an error.
func (wp *WeakPtr[T]) Lock() (*SharedPtr[T], bool) {
	if wp == nil || wp.ref == nil {
		return Empty[T](), false
	}
	if !wp.ref.base.strong.IncrementIfNonZero(1) {
		return Empty[T](), false
	}
	return &SharedPtr[T]{ref: wp.ref}, true
}

// Get is the direct-construction form from §4.C: it returns (sp, nil) on a
// successful upgrade, or (nil, ErrExpired) if the control block's strong
// count has already reached zero.
func (wp *WeakPtr[T]) Get() (*SharedPtr[T], error) {
	sp, ok := wp.Lock()
	if !ok {
		return nil, ErrExpired
	}
	return sp, nil
}

// Drop releases wp's weak reference. Calling Drop more than once on the
// same handle is a programmer error.
func (wp *WeakPtr[T]) Drop() {
	if wp == nil || wp.ref == nil {
		return
	}
	wp.ref.base.decrementWeak(sharedEngine())
	wp.ref = nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp

import "sync/atomic"

// EnableSharedFromThis is embedded in a type T to let T obtain a SharedPtr
// to itself from inside one of its own methods, mirroring the source's
// enable_shared_from_this pattern. The weak-self reference is populated
// lazily, the first time a SharedPtr to the embedding value is constructed
// via NewSharedFromThis.
//
// The zero value has no self reference yet; calling SharedFromThis before
// any SharedPtr has been constructed over the embedding value returns
// (nil, false).
type EnableSharedFromThis[T any] struct {
	self atomic.Pointer[WeakPtr[T]]
}

// NewSharedFromThis constructs a SharedPtr owning val in-place, exactly
// like NewSharedPtr, and additionally populates embed's weak-self reference
// so that later calls to embed.SharedFromThis() can recover a SharedPtr
// sharing this same control block.
//
// T should be instantiated as a pointer type (e.g. SharedPtr[*Foo]) so that
// copying val into the control block preserves the identity of the object
// embed was taken from — embed must be the *EnableSharedFromThis[T] field
// reachable from *val itself, not a copy of it, or the self reference
// SharedFromThis later reads back will be stale.
func NewSharedFromThis[T any](val T, embed *EnableSharedFromThis[T]) *SharedPtr[T] {
	sp := NewSharedPtr(val)
	embed.self.Store(sp.Weak())
	return sp
}

// SharedFromThis returns a new strong handle sharing the control block
// populated by NewSharedFromThis. It returns (nil, false) if no SharedPtr has
// been constructed over the embedding value yet, and an empty SharedPtr with
// false if the object has since been fully destroyed.
func (e *EnableSharedFromThis[T]) SharedFromThis() (*SharedPtr[T], bool) {
	wp := e.self.Load()
	if wp == nil {
		return nil, false
	}
	return wp.Lock()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cmap implements a fixed-capacity, multi-level, open-addressed
// concurrent hash map using lock-free tagged-slot compare-and-exchange and
// reference-counted key/value cells, ported from godby::AtomicHashmap.
package cmap

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// DefaultLevels is the level count used when New is called without an
// explicit one, matching godby::AtomicHashmap's level_size default of 13.
const DefaultLevels = 13

// bucket holds one key slot and one value slot, each a pointer-sized atomic
// word per §3's "Bucket & Cell" data model. Slot pointers use
// sync/atomic.Pointer since atomix has no generic pointer atomic.
type bucket[K comparable, V any] struct {
	key   atomic.Pointer[cell[K]]
	value atomic.Pointer[cell[V]]
}

func (b *bucket[K, V]) isOccupied() bool {
	return b.key.Load() != nil
}

func (b *bucket[K, V]) isOccupiedBy(k K) bool {
	c := b.key.Load()
	return c != nil && c.val == k
}

// Map is a fixed-capacity concurrent hash map over an ordered tuple of
// prime-sized levels, per §4.F. Lookup/Set/Delete probe each level in turn;
// a key lands on the first level whose bucket admits it.
type Map[K comparable, V any] struct {
	buckets   []bucket[K, V]
	levelCap  []uint64
	levelBase []uint64
	capacity  uint64
	hash      func(K) uint64
}

// New creates a Map sized for expectedCapacity keys across levels levels
// (DefaultLevels if 0). Returns ErrLevelTooSmall if the sizing pass under-
// sizes a level — see sizeLevels and the §9 Open Question decision.
func New[K comparable, V any](expectedCapacity int, hash func(K) uint64, levels int) (*Map[K, V], error) {
	if levels <= 0 {
		levels = DefaultLevels
	}
	if expectedCapacity < 1 {
		expectedCapacity = 1
	}
	caps, total, err := sizeLevels(uint64(expectedCapacity), levels)
	if err != nil {
		return nil, err
	}

	base := make([]uint64, len(caps))
	var acc uint64
	for i, c := range caps {
		base[i] = acc
		acc += c
	}

	return &Map[K, V]{
		buckets:   make([]bucket[K, V], total),
		levelCap:  caps,
		levelBase: base,
		capacity:  total,
		hash:      hash,
	}, nil
}

// Capacity returns the total bucket count across every level.
func (m *Map[K, V]) Capacity() int { return int(m.capacity) }

func (m *Map[K, V]) lookupBucket(key K) *bucket[K, V] {
	h := m.hash(key)
	for i, cap := range m.levelCap {
		idx := m.levelBase[i] + h%cap
		b := &m.buckets[idx]
		if b.isOccupiedBy(key) {
			return b
		}
	}
	return nil
}

// Get returns an Accessor for key's current value, or an empty Accessor on
// a miss. The returned Accessor must be Released once the caller is done
// reading its Value.
func (m *Map[K, V]) Get(key K) Accessor[V] {
	b := m.lookupBucket(key)
	if b == nil {
		return Accessor[V]{}
	}
	return accessorFor(b.value.Load())
}

// Set inserts or updates key's value. Returns ErrProbeExhausted if no level
// admits key (every probed bucket is occupied by a different key), or
// ErrAllocFailed if a cell allocation failed.
func (m *Map[K, V]) Set(key K, value V) error {
	b, err := m.occupy(key)
	if err != nil {
		return err
	}
	vc := newCell(value)
	if vc == nil {
		return ErrAllocFailed
	}
	for {
		old := b.value.Load()
		if b.value.CompareAndSwap(old, vc) {
			if old != nil {
				old.release()
			}
			return nil
		}
	}
}

// occupy walks the probe sequence for key, CAS-installing a freshly
// allocated key cell into the first available bucket, ported from
// AtomicHashmap::Occupy. The key cell is allocated lazily — only once a
// candidate bucket is found — and discarded if no level ultimately admits
// the key. Each level reloads the bucket's current key cell immediately
// before its CAS and retries on a mismatch instead of reusing the value
// from an earlier availability check, so a concurrent insert of some other
// key into the same bucket can never be silently evicted by this one.
func (m *Map[K, V]) occupy(key K) (*bucket[K, V], error) {
	h := m.hash(key)
	var kc *cell[K]
	for i, capacity := range m.levelCap {
		idx := m.levelBase[i] + h%capacity
		b := &m.buckets[idx]

		sw := spin.Wait{}
		for {
			old := b.key.Load()
			if old != nil && old.val != key {
				break // occupied by a different key; move to the next level
			}
			if kc == nil {
				kc = newCell(key)
				if kc == nil {
					return nil, ErrAllocFailed
				}
			}
			if !b.key.CompareAndSwap(old, kc) {
				// Another goroutine changed this bucket's key slot between
				// our availability read and the CAS; re-read and decide
				// again instead of CASing out whatever is there now.
				sw.Once()
				continue
			}
			if old != nil {
				old.release()
			}
			return b, nil
		}
	}
	return nil, ErrProbeExhausted
}

// Delete removes every bucket occupied by key across all levels, swapping
// both slots to nil and releasing the previous cells. Always reports
// success, per §4.F.
func (m *Map[K, V]) Delete(key K) error {
	m.walkKeyBuckets(key, func(b *bucket[K, V]) {
		if kc := b.key.Swap(nil); kc != nil {
			kc.release()
		}
		if vc := b.value.Swap(nil); vc != nil {
			vc.release()
		}
	})
	return nil
}

// WalkAll invokes fn for every occupied key in the map, passing accessors
// the callback must Release. Iteration order is bucket order, not insertion
// order.
func (m *Map[K, V]) WalkAll(fn func(key Accessor[K], value Accessor[V])) {
	for i := range m.buckets {
		b := &m.buckets[i]
		if !b.isOccupied() {
			continue
		}
		ka := accessorFor(b.key.Load())
		if !ka.Ok() {
			continue
		}
		va := accessorFor(b.value.Load())
		fn(ka, va)
		ka.Release()
		va.Release()
	}
}

// WalkKey invokes fn for every bucket occupied by key, passing accessors
// the callback must Release. Normally at most one bucket matches a given
// key, but every level is scanned in case a stale duplicate survived a
// racing Set.
func (m *Map[K, V]) WalkKey(key K, fn func(key Accessor[K], value Accessor[V])) {
	m.walkKeyBuckets(key, func(b *bucket[K, V]) {
		ka := accessorFor(b.key.Load())
		if !ka.Ok() {
			return
		}
		va := accessorFor(b.value.Load())
		fn(ka, va)
		ka.Release()
		va.Release()
	})
}

// walkKeyBuckets is the internal bucket-level walk Delete and WalkKey share.
func (m *Map[K, V]) walkKeyBuckets(key K, fn func(b *bucket[K, V])) {
	for i := range m.buckets {
		b := &m.buckets[i]
		if b.isOccupiedBy(key) {
			fn(b)
		}
	}
}

// Cleanup releases every occupied bucket's cells, resetting the map to
// empty, modeled on AtomicHashmap::Cleanup.
func (m *Map[K, V]) Cleanup() {
	for i := range m.buckets {
		b := &m.buckets[i]
		if kc := b.key.Swap(nil); kc != nil {
			kc.release()
		}
		if vc := b.value.Swap(nil); vc != nil {
			vc.release()
		}
	}
}

// Iterator walks occupied buckets in bucket order. The zero value is not
// ready to use; obtain one through Map.Iterate.
type Iterator[K comparable, V any] struct {
	m   *Map[K, V]
	pos int
}

// Iterate returns an Iterator positioned before the first occupied bucket.
func (m *Map[K, V]) Iterate() *Iterator[K, V] {
	return &Iterator[K, V]{m: m, pos: -1}
}

// Next advances the iterator to the next occupied bucket and reports
// whether one was found.
func (it *Iterator[K, V]) Next() bool {
	for it.pos++; it.pos < len(it.m.buckets); it.pos++ {
		if it.m.buckets[it.pos].isOccupied() {
			return true
		}
	}
	return false
}

// Key returns an Accessor for the current bucket's key. Only valid after a
// Next call that returned true.
func (it *Iterator[K, V]) Key() Accessor[K] {
	return accessorFor(it.m.buckets[it.pos].key.Load())
}

// Value returns an Accessor for the current bucket's value. Only valid
// after a Next call that returned true.
func (it *Iterator[K, V]) Value() Accessor[V] {
	return accessorFor(it.m.buckets[it.pos].value.Load())
}

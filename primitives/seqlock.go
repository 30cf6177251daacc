// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package primitives

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SeqLock is a single-writer, multi-reader sequence lock ported from
// godby::Seqlock<T>. Readers never block a writer and retry instead of
// spinning on a lock word; the single writer marks an update in progress by
// making seq odd and marks it finished by making seq even again.
// The zero value is a usable SeqLock wrapping the zero value of T.
type SeqLock[T any] struct {
	seq   atomix.Uint64
	value T
	pad   [64 - 8]byte
}

// Load returns a consistent snapshot of the guarded value, retrying while a
// writer is in progress (odd seq) or while the value changed mid-read.
func (l *SeqLock[T]) Load() T {
	sw := spin.Wait{}
	for {
		s1 := l.seq.LoadAcquire()
		if s1&1 != 0 {
			sw.Once()
			continue
		}
		v := l.value
		s2 := l.seq.LoadAcquire()
		if s1 == s2 {
			return v
		}
		sw.Once()
	}
}

// Store replaces the guarded value. Must not be called concurrently with
// another Store — SeqLock allows only a single writer at a time.
func (l *SeqLock[T]) Store(desired T) {
	s := l.seq.LoadRelaxed()
	l.seq.StoreRelease(s + 1)
	l.value = desired
	l.seq.StoreRelease(s + 2)
}

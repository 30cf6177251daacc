// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/concur/asp"
)

func TestAtomicSharedPtrStoreThenLoad(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(42))

	loaded := a.Load()
	if got := *loaded.Get(); got != 42 {
		t.Fatalf("Load() = %d, want 42", got)
	}
	loaded.Drop()
}

func TestAtomicSharedPtrLoadOnEmptySlot(t *testing.T) {
	var a asp.AtomicSharedPtr[int]

	loaded := a.Load()
	if loaded.Get() != nil {
		t.Fatal("Load() on an empty slot should return an empty SharedPtr")
	}
}

func TestAtomicSharedPtrStoreReleasesPrevious(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(1))
	first := a.Load()
	first.Drop()

	a.Store(asp.NewSharedPtr(2))

	second := a.Load()
	if got := *second.Get(); got != 2 {
		t.Fatalf("Load() after Store = %d, want 2", got)
	}
	second.Drop()
}

func TestAtomicSharedPtrExchangeReturnsPrevious(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(1))

	old := a.Exchange(asp.NewSharedPtr(2))
	if got := *old.Get(); got != 1 {
		t.Fatalf("Exchange() returned %d, want 1", got)
	}
	old.Drop()

	loaded := a.Load()
	if got := *loaded.Get(); got != 2 {
		t.Fatalf("Load() after Exchange = %d, want 2", got)
	}
	loaded.Drop()
}

func TestAtomicSharedPtrCompareAndSwapWeakSuccessAndFailure(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(1))

	expected := a.Load()
	desired := asp.NewSharedPtr(2)
	if !a.CompareAndSwapWeak(&expected, desired) {
		t.Fatal("CompareAndSwapWeak should succeed when expected matches the slot")
	}
	expected.Drop()

	loaded := a.Load()
	if got := *loaded.Get(); got != 2 {
		t.Fatalf("Load() after successful CAS = %d, want 2", got)
	}
	loaded.Drop()

	staleExpected := asp.NewSharedPtr(1)
	desired2 := asp.NewSharedPtr(3)
	if a.CompareAndSwapWeak(&staleExpected, desired2) {
		t.Fatal("CompareAndSwapWeak should fail against a stale expected handle")
	}
	// On failure the slot's current control block is returned through
	// expected, and desired2's reference is still owned by the caller.
	if got := *staleExpected.Get(); got != 2 {
		t.Fatalf("expected refreshed to %d, want 2", *staleExpected.Get())
	}
	staleExpected.Drop()
	desired2.Drop()
}

func TestAtomicSharedPtrCompareAndSwapStrong(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(1))

	expected := a.Load()
	if !a.CompareAndSwapStrong(&expected, asp.NewSharedPtr(2)) {
		t.Fatal("CompareAndSwapStrong should succeed when the slot has not changed")
	}
	expected.Drop()

	loaded := a.Load()
	if got := *loaded.Get(); got != 2 {
		t.Fatalf("Load() after CompareAndSwapStrong = %d, want 2", got)
	}
	loaded.Drop()
}

func TestAtomicSharedPtrConcurrentLoadStore(t *testing.T) {
	a := asp.NewAtomicSharedPtr(asp.NewSharedPtr(0))

	stop := make(chan struct{})
	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			a.Store(asp.NewSharedPtr(i))
		}
	}()

	var loadersWG sync.WaitGroup
	for i := 0; i < 8; i++ {
		loadersWG.Add(1)
		go func() {
			defer loadersWG.Done()
			for j := 0; j < 2000; j++ {
				loaded := a.Load()
				if loaded.Get() == nil {
					t.Error("Load() observed an empty slot, which should never happen once stored")
				}
				loaded.Drop()
			}
		}()
	}

	loadersWG.Wait()
	close(stop)
	writerWG.Wait()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"code.hybscloud.com/concur/hazard"
)

type obj struct {
	destroyed atomic.Bool
}

func (o *obj) Destroy() { o.destroyed.Store(true) }

func TestProtectReturnsCurrentValue(t *testing.T) {
	e := hazard.NewEngine()
	s := e.Acquire()
	defer e.ReleaseSlot(s)

	var src atomic.Pointer[obj]
	want := &obj{}
	src.Store(want)

	got := hazard.Protect(s, &src)
	if got != want {
		t.Fatalf("Protect returned %p, want %p", got, want)
	}
	s.Release()
}

func TestRetireSurvivesWhileProtected(t *testing.T) {
	e := hazard.NewEngine()
	reader := e.Acquire()
	defer e.ReleaseSlot(reader)

	var src atomic.Pointer[obj]
	o := &obj{}
	src.Store(o)

	protected := hazard.Protect(reader, &src)
	if protected != o {
		t.Fatal("protect must observe the live object")
	}

	writer := e.Acquire()
	defer e.ReleaseSlot(writer)

	e.Retire(writer, uintptr(protectedAddr(o)), o)
	e.Cleanup(writer)

	if o.destroyed.Load() {
		t.Fatal("retired object must not be destroyed while a slot protects it")
	}

	reader.Release()
	e.Cleanup(writer)

	if !o.destroyed.Load() {
		t.Fatal("retired object must be destroyed once no slot protects it")
	}
}

func TestAcquireReusesReleasedSlots(t *testing.T) {
	e := hazard.NewEngine()
	s1 := e.Acquire()
	e.ReleaseSlot(s1)
	s2 := e.Acquire()
	if s1 != s2 {
		t.Fatal("Acquire should reuse a released slot instead of growing the list")
	}
}

func TestConcurrentReadersWriters(t *testing.T) {
	e := hazard.NewEngine()
	var src atomic.Pointer[obj]
	src.Store(&obj{})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := e.Acquire()
			defer e.ReleaseSlot(s)
			for {
				select {
				case <-stop:
					return
				default:
				}
				p := hazard.Protect(s, &src)
				if p.destroyed.Load() {
					t.Error("dereferenced a destroyed object")
				}
				s.Release()
			}
		}()
	}

	writer := e.Acquire()
	defer e.ReleaseSlot(writer)
	for i := 0; i < 2000; i++ {
		next := &obj{}
		old := src.Swap(next)
		e.Retire(writer, uintptr(protectedAddr(old)), old)
	}
	close(stop)
	wg.Wait()
	e.Cleanup(writer)
}

func protectedAddr(o *obj) uintptr {
	return uintptr(unsafe.Pointer(o))
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"code.hybscloud.com/concur/lfq"
)

type ptrVariant struct {
	name      string
	new       func(capacity int) lfq.QueuePtr
	multiProd bool
	multiCons bool
}

var ptrVariants = []ptrVariant{
	{"MPMCPtr", func(c int) lfq.QueuePtr { return lfq.NewMPMCPtr(c) }, true, true},
	{"MPSCPtr", func(c int) lfq.QueuePtr { return lfq.NewMPSCPtr(c) }, true, false},
	{"SPMCPtr", func(c int) lfq.QueuePtr { return lfq.NewSPMCPtr(c) }, false, true},
	{"SPSCPtr", func(c int) lfq.QueuePtr { return lfq.NewSPSCPtr(c) }, false, false},
	{"MPMCPtrSeq", func(c int) lfq.QueuePtr { return lfq.NewMPMCPtrSeq(c) }, true, true},
	{"MPSCPtrSeq", func(c int) lfq.QueuePtr { return lfq.NewMPSCPtrSeq(c) }, true, false},
	{"SPMCPtrSeq", func(c int) lfq.QueuePtr { return lfq.NewSPMCPtrSeq(c) }, false, true},
}

// TestPtrVariantsRoundTrip enqueues pointers to distinct payload structs and
// checks every payload is seen exactly once and unmodified, matching the
// zero-copy handoff types.go documents for QueuePtr (producer enqueues,
// ownership transfers, consumer reads the same object back).
func TestPtrVariantsRoundTrip(t *testing.T) {
	type payload struct{ n int }
	for _, v := range ptrVariants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			q := v.new(8)
			sent := make([]*payload, q.Cap())
			for i := range sent {
				sent[i] = &payload{n: i}
				if err := q.Enqueue(unsafe.Pointer(sent[i])); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}
			seen := make(map[int]bool)
			for i := 0; i < q.Cap(); i++ {
				raw, err := q.Dequeue()
				if err != nil {
					t.Fatalf("Dequeue: %v", err)
				}
				p := (*payload)(raw)
				if seen[p.n] {
					t.Fatalf("payload %d observed twice", p.n)
				}
				seen[p.n] = true
			}
			if len(seen) != q.Cap() {
				t.Fatalf("saw %d distinct payloads, want %d", len(seen), q.Cap())
			}
		})
	}
}

func TestPtrVariantsEmptyAndFullReturnWouldBlock(t *testing.T) {
	type payload struct{ n int }
	for _, v := range ptrVariants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			q := v.new(4)
			if _, err := q.Dequeue(); !lfq.IsWouldBlock(err) {
				t.Fatalf("Dequeue on empty: err = %v, want ErrWouldBlock", err)
			}
			for i := 0; i < q.Cap(); i++ {
				if err := q.Enqueue(unsafe.Pointer(&payload{n: i})); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}
			if err := q.Enqueue(unsafe.Pointer(&payload{n: 999})); !lfq.IsWouldBlock(err) {
				t.Fatalf("Enqueue beyond capacity: err = %v, want ErrWouldBlock", err)
			}
		})
	}
}

func TestPtrVariantsConcurrentTraffic(t *testing.T) {
	type payload struct{ n int }
	const perProducer = 2000
	for _, v := range ptrVariants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			producers := 1
			consumers := 1
			if v.multiProd {
				producers = 4
			}
			if v.multiCons {
				consumers = 4
			}
			q := v.new(256)
			total := producers * perProducer

			var pwg sync.WaitGroup
			for p := 0; p < producers; p++ {
				pwg.Add(1)
				go func(base int) {
					defer pwg.Done()
					for i := 0; i < perProducer; i++ {
						pl := &payload{n: base*perProducer + i}
						for q.Enqueue(unsafe.Pointer(pl)) != nil {
						}
					}
				}(p)
			}

			results := make(chan int, total)
			var done atomic.Bool
			var cwg sync.WaitGroup
			for c := 0; c < consumers; c++ {
				cwg.Add(1)
				go func() {
					defer cwg.Done()
					for !done.Load() {
						if raw, err := q.Dequeue(); err == nil {
							results <- (*payload)(raw).n
						}
					}
				}()
			}

			pwg.Wait()

			collected := make(map[int]bool)
			for len(collected) < total {
				got := <-results
				if collected[got] {
					t.Fatalf("%s: value %d observed twice", v.name, got)
				}
				collected[got] = true
			}
			done.Store(true)
			if d, ok := q.(lfq.Drainer); ok {
				d.Drain()
			}
			cwg.Wait()

			if len(collected) != total {
				t.Fatalf("%s: collected %d distinct values, want %d", v.name, len(collected), total)
			}
		})
	}
}

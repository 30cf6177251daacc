// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/concur/lfq"
)

type indirectVariant struct {
	name      string
	new       func(capacity int) lfq.QueueIndirect
	multiProd bool
	multiCons bool
}

// indirectVariants covers every QueueIndirect constructor, including the
// 128-bit tagged-slot family (mpmc_128.go and friends) and the compact
// single-word family (mpmc_compact.go and friends). SPSCIndirect is
// exercised here too.
var indirectVariants = []indirectVariant{
	{"MPMCIndirect", func(c int) lfq.QueueIndirect { return lfq.NewMPMCIndirect(c) }, true, true},
	{"MPSCIndirect", func(c int) lfq.QueueIndirect { return lfq.NewMPSCIndirect(c) }, true, false},
	{"SPMCIndirect", func(c int) lfq.QueueIndirect { return lfq.NewSPMCIndirect(c) }, false, true},
	{"SPSCIndirect", func(c int) lfq.QueueIndirect { return lfq.NewSPSCIndirect(c) }, false, false},
	{"MPMCIndirectSeq", func(c int) lfq.QueueIndirect { return lfq.NewMPMCIndirectSeq(c) }, true, true},
	{"MPSCIndirectSeq", func(c int) lfq.QueueIndirect { return lfq.NewMPSCIndirectSeq(c) }, true, false},
	{"SPMCIndirectSeq", func(c int) lfq.QueueIndirect { return lfq.NewSPMCIndirectSeq(c) }, false, true},
	{"MPMCCompactIndirect", func(c int) lfq.QueueIndirect { return lfq.NewMPMCCompactIndirect(c) }, true, true},
	{"MPSCCompactIndirect", func(c int) lfq.QueueIndirect { return lfq.NewMPSCCompactIndirect(c) }, true, false},
	{"SPMCCompactIndirect", func(c int) lfq.QueueIndirect { return lfq.NewSPMCCompactIndirect(c) }, false, true},
}

func TestIndirectVariantsRoundTrip(t *testing.T) {
	for _, v := range indirectVariants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			q := v.new(8)
			for i := 0; i < q.Cap(); i++ {
				if err := q.Enqueue(uintptr(i)); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}
			seen := make(map[uintptr]bool)
			for i := 0; i < q.Cap(); i++ {
				got, err := q.Dequeue()
				if err != nil {
					t.Fatalf("Dequeue: %v", err)
				}
				if seen[got] {
					t.Fatalf("value %d observed twice", got)
				}
				seen[got] = true
			}
			if len(seen) != q.Cap() {
				t.Fatalf("saw %d distinct values, want %d", len(seen), q.Cap())
			}
		})
	}
}

func TestIndirectVariantsEmptyAndFullReturnWouldBlock(t *testing.T) {
	for _, v := range indirectVariants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			q := v.new(4)
			if _, err := q.Dequeue(); !lfq.IsWouldBlock(err) {
				t.Fatalf("Dequeue on empty: err = %v, want ErrWouldBlock", err)
			}
			for i := 0; i < q.Cap(); i++ {
				if err := q.Enqueue(uintptr(i)); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}
			if err := q.Enqueue(uintptr(999)); !lfq.IsWouldBlock(err) {
				t.Fatalf("Enqueue beyond capacity: err = %v, want ErrWouldBlock", err)
			}
		})
	}
}

// TestIndirectVariantsConcurrentTraffic mirrors
// TestQueueVariantsConcurrentTraffic for the uintptr-indexed family, which
// in practice backs buffer-pool free lists (see types.go's QueueIndirect
// doc example) rather than carrying payloads directly.
func TestIndirectVariantsConcurrentTraffic(t *testing.T) {
	const perProducer = 4000
	for _, v := range indirectVariants {
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
						for q.Enqueue(uintptr(base*perProducer+i)) != nil {
						}
					}
				}(p)
			}

			results := make(chan uintptr, total)
			var done atomic.Bool
			var cwg sync.WaitGroup
			for c := 0; c < consumers; c++ {
				cwg.Add(1)
				go func() {
					defer cwg.Done()
					for !done.Load() {
						if got, err := q.Dequeue(); err == nil {
							results <- got
						}
					}
				}()
			}

			pwg.Wait()

			collected := make(map[uintptr]bool)
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

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/concur/lfq"
)

func TestBuilderCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	q := lfq.BuildMPMC[int](lfq.New(1000))
	if q.Cap() != 1024 {
		t.Fatalf("Cap() = %d, want 1024", q.Cap())
	}
}

func TestBuilderNewPanicsBelowMinimumCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(1) did not panic")
		}
	}()
	lfq.New(1)
}

func TestBuildSelectsAlgorithmByConstraints(t *testing.T) {
	cases := []struct {
		name string
		opts func(*lfq.Builder) *lfq.Builder
		want string
	}{
		{"SPSC", func(b *lfq.Builder) *lfq.Builder { return b.SingleProducer().SingleConsumer() }, "*lfq.SPSC[int]"},
		{"SPMC", func(b *lfq.Builder) *lfq.Builder { return b.SingleProducer() }, "*lfq.SPMC[int]"},
		{"MPSC", func(b *lfq.Builder) *lfq.Builder { return b.SingleConsumer() }, "*lfq.MPSC[int]"},
		{"MPMC", func(b *lfq.Builder) *lfq.Builder { return b }, "*lfq.MPMC[int]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := c.opts(lfq.New(16))
			q := lfq.Build[int](b)
			if q == nil {
				t.Fatal("Build returned nil")
			}
			// Round-trip one element to confirm the returned Queue[int] is
			// actually wired to a working implementation, not just a
			// non-nil interface value.
			v := 7
			if err := q.Enqueue(&v); err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
			got, err := q.Dequeue()
			if err != nil || got != 7 {
				t.Fatalf("Dequeue() = (%d, %v), want (7, nil)", got, err)
			}
		})
	}
}

func TestBuildCompactSelectsSeqVariant(t *testing.T) {
	q := lfq.BuildMPMC[int](lfq.New(16).Compact())
	if _, ok := q.(*lfq.MPMCSeq[int]); !ok {
		t.Fatalf("BuildMPMC with Compact() returned %T, want *lfq.MPMCSeq[int]", q)
	}
}

func TestBuildSPSCPanicsWithoutBothConstraints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("BuildSPSC without SingleConsumer() did not panic")
		}
	}()
	lfq.BuildSPSC[int](lfq.New(16).SingleProducer())
}

func TestBuildMPMCPanicsWithConstraints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("BuildMPMC with SingleProducer() did not panic")
		}
	}()
	lfq.BuildMPMC[int](lfq.New(16).SingleProducer())
}

func TestBuildIndirectRoundTrip(t *testing.T) {
	q := lfq.New(16).BuildIndirect()
	if err := q.Enqueue(42); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got, err := q.Dequeue()
	if err != nil || got != 42 {
		t.Fatalf("Dequeue() = (%d, %v), want (42, nil)", got, err)
	}
}

func TestBuildIndirectCompactSelectsCompactVariant(t *testing.T) {
	q := lfq.New(16).Compact().BuildIndirect()
	if _, ok := q.(*lfq.MPMCCompactIndirect); !ok {
		t.Fatalf("BuildIndirect with Compact() returned %T, want *lfq.MPMCCompactIndirect", q)
	}
}

func TestBuildPtrRoundTrip(t *testing.T) {
	type payload struct{ n int }
	q := lfq.New(16).SingleProducer().SingleConsumer().BuildPtr()
	p := &payload{n: 5}
	if err := q.Enqueue(unsafe.Pointer(p)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if (*payload)(got).n != 5 {
		t.Fatalf("Dequeue() payload.n = %d, want 5", (*payload)(got).n)
	}
}

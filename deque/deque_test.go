// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package deque_test

import (
	"sort"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/concur/deque"
)

func TestPushPopRoundTrip(t *testing.T) {
	d := deque.New[int](4)
	d.Push(42)
	v, ok := d.Pop()
	if !ok || v != 42 {
		t.Fatalf("Pop() = (%d, %v), want (42, true)", v, ok)
	}
	if !d.Empty() {
		t.Fatal("deque should be empty after draining the only item")
	}
}

func TestPopEmptyReportsFalse(t *testing.T) {
	d := deque.New[int](4)
	d.Push(1)
	if _, ok := d.Pop(); !ok {
		t.Fatal("first Pop should succeed")
	}
	if _, ok := d.Pop(); ok {
		t.Fatal("Pop on an empty deque should report ok=false")
	}
}

func TestStealEmptyReportsFalse(t *testing.T) {
	d := deque.New[int](4)
	if _, ok := d.Steal(); ok {
		t.Fatal("Steal on an empty deque should report ok=false")
	}
}

func TestGrowthPreservesOrder(t *testing.T) {
	d := deque.New[int](2)
	const n = 200
	for i := 0; i < n; i++ {
		d.Push(i)
	}
	if d.Capacity() < n {
		t.Fatalf("Capacity() = %d, want >= %d after growth", d.Capacity(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := d.Pop()
		if !ok || v != n-1-i {
			t.Fatalf("Pop() #%d = (%d, %v), want (%d, true) — owner Pop is LIFO from bottom", i, v, ok, n-1-i)
		}
	}
}

// TestStealConvergence pushes a large run from the owner and lets many
// thieves race to steal concurrently with the owner's own Pop calls.
// No element should ever be observed twice, and the union of every Pop and
// every Steal must equal exactly the set the owner pushed.
func TestStealConvergence(t *testing.T) {
	const n = 10000
	const thieves = 12

	d := deque.New[int](16)
	for i := 0; i < n; i++ {
		d.Push(i)
	}

	var mu sync.Mutex
	var collected []int
	var wg sync.WaitGroup

	for i := 0; i < thieves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []int
			for !d.Empty() {
				if v, ok := d.Steal(); ok {
					local = append(local, v)
				}
			}
			mu.Lock()
			collected = append(collected, local...)
			mu.Unlock()
		}()
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		v, ok := d.Pop()
		if ok {
			mu.Lock()
			collected = append(collected, v)
			mu.Unlock()
			continue
		}
		if d.Empty() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out draining deque")
		}
	}
	wg.Wait()

	if len(collected) != n {
		t.Fatalf("collected %d items, want %d", len(collected), n)
	}
	sort.Ints(collected)
	for i, v := range collected {
		if v != i {
			t.Fatalf("collected set is not {0..%d}: at index %d got %d", n-1, i, v)
		}
	}
}

func TestConcurrentPushAndSteal(t *testing.T) {
	const n = 50000
	const thieves = 8

	d := deque.New[int](16)
	var produced atomix.Int64
	done := make(chan struct{})

	var mu sync.Mutex
	var stolen []int
	var wg sync.WaitGroup
	for i := 0; i < thieves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []int
			for {
				v, ok := d.Steal()
				if ok {
					local = append(local, v)
					continue
				}
				select {
				case <-done:
					mu.Lock()
					stolen = append(stolen, local...)
					mu.Unlock()
					return
				default:
				}
			}
		}()
	}

	var owned []int
	for i := 0; i < n; i++ {
		d.Push(i)
		produced.AddAcqRel(1)
		if i%7 == 0 {
			if v, ok := d.Pop(); ok {
				owned = append(owned, v)
			}
		}
	}
	for {
		v, ok := d.Pop()
		if !ok {
			break
		}
		owned = append(owned, v)
	}
	close(done)
	wg.Wait()

	total := append(owned, stolen...)
	if len(total) != n {
		t.Fatalf("total collected %d, want %d", len(total), n)
	}
	seen := make(map[int]bool, n)
	for _, v := range total {
		if seen[v] {
			t.Fatalf("element %d observed twice", v)
		}
		seen[v] = true
	}
}

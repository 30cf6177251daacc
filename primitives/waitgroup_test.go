// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package primitives_test

import (
	"sync/atomic"
	"testing"

	"code.hybscloud.com/concur/primitives"
)

func TestWaitGroupWaitsForAllDone(t *testing.T) {
	wg := primitives.NewWaitGroup()
	var done atomic.Int32

	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			done.Add(1)
			wg.Done()
		}()
	}
	wg.Wait()

	if got := done.Load(); got != n {
		t.Fatalf("done = %d, want %d", got, n)
	}
}

func TestWaitGroupNegativeCounterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative counter")
		}
	}()
	wg := primitives.NewWaitGroup()
	wg.Done()
}

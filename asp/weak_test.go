// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package asp_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/concur/asp"
)

func TestWeakPtrLockBeforeExpiry(t *testing.T) {
	sp := asp.NewSharedPtr(5)
	wp := sp.Weak()

	locked, ok := wp.Lock()
	if !ok {
		t.Fatal("Lock() on a live control block should succeed")
	}
	if got := *locked.Get(); got != 5 {
		t.Fatalf("Lock() Get() = %d, want 5", got)
	}
	if got := sp.UseCount(); got != 2 {
		t.Fatalf("UseCount() after Lock = %d, want 2", got)
	}

	locked.Drop()
	sp.Drop()
	wp.Drop()
}

func TestWeakPtrLockAfterExpiryReportsFalse(t *testing.T) {
	sp := asp.NewSharedPtr(9)
	wp := sp.Weak()

	sp.Drop()

	if _, ok := wp.Lock(); ok {
		t.Fatal("Lock() after the last strong handle dropped should report false")
	}

	wp.Drop()
}

func TestWeakPtrGetAfterExpiryReturnsErrExpired(t *testing.T) {
	sp := asp.NewSharedPtr(3)
	wp := sp.Weak()

	sp.Drop()

	_, err := wp.Get()
	if !errors.Is(err, asp.ErrExpired) {
		t.Fatalf("Get() after expiry = %v, want ErrExpired", err)
	}

	wp.Drop()
}

func TestWeakPtrGetBeforeExpirySucceeds(t *testing.T) {
	sp := asp.NewSharedPtr(3)
	wp := sp.Weak()

	got, err := wp.Get()
	if err != nil {
		t.Fatalf("Get() on a live control block returned %v, want nil", err)
	}
	if *got.Get() != 3 {
		t.Fatalf("Get() payload = %d, want 3", *got.Get())
	}

	got.Drop()
	sp.Drop()
	wp.Drop()
}

func TestZeroWeakPtrIsExpired(t *testing.T) {
	var wp asp.WeakPtr[int]
	if _, ok := wp.Lock(); ok {
		t.Fatal("the zero-value WeakPtr should never lock")
	}
	wp.Drop() // must not panic
}

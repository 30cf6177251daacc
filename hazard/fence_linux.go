// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package hazard

import (
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	membarrierCmdQuery                    = 0
	membarrierCmdPrivateExpedited         = 1 << 3
	membarrierCmdRegisterPrivateExpedited = 1 << 4
)

var (
	membarrierOnce      sync.Once
	membarrierAvailable bool
)

// platformHeavyFence issues a process-wide membarrier on Linux, falling back
// to an mprotect-based TLB shootdown, and finally to a portable seq-cst
// fence if neither syscall path is usable. Availability is probed once and
// cached for the lifetime of the process, matching the source's per-process
// availability cache.
func platformHeavyFence() {
	membarrierOnce.Do(probeMembarrier)
	if membarrierAvailable {
		_, _, errno := unix.Syscall(unix.SYS_MEMBARRIER, membarrierCmdPrivateExpedited, 0, 0)
		if errno == 0 {
			return
		}
	}
	if mprotectMembarrier() {
		return
	}
	seqCstFenceFallback()
}

func probeMembarrier() {
	query, _, errno := unix.Syscall(unix.SYS_MEMBARRIER, membarrierCmdQuery, 0, 0)
	if errno != 0 || query&membarrierCmdPrivateExpedited == 0 {
		membarrierAvailable = false
		return
	}
	_, _, errno = unix.Syscall(unix.SYS_MEMBARRIER, membarrierCmdRegisterPrivateExpedited, 0, 0)
	membarrierAvailable = errno == 0
}

// dummyPage is the system page size. When membarrier is unavailable,
// mprotectMembarrier maps a fresh anonymous page of this size on every call
// and toggles its protection bits to force a TLB shootdown (and therefore a
// memory barrier) on every core running threads of this process.
var dummyPage = unix.Getpagesize()

func mprotectMembarrier() bool {
	buf, err := unix.Mmap(-1, 0, dummyPage, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Munmap(buf) }()
	if err := unix.Mprotect(buf, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return false
	}
	if err := unix.Mprotect(buf, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return false
	}
	return true
}

func seqCstFenceFallback() {
	// syscall.Syscall(SYS_MEMBARRIER) is unavailable; a no-op syscall round
	// trip still forces a kernel entry/exit, which acts as a compiler and
	// hardware fence boundary on every mainstream Linux target.
	_, _, _ = syscall.Syscall(syscall.SYS_GETPID, 0, 0, 0)
}

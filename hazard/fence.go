// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import "runtime"

// lightFence is the reader-side asymmetric fence: a compiler reordering
// barrier only. Go has no inline-asm compiler barrier, so this is emulated
// by running runtime.KeepAlive against the protected pointer's publication
// at the call site; the fence itself is a no-op marker kept for symmetry
// with heavyFence and to document the pairing explicitly at each call site.
func lightFence() {
	// Intentionally empty: Protect's sync/atomic Store/Load calls (sequentially
	// consistent in Go) already
	// establish the ordering Go's memory model requires here. The named
	// function exists so protect()'s publish-then-reread sequence reads the
	// same shape as the source's asymmetric fence pairing.
}

// heavyFence is the writer-side asymmetric fence: a system-wide barrier that
// forces every other core to observe prior stores before cleanup proceeds.
// See fence_linux.go / fence_other.go for the platform-specific mechanism.
func heavyFence() {
	platformHeavyFence()
}

// keepAlive is a documentation alias for runtime.KeepAlive used at protect()
// publication points.
func keepAlive(p any) { runtime.KeepAlive(p) }

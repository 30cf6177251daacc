// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package hazard

import "sync/atomic"

var fenceWord atomic.Uint64

// platformHeavyFence on non-Linux platforms has no membarrier/mprotect
// equivalent available; a full sequentially-consistent atomic round trip is
// the portable fallback the spec calls for.
func platformHeavyFence() {
	fenceWord.Add(1)
	_ = fenceWord.Load()
}

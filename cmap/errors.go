// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cmap

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrProbeExhausted is returned by Set when no level admits the key: every
// level's probed bucket was already occupied by a different key.
// Recoverable by retrying against a map constructed with a larger expected
// capacity.
var ErrProbeExhausted = errors.New("cmap: probe exhausted")

// ErrAllocFailed is returned by Set when cell allocation fails. On the Go
// runtime this can only happen under genuine memory exhaustion; kept as a
// distinct sentinel rather than a panic because §7 classifies it as
// recoverable ("caller may shed load"), unlike the fatal conditions in
// hazard/deque.
var ErrAllocFailed = errors.New("cmap: allocation failed")

// ErrLevelTooSmall is returned by New when the iterative level-sizing pass
// would under-size a level below its occupied share — the §9 Open Question
// decision to surface this as a configuration error instead of silently
// proceeding or panicking.
var ErrLevelTooSmall = errors.New("cmap: level capacity too small for expected size")

// IsSemantic reports whether err is a control flow signal rather than a
// failure. Delegates to [iox.IsSemantic] for the ErrWouldBlock-style errors
// shared with lfq; cmap's own three sentinels above are reported
// through normal Go error comparison (errors.Is), matching asp.ErrExpired's
// "plain sentinel" treatment rather than iox's classification.
func IsSemantic(err error) bool { return iox.IsSemantic(err) }

// IsNonFailure reports whether err represents a non-failure condition.
func IsNonFailure(err error) bool { return iox.IsNonFailure(err) }

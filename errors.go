// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import "code.hybscloud.com/iox"

// ErrNotReady indicates that Collector.TryCleanup cannot proceed yet because
// handles or allocations are still outstanding.
//
// ErrNotReady is a control flow signal, not a failure: the caller should
// drop its remaining Handles and Close its remaining pointers, call Collect,
// and retry TryCleanup rather than treating this as exceptional.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency — the
// same "not ready, retry" contract a bounded queue attaches to its own
// queue-full/queue-empty signal.
var ErrNotReady = iox.ErrWouldBlock

// IsNotReady reports whether err indicates TryCleanup is not ready to
// proceed. Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsNotReady(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

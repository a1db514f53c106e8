// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package reclaim

// RaceEnabled is true when the race detector is active. No test in this
// module reads it; the stress tests run the same way with and without -race.
const RaceEnabled = true

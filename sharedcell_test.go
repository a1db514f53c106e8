// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/reclaim"
)

func TestSharedCellGetSet(t *testing.T) {
	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	cell := reclaim.NewSharedCell(reclaim.NewShared(h, 1))
	defer cell.Close()

	got := cell.Get()
	if *got.Get() != 1 {
		t.Fatalf("Get: got %d, want 1", *got.Get())
	}
	got.Close()

	cell.Set(reclaim.NewShared(h, 2))
	got = cell.Get()
	if *got.Get() != 2 {
		t.Fatalf("Get after Set: got %d, want 2", *got.Get())
	}
	got.Close()
	c.Collect()
}

func TestSharedCellIntoInner(t *testing.T) {
	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	cell := reclaim.NewSharedCell(reclaim.NewShared(h, 9))
	inner := cell.IntoInner()
	if *inner.Get() != 9 {
		t.Fatalf("IntoInner: got %d, want 9", *inner.Get())
	}
	inner.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("second IntoInner: want panic, got none")
		}
	}()
	cell.IntoInner()
}

// TestSharedCellReplaceWhileReading hammers Get from several reader
// goroutines while a single writer goroutine repeatedly calls Replace.
// Every value that is ever installed in the cell must have its destructor
// run exactly once, with no use-after-free visible to the race detector.
func TestSharedCellReplaceWhileReading(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const readers = 8
	const duration = 50 * time.Millisecond

	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	var destroyed int64
	cell := reclaim.NewSharedCell(reclaim.NewShared(h, countingPayload{n: &destroyed}))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					v := cell.Get()
					_ = v.Get()
					v.Close()
				}
			}
		}()
	}

	var installed int64 = 1 // the initial value passed to NewSharedCell
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		cell.Set(reclaim.NewShared(h, countingPayload{n: &destroyed}))
		installed++
	}
	close(stop)
	wg.Wait()

	// Whatever is left in the cell was counted in installed above — IntoInner
	// just hands it back so the test can close it explicitly.
	cell.IntoInner().Close()

	c.Collect()

	if atomic.LoadInt64(&destroyed) != installed {
		t.Fatalf("destructor invocations: got %d, want %d", destroyed, installed)
	}
}

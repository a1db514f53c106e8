// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/reclaim"
)

type countingPayload struct {
	n *int64
}

func (p countingPayload) Close() {
	atomic.AddInt64(p.n, 1)
}

// TestCollectorSingleProducerSingleConsumer allocates three OwnedPtrs,
// closes all three, and checks that three successive CollectOne calls each
// reclaim one of them, with a fourth call finding the queue transiently
// empty.
func TestCollectorSingleProducerSingleConsumer(t *testing.T) {
	c := reclaim.NewCollector()
	h := c.Handle()
	defer h.Release()

	owned := make([]*reclaim.OwnedPtr[int], 3)
	for i := range 3 {
		owned[i] = reclaim.NewOwned(h, i+1)
	}
	if got := c.AllocCount(); got != 3 {
		t.Fatalf("AllocCount before close: got %d, want 3", got)
	}

	for _, o := range owned {
		o.Close()
	}

	for i := range 3 {
		if !c.CollectOne() {
			t.Fatalf("CollectOne(%d): got false, want true", i)
		}
	}
	if c.CollectOne() {
		t.Fatal("CollectOne on drained queue: got true, want false")
	}
	if got := c.AllocCount(); got != 0 {
		t.Fatalf("AllocCount after collect: got %d, want 0", got)
	}
}

// TestCollectorManyProducers runs 100 goroutines that each allocate and
// immediately close 100 OwnedPtrs wrapping a payload whose Close increments
// a shared counter, while the main goroutine interleaves Collect calls.
func TestCollectorManyProducers(t *testing.T) {
	const producers = 100
	const perProducer = 100

	c := reclaim.NewCollector()
	var counter int64
	var wg sync.WaitGroup

	for range producers {
		h := c.Handle()
		wg.Add(1)
		go func(h reclaim.Handle) {
			defer wg.Done()
			defer h.Release()
			for range perProducer {
				o := reclaim.NewOwned(h, countingPayload{n: &counter})
				o.Close()
			}
		}(h)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for draining := true; draining; {
		select {
		case <-done:
			draining = false
		default:
			c.Collect()
		}
	}
	c.Collect()

	if got := atomic.LoadInt64(&counter); got != producers*perProducer {
		t.Fatalf("destructor invocations: got %d, want %d", got, producers*perProducer)
	}
	if got := c.AllocCount(); got != 0 {
		t.Fatalf("AllocCount after drain: got %d, want 0", got)
	}
}

// TestCollectorTryCleanupGating checks that TryCleanup refuses to succeed
// while a Handle or an allocation is outstanding, and succeeds once both
// are released and reclaimed.
func TestCollectorTryCleanupGating(t *testing.T) {
	c := reclaim.NewCollector()
	h := c.Handle()
	x := reclaim.NewOwned(h, 7)

	if ok, err := c.TryCleanup(); ok || !reclaim.IsNotReady(err) {
		t.Fatalf("TryCleanup with live handle+alloc: got (%v, %v), want (false, ErrNotReady)", ok, err)
	}

	h.Release()
	x.Close()
	c.Collect()

	ok, err := c.TryCleanup()
	if !ok || err != nil {
		t.Fatalf("TryCleanup after release+collect: got (%v, %v), want (true, nil)", ok, err)
	}
}

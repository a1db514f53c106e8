// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// collectorInner is the state shared by a Collector and every Handle
// derived from it. Its lifetime is "longest holder": created by
// NewCollector, kept alive by every outstanding Handle and Collector, and
// released only by a successful TryCleanup.
type collectorInner struct {
	handles atomix.Int64 // outstanding Handle count
	allocs  atomix.Int64 // outstanding un-reclaimed Node count
	tail    atomic.Pointer[nodeHeader]
}

// Handle is an opaque producer token referring to a Collector. It is cheap
// to copy and safe to hand to another goroutine. A Collector is safe to
// reclaim via TryCleanup only once every Handle derived from it has had
// Release called.
type Handle struct {
	inner *collectorInner
}

// Clone returns a new Handle referring to the same Collector, incrementing
// the outstanding-handle count.
func (h Handle) Clone() Handle {
	h.inner.handles.AddRelaxed(1)
	return Handle{inner: h.inner}
}

// Release relinquishes this Handle. Go has no automatic destructors, so
// callers must call Release explicitly once a Handle is no longer needed —
// analogous to releasing ownership in a language with automatic destructors.
//
// Calling Release more than once for the same Handle value is a contract
// violation: it double-counts the decrement and can cause TryCleanup to
// succeed while producers still hold live handles.
func (h Handle) Release() {
	h.inner.handles.AddRelease(-1)
}

// Collector owns the drop queue's private head pointer, the shared atomic
// tail, and a fixed sentinel Node. The queue is never empty: the sentinel
// always resides in it.
type Collector struct {
	head  *nodeHeader
	stub  *nodeHeader
	inner *collectorInner
	done  bool
}

// NewCollector creates a Collector with an empty drop queue.
func NewCollector() *Collector {
	stub := &nodeHeader{}
	inner := &collectorInner{}
	inner.tail.Store(stub)

	return &Collector{
		head:  stub,
		stub:  stub,
		inner: inner,
	}
}

// Handle mints a new producer token for this Collector, incrementing the
// outstanding-handle count.
func (c *Collector) Handle() Handle {
	c.mustBeLive()
	c.inner.handles.AddRelaxed(1)
	return Handle{inner: c.inner}
}

// CollectOne performs one reclamation attempt. It returns true iff a user
// node (not the sentinel) was reclaimed; sentinel recirculation is an
// internal step and does not itself count as progress.
//
// Must be called from a single goroutine at a time; concurrent calls race
// on the private head pointer.
func (c *Collector) CollectOne() bool {
	c.mustBeLive()
	for {
		next := c.head.next.Load()
		if next == nil {
			return false
		}

		old := c.head
		c.head = next

		if old == c.stub {
			old.next.Store(nil)
			prevTail := c.inner.tail.Swap(old)
			prevTail.next.Store(old)
			continue
		}

		old.destroy(old)
		c.inner.allocs.AddRelaxed(-1)
		return true
	}
}

// Collect drains the queue to transient emptiness by calling CollectOne
// until it stops making progress. Still best-effort in the face of
// concurrently enqueuing producers.
func (c *Collector) Collect() {
	for c.CollectOne() {
	}
}

// HandleCount returns the number of outstanding Handles, eventually
// consistent with concurrent Clone/Release calls.
func (c *Collector) HandleCount() uint64 {
	return uint64(c.inner.handles.LoadRelaxed())
}

// AllocCount returns the number of outstanding un-reclaimed allocations.
func (c *Collector) AllocCount() uint64 {
	return uint64(c.inner.allocs.LoadRelaxed())
}

// TryCleanup releases the sentinel and shared inner block iff no Handles
// and no allocations remain outstanding. On success the Collector is
// consumed: no further method may be called on it. On failure it returns
// ErrNotReady and remains fully usable.
func (c *Collector) TryCleanup() (bool, error) {
	c.mustBeLive()

	if c.inner.handles.LoadAcquire() != 0 {
		return false, ErrNotReady
	}
	if c.inner.allocs.LoadAcquire() != 0 {
		return false, ErrNotReady
	}

	c.done = true
	c.head, c.stub, c.inner = nil, nil, nil
	return true, nil
}

func (c *Collector) mustBeLive() {
	if c.done {
		panic("reclaim: use of Collector after successful TryCleanup")
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reclaim provides deferred, lock-free memory reclamation: closing
// the last owning reference to a value only enqueues it, and the value's
// cleanup runs later, on whichever goroutine next calls Collect.
//
// The package offers three smart pointer types built on a common Collector:
//
//   - OwnedPtr: uniquely-owning, like a Box with deferred free
//   - SharedPtr: reference-counted, like an Arc with deferred free
//   - SharedCell: a single mutable slot of SharedPtr, safe for one writer
//     racing arbitrarily many wait-free readers
//
// # Quick Start
//
// A Collector owns the reclamation queue. Producers obtain a Handle to
// allocate through it; a single goroutine periodically calls Collect to
// actually reclaim what has been closed:
//
//	collector := reclaim.NewCollector()
//	handle := collector.Handle()
//	defer handle.Release()
//
//	owned := reclaim.NewOwned(handle, myValue)
//	// ... use owned.Get() ...
//	owned.Close() // enqueues myValue for reclamation, does not run it inline
//
//	collector.Collect() // actually destroys anything enqueued so far
//
// # Shared ownership
//
// SharedPtr works the same way, but Clone adds a reference instead of
// allocating a new node, and the Node is only enqueued once the last clone
// closes:
//
//	shared := reclaim.NewShared(handle, myValue)
//	other := shared.Clone()
//	go func() {
//	    defer other.Close()
//	    process(other.Get())
//	}()
//	shared.Close()
//
// # Wait-free reads of a mutable slot
//
// SharedCell lets many goroutines call Get concurrently with a single
// goroutine calling Set, with no locks on either side:
//
//	cell := reclaim.NewSharedCell(reclaim.NewShared(handle, initial))
//	defer cell.Close()
//
//	go func() { // reader, any number of these
//	    for {
//	        v := cell.Get()
//	        use(v.Get())
//	        v.Close()
//	    }
//	}()
//
//	cell.Set(reclaim.NewShared(handle, updated)) // the one writer
//
// # Collector lifecycle
//
// A Collector cannot be torn down while any Handle or allocation is still
// outstanding. TryCleanup reports ErrNotReady until both counts reach zero:
//
//	for {
//	    if ok, err := collector.TryCleanup(); ok {
//	        break
//	    } else if !reclaim.IsNotReady(err) {
//	        panic(err)
//	    }
//	    collector.Collect()
//	}
//
// # What changes on a garbage-collected host
//
// Go has no automatic destructors. Every type in this package that would
// run cleanup implicitly on scope exit instead requires an explicit Close
// call, and runtime.AddCleanup is deliberately not used as a substitute —
// finalizer timing is GC-determined and unbounded, which would reintroduce
// the unpredictable-latency problem this package exists to avoid.
package reclaim

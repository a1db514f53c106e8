// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"sync/atomic"
	"unsafe"
)

// nodeHeader is the fixed-layout prefix shared by every Node[T], regardless
// of payload type. It is what lets the drop queue be monomorphic in its
// header while heterogeneous in payload: the queue only ever touches
// *nodeHeader, and recovers the concrete *Node[T] through destroy.
//
// collector is meaningful only from allocation until the node's first
// enqueue; next is meaningful only from the first enqueue onward. Both
// fields physically coexist — Go has no safe union type — but no code path
// ever reads one during the other's validity window, preserving the single-
// discriminant invariant that a tagged union would express directly.
type nodeHeader struct {
	next      atomic.Pointer[nodeHeader]
	collector *collectorInner
	destroy   func(*nodeHeader)
}

// Node is the intrusive allocation backing every OwnedPtr and SharedPtr.
// Most callers never name Node directly. Allocating and enqueuing a Node is
// done only by this package's own smart pointers; no exported function does
// either.
type Node[T any] struct {
	header nodeHeader
	Data   T
}

// nodeOf recovers the Node[T] that owns a given header. Valid because
// header is always Node[T]'s first field, so their addresses coincide.
func nodeOf[T any](h *nodeHeader) *Node[T] {
	return (*Node[T])(unsafe.Pointer(h))
}

// destroyNode is the type-erased finalizer captured once per concrete T at
// allocation time — the Go lowering of a "virtual destructor" for a language
// without vtables. If a pointer to the payload has a Close() method with no
// results, it runs before the last Go reference to the node is dropped; a
// Close() error method (io.Closer) is not called.
func destroyNode[T any](h *nodeHeader) {
	n := nodeOf[T](h)
	if c, ok := any(&n.Data).(interface{ Close() }); ok {
		c.Close()
	}
}

// allocNode allocates a Node[T] through handle, charging it against the
// handle's collector's outstanding-allocation counter.
func allocNode[T any](handle Handle, data T) *Node[T] {
	handle.inner.allocs.AddRelaxed(1)
	return &Node[T]{
		header: nodeHeader{
			collector: handle.inner,
			destroy:   destroyNode[T],
		},
		Data: data,
	}
}

// cloneNode allocates a fresh Node[T] on the same Collector as node, copying
// data via clone. Used by CloneOwned.
func cloneNode[T any](node *Node[T], clone func(T) T) *Node[T] {
	inner := node.header.collector
	inner.allocs.AddRelaxed(1)
	return &Node[T]{
		header: nodeHeader{
			collector: inner,
			destroy:   destroyNode[T],
		},
		Data: clone(node.Data),
	}
}

// enqueueDrop hands a node's header to its collector's drop queue. Wait-free
// to within a single store's visibility window.
//
// Precondition: h has never been enqueued before (enforced by callers, which
// each hold a single-owner or last-reference guarantee at the call site).
func enqueueDrop(h *nodeHeader) {
	inner := h.collector
	h.next.Store(nil) // not yet visible to the consumer; no ordering required
	oldTail := inner.tail.Swap(h)
	oldTail.next.Store(h)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import "code.hybscloud.com/atomix"

// sharedInner wraps a SharedPtr's payload with its reference count. The
// Node's payload type, as seen by the drop queue's type erasure, is
// sharedInner[T], not T itself.
type sharedInner[T any] struct {
	count atomix.Int64
	data  T
}

// Close forwards to data's Close, if it has one. destroyNode's type-erased
// dispatch only ever sees sharedInner[T], never T directly, so this is what
// makes a SharedPtr's payload destructor actually run on reclamation.
func (s *sharedInner[T]) Close() {
	if c, ok := any(&s.data).(interface{ Close() }); ok {
		c.Close()
	}
}

// SharedPtr is a non-nil, reference-counted reference to a
// Node[sharedInner[T]]. Cloning increments the count; Close decrements it
// and, on the 1→0 transition, enqueues the Node for deferred reclamation.
//
// Shared reads across goroutines are safe only when T is itself safe for
// concurrent read access.
type SharedPtr[T any] struct {
	node   *Node[sharedInner[T]]
	closed bool
}

// NewShared allocates a new SharedPtr on handle's Collector with an initial
// reference count of 1.
func NewShared[T any](handle Handle, value T) *SharedPtr[T] {
	node := allocNode(handle, sharedInner[T]{
		count: atomix.Int64{},
		data:  value,
	})
	node.Data.count.StoreRelaxed(1)
	return &SharedPtr[T]{node: node}
}

// Get returns a pointer to the shared payload.
func (p *SharedPtr[T]) Get() *T {
	p.mustBeOpen()
	return &p.node.Data.data
}

// Clone returns a new SharedPtr referencing the same Node, incrementing its
// reference count. Relaxed suffices: the cloning goroutine already holds a
// live reference, so it already has a happens-before edge to the data.
func (p *SharedPtr[T]) Clone() *SharedPtr[T] {
	p.mustBeOpen()
	p.node.Data.count.AddRelaxed(1)
	return &SharedPtr[T]{node: p.node}
}

// Close releases this reference. If it was the last outstanding reference,
// the Node is enqueued for deferred reclamation.
//
// The Release store on the decrement, paired with an Acquire read on the
// 1→0 transition, is the standard refcount-drop synchronization: it
// guarantees every prior write through any clone is visible to whatever
// runs at reclamation time.
func (p *SharedPtr[T]) Close() {
	p.mustBeOpen()
	p.closed = true

	if remaining := p.node.Data.count.AddRelease(-1); remaining == 0 {
		p.node.Data.count.LoadAcquire() // fence: synchronizes-with every prior Release
		enqueueDrop(&p.node.header)
	}
}

// GetMut returns a pointer to the payload and true iff no clone of this
// SharedPtr exists and no SharedCell currently holds it — i.e. iff this is
// the sole outstanding reference.
func (p *SharedPtr[T]) GetMut() (*T, bool) {
	p.mustBeOpen()
	if p.node.Data.count.LoadAcquire() != 1 {
		return nil, false
	}
	return &p.node.Data.data, true
}

func (p *SharedPtr[T]) mustBeOpen() {
	if p.closed {
		panic("reclaim: use of SharedPtr after Close")
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

// Cloner is satisfied by payload types that support CloneOwned.
type Cloner[T any] interface {
	CloneValue() T
}

// OwnedPtr is a non-nil, uniquely-owning reference to a Node[T]. It is the
// exclusive owner of its payload: dereferencing is always safe for its
// owner, and no other OwnedPtr or SharedPtr can observe the same Node.
//
// Close must be called exactly once, when the owner is done with the
// pointer; Go has no automatic destructors, so this does not happen for
// free the way it would when a scope-bound value goes out of scope.
// Calling Close twice, or accessing the payload after Close, is a contract
// violation.
type OwnedPtr[T any] struct {
	node   *Node[T]
	closed bool
}

// NewOwned allocates a new OwnedPtr on handle's Collector.
func NewOwned[T any](handle Handle, value T) *OwnedPtr[T] {
	return &OwnedPtr[T]{node: allocNode(handle, value)}
}

// Get returns a pointer to the payload for direct read or mutation.
// Exclusive aliasing is a caller discipline: Go does not enforce borrowing,
// so callers must not retain the returned pointer past Close.
func (p *OwnedPtr[T]) Get() *T {
	p.mustBeOpen()
	return &p.node.Data
}

// Set replaces the payload in place.
func (p *OwnedPtr[T]) Set(value T) {
	p.mustBeOpen()
	p.node.Data = value
}

// CloneOwned allocates a fresh OwnedPtr on the same Collector, with a copy
// of the payload obtained by calling CloneValue. Only available when T
// implements Cloner[T].
func CloneOwned[T Cloner[T]](p *OwnedPtr[T]) *OwnedPtr[T] {
	p.mustBeOpen()
	return &OwnedPtr[T]{
		node: cloneNode(p.node, func(v T) T { return v.CloneValue() }),
	}
}

// Close relinquishes ownership, enqueuing the Node for deferred
// reclamation. The payload must not be accessed through p after Close
// returns.
func (p *OwnedPtr[T]) Close() {
	p.mustBeOpen()
	p.closed = true
	enqueueDrop(&p.node.header)
}

func (p *OwnedPtr[T]) mustBeOpen() {
	if p.closed {
		panic("reclaim: use of OwnedPtr after Close")
	}
}

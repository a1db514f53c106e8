// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reclaim

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SharedCell is a fixed-size slot holding exactly one SharedPtr[T]'s worth
// of reference count, with a wait-free Get for readers and a serialized,
// reader-count-gated Replace/Set for writers.
//
// Representation invariant: the cell always conceptually owns exactly one
// reference count on the Node it points to. Neither NewSharedCell, Replace,
// nor IntoInner releases that count implicitly — they transfer it.
type SharedCell[T any] struct {
	readers  atomix.Int64
	node     atomic.Pointer[Node[sharedInner[T]]]
	consumed bool
}

// NewSharedCell creates a cell holding value. value is consumed: its
// refcount is transferred to the cell, not released, and using value again
// afterward is a contract violation.
func NewSharedCell[T any](value *SharedPtr[T]) *SharedCell[T] {
	value.mustBeOpen()

	c := &SharedCell[T]{}
	c.node.Store(value.node)
	value.closed = true
	return c
}

// Get returns a new SharedPtr to the cell's current contents. Wait-free:
// every call completes in a bounded number of its own steps regardless of
// concurrent Replace activity.
//
// The SeqCst ordering on the readers increment and the node load is load-
// bearing: it is what makes this safe against a concurrent Replace despite
// neither side taking a lock.
func (c *SharedCell[T]) Get() *SharedPtr[T] {
	c.readers.AddSeqCst(1)
	n := c.node.Load()
	n.Data.count.AddRelaxed(1)
	c.readers.AddRelaxed(-1)
	return &SharedPtr[T]{node: n}
}

// Replace installs value as the cell's new contents and returns a SharedPtr
// to what was there before, transferring the cell's held reference count to
// the caller. value is consumed the same way NewSharedCell consumes its
// argument.
//
// Replace is a serialized writer: concurrent calls on the same cell are not
// safe — this is a caller contract, not enforced here. It busy-waits for
// any Get that raced the swap to finish observing the old pointer, for a
// duration proportional to the longest concurrent Get.
func (c *SharedCell[T]) Replace(value *SharedPtr[T]) *SharedPtr[T] {
	value.mustBeOpen()
	newNode := value.node
	value.closed = true

	old := c.node.Swap(newNode)

	sw := spin.Wait{}
	for c.readers.LoadRelaxed() != 0 {
		sw.Once()
	}
	c.readers.LoadAcquire() // fence: synchronizes-with every in-flight Get's readers decrement

	return &SharedPtr[T]{node: old}
}

// Set installs value as the cell's new contents, closing whatever was there
// before.
func (c *SharedCell[T]) Set(value *SharedPtr[T]) {
	c.Replace(value).Close()
}

// IntoInner consumes the cell and returns its contents without altering the
// refcount — the cell's held count is transferred to the caller. Calling
// IntoInner or Close a second time on the same cell is a contract violation.
func (c *SharedCell[T]) IntoInner() *SharedPtr[T] {
	c.mustNotConsumed()
	c.consumed = true
	return &SharedPtr[T]{node: c.node.Load()}
}

// Close releases the cell's held reference count. Go has no automatic
// destructors, so callers must call Close explicitly once a cell is no
// longer needed rather than relying on it running implicitly on scope exit.
func (c *SharedCell[T]) Close() {
	c.mustNotConsumed()
	c.consumed = true
	(&SharedPtr[T]{node: c.node.Load()}).Close()
}

func (c *SharedCell[T]) mustNotConsumed() {
	if c.consumed {
		panic("reclaim: use of SharedCell after Close or IntoInner")
	}
}

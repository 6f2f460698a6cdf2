// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "sync/atomic"

// spscNode is a sentinel-style linked list node: the value it holds is
// the one handed to the consumer when this node is dequeued as head's
// successor, not the one stored alongside head itself.
//
// next is a sync/atomic.Pointer rather than an atomix.Uintptr: atomix
// has no atomic pointer type, and a bare integer next would make a
// linked-in node invisible to the garbage collector even while it is
// still logically queued. A real typed pointer keeps every node in the
// chain ordinarily GC-reachable.
type spscNode[T any] struct {
	next  atomic.Pointer[spscNode[T]]
	value T
}

// unboundedSPSCCore is the Michael sentinel linked list behind an
// unbounded SPSC channel. head is read and written only by the
// consumer goroutine, tail only by the producer goroutine; next is the
// sole field the two sides synchronize through. With exactly one
// reader and one writer, reclamation is trivial: once the consumer
// advances past a node it is unreachable from both sides and Go's
// garbage collector reclaims it — no hazard pointers needed.
type unboundedSPSCCore[T any] struct {
	_    pad
	head *spscNode[T]
	_    pad
	tail *spscNode[T]
	_    pad
	lifecycle
}

func (q *unboundedSPSCCore[T]) drainAndRelease() {
	for n := q.head; n != nil; {
		var zero T
		n.value = zero
		n = n.next.Load()
	}
	q.head = nil
	q.tail = nil
}

// UnboundedSPSCProducer is the producer handle of an unbounded
// single-producer single-consumer channel. Not clonable — single
// ownership is the entire point of the SPSC fast path.
type UnboundedSPSCProducer[T any] struct {
	q *unboundedSPSCCore[T]
}

// UnboundedSPSCConsumer is the consumer handle of an unbounded
// single-producer single-consumer channel.
type UnboundedSPSCConsumer[T any] struct {
	q *unboundedSPSCCore[T]
}

// NewUnboundedSPSC creates an unbounded SPSC channel and returns its
// producer and consumer handles. There is no capacity: Enqueue never
// returns ProduceFull.
func NewUnboundedSPSC[T any]() (*UnboundedSPSCProducer[T], *UnboundedSPSCConsumer[T]) {
	sentinel := &spscNode[T]{}
	q := &unboundedSPSCCore[T]{head: sentinel, tail: sentinel}
	q.lifecycle.init()
	return &UnboundedSPSCProducer[T]{q: q}, &UnboundedSPSCConsumer[T]{q: q}
}

// Enqueue appends elem. Always succeeds unless the consumer handle has
// closed, in which case it returns a *ProduceError[T] wrapping
// ErrDisconnected.
func (p *UnboundedSPSCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}
	n := &spscNode[T]{value: *elem}
	q.tail.next.Store(n)
	q.tail = n
	return nil
}

// Close unregisters this producer handle.
func (p *UnboundedSPSCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
}

// Dequeue removes and returns the oldest element. Returns a
// *ConsumeError wrapping ErrWouldBlock if the queue is momentarily
// empty, or ErrDisconnected if the producer handle has closed and no
// items remain.
func (c *UnboundedSPSCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	next := q.head.next.Load()
	if next == nil {
		var zero T
		if q.producers.alive() {
			return zero, errEmpty()
		}
		return zero, errConsumeDisc()
	}
	elem := next.value
	var zero T
	next.value = zero
	q.head = next
	return elem, nil
}

// Close unregisters this consumer handle.
func (c *UnboundedSPSCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "code.hybscloud.com/atomix"

// spscCore is the shared ring + cursors behind an SPSC channel's
// producer and consumer handles.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's dequeue index, and vice versa,
// reducing cross-core cache line traffic.
type spscCore[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buf        ring[T]
	lifecycle
}

// drainAndRelease clears any cell still live between head and tail so
// referenced values become collectible. Called at most once, when both
// handles have closed (lifecycle.release).
func (q *spscCore[T]) drainAndRelease() {
	head := q.head.LoadRelaxed()
	tail := q.tail.LoadRelaxed()
	for i := head; i != tail; i++ {
		q.buf.wrappingClear(i)
	}
}

// SPSCProducer is the producer handle of a bounded single-producer
// single-consumer channel. It must be used by exactly one goroutine at
// a time and cannot be cloned — the SPSC fast path assumes sole
// ownership of its side.
type SPSCProducer[T any] struct {
	q *spscCore[T]
}

// SPSCConsumer is the consumer handle of a bounded single-producer
// single-consumer channel. See SPSCProducer for the single-ownership
// requirement.
type SPSCConsumer[T any] struct {
	q *spscCore[T]
}

// NewSPSC creates a bounded SPSC channel and returns its producer and
// consumer handles. Panics if capacity is not a power of 2, or is
// smaller than 2.
func NewSPSC[T any](capacity int) (*SPSCProducer[T], *SPSCConsumer[T]) {
	n := validateCapacity(capacity)
	q := &spscCore[T]{buf: newRing[T](n)}
	q.lifecycle.init()
	return &SPSCProducer[T]{q: q}, &SPSCConsumer[T]{q: q}
}

// Enqueue adds an element to the queue (producer only).
// Returns a *ProduceError[T] wrapping ErrWouldBlock if the queue is
// full, or ErrDisconnected if the consumer handle has closed.
func (p *SPSCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}

	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.buf.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.buf.mask {
			return errFull(*elem)
		}
	}

	q.buf.wrappingSet(tail, *elem)
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Cap returns the queue capacity.
func (p *SPSCProducer[T]) Cap() int { return int(p.q.buf.size()) }

// Len returns an instantaneous approximation of the queue length
// (write − read under wrapping subtraction). Concurrent callers should
// not assert on this value beyond an approximation.
func (p *SPSCProducer[T]) Len() int {
	return int(p.q.tail.LoadAcquire() - p.q.head.LoadAcquire())
}

// IsEmpty reports whether the queue was empty at the moment of the call.
func (p *SPSCProducer[T]) IsEmpty() bool { return p.Len() == 0 }

// Close unregisters this producer handle.
func (p *SPSCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
}

// Dequeue removes and returns an element (consumer only).
// Returns a *ConsumeError wrapping ErrWouldBlock if the queue is
// empty but the producer handle is still live, or ErrDisconnected if
// the producer handle has closed and no items remain.
func (c *SPSCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			if q.producers.alive() {
				return zero, errEmpty()
			}
			return zero, errConsumeDisc()
		}
	}

	elem := q.buf.wrappingGet(head)
	q.buf.wrappingClear(head)
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// Cap returns the queue capacity.
func (c *SPSCConsumer[T]) Cap() int { return int(c.q.buf.size()) }

// Len returns an instantaneous approximation of the queue length.
// See SPSCProducer.Len.
func (c *SPSCConsumer[T]) Len() int {
	return int(c.q.tail.LoadAcquire() - c.q.head.LoadAcquire())
}

// IsEmpty reports whether the queue was empty at the moment of the call.
func (c *SPSCConsumer[T]) IsEmpty() bool { return c.Len() == 0 }

// Close unregisters this consumer handle.
func (c *SPSCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
}

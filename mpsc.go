// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscCore is an FAA-based multi-producer single-consumer bounded
// channel core. Its bounded-queue invariants (power-of-two ring,
// disconnection counters, typed errors) are identical in kind to the
// other three variants.
//
// Producers use FAA to blindly claim positions (SCQ-style), requiring 2n
// physical slots for capacity n.
type mpscCore[T any] struct {
	_        pad
	head     atomix.Uint64 // Consumer index (single consumer writes, but producers read)
	_        pad
	tail     atomix.Uint64 // Producer index (FAA)
	_        pad
	draining atomix.Bool // Drain mode: no more enqueues
	_        pad
	buf      ring[mpscSlot[T]]
	capacity uint64 // n (usable capacity)
	lifecycle
}

type mpscSlot[T any] struct {
	cycle atomix.Uint64 // Round number
	data  T
	_     padShort
}

// drainAndRelease clears any slot still holding live data between head
// and tail. Called at most once, when both handles have closed.
func (q *mpscCore[T]) drainAndRelease() {
	head := q.head.LoadRelaxed()
	tail := q.tail.LoadRelaxed()
	for i := head; i != tail; i++ {
		slot := &q.buf.cells[i&q.buf.mask]
		var zero T
		slot.data = zero
	}
}

// MPSCProducer is a producer handle of a bounded multi-producer
// single-consumer channel. Producer handles may be freely cloned.
type MPSCProducer[T any] struct {
	q *mpscCore[T]
}

// MPSCConsumer is the (sole, non-clonable) consumer handle of a bounded
// multi-producer single-consumer channel.
type MPSCConsumer[T any] struct {
	q *mpscCore[T]
}

// NewMPSC creates a bounded FAA-based MPSC channel and returns its
// producer and consumer handles. Panics if capacity is not a power of
// 2, or is smaller than 2.
func NewMPSC[T any](capacity int) (*MPSCProducer[T], *MPSCConsumer[T]) {
	n := validateCapacity(capacity)
	size := n * 2
	q := &mpscCore[T]{buf: newRing[mpscSlot[T]](size), capacity: n}
	q.lifecycle.init()
	for i := uint64(0); i < size; i++ {
		q.buf.cells[i].cycle.StoreRelaxed(i / n)
	}
	return &MPSCProducer[T]{q: q}, &MPSCConsumer[T]{q: q}
}

// Drain records that no more enqueues will occur. The single MPSC
// consumer has no livelock-prevention threshold, so Dequeue does not
// read this flag and already drains every remaining item without it.
func (p *MPSCProducer[T]) Drain() {
	p.q.draining.StoreRelease(true)
}

// Enqueue adds an element to the queue (multiple producers safe).
func (p *MPSCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return errFull(*elem)
		}

		myTail := q.tail.AddAcqRel(1) - 1

		slot := &q.buf.cells[myTail&q.buf.mask]
		expectedCycle := myTail / q.capacity

		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = *elem
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			return errFull(*elem) // Queue full
		}
		sw.Once()
	}
}

// Clone returns a new producer handle sharing this channel.
func (p *MPSCProducer[T]) Clone() *MPSCProducer[T] {
	p.q.producers.clone()
	return &MPSCProducer[T]{q: p.q}
}

// Close unregisters this producer handle.
func (p *MPSCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
}

// Cap returns the queue capacity.
func (p *MPSCProducer[T]) Cap() int { return int(p.q.capacity) }

// Dequeue removes and returns an element (single consumer only).
func (c *MPSCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buf.cells[head&q.buf.mask]

	slotCycle := slot.cycle.LoadAcquire()

	if slotCycle != cycle+1 {
		var zero T
		if q.producers.alive() {
			return zero, errEmpty()
		}
		return zero, errConsumeDisc()
	}

	elem := slot.data
	var zero T
	slot.data = zero
	nextEnqCycle := (head + q.buf.size()) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)

	return elem, nil
}

// Close unregisters this consumer handle.
func (c *MPSCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
}

// Cap returns the queue capacity.
func (c *MPSCConsumer[T]) Cap() int { return int(c.q.capacity) }

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpmcCore is the shared ring + cursors behind an MPMC channel's
// producer and consumer handles.
//
// This is the Vyukov per-slot-sequence protocol: CAS on the
// producer/consumer ticket, a per-slot sequence counter that doubles as
// the producer/consumer handshake for that slot. n physical slots for
// capacity n (contrast with the alternate FAA/SCQ design kept for
// MPSC/SPMC).
type mpmcCore[T any] struct {
	_    pad
	tail atomix.Uint64 // Producer ticket
	_    pad
	head atomix.Uint64 // Consumer ticket
	_    pad
	buf  ring[mpmcSlot[T]]
	lifecycle
}

type mpmcSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}

// drainAndRelease clears any slot still holding live data between head
// and tail. Called at most once, when both handles have closed.
func (q *mpmcCore[T]) drainAndRelease() {
	head := q.head.LoadRelaxed()
	tail := q.tail.LoadRelaxed()
	for i := head; i != tail; i++ {
		slot := &q.buf.cells[i&q.buf.mask]
		var zero T
		slot.data = zero
	}
}

// MPMCProducer is a producer handle of a bounded multi-producer
// multi-consumer channel. Producer handles may be freely cloned.
type MPMCProducer[T any] struct {
	q *mpmcCore[T]
}

// MPMCConsumer is a consumer handle of a bounded multi-producer
// multi-consumer channel. Consumer handles may be freely cloned.
type MPMCConsumer[T any] struct {
	q *mpmcCore[T]
}

// NewMPMC creates a bounded MPMC channel and returns its producer and
// consumer handles. Panics if capacity is not a power of 2, or is
// smaller than 2.
func NewMPMC[T any](capacity int) (*MPMCProducer[T], *MPMCConsumer[T]) {
	n := validateCapacity(capacity)
	q := &mpmcCore[T]{buf: newRing[mpmcSlot[T]](n)}
	q.lifecycle.init()
	for i := uint64(0); i < n; i++ {
		q.buf.cells[i].seq.StoreRelaxed(i)
	}
	return &MPMCProducer[T]{q: q}, &MPMCConsumer[T]{q: q}
}

// Enqueue adds an element to the queue (multiple producers safe).
//
// Disconnection is checked once up front; the check is purely advisory
// for the current call's return path — a
// producer that has already reserved a ticket before observing
// consumers == 0 does not attempt to withdraw — that item is picked up
// by drainAndRelease once every handle has closed.
func (p *MPMCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buf.cells[tail&q.buf.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return errFull(*elem)
		}
		sw.Once()
	}
}

// Clone returns a new producer handle sharing this channel, bumping the
// live-producer count. Producer handles are freely cloneable.
func (p *MPMCProducer[T]) Clone() *MPMCProducer[T] {
	p.q.producers.clone()
	return &MPMCProducer[T]{q: p.q}
}

// Close unregisters this producer handle.
func (p *MPMCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
}

// Cap returns the queue capacity.
func (p *MPMCProducer[T]) Cap() int { return int(p.q.buf.size()) }

// Dequeue removes and returns an element from the queue (multiple
// consumers safe).
func (c *MPMCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buf.cells[head&q.buf.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.buf.size())
				return elem, nil
			}
		} else if diff < 0 {
			var zero T
			if q.producers.alive() {
				return zero, errEmpty()
			}
			return zero, errConsumeDisc()
		}
		sw.Once()
	}
}

// Clone returns a new consumer handle sharing this channel, bumping the
// live-consumer count.
func (c *MPMCConsumer[T]) Clone() *MPMCConsumer[T] {
	c.q.consumers.clone()
	return &MPMCConsumer[T]{q: c.q}
}

// Close unregisters this consumer handle.
func (c *MPMCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
}

// Cap returns the queue capacity.
func (c *MPMCConsumer[T]) Cap() int { return int(c.q.buf.size()) }

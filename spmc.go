// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spmcCore is an FAA-based single-producer multi-consumer bounded
// channel core, mirroring mpscCore.
//
// Consumers use FAA to blindly claim positions (SCQ-style), requiring 2n
// physical slots for capacity n.
type spmcCore[T any] struct {
	_         pad
	head      atomix.Uint64 // Consumer index (FAA)
	_         pad
	tail      atomix.Uint64 // Producer index (single producer writes, but consumers read)
	_         pad
	threshold atomix.Int64 // Livelock prevention for consumers
	_         pad
	draining  atomix.Bool // Drain mode: skip threshold check
	_         pad
	buf       ring[spmcSlot[T]]
	capacity  uint64 // n (usable capacity)
	lifecycle
}

type spmcSlot[T any] struct {
	cycle atomix.Uint64 // Round number
	data  T
	_     padShort
}

// drainAndRelease clears any slot still holding live data between head
// and tail. Called at most once, when both handles have closed.
func (q *spmcCore[T]) drainAndRelease() {
	head := q.head.LoadRelaxed()
	tail := q.tail.LoadRelaxed()
	for i := head; i != tail; i++ {
		slot := &q.buf.cells[i&q.buf.mask]
		var zero T
		slot.data = zero
	}
}

// SPMCProducer is the (sole, non-clonable) producer handle of a bounded
// single-producer multi-consumer channel.
type SPMCProducer[T any] struct {
	q *spmcCore[T]
}

// SPMCConsumer is a consumer handle of a bounded single-producer
// multi-consumer channel. Consumer handles may be freely cloned.
type SPMCConsumer[T any] struct {
	q *spmcCore[T]
}

// NewSPMC creates a bounded FAA-based SPMC channel and returns its
// producer and consumer handles. Panics if capacity is not a power of
// 2, or is smaller than 2.
func NewSPMC[T any](capacity int) (*SPMCProducer[T], *SPMCConsumer[T]) {
	n := validateCapacity(capacity)
	size := n * 2
	q := &spmcCore[T]{buf: newRing[spmcSlot[T]](size), capacity: n}
	q.lifecycle.init()
	q.threshold.StoreRelaxed(3*int64(n) - 1)
	for i := uint64(0); i < size; i++ {
		q.buf.cells[i].cycle.StoreRelaxed(i / n)
	}
	return &SPMCProducer[T]{q: q}, &SPMCConsumer[T]{q: q}
}

// Drain signals that no more enqueues will occur, letting consumers
// finish draining without waiting on the livelock-prevention threshold.
func (p *SPMCProducer[T]) Drain() {
	p.q.draining.StoreRelease(true)
}

// Enqueue adds an element to the queue (single producer only).
func (p *SPMCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}

	tail := q.tail.LoadRelaxed()
	head := q.head.LoadAcquire()

	if tail >= head+q.capacity {
		return errFull(*elem)
	}

	cycle := tail / q.capacity
	slot := &q.buf.cells[tail&q.buf.mask]

	slotCycle := slot.cycle.LoadAcquire()

	if slotCycle != cycle {
		return errFull(*elem)
	}

	slot.data = *elem
	slot.cycle.StoreRelease(cycle + 1)
	q.tail.StoreRelaxed(tail + 1)

	q.threshold.StoreRelaxed(3*int64(q.capacity) - 1)

	return nil
}

// Close unregisters this producer handle.
func (p *SPMCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
}

// Cap returns the queue capacity.
func (p *SPMCProducer[T]) Cap() int { return int(p.q.capacity) }

// Dequeue removes and returns an element (multiple consumers safe).
func (c *SPMCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	if !q.draining.LoadAcquire() && q.threshold.LoadRelaxed() < 0 {
		var zero T
		if q.producers.alive() {
			return zero, errEmpty()
		}
		return zero, errConsumeDisc()
	}

	sw := spin.Wait{}
	for {
		myHead := q.head.AddAcqRel(1) - 1

		slot := &q.buf.cells[myHead&q.buf.mask]
		expectedCycle := myHead/q.capacity + 1
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			elem := slot.data
			var zero T
			slot.data = zero
			nextEnqCycle := (myHead + q.buf.size()) / q.capacity
			slot.cycle.StoreRelease(nextEnqCycle)
			return elem, nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			// SCQ slot repair: advance stale slot for future enqueuers
			nextEnqCycle := (myHead + q.buf.size()) / q.capacity
			slot.cycle.CompareAndSwapAcqRel(slotCycle, nextEnqCycle)

			tail := q.tail.LoadRelaxed()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				q.threshold.AddAcqRel(-1)
				var zero T
				if q.producers.alive() {
					return zero, errEmpty()
				}
				return zero, errConsumeDisc()
			}
			if q.threshold.AddAcqRel(-1) <= 0 && !q.draining.LoadAcquire() {
				var zero T
				if q.producers.alive() {
					return zero, errEmpty()
				}
				return zero, errConsumeDisc()
			}
		}
		sw.Once()
	}
}

func (q *spmcCore[T]) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

// Clone returns a new consumer handle sharing this channel.
func (c *SPMCConsumer[T]) Clone() *SPMCConsumer[T] {
	c.q.consumers.clone()
	return &SPMCConsumer[T]{q: c.q}
}

// Close unregisters this consumer handle.
func (c *SPMCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
}

// Cap returns the queue capacity.
func (c *SPMCConsumer[T]) Cap() int { return int(c.q.capacity) }

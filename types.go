// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

// Producer is the interface for enqueueing elements, implemented by
// every variant's producer handle.
//
// Producer provides non-blocking enqueue operations. The element is
// passed by pointer to avoid copying large structs; the queue stores a
// copy of the pointed-to value, so the original can be modified after
// Enqueue returns.
//
// Enqueue never blocks. It returns nil on success, a *ProduceError[T]
// wrapping ErrWouldBlock if the queue is momentarily full (bounded
// variants only), or a *ProduceError[T] wrapping ErrDisconnected if
// every consumer handle has closed — a terminal condition.
type Producer[T any] interface {
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements, implemented by
// every variant's consumer handle.
//
// Dequeue never blocks. It returns the dequeued element on success, a
// *ConsumeError wrapping ErrWouldBlock if the queue is momentarily
// empty, or a *ConsumeError wrapping ErrDisconnected if every producer
// handle has closed and no items remain — a terminal condition.
type Consumer[T any] interface {
	Dequeue() (T, error)
}

// BoundedProducer is a Producer with a known fixed capacity, implemented
// by the producer handles of bounded variants.
type BoundedProducer[T any] interface {
	Producer[T]
	Cap() int
}

// BoundedConsumer is a Consumer with a known fixed capacity, implemented
// by the consumer handles of bounded variants.
type BoundedConsumer[T any] interface {
	Consumer[T]
	Cap() int
}

// Closer is implemented by every producer/consumer handle. Close
// unregisters the handle's contribution to its side's live-handle
// count (§4.8). Once the last handle of a side closes, the other
// side's next operation observes that as disconnection. When both
// sides have no live handles left, the queue's remaining storage is
// released (handles.go's drainAndRelease).
//
// A handle must be closed exactly once: closing it twice double-
// decrements the live count and will manifest as a spurious premature
// disconnection observed by the peer side; every handle method assumes
// single ownership per handle.
type Closer interface {
	Close()
}

// Drainer signals that no more enqueues will occur.
//
// The FAA/SCQ-algorithm bounded queues (MPSC, SPMC) implement this
// interface. SPMC's livelock-prevention threshold can otherwise cause
// Dequeue to return ErrWouldBlock even though items remain, until
// producer activity resets it; calling Drain lets consumers finish
// draining without waiting on producers that are already gone. MPSC's
// single consumer has no threshold, so Drain does not affect its
// Dequeue.
//
// SPSC and MPMC (the sequence-protocol variant, §4.4) have no such
// threshold and do not implement Drainer; a type assertion naturally
// handles that.
type Drainer interface {
	// Drain signals that no more enqueues will occur.
	// Drain is a hint — the caller must ensure no further Enqueue calls
	// will be made after calling Drain.
	Drain()
}

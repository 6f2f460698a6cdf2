// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the queue is full (backpressure)
// For Dequeue: the queue is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later (with backoff or yield) rather than propagating
// the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if lfq.IsWouldBlock(err) {
//	        backoff.Wait()  // Adaptive backpressure
//	        continue
//	    }
//	    if lfq.IsDisconnected(err) {
//	        return err  // Terminal, stop retrying
//	    }
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrDisconnected indicates the operation can never proceed again because
// the peer side of the channel has no live handles left.
//
// Unlike ErrWouldBlock, ErrDisconnected is terminal: once a Dequeue call
// observes it, every subsequent Dequeue on that consumer also observes it
// (and symmetrically, Enqueue/producers). iox has no notion of a
// producer/consumer-tracked terminal disconnect, so this sentinel is
// defined locally rather than assumed to exist in iox.
var ErrDisconnected = errors.New("lfq: disconnected")

// ConsumeErrorKind classifies why a Dequeue call failed.
type ConsumeErrorKind int

const (
	// ConsumeEmpty means the queue is empty but producers are still live.
	// Retryable.
	ConsumeEmpty ConsumeErrorKind = iota
	// ConsumeDisconnected means the queue is empty and every producer
	// handle has been closed. Terminal.
	ConsumeDisconnected
)

// ConsumeError is returned by Dequeue. Empty is transient; Disconnected
// is terminal — no future Dequeue on the same consumer can succeed.
type ConsumeError struct {
	Kind ConsumeErrorKind
}

func (e *ConsumeError) Error() string {
	if e.Kind == ConsumeDisconnected {
		return "lfq: dequeue: disconnected"
	}
	return "lfq: dequeue: would block"
}

// Is reports whether target is ErrWouldBlock (for Empty) or
// ErrDisconnected (for Disconnected), so callers can keep using
// errors.Is(err, lfq.ErrWouldBlock) / errors.Is(err, lfq.ErrDisconnected)
// without type-asserting *ConsumeError.
func (e *ConsumeError) Is(target error) bool {
	if e.Kind == ConsumeDisconnected {
		return target == ErrDisconnected
	}
	return target == ErrWouldBlock
}

func errEmpty() error       { return &ConsumeError{Kind: ConsumeEmpty} }
func errConsumeDisc() error { return &ConsumeError{Kind: ConsumeDisconnected} }

// ProduceErrorKind classifies why an Enqueue call failed.
type ProduceErrorKind int

const (
	// ProduceFull means the (bounded) queue has no free slot right now.
	// Retryable. Never produced by unbounded variants.
	ProduceFull ProduceErrorKind = iota
	// ProduceDisconnected means every consumer handle has been closed.
	// Terminal.
	ProduceDisconnected
)

// ProduceError carries the rejected item back to the caller so no message
// is lost. Full is only produced by bounded variants. Disconnected is
// terminal. Equality via errors.Is ignores Item.
type ProduceError[T any] struct {
	Kind ProduceErrorKind
	Item T
}

func (e *ProduceError[T]) Error() string {
	if e.Kind == ProduceDisconnected {
		return "lfq: enqueue: disconnected"
	}
	return "lfq: enqueue: would block"
}

// Is reports whether target is ErrWouldBlock (for Full) or
// ErrDisconnected (for Disconnected).
func (e *ProduceError[T]) Is(target error) bool {
	if e.Kind == ProduceDisconnected {
		return target == ErrDisconnected
	}
	return target == ErrWouldBlock
}

func errFull[T any](item T) error {
	return &ProduceError[T]{Kind: ProduceFull, Item: item}
}

func errProduceDisc[T any](item T) error {
	return &ProduceError[T]{Kind: ProduceDisconnected, Item: item}
}

// IsWouldBlock reports whether err indicates the operation would block
// (queue full or empty, never disconnected). Delegates to
// [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsDisconnected reports whether err is a terminal disconnection signal.
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic]. ErrDisconnected also counts as semantic:
// it is an expected, documented terminal state rather than a failure.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err) || IsDisconnected(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrDisconnected.
// Delegates to [iox.IsNonFailure] and additionally recognizes
// ErrDisconnected, which iox has no concept of.
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err) || IsDisconnected(err)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides lock-free and wait-free FIFO channels for
// passing values between goroutines without blocking.
//
// Four variants cover the bounded/unbounded × single/multi-producer-
// consumer matrix:
//
//   - NewSPSC: bounded, single-producer single-consumer (Lamport ring)
//   - NewMPMC: bounded, multi-producer multi-consumer (Vyukov sequence protocol)
//   - NewUnboundedSPSC: unbounded, single-producer single-consumer (sentinel list)
//   - NewUnboundedMPMC: unbounded, multi-producer multi-consumer (Michael-Scott queue)
//
// Two supplemental bounded variants (FAA/SCQ algorithm) round out the
// producer/consumer matrix for callers who don't need full MPMC:
//
//   - NewMPSC: bounded, multi-producer single-consumer
//   - NewSPMC: bounded, single-producer multi-consumer
//
// # Handles
//
// Each constructor returns a producer handle and a consumer handle,
// usable from independent goroutines:
//
//	p, c := lfq.NewMPMC[Job](4096)
//
//	go func() {
//	    job := Job{ID: 1}
//	    if err := p.Enqueue(&job); err != nil {
//	        // ...
//	    }
//	}()
//
//	go func() {
//	    job, err := c.Dequeue()
//	    if err == nil {
//	        job.Run()
//	    }
//	}()
//
// A handle whose side permits multiple live owners (MPMC, MPSC
// producers, SPMC consumers) exposes Clone — or, for the unbounded MPMC
// channel whose hazard-pointer domain is sized at construction,
// TryClone, which can fail with ErrCloneExhausted once the channel's
// clone-slot pool is empty. Bounded and unbounded SPSC handles, and the
// non-multi side of MPSC/SPMC, have no Clone method at all: the type
// system itself forbids what the algorithm can't support.
//
// Every handle must be closed exactly once, from the goroutine that
// owns it, when no longer needed:
//
//	p.Close()
//	c.Close()
//
// # Disconnection
//
// Enqueue and Dequeue never block. Enqueue returns a *ProduceError[T]
// wrapping either ErrWouldBlock (the bounded queue is momentarily
// full — retry) or ErrDisconnected (every consumer handle has closed —
// terminal, no retry will ever succeed). Dequeue returns a
// *ConsumeError wrapping ErrWouldBlock (momentarily empty) or
// ErrDisconnected (every producer handle has closed and no items
// remain).
//
//	backoff := iox.Backoff{}
//	for {
//	    err := p.Enqueue(&job)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if lfq.IsDisconnected(err) {
//	        return err // no consumer will ever read this
//	    }
//	    backoff.Wait() // ErrWouldBlock: queue momentarily full
//	}
//
// lfq.IsWouldBlock, lfq.IsDisconnected, lfq.IsSemantic, and
// lfq.IsNonFailure classify an error without a type assertion.
//
// # Capacity
//
// Bounded variants require capacity to be an exact power of 2 no
// smaller than 2; any other value panics at construction rather than
// being silently rounded:
//
//	p, c := lfq.NewSPSC[int](1024) // ok
//	p, c := lfq.NewSPSC[int](1000) // panics: not a power of 2
//
// Cap reports the capacity on any bounded handle. There is no
// Len on the bounded MPMC/MPSC/SPMC variants (an accurate count would
// require the cross-core synchronization the algorithms exist to
// avoid); SPSC's Len/IsEmpty are kept, computed from the ring's own
// cursors, but are documented as an instantaneous approximation —
// concurrent callers should not rely on them for correctness.
//
// Unbounded variants (NewUnboundedSPSC, NewUnboundedMPMC) have no
// capacity and never return a Full/would-block rejection on Enqueue.
//
// # Graceful shutdown
//
// The SPMC queue maintains a livelock-prevention threshold that can
// make Dequeue return ErrWouldBlock even with items still queued, until
// producer activity resets it. Once the producer is done, call Drain on
// the producer handle (it implements Drainer) so consumers stop waiting
// on producer activity that will never come:
//
//	prodWg.Wait()
//	p.Drain()
//	// consumers can now drain everything remaining without
//	// threshold blocking
//
// Drain is a hint: the caller must ensure no further Enqueue calls
// happen afterward. The MPSC producer handle also implements Drainer,
// but its single consumer has no threshold, so Drain does not change
// what its Dequeue returns. NewSPSC and NewMPMC have no such threshold
// and do not implement Drainer.
//
// # Memory reclamation
//
// Both unbounded variants link nodes through sync/atomic.Pointer[T]
// rather than a raw address, so a node in the chain (or awaiting
// retirement) is always reachable to the garbage collector through an
// ordinary typed pointer — it is never visible to Go only as a
// plain integer that the collector cannot trace.
//
// NewUnboundedMPMC additionally reclaims retired nodes through a small
// hazard-pointer domain (package internal/hazard) because the garbage
// collector alone cannot prove a node unreachable at the moment it is
// unlinked: another thread may still be mid-dereference of it. That
// domain tracks nodes by unsafe.Pointer, not uintptr, so a retired-but-
// not-yet-freed node stays rooted until its explicit free callback runs.
// NewUnboundedSPSC needs none of this — with exactly one reader and one
// writer, a node the consumer has advanced past is unreachable from
// both sides and ordinary GC reclaims it.
//
// # Race detection
//
// Go's race detector tracks explicit synchronization (mutexes,
// channels, WaitGroups) but not the happens-before relationships these
// algorithms establish purely through acquire/release orderings on
// separate atomic variables. Expect false positives under -race on the
// concurrent stress tests; the unbounded MPMC stress test skips itself
// when RaceEnabled is true.
//
// # Dependencies
//
// This package uses code.hybscloud.com/iox for semantic errors,
// code.hybscloud.com/atomix for atomics with explicit memory ordering,
// and code.hybscloud.com/spin for CPU-pause backoff in CAS retry loops.
// The two unbounded variants' linked-list pointers use the standard
// library's sync/atomic.Pointer[T] instead, since atomix has no atomic
// pointer type the garbage collector can scan.
package lfq

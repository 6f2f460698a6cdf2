// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "unsafe"

// Options configures queue creation and algorithm selection.
type Options struct {
	// Producer/Consumer constraints (determines queue type)
	singleProducer bool
	singleConsumer bool

	// Capacity (must be a power of 2)
	capacity int
}

// Builder creates bounded channels with fluent configuration.
//
// Builder provides a fluent API for configuring and creating the
// producer/consumer handle pair for a bounded queue. Each Build*
// function builds one fixed variant and panics unless the declared
// producer/consumer constraints match it.
//
// Example:
//
//	// SPSC channel (optimal for single producer/consumer)
//	p, c := lfq.BuildSPSC[Event](lfq.New(1024).SingleProducer().SingleConsumer())
//
//	// MPMC channel (default, general purpose)
//	p, c := lfq.BuildMPMC[Request](lfq.New(4096))
type Builder struct {
	opts Options
}

// New creates a channel builder with the given capacity.
//
// Capacity must be a power of 2 no smaller than 2; any other value
// panics at construction rather than being silently rounded.
//
// Example:
//
//	// Create builder, then configure and build
//	b := lfq.New(1024)
//	p, c := lfq.BuildSPSC[int](b.SingleProducer().SingleConsumer())
//
//	// Or chain directly
//	p, c := lfq.BuildMPMC[int](lfq.New(1024))
func New(capacity int) *Builder {
	validateCapacity(capacity)
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will enqueue.
// Enables the wait-free SPSC ring when paired with SingleConsumer.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will dequeue.
// Enables the wait-free SPSC ring when paired with SingleProducer.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// BuildSPSC creates an SPSC channel with compile-time type safety.
// Panics if builder is not configured with SingleProducer().SingleConsumer().
func BuildSPSC[T any](b *Builder) (*SPSCProducer[T], *SPSCConsumer[T]) {
	if !b.opts.singleProducer || !b.opts.singleConsumer {
		panic("lfq: BuildSPSC requires SingleProducer().SingleConsumer()")
	}
	return NewSPSC[T](b.opts.capacity)
}

// BuildMPSC creates an MPSC channel with compile-time type safety.
// Panics if builder is not configured with SingleConsumer() only.
func BuildMPSC[T any](b *Builder) (*MPSCProducer[T], *MPSCConsumer[T]) {
	if b.opts.singleProducer || !b.opts.singleConsumer {
		panic("lfq: BuildMPSC requires SingleConsumer() without SingleProducer()")
	}
	return NewMPSC[T](b.opts.capacity)
}

// BuildSPMC creates an SPMC channel with compile-time type safety.
// Panics if builder is not configured with SingleProducer() only.
func BuildSPMC[T any](b *Builder) (*SPMCProducer[T], *SPMCConsumer[T]) {
	if !b.opts.singleProducer || b.opts.singleConsumer {
		panic("lfq: BuildSPMC requires SingleProducer() without SingleConsumer()")
	}
	return NewSPMC[T](b.opts.capacity)
}

// BuildMPMC creates an MPMC channel with compile-time type safety.
// Panics if builder has any constraints set.
func BuildMPMC[T any](b *Builder) (*MPMCProducer[T], *MPMCConsumer[T]) {
	if b.opts.singleProducer || b.opts.singleConsumer {
		panic("lfq: BuildMPMC requires no constraints")
	}
	return NewMPMC[T](b.opts.capacity)
}

// validateCapacity panics unless capacity is a power of 2 no smaller
// than 2. Every bounded queue's ring addresses slots with a bitmask
// (capacity-1), which only covers every slot exactly once when capacity
// is a power of 2 — a non-power-of-2 capacity would leave some slots
// unreachable or aliased, so this is rejected at construction rather
// than silently rounded.
func validateCapacity(capacity int) uint64 {
	if capacity < 2 {
		panic("lfq: capacity must be >= 2")
	}
	if capacity&(capacity-1) != 0 {
		panic("lfq: capacity must be a power of 2")
	}
	return uint64(capacity)
}

// cacheLinePointers is the number of pointer-sized words needed for
// 128-byte cache-line-isolation padding: 16 pointers on 64-bit, 32 on
// 32-bit. Both resolve to the same 128 bytes, independent of GOARCH's
// pointer width.
const cacheLinePointers = 128 / int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing between
// producer-side and consumer-side hot fields.
type pad [cacheLinePointers]uintptr

// padShort is padding to fill a cache line after one 8-byte field.
type padShort [cacheLinePointers - 1]uintptr

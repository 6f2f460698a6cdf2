// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hazard is a minimal hazard-pointer-style reclamation service for
// the unbounded MPMC queue. A reader publishes the node it is about to
// dereference into one of its three thread-local slots before touching
// it; a reclaimer only frees a retired node once no thread's slots still
// reference it.
package hazard

import (
	"sync/atomic"
	"unsafe"
)

// Read, Write and Next index the three hazard pointers a thread holds at
// a time: the head node a consume is reading, the tail node a produce is
// linking after, and the successor node being followed on a consume.
const (
	Read = iota
	Write
	Next

	slotsPerThread = 3
)

// batchSize is how many retired pointers a thread accumulates locally
// before scanning every thread's hazard slots for survivors.
const batchSize = 512

// cacheLinePointers keeps one thread's hazard slots off a neighboring
// thread's cache line, same granularity as the rest of the module.
const cacheLinePointers = 128 / 8

type threadSlots struct {
	_     [cacheLinePointers]uintptr
	slots [slotsPerThread]atomic.Pointer[byte]
}

// retired holds ptr as an unsafe.Pointer, not a uintptr: it is the only
// reference left to a node once the queue unlinks it, so it must stay a
// real pointer the garbage collector scans, or the node could be
// reclaimed and its memory reused before free ever runs.
type retired struct {
	ptr  unsafe.Pointer
	free func(unsafe.Pointer)
}

// Domain is a fixed-size hazard-pointer domain for up to threads
// concurrent readers/reclaimers, addressed by thread index.
type Domain struct {
	hazards []threadSlots
	retired [][]retired
}

// NewDomain allocates a domain sized for the given number of threads.
func NewDomain(threads int) *Domain {
	return &Domain{
		hazards: make([]threadSlots, threads),
		retired: make([][]retired, threads),
	}
}

// Mark publishes ptr into thread's slot, protecting it from reclamation
// until Clear is called for the same thread/slot. Returns ptr for
// convenient chaining at call sites.
func (d *Domain) Mark(thread, slot int, ptr unsafe.Pointer) unsafe.Pointer {
	d.hazards[thread].slots[slot].Store((*byte)(ptr))
	return ptr
}

// Clear un-publishes thread's slot.
func (d *Domain) Clear(thread, slot int) {
	d.hazards[thread].slots[slot].Store(nil)
}

// Retire queues ptr for reclamation by free once no thread's hazard
// slots reference it. Retire lists are per-thread: only the owning
// thread ever appends to or scans its own list, so no cross-thread
// contention exists on the hot retire path.
func (d *Domain) Retire(thread int, ptr unsafe.Pointer, free func(unsafe.Pointer)) {
	d.retired[thread] = append(d.retired[thread], retired{ptr: ptr, free: free})
	if len(d.retired[thread]) >= batchSize {
		d.scan(thread)
	}
}

// scan frees every pointer in thread's retire list that no thread's
// hazard slots currently protect, compacting the list in place.
func (d *Domain) scan(thread int) {
	list := d.retired[thread]
	kept := list[:0]
	for _, r := range list {
		if d.hazarded(r.ptr) {
			kept = append(kept, r)
		} else {
			r.free(r.ptr)
		}
	}
	d.retired[thread] = kept
}

func (d *Domain) hazarded(ptr unsafe.Pointer) bool {
	for i := range d.hazards {
		for s := 0; s < slotsPerThread; s++ {
			if unsafe.Pointer(d.hazards[i].slots[s].Load()) == ptr {
				return true
			}
		}
	}
	return false
}

// Deallocate unconditionally frees ptr, bypassing the hazard scan. Only
// safe during single-threaded teardown, when no other thread can still
// be dereferencing ptr.
func (d *Domain) Deallocate(ptr unsafe.Pointer, free func(unsafe.Pointer)) {
	free(ptr)
}

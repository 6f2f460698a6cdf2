// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

// ring is a fixed power-of-two-sized backing store addressed by
// wrap-around index. It is the raw slot buffer every bounded queue lays
// its cursor/sequence protocol on top of; bounded queue cores are
// responsible for clearing cells they've handed back to the consumer
// (so referenced objects can be collected) and for draining any cell
// still live between read and write when the last handle of each side
// closes (handles.go's drainAndRelease path).
//
// Go has no MaybeUninit: cells are ordinary zero-initialized values for
// their entire lifetime rather than genuinely uninitialized until first
// write. ring never scans or zeroes cells on its own; callers own that
// decision.
type ring[T any] struct {
	cells []T
	mask  uint64
}

func newRing[T any](capacity uint64) ring[T] {
	return ring[T]{
		cells: make([]T, capacity),
		mask:  capacity - 1,
	}
}

func (r *ring[T]) size() uint64 {
	return r.mask + 1
}

// wrappingGet returns the cell at i & mask.
func (r *ring[T]) wrappingGet(i uint64) T {
	return r.cells[i&r.mask]
}

// wrappingSet stores v into the cell at i & mask.
func (r *ring[T]) wrappingSet(i uint64, v T) {
	r.cells[i&r.mask] = v
}

// wrappingClear zeroes the cell at i & mask, releasing any reference it
// held for garbage collection.
func (r *ring[T]) wrappingClear(i uint64) {
	var zero T
	r.cells[i&r.mask] = zero
}

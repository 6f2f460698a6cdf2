// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/spin"

	"code.chanq.dev/lfq/internal/hazard"
)

// ErrCloneExhausted is returned by TryClone when a channel's clone-slot
// pool has no free hazard-pointer thread slots left to hand out.
var ErrCloneExhausted = errors.New("lfq: clone slots exhausted")

// mpmcNode is a Michael-Scott queue node. Like spscNode, the value
// handed to a consumer on dequeue comes from head's successor, not
// from head itself — head always points at a consumed sentinel.
//
// next is a sync/atomic.Pointer rather than an atomix.Uintptr: atomix
// has no atomic pointer type, and representing next as a bare integer
// would make a linked-in node invisible to the garbage collector —
// reachable in the algorithm's sense, but not in Go's. Keeping next a
// real typed pointer means every node still in the chain stays alive
// through ordinary GC reachability.
type mpmcNode[T any] struct {
	next  atomic.Pointer[mpmcNode[T]]
	value T
}

// cloneSlotPool hands out hazard-pointer thread ids 2..clones+1 to
// cloned handles; ids 0 and 1 are permanently reserved for the
// channel's original producer and consumer. Acquiring/releasing a slot
// is the one place this queue takes a lock — only at handle
// construction/destruction, never on the produce/consume path.
type cloneSlotPool struct {
	mu   sync.Mutex
	free []int
}

func newCloneSlotPool(clones int) *cloneSlotPool {
	free := make([]int, clones)
	for i := range free {
		free[i] = i + 2
	}
	return &cloneSlotPool{free: free}
}

func (p *cloneSlotPool) acquire() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return 0, false
	}
	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return id, true
}

func (p *cloneSlotPool) release(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, id)
}

// unboundedMPMCCore is the Michael-Scott lock-free linked queue behind
// an unbounded MPMC channel, reclaiming retired nodes through a
// hazard-pointer domain rather than relying on the garbage collector
// alone — nodes can be concurrently dereferenced by any thread that
// last observed them as head or tail, so a thread must publish its
// intent before following a link and a reclaimer must check every
// thread's published intent before freeing a node.
type unboundedMPMCCore[T any] struct {
	_      pad
	head   atomic.Pointer[mpmcNode[T]]
	_      pad
	tail   atomic.Pointer[mpmcNode[T]]
	_      pad
	domain *hazard.Domain
	clones *cloneSlotPool
	lifecycle
}

// drainAndRelease walks whatever remains of the chain and hands every
// node to the hazard domain's unconditional teardown path: by this
// point both sides have closed, so no other thread can still be
// reading or reclaiming concurrently.
func (q *unboundedMPMCCore[T]) drainAndRelease() {
	n := q.head.Load()
	for n != nil {
		next := n.next.Load()
		q.domain.Deallocate(unsafe.Pointer(n), func(ptr unsafe.Pointer) {
			node := (*mpmcNode[T])(ptr)
			var zero T
			node.value = zero
		})
		n = next
	}
	q.head.Store(nil)
	q.tail.Store(nil)
}

// UnboundedMPMCProducer is a producer handle of an unbounded
// multi-producer multi-consumer channel.
type UnboundedMPMCProducer[T any] struct {
	q        *unboundedMPMCCore[T]
	threadID int
}

// UnboundedMPMCConsumer is a consumer handle of an unbounded
// multi-producer multi-consumer channel.
type UnboundedMPMCConsumer[T any] struct {
	q        *unboundedMPMCCore[T]
	threadID int
}

// NewUnboundedMPMC creates an unbounded Michael-Scott MPMC channel and
// returns its initial producer and consumer handles. clones bounds how
// many additional handles (via TryClone) the channel's hazard-pointer
// domain can serve concurrently, beyond the initial pair.
func NewUnboundedMPMC[T any](clones int) (*UnboundedMPMCProducer[T], *UnboundedMPMCConsumer[T]) {
	sentinel := &mpmcNode[T]{}
	q := &unboundedMPMCCore[T]{
		domain: hazard.NewDomain(clones + 2),
		clones: newCloneSlotPool(clones),
	}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	q.lifecycle.init()
	return &UnboundedMPMCProducer[T]{q: q, threadID: 0}, &UnboundedMPMCConsumer[T]{q: q, threadID: 1}
}

// Enqueue appends elem. Always succeeds unless the consumer handle has
// closed, in which case it returns a *ProduceError[T] wrapping
// ErrDisconnected.
func (p *UnboundedMPMCProducer[T]) Enqueue(elem *T) error {
	q := p.q
	if !q.consumers.alive() {
		return errProduceDisc(*elem)
	}
	n := &mpmcNode[T]{value: *elem}

	sw := spin.Wait{}
	for {
		tailPtr := q.tail.Load()
		q.domain.Mark(p.threadID, hazard.Write, unsafe.Pointer(tailPtr))
		if q.tail.Load() != tailPtr {
			sw.Once()
			continue
		}
		next := tailPtr.next.Load()
		if next == nil {
			if tailPtr.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tailPtr, n)
				q.domain.Clear(p.threadID, hazard.Write)
				return nil
			}
		} else {
			q.tail.CompareAndSwap(tailPtr, next)
		}
		sw.Once()
	}
}

// TryClone returns a new producer handle sharing this channel, or
// ErrCloneExhausted if the channel's clone-slot pool is exhausted.
func (p *UnboundedMPMCProducer[T]) TryClone() (*UnboundedMPMCProducer[T], error) {
	id, ok := p.q.clones.acquire()
	if !ok {
		return nil, ErrCloneExhausted
	}
	p.q.producers.clone()
	return &UnboundedMPMCProducer[T]{q: p.q, threadID: id}, nil
}

// Close unregisters this producer handle, returning its hazard-pointer
// thread slot to the clone pool if it was a cloned handle.
func (p *UnboundedMPMCProducer[T]) Close() {
	p.q.lifecycle.closeProducer(p.q)
	if p.threadID >= 2 {
		p.q.clones.release(p.threadID)
	}
}

// Dequeue removes and returns the oldest element. Returns a
// *ConsumeError wrapping ErrWouldBlock if the queue is momentarily
// empty, or ErrDisconnected if every producer handle has closed and no
// items remain.
func (c *UnboundedMPMCConsumer[T]) Dequeue() (T, error) {
	q := c.q
	sw := spin.Wait{}
	for {
		headPtr := q.head.Load()
		q.domain.Mark(c.threadID, hazard.Read, unsafe.Pointer(headPtr))
		if q.head.Load() != headPtr {
			sw.Once()
			continue
		}
		tailPtr := q.tail.Load()
		nextPtr := headPtr.next.Load()
		q.domain.Mark(c.threadID, hazard.Next, unsafe.Pointer(nextPtr))
		if q.head.Load() != headPtr {
			sw.Once()
			continue
		}

		if nextPtr == nil {
			q.domain.Clear(c.threadID, hazard.Read)
			q.domain.Clear(c.threadID, hazard.Next)
			var zero T
			if q.producers.alive() {
				return zero, errEmpty()
			}
			return zero, errConsumeDisc()
		}

		if headPtr == tailPtr {
			// Tail lags behind; help it catch up before retrying.
			q.tail.CompareAndSwap(tailPtr, nextPtr)
			sw.Once()
			continue
		}

		elem := nextPtr.value
		if q.head.CompareAndSwap(headPtr, nextPtr) {
			q.domain.Clear(c.threadID, hazard.Read)
			q.domain.Clear(c.threadID, hazard.Next)
			retiredNode := headPtr
			q.domain.Retire(c.threadID, unsafe.Pointer(retiredNode), func(ptr unsafe.Pointer) {
				node := (*mpmcNode[T])(ptr)
				var zero T
				node.value = zero
			})
			return elem, nil
		}
		sw.Once()
	}
}

// TryClone returns a new consumer handle sharing this channel, or
// ErrCloneExhausted if the channel's clone-slot pool is exhausted.
func (c *UnboundedMPMCConsumer[T]) TryClone() (*UnboundedMPMCConsumer[T], error) {
	id, ok := c.q.clones.acquire()
	if !ok {
		return nil, ErrCloneExhausted
	}
	c.q.consumers.clone()
	return &UnboundedMPMCConsumer[T]{q: c.q, threadID: id}, nil
}

// Close unregisters this consumer handle, returning its hazard-pointer
// thread slot to the clone pool if it was a cloned handle.
func (c *UnboundedMPMCConsumer[T]) Close() {
	c.q.lifecycle.closeConsumer(c.q)
	if c.threadID >= 2 {
		c.q.clones.release(c.threadID)
	}
}

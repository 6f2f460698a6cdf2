// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"errors"
	"sync"
	"testing"

	"code.chanq.dev/lfq"
	"code.hybscloud.com/atomix"
)

func TestUnboundedMPMCBasic(t *testing.T) {
	p, c := lfq.NewUnboundedMPMC[int](0)

	for i := range 10 {
		v := i
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := range 10 {
		val, err := c.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i)
		}
	}

	if _, err := c.Dequeue(); !lfq.IsWouldBlock(err) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestUnboundedMPMCCloneLimit covers a channel built with clones=2,
// the initial producer clones once (succeeds), the initial consumer
// clones once (succeeds), a second clone attempt on either side fails.
func TestUnboundedMPMCCloneLimit(t *testing.T) {
	p, c := lfq.NewUnboundedMPMC[int](2)

	p2, err := p.TryClone()
	if err != nil {
		t.Fatalf("first producer TryClone: %v", err)
	}
	c2, err := c.TryClone()
	if err != nil {
		t.Fatalf("first consumer TryClone: %v", err)
	}

	if _, err := p.TryClone(); !errors.Is(err, lfq.ErrCloneExhausted) {
		t.Fatalf("second producer TryClone: got %v, want ErrCloneExhausted", err)
	}
	if _, err := c.TryClone(); !errors.Is(err, lfq.ErrCloneExhausted) {
		t.Fatalf("second consumer TryClone: got %v, want ErrCloneExhausted", err)
	}

	// Releasing a clone's slot frees it up for reuse.
	p2.Close()
	p3, err := p.TryClone()
	if err != nil {
		t.Fatalf("TryClone after release: %v", err)
	}

	p.Close()
	p3.Close()
	c.Close()
	c2.Close()
}

func TestUnboundedMPMCDisconnection(t *testing.T) {
	t.Run("ConsumersGone", func(t *testing.T) {
		p, c := lfq.NewUnboundedMPMC[int](0)
		c.Close()
		v := 1
		if err := p.Enqueue(&v); !lfq.IsDisconnected(err) {
			t.Fatalf("Enqueue after consumer closed: got %v, want disconnected", err)
		}
	})

	t.Run("ProducersGoneDrainsThenDisconnects", func(t *testing.T) {
		p, c := lfq.NewUnboundedMPMC[int](0)
		v := 7
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		p.Close()

		got, err := c.Dequeue()
		if err != nil || got != 7 {
			t.Fatalf("Dequeue: got (%d, %v), want (7, nil)", got, err)
		}
		if _, err := c.Dequeue(); !lfq.IsDisconnected(err) {
			t.Fatalf("Dequeue after drain: got %v, want disconnected", err)
		}
	})
}

func TestUnboundedMPMCConcurrentProducersConsumers(t *testing.T) {
	if lfq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const producers = 4
	const consumers = 4
	p, c := lfq.NewUnboundedMPMC[int](producers + consumers)
	const perProducer = 2000

	var produced, consumed atomix.Int64

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		pc, err := p.TryClone()
		if err != nil {
			t.Fatalf("TryClone producer: %v", err)
		}
		go func() {
			defer wg.Done()
			defer pc.Close()
			for i := range perProducer {
				v := i
				if err := pc.Enqueue(&v); err == nil {
					produced.Add(1)
				}
			}
		}()
	}
	p.Close()

	var cwg sync.WaitGroup
	for range consumers {
		cwg.Add(1)
		cc, err := c.TryClone()
		if err != nil {
			t.Fatalf("TryClone consumer: %v", err)
		}
		go func() {
			defer cwg.Done()
			defer cc.Close()
			for {
				if _, err := cc.Dequeue(); err == nil {
					consumed.Add(1)
				} else if lfq.IsDisconnected(err) {
					return
				}
			}
		}()
	}
	c.Close()

	wg.Wait()
	cwg.Wait()

	if produced.Load() != consumed.Load() {
		t.Fatalf("produced %d, consumed %d", produced.Load(), consumed.Load())
	}
}

func TestUnboundedMPMCCloneExhaustedSentinel(t *testing.T) {
	p, _ := lfq.NewUnboundedMPMC[int](0)
	if _, err := p.TryClone(); !errors.Is(err, lfq.ErrCloneExhausted) {
		t.Fatalf("TryClone with clones=0: got %v, want ErrCloneExhausted", err)
	}
}

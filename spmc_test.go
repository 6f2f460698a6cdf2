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

func TestSPMCBasic(t *testing.T) {
	p, c := lfq.NewSPMC[int](4)

	if p.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", p.Cap())
	}

	for i := range 4 {
		v := i + 100
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	v := 999
	if err := p.Enqueue(&v); !errors.Is(err, lfq.ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 4 {
		val, err := c.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}
}

func TestSPMCDisconnection(t *testing.T) {
	t.Run("ConsumersGone", func(t *testing.T) {
		p, c := lfq.NewSPMC[int](4)
		c.Close()
		v := 1
		if err := p.Enqueue(&v); !lfq.IsDisconnected(err) {
			t.Fatalf("Enqueue after consumer closed: got %v, want disconnected", err)
		}
	})

	t.Run("ProducerGoneEmpty", func(t *testing.T) {
		p, c := lfq.NewSPMC[int](4)
		p.Close()
		if _, err := c.Dequeue(); !lfq.IsDisconnected(err) {
			t.Fatalf("Dequeue after producer closed: got %v, want disconnected", err)
		}
	})
}

func TestSPMCDrain(t *testing.T) {
	p, c := lfq.NewSPMC[int](4)
	v := 1
	if err := p.Enqueue(&v); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	p.Drain()
	got, err := c.Dequeue()
	if err != nil || got != 1 {
		t.Fatalf("Dequeue after Drain: got (%d, %v), want (1, nil)", got, err)
	}
}

// TestSPMCCloneConcurrentConsumers has one producer pushing N items and
// multiple cloned consumers racing to drain them; every item must be
// seen by exactly one consumer.
func TestSPMCCloneConcurrentConsumers(t *testing.T) {
	p, c := lfq.NewSPMC[int](64)
	const total = 4000
	const consumers = 8

	var received atomix.Int64
	var wg sync.WaitGroup
	for range consumers {
		wg.Add(1)
		cc := c.Clone()
		go func() {
			defer wg.Done()
			defer cc.Close()
			for {
				_, err := cc.Dequeue()
				if err == nil {
					received.Add(1)
					continue
				}
				if lfq.IsDisconnected(err) {
					return
				}
			}
		}()
	}
	c.Close()

	for i := range total {
		v := i
		for p.Enqueue(&v) != nil {
		}
	}
	p.Drain()
	p.Close()

	wg.Wait()
	if got := received.Load(); got != total {
		t.Fatalf("received %d items, want %d", got, total)
	}
}

func TestSPMCPanicOnSmallCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for capacity < 2")
		}
	}()
	lfq.NewSPMC[int](1)
}

func TestSPMCPanicOnNonPowerOfTwoCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-power-of-2 capacity")
		}
	}()
	lfq.NewSPMC[int](3)
}

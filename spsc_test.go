// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"errors"
	"testing"

	"code.chanq.dev/lfq"
)

// TestSPSCBasic tests basic SPSC enqueue/dequeue.
func TestSPSCBasic(t *testing.T) {
	p, c := lfq.NewSPSC[int](4)

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

	if _, err := c.Dequeue(); !errors.Is(err, lfq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestSPSCDrainScenario covers a producer sending several items,
// [1,2,3,4] then drops, consumer reads four values then Disconnected.
func TestSPSCDrainScenario(t *testing.T) {
	p, c := lfq.NewSPSC[int](4)

	for _, v := range []int{1, 2, 3, 4} {
		v := v
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", v, err)
		}
	}
	p.Close()

	for _, want := range []int{1, 2, 3, 4} {
		got, err := c.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got != want {
			t.Fatalf("Dequeue: got %d, want %d", got, want)
		}
	}

	if _, err := c.Dequeue(); !lfq.IsDisconnected(err) {
		t.Fatalf("final Dequeue: got %v, want disconnected", err)
	}
}

// TestSPSCFullScenario covers filling a size-2 queue with 10 and 20; a
// third produce(30) returns Full(30); a consume yields 10; retrying
// produce(30) then succeeds.
func TestSPSCFullScenario(t *testing.T) {
	p, c := lfq.NewSPSC[int](2)

	v10, v20, v30 := 10, 20, 30
	if err := p.Enqueue(&v10); err != nil {
		t.Fatalf("Enqueue(10): %v", err)
	}
	if err := p.Enqueue(&v20); err != nil {
		t.Fatalf("Enqueue(20): %v", err)
	}

	err := p.Enqueue(&v30)
	var pe *lfq.ProduceError[int]
	if !errors.As(err, &pe) || pe.Kind != lfq.ProduceFull || pe.Item != 30 {
		t.Fatalf("Enqueue(30) on full: got %#v, want Full(30)", err)
	}

	got, err := c.Dequeue()
	if err != nil || got != 10 {
		t.Fatalf("Dequeue: got (%d, %v), want (10, nil)", got, err)
	}

	if err := p.Enqueue(&v30); err != nil {
		t.Fatalf("retry Enqueue(30): %v", err)
	}
}

// TestSPSCDisconnection verifies both directions of §4.8 disconnection.
func TestSPSCDisconnection(t *testing.T) {
	t.Run("ConsumerGone", func(t *testing.T) {
		p, c := lfq.NewSPSC[int](4)
		c.Close()
		v := 1
		if err := p.Enqueue(&v); !lfq.IsDisconnected(err) {
			t.Fatalf("Enqueue after consumer closed: got %v, want disconnected", err)
		}
	})

	t.Run("ProducerGoneEmpty", func(t *testing.T) {
		p, c := lfq.NewSPSC[int](4)
		p.Close()
		if _, err := c.Dequeue(); !lfq.IsDisconnected(err) {
			t.Fatalf("Dequeue after producer closed: got %v, want disconnected", err)
		}
	})
}

// TestSPSCWrapAround exercises repeated fill/drain cycles across the
// ring boundary.
func TestSPSCWrapAround(t *testing.T) {
	p, c := lfq.NewSPSC[int](4)

	for round := range 10 {
		for i := range 4 {
			v := round*100 + i
			if err := p.Enqueue(&v); err != nil {
				t.Fatalf("round %d enqueue %d: %v", round, i, err)
			}
		}
		for i := range 4 {
			val, err := c.Dequeue()
			if err != nil {
				t.Fatalf("round %d dequeue %d: %v", round, i, err)
			}
			if want := round*100 + i; val != want {
				t.Fatalf("round %d dequeue %d: got %d, want %d", round, i, val, want)
			}
		}
	}
}

func TestSPSCPanicOnSmallCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for capacity < 2")
		}
	}()
	lfq.NewSPSC[int](1)
}

func TestSPSCPanicOnNonPowerOfTwoCapacity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-power-of-2 capacity")
		}
	}()
	lfq.NewSPSC[int](3)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq_test

import (
	"testing"

	"code.chanq.dev/lfq"
)

func TestUnboundedSPSCBasic(t *testing.T) {
	p, c := lfq.NewUnboundedSPSC[int]()

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

// TestUnboundedSPSCAcceptsMillion covers a producer sending
// 1,000,000 distinct integers with no intervening consumes; every
// produce succeeds; the consumer then reads them back in order.
func TestUnboundedSPSCAcceptsMillion(t *testing.T) {
	const n = 1_000_000
	p, c := lfq.NewUnboundedSPSC[int]()

	for i := range n {
		v := i
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := range n {
		val, err := c.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i)
		}
	}
}

func TestUnboundedSPSCDisconnection(t *testing.T) {
	t.Run("ConsumerGone", func(t *testing.T) {
		p, c := lfq.NewUnboundedSPSC[int]()
		c.Close()
		v := 1
		if err := p.Enqueue(&v); !lfq.IsDisconnected(err) {
			t.Fatalf("Enqueue after consumer closed: got %v, want disconnected", err)
		}
	})

	t.Run("ProducerGoneDrainsThenDisconnects", func(t *testing.T) {
		p, c := lfq.NewUnboundedSPSC[int]()
		v := 42
		if err := p.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		p.Close()

		got, err := c.Dequeue()
		if err != nil || got != 42 {
			t.Fatalf("Dequeue: got (%d, %v), want (42, nil)", got, err)
		}
		if _, err := c.Dequeue(); !lfq.IsDisconnected(err) {
			t.Fatalf("Dequeue after drain: got %v, want disconnected", err)
		}
	})
}

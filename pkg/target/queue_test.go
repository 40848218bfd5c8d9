/*
Copyright 2017 The GoStor Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package target

import (
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
)

func newXfer(qs *queueSet, dir api.Direction, resid uint32) *descriptor {
	d := qs.arena.alloc()
	d.xfer = true
	d.dir = dir
	d.resid = resid
	return d
}

func TestQueueMove(t *testing.T) {
	qs := newQueueSet(newArena(4))
	a := qs.arena.alloc()
	b := qs.arena.alloc()

	qs.move(a, qWork, false)
	qs.move(b, qWork, true)
	if h := qs.handles(qWork); len(h) != 2 || h[0] != b.handle || h[1] != a.handle {
		t.Fatalf("unexpected work queue %v", h)
	}
	qs.move(b, qPending, false)
	if qs.len(qWork) != 1 || qs.len(qPending) != 1 || b.queue != qPending {
		t.Fatalf("unexpected depths %+v", qs.depths())
	}
	qs.move(b, qNone, false)
	if qs.len(qPending) != 0 || b.queue != qNone {
		t.Errorf("descriptor still queued: %+v", qs.depths())
	}

	defer func() {
		if recover() == nil {
			t.Error("moving a descriptor missing from its queue did not panic")
		}
	}()
	b.queue = qUnknown
	qs.move(b, qWork, false)
}

func TestQueuePairing(t *testing.T) {
	qs := newQueueSet(newArena(4))

	var tests = []struct {
		bufFirst bool
		resid    uint32
		size     int
		incr     uint32
	}{
		{false, 4096, 1024, 1024},
		{true, 4096, 1024, 1024},
		{false, 100, 4096, 100},
		{true, 100, 4096, 100},
	}
	for _, tt := range tests {
		d := newXfer(qs, api.DirSend, tt.resid)
		b := NewBuffer(api.DirSend, make([]byte, tt.size), nil)
		if tt.bufFirst {
			if qs.submitBuffer(b) != nil {
				t.Fatal("buffer paired with no command waiting")
			}
			if !qs.submitCommand(d, false) {
				t.Fatal("command not paired with the parked buffer")
			}
		} else {
			if qs.submitCommand(d, false) {
				t.Fatal("command paired with no buffer parked")
			}
			if got := qs.submitBuffer(b); got != d {
				t.Fatal("buffer not paired with the waiting command")
			}
		}
		if d.buf != b || !b.busy || d.queue != qWork || d.increment != tt.incr {
			t.Errorf("unexpected pairing: queue %v increment %d", d.queue, d.increment)
		}
		qs.move(d, qNone, false)
		qs.arena.release(d)
	}
}

func TestQueueDirections(t *testing.T) {
	qs := newQueueSet(newArena(4))
	recv := newXfer(qs, api.DirReceive, 10)
	qs.submitCommand(recv, false)

	if qs.submitBuffer(NewBuffer(api.DirSend, make([]byte, 10), nil)) != nil {
		t.Error("send buffer paired with a command receiving data")
	}
	if qs.submitBuffer(NewBuffer(api.DirReceive, make([]byte, 10), nil)) != recv {
		t.Error("receive buffer not paired")
	}
	if d := qs.depths(); d.SendBufs != 1 || d.ReceiveBufs != 0 || d.ReceiveXfer != 0 {
		t.Errorf("unexpected depths %+v", d)
	}
	if got := qs.drainBuffers(); len(got) != 1 || got[0].Dir != api.DirSend {
		t.Errorf("unexpected drained buffers %v", got)
	}
}

func TestNextWorkPrefersTransfers(t *testing.T) {
	qs := newQueueSet(newArena(4))
	plain := qs.arena.alloc()
	qs.move(plain, qWork, false)
	if qs.nextWork() != plain {
		t.Fatal("plain response not picked")
	}

	d := newXfer(qs, api.DirSend, 10)
	qs.submitCommand(d, false)
	qs.submitBuffer(NewBuffer(api.DirSend, make([]byte, 10), nil))
	if qs.nextWork() != d {
		t.Error("paired transfer not picked first")
	}
}

func TestTakeBuffer(t *testing.T) {
	qs := newQueueSet(newArena(1))
	b1 := NewBuffer(api.DirReceive, nil, nil)
	b2 := NewBuffer(api.DirReceive, nil, nil)
	qs.submitBuffer(b1)
	qs.submitBuffer(b2)

	if qs.takeBuffer(b2.ID) != b2 || qs.takeBuffer(b2.ID) != nil {
		t.Error("unexpected take result")
	}
	if d := qs.depths(); d.ReceiveBufs != 1 {
		t.Errorf("unexpected depths %+v", d)
	}
}

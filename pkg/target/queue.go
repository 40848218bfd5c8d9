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
	"fmt"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/util"
	uuid "github.com/satori/go.uuid"
)

type queueID int

const (
	qNone queueID = iota
	qWork
	qPending
	qSendXfer
	qRecvXfer
	qUnknown
	numQueues
)

var queueNames = [numQueues]string{"none", "work", "pending", "send-transfer", "receive-transfer", "unknown"}

func (q queueID) String() string {
	if q >= 0 && q < numQueues {
		return queueNames[q]
	}
	return fmt.Sprintf("queue(%d)", int(q))
}

// handleQueue is a FIFO of descriptor handles.
type handleQueue []Handle

func (q *handleQueue) pushBack(h Handle) {
	*q = append(*q, h)
}

func (q *handleQueue) pushFront(h Handle) {
	*q = append(*q, Handle{})
	copy((*q)[1:], *q)
	(*q)[0] = h
}

func (q *handleQueue) remove(h Handle) bool {
	for i, v := range *q {
		if v == h {
			*q = append((*q)[:i], (*q)[i+1:]...)
			return true
		}
	}
	return false
}

// queueSet holds the five logical queues of a logical unit and the parked
// user buffers of both directions.
type queueSet struct {
	arena  *arena
	queues [numQueues]handleQueue
	bufs   [2][]*Buffer
}

func newQueueSet(a *arena) *queueSet {
	return &queueSet{arena: a}
}

func (qs *queueSet) len(q queueID) int {
	return len(qs.queues[q])
}

// handles returns a copy of the handles of q in queue order.
func (qs *queueSet) handles(q queueID) []Handle {
	return append([]Handle(nil), qs.queues[q]...)
}

// move is the only way queue membership changes: d leaves its current queue
// before it joins the next one.
func (qs *queueSet) move(d *descriptor, to queueID, front bool) {
	if d.queue != qNone {
		if !qs.queues[d.queue].remove(d.handle) {
			panic(fmt.Sprintf("descriptor %v not on %v queue", d.handle, d.queue))
		}
	}
	d.queue = to
	if to == qNone {
		return
	}
	if front {
		qs.queues[to].pushFront(d.handle)
	} else {
		qs.queues[to].pushBack(d.handle)
	}
}

func xferQueue(dir api.Direction) queueID {
	if dir == api.DirSend {
		return qSendXfer
	}
	return qRecvXfer
}

// pair binds b to d and puts the pair on the work queue.
func (qs *queueSet) pair(d *descriptor, b *Buffer) {
	d.buf = b
	b.busy = true
	if b.EOF {
		d.increment = 0
	} else {
		d.increment = util.MinUint32(d.resid, b.remaining())
	}
	qs.move(d, qWork, false)
}

// submitBuffer pairs b with the oldest command waiting for its direction or
// parks it. It returns the paired descriptor, if any.
func (qs *queueSet) submitBuffer(b *Buffer) *descriptor {
	q := xferQueue(b.Dir)
	if qs.len(q) > 0 {
		d := qs.arena.get(qs.queues[q][0])
		qs.pair(d, b)
		return d
	}
	qs.bufs[b.Dir] = append(qs.bufs[b.Dir], b)
	return nil
}

// submitCommand pairs d with the oldest parked buffer of its direction or
// queues it. Commands coming back for more data use front to keep their
// place ahead of later arrivals.
func (qs *queueSet) submitCommand(d *descriptor, front bool) bool {
	if list := qs.bufs[d.dir]; len(list) > 0 {
		b := list[0]
		qs.bufs[d.dir] = list[1:]
		qs.pair(d, b)
		return true
	}
	qs.move(d, xferQueue(d.dir), front)
	return false
}

// nextWork picks the next descriptor to respond to: paired transfers first,
// then plain responses, FIFO within each class.
func (qs *queueSet) nextWork() *descriptor {
	var first *descriptor
	for _, h := range qs.queues[qWork] {
		d := qs.arena.get(h)
		if d.buf != nil {
			return d
		}
		if first == nil {
			first = d
		}
	}
	return first
}

// takeBuffer removes the parked buffer id.
func (qs *queueSet) takeBuffer(id uuid.UUID) *Buffer {
	for dir, list := range qs.bufs {
		for i, b := range list {
			if uuid.Equal(b.ID, id) {
				qs.bufs[dir] = append(list[:i:i], list[i+1:]...)
				return b
			}
		}
	}
	return nil
}

// drainBuffers empties both free-lists.
func (qs *queueSet) drainBuffers() []*Buffer {
	out := append(qs.bufs[api.DirSend], qs.bufs[api.DirReceive]...)
	qs.bufs[api.DirSend] = nil
	qs.bufs[api.DirReceive] = nil
	return out
}

func (qs *queueSet) depths() api.QueueDepths {
	return api.QueueDepths{
		Work:        qs.len(qWork),
		Pending:     qs.len(qPending),
		SendXfer:    qs.len(qSendXfer),
		ReceiveXfer: qs.len(qRecvXfer),
		Unknown:     qs.len(qUnknown),
		SendBufs:    len(qs.bufs[api.DirSend]),
		ReceiveBufs: len(qs.bufs[api.DirReceive]),
	}
}

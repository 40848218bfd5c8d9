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
	"time"

	"github.com/gostor/scsitarg/pkg/api"
)

// DefaultMaxDescriptors bounds the commands a logical unit holds at once.
const DefaultMaxDescriptors = 64

// Handle names a command descriptor. The generation changes every time the
// slot is recycled so handles of finished commands never resolve again.
type Handle struct {
	Index uint32
	Gen   uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.Index, h.Gen)
}

// ParseHandle is the inverse of Handle.String.
func ParseHandle(s string) (Handle, error) {
	var h Handle
	if _, err := fmt.Sscanf(s, "%d.%d", &h.Index, &h.Gen); err != nil {
		return h, fmt.Errorf("bad parameter: invalid command handle %q", s)
	}
	return h, nil
}

type descriptor struct {
	handle Handle
	inUse  bool
	queue  queueID

	initiator  int
	tag        uint32
	tagged     bool
	cdb        []byte
	disconnect bool
	timeout    time.Duration

	// xfer marks SEND/RECEIVE commands whose data comes from user buffers.
	xfer bool
	dir  api.Direction

	data      []byte
	resid     uint32
	increment uint32
	moved     uint32
	status    byte
	sense     *api.SenseData

	buf   *Buffer
	cycle uint64
	final bool
}

func (d *descriptor) info() api.CommandInfo {
	return api.CommandInfo{
		Handle:    d.handle.String(),
		Initiator: d.initiator,
		Tag:       d.tag,
		Tagged:    d.tagged,
		CDB:       append([]byte(nil), d.cdb...),
		Queue:     d.queue.String(),
		Resid:     d.resid,
		Moved:     d.moved,
	}
}

func (d *descriptor) matches(initiator int, tag uint32) bool {
	if initiator != api.Wildcard && d.initiator != initiator {
		return false
	}
	return tag == api.AnyTag || d.tag == tag
}

// arena owns every descriptor of a logical unit.
type arena struct {
	slots []descriptor
	free  []uint32
}

func newArena(size int) *arena {
	if size <= 0 {
		size = DefaultMaxDescriptors
	}
	a := &arena{
		slots: make([]descriptor, size),
		free:  make([]uint32, 0, size),
	}
	for i := size - 1; i >= 0; i-- {
		a.slots[i].handle.Index = uint32(i)
		a.free = append(a.free, uint32(i))
	}
	return a
}

// alloc returns a cleared descriptor, or nil when every slot is busy.
func (a *arena) alloc() *descriptor {
	if len(a.free) == 0 {
		return nil
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	d := &a.slots[idx]
	*d = descriptor{handle: d.handle, inUse: true}
	return d
}

func (a *arena) get(h Handle) *descriptor {
	if int(h.Index) >= len(a.slots) {
		return nil
	}
	d := &a.slots[h.Index]
	if !d.inUse || d.handle.Gen != h.Gen {
		return nil
	}
	return d
}

func (a *arena) release(d *descriptor) {
	if !d.inUse {
		panic(fmt.Sprintf("descriptor %v released twice", d.handle))
	}
	h := d.handle
	h.Gen++
	*d = descriptor{handle: h}
	a.free = append(a.free, h.Index)
}

func (a *arena) inUse() int {
	return len(a.slots) - len(a.free)
}

func (a *arena) each(fn func(d *descriptor)) {
	for i := range a.slots {
		if a.slots[i].inUse {
			fn(&a.slots[i])
		}
	}
}

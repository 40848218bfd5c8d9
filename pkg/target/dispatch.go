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
	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/scsi"
	"github.com/gostor/scsitarg/pkg/util"
)

func acceptInfo(ev api.AcceptEvent) api.CommandInfo {
	return api.CommandInfo{
		Initiator: ev.Initiator,
		Tag:       ev.Tag,
		Tagged:    ev.Tagged,
		CDB:       ev.CDB,
	}
}

func (e *Engine) refuse(ev api.AcceptEvent, err error) {
	info := acceptInfo(ev)
	e.later(func() { e.transport.CommandDone(info, err) })
}

func (e *Engine) handleAccept(ev api.AcceptEvent) {
	if e.state == api.EngineTeardown {
		e.refuse(ev, api.ErrTeardown)
		return
	}
	if !e.initiators.Valid(ev.Initiator) {
		e.log.Warnf("command from invalid initiator %d", ev.Initiator)
		e.refuse(ev, api.ErrInvalidInitiator)
		return
	}
	e.backlog = append(e.backlog, ev)
}

// admit moves backlogged commands into free descriptors.
func (e *Engine) admit() {
	for len(e.backlog) > 0 && e.state != api.EngineTeardown {
		d := e.arena.alloc()
		if d == nil {
			return
		}
		ev := e.backlog[0]
		e.backlog[0] = api.AcceptEvent{}
		e.backlog = e.backlog[1:]

		d.initiator = ev.Initiator
		d.tag = ev.Tag
		d.tagged = ev.Tagged
		d.cdb = append([]byte(nil), ev.CDB...)
		d.disconnect = ev.DisconnectAllowed
		d.timeout = e.cfg.ResponseTimeout
		e.classify(d, ev.Sense)
	}
}

// respond queues a synchronously built response for d.
func (e *Engine) respond(d *descriptor, status byte, data []byte, sense *api.SenseData) {
	d.status = status
	d.data = data
	d.sense = sense
	d.resid = uint32(len(data))
	e.queues.move(d, qWork, false)
}

func (e *Engine) respondResult(d *descriptor, res scsi.SPCResult) {
	if res.Status == api.SAM_STAT_CHECK_CONDITION && res.Sense != nil {
		e.initiators.RaiseContingentAllegiance(d.initiator, *res.Sense)
	}
	e.respond(d, res.Status, res.Data, res.Sense)
}

// classify decides how a new command is answered.
func (e *Engine) classify(d *descriptor, received *api.SenseData) {
	id := d.initiator

	if received != nil {
		sense := *received
		e.log.Debugf("initiator %d: command received with error, sense key %#x", id, sense.Key)
		e.initiators.RaiseContingentAllegiance(id, sense)
		e.respond(d, api.SAM_STAT_CHECK_CONDITION, nil, &sense)
		return
	}

	if len(d.cdb) == 0 {
		e.queueUnknown(d)
		return
	}
	op := api.SCSICommandType(d.cdb[0])

	if op != api.INQUIRY {
		rec := e.initiators.Snapshot(id)
		if rec.PendingCA != api.CANone {
			sense := rec.Sense
			e.initiators.ClearContingentAllegiance(id)
			if op == api.REQUEST_SENSE && scsi.CheckCDB(d.cdb) == nil {
				res := scsi.SPCRequestSense(d.cdb, &sense)
				e.respond(d, res.Status, res.Data, nil)
				return
			}
			e.respond(d, api.SAM_STAT_CHECK_CONDITION, nil, &sense)
			return
		}
		if rec.PendingUA != api.UANone {
			sense := scsi.UnitAttentionSense(rec.PendingUA)
			e.initiators.ClearUnitAttention(id)
			e.log.Debugf("initiator %d: reporting unit attention %v", id, rec.PendingUA)
			e.respond(d, api.SAM_STAT_CHECK_CONDITION, nil, &sense)
			return
		}
	}

	switch op {
	case api.INQUIRY, api.TEST_UNIT_READY, api.REQUEST_SENSE, api.SEND, api.RECEIVE:
		if err := scsi.CheckCDB(d.cdb); err != nil {
			e.log.Debugf("initiator %d: %v", id, err)
			e.respondResult(d, scsi.SPCInvalidField(d.cdb))
			return
		}
	}

	switch op {
	case api.INQUIRY:
		e.respondResult(d, scsi.SPCInquiry(d.cdb, e.cfg.Attrs))
	case api.TEST_UNIT_READY:
		e.respondResult(d, scsi.SPCTestUnit(d.cdb))
	case api.REQUEST_SENSE:
		// nothing pending at this point
		e.respondResult(d, scsi.SPCRequestSense(d.cdb, nil))
	case api.SEND, api.RECEIVE:
		length := scsi.TransferLength6(d.cdb)
		if length == 0 {
			e.respond(d, api.SAM_STAT_GOOD, nil, nil)
			return
		}
		d.xfer = true
		d.resid = length
		d.dir = api.DirReceive
		if op == api.RECEIVE {
			d.dir = api.DirSend
		}
		e.queues.submitCommand(d, false)
	default:
		e.queueUnknown(d)
	}
}

func (e *Engine) queueUnknown(d *descriptor) {
	e.queues.move(d, qUnknown, false)
	e.log.Infof("initiator %d: unrecognized command % x queued as %v", d.initiator, d.cdb, d.handle)
	e.raise(api.ExceptionUnknownCommand)
}

// run starts response cycles while the unit may have more in flight. Only
// one response is ever being built; the transport's response construction is
// not reentrant.
func (e *Engine) run() {
	for e.state != api.EngineTeardown && e.queues.len(qPending) < e.cfg.MaxInFlight {
		d := e.queues.nextWork()
		if d == nil {
			return
		}
		if e.building {
			panic("target: response construction reentered")
		}
		e.building = true
		e.queues.move(d, qNone, false)
		rsp := e.buildResponse(d)
		e.queues.move(d, qPending, false)
		err := e.transport.SendResponse(rsp)
		e.building = false
		if err != nil {
			e.log.Warnf("command %v: send response: %v", d.handle, err)
			e.finish(d, err)
		}
	}
}

func (e *Engine) buildResponse(d *descriptor) *Response {
	e.cycle++
	d.cycle = e.cycle
	rsp := &Response{
		Handle:    d.handle,
		Cycle:     d.cycle,
		Initiator: d.initiator,
		Tag:       d.tag,
		Tagged:    d.tagged,
		Timeout:   d.timeout,
		Offset:    d.moved,
	}
	if d.xfer {
		b := d.buf
		rsp.Direction = b.Dir
		if b.EOF {
			d.increment = 0
			rsp.Final = true
		} else {
			d.increment = util.MinUint32(d.resid, b.remaining())
			rsp.Data = b.Data[b.moved : b.moved+int(d.increment)]
			rsp.Final = d.increment == d.resid || !d.disconnect
		}
		if rsp.Final {
			rsp.Status = api.SAM_STAT_GOOD
			rsp.Residual = d.resid - d.increment
		}
	} else {
		rsp.Direction = api.DirSend
		d.increment = d.resid
		rsp.Data = d.data
		rsp.Final = true
		rsp.Status = d.status
		rsp.Sense = d.sense
	}
	d.final = rsp.Final
	return rsp
}

func (e *Engine) handleComplete(rsp *Response, err error) {
	d := e.arena.get(rsp.Handle)
	if d == nil || d.queue != qPending || d.cycle != rsp.Cycle {
		e.log.Debugf("stale completion for %v cycle %d", rsp.Handle, rsp.Cycle)
		return
	}
	if err != nil {
		e.log.Warnf("command %v: response failed: %v", d.handle, err)
		e.finish(d, err)
		return
	}

	d.resid -= d.increment
	d.moved += d.increment
	if b := d.buf; b != nil {
		b.moved += int(d.increment)
		d.buf = nil
		e.completeBuffer(b, nil)
	}
	d.increment = 0
	if d.final {
		e.finish(d, nil)
		return
	}
	e.queues.move(d, qNone, false)
	e.queues.submitCommand(d, true)
}

// finish ends d: its buffer is returned, the transport is told and the slot
// recycled for the next command.
func (e *Engine) finish(d *descriptor, err error) {
	e.queues.move(d, qNone, false)
	if b := d.buf; b != nil {
		d.buf = nil
		berr := err
		if berr == nil {
			berr = api.ErrInterrupted
		}
		e.completeBuffer(b, berr)
	}
	info := d.info()
	e.later(func() { e.transport.CommandDone(info, err) })
	e.arena.release(d)
}

func (e *Engine) completeBuffer(b *Buffer, err error) {
	b.busy = false
	if b.completed {
		return
	}
	b.completed = true
	if b.done == nil {
		return
	}
	done, n := b.done, b.moved
	e.later(func() { done(n, err) })
}

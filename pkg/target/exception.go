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
)

// raise records an exception. Parked buffers go back to their owners so
// blocked readers and writers observe it.
func (e *Engine) raise(f api.ExceptionFlags) {
	if e.state == api.EngineTeardown {
		return
	}
	e.flags |= f
	if e.state == api.EngineNormal {
		e.state = api.EngineException
		e.log.Warnf("entering exception state: %v", e.flags)
	}
	e.returnBuffers(api.ErrException)
	e.wake()
}

func (e *Engine) returnBuffers(err error) {
	for _, b := range e.queues.drainBuffers() {
		e.completeBuffer(b, err)
	}
}

func (e *Engine) clearExceptions(mask api.ExceptionFlags) {
	e.flags &^= mask
	if e.queues.len(qUnknown) > 0 {
		e.flags |= api.ExceptionUnknownCommand
	}
	if e.flags == 0 && e.state == api.EngineException {
		e.state = api.EngineNormal
		e.log.Info("exceptions cleared")
	}
	e.wake()
}

// reset handles a bus or device reset: every command is aborted and every
// initiator gets a unit attention.
func (e *Engine) reset(ua api.UnitAttention, f api.ExceptionFlags) {
	if e.state == api.EngineTeardown {
		return
	}
	e.log.Warnf("%v: aborting all commands", ua)
	e.initiators.RaiseUnitAttention(api.Wildcard, ua)
	e.abort(api.Wildcard, api.AnyTag, api.ErrInterrupted)
	e.raise(f)
}

func (e *Engine) abort(initiator int, tag uint32, err error) int {
	var n int
	e.arena.each(func(d *descriptor) {
		if d.matches(initiator, tag) {
			e.finish(d, err)
			n++
		}
	})

	kept := e.backlog[:0]
	for _, ev := range e.backlog {
		if (initiator == api.Wildcard || ev.Initiator == initiator) && (tag == api.AnyTag || ev.Tag == tag) {
			e.refuse(ev, err)
			n++
			continue
		}
		kept = append(kept, ev)
	}
	e.backlog = kept
	if n > 0 {
		e.log.Infof("aborted %d commands of initiator %d", n, initiator)
	}
	return n
}

func (e *Engine) abortPending(redrive bool) {
	pending := e.queues.handles(qPending)
	if redrive {
		// back to the head of the work queue in their original order
		for i := len(pending) - 1; i >= 0; i-- {
			d := e.arena.get(pending[i])
			d.cycle = 0
			d.increment = 0
			e.queues.move(d, qWork, true)
		}
		e.log.Debugf("re-driving %d pending responses", len(pending))
		return
	}
	for _, h := range pending {
		e.finish(e.arena.get(h), api.ErrInterrupted)
	}
}

func (e *Engine) teardown() {
	if e.state == api.EngineTeardown {
		return
	}
	e.abort(api.Wildcard, api.AnyTag, api.ErrTeardown)
	e.returnBuffers(api.ErrTeardown)
	e.state = api.EngineTeardown
	e.log.Info("logical unit disabled")
	e.wake()
}

func (e *Engine) handleNotify(ev api.Event) {
	switch ev.Kind {
	case api.EventBusReset:
		e.reset(api.UABusReset, api.ExceptionBusReset)
	case api.EventDeviceReset:
		e.reset(api.UADeviceReset, api.ExceptionDeviceReset)
	case api.EventQueueFull:
		e.abortPending(true)
	case api.EventMessage:
		e.handleMessage(ev)
	default:
		e.log.Warnf("ignoring %v", ev.Kind)
	}
}

func (e *Engine) handleMessage(ev api.Event) {
	switch ev.Message {
	case api.MSG_ABORT:
		e.abort(ev.Initiator, api.AnyTag, api.ErrInterrupted)
	case api.MSG_ABORT_TAG:
		e.abort(ev.Initiator, ev.Tag, api.ErrInterrupted)
	case api.MSG_CLEAR_QUEUE:
		e.abort(api.Wildcard, api.AnyTag, api.ErrInterrupted)
	case api.MSG_BUS_DEVICE_RESET:
		e.reset(api.UADeviceReset, api.ExceptionDeviceReset)
	default:
		e.log.Debugf("initiator %d: ignoring message %#02x", ev.Initiator, byte(ev.Message))
	}
}

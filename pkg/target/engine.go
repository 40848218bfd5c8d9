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

// Package target implements the target mode command engine of one emulated
// SCSI logical unit: command classification, per initiator exception state,
// response queueing and the exchange of payload with user buffers.
package target

import (
	"fmt"
	"sync"
	"time"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/scsi"
	log "github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"
)

// Config describes one logical unit engine.
type Config struct {
	Lun   uint64
	Attrs api.UnitAttrs

	MaxInitiators  int
	MaxDescriptors int
	// MaxInFlight bounds the responses waiting for transport completion.
	// One keeps a single response in flight per logical unit.
	MaxInFlight     int
	ResponseTimeout time.Duration
}

// ConfigFromUnit converts a configured unit, filling defaults.
func ConfigFromUnit(u api.UnitConfig) Config {
	cfg := Config{
		Lun: u.Lun,
		Attrs: api.UnitAttrs{
			DeviceType: api.TYPE_PROCESSOR,
			VendorID:   u.VendorID,
			ProductID:  u.ProductID,
			ProductRev: u.ProductRev,
		},
		MaxInitiators:   u.MaxInitiators,
		MaxDescriptors:  u.MaxDescriptors,
		MaxInFlight:     u.MaxInFlight,
		ResponseTimeout: u.ResponseTimeout,
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.MaxInitiators <= 0 {
		c.MaxInitiators = api.DefaultMaxInitiators
	}
	if c.MaxDescriptors <= 0 {
		c.MaxDescriptors = DefaultMaxDescriptors
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 1
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = 10 * time.Second
	}
	if c.Attrs.VendorID == "" {
		c.Attrs.VendorID = "GOSTOR"
	}
	if c.Attrs.ProductID == "" {
		c.Attrs.ProductID = "SCSITARG"
	}
	if c.Attrs.ProductRev == "" {
		c.Attrs.ProductRev = "0001"
	}
	return c
}

type eventKind int

const (
	evAccept eventKind = iota
	evComplete
	evNotify
)

type event struct {
	kind   eventKind
	accept api.AcceptEvent
	rsp    *Response
	err    error
	note   api.Event
}

// Engine is the command engine of one logical unit. All state is guarded by
// mu; transport callbacks are queued on events and handled by whoever holds
// mu before it is released.
type Engine struct {
	id        uuid.UUID
	cfg       Config
	transport Transport
	log       *log.Entry

	mu         sync.Mutex
	state      api.EngineState
	flags      api.ExceptionFlags
	initiators *InitiatorTable
	arena      *arena
	queues     *queueSet
	backlog    []api.AcceptEvent
	building   bool
	cycle      uint64
	deferred   []func()
	changed    chan struct{}

	emu    sync.Mutex
	events []event
	busy   bool
}

// NewEngine returns a disabled engine answering through t.
func NewEngine(cfg Config, t Transport) *Engine {
	cfg = cfg.withDefaults()
	id := uuid.NewV4()
	a := newArena(cfg.MaxDescriptors)
	return &Engine{
		id:         id,
		cfg:        cfg,
		transport:  t,
		log:        log.WithFields(log.Fields{"lun": cfg.Lun, "engine": id.String()}),
		state:      api.EngineTeardown,
		initiators: NewInitiatorTable(cfg.MaxInitiators),
		arena:      a,
		queues:     newQueueSet(a),
		changed:    make(chan struct{}),
	}
}

func (e *Engine) ID() uuid.UUID {
	return e.id
}

func (e *Engine) Lun() uint64 {
	return e.cfg.Lun
}

func (e *Engine) lock() {
	e.mu.Lock()
	e.emu.Lock()
	e.busy = true
	e.emu.Unlock()
}

// unlock handles queued transport events, drives the queues and releases
// the engine. Deferred callbacks run without the lock held.
func (e *Engine) unlock() {
	for {
		e.admit()
		e.run()
		e.emu.Lock()
		evs := e.events
		e.events = nil
		if len(evs) == 0 {
			e.busy = false
			e.emu.Unlock()
			break
		}
		e.emu.Unlock()
		for _, ev := range evs {
			e.handle(ev)
		}
	}
	deferred := e.deferred
	e.deferred = nil
	e.mu.Unlock()
	for _, fn := range deferred {
		fn()
	}
}

func (e *Engine) post(ev event) {
	e.emu.Lock()
	e.events = append(e.events, ev)
	busy := e.busy
	e.emu.Unlock()
	if busy {
		return
	}
	e.lock()
	e.unlock()
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case evAccept:
		e.handleAccept(ev.accept)
	case evComplete:
		e.handleComplete(ev.rsp, ev.err)
	case evNotify:
		e.handleNotify(ev.note)
	}
}

func (e *Engine) later(fn func()) {
	e.deferred = append(e.deferred, fn)
}

// wake releases everybody waiting on Changed.
func (e *Engine) wake() {
	close(e.changed)
	e.changed = make(chan struct{})
}

// Accept hands a newly received command to the engine. It never blocks;
// when every descriptor is busy the command waits in a backlog.
func (e *Engine) Accept(ev api.AcceptEvent) {
	e.post(event{kind: evAccept, accept: ev})
}

// Complete reports the outcome of a response cycle started by SendResponse.
func (e *Engine) Complete(rsp *Response, err error) {
	e.post(event{kind: evComplete, rsp: rsp, err: err})
}

// Notify delivers an asynchronous bus event.
func (e *Engine) Notify(ev api.Event) {
	e.post(event{kind: evNotify, note: ev})
}

// Enable brings the unit up with a power on unit attention for every
// initiator. Enabling an enabled unit does nothing.
func (e *Engine) Enable() {
	e.lock()
	defer e.unlock()
	if e.state != api.EngineTeardown {
		return
	}
	e.initiators.Reset(api.UAPowerOn)
	e.flags = 0
	e.state = api.EngineNormal
	e.log.Info("logical unit enabled")
	e.wake()
}

// Disable tears the unit down: every command and buffer is completed with
// api.ErrTeardown.
func (e *Engine) Disable() {
	e.lock()
	defer e.unlock()
	e.teardown()
}

func (e *Engine) Status() api.EngineStatus {
	e.lock()
	defer e.unlock()
	st := api.EngineStatus{
		ID:         e.id.String(),
		Lun:        e.cfg.Lun,
		State:      e.state.String(),
		Exceptions: e.flags,
		Queues:     e.queues.depths(),
		Commands:   []api.CommandInfo{},
	}
	st.Queues.Backlog = len(e.backlog)
	e.arena.each(func(d *descriptor) {
		st.Commands = append(st.Commands, d.info())
	})
	return st
}

// State returns the engine state and the raised exceptions.
func (e *Engine) State() (api.EngineState, api.ExceptionFlags) {
	e.lock()
	defer e.unlock()
	return e.state, e.flags
}

// Changed returns a channel closed at the next exception or state change.
func (e *Engine) Changed() <-chan struct{} {
	e.lock()
	defer e.unlock()
	return e.changed
}

// ClearExceptions clears the flags in mask and returns the flags left.
func (e *Engine) ClearExceptions(mask api.ExceptionFlags) api.ExceptionFlags {
	e.lock()
	defer e.unlock()
	e.clearExceptions(mask)
	return e.flags
}

// Command returns the state of an accepted command.
func (e *Engine) Command(h Handle) (api.CommandInfo, error) {
	e.lock()
	defer e.unlock()
	d := e.arena.get(h)
	if d == nil {
		return api.CommandInfo{}, api.ErrNoSuchCommand
	}
	return d.info(), nil
}

// UnknownCommand returns the oldest unrecognized command without removing it.
func (e *Engine) UnknownCommand() (api.CommandInfo, error) {
	e.lock()
	defer e.unlock()
	if e.queues.len(qUnknown) == 0 {
		return api.CommandInfo{}, api.ErrNoUnknown
	}
	return e.arena.get(e.queues.queues[qUnknown][0]).info(), nil
}

// Respond answers an unrecognized command with an operator built response.
func (e *Engine) Respond(h Handle, disp api.Disposition) error {
	e.lock()
	defer e.unlock()
	d := e.arena.get(h)
	if d == nil {
		return api.ErrNoSuchCommand
	}
	if d.queue != qUnknown {
		return api.ErrNotUnknown
	}
	var sense *api.SenseData
	if disp.Sense != nil {
		s := *disp.Sense
		sense = &s
		if disp.Status == api.SAM_STAT_CHECK_CONDITION {
			e.initiators.RaiseContingentAllegiance(d.initiator, s)
		}
	}
	e.respond(d, disp.Status, append([]byte(nil), disp.Data...), sense)
	e.log.Debugf("unrecognized command %v answered with status %#02x", h, disp.Status)
	return nil
}

// Reject answers an unrecognized command with CHECK CONDITION, ILLEGAL
// REQUEST / INVALID COMMAND OPERATION CODE, and raises a contingent
// allegiance for its initiator.
func (e *Engine) Reject(h Handle) error {
	e.lock()
	defer e.unlock()
	d := e.arena.get(h)
	if d == nil {
		return api.ErrNoSuchCommand
	}
	if d.queue != qUnknown {
		return api.ErrNotUnknown
	}
	e.respondResult(d, scsi.SPCIllegalOp(d.cdb))
	e.log.Debugf("unrecognized command %v rejected", h)
	return nil
}

// Withdraw aborts one command wherever it is queued.
func (e *Engine) Withdraw(h Handle) error {
	e.lock()
	defer e.unlock()
	d := e.arena.get(h)
	if d == nil {
		return api.ErrNoSuchCommand
	}
	e.finish(d, api.ErrInterrupted)
	return nil
}

// Abort removes the commands of initiator (or api.Wildcard) carrying tag (or
// api.AnyTag) from every queue and returns how many were aborted.
func (e *Engine) Abort(initiator int, tag uint32) int {
	e.lock()
	defer e.unlock()
	return e.abort(initiator, tag, api.ErrInterrupted)
}

// AbortPending fails the responses waiting for transport completion, or
// with redrive puts them back at the head of the work queue.
func (e *Engine) AbortPending(redrive bool) {
	e.lock()
	defer e.unlock()
	e.abortPending(redrive)
}

// SubmitBuffer lends b to the engine. It is refused while the engine is in
// exception state or disabled; its DoneFunc is not called in that case.
func (e *Engine) SubmitBuffer(b *Buffer) error {
	e.lock()
	defer e.unlock()
	switch e.state {
	case api.EngineTeardown:
		return api.ErrTeardown
	case api.EngineException:
		return api.ErrException
	}
	if d := e.queues.submitBuffer(b); d != nil {
		e.log.Debugf("%v buffer %v paired with command %v", b.Dir, b.ID, d.handle)
	}
	return nil
}

// WithdrawBuffer takes back a parked buffer; it completes with
// api.ErrWithdrawn.
func (e *Engine) WithdrawBuffer(id uuid.UUID) error {
	e.lock()
	defer e.unlock()
	if b := e.queues.takeBuffer(id); b != nil {
		e.completeBuffer(b, api.ErrWithdrawn)
		return nil
	}
	var busy bool
	e.arena.each(func(d *descriptor) {
		if d.buf != nil && uuid.Equal(d.buf.ID, id) {
			busy = true
		}
	})
	if busy {
		return api.ErrBufferBusy
	}
	return api.ErrNoSuchBuffer
}

func (e *Engine) Initiator(id int) (api.InitiatorRecord, error) {
	e.lock()
	defer e.unlock()
	if !e.initiators.Valid(id) {
		return api.InitiatorRecord{}, api.ErrInvalidInitiator
	}
	return e.initiators.Snapshot(id), nil
}

func (e *Engine) SetInitiator(id int, r api.InitiatorRecord) error {
	e.lock()
	defer e.unlock()
	if !e.initiators.Valid(id) {
		return api.ErrInvalidInitiator
	}
	e.initiators.Set(id, r)
	return nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("lun %d (%s)", e.cfg.Lun, e.id)
}

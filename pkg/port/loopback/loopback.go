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

// Package loopback is an in-process transport: commands and bus events are
// injected by the operator and the responses an initiator would see are
// kept for inspection.
package loopback

import (
	"fmt"
	"sync"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/port"
	"github.com/gostor/scsitarg/pkg/target"
	log "github.com/sirupsen/logrus"
)

const (
	DriverName = "loopback"
	maxResults = 256
)

func init() {
	port.RegisterTransport(DriverName, New)
}

type nexus struct {
	initiator int
	tag       uint32
}

type command struct {
	payload  []byte
	data     []byte
	status   byte
	sense    *api.SenseData
	residual uint32
}

type Loopback struct {
	mu          sync.Mutex
	lun         uint64
	engine      *target.Engine
	manual      bool
	closed      bool
	active      map[nexus]*command
	outstanding []*target.Response
	results     []api.CommandResult
	log         *log.Entry
}

func New(lun uint64) (port.Transport, error) {
	return NewLoopback(lun, false), nil
}

// NewLoopback returns a loopback transport. A manual transport keeps every
// response outstanding until CompleteNext.
func NewLoopback(lun uint64, manual bool) *Loopback {
	return &Loopback{
		lun:    lun,
		manual: manual,
		active: map[nexus]*command{},
		log:    log.WithFields(log.Fields{"lun": lun, "transport": DriverName}),
	}
}

func (l *Loopback) Attach(e *target.Engine) {
	l.mu.Lock()
	l.engine = e
	l.mu.Unlock()
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.outstanding = nil
	return nil
}

// Inject delivers a command as if initiator ev.Initiator had sent it.
// payload is the data of a SEND command.
func (l *Loopback) Inject(ev api.AcceptEvent, payload []byte) error {
	l.mu.Lock()
	if l.closed || l.engine == nil {
		l.mu.Unlock()
		return api.ErrTeardown
	}
	k := nexus{ev.Initiator, ev.Tag}
	if _, ok := l.active[k]; ok {
		l.mu.Unlock()
		return fmt.Errorf("conflict: initiator %d tag %d is active", ev.Initiator, ev.Tag)
	}
	l.active[k] = &command{payload: payload}
	e := l.engine
	l.mu.Unlock()

	l.log.Debugf("initiator %d: injecting % x", ev.Initiator, ev.CDB)
	e.Accept(ev)
	return nil
}

func (l *Loopback) Event(ev api.Event) error {
	l.mu.Lock()
	e := l.engine
	closed := l.closed
	l.mu.Unlock()
	if closed || e == nil {
		return api.ErrTeardown
	}
	e.Notify(ev)
	return nil
}

func (l *Loopback) SendResponse(rsp *target.Response) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return api.ErrTeardown
	}
	if l.manual {
		l.outstanding = append(l.outstanding, rsp)
		l.mu.Unlock()
		return nil
	}
	l.deliver(rsp)
	e := l.engine
	l.mu.Unlock()
	e.Complete(rsp, nil)
	return nil
}

// deliver moves the payload of one response cycle between the initiator
// and the response.
func (l *Loopback) deliver(rsp *target.Response) {
	c := l.active[nexus{rsp.Initiator, rsp.Tag}]
	if c == nil {
		return
	}
	if rsp.Direction == api.DirReceive {
		if int(rsp.Offset) < len(c.payload) {
			copy(rsp.Data, c.payload[rsp.Offset:])
		}
	} else {
		c.data = append(c.data, rsp.Data...)
	}
	if rsp.Final {
		c.status = rsp.Status
		c.sense = rsp.Sense
		c.residual = rsp.Residual
	}
}

// CompleteNext completes the oldest outstanding response of a manual
// transport with err. It reports whether there was one.
func (l *Loopback) CompleteNext(err error) bool {
	l.mu.Lock()
	if len(l.outstanding) == 0 {
		l.mu.Unlock()
		return false
	}
	rsp := l.outstanding[0]
	l.outstanding = l.outstanding[1:]
	if err == nil {
		l.deliver(rsp)
	}
	e := l.engine
	l.mu.Unlock()
	e.Complete(rsp, err)
	return true
}

func (l *Loopback) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outstanding)
}

func (l *Loopback) CommandDone(info api.CommandInfo, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := nexus{info.Initiator, info.Tag}
	res := api.CommandResult{
		Initiator: info.Initiator,
		Tag:       info.Tag,
		CDB:       info.CDB,
		Residual:  info.Resid,
	}
	if c := l.active[k]; c != nil {
		delete(l.active, k)
		res.Status = c.status
		res.Sense = c.sense
		res.Data = c.data
		res.Residual = c.residual
	}
	if err != nil {
		res.Error = err.Error()
		l.log.Debugf("initiator %d tag %d: %v", info.Initiator, info.Tag, err)
	}
	if len(l.results) == maxResults {
		l.results = l.results[1:]
	}
	l.results = append(l.results, res)
}

// Results returns the finished commands, oldest first.
func (l *Loopback) Results() []api.CommandResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.CommandResult(nil), l.results...)
}

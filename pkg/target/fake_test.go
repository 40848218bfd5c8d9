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
	"sync"
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/util"
)

type doneRecord struct {
	info api.CommandInfo
	err  error
}

// fakeTransport records responses. With auto set it completes every
// response from inside SendResponse.
type fakeTransport struct {
	mu          sync.Mutex
	engine      *Engine
	auto        bool
	fill        byte
	sent        []*Response
	outstanding []*Response
	inFlight    int
	maxInFlight int
	done        []doneRecord
}

func (f *fakeTransport) SendResponse(rsp *Response) error {
	f.mu.Lock()
	f.sent = append(f.sent, rsp)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	if rsp.Direction == api.DirReceive {
		for i := range rsp.Data {
			rsp.Data[i] = f.fill
		}
	}
	if !f.auto {
		f.outstanding = append(f.outstanding, rsp)
		f.mu.Unlock()
		return nil
	}
	f.inFlight--
	f.mu.Unlock()
	f.engine.Complete(rsp, nil)
	return nil
}

func (f *fakeTransport) CommandDone(info api.CommandInfo, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, doneRecord{info, err})
}

// completeNext completes the oldest outstanding response.
func (f *fakeTransport) completeNext(t *testing.T, err error) *Response {
	f.mu.Lock()
	if len(f.outstanding) == 0 {
		f.mu.Unlock()
		t.Fatal("no outstanding response")
	}
	rsp := f.outstanding[0]
	f.outstanding = f.outstanding[1:]
	f.inFlight--
	f.mu.Unlock()
	f.engine.Complete(rsp, err)
	return rsp
}

func (f *fakeTransport) lastSent(t *testing.T) *Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) doneCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.done)
}

type bufferResult struct {
	calls int
	n     int
	err   error
}

func (r *bufferResult) done(n int, err error) {
	r.calls++
	r.n = n
	r.err = err
}

func newTestEngine(t *testing.T, cfg Config, auto bool) (*Engine, *fakeTransport) {
	f := &fakeTransport{auto: auto, fill: 0xa5}
	e := NewEngine(cfg, f)
	f.engine = e
	e.Enable()
	return e, f
}

// quiet drops the power on unit attention of the given initiators.
func quiet(t *testing.T, e *Engine, ids ...int) {
	for _, id := range ids {
		if err := e.SetInitiator(id, api.InitiatorRecord{}); err != nil {
			t.Fatal(err)
		}
	}
}

func cdbInquiry(evpd bool, page byte) []byte {
	var b1 byte
	if evpd {
		b1 = 0x01
	}
	return []byte{byte(api.INQUIRY), b1, page, 0, 0xff, 0}
}

func cdbTestUnitReady() []byte {
	return []byte{byte(api.TEST_UNIT_READY), 0, 0, 0, 0, 0}
}

func cdbRequestSense() []byte {
	return []byte{byte(api.REQUEST_SENSE), 0, 0, 0, 0xff, 0}
}

func cdbXfer(op api.SCSICommandType, n uint32) []byte {
	cdb := []byte{byte(op), 0, 0, 0, 0, 0}
	copy(cdb[2:5], util.MarshalUint24(n))
	return cdb
}

func accept(e *Engine, initiator int, cdb []byte) {
	e.Accept(api.AcceptEvent{Initiator: initiator, CDB: cdb, DisconnectAllowed: true})
}

func mustHandle(t *testing.T, s string) Handle {
	h, err := ParseHandle(s)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

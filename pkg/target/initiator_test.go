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

func TestInitiatorTable(t *testing.T) {
	tbl := NewInitiatorTable(4)
	tbl.Reset(api.UAPowerOn)
	for i := 0; i < tbl.Len(); i++ {
		if ua := tbl.Snapshot(i).PendingUA; ua != api.UAPowerOn {
			t.Fatalf("initiator %d: unit attention %v after reset", i, ua)
		}
	}

	tbl.RaiseUnitAttention(api.Wildcard, api.UABusReset)
	tbl.RaiseUnitAttention(api.Wildcard, api.UABusReset)
	for i := 0; i < tbl.Len(); i++ {
		if ua := tbl.Snapshot(i).PendingUA; ua != api.UABusReset {
			t.Fatalf("initiator %d: unit attention %v after bus reset", i, ua)
		}
	}

	tbl.RaiseUnitAttention(2, api.UADeviceReset)
	if ua := tbl.Snapshot(1).PendingUA; ua != api.UABusReset {
		t.Errorf("initiator 1 changed to %v", ua)
	}

	sense := api.SenseData{Key: 0x05, ASC: 0x24, Extra: []byte{1, 2}}
	tbl.RaiseContingentAllegiance(2, sense)
	snap := tbl.Snapshot(2)
	if snap.PendingCA != api.CACommandSense || snap.Sense.ASC != 0x24 {
		t.Fatalf("unexpected record %+v", snap)
	}
	snap.Sense.Extra[0] = 9
	if tbl.Snapshot(2).Sense.Extra[0] != 1 {
		t.Error("snapshot shares sense bytes with the table")
	}

	tbl.ClearContingentAllegiance(2)
	tbl.ClearUnitAttention(2)
	if r := tbl.Snapshot(2); r.PendingCA != api.CANone || r.PendingUA != api.UANone {
		t.Errorf("conditions not cleared: %+v", r)
	}

	tbl.Clear(1)
	if r := tbl.Snapshot(1); r.PendingUA != api.UANone {
		t.Errorf("clear left %+v", r)
	}

	if tbl.Valid(-1) || tbl.Valid(4) || !tbl.Valid(3) {
		t.Error("unexpected id validation")
	}
}

func TestHandleString(t *testing.T) {
	h := Handle{Index: 7, Gen: 3}
	got, err := ParseHandle(h.String())
	if err != nil || got != h {
		t.Fatalf("ParseHandle(%q) = %v, %v", h.String(), got, err)
	}
	if _, err := ParseHandle("seven"); err == nil {
		t.Error("Expected error, but got nothing")
	}
}

func TestArenaGenerations(t *testing.T) {
	a := newArena(2)
	d1 := a.alloc()
	d2 := a.alloc()
	if d1 == nil || d2 == nil || a.alloc() != nil {
		t.Fatal("arena of two did not hand out exactly two descriptors")
	}
	h := d1.handle
	a.release(d1)
	if a.get(h) != nil {
		t.Error("released handle still resolves")
	}
	d3 := a.alloc()
	if d3.handle.Index != h.Index || d3.handle.Gen == h.Gen {
		t.Errorf("recycled handle %v, old %v", d3.handle, h)
	}
	if a.inUse() != 2 {
		t.Errorf("in use %d", a.inUse())
	}
}

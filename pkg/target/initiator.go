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

import "github.com/gostor/scsitarg/pkg/api"

// InitiatorTable holds the exception state of every possible initiator of a
// logical unit. Ids are validated by the caller.
type InitiatorTable struct {
	records []api.InitiatorRecord
}

func NewInitiatorTable(size int) *InitiatorTable {
	if size <= 0 {
		size = api.DefaultMaxInitiators
	}
	return &InitiatorTable{records: make([]api.InitiatorRecord, size)}
}

func (t *InitiatorTable) Len() int {
	return len(t.records)
}

func (t *InitiatorTable) Valid(id int) bool {
	return id >= 0 && id < len(t.records)
}

// Reset forgets every condition and presets ua for all initiators.
func (t *InitiatorTable) Reset(ua api.UnitAttention) {
	for i := range t.records {
		t.records[i] = api.InitiatorRecord{PendingUA: ua}
	}
}

// RaiseUnitAttention sets ua for id, or for every initiator with api.Wildcard.
func (t *InitiatorTable) RaiseUnitAttention(id int, ua api.UnitAttention) {
	if id == api.Wildcard {
		for i := range t.records {
			t.records[i].PendingUA = ua
		}
		return
	}
	t.records[id].PendingUA = ua
}

// RaiseContingentAllegiance records sense as the reason of a failed command.
func (t *InitiatorTable) RaiseContingentAllegiance(id int, sense api.SenseData) {
	r := &t.records[id]
	r.PendingCA = api.CACommandSense
	r.Sense = sense
}

func (t *InitiatorTable) ClearUnitAttention(id int) {
	t.records[id].PendingUA = api.UANone
}

func (t *InitiatorTable) ClearContingentAllegiance(id int) {
	t.records[id].PendingCA = api.CANone
}

// Clear drops every condition of id.
func (t *InitiatorTable) Clear(id int) {
	t.records[id] = api.InitiatorRecord{}
}

func (t *InitiatorTable) Snapshot(id int) api.InitiatorRecord {
	r := t.records[id]
	if r.Sense.Extra != nil {
		r.Sense.Extra = append([]byte(nil), r.Sense.Extra...)
	}
	return r
}

func (t *InitiatorTable) Set(id int, r api.InitiatorRecord) {
	t.records[id] = r
}

/*
Copyright 2016 The GoStor Authors All rights reserved.

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

// SCSI primary command processing test
package scsi

import (
	"bytes"
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
)

var testAttrs = api.UnitAttrs{
	DeviceType: api.TYPE_PROCESSOR,
	VendorID:   "GOSTOR",
	ProductID:  "TARGET",
	ProductRev: "0.1",
}

func TestSPCInquiry(t *testing.T) {
	var tests = []struct {
		desc   string
		cdb    []byte
		status byte
		length int
		asc    byte
	}{
		{"standard page", []byte{0x12, 0, 0, 0, 36, 0}, api.SAM_STAT_GOOD, STD_INQUIRY_LEN, 0},
		{"short allocation", []byte{0x12, 0, 0, 0, 8, 0}, api.SAM_STAT_GOOD, 8, 0},
		{"16 bit allocation", []byte{0x12, 0, 0, 0x01, 0x00, 0}, api.SAM_STAT_GOOD, STD_INQUIRY_LEN, 0},
		{"evpd", []byte{0x12, 0x01, 0, 0, 36, 0}, api.SAM_STAT_CHECK_CONDITION, 0, 0x24},
		{"page without evpd", []byte{0x12, 0, 0x80, 0, 36, 0}, api.SAM_STAT_CHECK_CONDITION, 0, 0x24},
	}
	for i, tt := range tests {
		res := SPCInquiry(tt.cdb, testAttrs)
		if res.Status != tt.status {
			t.Fatalf("[%02d] test %q: status %#x, want %#x", i, tt.desc, res.Status, tt.status)
		}
		if len(res.Data) != tt.length {
			t.Errorf("[%02d] test %q: data length %d, want %d", i, tt.desc, len(res.Data), tt.length)
		}
		if tt.status == api.SAM_STAT_CHECK_CONDITION {
			if res.Sense == nil {
				t.Fatalf("[%02d] test %q: no sense data", i, tt.desc)
			}
			if res.Sense.Key != ILLEGAL_REQUEST || res.Sense.ASC != tt.asc {
				t.Errorf("[%02d] test %q: sense key %#x asc %#x", i, tt.desc, res.Sense.Key, res.Sense.ASC)
			}
		}
	}
}

func TestSPCInquiryData(t *testing.T) {
	res := SPCInquiry([]byte{0x12, 0, 0, 0, 0xff, 0}, testAttrs)
	data := res.Data
	if data[0] != byte(api.TYPE_PROCESSOR) {
		t.Errorf("device type %#x", data[0])
	}
	if int(data[4]) != STD_INQUIRY_LEN-5 {
		t.Errorf("additional length %d", data[4])
	}
	if !bytes.Equal(data[8:16], []byte("GOSTOR  ")) {
		t.Errorf("vendor %q", data[8:16])
	}
	if !bytes.Equal(data[32:36], []byte("0.1 ")) {
		t.Errorf("revision %q", data[32:36])
	}
}

func TestSPCRequestSense(t *testing.T) {
	res := SPCRequestSense([]byte{0x03, 0, 0, 0, 18, 0}, nil)
	if res.Status != api.SAM_STAT_GOOD || len(res.Data) != api.FixedSenseLength {
		t.Fatalf("no sense: status %#x length %d", res.Status, len(res.Data))
	}
	if res.Data[0] != 0x70 || res.Data[2] != NO_SENSE || res.Data[12] != 0 {
		t.Errorf("unexpected no sense data % x", res.Data)
	}

	sense := BuildSenseData(ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
	res = SPCRequestSense([]byte{0x03, 0, 0, 0, 14, 0}, &sense)
	if len(res.Data) != 14 {
		t.Fatalf("truncated length %d", len(res.Data))
	}
	if res.Data[2] != ILLEGAL_REQUEST || res.Data[12] != 0x24 || res.Data[13] != 0x00 {
		t.Errorf("unexpected sense data % x", res.Data)
	}
}

func TestUnitAttentionSense(t *testing.T) {
	var tests = []struct {
		ua   api.UnitAttention
		ascq byte
	}{
		{api.UAPowerOn, 0x01},
		{api.UABusReset, 0x02},
		{api.UADeviceReset, 0x03},
	}
	for _, tt := range tests {
		s := UnitAttentionSense(tt.ua)
		if s.Key != UNIT_ATTENTION || s.ASC != 0x29 || s.ASCQ != tt.ascq {
			t.Errorf("%v: key %#x asc %#x ascq %#x", tt.ua, s.Key, s.ASC, s.ASCQ)
		}
	}
}

func TestCheckCDB(t *testing.T) {
	if err := CheckCDB(nil); err == nil {
		t.Error("Expected error for empty CDB, but got nothing")
	}
	if err := CheckCDB([]byte{0x12, 0, 0}); err == nil {
		t.Error("Expected error for short INQUIRY, but got nothing")
	}
	if err := CheckCDB([]byte{0x28, 0, 0, 0, 0, 0, 0, 0, 1, 0}); err != nil {
		t.Errorf("Expected not error, but got %v", err)
	}
	if got := TransferLength6([]byte{0x08, 0, 0x00, 0x10, 0x00, 0}); got != 4096 {
		t.Errorf("transfer length %d", got)
	}
}

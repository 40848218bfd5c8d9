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

// SCSI primary command processing
package scsi

import (
	"bytes"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/util"
	log "github.com/sirupsen/logrus"
)

const (
	// standard inquiry data length, additional length is STD_INQUIRY_LEN - 5
	STD_INQUIRY_LEN = 36

	// SPC-3
	INQUIRY_VERSION = 0x05
	// response data format 2, hierarchical addressing not supported
	INQUIRY_RDF = 0x02
	// CmdQue: tagged command queuing is supported
	INQUIRY_CMDQUE = 0x02
)

// SPCResult is the outcome of an emulated command.
type SPCResult struct {
	Status byte
	Data   []byte
	Sense  *api.SenseData
}

func checkCondition(key byte, asc SCSISubError) SPCResult {
	sense := BuildSenseData(key, asc)
	return SPCResult{Status: api.SAM_STAT_CHECK_CONDITION, Sense: &sense}
}

func truncate(data []byte, alloc uint32) []byte {
	if uint32(len(data)) > alloc {
		return data[:alloc]
	}
	return data
}

// SPCIllegalOp rejects a command the unit does not implement.
func SPCIllegalOp(cdb []byte) SPCResult {
	return checkCondition(ILLEGAL_REQUEST, ASC_INVALID_OP_CODE)
}

// SPCInvalidField rejects a command whose CDB carries a bad field.
func SPCInvalidField(cdb []byte) SPCResult {
	return checkCondition(ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
}

// SPCInquiry returns standard inquiry data. Vital product data pages are
// not supported, so EVPD or a non-zero page code is an illegal request.
func SPCInquiry(cdb []byte, attrs api.UnitAttrs) SPCResult {
	var (
		buf   = &bytes.Buffer{}
		evpd  = cdb[1]&0x01 != 0
		pcode = cdb[2]
	)
	if evpd || pcode != 0 {
		log.Debugf("inquiry: unsupported page evpd=%v page=%#02x", evpd, pcode)
		return SPCInvalidField(cdb)
	}

	// peripheral qualifier 0, device type
	buf.WriteByte(byte(attrs.DeviceType) & 0x1f)
	// not removable
	buf.WriteByte(0x00)
	buf.WriteByte(INQUIRY_VERSION)
	buf.WriteByte(INQUIRY_RDF)
	buf.WriteByte(STD_INQUIRY_LEN - 5)
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(INQUIRY_CMDQUE)
	buf.Write(util.SpacePad(attrs.VendorID, 8))
	buf.Write(util.SpacePad(attrs.ProductID, 16))
	buf.Write(util.SpacePad(attrs.ProductRev, 4))

	return SPCResult{
		Status: api.SAM_STAT_GOOD,
		Data:   truncate(buf.Bytes(), AllocationLength(cdb)),
	}
}

// SPCTestUnit always reports a ready unit.
func SPCTestUnit(cdb []byte) SPCResult {
	return SPCResult{Status: api.SAM_STAT_GOOD}
}

// SPCRequestSense returns sense as parameter data. A nil sense means no
// condition is pending and NO SENSE is synthesized.
func SPCRequestSense(cdb []byte, sense *api.SenseData) SPCResult {
	s := NoSense()
	if sense != nil {
		s = *sense
	}
	return SPCResult{
		Status: api.SAM_STAT_GOOD,
		Data:   truncate(s.Bytes(), AllocationLength(cdb)),
	}
}

/*
Copyright 2015 The GoStor Authors All rights reserved.

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

package scsi

import (
	"fmt"

	"github.com/gostor/scsitarg/pkg/util"
)

const (
	CBD_GROUPID_0 = iota
	CBD_GROUPID_1
	CBD_GROUPID_2
	CBD_GROUPID_3
	CBD_GROUPID_4
	CBD_GROUPID_5
	CBD_GROUPID_6
	CBD_GROUPID_7
)

const (
	CDB_GROUP0 = 6  /*  6-byte commands */
	CDB_GROUP1 = 10 /* 10-byte commands */
	CDB_GROUP2 = 10 /* 10-byte commands */
	CDB_GROUP3 = 0  /* reserved */
	CDB_GROUP4 = 16 /* 16-byte commands */
	CDB_GROUP5 = 12 /* 12-byte commands */
	CDB_GROUP6 = 0  /* vendor specific  */
	CDB_GROUP7 = 0  /* vendor specific  */
)

var cdbGroupLength = [8]int{CDB_GROUP0, CDB_GROUP1, CDB_GROUP2, CDB_GROUP3, CDB_GROUP4, CDB_GROUP5, CDB_GROUP6, CDB_GROUP7}

func SCSICDBGroupID(opcode byte) byte {
	return ((opcode >> 5) & 0x7)
}

// SCSICDBLength returns the length of a CDB with the given opcode, or 0 when
// the group does not define one.
func SCSICDBLength(opcode byte) int {
	return cdbGroupLength[SCSICDBGroupID(opcode)]
}

// CheckCDB verifies that cdb is long enough for its operation code.
func CheckCDB(cdb []byte) error {
	if len(cdb) == 0 {
		return fmt.Errorf("empty CDB")
	}
	if want := SCSICDBLength(cdb[0]); len(cdb) < want {
		return fmt.Errorf("CDB opcode %#02x too short: %d < %d", cdb[0], len(cdb), want)
	}
	return nil
}

// TransferLength6 returns the 24 bit transfer length of a SEND(6) or
// RECEIVE(6) CDB.
func TransferLength6(cdb []byte) uint32 {
	return util.GetUnalignedUint24(cdb[2:5])
}

// AllocationLength returns the allocation length of INQUIRY (bytes 3-4) and
// other group 0 commands (byte 4).
func AllocationLength(cdb []byte) uint32 {
	if cdb[0] == 0x12 {
		return uint32(util.GetUnalignedUint16(cdb[3:5]))
	}
	return uint32(cdb[4])
}

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

package scsi

var (
	NO_SENSE        byte = 0x00
	RECOVERED_ERROR byte = 0x01
	NOT_READY       byte = 0x02
	MEDIUM_ERROR    byte = 0x03
	HARDWARE_ERROR  byte = 0x04
	ILLEGAL_REQUEST byte = 0x05
	UNIT_ATTENTION  byte = 0x06
	DATA_PROTECT    byte = 0x07
	BLANK_CHECK     byte = 0x08
	COPY_ABORTED    byte = 0x0a
	ABORTED_COMMAND byte = 0x0b
	VOLUME_OVERFLOW byte = 0x0d
	MISCOMPARE      byte = 0x0e
)

// SCSISubError packs ASC in the high byte and ASCQ in the low byte.
type SCSISubError uint16

var (
	// Key 0: No Sense Errors
	NO_ADDITIONAL_SENSE SCSISubError = 0x0000
	ASC_OP_IN_PROGRESS  SCSISubError = 0x0016

	// Key 2: Not ready
	ASC_CAUSE_NOT_REPORTABLE    SCSISubError = 0x0400
	ASC_BECOMING_READY          SCSISubError = 0x0401
	ASC_LOGICAL_UNIT_NOT_CONFIG SCSISubError = 0x3e00

	// Key 4: Hardware Failure
	ASC_INTERNAL_TGT_FAILURE SCSISubError = 0x4400

	// Key 5: Illegal Request
	ASC_PARAMETER_LIST_LENGTH_ERR SCSISubError = 0x1a00
	ASC_INVALID_OP_CODE           SCSISubError = 0x2000
	ASC_INVALID_FIELD_IN_CDB      SCSISubError = 0x2400
	ASC_LUN_NOT_SUPPORTED         SCSISubError = 0x2500
	ASC_INVALID_FIELD_IN_PARMS    SCSISubError = 0x2600

	// Key 6: Unit Attention
	ASC_POWERON_RESET            SCSISubError = 0x2900
	ASC_POWERON_OCCURRED         SCSISubError = 0x2901
	ASC_SCSI_BUS_RESET           SCSISubError = 0x2902
	ASC_BUS_DEVICE_RESET         SCSISubError = 0x2903
	ASC_I_T_NEXUS_LOSS_OCCURRED  SCSISubError = 0x2907
	ASC_MODE_PARAMETERS_CHANGED  SCSISubError = 0x2a01
	ASC_INQUIRY_DATA_HAS_CHANGED SCSISubError = 0x3f03

	// Key 0xb: Aborted Command
	ASC_SCSI_PARITY_ERROR       SCSISubError = 0x4700
	ASC_INITIATOR_DETECTED_ERR  SCSISubError = 0x4800
	ASC_INVALID_MESSAGE_ERROR   SCSISubError = 0x4900
	ASC_COMMAND_PHASE_ERROR     SCSISubError = 0x4a00
	ASC_DATA_PHASE_ERROR        SCSISubError = 0x4b00
	ASC_OVERLAPPED_CMDS_ATTEMPT SCSISubError = 0x4e00
)

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

import "github.com/gostor/scsitarg/pkg/api"

// BuildSenseData returns current, fixed format sense data.
func BuildSenseData(key byte, asc SCSISubError) api.SenseData {
	return api.SenseData{
		ResponseCode: 0x70,
		Key:          key,
		ASC:          byte(asc >> 8),
		ASCQ:         byte(asc),
	}
}

// NoSense is the sense reported when no condition is pending.
func NoSense() api.SenseData {
	return BuildSenseData(NO_SENSE, NO_ADDITIONAL_SENSE)
}

// UnitAttentionSense maps a pending unit attention onto its sense data.
func UnitAttentionSense(ua api.UnitAttention) api.SenseData {
	switch ua {
	case api.UABusReset:
		return BuildSenseData(UNIT_ATTENTION, ASC_SCSI_BUS_RESET)
	case api.UADeviceReset:
		return BuildSenseData(UNIT_ATTENTION, ASC_BUS_DEVICE_RESET)
	case api.UAPowerOn:
		return BuildSenseData(UNIT_ATTENTION, ASC_POWERON_OCCURRED)
	}
	return BuildSenseData(UNIT_ATTENTION, ASC_POWERON_RESET)
}

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
package api

import (
	"fmt"
	"strings"
	"time"
)

type SCSICommandType byte

var (
	TEST_UNIT_READY SCSICommandType = 0x00
	REQUEST_SENSE   SCSICommandType = 0x03
	RECEIVE         SCSICommandType = 0x08
	SEND            SCSICommandType = 0x0a
	INQUIRY         SCSICommandType = 0x12
	MODE_SELECT     SCSICommandType = 0x15
	MODE_SENSE      SCSICommandType = 0x1a
	READ_CAPACITY   SCSICommandType = 0x25
	READ_10         SCSICommandType = 0x28
	WRITE_10        SCSICommandType = 0x2a
	REPORT_LUNS     SCSICommandType = 0xa0
)

var (
	SAM_STAT_GOOD                 byte = 0x00
	SAM_STAT_CHECK_CONDITION      byte = 0x02
	SAM_STAT_BUSY                 byte = 0x08
	SAM_STAT_RESERVATION_CONFLICT byte = 0x18
	SAM_STAT_COMMAND_TERMINATED   byte = 0x22
	SAM_STAT_TASK_SET_FULL        byte = 0x28
	SAM_STAT_TASK_ABORTED         byte = 0x40
)

type SCSIDeviceType byte

var (
	TYPE_DISK      SCSIDeviceType = 0x00
	TYPE_PROCESSOR SCSIDeviceType = 0x03
	TYPE_NO_LUN    SCSIDeviceType = 0x7f
)

// Wildcard selects every initiator in initiator-scoped operations.
const Wildcard = -1

// AnyTag matches every tag in abort requests.
const AnyTag = ^uint32(0)

// DefaultMaxInitiators is the size of an initiator table.
const DefaultMaxInitiators = 256

// UnitAttention is the pending unit attention condition of an initiator.
type UnitAttention int

const (
	UANone UnitAttention = iota
	UAPowerOn
	UABusReset
	UADeviceReset
)

var uaNames = map[UnitAttention]string{
	UANone:        "none",
	UAPowerOn:     "power-on",
	UABusReset:    "bus-reset",
	UADeviceReset: "device-reset",
}

func (ua UnitAttention) String() string {
	if s, ok := uaNames[ua]; ok {
		return s
	}
	return fmt.Sprintf("ua(%d)", int(ua))
}

// ParseUnitAttention is the inverse of UnitAttention.String.
func ParseUnitAttention(s string) (UnitAttention, error) {
	for k, v := range uaNames {
		if v == s {
			return k, nil
		}
	}
	return UANone, fmt.Errorf("bad parameter: unknown unit attention %q", s)
}

// ContingentAllegiance is the pending contingent allegiance of an initiator.
type ContingentAllegiance int

const (
	CANone ContingentAllegiance = iota
	CACommandSense
)

func (ca ContingentAllegiance) String() string {
	switch ca {
	case CANone:
		return "none"
	case CACommandSense:
		return "command-sense"
	}
	return fmt.Sprintf("ca(%d)", int(ca))
}

// SenseData is fixed format sense data (SPC-4 4.5.3).
type SenseData struct {
	ResponseCode byte    `json:"responseCode"`
	Key          byte    `json:"key"`
	ASC          byte    `json:"asc"`
	ASCQ         byte    `json:"ascq"`
	Information  [4]byte `json:"information"`
	Extra        []byte  `json:"extra,omitempty"`
}

// FixedSenseLength is the size of fixed format sense data without extra bytes.
const FixedSenseLength = 18

// Bytes serializes the sense data in fixed format.
func (s SenseData) Bytes() []byte {
	buf := make([]byte, FixedSenseLength, FixedSenseLength+len(s.Extra))
	code := s.ResponseCode
	if code == 0 {
		// current, not deferred
		code = 0x70
	}
	buf[0] = code
	buf[2] = s.Key & 0x0f
	copy(buf[3:7], s.Information[:])
	buf[7] = byte(FixedSenseLength - 8 + len(s.Extra))
	buf[12] = s.ASC
	buf[13] = s.ASCQ
	return append(buf, s.Extra...)
}

// InitiatorRecord is the exception state the target keeps for one initiator.
type InitiatorRecord struct {
	PendingUA UnitAttention        `json:"pendingUnitAttention"`
	PendingCA ContingentAllegiance `json:"pendingContingentAllegiance"`
	Sense     SenseData            `json:"sense"`
}

type EngineState int

const (
	EngineNormal EngineState = iota
	EngineException
	EngineTeardown
)

func (s EngineState) String() string {
	switch s {
	case EngineNormal:
		return "normal"
	case EngineException:
		return "exception"
	case EngineTeardown:
		return "teardown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ExceptionFlags is the set of raised engine exceptions.
type ExceptionFlags uint32

const (
	ExceptionUnknownCommand ExceptionFlags = 1 << iota
	ExceptionBusReset
	ExceptionDeviceReset

	ExceptionAll = ExceptionUnknownCommand | ExceptionBusReset | ExceptionDeviceReset
)

func (f ExceptionFlags) String() string {
	if f == 0 {
		return "none"
	}
	var s []string
	if f&ExceptionUnknownCommand != 0 {
		s = append(s, "unknown-command")
	}
	if f&ExceptionBusReset != 0 {
		s = append(s, "bus-reset")
	}
	if f&ExceptionDeviceReset != 0 {
		s = append(s, "device-reset")
	}
	return strings.Join(s, ",")
}

// Direction of a user buffer. Send buffers carry data to initiators
// (RECEIVE commands), Receive buffers collect data from them (SEND commands).
type Direction int

const (
	DirSend Direction = iota
	DirReceive
)

func (d Direction) String() string {
	if d == DirSend {
		return "send"
	}
	return "receive"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "send":
		return DirSend, nil
	case "receive":
		return DirReceive, nil
	}
	return DirSend, fmt.Errorf("bad parameter: unknown direction %q", s)
}

// AcceptEvent is a command handed over by the transport.
type AcceptEvent struct {
	Initiator int    `json:"initiator"`
	Tag       uint32 `json:"tag"`
	Tagged    bool   `json:"tagged"`
	CDB       []byte `json:"cdb"`
	// DisconnectAllowed is false when the command must complete in one cycle.
	DisconnectAllowed bool `json:"disconnectAllowed"`
	// Sense is set when the transport failed to receive the command.
	Sense *SenseData `json:"sense,omitempty"`
}

// CommandInfo identifies an accepted command towards the transport and the
// control surface.
type CommandInfo struct {
	Handle    string `json:"handle"`
	Initiator int    `json:"initiator"`
	Tag       uint32 `json:"tag"`
	Tagged    bool   `json:"tagged"`
	CDB       []byte `json:"cdb"`
	Queue     string `json:"queue"`
	Resid     uint32 `json:"resid"`
	Moved     uint32 `json:"moved"`
}

type EventKind int

const (
	EventBusReset EventKind = iota
	EventDeviceReset
	EventMessage
	EventQueueFull
)

var eventNames = map[EventKind]string{
	EventBusReset:    "bus-reset",
	EventDeviceReset: "device-reset",
	EventMessage:     "message",
	EventQueueFull:   "queue-full",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, error) {
	for k, v := range eventNames {
		if v == s {
			return k, nil
		}
	}
	return EventBusReset, fmt.Errorf("bad parameter: unknown event %q", s)
}

// MessageKind is a SCSI message received by the transport on behalf of an
// initiator.
type MessageKind byte

var (
	MSG_ABORT               MessageKind = 0x06
	MSG_BUS_DEVICE_RESET    MessageKind = 0x0c
	MSG_ABORT_TAG           MessageKind = 0x0d
	MSG_CLEAR_QUEUE         MessageKind = 0x0e
	MSG_INITIATOR_DET_ERR   MessageKind = 0x05
	MSG_MESSAGE_REJECT      MessageKind = 0x07
	MSG_NOOP                MessageKind = 0x08
	MSG_PARITY_ERROR        MessageKind = 0x09
	MSG_EXTENDED            MessageKind = 0x01
	MSG_DISCONNECT          MessageKind = 0x04
	MSG_RESTORE_POINTERS    MessageKind = 0x03
	MSG_SAVE_DATA_POINTER   MessageKind = 0x02
	MSG_CMDCOMPLETE         MessageKind = 0x00
	MSG_IDENTIFY_DISCONNECT MessageKind = 0xc0
)

// Event is an asynchronous notification from the transport.
type Event struct {
	Kind      EventKind   `json:"kind"`
	Initiator int         `json:"initiator"`
	Tag       uint32      `json:"tag"`
	Message   MessageKind `json:"message"`
}

// Disposition is an operator supplied response for an unrecognized command.
type Disposition struct {
	Status byte       `json:"status"`
	Sense  *SenseData `json:"sense,omitempty"`
	Data   []byte     `json:"data,omitempty"`
}

// QueueDepths reports how many entries each queue holds.
type QueueDepths struct {
	Work        int `json:"work"`
	Pending     int `json:"pending"`
	SendXfer    int `json:"sendTransfer"`
	ReceiveXfer int `json:"receiveTransfer"`
	Unknown     int `json:"unknown"`
	SendBufs    int `json:"sendBuffers"`
	ReceiveBufs int `json:"receiveBuffers"`
	Backlog     int `json:"backlog"`
}

// EngineStatus is a snapshot of one logical unit engine.
type EngineStatus struct {
	ID         string         `json:"id"`
	Lun        uint64         `json:"lun"`
	State      string         `json:"state"`
	Exceptions ExceptionFlags `json:"exceptions"`
	Queues     QueueDepths    `json:"queues"`
	Commands   []CommandInfo  `json:"commands"`
}

// UnitAttrs are the inquiry attributes of an emulated logical unit.
type UnitAttrs struct {
	DeviceType SCSIDeviceType
	VendorID   string
	ProductID  string
	ProductRev string
}

// UnitConfig describes one logical unit engine.
type UnitConfig struct {
	Lun             uint64        `json:"lun" mapstructure:"lun"`
	VendorID        string        `json:"vendor" mapstructure:"vendor"`
	ProductID       string        `json:"product" mapstructure:"product"`
	ProductRev      string        `json:"revision" mapstructure:"revision"`
	MaxInitiators   int           `json:"maxInitiators" mapstructure:"maxInitiators"`
	MaxDescriptors  int           `json:"maxDescriptors" mapstructure:"maxDescriptors"`
	MaxInFlight     int           `json:"maxInFlight" mapstructure:"maxInFlight"`
	ResponseTimeout time.Duration `json:"responseTimeout" mapstructure:"responseTimeout"`
}

// ExceptionsResponse is returned by the exceptions endpoints.
type ExceptionsResponse struct {
	State      string         `json:"state"`
	Exceptions ExceptionFlags `json:"exceptions"`
	Names      string         `json:"names"`
}

// TransferResponse is returned by the buffer endpoints.
type TransferResponse struct {
	Bytes int    `json:"bytes"`
	Data  []byte `json:"data,omitempty"`
}

// VersionResponse is returned by GET /version.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
}

// CommandResult is what an initiator observed for one command on an
// in-process transport.
type CommandResult struct {
	Initiator int        `json:"initiator"`
	Tag       uint32     `json:"tag"`
	CDB       []byte     `json:"cdb"`
	Status    byte       `json:"status"`
	Sense     *SenseData `json:"sense,omitempty"`
	Data      []byte     `json:"data,omitempty"`
	Residual  uint32     `json:"residual"`
	Error     string     `json:"error,omitempty"`
}

// InjectRequest is the body of POST /units/{lun}/inject.
type InjectRequest struct {
	AcceptEvent
	Payload []byte `json:"payload,omitempty"`
}

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
	"time"

	"github.com/gostor/scsitarg/pkg/api"
)

// Response is one response cycle handed to the transport. For Send data
// the transport transmits Data to the initiator; for Receive data it fills
// Data with bytes from the initiator. The transport reports the outcome
// with Engine.Complete(rsp, err).
type Response struct {
	Handle    Handle
	Cycle     uint64
	Initiator int
	Tag       uint32
	Tagged    bool
	Timeout   time.Duration

	Direction api.Direction
	Data      []byte
	// Offset is the number of bytes the command moved in earlier cycles.
	Offset uint32

	// Final responses carry status and end the command.
	Final    bool
	Status   byte
	Sense    *api.SenseData
	Residual uint32
}

// Transport is the lower layer an Engine answers commands through.
type Transport interface {
	// SendResponse starts a response cycle. It must not block; it may call
	// Engine.Complete before returning. An error fails the cycle.
	SendResponse(rsp *Response) error
	// CommandDone is called exactly once for every accepted command, after
	// its last response completed (nil) or when it was aborted.
	CommandDone(cmd api.CommandInfo, err error)
}

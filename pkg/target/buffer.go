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
	"github.com/gostor/scsitarg/pkg/api"
	uuid "github.com/satori/go.uuid"
)

// DoneFunc reports how many bytes of a buffer were transferred. It runs
// after the engine lock is released and is called exactly once.
type DoneFunc func(n int, err error)

// Buffer is user memory on loan to the engine. Send buffers hold data for
// initiators, Receive buffers are filled with data from initiators. The
// engine never keeps a buffer after calling its DoneFunc.
type Buffer struct {
	ID   uuid.UUID
	Dir  api.Direction
	Data []byte
	// EOF marks an end of file marker: it satisfies a transfer with zero
	// bytes and ends the command.
	EOF bool

	done      DoneFunc
	moved     int
	busy      bool
	completed bool
}

func NewBuffer(dir api.Direction, data []byte, done DoneFunc) *Buffer {
	return &Buffer{
		ID:   uuid.NewV4(),
		Dir:  dir,
		Data: data,
		done: done,
	}
}

// NewEOF returns an end of file marker for dir.
func NewEOF(dir api.Direction, done DoneFunc) *Buffer {
	return &Buffer{
		ID:   uuid.NewV4(),
		Dir:  dir,
		EOF:  true,
		done: done,
	}
}

func (b *Buffer) remaining() uint32 {
	return uint32(len(b.Data) - b.moved)
}

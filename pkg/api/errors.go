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

import "errors"

var (
	// ErrInterrupted fails work cut short by a reset or an abort.
	ErrInterrupted = errors.New("operation interrupted")
	// ErrException refuses buffers while the engine is in exception state.
	ErrException = errors.New("engine in exception state")
	// ErrTeardown is the terminal error of a disabled logical unit.
	ErrTeardown = errors.New("logical unit disabled")
	// ErrWithdrawn completes a buffer withdrawn by its owner.
	ErrWithdrawn = errors.New("buffer withdrawn")

	ErrNoSuchCommand    = errors.New("no such command")
	ErrNoSuchBuffer     = errors.New("no such buffer")
	ErrNoSuchUnit       = errors.New("no such logical unit")
	ErrBufferBusy       = errors.New("buffer busy: conflict with active transfer")
	ErrInvalidInitiator = errors.New("bad parameter: initiator id out of range")
	ErrNotUnknown       = errors.New("conflict: command is not an unrecognized command")
	ErrNoUnknown        = errors.New("unrecognized command not found")
)

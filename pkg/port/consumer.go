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

package port

import (
	"context"
	"errors"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/target"
)

// Consumer is the local end of a logical unit: Write supplies data for
// RECEIVE commands and Read takes data delivered by SEND commands.
type Consumer struct {
	engine *target.Engine
}

func NewConsumer(e *target.Engine) *Consumer {
	return &Consumer{engine: e}
}

type transferResult struct {
	n   int
	err error
}

// Write lends p to the engine and blocks until an initiator has taken (part
// of) it. A cancelled ctx withdraws p unless a transfer is using it.
func (c *Consumer) Write(ctx context.Context, p []byte) (int, error) {
	return c.transfer(ctx, func(done target.DoneFunc) *target.Buffer {
		return target.NewBuffer(api.DirSend, p, done)
	})
}

// Read blocks until an initiator has sent data into p.
func (c *Consumer) Read(ctx context.Context, p []byte) (int, error) {
	return c.transfer(ctx, func(done target.DoneFunc) *target.Buffer {
		return target.NewBuffer(api.DirReceive, p, done)
	})
}

// CloseWrite ends the next RECEIVE command with no more data.
func (c *Consumer) CloseWrite(ctx context.Context) error {
	_, err := c.transfer(ctx, func(done target.DoneFunc) *target.Buffer {
		return target.NewEOF(api.DirSend, done)
	})
	return err
}

// CloseRead ends the next SEND command without taking its data.
func (c *Consumer) CloseRead(ctx context.Context) error {
	_, err := c.transfer(ctx, func(done target.DoneFunc) *target.Buffer {
		return target.NewEOF(api.DirReceive, done)
	})
	return err
}

// Close pushes an end of file marker for dir.
func (c *Consumer) Close(ctx context.Context, dir api.Direction) error {
	if dir == api.DirSend {
		return c.CloseWrite(ctx)
	}
	return c.CloseRead(ctx)
}

func (c *Consumer) transfer(ctx context.Context, newBuffer func(target.DoneFunc) *target.Buffer) (int, error) {
	ch := make(chan transferResult, 1)
	b := newBuffer(func(n int, err error) {
		ch <- transferResult{n, err}
	})
	if err := c.engine.SubmitBuffer(b); err != nil {
		return 0, err
	}
	select {
	case r := <-ch:
		return r.n, r.err
	case <-ctx.Done():
	}
	err := c.engine.WithdrawBuffer(b.ID)
	r := <-ch
	if err == nil && errors.Is(r.err, api.ErrWithdrawn) {
		return r.n, ctx.Err()
	}
	return r.n, r.err
}

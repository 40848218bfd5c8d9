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

// Package port connects logical unit engines to the transports that carry
// commands from initiators and to the local consumers of their payload.
package port

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/target"
	log "github.com/sirupsen/logrus"
)

// Transport is the initiator side of one logical unit.
type Transport interface {
	target.Transport
	// Attach binds the transport to the engine it feeds.
	Attach(e *target.Engine)
	Close() error
}

// Injector is implemented by transports that accept commands and bus events
// from the control surface.
type Injector interface {
	Inject(ev api.AcceptEvent, payload []byte) error
	Event(ev api.Event) error
	Results() []api.CommandResult
}

type TransportFunc func(lun uint64) (Transport, error)

var registeredTransports = map[string]TransportFunc{}

func RegisterTransport(name string, f TransportFunc) {
	registeredTransports[name] = f
}

func NewTransport(name string, lun uint64) (Transport, error) {
	f, ok := registeredTransports[name]
	if !ok {
		return nil, fmt.Errorf("SCSI transport %s is not found.", name)
	}
	return f(lun)
}

// Unit is one enabled logical unit with its transport and local consumer.
type Unit struct {
	Engine    *target.Engine
	Transport Transport
	Consumer  *Consumer
}

// Injector returns the transport as an Injector, if it is one.
func (u *Unit) Injector() (Injector, bool) {
	inj, ok := u.Transport.(Injector)
	return inj, ok
}

// Service owns the logical units of a daemon.
type Service struct {
	mu     sync.RWMutex
	driver string
	units  map[uint64]*Unit
}

func NewService(driver string) *Service {
	return &Service{
		driver: driver,
		units:  map[uint64]*Unit{},
	}
}

// AddUnit creates and enables the engine of u.
func (s *Service) AddUnit(u api.UnitConfig) (*Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[u.Lun]; ok {
		return nil, fmt.Errorf("logical unit %d already exists", u.Lun)
	}
	t, err := NewTransport(s.driver, u.Lun)
	if err != nil {
		return nil, err
	}
	e := target.NewEngine(target.ConfigFromUnit(u), t)
	t.Attach(e)
	e.Enable()
	unit := &Unit{
		Engine:    e,
		Transport: t,
		Consumer:  NewConsumer(e),
	}
	s.units[u.Lun] = unit
	log.Infof("logical unit %d created with %s transport", u.Lun, s.driver)
	return unit, nil
}

func (s *Service) Unit(lun uint64) (*Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[lun]
	if !ok {
		return nil, fmt.Errorf("lun %d: %w", lun, api.ErrNoSuchUnit)
	}
	return u, nil
}

// Units returns the units ordered by LUN.
func (s *Service) Units() []*Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*Unit
	for _, u := range s.units {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Engine.Lun() < list[j].Engine.Lun()
	})
	return list
}

// RemoveUnit disables the engine of lun and closes its transport.
func (s *Service) RemoveUnit(lun uint64) error {
	s.mu.Lock()
	u, ok := s.units[lun]
	delete(s.units, lun)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("lun %d: %w", lun, api.ErrNoSuchUnit)
	}
	u.Engine.Disable()
	return u.Transport.Close()
}

func (s *Service) Close() error {
	var first error
	for _, u := range s.Units() {
		if err := s.RemoveUnit(u.Engine.Lun()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

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
package unit

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/apiserver/httputils"
	"github.com/gostor/scsitarg/pkg/apiserver/router"
	"github.com/gostor/scsitarg/pkg/port"
	"github.com/gostor/scsitarg/pkg/target"
	"golang.org/x/net/context"
)

const (
	defaultReceiveSize = 4096
	maxTransferSize    = 1 << 24
)

// unitRouter is a router to talk with the logical unit engines
type unitRouter struct {
	service *port.Service
	routes  []router.Route
}

// NewRouter initializes a new unit router
func NewRouter(s *port.Service) router.Router {
	r := &unitRouter{service: s}
	r.initRoutes()
	return r
}

// Routes returns the available routes to the unit engines
func (s *unitRouter) Routes() []router.Route {
	return s.routes
}

// initRoutes initializes the routes in unit router
func (s *unitRouter) initRoutes() {
	unit := router.NewGroup("/units/{lun:[0-9]+}").
		Get("", s.getUnit).
		Get("/exceptions", s.getExceptions).
		Get("/unknown", s.getUnknown).
		Get("/commands/{handle}", s.getCommand).
		Get("/initiators/{id:[0-9]+}", s.getInitiator).
		Get("/results", s.getResults).
		Post("/commands/{handle}/respond", s.postRespond).
		Post("/commands/{handle}/reject", s.postReject).
		Post("/initiators/{id:[0-9]+}", s.postInitiator).
		Post("/abort", s.postAbort).
		Post("/send", s.postSend).
		Post("/receive", s.postReceive).
		Post("/eof/{dir}", s.postEOF).
		Post("/inject", s.postInject).
		Post("/events", s.postEvent).
		Post("/enable", s.postEnable).
		Post("/disable", s.postDisable).
		Delete("/exceptions", s.deleteExceptions).
		Delete("/commands/{handle}", s.deleteCommand)

	s.routes = append([]router.Route{router.NewGetRoute("/units", s.getUnits)}, unit.Routes()...)
}

func (s *unitRouter) unit(vars map[string]string) (*port.Unit, error) {
	lun, err := httputils.Uint64Var(vars, "lun")
	if err != nil {
		return nil, err
	}
	return s.service.Unit(lun)
}

func handleVar(vars map[string]string) (target.Handle, error) {
	return target.ParseHandle(vars["handle"])
}

func (s *unitRouter) getUnits(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	list := []api.EngineStatus{}
	for _, u := range s.service.Units() {
		list = append(list, u.Engine.Status())
	}
	return httputils.WriteJSON(w, http.StatusOK, list)
}

func (s *unitRouter) getUnit(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, u.Engine.Status())
}

func exceptions(e *target.Engine) api.ExceptionsResponse {
	state, flags := e.State()
	return api.ExceptionsResponse{
		State:      state.String(),
		Exceptions: flags,
		Names:      flags.String(),
	}
}

// getExceptions returns the exception state; with wait set it first blocks
// until the state or the raised exceptions change.
func (s *unitRouter) getExceptions(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	if err := httputils.ParseForm(r); err != nil {
		return err
	}
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	if httputils.BoolValue(r, "wait") {
		select {
		case <-u.Engine.Changed():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return httputils.WriteJSON(w, http.StatusOK, exceptions(u.Engine))
}

func (s *unitRouter) deleteExceptions(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	if err := httputils.ParseForm(r); err != nil {
		return err
	}
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	mask, err := httputils.Int64ValueOrDefault(r, "mask", int64(api.ExceptionAll))
	if err != nil {
		return err
	}
	u.Engine.ClearExceptions(api.ExceptionFlags(mask))
	return httputils.WriteJSON(w, http.StatusOK, exceptions(u.Engine))
}

func (s *unitRouter) getUnknown(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	info, err := u.Engine.UnknownCommand()
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, info)
}

func (s *unitRouter) getCommand(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	h, err := handleVar(vars)
	if err != nil {
		return err
	}
	info, err := u.Engine.Command(h)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, info)
}

func (s *unitRouter) postRespond(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	h, err := handleVar(vars)
	if err != nil {
		return err
	}
	var disp api.Disposition
	if err := httputils.ReadJSON(r, &disp); err != nil {
		return err
	}
	if err := u.Engine.Respond(h, disp); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) postReject(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	h, err := handleVar(vars)
	if err != nil {
		return err
	}
	if err := u.Engine.Reject(h); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) deleteCommand(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	h, err := handleVar(vars)
	if err != nil {
		return err
	}
	if err := u.Engine.Withdraw(h); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) getInitiator(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	id, err := httputils.IntVar(vars, "id")
	if err != nil {
		return err
	}
	rec, err := u.Engine.Initiator(id)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, rec)
}

func (s *unitRouter) postInitiator(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	id, err := httputils.IntVar(vars, "id")
	if err != nil {
		return err
	}
	var rec api.InitiatorRecord
	if err := httputils.ReadJSON(r, &rec); err != nil {
		return err
	}
	if err := u.Engine.SetInitiator(id, rec); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) postAbort(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	if err := httputils.ParseForm(r); err != nil {
		return err
	}
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	initiator, err := httputils.Int64ValueOrDefault(r, "initiator", api.Wildcard)
	if err != nil {
		return err
	}
	tag, err := httputils.Int64ValueOrDefault(r, "tag", int64(api.AnyTag))
	if err != nil {
		return err
	}
	if httputils.BoolValue(r, "pending") {
		u.Engine.AbortPending(httputils.BoolValue(r, "redrive"))
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	n := u.Engine.Abort(int(initiator), uint32(tag))
	return httputils.WriteJSON(w, http.StatusOK, map[string]int{"aborted": n})
}

func (s *unitRouter) postSend(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTransferSize))
	if err != nil {
		return err
	}
	n, err := u.Consumer.Write(ctx, data)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, api.TransferResponse{Bytes: n})
}

func (s *unitRouter) postReceive(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	if err := httputils.ParseForm(r); err != nil {
		return err
	}
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	size, err := httputils.Int64ValueOrDefault(r, "size", defaultReceiveSize)
	if err != nil {
		return err
	}
	if size <= 0 || size > maxTransferSize {
		return fmt.Errorf("bad parameter: size %d", size)
	}
	buf := make([]byte, size)
	n, err := u.Consumer.Read(ctx, buf)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, api.TransferResponse{Bytes: n, Data: buf[:n]})
}

func (s *unitRouter) postEOF(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	dir, err := api.ParseDirection(vars["dir"])
	if err != nil {
		return err
	}
	if err := u.Consumer.Close(ctx, dir); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) injector(vars map[string]string) (port.Injector, error) {
	u, err := s.unit(vars)
	if err != nil {
		return nil, err
	}
	inj, ok := u.Injector()
	if !ok {
		return nil, fmt.Errorf("injection not supported by the transport of lun %d", u.Engine.Lun())
	}
	return inj, nil
}

func (s *unitRouter) postInject(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	inj, err := s.injector(vars)
	if err != nil {
		return err
	}
	var req api.InjectRequest
	if err := httputils.ReadJSON(r, &req); err != nil {
		return err
	}
	if err := inj.Inject(req.AcceptEvent, req.Payload); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) postEvent(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	inj, err := s.injector(vars)
	if err != nil {
		return err
	}
	var ev api.Event
	if err := httputils.ReadJSON(r, &ev); err != nil {
		return err
	}
	if err := inj.Event(ev); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) getResults(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	inj, err := s.injector(vars)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, inj.Results())
}

func (s *unitRouter) postEnable(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	u.Engine.Enable()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *unitRouter) postDisable(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
	u, err := s.unit(vars)
	if err != nil {
		return err
	}
	u.Engine.Disable()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

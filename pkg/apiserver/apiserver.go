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

// Package apiserver contains the code that provides a rest.ful API service.
package apiserver

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	systemdActivation "github.com/coreos/go-systemd/activation"
	"github.com/docker/go-connections/sockets"
	"github.com/gorilla/mux"
	"github.com/gostor/scsitarg/pkg/apiserver/httputils"
	"github.com/gostor/scsitarg/pkg/apiserver/router"
	"github.com/gostor/scsitarg/pkg/apiserver/router/system"
	"github.com/gostor/scsitarg/pkg/apiserver/router/unit"
	"github.com/gostor/scsitarg/pkg/port"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

// versionMatcher defines a variable matcher to be parsed by the router
// when a request is about to be served.
const versionMatcher = "/v{version:[0-9.]+}"

// Config provides the configuration for the API server
type Config struct {
	Logging     bool
	Version     string
	SocketGroup string
	TLSConfig   *tls.Config
	Addrs       []Addr
}

// Addr contains string representation of address and its protocol (tcp, unix...).
type Addr struct {
	Proto string
	Addr  string
}

// ParseAddr splits PROTO://ADDR.
func ParseAddr(protoAddr string) (Addr, error) {
	parts := strings.SplitN(protoAddr, "://", 2)
	if len(parts) != 2 {
		return Addr{}, fmt.Errorf("bad format %s, expected PROTO://ADDR", protoAddr)
	}
	return Addr{Proto: parts[0], Addr: parts[1]}, nil
}

// Server serves the management API of a port service on one or more
// listeners.
type Server struct {
	cfg           *Config
	listeners     []*listener
	routers       []router.Router
	routerSwapper *routerSwapper
}

// New opens a listener for every configured address. Nothing is served
// until Serve is called.
func New(cfg *Config) (*Server, error) {
	s := &Server{cfg: cfg}
	for _, addr := range cfg.Addrs {
		ls, err := s.listen(addr)
		if err != nil {
			s.Close()
			return nil, err
		}
		log.Infof("API listener created on %s (%s)", addr.Proto, addr.Addr)
		s.listeners = append(s.listeners, ls...)
	}
	return s, nil
}

// Close stops every listener. Serve returns once all of them are down.
func (s *Server) Close() {
	for _, l := range s.listeners {
		if err := l.srv.Close(); err != nil {
			log.Error(err)
		}
		// a listener that never served is not tracked by srv
		if err := l.l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error(err)
		}
	}
}

// listener pairs an http.Server with the socket it accepts on.
type listener struct {
	addr Addr
	srv  *http.Server
	l    net.Listener
}

func (l *listener) serve() error {
	log.Infof("API listen on %s", l.l.Addr())
	err := l.srv.Serve(l.l)
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) makeHTTPHandler(handler httputils.APIFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// log the handler call
		if s.cfg.Logging {
			log.Infof("Calling %s %s", r.Method, r.URL.Path)
		} else {
			log.Debugf("Calling %s %s", r.Method, r.URL.Path)
		}

		// The request context is cancelled when the client goes away,
		// which withdraws buffers lent by blocked transfers.
		ctx := r.Context()
		handlerFunc := s.handleWithGlobalMiddlewares(handler)

		vars := mux.Vars(r)
		if vars == nil {
			vars = make(map[string]string)
		}
		if v := vars["version"]; v != "" {
			ctx = context.WithValue(ctx, httputils.APIVersionKey, v)
		}

		if err := handlerFunc(ctx, w, r, vars); err != nil {
			log.Errorf("Handler for %s %s returned error: %v", r.Method, r.URL.Path, err)
			httputils.WriteError(w, err)
		}
	}
}

// InitRouters initializes a list of routers for the server.
// Calling it again on a serving server swaps in the new routes.
func (s *Server) InitRouters(service *port.Service) {
	s.routers = nil
	s.addRouter(system.NewRouter())
	s.addRouter(unit.NewRouter(service))
	if s.routerSwapper != nil {
		s.routerSwapper.Swap(s.createMux())
	}
}

// addRouter adds a new router to the server.
func (s *Server) addRouter(r router.Router) {
	s.routers = append(s.routers, r)
}

// createMux initializes the main router the server uses.
func (s *Server) createMux() *mux.Router {
	m := mux.NewRouter()

	log.Debugf("Registering routers")
	for _, apiRouter := range s.routers {
		for _, r := range apiRouter.Routes() {
			f := s.makeHTTPHandler(r.Handler())

			log.Debugf("Registering %s, %s", r.Method(), r.Path())
			m.Path(versionMatcher + r.Path()).Methods(r.Method()).Handler(f)
			m.Path(r.Path()).Methods(r.Method()).Handler(f)
		}
	}

	return m
}

// Handler returns the HTTP handler of the registered routers.
func (s *Server) Handler() http.Handler {
	if s.routerSwapper == nil {
		s.initRouterSwapper()
	}
	return s.routerSwapper
}

// Serve serves the API on every listener until all are closed. The first
// listener failing closes the others.
func (s *Server) Serve() error {
	handler := s.Handler()
	var g errgroup.Group
	for _, l := range s.listeners {
		l := l
		l.srv.Handler = handler
		g.Go(func() error {
			if err := l.serve(); err != nil {
				s.Close()
				return fmt.Errorf("%s://%s: %v", l.addr.Proto, l.addr.Addr, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Server) initRouterSwapper() {
	s.routerSwapper = &routerSwapper{
		router: s.createMux(),
	}
}

func (s *Server) handleWithGlobalMiddlewares(handler httputils.APIFunc) httputils.APIFunc {
	return handler
}

// listen opens the sockets for one address. fd:// may yield several.
func (s *Server) listen(addr Addr) ([]*listener, error) {
	var ls []net.Listener
	switch addr.Proto {
	case "fd":
		activated, err := activatedListeners(s.cfg.TLSConfig)
		if err != nil {
			return nil, err
		}
		if ls, err = selectFD(activated, addr.Addr); err != nil {
			return nil, err
		}
	case "tcp":
		if s.cfg.TLSConfig == nil || s.cfg.TLSConfig.ClientAuth != tls.RequireAndVerifyClientCert {
			log.Warning("binding the API on a TCP address without TLS client verification")
		}
		l, err := sockets.NewTCPSocket(addr.Addr, s.cfg.TLSConfig)
		if err != nil {
			return nil, err
		}
		ls = append(ls, l)
	case "unix":
		l, err := sockets.NewUnixSocket(addr.Addr, s.cfg.SocketGroup)
		if err != nil {
			return nil, fmt.Errorf("can't create unix socket %s: %v", addr.Addr, err)
		}
		ls = append(ls, l)
	default:
		return nil, fmt.Errorf("invalid protocol %q", addr.Proto)
	}

	res := make([]*listener, 0, len(ls))
	for _, l := range ls {
		res = append(res, &listener{addr: addr, srv: &http.Server{Addr: addr.Addr}, l: l})
	}
	return res, nil
}

func activatedListeners(tlsConfig *tls.Config) ([]net.Listener, error) {
	if tlsConfig != nil {
		return systemdActivation.TLSListeners(false, tlsConfig)
	}
	return systemdActivation.Listeners(false)
}

// selectFD picks the socket activated file named by addr, or all of them
// for "" and "*". Files not picked are closed.
func selectFD(activated []net.Listener, addr string) ([]net.Listener, error) {
	if len(activated) == 0 {
		return nil, errors.New("no socket activated files found")
	}
	if addr == "" || addr == "*" {
		return activated, nil
	}

	fd, err := strconv.Atoi(addr)
	if err != nil {
		return nil, fmt.Errorf("bad systemd address %q, should be a number: %v", addr, err)
	}
	// activated files start at fd 3
	i := fd - 3
	if i < 0 || i >= len(activated) || activated[i] == nil {
		return nil, fmt.Errorf("no socket activated file at fd %d", fd)
	}
	for j, l := range activated {
		if j == i || l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			log.Errorf("closing socket activated file at fd %d: %v", j+3, err)
		}
	}
	return activated[i : i+1], nil
}

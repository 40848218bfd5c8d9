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
package apiserver

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/port"
	_ "github.com/gostor/scsitarg/pkg/port/loopback"
)

func newTestService(t *testing.T, luns ...uint64) *port.Service {
	s := port.NewService("loopback")
	for _, lun := range luns {
		if _, err := s.AddUnit(api.UnitConfig{Lun: lun}); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestParseAddr(t *testing.T) {
	var tests = []struct {
		in   string
		want Addr
		fail bool
	}{
		{"unix:///var/run/scsitarg.sock", Addr{"unix", "/var/run/scsitarg.sock"}, false},
		{"tcp://0.0.0.0:23457", Addr{"tcp", "0.0.0.0:23457"}, false},
		{"fd://", Addr{"fd", ""}, false},
		{"/var/run/scsitarg.sock", Addr{}, true},
	}
	for _, tt := range tests {
		got, err := ParseAddr(tt.in)
		if tt.fail {
			if err == nil {
				t.Errorf("%s: Expected error, but got nothing", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %+v, %v", tt.in, got, err)
		}
	}
	if _, err := New(&Config{Addrs: []Addr{{"udp", ":1"}}}); err == nil {
		t.Error("Expected error for an invalid protocol, but got nothing")
	}
}

func TestRoutes(t *testing.T) {
	s, err := New(&Config{})
	if err != nil {
		t.Fatal(err)
	}
	s.InitRouters(newTestService(t, 0, 2))
	h := s.Handler()

	var tests = []struct {
		method string
		path   string
		body   string
		code   int
	}{
		{"GET", "/version", "", http.StatusOK},
		{"GET", "/v0.1.0/units", "", http.StatusOK},
		{"GET", "/units/2", "", http.StatusOK},
		{"GET", "/units/1", "", http.StatusNotFound},
		{"GET", "/units/0/unknown", "", http.StatusNotFound},
		{"GET", "/units/0/initiators/0", "", http.StatusOK},
		{"GET", "/units/0/initiators/4096", "", http.StatusBadRequest},
		{"GET", "/units/0/commands/zz", "", http.StatusBadRequest},
		{"POST", "/units/0/eof/sideways", "", http.StatusBadRequest},
		{"POST", "/units/0/receive?size=-1", "", http.StatusBadRequest},
		{"POST", "/units/0/events", `{"kind":0}`, http.StatusNoContent},
		{"POST", "/units/0/events", `{"kind":`, http.StatusBadRequest},
		{"POST", "/units/0/abort?initiator=-1&tag=7", "", http.StatusOK},
		{"DELETE", "/units/0/exceptions", "", http.StatusOK},
		{"POST", "/units/2/disable", "", http.StatusNoContent},
		{"POST", "/units/2/inject", `{"initiator":0,"cdb":"AAAAAAAA"}`, http.StatusNoContent},
		{"GET", "/units/2/results", "", http.StatusOK},
		{"PUT", "/units/0", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		w := do(h, tt.method, tt.path, tt.body)
		if w.Code != tt.code {
			t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.code, w.Code, w.Body.String())
		}
	}
}

func TestVersionRoute(t *testing.T) {
	s, _ := New(&Config{})
	s.InitRouters(newTestService(t))
	w := do(s.Handler(), "GET", "/v0.0.7/version", "")
	var v api.VersionResponse
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Version != "0.0.7" {
		t.Errorf("expected the requested version, got %s", v.Version)
	}
}

func TestInitRoutersSwap(t *testing.T) {
	s, _ := New(&Config{})
	s.InitRouters(newTestService(t))
	h := s.Handler()
	if w := do(h, "GET", "/units/5", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	s.InitRouters(newTestService(t, 5))
	if w := do(h, "GET", "/units/5", ""); w.Code != http.StatusOK {
		t.Errorf("routes were not swapped: %d", w.Code)
	}
}

func TestSelectFD(t *testing.T) {
	open := func() []net.Listener {
		var ls []net.Listener
		for i := 0; i < 3; i++ {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			ls = append(ls, l)
		}
		return ls
	}

	ls := open()
	got, err := selectFD(ls, "*")
	if err != nil || len(got) != 3 {
		t.Fatalf("all: %d, %v", len(got), err)
	}
	for _, l := range got {
		l.Close()
	}

	ls = open()
	got, err = selectFD(ls, "4")
	if err != nil || len(got) != 1 || got[0] != ls[1] {
		t.Fatalf("fd 4: %v, %v", got, err)
	}
	if _, err := ls[0].Accept(); err == nil {
		t.Error("unselected file was not closed")
	}
	got[0].Close()

	for _, addr := range []string{"9", "2", "x"} {
		if _, err := selectFD(open(), addr); err == nil {
			t.Errorf("%s: Expected error, but got nothing", addr)
		}
	}
	if _, err := selectFD(nil, ""); err == nil {
		t.Error("Expected error, but got nothing")
	}
}

func TestServeClose(t *testing.T) {
	s, err := New(&Config{Addrs: []Addr{{"tcp", "127.0.0.1:0"}}})
	if err != nil {
		t.Fatal(err)
	}
	s.InitRouters(newTestService(t))
	addr := s.listeners[0].l.Addr().String()

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	resp, err := http.Get("http://" + addr + "/version")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	s.Close()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after Close", err)
	}
}

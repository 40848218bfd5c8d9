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
package httputils

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/version"
	"golang.org/x/net/context"
)

func TestWriteError(t *testing.T) {
	var tests = []struct {
		err  error
		code int
	}{
		{api.ErrNoSuchUnit, http.StatusNotFound},
		{fmt.Errorf("lun 3: %w", api.ErrNoSuchUnit), http.StatusNotFound},
		{api.ErrNoSuchCommand, http.StatusNotFound},
		{api.ErrNoUnknown, http.StatusNotFound},
		{api.ErrInvalidInitiator, http.StatusBadRequest},
		{api.ErrNotUnknown, http.StatusConflict},
		{api.ErrBufferBusy, http.StatusConflict},
		{api.ErrException, http.StatusConflict},
		{api.ErrTeardown, http.StatusServiceUnavailable},
		{errors.New("injection not supported by the transport of lun 0"), http.StatusNotImplemented},
		{api.ErrInterrupted, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteError(w, tt.err)
		if w.Code != tt.code {
			t.Errorf("%v: expected status %d, got %d", tt.err, tt.code, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.err.Error()) {
			t.Errorf("%v: body %q", tt.err, w.Body.String())
		}
	}
}

func TestReadJSON(t *testing.T) {
	var tests = []struct {
		contentType string
		body        string
		fail        bool
	}{
		{"application/json", `{"status":2}`, false},
		{"application/json; charset=utf-8", `{"status":2}`, false},
		{"text/plain", `{"status":2}`, true},
		{"application/json", `{"status":`, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
		r.Header.Set("Content-Type", tt.contentType)
		var disp api.Disposition
		err := ReadJSON(r, &disp)
		if tt.fail {
			if err == nil || !strings.HasPrefix(err.Error(), "bad parameter") {
				t.Errorf("%s %s: unexpected error %v", tt.contentType, tt.body, err)
			}
			continue
		}
		if err != nil || disp.Status != api.SAM_STAT_CHECK_CONDITION {
			t.Errorf("%s: got %+v, %v", tt.body, disp, err)
		}
	}
}

func TestFormValues(t *testing.T) {
	r := httptest.NewRequest("POST", "/?mask=0x3&pending=yes&redrive=0&bad=x", nil)
	if err := ParseForm(r); err != nil {
		t.Fatal(err)
	}
	if v, err := Int64ValueOrDefault(r, "mask", 7); err != nil || v != 3 {
		t.Errorf("mask = %d, %v", v, err)
	}
	if v, err := Int64ValueOrDefault(r, "tag", -1); err != nil || v != -1 {
		t.Errorf("tag = %d, %v", v, err)
	}
	if _, err := Int64ValueOrDefault(r, "bad", 0); err == nil {
		t.Error("Expected error, but got nothing")
	}
	if !BoolValue(r, "pending") || BoolValue(r, "redrive") || BoolValue(r, "missing") {
		t.Error("unexpected boolean values")
	}

	vars := map[string]string{"lun": "12", "id": "x"}
	if v, err := Uint64Var(vars, "lun"); err != nil || v != 12 {
		t.Errorf("lun = %d, %v", v, err)
	}
	if _, err := IntVar(vars, "id"); err == nil {
		t.Error("Expected error, but got nothing")
	}
}

func TestVersionFromContext(t *testing.T) {
	if v := VersionFromContext(context.Background()); v != version.VERSION {
		t.Errorf("expected default version %s, got %s", version.VERSION, v)
	}
	ctx := context.WithValue(context.Background(), APIVersionKey, "0.0.9")
	if v := VersionFromContext(ctx); v != "0.0.9" {
		t.Errorf("expected 0.0.9, got %s", v)
	}
}

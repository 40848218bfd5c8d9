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
package router

import (
	"net/http"
	"testing"

	"github.com/gostor/scsitarg/pkg/apiserver/httputils"
	"golang.org/x/net/context"
)

func TestGroup(t *testing.T) {
	var h httputils.APIFunc = func(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]string) error {
		return nil
	}
	routes := NewGroup("/units/{lun}").Get("", h).Post("/abort", h).Delete("/exceptions", h).Routes()

	var want = []struct {
		method string
		path   string
	}{
		{"GET", "/units/{lun}"},
		{"POST", "/units/{lun}/abort"},
		{"DELETE", "/units/{lun}/exceptions"},
	}
	if len(routes) != len(want) {
		t.Fatalf("expected %d routes, got %d", len(want), len(routes))
	}
	for i, w := range want {
		if routes[i].Method() != w.method || routes[i].Path() != w.path || routes[i].Handler() == nil {
			t.Errorf("route %d: got %s %s", i, routes[i].Method(), routes[i].Path())
		}
	}
}

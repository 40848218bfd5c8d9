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
package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
)

func TestParseHex(t *testing.T) {
	var tests = []struct {
		in   string
		want []byte
		fail bool
	}{
		{"12 00 00 00 24 00", []byte{0x12, 0, 0, 0, 0x24, 0}, false},
		{"120000002400", []byte{0x12, 0, 0, 0, 0x24, 0}, false},
		{"0x03:0x00", []byte{0x03, 0x00}, false},
		{"1", nil, true},
		{"zz", nil, true},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		if tt.fail {
			if err == nil {
				t.Errorf("%q: Expected error, but got nothing", tt.in)
			}
			continue
		}
		if err != nil || !bytes.Equal(got, tt.want) {
			t.Errorf("%q: got % x, %v", tt.in, got, err)
		}
	}
}

func TestInjectRequest(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "payload")
	if err := ioutil.WriteFile(file, []byte("from file"), 0600); err != nil {
		t.Fatal(err)
	}

	opts := injectOptions{initiator: 3, tag: 9, tagged: true, noDisconnect: true, payload: "inline"}
	req, err := opts.request("0a 00 00 00 06 00")
	if err != nil {
		t.Fatal(err)
	}
	if req.Initiator != 3 || req.Tag != 9 || !req.Tagged || req.DisconnectAllowed {
		t.Errorf("unexpected request %+v", req)
	}
	if api.SCSICommandType(req.CDB[0]) != api.SEND || string(req.Payload) != "inline" {
		t.Errorf("unexpected request %+v", req)
	}

	opts.payloadFile = file
	if req, err = opts.request("0a 00 00 00 09 00"); err != nil || string(req.Payload) != "from file" {
		t.Errorf("payload file not read: %q, %v", req.Payload, err)
	}
	opts.payloadFile = filepath.Join(dir, "missing")
	if _, err := opts.request("0a 00 00 00 09 00"); !os.IsNotExist(err) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDisposition(t *testing.T) {
	disp, err := respondOptions{status: api.SAM_STAT_GOOD, data: "01 02"}.disposition()
	if err != nil || disp.Sense != nil || !bytes.Equal(disp.Data, []byte{1, 2}) {
		t.Errorf("unexpected disposition %+v, %v", disp, err)
	}
	disp, err = respondOptions{status: api.SAM_STAT_CHECK_CONDITION, sense: true, senseKey: 5, asc: 0x20}.disposition()
	if err != nil || disp.Sense == nil || disp.Sense.Key != 5 || disp.Sense.ASC != 0x20 {
		t.Errorf("unexpected disposition %+v, %v", disp, err)
	}
}

func TestCommandTree(t *testing.T) {
	cli, err := client.NewClient(client.DefaultHost, "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	root := NewCommand(cli)
	for _, path := range [][]string{
		{"daemon"},
		{"unit", "list"},
		{"unit", "enable"},
		{"exceptions", "clear"},
		{"unknown", "respond"},
		{"initiator", "set"},
		{"buffer", "eof"},
		{"inject"},
		{"event"},
		{"results"},
		{"abort"},
		{"version"},
	} {
		c, _, err := root.Find(path)
		if err != nil || c.Name() != path[len(path)-1] {
			t.Errorf("%v: command not found (%v)", path, err)
		}
	}
	if err := NoArgs(root, []string{"x"}); err == nil {
		t.Error("Expected error, but got nothing")
	}
}

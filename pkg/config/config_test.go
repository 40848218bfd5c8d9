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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gostor/scsitarg/pkg/api"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if config.Driver != DefaultDriver || config.LogLevel != "info" {
		t.Errorf("unexpected defaults %+v", config)
	}
	if len(config.Hosts) != 1 || config.Hosts[0] != DefaultHost {
		t.Errorf("unexpected hosts %v", config.Hosts)
	}
	if len(config.Units) != 1 || config.Units[0].Lun != 0 {
		t.Errorf("unexpected units %+v", config.Units)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	want := &Config{
		Driver:   "loopback",
		Hosts:    []string{"tcp://127.0.0.1:23457"},
		LogLevel: "debug",
		Units: []api.UnitConfig{
			{Lun: 1, VendorID: "ACME", MaxInFlight: 2, ResponseTimeout: 5 * time.Second},
			{Lun: 4, MaxInitiators: 16},
		},
	}
	if err := want.Save(filepath.Join(dir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.LogLevel != "debug" || len(got.Units) != 2 {
		t.Fatalf("unexpected config %+v", got)
	}
	u := got.Units[0]
	if u.Lun != 1 || u.VendorID != "ACME" || u.MaxInFlight != 2 || u.ResponseTimeout != 5*time.Second {
		t.Errorf("unexpected unit %+v", u)
	}
	if got.Units[1].MaxInitiators != 16 {
		t.Errorf("unexpected unit %+v", got.Units[1])
	}
}

func TestLoadInvalid(t *testing.T) {
	var tests = []struct {
		content string
		name    string
	}{
		{`{"units": [{"lun": 1}, {"lun": 1}]}`, "duplicate lun"},
		{`{"units": [{"lun": 1, "maxInFlight": -1}]}`, "negative limit"},
		{`{"driver": `, "truncated"},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.content), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: Expected error, but got nothing", tt.name)
		}
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCSITARG_DRIVER", "other")
	config, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if config.Driver != "other" {
		t.Errorf("expected driver from the environment, got %q", config.Driver)
	}
}

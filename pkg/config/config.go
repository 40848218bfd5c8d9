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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of config file
	ConfigFileName = "config.json"
	// EnvPrefix prefixes the environment overrides, e.g. SCSITARG_DRIVER.
	EnvPrefix = "SCSITARG"

	DefaultDriver = "loopback"
	DefaultHost   = "unix:///var/run/scsitarg.sock"
)

var (
	configDir = os.Getenv("SCSITARG_CONFIG")
)

type Config struct {
	Driver   string           `json:"driver" mapstructure:"driver"`
	Hosts    []string         `json:"hosts" mapstructure:"hosts"`
	LogLevel string           `json:"logLevel" mapstructure:"logLevel"`
	Units    []api.UnitConfig `json:"units" mapstructure:"units"`
}

func init() {
	if configDir == "" {
		home, err := homedir.Dir()
		if err != nil {
			log.Warnf("cannot find home directory: %v", err)
		}
		configDir = filepath.Join(home, ".scsitarg")
	}
}

// ConfigDir returns the directory the configuration file is stored in
func ConfigDir() string {
	return configDir
}

// Load reads the configuration file in the given directory. A missing file
// yields the defaults: one logical unit 0 on the loopback transport.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = ConfigDir()
	}
	dir, err := homedir.Expand(configDir)
	if err != nil {
		return nil, err
	}
	filename := filepath.Join(dir, ConfigFileName)

	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("driver", DefaultDriver)
	v.SetDefault("hosts", []string{DefaultHost})
	v.SetDefault("logLevel", "info")
	v.SetDefault("units", []api.UnitConfig{{Lun: 0}})

	// Try happy path first - latest config file
	if _, err := os.Stat(filename); err != nil {
		if !os.IsNotExist(err) {
			// if file is there but we can't stat it for any reason other
			// than it doesn't exist then stop
			return nil, fmt.Errorf("%s - %v", filename, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s - %v", filename, err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("%s - %v", filename, err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%s - %v", filename, err)
	}
	return config, nil
}

func (config *Config) validate() error {
	seen := map[uint64]bool{}
	for _, u := range config.Units {
		if seen[u.Lun] {
			return fmt.Errorf("duplicate logical unit %d", u.Lun)
		}
		seen[u.Lun] = true
		if u.MaxInitiators < 0 || u.MaxDescriptors < 0 || u.MaxInFlight < 0 {
			return fmt.Errorf("logical unit %d: negative limit", u.Lun)
		}
	}
	return nil
}

// Save writes the configuration as indented JSON
func (config *Config) Save(filename string) error {
	if filename == "" {
		return fmt.Errorf("Can't save config with empty filename")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.MarshalIndent(config, "", "\t")
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

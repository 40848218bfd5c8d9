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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gostor/scsitarg/pkg/apiserver"
	"github.com/gostor/scsitarg/pkg/config"
	"github.com/gostor/scsitarg/pkg/port"
	_ "github.com/gostor/scsitarg/pkg/port/loopback"
	"github.com/gostor/scsitarg/pkg/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

type daemonOptions struct {
	configDir   string
	hosts       []string
	driver      string
	logLevel    string
	socketGroup string
	debugAPI    bool
}

func newDaemonCommand() *cobra.Command {
	var opts daemonOptions
	var cmd = &cobra.Command{
		Use:   "daemon",
		Short: "Setup a daemon",
		Long:  `Setup the scsitarg daemon serving the configured logical units`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			return createDaemon(opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config", config.ConfigDir(), "Directory of the configuration file")
	flags.StringSliceVarP(&opts.hosts, "host", "H", nil, "Daemon socket(s) to listen on, e.g. unix:///var/run/scsitarg.sock")
	flags.StringVar(&opts.logLevel, "log", "", "Log level of SCSI target daemon")
	flags.StringVar(&opts.driver, "driver", "", "SCSI transport driver")
	flags.StringVar(&opts.socketGroup, "group", "", "Group for the unix socket")
	flags.BoolVar(&opts.debugAPI, "log-api", false, "Log every API call at info level")
	return cmd
}

func setLogLevel(level string) error {
	switch level {
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "panic", "fatal", "error":
		log.SetLevel(log.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %v", level)
	}
	return nil
}

func createDaemon(opts daemonOptions) error {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		log.Error(err)
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	if len(opts.hosts) > 0 {
		cfg.Hosts = opts.hosts
	}
	if err := setLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	service := port.NewService(cfg.Driver)
	defer service.Close()
	for _, u := range cfg.Units {
		if _, err := service.AddUnit(u); err != nil {
			log.Error(err)
			return err
		}
	}

	serverConfig := &apiserver.Config{
		Logging:     opts.debugAPI,
		Version:     version.VERSION,
		SocketGroup: opts.socketGroup,
	}
	for _, protoAddr := range cfg.Hosts {
		addr, err := apiserver.ParseAddr(protoAddr)
		if err != nil {
			log.Error(err)
			return err
		}
		serverConfig.Addrs = append(serverConfig.Addrs, addr)
	}
	s, err := apiserver.New(serverConfig)
	if err != nil {
		log.Error(err)
		return err
	}
	s.InitRouters(service)

	stopAll := make(chan os.Signal, 1)
	signal.Notify(stopAll, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stopAll)

	// The serve API routine never exits unless an error occurs or the
	// listeners are closed below.
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(s.Serve)
	g.Go(func() error {
		select {
		case sig := <-stopAll:
			log.Infof("received %v, shutting down", sig)
		case <-ctx.Done():
		}
		s.Close()
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warnf("Shutting down due to ServeAPI error: %v", err)
		return err
	}
	return nil
}

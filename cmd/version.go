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

	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/gostor/scsitarg/pkg/version"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newVersionCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of scsitarg",
		Long:  `Print the version of the client and, when reachable, of the daemon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			fmt.Printf("Client: scsitarg %s -- %s\n", version.VERSION, commit(version.GitCommit))
			v, err := cli.ServerVersion(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Server: scsitarg %s -- %s\n", v.Version, commit(v.GitCommit))
			return nil
		},
	}
	return cmd
}

func commit(c string) string {
	if c == "" {
		return "HEAD"
	}
	return c
}

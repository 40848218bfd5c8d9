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

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newExceptionsCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "exceptions",
		Short: "Inspect and clear engine exceptions",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newExceptionsGetCmd(cli),
		newExceptionsClearCmd(cli),
	)
	return cmd
}

func printExceptions(ex api.ExceptionsResponse) {
	fmt.Printf("%s: %s\n", ex.State, ex.Names)
}

func newExceptionsGetCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var wait bool
	var cmd = &cobra.Command{
		Use:   "get",
		Short: "Show the raised exceptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			ex, err := cli.Exceptions(context.Background(), lun, wait)
			if err != nil {
				return err
			}
			printExceptions(ex)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the next change first")
	return cmd
}

func newExceptionsClearCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var unknown, busReset, deviceReset bool
	var cmd = &cobra.Command{
		Use:   "clear",
		Short: "Clear exceptions; all of them unless some are selected",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			var mask api.ExceptionFlags
			if unknown {
				mask |= api.ExceptionUnknownCommand
			}
			if busReset {
				mask |= api.ExceptionBusReset
			}
			if deviceReset {
				mask |= api.ExceptionDeviceReset
			}
			if mask == 0 {
				mask = api.ExceptionAll
			}
			ex, err := cli.ClearExceptions(context.Background(), lun, mask)
			if err != nil {
				return err
			}
			printExceptions(ex)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.BoolVar(&unknown, "unknown", false, "Clear the unrecognized command exception")
	flags.BoolVar(&busReset, "bus-reset", false, "Clear the bus reset exception")
	flags.BoolVar(&deviceReset, "device-reset", false, "Clear the device reset exception")
	return cmd
}

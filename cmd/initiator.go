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
	"strconv"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newInitiatorCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "initiator",
		Short: "Inspect and set the exception state of an initiator",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newInitiatorGetCmd(cli),
		newInitiatorSetCmd(cli),
	)
	return cmd
}

func initiatorArg(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid initiator id %q", args[0])
	}
	return id, nil
}

func newInitiatorGetCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "get ID",
		Short: "Show the pending unit attention and contingent allegiance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := initiatorArg(args)
			if err != nil {
				return err
			}
			rec, err := cli.Initiator(context.Background(), lun, id)
			if err != nil {
				return err
			}
			fmt.Printf("initiator %d: unit attention %v, contingent allegiance %v\n", id, rec.PendingUA, rec.PendingCA)
			if rec.PendingCA != api.CANone {
				fmt.Printf("sense key %#x asc %#02x ascq %#02x\n", rec.Sense.Key, rec.Sense.ASC, rec.Sense.ASCQ)
			}
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func newInitiatorSetCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var ua string
	var cmd = &cobra.Command{
		Use:   "set ID",
		Short: "Replace the exception state of an initiator",
		Long: `Replace the exception state of an initiator. The contingent allegiance
is cleared; the unit attention is set to --ua.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := initiatorArg(args)
			if err != nil {
				return err
			}
			pending, err := api.ParseUnitAttention(ua)
			if err != nil {
				return err
			}
			return cli.InitiatorSet(context.Background(), lun, id, api.InitiatorRecord{PendingUA: pending})
		},
	}
	addLunFlag(cmd, &lun)
	cmd.Flags().StringVar(&ua, "ua", "none", "Unit attention: none, power-on, bus-reset or device-reset")
	return cmd
}

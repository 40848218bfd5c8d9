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

func newUnknownCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "unknown",
		Short: "Answer commands the engine does not recognize",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newUnknownGetCmd(cli),
		newCommandShowCmd(cli),
		newUnknownRespondCmd(cli),
		newUnknownRejectCmd(cli),
		newCommandWithdrawCmd(cli),
	)
	return cmd
}

func printCommand(c api.CommandInfo) {
	fmt.Printf("%s: initiator %d tag %s queue %s cdb % x\n", c.Handle, c.Initiator, tagString(c.Tag, c.Tagged), c.Queue, c.CDB)
}

func newUnknownGetCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "get",
		Short: "Show the oldest unrecognized command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			c, err := cli.UnknownCommand(context.Background(), lun)
			if err != nil {
				return err
			}
			printCommand(c)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func newCommandShowCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "show HANDLE",
		Short: "Show an accepted command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.Command(context.Background(), lun, args[0])
			if err != nil {
				return err
			}
			printCommand(c)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

type respondOptions struct {
	status   uint8
	senseKey uint8
	asc      uint8
	ascq     uint8
	sense    bool
	data     string
}

func (o respondOptions) disposition() (api.Disposition, error) {
	disp := api.Disposition{Status: o.status}
	if o.sense {
		disp.Sense = &api.SenseData{Key: o.senseKey, ASC: o.asc, ASCQ: o.ascq}
	}
	if o.data != "" {
		data, err := parseHex(o.data)
		if err != nil {
			return disp, err
		}
		disp.Data = data
	}
	return disp, nil
}

func newUnknownRespondCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var opts respondOptions
	var cmd = &cobra.Command{
		Use:   "respond HANDLE",
		Short: "Answer an unrecognized command",
		Long: `Answer an unrecognized command with a status, optional data and
optional sense. A CHECK CONDITION with sense raises a contingent allegiance
for the initiator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.sense = cmd.Flags().Changed("sense-key")
			disp, err := opts.disposition()
			if err != nil {
				return err
			}
			return cli.CommandRespond(context.Background(), lun, args[0], disp)
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.Uint8Var(&opts.status, "status", api.SAM_STAT_CHECK_CONDITION, "SCSI status byte")
	flags.Uint8Var(&opts.senseKey, "sense-key", 0, "Sense key")
	flags.Uint8Var(&opts.asc, "asc", 0, "Additional sense code")
	flags.Uint8Var(&opts.ascq, "ascq", 0, "Additional sense code qualifier")
	flags.StringVar(&opts.data, "data", "", "Response data as hex bytes")
	return cmd
}

func newUnknownRejectCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "reject HANDLE",
		Short: "Answer an unrecognized command with INVALID COMMAND OPERATION CODE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CommandReject(context.Background(), lun, args[0])
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func newCommandWithdrawCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "withdraw HANDLE",
		Short: "Abort a command without answering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.CommandWithdraw(context.Background(), lun, args[0])
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

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
	"text/tabwriter"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newUnitCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "unit",
		Short: "Manage logical unit engines",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newUnitListCmd(cli),
		newUnitStatusCmd(cli),
		newUnitEnableCmd(cli, true),
		newUnitEnableCmd(cli, false),
	)
	return cmd
}

func newUnitListCmd(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List logical units",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			units, err := cli.UnitList(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 8, 1, 3, ' ', 0)
			fmt.Fprintln(w, "LUN\tSTATE\tEXCEPTIONS\tCOMMANDS\tBUFFERS\tID")
			for _, u := range units {
				fmt.Fprintf(w, "%d\t%s\t%v\t%d\t%d\t%s\n", u.Lun, u.State, u.Exceptions,
					len(u.Commands), u.Queues.SendBufs+u.Queues.ReceiveBufs, u.ID)
			}
			w.Flush()
			return nil
		},
	}
	return cmd
}

func newUnitStatusCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "status",
		Short: "Show the queues and commands of a logical unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			st, err := cli.UnitStatus(context.Background(), lun)
			if err != nil {
				return err
			}
			printStatus(st)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func printStatus(st api.EngineStatus) {
	fmt.Printf("LUN %d (%s): %s, exceptions %v\n", st.Lun, st.ID, st.State, st.Exceptions)
	q := st.Queues
	fmt.Printf("work %d, pending %d, transfers %d/%d, unknown %d, buffers %d/%d, backlog %d\n",
		q.Work, q.Pending, q.SendXfer, q.ReceiveXfer, q.Unknown, q.SendBufs, q.ReceiveBufs, q.Backlog)
	if len(st.Commands) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 8, 1, 3, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tINITIATOR\tTAG\tQUEUE\tMOVED\tRESID\tCDB")
	for _, c := range st.Commands {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\t% x\n", c.Handle, c.Initiator, tagString(c.Tag, c.Tagged),
			c.Queue, c.Moved, c.Resid, c.CDB)
	}
	w.Flush()
}

func tagString(tag uint32, tagged bool) string {
	if !tagged {
		return "-"
	}
	return fmt.Sprintf("%d", tag)
}

func newUnitEnableCmd(cli *client.Client, enable bool) *cobra.Command {
	var lun uint64
	use, short := "disable", "Abort every command of a logical unit and refuse new ones"
	if enable {
		use, short = "enable", "Enable a logical unit; initiators see a power-on unit attention"
	}
	var cmd = &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			return cli.UnitEnable(context.Background(), lun, enable)
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
)

func NewCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "scsitarg",
		Short: "Scsitarg is a SCSI target mode command engine",
		Long: `Scsitarg answers SCSI commands on behalf of emulated logical units.
Data commands are paired with buffers supplied by local consumers; unknown
commands are handed to the operator.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newDaemonCommand(),
		newUnitCommand(cli),
		newExceptionsCommand(cli),
		newUnknownCommand(cli),
		newInitiatorCommand(cli),
		newBufferCommand(cli),
		newInjectCommand(cli),
		newEventCommand(cli),
		newResultsCommand(cli),
		newAbortCommand(cli),
		newVersionCommand(cli),
	)
	return cmd
}

// NoArgs validate args and returns an error if there are any args
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if cmd.HasSubCommands() {
		return fmt.Errorf("\n" + strings.TrimRight(cmd.UsageString(), "\n"))
	}
	return fmt.Errorf(
		"\"%s\" accepts no argument(s).\n",
		cmd.CommandPath(),
	)
}

func addLunFlag(cmd *cobra.Command, lun *uint64) {
	cmd.Flags().Uint64Var(lun, "lun", 0, "Logical unit number")
}

// parseHex accepts bytes written as "12 00 00 00 24 00" or "120000002400".
func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes: %v", err)
	}
	return b, nil
}

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
	"io/ioutil"
	"os"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

func newBufferCommand(cli *client.Client) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "buffer",
		Short: "Exchange data with initiators",
		Long: `Exchange data with initiators. Sent data is taken by RECEIVE commands,
received data comes from SEND commands. Both block until initiators move
the data.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cmd.UsageString())
		},
	}
	cmd.AddCommand(
		newBufferSendCmd(cli),
		newBufferReceiveCmd(cli),
		newBufferEOFCmd(cli),
	)
	return cmd
}

func newBufferSendCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "send [FILE]",
		Short: "Send a file, or standard input, to initiators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = ioutil.ReadFile(args[0])
			} else {
				data, err = ioutil.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}
			n, err := cli.Send(context.Background(), lun, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d of %d bytes taken\n", n, len(data))
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func newBufferReceiveCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var size int
	var output string
	var cmd = &cobra.Command{
		Use:   "receive",
		Short: "Receive data sent by initiators",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			data, err := cli.Receive(context.Background(), lun, size)
			if err != nil {
				return err
			}
			if output != "" {
				return ioutil.WriteFile(output, data, 0644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.IntVar(&size, "size", 4096, "Size of the receive buffer")
	flags.StringVarP(&output, "output", "o", "", "Write the data to a file instead of standard output")
	return cmd
}

func newBufferEOFCmd(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "eof send|receive",
		Short: "End the transfer of the next command in a direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := api.ParseDirection(args[0])
			if err != nil {
				return err
			}
			return cli.EOF(context.Background(), lun, dir)
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

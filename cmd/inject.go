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
	"text/tabwriter"

	"github.com/gostor/scsitarg/pkg/api"
	"github.com/gostor/scsitarg/pkg/api/client"
	"github.com/spf13/cobra"
	"golang.org/x/net/context"
)

type injectOptions struct {
	initiator    int
	tag          uint32
	tagged       bool
	noDisconnect bool
	payload      string
	payloadFile  string
}

func (o injectOptions) request(cdb string) (api.InjectRequest, error) {
	req := api.InjectRequest{
		AcceptEvent: api.AcceptEvent{
			Initiator:         o.initiator,
			Tag:               o.tag,
			Tagged:            o.tagged,
			DisconnectAllowed: !o.noDisconnect,
		},
	}
	b, err := parseHex(cdb)
	if err != nil {
		return req, err
	}
	req.CDB = b
	switch {
	case o.payloadFile != "":
		if req.Payload, err = ioutil.ReadFile(o.payloadFile); err != nil {
			return req, err
		}
	case o.payload != "":
		req.Payload = []byte(o.payload)
	}
	return req, nil
}

func newInjectCommand(cli *client.Client) *cobra.Command {
	var lun uint64
	var opts injectOptions
	var cmd = &cobra.Command{
		Use:   "inject CDB",
		Short: "Deliver a command as if an initiator had sent it",
		Long: `Deliver a command to a logical unit on a loopback transport, e.g.
  scsitarg inject "12 00 00 00 24 00"
The outcome is listed by "scsitarg results".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0])
			if err != nil {
				return err
			}
			return cli.Inject(context.Background(), lun, req)
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.IntVarP(&opts.initiator, "initiator", "i", 0, "Initiator id")
	flags.Uint32VarP(&opts.tag, "tag", "t", 0, "Queue tag")
	flags.BoolVar(&opts.tagged, "tagged", false, "The command is tagged")
	flags.BoolVar(&opts.noDisconnect, "no-disconnect", false, "The command must complete in one cycle")
	flags.StringVar(&opts.payload, "payload", "", "Data of a SEND command")
	flags.StringVar(&opts.payloadFile, "payload-file", "", "File holding the data of a SEND command")
	return cmd
}

func newEventCommand(cli *client.Client) *cobra.Command {
	var lun uint64
	var ev api.Event
	var msg uint8
	var cmd = &cobra.Command{
		Use:   "event bus-reset|device-reset|message|queue-full",
		Short: "Deliver a transport event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := api.ParseEventKind(args[0])
			if err != nil {
				return err
			}
			ev.Kind = kind
			ev.Message = api.MessageKind(msg)
			return cli.Event(context.Background(), lun, ev)
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.IntVarP(&ev.Initiator, "initiator", "i", 0, "Initiator the message came from")
	flags.Uint32VarP(&ev.Tag, "tag", "t", 0, "Tag an ABORT TAG message refers to")
	flags.Uint8Var(&msg, "message", 0, "Message code, e.g. 0x06 for ABORT")
	return cmd
}

func newResultsCommand(cli *client.Client) *cobra.Command {
	var lun uint64
	var cmd = &cobra.Command{
		Use:   "results",
		Short: "List the commands finished on a loopback transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			res, err := cli.Results(context.Background(), lun)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 8, 1, 3, ' ', 0)
			fmt.Fprintln(w, "INITIATOR\tTAG\tCDB\tSTATUS\tSENSE\tBYTES\tRESIDUAL\tERROR")
			for _, r := range res {
				sense := "-"
				if r.Sense != nil {
					sense = fmt.Sprintf("%x/%02x/%02x", r.Sense.Key, r.Sense.ASC, r.Sense.ASCQ)
				}
				fmt.Fprintf(w, "%d\t%d\t% x\t%#02x\t%s\t%d\t%d\t%s\n", r.Initiator, r.Tag, r.CDB,
					r.Status, sense, len(r.Data), r.Residual, r.Error)
			}
			w.Flush()
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	return cmd
}

func newAbortCommand(cli *client.Client) *cobra.Command {
	var lun uint64
	var initiator int
	var tag int64
	var pending, redrive bool
	var cmd = &cobra.Command{
		Use:   "abort",
		Short: "Abort commands by initiator and tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NoArgs(cmd, args); err != nil {
				return err
			}
			ctx := context.Background()
			if pending {
				return cli.AbortPending(ctx, lun, redrive)
			}
			t := api.AnyTag
			if tag >= 0 {
				t = uint32(tag)
			}
			n, err := cli.Abort(ctx, lun, initiator, t)
			if err != nil {
				return err
			}
			fmt.Printf("%d command(s) aborted\n", n)
			return nil
		},
	}
	addLunFlag(cmd, &lun)
	flags := cmd.Flags()
	flags.IntVarP(&initiator, "initiator", "i", api.Wildcard, "Initiator id, -1 for all")
	flags.Int64VarP(&tag, "tag", "t", -1, "Queue tag, -1 for all")
	flags.BoolVar(&pending, "pending", false, "Abort the responses awaiting transport completion instead")
	flags.BoolVar(&redrive, "redrive", false, "With --pending, requeue the commands instead of failing them")
	return cmd
}

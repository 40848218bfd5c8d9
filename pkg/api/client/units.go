package client

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gostor/scsitarg/pkg/api"
	"golang.org/x/net/context"
)

func unitPath(lun uint64, elem string) string {
	return fmt.Sprintf("/units/%d%s", lun, elem)
}

// ServerVersion returns the version of the daemon.
func (cli *Client) ServerVersion(ctx context.Context) (api.VersionResponse, error) {
	var v api.VersionResponse
	resp, err := cli.get(ctx, "/version", nil)
	if err != nil {
		return v, err
	}
	err = decodeJSON(resp, &v)
	return v, err
}

// UnitList returns the status of every logical unit.
func (cli *Client) UnitList(ctx context.Context) ([]api.EngineStatus, error) {
	var units []api.EngineStatus
	resp, err := cli.get(ctx, "/units", nil)
	if err != nil {
		return nil, err
	}
	err = decodeJSON(resp, &units)
	return units, err
}

func (cli *Client) UnitStatus(ctx context.Context, lun uint64) (api.EngineStatus, error) {
	var st api.EngineStatus
	resp, err := cli.get(ctx, unitPath(lun, ""), nil)
	if err != nil {
		return st, err
	}
	err = decodeJSON(resp, &st)
	return st, err
}

func (cli *Client) UnitEnable(ctx context.Context, lun uint64, enable bool) error {
	op := "/disable"
	if enable {
		op = "/enable"
	}
	resp, err := cli.post(ctx, unitPath(lun, op), nil, nil)
	ensureReaderClosed(resp)
	return err
}

// Exceptions returns the exception state of lun. With wait it blocks until
// the state or the raised exceptions change.
func (cli *Client) Exceptions(ctx context.Context, lun uint64, wait bool) (api.ExceptionsResponse, error) {
	var ex api.ExceptionsResponse
	query := url.Values{}
	if wait {
		query.Set("wait", "1")
	}
	resp, err := cli.get(ctx, unitPath(lun, "/exceptions"), query)
	if err != nil {
		return ex, err
	}
	err = decodeJSON(resp, &ex)
	return ex, err
}

// ClearExceptions clears the exceptions in mask and returns what is left.
func (cli *Client) ClearExceptions(ctx context.Context, lun uint64, mask api.ExceptionFlags) (api.ExceptionsResponse, error) {
	var ex api.ExceptionsResponse
	query := url.Values{}
	query.Set("mask", strconv.FormatUint(uint64(mask), 10))
	resp, err := cli.delete(ctx, unitPath(lun, "/exceptions"), query)
	if err != nil {
		return ex, err
	}
	err = decodeJSON(resp, &ex)
	return ex, err
}

// UnknownCommand returns the oldest unrecognized command of lun.
func (cli *Client) UnknownCommand(ctx context.Context, lun uint64) (api.CommandInfo, error) {
	var info api.CommandInfo
	resp, err := cli.get(ctx, unitPath(lun, "/unknown"), nil)
	if err != nil {
		return info, err
	}
	err = decodeJSON(resp, &info)
	return info, err
}

func (cli *Client) Command(ctx context.Context, lun uint64, handle string) (api.CommandInfo, error) {
	var info api.CommandInfo
	resp, err := cli.get(ctx, unitPath(lun, "/commands/"+handle), nil)
	if err != nil {
		return info, err
	}
	err = decodeJSON(resp, &info)
	return info, err
}

func (cli *Client) CommandRespond(ctx context.Context, lun uint64, handle string, disp api.Disposition) error {
	resp, err := cli.post(ctx, unitPath(lun, "/commands/"+handle+"/respond"), nil, disp)
	ensureReaderClosed(resp)
	return err
}

// CommandReject answers an unrecognized command with an invalid operation
// code check condition.
func (cli *Client) CommandReject(ctx context.Context, lun uint64, handle string) error {
	resp, err := cli.post(ctx, unitPath(lun, "/commands/"+handle+"/reject"), nil, nil)
	ensureReaderClosed(resp)
	return err
}

func (cli *Client) CommandWithdraw(ctx context.Context, lun uint64, handle string) error {
	resp, err := cli.delete(ctx, unitPath(lun, "/commands/"+handle), nil)
	ensureReaderClosed(resp)
	return err
}

func (cli *Client) Initiator(ctx context.Context, lun uint64, id int) (api.InitiatorRecord, error) {
	var rec api.InitiatorRecord
	resp, err := cli.get(ctx, unitPath(lun, "/initiators/"+strconv.Itoa(id)), nil)
	if err != nil {
		return rec, err
	}
	err = decodeJSON(resp, &rec)
	return rec, err
}

func (cli *Client) InitiatorSet(ctx context.Context, lun uint64, id int, rec api.InitiatorRecord) error {
	resp, err := cli.post(ctx, unitPath(lun, "/initiators/"+strconv.Itoa(id)), nil, rec)
	ensureReaderClosed(resp)
	return err
}

// Abort aborts the commands of initiator (api.Wildcard for all) with tag
// (api.AnyTag for all).
func (cli *Client) Abort(ctx context.Context, lun uint64, initiator int, tag uint32) (int, error) {
	query := url.Values{}
	query.Set("initiator", strconv.Itoa(initiator))
	query.Set("tag", strconv.FormatUint(uint64(tag), 10))
	resp, err := cli.post(ctx, unitPath(lun, "/abort"), query, nil)
	if err != nil {
		return 0, err
	}
	var res map[string]int
	err = decodeJSON(resp, &res)
	return res["aborted"], err
}

// AbortPending fails or re-drives the responses awaiting completion.
func (cli *Client) AbortPending(ctx context.Context, lun uint64, redrive bool) error {
	query := url.Values{}
	query.Set("pending", "1")
	if redrive {
		query.Set("redrive", "1")
	}
	resp, err := cli.post(ctx, unitPath(lun, "/abort"), query, nil)
	ensureReaderClosed(resp)
	return err
}

// Send blocks until initiators have taken data with RECEIVE commands.
func (cli *Client) Send(ctx context.Context, lun uint64, data []byte) (int, error) {
	resp, err := cli.postRaw(ctx, unitPath(lun, "/send"), nil, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	var res api.TransferResponse
	err = decodeJSON(resp, &res)
	return res.Bytes, err
}

// Receive blocks until an initiator has sent up to size bytes.
func (cli *Client) Receive(ctx context.Context, lun uint64, size int) ([]byte, error) {
	query := url.Values{}
	query.Set("size", strconv.Itoa(size))
	resp, err := cli.post(ctx, unitPath(lun, "/receive"), query, nil)
	if err != nil {
		return nil, err
	}
	var res api.TransferResponse
	err = decodeJSON(resp, &res)
	return res.Data, err
}

// EOF pushes an end of file marker for dir.
func (cli *Client) EOF(ctx context.Context, lun uint64, dir api.Direction) error {
	resp, err := cli.post(ctx, unitPath(lun, "/eof/"+dir.String()), nil, nil)
	ensureReaderClosed(resp)
	return err
}

func (cli *Client) Inject(ctx context.Context, lun uint64, req api.InjectRequest) error {
	resp, err := cli.post(ctx, unitPath(lun, "/inject"), nil, req)
	ensureReaderClosed(resp)
	return err
}

func (cli *Client) Event(ctx context.Context, lun uint64, ev api.Event) error {
	resp, err := cli.post(ctx, unitPath(lun, "/events"), nil, ev)
	ensureReaderClosed(resp)
	return err
}

func (cli *Client) Results(ctx context.Context, lun uint64) ([]api.CommandResult, error) {
	var res []api.CommandResult
	resp, err := cli.get(ctx, unitPath(lun, "/results"), nil)
	if err != nil {
		return nil, err
	}
	err = decodeJSON(resp, &res)
	return res, err
}

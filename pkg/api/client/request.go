package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/context"
)

// serverResponse is a wrapper for http API responses.
type serverResponse struct {
	body       io.ReadCloser
	header     http.Header
	statusCode int
}

func (cli *Client) get(ctx context.Context, path string, query url.Values) (serverResponse, error) {
	return cli.sendRequest(ctx, "GET", path, query, nil, nil)
}

func (cli *Client) post(ctx context.Context, path string, query url.Values, obj interface{}) (serverResponse, error) {
	var body io.Reader
	headers := map[string]string{}
	if obj != nil {
		data, err := json.Marshal(obj)
		if err != nil {
			return serverResponse{}, err
		}
		body = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}
	return cli.sendRequest(ctx, "POST", path, query, body, headers)
}

func (cli *Client) postRaw(ctx context.Context, path string, query url.Values, body io.Reader) (serverResponse, error) {
	return cli.sendRequest(ctx, "POST", path, query, body, map[string]string{"Content-Type": "application/octet-stream"})
}

func (cli *Client) delete(ctx context.Context, path string, query url.Values) (serverResponse, error) {
	return cli.sendRequest(ctx, "DELETE", path, query, nil, nil)
}

func (cli *Client) sendRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, headers map[string]string) (serverResponse, error) {
	serverResp := serverResponse{statusCode: -1}

	req, err := http.NewRequest(method, cli.apiURL(path, query), body)
	if err != nil {
		return serverResp, err
	}
	req = req.WithContext(ctx)
	for k, v := range cli.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	req.URL.Scheme = "http"
	req.URL.Host = cli.host.Addr
	if cli.host.Proto == "unix" {
		// the dialer ignores the address; Host only has to be valid
		req.URL.Host = "scsitarg"
	}

	resp, err := cli.client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return serverResp, fmt.Errorf("Cannot connect to the scsitarg daemon at %s. Is the daemon running?", cli.host)
		}
		return serverResp, fmt.Errorf("An error occurred trying to connect: %v", err)
	}

	serverResp.statusCode = resp.StatusCode
	serverResp.header = resp.Header

	if serverResp.statusCode < 200 || serverResp.statusCode >= 400 {
		body, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return serverResp, err
		}
		if len(body) == 0 {
			return serverResp, fmt.Errorf("Error: request returned %s for API route and version %s, check if the server supports the requested API version", http.StatusText(serverResp.statusCode), req.URL)
		}
		return serverResp, fmt.Errorf("Error response from daemon: %s", bytes.TrimSpace(body))
	}
	serverResp.body = resp.Body
	return serverResp, nil
}

func decodeJSON(resp serverResponse, v interface{}) error {
	defer ensureReaderClosed(resp)
	return json.NewDecoder(resp.body).Decode(v)
}

func ensureReaderClosed(response serverResponse) {
	if body := response.body; body != nil {
		// Drain up to 512 bytes and close the body to let the Transport reuse the connection
		io.CopyN(ioutil.Discard, body, 512)
		body.Close()
	}
}

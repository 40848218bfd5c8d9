package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/docker/go-connections/sockets"
)

// DefaultHost is where the daemon listens unless configured otherwise.
const DefaultHost = "unix:///var/run/scsitarg.sock"

// Host is a parsed daemon address. BasePath is only set for tcp hosts
// carrying a path, e.g. tcp://10.0.0.1:23457/api.
type Host struct {
	Proto    string
	Addr     string
	BasePath string
}

func (h Host) String() string {
	return h.Proto + "://" + h.Addr + h.BasePath
}

// ParseHost splits PROTO://ADDR[/PATH].
func ParseHost(host string) (Host, error) {
	parts := strings.SplitN(host, "://", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Host{}, fmt.Errorf("unable to parse scsitarg host `%s`", host)
	}
	h := Host{Proto: parts[0], Addr: parts[1]}
	if h.Proto != "tcp" {
		return h, nil
	}
	u, err := url.Parse(host)
	if err != nil {
		return Host{}, err
	}
	h.Addr, h.BasePath = u.Host, strings.TrimSuffix(u.Path, "/")
	return h, nil
}

// Client talks to the unit routes of a scsitarg daemon.
type Client struct {
	host    Host
	client  *http.Client
	version string
	headers map[string]string
}

// NewClient returns a client for host speaking API version. An empty
// version leaves request paths unversioned; a nil client gets a
// transport dialing host. headers are added to every request.
func NewClient(host string, version string, client *http.Client, headers map[string]string) (*Client, error) {
	h, err := ParseHost(host)
	if err != nil {
		return nil, err
	}
	if client == nil {
		tr := &http.Transport{}
		if err := sockets.ConfigureTransport(tr, h.Proto, h.Addr); err != nil {
			return nil, err
		}
		client = &http.Client{Transport: tr}
	}
	return &Client{
		host:    h,
		client:  client,
		version: strings.TrimPrefix(version, "v"),
		headers: headers,
	}, nil
}

// ClientVersion returns the API version requests are sent with.
func (cli *Client) ClientVersion() string {
	return cli.version
}

func (cli *Client) apiURL(p string, query url.Values) string {
	prefix := cli.host.BasePath
	if cli.version != "" {
		prefix += "/v" + cli.version
	}
	u := url.URL{Path: prefix + p, RawQuery: query.Encode()}
	return u.String()
}

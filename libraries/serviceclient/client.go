package serviceclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
)

// Client reads JSON from a service's metrics listener.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New accepts the same addresses server.Listen does: a path ending in .sock
// or a unix:// URL for a socket, host:port or an http(s) URL otherwise.
func New(addr string, timeout time.Duration) *Client {
	socket := ""
	switch {
	case strings.HasPrefix(addr, "unix://"):
		if u, err := url.Parse(addr); err == nil {
			socket = u.Path
		}
	case strings.HasSuffix(addr, ".sock"):
		socket = addr
	}

	if socket != "" {
		return &Client{
			baseURL: "http://localhost",
			httpClient: &http.Client{
				Timeout: timeout,
				Transport: &http.Transport{
					DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
						var d net.Dialer
						return d.DialContext(ctx, "unix", socket)
					},
				},
			},
		}
	}

	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL:    strings.TrimSuffix(addr, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Get(ctx context.Context, path string, resp any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		return &ServiceError{
			StatusCode: httpResp.StatusCode,
			Message:    http.StatusText(httpResp.StatusCode),
			Body:       bodyBytes,
		}
	}

	if resp != nil {
		if err := encoding.JSONiter.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

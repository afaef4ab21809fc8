package httpsource

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const userAgent = "ffgrab"

// client wraps HTTP operations against the catalog and its CDN.
type client struct {
	httpClient *http.Client
	username   string
	password   string
}

func newClient(username, password string) *client {
	// No overall client timeout: an audio body may be consumed by the
	// transcoder for longer than any fixed deadline, and the job context
	// already bounds the stream. Dial and header reads stay bounded.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
	}
	return &client{
		httpClient: &http.Client{Transport: transport},
		username:   username,
		password:   password,
	}
}

// get performs an authenticated GET and returns the response body as
// bytes. Use getStream for large payloads.
func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.getStream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// getStream performs an authenticated GET and hands the body back to
// the caller unread, so audio can be piped without buffering the whole
// file in memory.
func (c *client) getStream(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

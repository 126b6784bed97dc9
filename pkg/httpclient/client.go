// Package httpclient builds HTTP clients that share a bounded connection
// pool, send a fixed set of default headers and turn 4xx and 5xx responses
// into typed errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of an error response is kept in the error.
const maxErrorBody = 64 << 10

type Client struct {
	http     *http.Client
	baseURL  *url.URL
	pool     *Pool
	ownsPool bool
}

// Do sends req. Error statuses come back as *ClientError or *ServerError
// with the body already drained and closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		responsesTotal.WithLabelValues(c.pool.Name(), "error").Inc()
		return nil, err
	}
	responsesTotal.WithLabelValues(c.pool.Name(), statusClass(resp.StatusCode)).Inc()
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if cerr := classify(resp.StatusCode, string(body)); cerr != nil {
		return nil, cerr
	}
	return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
}

// NewRequest resolves path against the base URL and encodes body as JSON
// when it is not nil.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(buf)
	}
	return http.NewRequestWithContext(ctx, method, target, r)
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse request path %q: %w", path, err)
	}
	if ref.IsAbs() || c.baseURL == nil {
		return ref.String(), nil
	}
	u := c.baseURL.JoinPath(strings.TrimPrefix(ref.Path, "/"))
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetJSON decodes the response of a GET into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// PostJSON sends in as JSON and decodes the response into out. A nil out
// discards the response body.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	req, err := c.NewRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Pool returns the connection pool the client sends through.
func (c *Client) Pool() *Pool { return c.pool }

// Close releases the pool when the client created it. Clients from a
// Factory share its pool and leave it open.
func (c *Client) Close() {
	if c.ownsPool {
		c.pool.Close()
	}
}

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/openrangelabs/middleware/pkg/web"
)

// ClientError is returned for 4xx responses.
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *ClientError) Status() web.Status { return web.Status(e.StatusCode) }

// ServerError is returned for 5xx responses.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *ServerError) Status() web.Status { return web.Status(e.StatusCode) }

// classify returns the typed error for an error status, or nil.
func classify(code int, body string) error {
	status := web.Status(code)
	switch {
	case status.IsClientError():
		return &ClientError{StatusCode: code, Body: body}
	case status.IsServerError():
		return &ServerError{StatusCode: code, Body: body}
	}
	return nil
}

// IsRetryable reports whether err is worth retrying: server errors,
// timeouts and pool exhaustion.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *ServerError
	if errors.As(err, &se) {
		return true
	}
	if errors.Is(err, ErrPoolExhausted) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
